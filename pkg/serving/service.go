package serving

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/cardiorisk/pkg/advice"
	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
	"github.com/synaptica-ai/cardiorisk/pkg/common/models"
	"github.com/synaptica-ai/cardiorisk/pkg/observability/metrics"
	"github.com/synaptica-ai/cardiorisk/pkg/patient"
	"github.com/synaptica-ai/cardiorisk/pkg/serving/predictor"
)

const EventAssessed = "risk.assessed"

var ErrLogDisabled = errors.New("assessment log disabled")

// Model is the loaded predictor.
type Model interface {
	Predict(rec patient.Record) (predictor.Prediction, error)
	Info() predictor.Info
}

type Cache interface {
	Get(ctx context.Context, key string) (*Outcome, bool, error)
	Set(ctx context.Context, key string, outcome *Outcome, ttl time.Duration) error
}

type Recorder interface {
	RecordAssessment(ctx context.Context, log *AssessmentLog) error
	Recent(ctx context.Context, limit int) ([]AssessmentLog, error)
}

type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// Options wires the optional side channels. Nil members are skipped.
type Options struct {
	Cache     Cache
	CacheTTL  time.Duration
	Recorder  Recorder
	Publisher Publisher
	Source    string
}

type Service struct {
	model   Model
	advisor *advice.Advisor
	opts    Options
}

func NewService(model Model, advisor *advice.Advisor, opts Options) *Service {
	if opts.Source == "" {
		opts.Source = "risk-service"
	}
	return &Service{model: model, advisor: advisor, opts: opts}
}

func (s *Service) Info() predictor.Info {
	return s.model.Info()
}

// Assess validates the intake form, scores it and attaches advice. A cache
// hit only skips the model and advice evaluation: every call gets its own
// assessment ID and is logged, published and counted. Cache, audit log and
// event failures are logged and do not fail the assessment.
func (s *Service) Assess(ctx context.Context, req models.AssessmentRequest) (*models.AssessmentResponse, error) {
	start := time.Now()

	rec, err := req.Patient.Record()
	if err != nil {
		metrics.ObserveRejected()
		return nil, err
	}

	info := s.model.Info()
	key := cacheKey(info, rec)

	outcome, cached := s.lookup(ctx, key)
	if !cached {
		pred, err := s.model.Predict(rec)
		if err != nil {
			metrics.ObserveFailed()
			return nil, fmt.Errorf("predicting risk: %w", err)
		}
		outcome = &Outcome{
			Prediction:  pred,
			Findings:    s.advisor.Evaluate(rec),
			Suggestions: s.advisor.Suggest(rec),
		}
		if s.opts.Cache != nil {
			if err := s.opts.Cache.Set(ctx, key, outcome, s.opts.CacheTTL); err != nil {
				logger.Log.WithError(err).Warn("assessment cache store failed")
			}
		}
	}

	pred := outcome.Prediction
	resp := &models.AssessmentResponse{
		ID:           uuid.New().String(),
		PatientID:    req.PatientID,
		Label:        pred.Label,
		Probability:  pred.RiskProbability(),
		Confidence:   pred.Confidence(),
		Findings:     outcome.Findings,
		Suggestions:  outcome.Suggestions,
		ModelName:    info.Name,
		ModelVersion: info.Version,
		Layout:       info.Layout,
		Cached:       cached,
		CreatedAt:    time.Now().UTC(),
	}
	if pred.Label == 1 {
		resp.Risk = models.RiskHigh
		resp.Message = fmt.Sprintf("High Risk of Cardiovascular Disease! (Risk probability: %.2f)", resp.Probability)
	} else {
		resp.Risk = models.RiskLow
		resp.Message = fmt.Sprintf("Low Risk of Cardiovascular Disease. (Risk probability: %.2f)", resp.Probability)
	}
	resp.Latency = time.Since(start)

	if s.opts.Recorder != nil {
		if err := s.opts.Recorder.RecordAssessment(ctx, toLog(resp, rec, pred)); err != nil {
			logger.Log.WithError(err).WithField("assessment_id", resp.ID).Error("failed to record assessment")
		}
	}
	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.PublishEvent(ctx, EventAssessed, s.opts.Source, eventPayload(resp)); err != nil {
			logger.Log.WithError(err).WithField("assessment_id", resp.ID).Error("failed to publish assessment")
		}
	}

	metrics.ObserveAssessment(pred.Label, resp.Latency)
	logger.Log.WithFields(map[string]interface{}{
		"assessment_id": resp.ID,
		"patient_id":    req.PatientID,
		"risk":          resp.Risk,
		"cached":        cached,
		"latency_ms":    resp.Latency.Milliseconds(),
	}).Info("Assessment completed")

	return resp, nil
}

// lookup returns a usable cached outcome. Cache errors and malformed entries
// count as misses.
func (s *Service) lookup(ctx context.Context, key string) (*Outcome, bool) {
	if s.opts.Cache == nil {
		return nil, false
	}
	outcome, ok, err := s.opts.Cache.Get(ctx, key)
	if err != nil {
		logger.Log.WithError(err).Warn("assessment cache lookup failed")
		return nil, false
	}
	if !ok || outcome == nil {
		return nil, false
	}
	if len(outcome.Prediction.Probabilities) != 2 || (outcome.Prediction.Label != 0 && outcome.Prediction.Label != 1) {
		logger.Log.WithField("key", key).Warn("discarding malformed cached outcome")
		return nil, false
	}
	metrics.ObserveCacheHit()
	return outcome, true
}

// Recent lists logged assessments, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]AssessmentLog, error) {
	if s.opts.Recorder == nil {
		return nil, ErrLogDisabled
	}
	return s.opts.Recorder.Recent(ctx, limit)
}

// cacheKey changes whenever the model, layout or any input field changes.
func cacheKey(info predictor.Info, rec patient.Record) string {
	payload, _ := json.Marshal(rec)
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("assessment:%s:%s:%s:%s", info.Layout, info.Name, info.Version, hex.EncodeToString(sum[:]))
}

func toLog(resp *models.AssessmentResponse, rec patient.Record, pred predictor.Prediction) *AssessmentLog {
	abnormal := advice.Abnormal(resp.Findings)
	flagged := make(map[string]interface{}, len(abnormal))
	for _, f := range abnormal {
		flagged[string(f.Field)] = string(f.Status)
	}
	id, _ := uuid.Parse(resp.ID)
	return &AssessmentLog{
		ID:           id,
		PatientID:    resp.PatientID,
		ModelName:    resp.ModelName,
		ModelVersion: resp.ModelVersion,
		Layout:       resp.Layout,
		Label:        resp.Label,
		Risk:         resp.Risk,
		Probability:  resp.Probability,
		Input:        recordMap(rec),
		Features:     pred.Vector.Map(),
		Abnormal:     flagged,
		LatencyMs:    float64(resp.Latency.Microseconds()) / 1000.0,
		CreatedAt:    resp.CreatedAt,
	}
}

func recordMap(rec patient.Record) map[string]interface{} {
	out := make(map[string]interface{}, len(patient.Fields()))
	for _, f := range patient.Fields() {
		v, _ := rec.Value(f)
		out[string(f)] = v
	}
	return out
}

func eventPayload(resp *models.AssessmentResponse) map[string]interface{} {
	return map[string]interface{}{
		"assessment_id": resp.ID,
		"patient_id":    resp.PatientID,
		"risk":          resp.Risk,
		"label":         resp.Label,
		"probability":   resp.Probability,
		"model":         resp.ModelName,
		"model_version": resp.ModelVersion,
		"layout":        resp.Layout,
		"assessed_at":   resp.CreatedAt,
	}
}
