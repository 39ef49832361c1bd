package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
	"github.com/synaptica-ai/cardiorisk/pkg/features"
	"github.com/synaptica-ai/cardiorisk/pkg/ml/forest"
	"github.com/synaptica-ai/cardiorisk/pkg/ml/linear"
	"github.com/synaptica-ai/cardiorisk/pkg/ml/scaler"
	"github.com/synaptica-ai/cardiorisk/pkg/patient"
	"github.com/synaptica-ai/cardiorisk/pkg/storage"
)

const (
	AlgorithmLogistic     = "logistic_regression"
	AlgorithmRandomForest = "random_forest"
)

// Classifier is a fitted binary classifier. PredictProba returns
// [P(class 0), P(class 1)].
type Classifier interface {
	Predict(sample []float64) (int, error)
	PredictProba(sample []float64) ([]float64, error)
}

type Artifact struct {
	Model struct {
		Name         string          `json:"name"`
		Version      string          `json:"version"`
		Type         string          `json:"type"`
		Algorithm    string          `json:"algorithm"`
		Layout       string          `json:"layout"`
		FeatureNames []string        `json:"feature_names"`
		Weights      *linear.Weights `json:"weights,omitempty"`
		Forest       *forest.Spec    `json:"forest,omitempty"`
	} `json:"model"`
}

type Options struct {
	ModelURI  string
	ScalerURI string
	// Layout names a built-in layout. Empty means the layout recorded in
	// the model artifact.
	Layout string
	// LayoutURI points at a YAML layout contract and wins over Layout.
	LayoutURI string
}

// Info describes the loaded model and its feature contract.
type Info struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Algorithm string            `json:"algorithm"`
	Layout    string            `json:"layout"`
	Encoding  features.Encoding `json:"encoding"`
	Columns   []string          `json:"columns"`
	Scaled    []string          `json:"scaled"`
}

type Prediction struct {
	Label         int             `json:"label"`
	Probabilities []float64       `json:"probabilities"`
	Vector        features.Vector `json:"vector"`
}

// RiskProbability is P(CHD).
func (p Prediction) RiskProbability() float64 {
	return p.Probabilities[1]
}

// Confidence is the probability of the predicted label.
func (p Prediction) Confidence() float64 {
	return p.Probabilities[p.Label]
}

// Predictor bundles a pipeline with its classifier. It is built once at
// startup and never mutated, so it is shared freely between requests.
type Predictor struct {
	info       Info
	pipeline   *features.Pipeline
	classifier Classifier
}

func New(info Info, pipeline *features.Pipeline, classifier Classifier) (*Predictor, error) {
	if pipeline == nil || classifier == nil {
		return nil, errors.New("predictor requires a pipeline and a classifier")
	}
	layout := pipeline.Layout()
	info.Layout = layout.Name()
	info.Encoding = layout.Encoding()
	info.Columns = layout.ColumnNames()
	info.Scaled = layout.ScaledColumns()
	return &Predictor{info: info, pipeline: pipeline, classifier: classifier}, nil
}

// Load reads the model and scaler artifacts and verifies both against the
// feature layout before anything is served.
func Load(ctx context.Context, src storage.ArtifactSource, opts Options) (*Predictor, error) {
	content, err := src.Read(ctx, opts.ModelURI)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(content, &artifact); err != nil {
		return nil, fmt.Errorf("decoding model artifact: %w", err)
	}
	if len(artifact.Model.FeatureNames) == 0 {
		return nil, fmt.Errorf("artifact missing feature names")
	}

	classifier, err := buildClassifier(artifact)
	if err != nil {
		return nil, err
	}

	layout, err := resolveLayout(ctx, src, opts, artifact.Model.Layout)
	if err != nil {
		return nil, err
	}
	if artifact.Model.Layout != "" && artifact.Model.Layout != layout.Name() {
		return nil, fmt.Errorf("model trained on layout %s, configured %s: %w", artifact.Model.Layout, layout.Name(), features.ErrContractMismatch)
	}
	if err := layout.CheckColumns(artifact.Model.FeatureNames); err != nil {
		return nil, err
	}

	var transformer features.Transformer
	if opts.ScalerURI != "" {
		raw, err := src.Read(ctx, opts.ScalerURI)
		if err != nil {
			return nil, fmt.Errorf("reading scaler artifact: %w", err)
		}
		std, err := scaler.Parse(raw)
		if err != nil {
			return nil, err
		}
		if std.Layout() != "" && std.Layout() != layout.Name() {
			return nil, fmt.Errorf("scaler fitted on layout %s, configured %s: %w", std.Layout(), layout.Name(), features.ErrContractMismatch)
		}
		transformer = std
	}

	pipeline, err := features.NewPipeline(layout, transformer)
	if err != nil {
		return nil, err
	}

	p, err := New(Info{
		Name:      artifact.Model.Name,
		Version:   artifact.Model.Version,
		Algorithm: artifact.Model.Algorithm,
	}, pipeline, classifier)
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"model":     p.info.Name,
		"version":   p.info.Version,
		"algorithm": p.info.Algorithm,
		"layout":    p.info.Layout,
		"columns":   len(p.info.Columns),
	}).Info("Model loaded")
	return p, nil
}

func buildClassifier(artifact Artifact) (Classifier, error) {
	switch artifact.Model.Algorithm {
	case AlgorithmLogistic:
		if artifact.Model.Weights == nil {
			return nil, errors.New("logistic artifact missing weights")
		}
		if len(artifact.Model.Weights.Coefficients) != len(artifact.Model.FeatureNames) {
			return nil, fmt.Errorf("%d coefficients for %d features: %w", len(artifact.Model.Weights.Coefficients), len(artifact.Model.FeatureNames), features.ErrContractMismatch)
		}
		return linear.NewModel(*artifact.Model.Weights)
	case AlgorithmRandomForest:
		if artifact.Model.Forest == nil {
			return nil, errors.New("random forest artifact missing trees")
		}
		spec := *artifact.Model.Forest
		if spec.NFeatures == 0 {
			spec.NFeatures = len(artifact.Model.FeatureNames)
		}
		if spec.NFeatures != len(artifact.Model.FeatureNames) {
			return nil, fmt.Errorf("forest expects %d features, artifact names %d: %w", spec.NFeatures, len(artifact.Model.FeatureNames), features.ErrContractMismatch)
		}
		return forest.New(spec)
	}
	return nil, fmt.Errorf("unsupported algorithm %q", artifact.Model.Algorithm)
}

func resolveLayout(ctx context.Context, src storage.ArtifactSource, opts Options, recorded string) (*features.Layout, error) {
	if opts.LayoutURI != "" {
		content, err := src.Read(ctx, opts.LayoutURI)
		if err != nil {
			return nil, fmt.Errorf("reading layout contract: %w", err)
		}
		return features.ParseLayout(content)
	}
	name := opts.Layout
	if name == "" {
		name = recorded
	}
	return features.Lookup(name)
}

func (p *Predictor) Info() Info {
	info := p.info
	info.Columns = append([]string(nil), p.info.Columns...)
	info.Scaled = append([]string(nil), p.info.Scaled...)
	return info
}

func (p *Predictor) Predict(rec patient.Record) (Prediction, error) {
	vector, err := p.pipeline.Build(rec)
	if err != nil {
		return Prediction{}, err
	}
	label, err := p.classifier.Predict(vector.Values)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	proba, err := p.classifier.PredictProba(vector.Values)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict proba: %w", err)
	}
	if len(proba) != 2 {
		return Prediction{}, fmt.Errorf("classifier returned %d class probabilities, want 2", len(proba))
	}
	if label != 0 && label != 1 {
		return Prediction{}, fmt.Errorf("classifier returned label %d", label)
	}
	return Prediction{Label: label, Probabilities: proba, Vector: vector}, nil
}
