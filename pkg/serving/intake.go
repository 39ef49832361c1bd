package serving

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/synaptica-ai/cardiorisk/pkg/common/kafka"
	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
	"github.com/synaptica-ai/cardiorisk/pkg/common/models"
	"github.com/synaptica-ai/cardiorisk/pkg/patient"
)

const EventIntake = "patient.intake"

// IntakeHandler assesses patient.intake events. Malformed or invalid intakes
// are logged and acknowledged; only processing failures are retried.
func IntakeHandler(service *Service) kafka.EventHandler {
	log := logger.WithComponent("intake")
	return func(ctx context.Context, event models.Event) error {
		if event.Type != "" && event.Type != EventIntake {
			log.WithField("event_type", event.Type).Debug("Skipping event")
			return nil
		}

		req, err := decodeIntake(event.Data)
		if err != nil {
			log.WithError(err).WithField("event_id", event.ID).Warn("Malformed intake event")
			return nil
		}

		resp, err := service.Assess(ctx, req)
		if err != nil {
			if patient.IsValidationError(err) {
				log.WithError(err).WithField("event_id", event.ID).Warn("Rejected intake event")
				return nil
			}
			return err
		}

		log.WithFields(map[string]interface{}{
			"event_id":      event.ID,
			"assessment_id": resp.ID,
			"risk":          resp.Risk,
		}).Info("Intake assessed")
		return nil
	}
}

func decodeIntake(data map[string]interface{}) (models.AssessmentRequest, error) {
	var req models.AssessmentRequest
	raw, err := json.Marshal(data)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decoding intake: %w", err)
	}
	return req, nil
}
