package models

import (
	"time"

	"github.com/synaptica-ai/cardiorisk/pkg/advice"
	"github.com/synaptica-ai/cardiorisk/pkg/patient"
)

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // patient.intake, risk.assessed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Risk Assessment
type AssessmentRequest struct {
	PatientID string       `json:"patient_id,omitempty"`
	Patient   patient.Form `json:"patient"`
}

const (
	RiskHigh = "High Risk"
	RiskLow  = "Low Risk"
)

type AssessmentResponse struct {
	ID           string              `json:"id"`
	PatientID    string              `json:"patient_id,omitempty"`
	Label        int                 `json:"label"`
	Risk         string              `json:"risk"`
	Probability  float64             `json:"probability"` // P(CHD within 10 years)
	Confidence   float64             `json:"confidence"`  // probability of the predicted label
	Message      string              `json:"message"`
	Findings     []advice.Finding    `json:"findings"`
	Suggestions  []advice.Suggestion `json:"suggestions,omitempty"`
	ModelName    string              `json:"model_name"`
	ModelVersion string              `json:"model_version"`
	Layout       string              `json:"layout"`
	Cached       bool                `json:"cached"`
	Latency      time.Duration       `json:"latency"`
	CreatedAt    time.Time           `json:"created_at"`
}
