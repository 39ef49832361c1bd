package linear

import (
	"errors"
	"fmt"
	"math"
)

var ErrFeatureCount = errors.New("feature count mismatch")

type Weights struct {
	Bias         float64   `json:"bias"`
	Coefficients []float64 `json:"coefficients"`
}

// Model is a fitted binary logistic regression.
type Model struct {
	weights   Weights
	threshold float64
}

func NewModel(weights Weights) (*Model, error) {
	if len(weights.Coefficients) == 0 {
		return nil, errors.New("logistic model has no coefficients")
	}
	return &Model{weights: weights, threshold: 0.5}, nil
}

// Score returns P(class=1) for sample.
func Score(weights Weights, sample []float64) float64 {
	return sigmoid(dot(weights.Coefficients, sample) + weights.Bias)
}

func (m *Model) PredictProba(sample []float64) ([]float64, error) {
	if len(sample) != len(m.weights.Coefficients) {
		return nil, fmt.Errorf("got %d features, model has %d: %w", len(sample), len(m.weights.Coefficients), ErrFeatureCount)
	}
	p := Score(m.weights, sample)
	return []float64{1 - p, p}, nil
}

func (m *Model) Predict(sample []float64) (int, error) {
	proba, err := m.PredictProba(sample)
	if err != nil {
		return 0, err
	}
	if proba[1] >= m.threshold {
		return 1, nil
	}
	return 0, nil
}

func dot(weights []float64, sample []float64) float64 {
	var sum float64
	for i := 0; i < len(weights); i++ {
		sum += weights[i] * sample[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
