package scaler

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrWidthMismatch = errors.New("scaler width mismatch")

// Standard is a fitted standardization transform, (x - mean) / scale per
// column. It is immutable once parsed.
type Standard struct {
	columns []string
	mean    []float64
	scale   []float64
	layout  string
}

type artifact struct {
	Scaler struct {
		Type    string    `json:"type"`
		Layout  string    `json:"layout"`
		Columns []string  `json:"columns"`
		Mean    []float64 `json:"mean"`
		Scale   []float64 `json:"scale"`
	} `json:"scaler"`
}

func NewStandard(columns []string, mean, scale []float64) (*Standard, error) {
	if len(columns) == 0 {
		return nil, errors.New("scaler has no columns")
	}
	if len(mean) != len(columns) || len(scale) != len(columns) {
		return nil, fmt.Errorf("%d columns, %d means, %d scales: %w", len(columns), len(mean), len(scale), ErrWidthMismatch)
	}
	s := &Standard{
		columns: append([]string(nil), columns...),
		mean:    append([]float64(nil), mean...),
		scale:   make([]float64, len(scale)),
	}
	for i, v := range scale {
		// zero variance columns are left centred but unscaled
		if v == 0 {
			v = 1
		}
		s.scale[i] = v
	}
	return s, nil
}

// Parse decodes a scaler artifact.
func Parse(content []byte) (*Standard, error) {
	var a artifact
	if err := json.Unmarshal(content, &a); err != nil {
		return nil, fmt.Errorf("decoding scaler artifact: %w", err)
	}
	if a.Scaler.Type != "" && a.Scaler.Type != "standard" {
		return nil, fmt.Errorf("unsupported scaler type %q", a.Scaler.Type)
	}
	s, err := NewStandard(a.Scaler.Columns, a.Scaler.Mean, a.Scaler.Scale)
	if err != nil {
		return nil, err
	}
	s.layout = a.Scaler.Layout
	return s, nil
}

// Columns returns the fitted column names in fit order.
func (s *Standard) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Layout is the feature layout the scaler was fitted for, if recorded.
func (s *Standard) Layout() string {
	return s.layout
}

func (s *Standard) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.columns) {
		return nil, fmt.Errorf("got %d values for %d columns: %w", len(values), len(s.columns), ErrWidthMismatch)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out, nil
}
