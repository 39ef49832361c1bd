package features

import (
	"errors"
	"fmt"

	"github.com/synaptica-ai/cardiorisk/pkg/patient"
)

// Transformer is a fitted scaler. Transform receives the scaled columns in
// the layout's scaler order and must return the same number of values.
type Transformer interface {
	Transform(values []float64) ([]float64, error)
}

// columnLister is implemented by scalers that record their fit columns.
type columnLister interface {
	Columns() []string
}

// Vector is a model input row.
type Vector struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

// Map keys values by column name.
func (v Vector) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(v.Names))
	for i, name := range v.Names {
		out[name] = v.Values[i]
	}
	return out
}

// Pipeline turns patient records into scaled model input. It holds no
// mutable state and may be shared across goroutines.
type Pipeline struct {
	layout    *Layout
	scaler    Transformer
	scaledIdx []int
}

func NewPipeline(layout *Layout, scaler Transformer) (*Pipeline, error) {
	if layout == nil {
		return nil, errors.New("pipeline requires a layout")
	}
	if len(layout.scaled) > 0 && scaler == nil {
		return nil, fmt.Errorf("layout %s scales %d columns but no scaler was given", layout.name, len(layout.scaled))
	}
	if lister, ok := scaler.(columnLister); ok {
		if err := layout.CheckScaled(lister.Columns()); err != nil {
			return nil, err
		}
	}

	idx := make([]int, len(layout.scaled))
	for i, name := range layout.scaled {
		idx[i] = layout.index[name]
	}
	return &Pipeline{layout: layout, scaler: scaler, scaledIdx: idx}, nil
}

func (p *Pipeline) Layout() *Layout {
	return p.layout
}

// Assemble encodes rec in layout order without scaling.
func (p *Pipeline) Assemble(rec patient.Record) Vector {
	v := Vector{
		Names:  p.layout.ColumnNames(),
		Values: make([]float64, len(p.layout.columns)),
	}
	for i, col := range p.layout.columns {
		v.Values[i] = col.value(rec)
	}
	return v
}

// Build assembles rec and rescales the layout's scaled columns. Columns
// outside the scaled set pass through unchanged.
func (p *Pipeline) Build(rec patient.Record) (Vector, error) {
	v := p.Assemble(rec)
	if len(p.scaledIdx) == 0 {
		return v, nil
	}

	part := make([]float64, len(p.scaledIdx))
	for i, idx := range p.scaledIdx {
		part[i] = v.Values[idx]
	}
	scaled, err := p.scaler.Transform(part)
	if err != nil {
		return Vector{}, fmt.Errorf("scaling layout %s: %w", p.layout.name, err)
	}
	if len(scaled) != len(part) {
		return Vector{}, fmt.Errorf("scaler returned %d values for %d columns: %w", len(scaled), len(part), ErrContractMismatch)
	}
	for i, idx := range p.scaledIdx {
		v.Values[idx] = scaled[i]
	}
	return v, nil
}
