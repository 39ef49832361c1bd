package features

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/synaptica-ai/cardiorisk/pkg/patient"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownLayout    = errors.New("unknown feature layout")
	ErrInvalidLayout    = errors.New("invalid feature layout")
	ErrContractMismatch = errors.New("feature contract mismatch")
)

// Encoding is the convention used to turn binary categoricals into columns.
type Encoding string

const (
	// EncodingBinary writes each flag as a single 0/1 column.
	EncodingBinary Encoding = "binary"
	// EncodingOneHot writes each flag as two mutually exclusive indicators.
	EncodingOneHot Encoding = "onehot"
)

type ColumnKind string

const (
	KindRaw       ColumnKind = "raw"
	KindIndicator ColumnKind = "indicator"
)

// Column maps one record field to one vector position. Indicator columns are
// 1 when the field value equals Level.
type Column struct {
	Name  string        `yaml:"name" json:"name"`
	Field patient.Field `yaml:"field" json:"field"`
	Kind  ColumnKind    `yaml:"kind,omitempty" json:"kind"`
	Level float64       `yaml:"level,omitempty" json:"level,omitempty"`
}

func Raw(name string, field patient.Field) Column {
	return Column{Name: name, Field: field, Kind: KindRaw}
}

// OneHot expands a binary field into its "off" and "on" indicator columns,
// in that order.
func OneHot(field patient.Field, offName, onName string) []Column {
	return []Column{
		{Name: offName, Field: field, Kind: KindIndicator, Level: 0},
		{Name: onName, Field: field, Kind: KindIndicator, Level: 1},
	}
}

func (c Column) value(rec patient.Record) float64 {
	v, _ := rec.Value(c.Field)
	if c.Kind == KindIndicator {
		if v == c.Level {
			return 1
		}
		return 0
	}
	return v
}

// Layout is the column-order contract shared with a trained model and its
// scaler. It is immutable after construction.
type Layout struct {
	name     string
	encoding Encoding
	columns  []Column
	scaled   []string
	index    map[string]int
}

func NewLayout(name string, encoding Encoding, columns []Column, scaled []string) (*Layout, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("layout name required: %w", ErrInvalidLayout)
	}
	if encoding != EncodingBinary && encoding != EncodingOneHot {
		return nil, fmt.Errorf("layout %s: encoding %q: %w", name, encoding, ErrInvalidLayout)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("layout %s has no columns: %w", name, ErrInvalidLayout)
	}

	l := &Layout{
		name:     name,
		encoding: encoding,
		columns:  make([]Column, len(columns)),
		scaled:   append([]string(nil), scaled...),
		index:    make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col.Kind == "" {
			col.Kind = KindRaw
		}
		if col.Kind != KindRaw && col.Kind != KindIndicator {
			return nil, fmt.Errorf("layout %s: column %s has kind %q: %w", name, col.Name, col.Kind, ErrInvalidLayout)
		}
		if col.Kind == KindIndicator && encoding == EncodingBinary {
			return nil, fmt.Errorf("layout %s: indicator column %s in binary layout: %w", name, col.Name, ErrInvalidLayout)
		}
		if !patient.KnownField(col.Field) {
			return nil, fmt.Errorf("layout %s: column %s reads unknown field %q: %w", name, col.Name, col.Field, ErrInvalidLayout)
		}
		if _, dup := l.index[col.Name]; dup || col.Name == "" {
			return nil, fmt.Errorf("layout %s: duplicate or empty column %q: %w", name, col.Name, ErrInvalidLayout)
		}
		l.index[col.Name] = i
		l.columns[i] = col
	}

	seen := make(map[string]struct{}, len(scaled))
	for _, s := range scaled {
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("layout %s: column %s scaled twice: %w", name, s, ErrInvalidLayout)
		}
		seen[s] = struct{}{}
		if _, ok := l.index[s]; !ok {
			return nil, fmt.Errorf("layout %s: scaled column %s not in layout: %w", name, s, ErrInvalidLayout)
		}
	}
	return l, nil
}

func (l *Layout) Name() string       { return l.name }
func (l *Layout) Encoding() Encoding { return l.encoding }
func (l *Layout) Width() int         { return len(l.columns) }

func (l *Layout) Columns() []Column {
	return append([]Column(nil), l.columns...)
}

// ColumnNames returns the model input order.
func (l *Layout) ColumnNames() []string {
	names := make([]string, len(l.columns))
	for i, c := range l.columns {
		names[i] = c.Name
	}
	return names
}

// ScaledColumns returns the scaler input order.
func (l *Layout) ScaledColumns() []string {
	return append([]string(nil), l.scaled...)
}

// CheckColumns compares names against the model input order.
func (l *Layout) CheckColumns(names []string) error {
	return compareNames("model", l.name, l.ColumnNames(), names)
}

// CheckScaled compares names against the scaler input order.
func (l *Layout) CheckScaled(names []string) error {
	return compareNames("scaler", l.name, l.scaled, names)
}

func compareNames(kind, layout string, want, got []string) error {
	if len(want) != len(got) {
		return fmt.Errorf("%s expects %d columns, layout %s has %d: %w", kind, len(got), layout, len(want), ErrContractMismatch)
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("%s column %d is %q, layout %s has %q: %w", kind, i, got[i], layout, want[i], ErrContractMismatch)
		}
	}
	return nil
}

type layoutFile struct {
	Name     string   `yaml:"name"`
	Encoding Encoding `yaml:"encoding"`
	Columns  []Column `yaml:"columns"`
	Scaled   []string `yaml:"scaled"`
}

// ParseLayout reads a YAML layout contract.
func ParseLayout(content []byte) (*Layout, error) {
	var lf layoutFile
	if err := yaml.Unmarshal(content, &lf); err != nil {
		return nil, fmt.Errorf("decoding layout: %w", err)
	}
	return NewLayout(lf.Name, lf.Encoding, lf.Columns, lf.Scaled)
}

func LoadLayout(path string) (*Layout, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return ParseLayout(content)
}
