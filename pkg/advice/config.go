package advice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/synaptica-ai/cardiorisk/pkg/patient"
	"gopkg.in/yaml.v3"
)

// Range is the normal reference interval for one measurement, inclusive.
type Range struct {
	Field patient.Field `yaml:"field" json:"field"`
	Low   float64       `yaml:"low" json:"low"`
	High  float64       `yaml:"high" json:"high"`
}

// Threshold fires when the field value is strictly above Above.
type Threshold struct {
	Field patient.Field `yaml:"field" json:"field"`
	Above float64       `yaml:"above" json:"above"`
}

// Rule emits its tips when any of its thresholds fires.
type Rule struct {
	Name  string      `yaml:"name" json:"name"`
	Title string      `yaml:"title" json:"title"`
	When  []Threshold `yaml:"when" json:"when"`
	Tips  []string    `yaml:"tips" json:"tips"`
}

type Config struct {
	Ranges []Range `yaml:"ranges" json:"ranges"`
	Rules  []Rule  `yaml:"rules" json:"rules"`
}

func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultConfig(), err
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Ranges) == 0 && len(c.Rules) == 0 {
		return errors.New("no advice ranges or rules configured")
	}
	for _, r := range c.Ranges {
		if !patient.KnownField(r.Field) {
			return fmt.Errorf("range for unknown field %q", r.Field)
		}
		if r.Low > r.High {
			return fmt.Errorf("range for %s has low %v above high %v", r.Field, r.Low, r.High)
		}
	}
	for _, rule := range c.Rules {
		if len(rule.When) == 0 {
			return fmt.Errorf("rule %s has no thresholds", rule.Name)
		}
		for _, th := range rule.When {
			if !patient.KnownField(th.Field) {
				return fmt.Errorf("rule %s uses unknown field %q", rule.Name, th.Field)
			}
		}
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Ranges: []Range{
			{Field: patient.FieldAge, Low: 18, High: 65},
			{Field: patient.FieldCigsPerDay, Low: 0, High: 5},
			{Field: patient.FieldTotChol, Low: 125, High: 200},
			{Field: patient.FieldSysBP, Low: 90, High: 120},
			{Field: patient.FieldDiaBP, Low: 60, High: 80},
			{Field: patient.FieldBMI, Low: 18.5, High: 24.9},
			{Field: patient.FieldHeartRate, Low: 60, High: 100},
			{Field: patient.FieldGlucose, Low: 70, High: 99},
		},
		Rules: []Rule{
			{
				Name:  "cholesterol",
				Title: "High Cholesterol Tips",
				When:  []Threshold{{Field: patient.FieldTotChol, Above: 200}},
				Tips: []string{
					"Reduce saturated fats (e.g., red meat, cheese)",
					"Eat more soluble fiber (e.g., oats, fruits)",
					"Exercise at least 30 minutes a day",
				},
			},
			{
				Name:  "bmi",
				Title: "High BMI Tips",
				When:  []Threshold{{Field: patient.FieldBMI, Above: 25}},
				Tips: []string{
					"Avoid sugary snacks and fried food",
					"Eat smaller, balanced meals",
					"Include daily walking or light exercise",
				},
			},
			{
				Name:  "glucose",
				Title: "High Glucose Tips",
				When:  []Threshold{{Field: patient.FieldGlucose, Above: 100}},
				Tips: []string{
					"Avoid soft drinks and refined carbs",
					"Eat whole grains and high-fiber foods",
					"Monitor blood sugar and stay hydrated",
				},
			},
			{
				Name:  "blood_pressure",
				Title: "High Blood Pressure Tips",
				When: []Threshold{
					{Field: patient.FieldSysBP, Above: 120},
					{Field: patient.FieldDiaBP, Above: 80},
				},
				Tips: []string{
					"Reduce salt and caffeine intake",
					"Include potassium-rich foods like bananas",
					"Monitor BP and manage stress",
				},
			},
		},
	}
}
