package advice

import (
	"fmt"
	"strconv"

	"github.com/synaptica-ai/cardiorisk/pkg/patient"
)

type Status string

const (
	StatusBelow  Status = "below"
	StatusNormal Status = "normal"
	StatusAbove  Status = "above"
)

type Finding struct {
	Field   patient.Field `json:"field"`
	Value   float64       `json:"value"`
	Low     float64       `json:"low"`
	High    float64       `json:"high"`
	Status  Status        `json:"status"`
	Message string        `json:"message"`
}

type Suggestion struct {
	Rule  string   `json:"rule"`
	Title string   `json:"title"`
	Tips  []string `json:"tips"`
}

// Advisor applies a fixed Config. It is read-only after construction.
type Advisor struct {
	cfg Config
}

func NewAdvisor(cfg Config) *Advisor {
	return &Advisor{cfg: cfg}
}

// Evaluate returns one finding per reference range, in configuration order.
func (a *Advisor) Evaluate(rec patient.Record) []Finding {
	findings := make([]Finding, 0, len(a.cfg.Ranges))
	for _, r := range a.cfg.Ranges {
		value, _ := rec.Value(r.Field)
		f := Finding{Field: r.Field, Value: value, Low: r.Low, High: r.High, Status: StatusNormal}
		switch {
		case value < r.Low:
			f.Status = StatusBelow
			f.Message = fmt.Sprintf("%s is below normal: %s (Normal: %s-%s)", r.Field, num(value), num(r.Low), num(r.High))
		case value > r.High:
			f.Status = StatusAbove
			f.Message = fmt.Sprintf("%s is above normal: %s (Normal: %s-%s)", r.Field, num(value), num(r.Low), num(r.High))
		default:
			f.Message = fmt.Sprintf("%s is within the normal range: %s", r.Field, num(value))
		}
		findings = append(findings, f)
	}
	return findings
}

// Abnormal filters findings outside their range.
func Abnormal(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Status != StatusNormal {
			out = append(out, f)
		}
	}
	return out
}

// Suggest returns the rules triggered by rec, in configuration order.
func (a *Advisor) Suggest(rec patient.Record) []Suggestion {
	var out []Suggestion
	for _, rule := range a.cfg.Rules {
		if !fires(rule, rec) {
			continue
		}
		out = append(out, Suggestion{
			Rule:  rule.Name,
			Title: rule.Title,
			Tips:  append([]string(nil), rule.Tips...),
		})
	}
	return out
}

func fires(rule Rule, rec patient.Record) bool {
	for _, th := range rule.When {
		if v, _ := rec.Value(th.Field); v > th.Above {
			return true
		}
	}
	return false
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
