package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWritePrometheus(t *testing.T) {
	before := Current()
	ObserveAssessment(1, 2*time.Millisecond)
	ObserveAssessment(0, time.Millisecond)
	ObserveCacheHit()
	ObserveRejected()

	after := Current()
	if after.Assessments-before.Assessments != 2 || after.HighRisk-before.HighRisk != 1 || after.LowRisk-before.LowRisk != 1 {
		t.Fatalf("unexpected counters %+v -> %+v", before, after)
	}

	rec := httptest.NewRecorder()
	WritePrometheus(rec)
	body := rec.Body.String()
	for _, want := range []string{
		"cardiorisk_assessments_total ",
		`cardiorisk_assessments_by_risk_total{risk="high"}`,
		"cardiorisk_assessment_cache_hits_total ",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in output:\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %s", ct)
	}
}
