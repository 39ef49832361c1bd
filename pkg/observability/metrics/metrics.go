package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

var (
	assessmentsTotal   atomic.Int64
	highRiskTotal      atomic.Int64
	lowRiskTotal       atomic.Int64
	rejectedTotal      atomic.Int64
	failedTotal        atomic.Int64
	cacheHitsTotal     atomic.Int64
	latencyMicrosTotal atomic.Int64
)

func ObserveAssessment(label int, latency time.Duration) {
	assessmentsTotal.Add(1)
	if label == 1 {
		highRiskTotal.Add(1)
	} else {
		lowRiskTotal.Add(1)
	}
	latencyMicrosTotal.Add(latency.Microseconds())
}

func ObserveCacheHit() {
	cacheHitsTotal.Add(1)
}

func ObserveRejected() {
	rejectedTotal.Add(1)
}

func ObserveFailed() {
	failedTotal.Add(1)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Assessments int64
	HighRisk    int64
	LowRisk     int64
	Rejected    int64
	Failed      int64
	CacheHits   int64
}

func Current() Snapshot {
	return Snapshot{
		Assessments: assessmentsTotal.Load(),
		HighRisk:    highRiskTotal.Load(),
		LowRisk:     lowRiskTotal.Load(),
		Rejected:    rejectedTotal.Load(),
		Failed:      failedTotal.Load(),
		CacheHits:   cacheHitsTotal.Load(),
	}
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP cardiorisk_assessments_total Number of risk assessments computed by the model.\n")
	fmt.Fprintf(w, "# TYPE cardiorisk_assessments_total counter\n")
	fmt.Fprintf(w, "cardiorisk_assessments_total %d\n", assessmentsTotal.Load())

	fmt.Fprintf(w, "# HELP cardiorisk_assessments_by_risk_total Number of risk assessments by predicted label.\n")
	fmt.Fprintf(w, "# TYPE cardiorisk_assessments_by_risk_total counter\n")
	fmt.Fprintf(w, "cardiorisk_assessments_by_risk_total{risk=\"high\"} %d\n", highRiskTotal.Load())
	fmt.Fprintf(w, "cardiorisk_assessments_by_risk_total{risk=\"low\"} %d\n", lowRiskTotal.Load())

	fmt.Fprintf(w, "# HELP cardiorisk_assessments_rejected_total Number of intake forms rejected by validation.\n")
	fmt.Fprintf(w, "# TYPE cardiorisk_assessments_rejected_total counter\n")
	fmt.Fprintf(w, "cardiorisk_assessments_rejected_total %d\n", rejectedTotal.Load())

	fmt.Fprintf(w, "# HELP cardiorisk_assessments_failed_total Number of assessments that failed during inference.\n")
	fmt.Fprintf(w, "# TYPE cardiorisk_assessments_failed_total counter\n")
	fmt.Fprintf(w, "cardiorisk_assessments_failed_total %d\n", failedTotal.Load())

	fmt.Fprintf(w, "# HELP cardiorisk_assessment_cache_hits_total Number of assessments served from cache.\n")
	fmt.Fprintf(w, "# TYPE cardiorisk_assessment_cache_hits_total counter\n")
	fmt.Fprintf(w, "cardiorisk_assessment_cache_hits_total %d\n", cacheHitsTotal.Load())

	fmt.Fprintf(w, "# HELP cardiorisk_assessment_latency_seconds_sum Total inference latency of computed assessments.\n")
	fmt.Fprintf(w, "# TYPE cardiorisk_assessment_latency_seconds_sum counter\n")
	fmt.Fprintf(w, "cardiorisk_assessment_latency_seconds_sum %f\n", float64(latencyMicrosTotal.Load())/1e6)
}
