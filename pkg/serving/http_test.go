package serving

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/cardiorisk/pkg/advice"
	"github.com/synaptica-ai/cardiorisk/pkg/common/models"
	"github.com/synaptica-ai/cardiorisk/pkg/serving/predictor"
)

func newRouter(opts Options) *mux.Router {
	svc := NewService(&stubModel{label: 1, proba: []float64{0.3, 0.7}}, advice.NewAdvisor(advice.DefaultConfig()), opts)
	router := mux.NewRouter()
	NewHTTPHandler(svc, 64<<10).Register(router)
	return router
}

func TestHandleAssess(t *testing.T) {
	router := newRouter(Options{})
	body, _ := json.Marshal(request())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assessments", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.AssessmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Risk != models.RiskHigh || resp.Probability != 0.7 || len(resp.Findings) != 8 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHandleAssessRejectsBadInput(t *testing.T) {
	router := newRouter(Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assessments", bytes.NewBufferString("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	req := request()
	req.Patient.Sex = "X"
	body, _ := json.Marshal(req)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assessments", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid sex, got %d", rec.Code)
	}
}

func TestHandleRecent(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(Options{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assessments", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an assessment log, got %d", rec.Code)
	}

	recorder := &memoryRecorder{logs: []AssessmentLog{{Risk: models.RiskLow}, {Risk: models.RiskHigh}}}
	router := newRouter(Options{Recorder: recorder})

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assessments?limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var logs []AssessmentLog
	if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil || len(logs) != 1 {
		t.Fatalf("unexpected logs %s (%v)", rec.Body.String(), err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assessments?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestHandleContract(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(Options{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contract", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var info predictor.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil || info.Name != "stub" {
		t.Fatalf("unexpected contract %s (%v)", rec.Body.String(), err)
	}
}
