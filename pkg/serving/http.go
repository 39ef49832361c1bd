package serving

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
	"github.com/synaptica-ai/cardiorisk/pkg/common/models"
	"github.com/synaptica-ai/cardiorisk/pkg/patient"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/assessments", h.handleAssess).Methods(http.MethodPost)
	router.HandleFunc("/assessments", h.handleRecent).Methods(http.MethodGet)
	router.HandleFunc("/contract", h.handleContract).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleAssess(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req models.AssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid assessment payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Assess(r.Context(), req)
	if err != nil {
		if patient.IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Log.WithError(err).Error("failed to assess patient")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	logs, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		if errors.Is(err, ErrLogDisabled) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		logger.Log.WithError(err).Error("failed to list assessments")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

func (h *HTTPHandler) handleContract(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Info())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
