package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tourwise/persona-engine/internal/pipeline"
	"github.com/tourwise/persona-engine/pkg/logging"
)

// maxPersonalizeBody bounds request bodies; behavioral event batches are
// small, so 1 MiB is generous.
const maxPersonalizeBody = 1 << 20

// PersonalizeHandler serves the end-to-end personalization endpoint.
type PersonalizeHandler struct {
	orchestrator *pipeline.Orchestrator
	logger       *logging.Logger
}

// NewPersonalizeHandler creates a personalization handler.
func NewPersonalizeHandler(orchestrator *pipeline.Orchestrator, logger *logging.Logger) *PersonalizeHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PersonalizeHandler{
		orchestrator: orchestrator,
		logger:       logger.Component("personalize_handler"),
	}
}

// Personalize runs the pipeline for one request. Stage failures degrade to
// the original content inside the pipeline, so this endpoint answers 200
// whenever the request itself is well formed.
func (h *PersonalizeHandler) Personalize(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxPersonalizeBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OriginalContent == "" {
		writeError(w, http.StatusBadRequest, "original_content is required")
		return
	}

	resp := h.orchestrator.Run(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
