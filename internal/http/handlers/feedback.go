package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tourwise/persona-engine/internal/feedback"
	"github.com/tourwise/persona-engine/internal/traits"
	"github.com/tourwise/persona-engine/pkg/logging"
)

// FeedbackHandler accepts user feedback and serves accuracy reports.
type FeedbackHandler struct {
	tracker *feedback.Tracker
	logger  *logging.Logger
}

// NewFeedbackHandler creates a feedback handler.
func NewFeedbackHandler(tracker *feedback.Tracker, logger *logging.Logger) *FeedbackHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &FeedbackHandler{
		tracker: tracker,
		logger:  logger.Component("feedback_handler"),
	}
}

// FeedbackRequest is the submission body for one user rating.
type FeedbackRequest struct {
	SessionID           string             `json:"session_id"`
	PredictedTrait      string             `json:"predicted_trait"`
	PredictedConfidence float64            `json:"predicted_confidence"`
	UserRating          int                `json:"user_rating"`
	OutcomeMetrics      map[string]float64 `json:"outcome_metrics,omitempty"`
}

// Submit records one rating. Recording is fire-and-forget, so the endpoint
// answers 202 on acceptance.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if req.UserRating < 1 || req.UserRating > 5 {
		writeError(w, http.StatusBadRequest, "user_rating must be between 1 and 5")
		return
	}
	trait, err := traits.Parse(req.PredictedTrait)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown predicted_trait")
		return
	}

	h.tracker.RecordFeedback(feedback.FeedbackRecord{
		SessionID:           req.SessionID,
		PredictedTrait:      trait,
		PredictedConfidence: req.PredictedConfidence,
		UserRating:          req.UserRating,
		OutcomeMetrics:      req.OutcomeMetrics,
		RecordedAt:          time.Now().UTC(),
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// Accuracy serves the current accuracy report. Admin-only; the router wraps
// this route with JWT auth.
func (h *FeedbackHandler) Accuracy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.ComputeAccuracy())
}
