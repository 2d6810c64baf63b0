package feedback

import (
	"sync"
	"time"

	"github.com/tourwise/persona-engine/internal/observability/metrics"
	"github.com/tourwise/persona-engine/internal/traits"
	"github.com/tourwise/persona-engine/pkg/logging"
)

const (
	// DefaultFeedbackCap bounds explicit user feedback kept in memory.
	DefaultFeedbackCap = 1000
	// DefaultOutcomeCap bounds recorded system outcomes.
	DefaultOutcomeCap = 5000
)

// Alert thresholds: crossing any of these marks the corresponding
// accuracy metric as degraded.
const (
	minOverallAccuracy    = 0.80
	minSatisfactionRating = 4.2
	minTemporalStability  = 0.85
)

// FeedbackRecord is one explicit user rating of an adapted response.
type FeedbackRecord struct {
	SessionID           string             `json:"session_id"`
	PredictedTrait      traits.Trait       `json:"predicted_trait"`
	PredictedConfidence float64            `json:"predicted_confidence"`
	UserRating          int                `json:"user_rating"`
	OutcomeMetrics      map[string]float64 `json:"outcome_metrics,omitempty"`
	RecordedAt          time.Time          `json:"recorded_at"`
}

// SystemOutcome is one implicit measurement recorded by the pipeline
// itself after serving a response.
type SystemOutcome struct {
	SessionID     string       `json:"session_id"`
	Trait         traits.Trait `json:"trait"`
	Confidence    float64      `json:"confidence"`
	QualityScore  float64      `json:"quality_score"`
	Effectiveness float64      `json:"effectiveness"`
	RecordedAt    time.Time    `json:"recorded_at"`
}

// AccuracyMetrics summarizes how well trait predictions track user-reported
// experience.
type AccuracyMetrics struct {
	Overall             float64            `json:"overall"`
	PerTrait            map[string]float64 `json:"per_trait"`
	ByConfidenceTier    map[string]float64 `json:"by_confidence_tier"`
	TemporalStability   float64            `json:"temporal_stability"`
	PredictionPrecision float64            `json:"prediction_precision"`
	SampleCount         int                `json:"sample_count"`
	OutcomeCount        int                `json:"outcome_count"`
	Alerts              []string           `json:"alerts,omitempty"`
	GeneratedAt         time.Time          `json:"generated_at"`
}

// Tracker accumulates feedback and outcomes in bounded in-memory buffers.
// Oldest entries are evicted first once a cap is reached. All methods are
// safe for concurrent use.
type Tracker struct {
	mu          sync.Mutex
	feedback    []FeedbackRecord
	outcomes    []SystemOutcome
	feedbackCap int
	outcomeCap  int

	logger  *logging.Logger
	metrics *metrics.PipelineMetrics
	now     func() time.Time
}

// NewTracker builds a Tracker with the given caps; non-positive caps fall
// back to the defaults. metrics may be nil.
func NewTracker(feedbackCap, outcomeCap int, logger *logging.Logger, m *metrics.PipelineMetrics) *Tracker {
	if feedbackCap <= 0 {
		feedbackCap = DefaultFeedbackCap
	}
	if outcomeCap <= 0 {
		outcomeCap = DefaultOutcomeCap
	}
	return &Tracker{
		feedbackCap: feedbackCap,
		outcomeCap:  outcomeCap,
		logger:      logger.Component("feedback_tracker"),
		metrics:     m,
		now:         time.Now,
	}
}

// RecordFeedback stores one explicit user rating. Ratings are clamped to
// the 1..5 scale.
func (t *Tracker) RecordFeedback(rec FeedbackRecord) {
	if rec.UserRating < 1 {
		rec.UserRating = 1
	}
	if rec.UserRating > 5 {
		rec.UserRating = 5
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = t.now()
	}

	t.mu.Lock()
	t.feedback = append(t.feedback, rec)
	if len(t.feedback) > t.feedbackCap {
		t.feedback = t.feedback[len(t.feedback)-t.feedbackCap:]
	}
	t.mu.Unlock()

	t.logger.Debug("feedback recorded",
		"session_id", rec.SessionID,
		"trait", rec.PredictedTrait.String(),
		"rating", rec.UserRating,
	)
}

// RecordOutcome stores one implicit pipeline outcome.
func (t *Tracker) RecordOutcome(out SystemOutcome) {
	if out.RecordedAt.IsZero() {
		out.RecordedAt = t.now()
	}
	t.mu.Lock()
	t.outcomes = append(t.outcomes, out)
	if len(t.outcomes) > t.outcomeCap {
		t.outcomes = t.outcomes[len(t.outcomes)-t.outcomeCap:]
	}
	t.mu.Unlock()
}

// FeedbackCount returns the number of currently retained feedback records.
func (t *Tracker) FeedbackCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.feedback)
}

// ComputeAccuracy derives the accuracy report from everything currently
// retained and refreshes the alert gauges.
func (t *Tracker) ComputeAccuracy() AccuracyMetrics {
	t.mu.Lock()
	feedback := make([]FeedbackRecord, len(t.feedback))
	copy(feedback, t.feedback)
	outcomes := make([]SystemOutcome, len(t.outcomes))
	copy(outcomes, t.outcomes)
	t.mu.Unlock()

	out := AccuracyMetrics{
		PerTrait:         map[string]float64{},
		ByConfidenceTier: map[string]float64{},
		SampleCount:      len(feedback),
		OutcomeCount:     len(outcomes),
		GeneratedAt:      t.now(),
	}
	if len(feedback) == 0 {
		return out
	}

	// Ratings on the 1..5 scale map linearly onto [0,1] accuracy.
	var ratingSum float64
	perTrait := map[traits.Trait][]float64{}
	tiers := map[string][]float64{}
	for _, rec := range feedback {
		acc := float64(rec.UserRating-1) / 4
		ratingSum += float64(rec.UserRating)
		perTrait[rec.PredictedTrait] = append(perTrait[rec.PredictedTrait], acc)
		tiers[confidenceTier(rec.PredictedConfidence)] = append(tiers[confidenceTier(rec.PredictedConfidence)], acc)
	}
	avgRating := ratingSum / float64(len(feedback))
	out.Overall = (avgRating - 1) / 4

	for trait, accs := range perTrait {
		out.PerTrait[trait.String()] = mean(accs)
	}
	for tier, accs := range tiers {
		out.ByConfidenceTier[tier] = mean(accs)
	}

	out.TemporalStability = temporalStability(perTrait)
	out.PredictionPrecision = predictionPrecision(outcomes)

	if out.Overall < minOverallAccuracy {
		out.Alerts = append(out.Alerts, "overall accuracy below threshold")
	}
	if avgRating < minSatisfactionRating {
		out.Alerts = append(out.Alerts, "user satisfaction below threshold")
	}
	if out.TemporalStability < minTemporalStability {
		out.Alerts = append(out.Alerts, "temporal stability below threshold")
	}

	t.metrics.SetAlertActive("overall_accuracy", out.Overall < minOverallAccuracy)
	t.metrics.SetAlertActive("user_satisfaction", avgRating < minSatisfactionRating)
	t.metrics.SetAlertActive("temporal_stability", out.TemporalStability < minTemporalStability)

	if len(out.Alerts) > 0 {
		t.logger.Warn("accuracy alerts active", "alerts", out.Alerts)
	}
	return out
}

func confidenceTier(confidence float64) string {
	switch {
	case confidence >= 0.75:
		return "high"
	case confidence >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

// temporalStability measures how consistently repeated predictions of the
// same trait are rated: 1 minus the mean normalized rating spread.
func temporalStability(perTrait map[traits.Trait][]float64) float64 {
	var spreads []float64
	for _, accs := range perTrait {
		if len(accs) < 2 {
			continue
		}
		spreads = append(spreads, stddev(accs))
	}
	if len(spreads) == 0 {
		return 1
	}
	// Accuracy values live in [0,1]; a stddev of 0.5 is maximal spread.
	spread := mean(spreads) / 0.5
	if spread > 1 {
		spread = 1
	}
	return 1 - spread
}

// predictionPrecision maps the correlation between predicted confidence and
// measured effectiveness onto [0,1]; 0.5 means no relationship.
func predictionPrecision(outcomes []SystemOutcome) float64 {
	if len(outcomes) < 2 {
		return 0.5
	}
	xs := make([]float64, len(outcomes))
	ys := make([]float64, len(outcomes))
	for i, o := range outcomes {
		xs[i] = o.Confidence
		ys[i] = o.Effectiveness
	}
	return (pearson(xs, ys) + 1) / 2
}
