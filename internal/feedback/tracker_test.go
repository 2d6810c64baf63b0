package feedback

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourwise/persona-engine/internal/observability/metrics"
	"github.com/tourwise/persona-engine/internal/traits"
	"github.com/tourwise/persona-engine/pkg/logging"
)

func newTestTracker(feedbackCap, outcomeCap int) *Tracker {
	return NewTracker(feedbackCap, outcomeCap, logging.Default(), nil)
}

func TestRecordFeedbackClampsRating(t *testing.T) {
	tr := newTestTracker(10, 10)
	tr.RecordFeedback(FeedbackRecord{SessionID: "s1", PredictedTrait: traits.Openness, UserRating: 9})
	tr.RecordFeedback(FeedbackRecord{SessionID: "s2", PredictedTrait: traits.Openness, UserRating: -3})

	m := tr.ComputeAccuracy()
	// Ratings clamp to 5 and 1, so accuracy averages to (1.0 + 0.0) / 2.
	assert.InDelta(t, 0.5, m.Overall, 1e-9)
}

func TestFeedbackCapEvictsOldest(t *testing.T) {
	tr := newTestTracker(3, 10)
	for i := 0; i < 5; i++ {
		rating := 1
		if i >= 2 {
			rating = 5
		}
		tr.RecordFeedback(FeedbackRecord{
			SessionID:      fmt.Sprintf("s%d", i),
			PredictedTrait: traits.Extraversion,
			UserRating:     rating,
		})
	}

	assert.Equal(t, 3, tr.FeedbackCount())
	// Only the three rating-5 records survive.
	m := tr.ComputeAccuracy()
	assert.InDelta(t, 1.0, m.Overall, 1e-9)
}

func TestComputeAccuracyEmpty(t *testing.T) {
	m := newTestTracker(10, 10).ComputeAccuracy()
	assert.Zero(t, m.Overall)
	assert.Zero(t, m.SampleCount)
	assert.Empty(t, m.Alerts)
}

func TestComputeAccuracyPerTraitAndTiers(t *testing.T) {
	tr := newTestTracker(100, 100)
	tr.RecordFeedback(FeedbackRecord{PredictedTrait: traits.Openness, PredictedConfidence: 0.9, UserRating: 5})
	tr.RecordFeedback(FeedbackRecord{PredictedTrait: traits.Openness, PredictedConfidence: 0.8, UserRating: 5})
	tr.RecordFeedback(FeedbackRecord{PredictedTrait: traits.Neuroticism, PredictedConfidence: 0.4, UserRating: 3})

	m := tr.ComputeAccuracy()
	assert.InDelta(t, 1.0, m.PerTrait["openness"], 1e-9)
	assert.InDelta(t, 0.5, m.PerTrait["neuroticism"], 1e-9)
	assert.InDelta(t, 1.0, m.ByConfidenceTier["high"], 1e-9)
	assert.InDelta(t, 0.5, m.ByConfidenceTier["low"], 1e-9)
	assert.Equal(t, 3, m.SampleCount)
}

func TestAlertsFireBelowThresholds(t *testing.T) {
	pm := metrics.NewPipelineMetrics(prometheus.NewRegistry())
	tr := NewTracker(100, 100, logging.Default(), pm)
	for i := 0; i < 4; i++ {
		rating := 5
		if i%2 == 0 {
			rating = 1
		}
		tr.RecordFeedback(FeedbackRecord{PredictedTrait: traits.Agreeableness, UserRating: rating})
	}

	m := tr.ComputeAccuracy()
	assert.Less(t, m.Overall, 0.80)
	require.NotEmpty(t, m.Alerts)
	assert.Contains(t, m.Alerts, "overall accuracy below threshold")
	assert.Contains(t, m.Alerts, "user satisfaction below threshold")
}

func TestNoAlertsWhenHealthy(t *testing.T) {
	tr := newTestTracker(100, 100)
	for i := 0; i < 10; i++ {
		tr.RecordFeedback(FeedbackRecord{PredictedTrait: traits.Conscientiousness, UserRating: 5})
	}
	m := tr.ComputeAccuracy()
	assert.InDelta(t, 1.0, m.Overall, 1e-9)
	assert.InDelta(t, 1.0, m.TemporalStability, 1e-9)
	assert.Empty(t, m.Alerts)
}

func TestPredictionPrecision(t *testing.T) {
	tr := newTestTracker(10, 100)
	// Confidence tracks effectiveness perfectly: precision should land at 1.
	for i := 0; i < 10; i++ {
		v := float64(i) / 10
		tr.RecordOutcome(SystemOutcome{Trait: traits.Openness, Confidence: v, Effectiveness: v})
	}
	tr.RecordFeedback(FeedbackRecord{PredictedTrait: traits.Openness, UserRating: 5})

	m := tr.ComputeAccuracy()
	assert.InDelta(t, 1.0, m.PredictionPrecision, 1e-9)
	assert.Equal(t, 10, m.OutcomeCount)
}

func TestPredictionPrecisionNeutralWithoutData(t *testing.T) {
	tr := newTestTracker(10, 10)
	tr.RecordFeedback(FeedbackRecord{PredictedTrait: traits.Openness, UserRating: 4})
	m := tr.ComputeAccuracy()
	assert.InDelta(t, 0.5, m.PredictionPrecision, 1e-9)
}

func TestPearson(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.0, pearson(xs, []float64{2, 4, 6, 8}), 1e-9)
	assert.InDelta(t, -1.0, pearson(xs, []float64{8, 6, 4, 2}), 1e-9)
	assert.Zero(t, pearson(xs, []float64{5, 5, 5, 5}))
	assert.Zero(t, pearson(xs, []float64{1, 2}))
}

func TestRecordedAtDefaultsToNow(t *testing.T) {
	tr := newTestTracker(10, 10)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	tr.RecordFeedback(FeedbackRecord{PredictedTrait: traits.Openness, UserRating: 4})
	m := tr.ComputeAccuracy()
	assert.Equal(t, fixed, m.GeneratedAt)
}
