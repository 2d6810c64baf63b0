package personality

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourwise/persona-engine/internal/signals"
	"github.com/tourwise/persona-engine/internal/traits"
)

func fullConfidenceMetrics() InputMetrics {
	return InputMetrics{
		DataSufficiency:     1,
		InteractionVariety:  1,
		TemporalConsistency: 1,
		OverallConfidence:   1,
	}
}

func scoresWith(values [5]float64, confidence float64) [5]traits.TraitScore {
	var out [5]traits.TraitScore
	for i, trait := range traits.All {
		out[i] = traits.TraitScore{
			Trait:      trait,
			Score:      values[i],
			Confidence: confidence,
			Level:      traits.LevelFor(values[i]),
		}
	}
	return out
}

func TestResolve_HybridIffGapAtMostThreshold(t *testing.T) {
	resolver := NewResolver(nil)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		var values [5]float64
		for j := range values {
			values[j] = 0.05 + 0.95*rng.Float64()
		}
		profile := resolver.Resolve(scoresWith(values, 1), fullConfidenceMetrics())

		// With equal confidences and uniform multipliers the final score is
		// score/max, so the expected gap is derivable from the inputs.
		sorted := values[:]
		tmp := make([]float64, 5)
		copy(tmp, sorted)
		sort.Sort(sort.Reverse(sort.Float64Slice(tmp)))
		gap := (tmp[0] - tmp[1]) / tmp[0]

		wantHybrid := gap <= HybridThreshold
		assert.Equal(t, wantHybrid, profile.Hybrid, "iteration %d values %v gap %v", i, values, gap)
		if profile.Hybrid {
			assert.NotNil(t, profile.Secondary, "hybrid profiles always carry a secondary")
		}
	}
}

func TestResolve_SecondaryAttachment(t *testing.T) {
	resolver := NewResolver(nil)

	t.Run("attached above floor without hybrid", func(t *testing.T) {
		// finals: 1.0 and 0.6: gap 0.4 > 0.15, secondary 0.6 >= 0.45
		profile := resolver.Resolve(scoresWith([5]float64{1.0, 0.6, 0.1, 0.1, 0.1}, 1), fullConfidenceMetrics())
		assert.False(t, profile.Hybrid)
		require.NotNil(t, profile.Secondary)
		assert.Equal(t, traits.Conscientiousness, profile.Secondary.Trait)
	})

	t.Run("omitted below floor", func(t *testing.T) {
		// finals: 1.0 and 0.4: gap 0.6, secondary below 0.45
		profile := resolver.Resolve(scoresWith([5]float64{1.0, 0.4, 0.1, 0.1, 0.1}, 1), fullConfidenceMetrics())
		assert.False(t, profile.Hybrid)
		assert.Nil(t, profile.Secondary)
	})
}

func TestResolve_MethodicalSessionProducesDominantConscientiousness(t *testing.T) {
	agg := signals.NewAggregator(nil)
	engine := traits.NewEngine(nil)
	resolver := NewResolver(nil)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var events []signals.InteractionEvent
	for i := 0; i < 60; i++ {
		target := []string{"intro", "history", "route", "tips", "food"}[i%5]
		events = append(events, signals.InteractionEvent{
			Kind:      signals.EventClick,
			Timestamp: base.Add(time.Duration(i) * 2 * time.Second),
			Payload:   signals.EventPayload{Target: target, MenuDepth: 1, Revisit: i%30 == 29},
		})
	}
	for i := 0; i < 40; i++ {
		events = append(events, signals.InteractionEvent{
			Kind:      signals.EventDwell,
			Timestamp: base.Add(time.Duration(i) * 3 * time.Second),
			Payload:   signals.EventPayload{Section: "s", DurationMS: 35000},
		})
	}

	snap := agg.Aggregate(events, signals.SessionContext{SessionID: "methodical"})
	require.Less(t, snap.Exploration.BacktrackRatio, 0.05)

	profile := resolver.Resolve(engine.InferTraits(&snap), MetricsFor(&snap))
	assert.Equal(t, traits.Conscientiousness, profile.Primary.Trait)
	assert.Equal(t, StrengthDominant, profile.PrimaryStrength)
	assert.GreaterOrEqual(t, profile.Primary.Score, 0.75)
	assert.False(t, profile.LowReliability)
}

func TestResolve_ZeroEvidenceIsLowReliability(t *testing.T) {
	engine := traits.NewEngine(nil)
	resolver := NewResolver(nil)
	snap := &signals.BehaviorSnapshot{SessionID: "empty", CollectedAt: time.Now()}

	profile := resolver.Resolve(engine.InferTraits(snap), MetricsFor(snap))
	assert.True(t, profile.LowReliability)
	assert.GreaterOrEqual(t, profile.Confidence, 0.3)
	assert.LessOrEqual(t, profile.Confidence, 0.5)
}

func TestFallbackProfile(t *testing.T) {
	profile := Fallback()
	assert.Equal(t, traits.Agreeableness, profile.Primary.Trait)
	assert.Equal(t, StrengthModerate, profile.PrimaryStrength)
	assert.False(t, profile.Hybrid)
	assert.Nil(t, profile.Secondary)
	assert.False(t, profile.LowReliability)
}

func TestTimeDecay(t *testing.T) {
	assert.InDelta(t, 1.0, timeDecay(0), 1e-9)
	assert.Less(t, timeDecay(6*time.Hour), 1.0)
	assert.GreaterOrEqual(t, timeDecay(72*time.Hour), 0.5)
}
