package personality

import (
	"sort"
	"time"

	"github.com/tourwise/persona-engine/internal/signals"
	"github.com/tourwise/persona-engine/internal/traits"
	"github.com/tourwise/persona-engine/pkg/logging"
)

// InputMetrics carries the contextual evidence the weighting pass multiplies
// into raw trait scores.
type InputMetrics struct {
	ObservationAge      time.Duration
	DataSufficiency     float64
	InteractionVariety  float64
	TemporalConsistency float64
	// OverallConfidence drives the uncertainty penalty. Zero means "derive
	// from the mean trait confidence".
	OverallConfidence float64
}

// MetricsFor derives InputMetrics from a snapshot. Temporal consistency falls
// back to a neutral 0.5 when the session carries no dwell evidence.
func MetricsFor(snap *signals.BehaviorSnapshot) InputMetrics {
	m := InputMetrics{
		DataSufficiency:     snap.DataQuality,
		InteractionVariety:  float64(snap.KindVariety) / 6,
		TemporalConsistency: 0.5,
	}
	if snap.Attention.MeanDwellSec > 0 {
		cv := snap.Attention.DwellStdDevSec / snap.Attention.MeanDwellSec
		m.TemporalConsistency = clamp01(1 - cv)
	}
	if !snap.CollectedAt.IsZero() {
		m.ObservationAge = time.Since(snap.CollectedAt)
	}
	return m
}

// Resolver combines five trait scores into one Profile.
type Resolver struct {
	logger *logging.Logger
}

func NewResolver(logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{logger: logger.Component("personality")}
}

type rankedTrait struct {
	score traits.TraitScore
	final float64
}

// Resolve runs the weighting pass, normalizes by the dominant weighted score,
// multiplies in per-trait confidence, and decides primary/secondary/hybrid.
// It never fails: below MinimumConfidence the profile is returned best-effort
// with LowReliability set, and the orchestrator applies the fallback.
func (r *Resolver) Resolve(scores [5]traits.TraitScore, m InputMetrics) *Profile {
	overall := m.OverallConfidence
	if overall == 0 {
		for _, ts := range scores {
			overall += ts.Confidence
		}
		overall /= 5
	}

	decay := timeDecay(m.ObservationAge)
	contextMult := clamp(0.6+0.2*m.DataSufficiency+0.1*m.InteractionVariety+0.1*m.TemporalConsistency, 0.6, 1.0)
	uncertainty := 1 - 0.5*(1-overall)

	ranked := make([]rankedTrait, 0, 5)
	var maxWeighted float64
	weighted := [5]float64{}
	for i, ts := range scores {
		weighted[i] = ts.Score * decay * contextMult * uncertainty
		if weighted[i] > maxWeighted {
			maxWeighted = weighted[i]
		}
	}
	for i, ts := range scores {
		norm := 0.0
		if maxWeighted > 0 {
			// Normalizing by the max keeps trait weighting from biasing
			// everything low: the dominant trait always reaches 1.0.
			norm = weighted[i] / maxWeighted
		}
		ranked = append(ranked, rankedTrait{score: ts, final: clamp01(norm * ts.Confidence)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].final > ranked[j].final })

	primary := ranked[0]
	runnerUp := ranked[1]
	gap := primary.final - runnerUp.final

	hybrid := gap <= HybridThreshold
	var secondary *traits.TraitScore
	if hybrid || runnerUp.final >= SecondaryThreshold {
		sec := runnerUp.score
		sec.Score = runnerUp.final
		sec.Level = traits.LevelFor(sec.Score)
		secondary = &sec
	}

	primaryScore := primary.score
	primaryScore.Score = primary.final
	primaryScore.Level = traits.LevelFor(primaryScore.Score)

	strength := StrengthWeak
	switch {
	case primary.final >= 0.75:
		strength = StrengthDominant
	case primary.final >= 0.55:
		strength = StrengthModerate
	}

	confidence := clamp01(0.7*primary.score.Confidence + 0.3*overall)
	stability := clamp01(0.6*clamp01(gap*2) + 0.4*m.TemporalConsistency)

	weakness := 0.0
	switch strength {
	case StrengthWeak:
		weakness = 1
	case StrengthModerate:
		weakness = 0.5
	}
	hybridPenalty := 0.0
	if hybrid {
		hybridPenalty = 0.25
	}
	adaptability := clamp01(0.5*(1-confidence) + hybridPenalty + 0.25*weakness)

	profile := &Profile{
		Primary:            primaryScore,
		PrimaryStrength:    strength,
		Secondary:          secondary,
		Hybrid:             hybrid,
		Confidence:         confidence,
		Stability:          stability,
		AdaptabilityNeeded: adaptability,
		LowReliability:     confidence < MinimumConfidence,
		ResolvedAt:         time.Now().UTC(),
	}

	if profile.LowReliability {
		r.logger.Debug("resolved low-reliability profile",
			"primary", profile.Primary.Trait.String(),
			"confidence", profile.Confidence,
		)
	}
	return profile
}

// timeDecay discounts stale observation windows. Fresh data keeps full
// weight; a day-old window bottoms out at 0.5.
func timeDecay(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	d := 1 / (1 + age.Hours()*0.1)
	return clamp(d, 0.5, 1)
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
