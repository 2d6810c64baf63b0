package personality

import (
	"time"

	"github.com/tourwise/persona-engine/internal/traits"
)

const (
	// HybridThreshold is the max gap between the top two final scores for a
	// profile to be treated as a blend.
	HybridThreshold = 0.15
	// SecondaryThreshold is the score floor for attaching a secondary trait
	// outside the hybrid case.
	SecondaryThreshold = 0.45
	// MinimumConfidence is the reliability bar below which the orchestrator
	// substitutes the fallback profile.
	MinimumConfidence = 0.6
)

// Strength labels how decisively the primary trait leads.
type Strength string

const (
	StrengthDominant Strength = "dominant"
	StrengthModerate Strength = "moderate"
	StrengthWeak     Strength = "weak"
)

// Profile is the resolved personality for one request. It is never mutated
// after creation; re-resolving produces a fresh profile and invalidates any
// caches keyed on the old one.
type Profile struct {
	Primary            traits.TraitScore  `json:"primary"`
	PrimaryStrength    Strength           `json:"primary_strength"`
	Secondary          *traits.TraitScore `json:"secondary,omitempty"`
	Hybrid             bool               `json:"hybrid"`
	Confidence         float64            `json:"confidence"`
	Stability          float64            `json:"stability"`
	AdaptabilityNeeded float64            `json:"adaptability_needed"`
	LowReliability     bool               `json:"low_reliability"`
	ResolvedAt         time.Time          `json:"resolved_at"`
}

// Fallback returns the fixed, conservative profile applied when resolution
// confidence is too low. It leans agreeable: broadly likable content with
// light personalization is the safest degradation.
func Fallback() *Profile {
	score := traits.TraitScore{
		Trait:      traits.Agreeableness,
		Score:      0.6,
		Confidence: 0.5,
		Level:      traits.LevelFor(0.6),
	}
	return &Profile{
		Primary:            score,
		PrimaryStrength:    StrengthModerate,
		Hybrid:             false,
		Confidence:         0.5,
		Stability:          0.8,
		AdaptabilityNeeded: 0.3,
		ResolvedAt:         time.Now().UTC(),
	}
}
