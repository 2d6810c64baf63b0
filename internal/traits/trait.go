package traits

import (
	"encoding/json"
	"fmt"
)

// Trait is one of the five Big Five dimensions. The set is closed: adding or
// removing a trait must be a compile-time-checked change, so the inference
// tables and adaptation strategies index by this type, never by raw strings.
type Trait int

const (
	Openness Trait = iota
	Conscientiousness
	Extraversion
	Agreeableness
	Neuroticism
)

// All lists every trait in canonical order.
var All = [5]Trait{Openness, Conscientiousness, Extraversion, Agreeableness, Neuroticism}

func (t Trait) String() string {
	switch t {
	case Openness:
		return "openness"
	case Conscientiousness:
		return "conscientiousness"
	case Extraversion:
		return "extraversion"
	case Agreeableness:
		return "agreeableness"
	case Neuroticism:
		return "neuroticism"
	}
	return fmt.Sprintf("trait(%d)", int(t))
}

func (t Trait) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Trait) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Parse maps a wire name back onto the closed trait set.
func Parse(s string) (Trait, error) {
	for _, t := range All {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("traits: unknown trait %q", s)
}

// Level buckets a [0,1] score into five coarse bands.
type Level string

const (
	LevelVeryLow  Level = "very_low"
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelVeryHigh Level = "very_high"
)

// LevelFor returns the band for a score.
func LevelFor(score float64) Level {
	switch {
	case score < 0.2:
		return LevelVeryLow
	case score < 0.4:
		return LevelLow
	case score < 0.6:
		return LevelModerate
	case score < 0.8:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// Evidence records one sub-indicator's contribution so a score stays auditable.
type Evidence struct {
	Behavior    string  `json:"behavior"`
	Strength    float64 `json:"strength"`
	Weight      float64 `json:"weight"`
	Observation string  `json:"observation"`
}

// TraitScore is one trait's estimate. Score and Confidence are always clamped
// to [0,1]; Confidence never drops below the 0.3 floor because absence of
// evidence means uninformative, not certainly absent.
type TraitScore struct {
	Trait      Trait      `json:"trait"`
	Score      float64    `json:"score"`
	Confidence float64    `json:"confidence"`
	Level      Level      `json:"level"`
	Evidence   []Evidence `json:"evidence,omitempty"`
}
