package adaptation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourwise/persona-engine/internal/personality"
	"github.com/tourwise/persona-engine/internal/traits"
)

type stubGenerator struct {
	text  string
	err   error
	calls int
	delay time.Duration
}

func (s *stubGenerator) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return TextResponse{}, ctx.Err()
		}
	}
	if s.err != nil {
		return TextResponse{}, s.err
	}
	return TextResponse{Text: s.text}, nil
}

func profileFor(trait traits.Trait, confidence float64) *personality.Profile {
	return &personality.Profile{
		Primary: traits.TraitScore{
			Trait:      trait,
			Score:      0.8,
			Confidence: confidence,
			Level:      traits.LevelFor(0.8),
		},
		PrimaryStrength: personality.StrengthDominant,
		Confidence:      confidence,
		ResolvedAt:      time.Now(),
	}
}

func TestAdapt_IdempotentViaCache(t *testing.T) {
	gen := &stubGenerator{text: "A richly rewritten passage about the old town, with every fact preserved and more."}
	engine := NewEngine(gen, EngineConfig{Model: "m"}, nil, nil)
	profile := profileFor(traits.Openness, 0.8)

	first, err := engine.Adapt(context.Background(), "A passage about the old town.", profile, Options{})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := engine.Adapt(context.Background(), "A passage about the old town.", profile, Options{})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.AdaptedContent, second.AdaptedContent)
	assert.Equal(t, 1, gen.calls, "cache hit must not call the generator")
}

func TestAdapt_GeneratorTimeoutFallsBackToRules(t *testing.T) {
	gen := &stubGenerator{text: "never returned", delay: time.Second}
	engine := NewEngine(gen, EngineConfig{Model: "m", GenerationTimeout: 10 * time.Millisecond}, nil, nil)
	profile := profileFor(traits.Neuroticism, 0.7)

	original := "Be careful on the steep path; it gets crowded."
	result, err := engine.Adapt(context.Background(), original, profile, Options{})
	require.NoError(t, err)

	assert.True(t, result.UsedFallback)
	assert.Contains(t, result.AdaptationTypes, "rule_fallback")
	assert.NotEmpty(t, result.AdaptedContent)
	assert.NotEqual(t, original, result.AdaptedContent)
	assert.GreaterOrEqual(t, len(result.AdaptedContent), len(original))
}

func TestAdapt_GeneratorErrorFallsBackToRules(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream down")}
	engine := NewEngine(gen, EngineConfig{Model: "m"}, nil, nil)
	profile := profileFor(traits.Agreeableness, 0.6)

	result, err := engine.Adapt(context.Background(), "You must hurry. Do not linger.", profile, Options{})
	require.NoError(t, err)
	assert.True(t, result.UsedFallback)
	assert.Contains(t, result.AdaptedContent, "warmly invited")
}

func TestAdapt_ShortGeneratorOutputRejected(t *testing.T) {
	gen := &stubGenerator{text: "ok"}
	engine := NewEngine(gen, EngineConfig{Model: "m"}, nil, nil)
	profile := profileFor(traits.Extraversion, 0.9)

	original := strings.Repeat("A sentence with plenty of tour detail. ", 5)
	result, err := engine.Adapt(context.Background(), original, profile, Options{})
	require.NoError(t, err)
	assert.True(t, result.UsedFallback)
	assert.GreaterOrEqual(t, len(result.AdaptedContent), len(original))
}

func TestAdapt_NilGeneratorAlwaysRuleBased(t *testing.T) {
	engine := NewEngine(nil, EngineConfig{}, nil, nil)
	profile := profileFor(traits.Conscientiousness, 0.5)

	result, err := engine.Adapt(context.Background(), "The museum is about a mile away.", profile, Options{})
	require.NoError(t, err)
	assert.True(t, result.UsedFallback)
	assert.Contains(t, result.AdaptedContent, "approximately")
}

func TestEstimatedImprovementBounds(t *testing.T) {
	allTypes := []AdaptationType{
		{Name: "a", Impact: 0.5},
		{Name: "b", Impact: 0.5},
		{Name: "c", Impact: 0.5},
	}
	for _, conf := range []float64{0, 0.1, 0.5, 0.9, 1.0} {
		got := estimatedImprovement(conf, allTypes)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 0.31, "confidence %v", conf)
	}
	assert.Zero(t, estimatedImprovement(0, nil))
}

func TestEditDistanceRatio(t *testing.T) {
	assert.Zero(t, editDistanceRatio("same", "same"))
	assert.InDelta(t, 1.0, editDistanceRatio("", "abcd"), 1e-9)
	ratio := editDistanceRatio("kitten", "sitting")
	assert.InDelta(t, 3.0/7.0, ratio, 1e-9)
}
