package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodContent = "Welcome to the Alhambra, built in 1238 on the hill above Granada. " +
	"As you walk through the Court of Lions, notice the 124 slender columns around you. " +
	"Then imagine the sultans who once listened to the fountains here. " +
	"Would you like to explore the gardens next?"

func goodContext() Context {
	return Context{
		OriginalContent: goodContent,
		CulturalContext: "Spain",
		ContentType:     "tour_narration",
		AdaptationLevel: 0.25,
	}
}

func TestWeightsSumToOne(t *testing.T) {
	p := NewPipeline()
	var sum float64
	for _, s := range p.steps {
		sum += s.weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestValidateWellFormedContentPasses(t *testing.T) {
	report := NewPipeline().Validate(goodContent, goodContext())

	assert.True(t, report.Passed, "overall %.1f, critical %v", report.OverallScore, report.CriticalIssues)
	assert.GreaterOrEqual(t, report.OverallScore, PassScore)
	assert.Empty(t, report.CriticalIssues)
	require.Len(t, report.Steps, 8)
}

func TestValidateDeterministic(t *testing.T) {
	p := NewPipeline()
	first := p.Validate(goodContent, goodContext())
	second := p.Validate(goodContent, goodContext())
	assert.Equal(t, first, second)
}

func TestDuplicatedSentencesFailCriticalFloor(t *testing.T) {
	// Five identical sentences: duplication must collapse and, via the
	// critical-step floor, fail the whole report even though the
	// duplication weight alone is small.
	dup := strings.Repeat("You will love the Alhambra gardens. ", 5)
	report := NewPipeline().Validate(dup, Context{OriginalContent: dup, AdaptationLevel: 0.25})

	var dupScore float64
	for _, s := range report.Steps {
		if s.Name == "duplication" {
			dupScore = s.Score
		}
	}
	assert.LessOrEqual(t, dupScore, 60.0)
	assert.False(t, report.Passed)
	assert.NotEmpty(t, report.CriticalIssues)
}

func TestAccuracyPenalizesLostFacts(t *testing.T) {
	ctx := Context{
		OriginalContent: "The Alhambra was built in 1238 and houses 124 columns in Granada.",
		AdaptationLevel: 0.25,
	}
	score, details := accuracyCheck{}.Check("The palace is lovely and full of columns you will enjoy.", ctx)

	assert.Less(t, score, 70.0)
	require.NotEmpty(t, details)
}

func TestAccuracyPreservedFactsScoreFull(t *testing.T) {
	original := "Built in 1238, the Alhambra in Granada has 124 columns."
	adapted := "You will find that the Alhambra in Granada, built in 1238, shows off its 124 columns."
	score, _ := accuracyCheck{}.Check(adapted, Context{OriginalContent: original})
	assert.Equal(t, 100.0, score)
}

func TestCulturalRiskyPhrasing(t *testing.T) {
	score, details := culturalCheck{}.Check("The primitive locals lived here.", Context{})
	assert.Less(t, score, 100.0)
	require.NotEmpty(t, details)
	assert.Equal(t, StatusFail, details[0].Status)
}

func TestCulturalCheckIgnoresContextField(t *testing.T) {
	content := "The palace gardens are open year round."
	withCtx, withDetails := culturalCheck{}.Check(content, Context{CulturalContext: "Spain"})
	without, withoutDetails := culturalCheck{}.Check(content, Context{})

	assert.Equal(t, without, withCtx)
	assert.Equal(t, withoutDetails, withDetails)
	for _, d := range withDetails {
		assert.NotEqual(t, "context", d.Check)
	}
}

func TestPersonalizationIsUShaped(t *testing.T) {
	check := personalizationCheck{}
	atOptimal, _ := check.Check("", Context{AdaptationLevel: 0.25})
	under, _ := check.Check("", Context{AdaptationLevel: 0.02})
	over, _ := check.Check("", Context{AdaptationLevel: 0.70})

	assert.Greater(t, atOptimal, under)
	assert.Greater(t, atOptimal, over)
	// Over-personalizing by the same deviation is penalized harder than
	// under-personalizing.
	symmetricOver, _ := check.Check("", Context{AdaptationLevel: 0.48})
	symmetricUnder, _ := check.Check("", Context{AdaptationLevel: 0.02})
	assert.Less(t, symmetricOver, symmetricUnder)
}

func TestLengthAgainstTargetDuration(t *testing.T) {
	short := "Look here."
	score, details := lengthCheck{}.Check(short, Context{TargetDurationSec: 60})
	assert.Less(t, score, 100.0)
	require.NotEmpty(t, details)
	assert.Equal(t, "target_duration", details[0].Check)
}

func TestGrammarFlagsSloppyText(t *testing.T) {
	sloppy := `the gardens are  lovely!!! "come see them`
	score, details := grammarCheck{}.Check(sloppy, Context{})
	assert.Less(t, score, 85.0)
	assert.NotEmpty(t, details)
}

func TestRecommendationsSortedByImpact(t *testing.T) {
	report := NewPipeline().Validate("meh.", Context{AdaptationLevel: 0.9, TargetDurationSec: 120})
	require.NotEmpty(t, report.Recommendations)
	for i := 1; i < len(report.Recommendations); i++ {
		assert.GreaterOrEqual(t, report.Recommendations[i-1].Impact, report.Recommendations[i].Impact)
	}
}

func TestWithPassScoreOption(t *testing.T) {
	ctx := goodContext()
	ctx.AdaptationLevel = 0.10

	assert.True(t, NewPipeline().Validate(goodContent, ctx).Passed)
	assert.False(t, NewPipeline(WithPassScore(99.5)).Validate(goodContent, ctx).Passed)
}
