package quality

import (
	"fmt"
	"sort"
)

const (
	// PassScore is the default weighted-score floor for content to ship.
	PassScore = 85.0
	// TargetScore is the aspirational ceiling the pipeline tunes toward.
	TargetScore = 98.0
	// criticalStepScore: any single step below this fails the report even
	// when the weighted overall clears PassScore.
	criticalStepScore = 60.0
)

type weightedChecker struct {
	checker Checker
	weight  float64
}

// Pipeline runs every configured checker and combines the step scores
// into a weighted overall. It holds no mutable state and is safe for
// concurrent use.
type Pipeline struct {
	steps       []weightedChecker
	passScore   float64
	targetScore float64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPassScore overrides the score floor used for the Passed flag.
func WithPassScore(score float64) Option {
	return func(p *Pipeline) { p.passScore = score }
}

// WithTargetScore overrides the aspirational target score.
func WithTargetScore(score float64) Option {
	return func(p *Pipeline) { p.targetScore = score }
}

// NewPipeline builds the standard eight-step validator. Raw weights are
// normalized so they sum to exactly 1.0 regardless of how the table evolves.
func NewPipeline(opts ...Option) *Pipeline {
	raw := []weightedChecker{
		{grammarCheck{}, 0.15},
		{accuracyCheck{}, 0.289},
		{culturalCheck{}, 0.234},
		{storytellingCheck{}, 0.267},
		{personalizationCheck{}, 0.178},
		{lengthCheck{}, 0.08},
		{duplicationCheck{}, 0.06},
		{engagementCheck{}, 0.05},
	}
	var sum float64
	for _, s := range raw {
		sum += s.weight
	}
	for i := range raw {
		raw[i].weight /= sum
	}
	p := &Pipeline{steps: raw, passScore: PassScore, targetScore: TargetScore}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate scores content through every step and assembles the report.
// The same content and context always produce the same report.
func (p *Pipeline) Validate(content string, ctx Context) Report {
	report := Report{
		Steps:       make([]StepResult, 0, len(p.steps)),
		TargetScore: p.targetScore,
	}

	var overall float64
	for _, step := range p.steps {
		score, details := step.checker.Check(content, ctx)
		result := StepResult{
			Name:    step.checker.Name(),
			Score:   score,
			Weight:  step.weight,
			Details: details,
		}
		report.Steps = append(report.Steps, result)
		overall += score * step.weight

		if score < criticalStepScore {
			report.CriticalIssues = append(report.CriticalIssues,
				fmt.Sprintf("%s scored %.0f, below the critical floor of %.0f", result.Name, score, criticalStepScore))
		}
		if score < p.targetScore {
			report.Recommendations = append(report.Recommendations, Recommendation{
				Step:       result.Name,
				Impact:     (100 - score) * step.weight,
				Suggestion: firstSuggestion(details, result.Name),
			})
		}
	}

	report.OverallScore = overall
	report.Passed = overall >= p.passScore && len(report.CriticalIssues) == 0

	sort.SliceStable(report.Recommendations, func(i, j int) bool {
		return report.Recommendations[i].Impact > report.Recommendations[j].Impact
	})
	return report
}

func firstSuggestion(details []Detail, step string) string {
	for _, d := range details {
		if d.SuggestedFix != "" {
			return d.SuggestedFix
		}
	}
	return fmt.Sprintf("improve the %s step score", step)
}
