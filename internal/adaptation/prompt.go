package adaptation

import (
	"fmt"
	"strings"

	"github.com/tourwise/persona-engine/internal/personality"
)

const rewriteSystemPrompt = "You rewrite tour and guide text for a specific visitor. Preserve every factual claim, name, number, and safety note from the original. Never shorten the content. Return only the rewritten text with no preamble."

// Options carries the request context that shapes the rewrite.
type Options struct {
	ContentType       string
	CulturalContext   string
	TargetDurationSec int
}

// BuildPrompt assembles the structured prompt for the text-generation
// collaborator from the trait strategy and request context.
func BuildPrompt(content string, profile *personality.Profile, strategy Strategy, opts Options) (system []string, prompt string) {
	system = []string{rewriteSystemPrompt}

	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the following %s for a visitor whose dominant personality trait is %s.\n",
		contentTypeOrDefault(opts.ContentType), strategy.Trait)
	fmt.Fprintf(&b, "Tone: %s.\n", strings.Join(strategy.Tone, ", "))
	fmt.Fprintf(&b, "Approach: %s.\n", strategy.Template)
	if len(strategy.Patterns) > 0 {
		fmt.Fprintf(&b, "Favor language like: %s.\n", strings.Join(strategy.Patterns, "; "))
	}
	for _, rule := range strategy.Rules {
		fmt.Fprintf(&b, "- When you see a %s: %s.\n", rule.Condition, rule.Action)
	}
	if profile.Hybrid && profile.Secondary != nil {
		fmt.Fprintf(&b, "The visitor also leans %s; blend that in lightly.\n", profile.Secondary.Trait)
	}
	if opts.CulturalContext != "" {
		fmt.Fprintf(&b, "Cultural context to respect: %s.\n", opts.CulturalContext)
	}
	if opts.TargetDurationSec > 0 {
		fmt.Fprintf(&b, "Target a spoken duration of about %d seconds.\n", opts.TargetDurationSec)
	}
	if profile.AdaptabilityNeeded > 0.6 {
		b.WriteString("Keep the adaptation light; the personality signal is uncertain.\n")
	}
	b.WriteString("\nOriginal text:\n")
	b.WriteString(content)

	return system, b.String()
}

func contentTypeOrDefault(ct string) string {
	if ct == "" {
		return "tour narration"
	}
	return ct
}
