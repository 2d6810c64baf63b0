package adaptation

import (
	"sort"

	"github.com/tourwise/persona-engine/internal/personality"
	"github.com/tourwise/persona-engine/internal/traits"
)

// Rule is one ordered transformation instruction inside a strategy.
type Rule struct {
	Condition     string
	Action        string
	Priority      int
	Effectiveness float64
}

// AdaptationType names one category of change a strategy makes, with the
// improvement impact calibrated for it.
type AdaptationType struct {
	Name   string
	Impact float64
}

// Strategy is the trait-specific transformation plan handed to the prompt
// builder and the local rule rewriter.
type Strategy struct {
	Trait    traits.Trait
	Tone     []string
	Template string
	Patterns []string
	Rules    []Rule
	Types    []AdaptationType
}

// strategyTable is exhaustive over the closed trait set; adding a trait
// without a strategy is a compile error via the array length.
var strategyTable = [5]Strategy{
	traits.Openness: {
		Trait:    traits.Openness,
		Tone:     []string{"curious", "vivid", "inviting"},
		Template: "highlight hidden detail, unusual history, and side paths worth exploring",
		Patterns: []string{"imagine", "discover", "few people know"},
		Rules: []Rule{
			{Condition: "factual passage", Action: "add an unexpected angle or lesser-known detail", Priority: 1, Effectiveness: 0.8},
			{Condition: "route description", Action: "mention an optional detour", Priority: 2, Effectiveness: 0.6},
		},
		Types: []AdaptationType{
			{Name: "detail_enrichment", Impact: 0.06},
			{Name: "tone_adjustment", Impact: 0.04},
		},
	},
	traits.Conscientiousness: {
		Trait:    traits.Conscientiousness,
		Tone:     []string{"precise", "orderly", "practical"},
		Template: "organize into clear steps with concrete times, distances, and practical notes",
		Patterns: []string{"first", "then", "in summary"},
		Rules: []Rule{
			{Condition: "unstructured passage", Action: "impose a step-by-step order", Priority: 1, Effectiveness: 0.85},
			{Condition: "vague quantity", Action: "replace with a concrete figure when the source states one", Priority: 2, Effectiveness: 0.7},
		},
		Types: []AdaptationType{
			{Name: "structure_emphasis", Impact: 0.07},
			{Name: "precision_framing", Impact: 0.05},
		},
	},
	traits.Extraversion: {
		Trait:    traits.Extraversion,
		Tone:     []string{"energetic", "social", "direct"},
		Template: "make it lively and shareable, address the visitor directly",
		Patterns: []string{"you'll love", "don't miss", "perfect spot to"},
		Rules: []Rule{
			{Condition: "flat narration", Action: "raise energy and address the reader", Priority: 1, Effectiveness: 0.75},
			{Condition: "social opportunity", Action: "call out photo and meetup moments", Priority: 2, Effectiveness: 0.65},
		},
		Types: []AdaptationType{
			{Name: "tone_adjustment", Impact: 0.06},
			{Name: "engagement_boost", Impact: 0.05},
		},
	},
	traits.Agreeableness: {
		Trait:    traits.Agreeableness,
		Tone:     []string{"warm", "welcoming", "unhurried"},
		Template: "keep it friendly and considerate, emphasize comfort and local goodwill",
		Patterns: []string{"take your time", "locals recommend", "feel free"},
		Rules: []Rule{
			{Condition: "imperative phrasing", Action: "soften into an invitation", Priority: 1, Effectiveness: 0.7},
			{Condition: "crowd or queue mention", Action: "add a considerate alternative", Priority: 2, Effectiveness: 0.6},
		},
		Types: []AdaptationType{
			{Name: "tone_adjustment", Impact: 0.05},
			{Name: "comfort_framing", Impact: 0.04},
		},
	},
	traits.Neuroticism: {
		Trait:    traits.Neuroticism,
		Tone:     []string{"calm", "reassuring", "clear"},
		Template: "remove ambiguity, reassure about safety, logistics, and what to expect",
		Patterns: []string{"rest assured", "clearly marked", "no need to worry"},
		Rules: []Rule{
			{Condition: "uncertain logistics", Action: "state exactly what happens and when", Priority: 1, Effectiveness: 0.85},
			{Condition: "risk-adjacent mention", Action: "add a factual reassurance", Priority: 2, Effectiveness: 0.75},
		},
		Types: []AdaptationType{
			{Name: "reassurance_framing", Impact: 0.07},
			{Name: "clarity_boost", Impact: 0.05},
		},
	},
}

// StrategyFor builds the transformation plan for a profile. When the profile
// is hybrid the secondary trait's highest-priority rule and first adaptation
// type are blended in after the primary's.
func StrategyFor(profile *personality.Profile) Strategy {
	s := strategyTable[profile.Primary.Trait]
	out := Strategy{
		Trait:    s.Trait,
		Tone:     append([]string(nil), s.Tone...),
		Template: s.Template,
		Patterns: append([]string(nil), s.Patterns...),
		Rules:    append([]Rule(nil), s.Rules...),
		Types:    append([]AdaptationType(nil), s.Types...),
	}

	if profile.Hybrid && profile.Secondary != nil && profile.Secondary.Trait != profile.Primary.Trait {
		sec := strategyTable[profile.Secondary.Trait]
		if len(sec.Rules) > 0 {
			blended := sec.Rules[0]
			blended.Priority = len(out.Rules) + 1
			out.Rules = append(out.Rules, blended)
		}
		if len(sec.Types) > 0 {
			out.Types = append(out.Types, sec.Types[0])
		}
	}

	sort.SliceStable(out.Rules, func(i, j int) bool { return out.Rules[i].Priority < out.Rules[j].Priority })
	return out
}
