package adaptation

import (
	"regexp"
	"strings"

	"github.com/tourwise/persona-engine/internal/traits"
)

// substitution is one local rewrite applied when the collaborator is
// unavailable. Replacements only ever grow or preserve the text.
type substitution struct {
	pattern *regexp.Regexp
	replace string
}

// ruleSet is the always-available local rewriter for one trait: word-level
// substitutions plus a closing line in the trait's voice.
type ruleSet struct {
	subs    []substitution
	closing string
}

var ruleTable = [5]ruleSet{
	traits.Openness: {
		subs: []substitution{
			{pattern: regexp.MustCompile(`(?i)\byou can see\b`), replace: "you can discover"},
			{pattern: regexp.MustCompile(`(?i)\binteresting\b`), replace: "surprisingly little-known"},
			{pattern: regexp.MustCompile(`(?i)\bwalk\b`), replace: "wander"},
		},
		closing: "Keep an eye out along the way — the side streets here hide details most visitors never notice.",
	},
	traits.Conscientiousness: {
		subs: []substitution{
			{pattern: regexp.MustCompile(`(?i)\babout\b`), replace: "approximately"},
			{pattern: regexp.MustCompile(`(?i)\bsoon\b`), replace: "shortly ahead"},
			{pattern: regexp.MustCompile(`(?i)\bnearby\b`), replace: "a short, well-marked distance away"},
		},
		closing: "A practical note: the stops above follow the walking order, so you can take them step by step.",
	},
	traits.Extraversion: {
		subs: []substitution{
			{pattern: regexp.MustCompile(`(?i)\bnice\b`), replace: "fantastic"},
			{pattern: regexp.MustCompile(`(?i)\byou may\b`), replace: "you'll definitely want to"},
			{pattern: regexp.MustCompile(`(?i)\bquiet\b`), replace: "lively"},
		},
		closing: "This is a favorite spot to meet people — and an easy one to share with friends afterwards.",
	},
	traits.Agreeableness: {
		subs: []substitution{
			{pattern: regexp.MustCompile(`(?i)\byou must\b`), replace: "you're warmly invited to"},
			{pattern: regexp.MustCompile(`(?i)\bdo not\b`), replace: "please avoid"},
			{pattern: regexp.MustCompile(`(?i)\bquickly\b`), replace: "at your own pace"},
		},
		closing: "Take your time here; locals are glad to point the way if anything is unclear.",
	},
	traits.Neuroticism: {
		subs: []substitution{
			{pattern: regexp.MustCompile(`(?i)\bbe careful\b`), replace: "rest assured the path is clearly marked"},
			{pattern: regexp.MustCompile(`(?i)\bcrowded\b`), replace: "busy but well-managed"},
			{pattern: regexp.MustCompile(`(?i)\bsteep\b`), replace: "gently climbing, with rails where needed"},
		},
		closing: "Everything on this route is signposted and easy to follow, so there's no need to worry about losing your way.",
	},
}

// applyRules runs the local rule-based rewrite for a trait. The output always
// contains at least the original content's information: substitutions never
// drop text and the closing line is appended, never substituted.
func applyRules(content string, trait traits.Trait) string {
	out := content
	for _, sub := range ruleTable[trait].subs {
		out = sub.pattern.ReplaceAllString(out, sub.replace)
	}
	closing := ruleTable[trait].closing
	if strings.TrimSpace(out) == "" {
		return closing
	}
	if !strings.HasSuffix(out, "\n") {
		out += " "
	}
	return out + closing
}
