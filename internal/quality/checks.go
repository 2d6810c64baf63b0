package quality

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// The per-check scoring functions are deliberately rule-based strategies
// behind the Checker interface; a richer NLP engine can replace any of them
// without touching the pipeline.

type grammarCheck struct{}

func (grammarCheck) Name() string { return "grammar" }

var (
	doubleSpaceRe   = regexp.MustCompile(`  +`)
	repeatedPunctRe = regexp.MustCompile(`([!?.,]){3,}`)
)

func (grammarCheck) Check(content string, _ Context) (float64, []Detail) {
	score := 100.0
	var details []Detail

	if n := len(doubleSpaceRe.FindAllString(content, -1)); n > 0 {
		score -= math.Min(15, float64(n)*5)
		details = append(details, Detail{
			Check:        "spacing",
			Status:       StatusWarning,
			Message:      fmt.Sprintf("%d runs of repeated spaces", n),
			SuggestedFix: "collapse repeated spaces to single spaces",
		})
	}
	if n := len(repeatedPunctRe.FindAllString(content, -1)); n > 0 {
		score -= math.Min(15, float64(n)*5)
		details = append(details, Detail{
			Check:        "punctuation",
			Status:       StatusWarning,
			Message:      fmt.Sprintf("%d runs of repeated punctuation", n),
			SuggestedFix: "use single punctuation marks",
		})
	}

	lower := 0
	for _, sentence := range splitSentences(content) {
		r := []rune(sentence)
		if len(r) > 0 && unicode.IsLower(r[0]) {
			lower++
		}
	}
	if lower > 0 {
		score -= math.Min(25, float64(lower)*5)
		details = append(details, Detail{
			Check:        "capitalization",
			Status:       StatusWarning,
			Message:      fmt.Sprintf("%d sentences start lowercase", lower),
			SuggestedFix: "capitalize sentence openings",
		})
	}
	if strings.Count(content, `"`)%2 != 0 {
		score -= 10
		details = append(details, Detail{
			Check:        "quoting",
			Status:       StatusFail,
			Message:      "unbalanced quotation marks",
			SuggestedFix: "close the open quotation",
		})
	}

	return passDetail(score, details, "no grammar issues found")
}

type accuracyCheck struct{}

func (accuracyCheck) Name() string { return "accuracy" }

var numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Check verifies that the factual anchors of the original text, numbers and
// proper nouns, survived the rewrite. Factual correctness dominates perceived
// quality, which is why this step carries the highest weight.
func (accuracyCheck) Check(content string, ctx Context) (float64, []Detail) {
	score := 100.0
	var details []Detail
	if ctx.OriginalContent == "" {
		return passDetail(score, details, "no original to compare against")
	}

	adaptedNums := map[string]struct{}{}
	for _, n := range numberRe.FindAllString(content, -1) {
		adaptedNums[n] = struct{}{}
	}
	missing := 0
	for _, n := range numberRe.FindAllString(ctx.OriginalContent, -1) {
		if _, ok := adaptedNums[n]; !ok {
			missing++
		}
	}
	if missing > 0 {
		score -= math.Min(60, float64(missing)*15)
		details = append(details, Detail{
			Check:        "numeric_facts",
			Status:       StatusFail,
			Message:      fmt.Sprintf("%d numeric facts from the original are missing", missing),
			SuggestedFix: "restore the original figures verbatim",
		})
	}

	lostNouns := 0
	adaptedLower := strings.ToLower(content)
	for noun := range properNouns(ctx.OriginalContent) {
		if !strings.Contains(adaptedLower, strings.ToLower(noun)) {
			lostNouns++
		}
	}
	if lostNouns > 0 {
		score -= math.Min(40, float64(lostNouns)*8)
		details = append(details, Detail{
			Check:        "named_entities",
			Status:       StatusWarning,
			Message:      fmt.Sprintf("%d named entities from the original are missing", lostNouns),
			SuggestedFix: "keep place and person names from the original",
		})
	}

	return passDetail(score, details, "factual anchors preserved")
}

type culturalCheck struct{}

func (culturalCheck) Name() string { return "cultural" }

// riskyPhrases is a small static lexicon; a full cultural-rules engine can
// replace this checker behind the same interface.
var riskyPhrases = []string{
	"primitive",
	"exotic locals",
	"third-world",
	"backwards",
	"uncivilized",
	"crazy",
	"insane",
	"savage",
}

func (culturalCheck) Check(content string, _ Context) (float64, []Detail) {
	score := 100.0
	var details []Detail
	lower := strings.ToLower(content)
	for _, phrase := range riskyPhrases {
		if strings.Contains(lower, phrase) {
			score -= 20
			details = append(details, Detail{
				Check:        "phrasing",
				Status:       StatusFail,
				Message:      fmt.Sprintf("culturally risky phrase %q", phrase),
				SuggestedFix: "replace with neutral, respectful wording",
			})
		}
	}
	return passDetail(score, details, "no culturally risky phrasing found")
}

type storytellingCheck struct{}

func (storytellingCheck) Name() string { return "storytelling" }

var narrativeConnectors = []string{"then", "as you", "beyond", "once", "while", "imagine", "story"}

func (storytellingCheck) Check(content string, _ Context) (float64, []Detail) {
	sentences := splitSentences(content)
	score := 70.0
	var details []Detail

	if len(sentences) < 2 {
		score -= 20
		details = append(details, Detail{
			Check:        "flow",
			Status:       StatusWarning,
			Message:      "content is a single sentence",
			SuggestedFix: "develop the narration across several sentences",
		})
	} else if sentenceLengthVariance(sentences) > 0.15 {
		score += 15
	}

	lower := strings.ToLower(content)
	for _, connector := range narrativeConnectors {
		if strings.Contains(lower, connector) {
			score += 15
			break
		}
	}
	return passDetail(score, details, "narrative structure reads well")
}

type personalizationCheck struct{}

func (personalizationCheck) Name() string { return "personalization" }

// optimalAdaptationLevel is the reference edit-distance ratio where
// personalization helps most; desirability is U-shaped around it.
const optimalAdaptationLevel = 0.25

func (personalizationCheck) Check(_ string, ctx Context) (float64, []Detail) {
	level := ctx.AdaptationLevel
	score := 100.0
	var details []Detail

	deviation := math.Abs(level - optimalAdaptationLevel)
	score -= deviation / optimalAdaptationLevel * 30

	// Over-personalizing reads as pandering: beyond ~50% past the optimal
	// level the step scores lower, not higher.
	if level > optimalAdaptationLevel*1.5 {
		score -= (level - optimalAdaptationLevel*1.5) * 100
		details = append(details, Detail{
			Check:        "over_personalization",
			Status:       StatusWarning,
			Message:      fmt.Sprintf("adaptation level %.2f far exceeds the optimal %.2f", level, optimalAdaptationLevel),
			SuggestedFix: "retain more of the original phrasing",
		})
	}
	if level < 0.05 {
		details = append(details, Detail{
			Check:        "under_personalization",
			Status:       StatusWarning,
			Message:      "content is nearly unchanged",
			SuggestedFix: "apply the trait strategy more assertively",
		})
	}
	return passDetail(score, details, "personalization level is in the effective band")
}

type lengthCheck struct{}

func (lengthCheck) Name() string { return "length" }

// spokenWordsPerSecond approximates guided-narration pace.
const spokenWordsPerSecond = 2.5

func (lengthCheck) Check(content string, ctx Context) (float64, []Detail) {
	words := len(strings.Fields(content))
	score := 100.0
	var details []Detail

	expected := 0
	if ctx.TargetDurationSec > 0 {
		expected = int(float64(ctx.TargetDurationSec) * spokenWordsPerSecond)
	}
	if expected > 0 {
		ratio := float64(words) / float64(expected)
		if ratio < 0.7 || ratio > 1.4 {
			score -= math.Min(40, math.Abs(ratio-1)*50)
			details = append(details, Detail{
				Check:        "target_duration",
				Status:       StatusWarning,
				Message:      fmt.Sprintf("%d words vs ~%d expected for the target duration", words, expected),
				SuggestedFix: "adjust the narration length toward the target duration",
			})
		}
	} else if words < 10 {
		score -= 20
		details = append(details, Detail{
			Check:        "minimum_length",
			Status:       StatusWarning,
			Message:      "content is very short",
			SuggestedFix: "expand the narration with concrete detail",
		})
	}
	return passDetail(score, details, "length is appropriate")
}

type duplicationCheck struct{}

func (duplicationCheck) Name() string { return "duplication" }

func (duplicationCheck) Check(content string, _ Context) (float64, []Detail) {
	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return 100, []Detail{{Check: "duplication", Status: StatusPass, Message: "no sentences to compare"}}
	}
	seen := map[string]int{}
	duplicated := 0
	for _, s := range sentences {
		key := strings.ToLower(strings.TrimSpace(s))
		seen[key]++
		if seen[key] > 1 {
			duplicated++
		}
	}
	ratio := float64(duplicated) / float64(len(sentences))
	score := 100 - ratio*200
	var details []Detail
	if duplicated > 0 {
		details = append(details, Detail{
			Check:        "repeated_sentences",
			Status:       StatusFail,
			Message:      fmt.Sprintf("%d of %d sentences are repeats", duplicated, len(sentences)),
			SuggestedFix: "remove or rephrase the repeated sentences",
		})
	}
	return passDetail(score, details, "no duplicated sentences")
}

type engagementCheck struct{}

func (engagementCheck) Name() string { return "engagement" }

var engagingVerbs = []string{"discover", "explore", "try", "look", "listen", "taste", "notice"}

func (engagementCheck) Check(content string, _ Context) (float64, []Detail) {
	score := 60.0
	lower := strings.ToLower(content)
	var details []Detail

	if strings.Contains(lower, "you") {
		score += 15
	} else {
		details = append(details, Detail{
			Check:        "address",
			Status:       StatusWarning,
			Message:      "content never addresses the visitor",
			SuggestedFix: "speak to the visitor directly",
		})
	}
	if strings.Contains(content, "?") {
		score += 10
	}
	for _, verb := range engagingVerbs {
		if strings.Contains(lower, verb) {
			score += 15
			break
		}
	}
	return passDetail(score, details, "content invites participation")
}

func passDetail(score float64, details []Detail, okMessage string) (float64, []Detail) {
	score = math.Max(0, math.Min(100, score))
	if len(details) == 0 {
		details = []Detail{{Check: "overall", Status: StatusPass, Message: okMessage}}
	}
	return score, details
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

func splitSentences(content string) []string {
	parts := sentenceSplitRe.Split(content, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sentenceLengthVariance(sentences []string) float64 {
	if len(sentences) < 2 {
		return 0
	}
	lengths := make([]float64, len(sentences))
	var mean float64
	for i, s := range sentences {
		lengths[i] = float64(len(s))
		mean += lengths[i]
	}
	mean /= float64(len(lengths))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, l := range lengths {
		sq += (l - mean) * (l - mean)
	}
	return math.Sqrt(sq/float64(len(lengths))) / mean
}

var properNounRe = regexp.MustCompile(`\b[A-Z][a-z]{2,}\b`)

// properNouns extracts capitalized words that do not open a sentence.
func properNouns(content string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, sentence := range splitSentences(content) {
		words := strings.Fields(sentence)
		for i, w := range words {
			if i == 0 {
				continue
			}
			if properNounRe.MatchString(w) {
				out[strings.Trim(w, ",;:'\"")] = struct{}{}
			}
		}
	}
	return out
}
