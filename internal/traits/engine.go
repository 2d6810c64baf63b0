package traits

import (
	"fmt"
	"math"

	"github.com/tourwise/persona-engine/internal/signals"
	"github.com/tourwise/persona-engine/pkg/logging"
)

const (
	// neutralScore is what a trait scores when no indicator has evidence.
	neutralScore = 0.5
	// confidenceFloor keeps sparse sessions uninformative rather than zero.
	confidenceFloor = 0.3
	// fullEvidenceEvents is the event volume at which confidence stops growing.
	fullEvidenceEvents = 40
)

// indicator is one weighted sub-signal feeding a trait score. measure returns
// ok=false when the snapshot carries no evidence for it; skipped indicators
// contribute neutrality, never a penalty.
type indicator struct {
	name    string
	weight  float64
	measure func(s *signals.BehaviorSnapshot) (strength float64, observation string, ok bool)
}

// Engine computes the five trait scores from a snapshot. Traits are estimated
// independently: no indicator reads another trait's output.
type Engine struct {
	logger *logging.Logger
}

func NewEngine(logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{logger: logger.Component("traits")}
}

// InferTraits scores all five traits. A snapshot with zero events yields
// every trait at score 0.5 with confidence 0.3.
func (e *Engine) InferTraits(snap *signals.BehaviorSnapshot) [5]TraitScore {
	var out [5]TraitScore
	for i, trait := range All {
		out[i] = e.scoreTrait(trait, snap)
	}
	return out
}

func (e *Engine) scoreTrait(trait Trait, snap *signals.BehaviorSnapshot) TraitScore {
	indicators := indicatorTable[trait]

	var weightedSum, weightUsed float64
	evidence := make([]Evidence, 0, len(indicators))
	for _, ind := range indicators {
		strength, observation, ok := ind.measure(snap)
		if !ok {
			continue
		}
		strength = clamp01(strength)
		weightedSum += strength * ind.weight
		weightUsed += ind.weight
		evidence = append(evidence, Evidence{
			Behavior:    ind.name,
			Strength:    strength,
			Weight:      ind.weight,
			Observation: observation,
		})
	}

	// Weights per trait sum to <=1; the weight not backed by evidence
	// contributes neutrality so sparse sessions drift toward 0.5.
	score := clamp01(neutralScore*(1-weightUsed) + weightedSum)

	volume := math.Min(1, float64(snap.EventCount)/fullEvidenceEvents)
	confidence := clamp01(confidenceFloor + (1-confidenceFloor)*weightUsed*volume)
	if confidence < confidenceFloor {
		confidence = confidenceFloor
	}

	return TraitScore{
		Trait:      trait,
		Score:      score,
		Confidence: confidence,
		Level:      LevelFor(score),
		Evidence:   evidence,
	}
}

// indicatorTable holds the versioned sub-indicator weights per trait. The
// weights are constants, not learned; tuning them is an out-of-band,
// human-reviewed operation informed by the feedback tracker.
var indicatorTable = [5][]indicator{
	Openness: {
		{name: "exploration_ratio", weight: 0.25, measure: measureExplorationRatio},
		{name: "menu_exploration", weight: 0.20, measure: measureMenuExploration},
		{name: "scroll_variety", weight: 0.15, measure: measureScrollVariety},
		{name: "selection_diversity", weight: 0.15, measure: measureSelectionDiversity},
		{name: "dwell_novelty", weight: 0.10, measure: measureDwellNovelty},
	},
	Conscientiousness: {
		{name: "navigation_discipline", weight: 0.25, measure: measureNavigationDiscipline},
		{name: "sustained_attention", weight: 0.25, measure: measureSustainedAttention},
		{name: "click_regularity", weight: 0.20, measure: measureClickRegularity},
		{name: "steady_scrolling", weight: 0.15, measure: measureSteadyScrolling},
	},
	Extraversion: {
		{name: "interaction_tempo", weight: 0.25, measure: measureInteractionTempo},
		{name: "rapid_responses", weight: 0.20, measure: measureRapidResponses},
		{name: "selection_engagement", weight: 0.15, measure: measureSelectionEngagement},
		{name: "scroll_energy", weight: 0.15, measure: measureScrollEnergy},
		{name: "focus_switching", weight: 0.10, measure: measureFocusSwitching},
	},
	Agreeableness: {
		{name: "content_completion", weight: 0.20, measure: measureContentCompletion},
		{name: "linear_flow", weight: 0.20, measure: measureLinearFlow},
		{name: "gentle_pace", weight: 0.15, measure: measureGentlePace},
	},
	Neuroticism: {
		{name: "erratic_scrolling", weight: 0.25, measure: measureErraticScrolling},
		{name: "hesitation", weight: 0.20, measure: measureHesitation},
		{name: "backtrack_anxiety", weight: 0.20, measure: measureBacktrackAnxiety},
		{name: "burst_clicking", weight: 0.20, measure: measureBurstClicking},
		{name: "dwell_restlessness", weight: 0.15, measure: measureDwellRestlessness},
	},
}

func measureExplorationRatio(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if s.Exploration.TotalVisits == 0 {
		return 0, "", false
	}
	r := s.Exploration.ExplorationRatio
	return r, fmt.Sprintf("%d unique targets across %d visits", s.Exploration.UniqueTargets, s.Exploration.TotalVisits), true
}

func measureMenuExploration(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.ClickPattern) == 0 {
		return 0, "", false
	}
	depth := float64(s.Exploration.MaxMenuDepth)
	return math.Min(1, depth/4), fmt.Sprintf("reached menu depth %d", s.Exploration.MaxMenuDepth), true
}

func measureScrollVariety(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.ScrollPattern) < 2 {
		return 0, "", false
	}
	changes := directionChanges(s.ScrollPattern)
	changeRate := float64(changes) / float64(len(s.ScrollPattern)-1)
	_, stddev := speedStats(s.ScrollPattern)
	spread := math.Min(1, stddev/200)
	return 0.5*changeRate + 0.5*spread, fmt.Sprintf("%d scroll direction changes, speed spread %.0f", changes, stddev), true
}

func measureSelectionDiversity(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.SelectionPattern) == 0 {
		return 0, "", false
	}
	unique := map[string]struct{}{}
	for _, sel := range s.SelectionPattern {
		unique[sel] = struct{}{}
	}
	r := float64(len(unique)) / float64(len(s.SelectionPattern))
	return r, fmt.Sprintf("%d distinct selections of %d", len(unique), len(s.SelectionPattern)), true
}

func measureDwellNovelty(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.DwellTimes) < 2 || s.Attention.MeanDwellSec == 0 {
		return 0, "", false
	}
	cv := s.Attention.DwellStdDevSec / s.Attention.MeanDwellSec
	return math.Min(1, cv), fmt.Sprintf("dwell variation coefficient %.2f", cv), true
}

func measureNavigationDiscipline(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if s.Exploration.TotalVisits == 0 {
		return 0, "", false
	}
	strength := 1 - math.Min(1, s.Exploration.BacktrackRatio/0.3)
	return strength, fmt.Sprintf("backtrack ratio %.2f", s.Exploration.BacktrackRatio), true
}

func measureSustainedAttention(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.DwellTimes) == 0 {
		return 0, "", false
	}
	strength := math.Min(1, s.Attention.MeanDwellSec/30)
	return strength, fmt.Sprintf("mean dwell %.1fs across %d sections", s.Attention.MeanDwellSec, len(s.DwellTimes)), true
}

func measureClickRegularity(s *signals.BehaviorSnapshot) (float64, string, bool) {
	intervals := clickIntervals(s.ClickPattern)
	if len(intervals) < 2 {
		return 0, "", false
	}
	mean, stddev := meanStdDev(intervals)
	if mean == 0 {
		return 0, "", false
	}
	cv := stddev / mean
	return 1 - math.Min(1, cv), fmt.Sprintf("click interval variation %.2f", cv), true
}

func measureSteadyScrolling(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.ScrollPattern) < 2 {
		return 0, "", false
	}
	_, stddev := speedStats(s.ScrollPattern)
	return 1 - math.Min(1, stddev/300), fmt.Sprintf("scroll speed spread %.0f", stddev), true
}

func measureInteractionTempo(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.ClickPattern) == 0 || s.Attention.SessionSpanSec <= 0 {
		return 0, "", false
	}
	perMinute := float64(len(s.ClickPattern)) / s.Attention.SessionSpanSec * 60
	return math.Min(1, perMinute/40), fmt.Sprintf("%.0f clicks per minute", perMinute), true
}

func measureRapidResponses(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.ResponseTimes) == 0 {
		return 0, "", false
	}
	strength := 1 - math.Min(1, s.Attention.MeanResponseSec/2)
	return strength, fmt.Sprintf("mean response %.2fs", s.Attention.MeanResponseSec), true
}

func measureSelectionEngagement(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.SelectionPattern) == 0 {
		return 0, "", false
	}
	return math.Min(1, float64(len(s.SelectionPattern))/5), fmt.Sprintf("%d active selections", len(s.SelectionPattern)), true
}

func measureScrollEnergy(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.ScrollPattern) == 0 {
		return 0, "", false
	}
	mean, _ := speedStats(s.ScrollPattern)
	return math.Min(1, mean/400), fmt.Sprintf("mean scroll speed %.0f", mean), true
}

func measureFocusSwitching(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if s.Attention.FocusChanges == 0 {
		return 0, "", false
	}
	return math.Min(1, float64(s.Attention.FocusChanges)/20), fmt.Sprintf("%d focus changes", s.Attention.FocusChanges), true
}

func measureContentCompletion(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.DwellTimes) == 0 {
		return 0, "", false
	}
	return math.Min(1, float64(len(s.DwellTimes))/8), fmt.Sprintf("dwelled on %d sections", len(s.DwellTimes)), true
}

func measureLinearFlow(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.ScrollPattern) < 2 {
		return 0, "", false
	}
	changes := directionChanges(s.ScrollPattern)
	changeRate := float64(changes) / float64(len(s.ScrollPattern)-1)
	return 1 - changeRate, fmt.Sprintf("%d direction changes over %d scrolls", changes, len(s.ScrollPattern)), true
}

func measureGentlePace(s *signals.BehaviorSnapshot) (float64, string, bool) {
	intervals := clickIntervals(s.ClickPattern)
	if len(intervals) == 0 {
		return 0, "", false
	}
	mean, _ := meanStdDev(intervals)
	// Comfortable browsing sits between one and ten seconds per click.
	if mean >= 1 && mean <= 10 {
		return 1, fmt.Sprintf("mean click interval %.1fs", mean), true
	}
	if mean < 1 {
		return mean, fmt.Sprintf("mean click interval %.1fs", mean), true
	}
	return math.Max(0, 1-(mean-10)/20), fmt.Sprintf("mean click interval %.1fs", mean), true
}

func measureErraticScrolling(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.ScrollPattern) < 2 {
		return 0, "", false
	}
	changes := directionChanges(s.ScrollPattern)
	changeRate := float64(changes) / float64(len(s.ScrollPattern)-1)
	return changeRate, fmt.Sprintf("%d scroll direction changes", changes), true
}

func measureHesitation(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.ResponseTimes) == 0 {
		return 0, "", false
	}
	strength := math.Min(1, math.Max(0, s.Attention.MeanResponseSec-1)/5)
	return strength, fmt.Sprintf("mean response %.2fs", s.Attention.MeanResponseSec), true
}

func measureBacktrackAnxiety(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if s.Exploration.TotalVisits == 0 {
		return 0, "", false
	}
	return math.Min(1, s.Exploration.BacktrackRatio/0.25), fmt.Sprintf("backtrack ratio %.2f", s.Exploration.BacktrackRatio), true
}

func measureBurstClicking(s *signals.BehaviorSnapshot) (float64, string, bool) {
	intervals := clickIntervals(s.ClickPattern)
	if len(intervals) == 0 {
		return 0, "", false
	}
	bursts := 0
	for _, iv := range intervals {
		if iv < 0.3 {
			bursts++
		}
	}
	return float64(bursts) / float64(len(intervals)), fmt.Sprintf("%d rapid-fire clicks of %d", bursts, len(intervals)), true
}

func measureDwellRestlessness(s *signals.BehaviorSnapshot) (float64, string, bool) {
	if len(s.DwellTimes) == 0 {
		return 0, "", false
	}
	return 1 - math.Min(1, s.Attention.MeanDwellSec/20), fmt.Sprintf("mean dwell %.1fs", s.Attention.MeanDwellSec), true
}

func clickIntervals(clicks []signals.ClickSample) []float64 {
	out := make([]float64, 0, len(clicks))
	for _, c := range clicks {
		if c.IntervalSec > 0 {
			out = append(out, c.IntervalSec)
		}
	}
	return out
}

func directionChanges(scrolls []signals.ScrollSample) int {
	changes := 0
	for i := 1; i < len(scrolls); i++ {
		if scrolls[i].Delta*scrolls[i-1].Delta < 0 {
			changes++
		}
	}
	return changes
}

func speedStats(scrolls []signals.ScrollSample) (mean, stddev float64) {
	speeds := make([]float64, len(scrolls))
	for i, s := range scrolls {
		speeds[i] = s.Speed
	}
	return meanStdDev(speeds)
}

func meanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
