package signals

import (
	"math"
	"sort"
	"time"

	"github.com/tourwise/persona-engine/pkg/logging"
)

// Aggregator normalizes raw interaction events into a BehaviorSnapshot.
// It is a pure transform with no side effects, and it never fails: malformed
// or empty input produces a default snapshot with DataQuality 0.
type Aggregator struct {
	logger *logging.Logger
}

func NewAggregator(logger *logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Aggregator{logger: logger.Component("signals")}
}

// Aggregate sorts events by timestamp and computes the derived metrics the
// inference engine reads. Missing event kinds leave the corresponding slices
// empty; downstream stages treat that as insufficient evidence.
func (a *Aggregator) Aggregate(events []InteractionEvent, sess SessionContext) BehaviorSnapshot {
	snap := BehaviorSnapshot{
		SessionID:   sess.SessionID,
		CollectedAt: time.Now().UTC(),
	}
	if len(events) == 0 {
		return snap
	}

	// Events may arrive out of order within a small window.
	sorted := make([]InteractionEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	kinds := map[EventKind]struct{}{}
	targets := map[string]int{}
	revisits := 0
	visits := 0

	var lastClickAt time.Time
	var lastScrollAt time.Time
	var lastScrollPos float64
	haveScrollOrigin := false
	var pendingStimulus time.Time

	for _, ev := range sorted {
		kinds[ev.Kind] = struct{}{}

		// A focus event is the stimulus; the next event of any kind closes
		// the response-time window.
		if !pendingStimulus.IsZero() && ev.Timestamp.After(pendingStimulus) {
			snap.ResponseTimes = append(snap.ResponseTimes, ev.Timestamp.Sub(pendingStimulus).Seconds())
			pendingStimulus = time.Time{}
		}

		switch ev.Kind {
		case EventClick:
			sample := ClickSample{
				Target:    ev.Payload.Target,
				MenuDepth: ev.Payload.MenuDepth,
			}
			if !lastClickAt.IsZero() {
				sample.IntervalSec = ev.Timestamp.Sub(lastClickAt).Seconds()
			}
			lastClickAt = ev.Timestamp
			snap.ClickPattern = append(snap.ClickPattern, sample)

			visits++
			if ev.Payload.Target != "" {
				targets[ev.Payload.Target]++
			}
			if ev.Payload.Revisit {
				revisits++
			}
			if ev.Payload.MenuDepth > snap.Exploration.MaxMenuDepth {
				snap.Exploration.MaxMenuDepth = ev.Payload.MenuDepth
			}

		case EventScroll:
			if haveScrollOrigin {
				dt := ev.Timestamp.Sub(lastScrollAt).Seconds()
				if dt > 0 {
					delta := ev.Payload.Position - lastScrollPos
					snap.ScrollPattern = append(snap.ScrollPattern, ScrollSample{
						Speed: math.Abs(delta) / dt,
						Delta: delta,
					})
				}
			}
			lastScrollAt = ev.Timestamp
			lastScrollPos = ev.Payload.Position
			haveScrollOrigin = true

		case EventDwell:
			if ev.Payload.DurationMS > 0 {
				snap.DwellTimes = append(snap.DwellTimes, ev.Payload.DurationMS/1000)
			}

		case EventSelection:
			if ev.Payload.Target != "" {
				snap.SelectionPattern = append(snap.SelectionPattern, ev.Payload.Target)
			}

		case EventFocus:
			pendingStimulus = ev.Timestamp
			snap.Attention.FocusChanges++

		case EventBlur:
			snap.Attention.FocusChanges++

		default:
			a.logger.Debug("ignoring unknown event kind", "kind", string(ev.Kind))
		}
	}

	snap.EventCount = len(sorted)
	snap.KindVariety = len(kinds)
	snap.Exploration.UniqueTargets = len(targets)
	snap.Exploration.TotalVisits = visits
	if visits > 0 {
		snap.Exploration.ExplorationRatio = float64(len(targets)) / float64(visits)
		snap.Exploration.BacktrackRatio = float64(revisits) / float64(visits)
	}

	snap.Attention.MeanDwellSec, snap.Attention.DwellStdDevSec = meanStdDev(snap.DwellTimes)
	snap.Attention.MeanResponseSec, _ = meanStdDev(snap.ResponseTimes)

	// The session may have started before the first captured event; use the
	// declared start as the span origin when it predates the events.
	spanStart := sorted[0].Timestamp
	if !sess.StartedAt.IsZero() && sess.StartedAt.Before(spanStart) {
		spanStart = sess.StartedAt
	}
	snap.Attention.SessionSpanSec = sorted[len(sorted)-1].Timestamp.Sub(spanStart).Seconds()

	snap.DataQuality = dataQuality(snap.EventCount, snap.KindVariety)
	return snap
}

// dataQuality blends event volume and kind variety into [0,1]. Fifty events
// across all six kinds count as fully sufficient.
func dataQuality(count, variety int) float64 {
	if count == 0 {
		return 0
	}
	volume := math.Min(1, float64(count)/50)
	mix := float64(variety) / 6
	return volume*0.5 + mix*0.5
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
