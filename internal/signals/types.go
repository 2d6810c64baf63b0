package signals

import "time"

// EventKind identifies which interaction produced an event.
type EventKind string

const (
	EventClick     EventKind = "click"
	EventScroll    EventKind = "scroll"
	EventDwell     EventKind = "dwell"
	EventSelection EventKind = "selection"
	EventFocus     EventKind = "focus"
	EventBlur      EventKind = "blur"
)

// EventPayload carries the kind-specific measurements of an event. Fields not
// relevant to the kind are left zero.
type EventPayload struct {
	Target     string  `json:"target,omitempty"`
	Section    string  `json:"section,omitempty"`
	Position   float64 `json:"position,omitempty"`
	DurationMS float64 `json:"duration_ms,omitempty"`
	MenuDepth  int     `json:"menu_depth,omitempty"`
	Revisit    bool    `json:"revisit,omitempty"`
}

// InteractionEvent is one raw signal emitted by the UI collaborator.
// Events are immutable and are not persisted by the core.
type InteractionEvent struct {
	Kind      EventKind    `json:"kind"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   EventPayload `json:"payload"`
}

// SessionContext scopes a batch of events to one visitor session.
type SessionContext struct {
	SessionID string
	StartedAt time.Time
}

// ClickSample is one normalized click with its spacing from the previous click.
type ClickSample struct {
	Target      string
	MenuDepth   int
	IntervalSec float64
}

// ScrollSample is one normalized scroll step. Speed is abs(delta)/elapsed in
// positions per second; Delta keeps the sign so direction changes stay visible.
type ScrollSample struct {
	Speed float64
	Delta float64
}

// ExplorationStats summarizes how widely the visitor moved through content.
type ExplorationStats struct {
	UniqueTargets    int
	TotalVisits      int
	ExplorationRatio float64
	BacktrackRatio   float64
	MaxMenuDepth     int
}

// AttentionStats summarizes how deeply the visitor engaged with content.
type AttentionStats struct {
	MeanDwellSec    float64
	DwellStdDevSec  float64
	FocusChanges    int
	MeanResponseSec float64
	SessionSpanSec  float64
}

// BehaviorSnapshot is the aggregated, session-scoped summary the rest of the
// pipeline reads. It is read-only downstream: consumers must treat empty
// slices as insufficient evidence, never as an error.
type BehaviorSnapshot struct {
	SessionID        string
	CollectedAt      time.Time
	ClickPattern     []ClickSample
	DwellTimes       []float64
	ScrollPattern    []ScrollSample
	SelectionPattern []string
	ResponseTimes    []float64
	Exploration      ExplorationStats
	Attention        AttentionStats
	EventCount       int
	KindVariety      int
	DataQuality      float64
}
