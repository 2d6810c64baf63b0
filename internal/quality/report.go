package quality

// Status grades one validation finding.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
)

// Detail is one finding inside a validation step. Non-pass findings carry a
// suggested fix.
type Detail struct {
	Check        string `json:"check"`
	Status       Status `json:"status"`
	Message      string `json:"message"`
	SuggestedFix string `json:"suggested_fix,omitempty"`
}

// StepResult is one weighted check's outcome, scored 0-100.
type StepResult struct {
	Name    string   `json:"name"`
	Score   float64  `json:"score"`
	Weight  float64  `json:"weight"`
	Details []Detail `json:"details"`
}

// Recommendation suggests a fix, ordered by estimated score impact.
type Recommendation struct {
	Step       string  `json:"step"`
	Impact     float64 `json:"impact"`
	Suggestion string  `json:"suggestion"`
}

// Report is the full quality gate outcome for one piece of adapted content.
// It is derived solely from the input: same content, same report.
type Report struct {
	OverallScore    float64          `json:"overall_score"`
	TargetScore     float64          `json:"target_score"`
	Steps           []StepResult     `json:"steps"`
	Passed          bool             `json:"passed"`
	CriticalIssues  []string         `json:"critical_issues,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// Context carries the request-side inputs some checks compare against.
type Context struct {
	OriginalContent   string
	CulturalContext   string
	ContentType       string
	TargetDurationSec int
	AdaptationLevel   float64
}

// Checker scores one quality dimension. Implementations must be pure:
// no randomness, no shared state.
type Checker interface {
	Name() string
	Check(content string, ctx Context) (score float64, details []Detail)
}
