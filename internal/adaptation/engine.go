package adaptation

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tourwise/persona-engine/internal/observability/metrics"
	"github.com/tourwise/persona-engine/internal/personality"
	"github.com/tourwise/persona-engine/pkg/logging"
)

var adaptTracer = otel.Tracer("persona.internal.adaptation")

const (
	// improvementCeiling is the hard cap on estimated improvement, from
	// prior calibration.
	improvementCeiling = 0.31
	// ruleFallbackType marks results produced by the local rewriter.
	ruleFallbackType = "rule_fallback"

	defaultGenerationTimeout = 20 * time.Second
)

// Result is the outcome of one adaptation. AdaptedContent never carries less
// information than OriginalContent.
type Result struct {
	OriginalContent      string   `json:"original_content"`
	AdaptedContent       string   `json:"adapted_content"`
	AdaptationLevel      float64  `json:"adaptation_level"`
	AdaptationTypes      []string `json:"adaptation_types"`
	EstimatedImprovement float64  `json:"estimated_improvement"`
	CacheHit             bool     `json:"cache_hit"`
	UsedFallback         bool     `json:"used_fallback"`
}

// EngineConfig tunes one adaptation engine.
type EngineConfig struct {
	Model             string
	GenerationTimeout time.Duration
	MaxTokens         int32
	CacheSize         int
	CacheTTL          time.Duration
}

// Engine rewrites content per personality profile. Identical (content,
// profile) inputs return byte-identical adapted content via the cache.
type Engine struct {
	generator TextGenerator
	cache     *resultCache
	cfg       EngineConfig
	logger    *logging.Logger
	metrics   *metrics.PipelineMetrics
}

// NewEngine builds an adaptation engine. generator may be nil, in which case
// every request takes the local rule-based path.
func NewEngine(generator TextGenerator, cfg EngineConfig, logger *logging.Logger, m *metrics.PipelineMetrics) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}
	return &Engine{
		generator: generator,
		cache:     newResultCache(cfg.CacheSize, cfg.CacheTTL),
		cfg:       cfg,
		logger:    logger.Component("adaptation"),
		metrics:   m,
	}
}

// Adapt transforms content for the profile. On a cache hit the stored result
// is returned unchanged with CacheHit set. When the external generator is
// unavailable or errors, the local rule rewriter takes over; the content is
// always at least as long as the input.
func (e *Engine) Adapt(ctx context.Context, content string, profile *personality.Profile, opts Options) (Result, error) {
	ctx, span := adaptTracer.Start(ctx, "adaptation.adapt")
	defer span.End()
	span.SetAttributes(
		attribute.String("persona.primary_trait", profile.Primary.Trait.String()),
		attribute.Bool("persona.hybrid", profile.Hybrid),
	)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	key := Fingerprint(content, profile)
	if cached, ok := e.cache.get(key); ok {
		e.metrics.ObserveCacheLookup("adaptation", true)
		cached.CacheHit = true
		return cached, nil
	}
	e.metrics.ObserveCacheLookup("adaptation", false)

	strategy := StrategyFor(profile)
	adapted, usedFallback := e.rewrite(ctx, content, profile, strategy, opts)

	types := make([]string, 0, len(strategy.Types)+1)
	for _, at := range strategy.Types {
		types = append(types, at.Name)
	}
	if usedFallback {
		types = append(types, ruleFallbackType)
		e.metrics.ObserveFallback("adaptation")
	}

	result := Result{
		OriginalContent:      content,
		AdaptedContent:       adapted,
		AdaptationLevel:      editDistanceRatio(content, adapted),
		AdaptationTypes:      types,
		EstimatedImprovement: estimatedImprovement(profile.Confidence, strategy.Types),
		UsedFallback:         usedFallback,
	}
	e.cache.put(key, result)
	return result, nil
}

// rewrite delegates to the external collaborator and falls back to local
// rules on any failure, timeout, or shrunken output.
func (e *Engine) rewrite(ctx context.Context, content string, profile *personality.Profile, strategy Strategy, opts Options) (adapted string, usedFallback bool) {
	if e.generator == nil || content == "" {
		return applyRules(content, profile.Primary.Trait), true
	}

	system, prompt := BuildPrompt(content, profile, strategy, opts)
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.GenerationTimeout)
	defer cancel()

	resp, err := e.generator.Generate(callCtx, TextRequest{
		Model:       e.cfg.Model,
		System:      system,
		Prompt:      prompt,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		e.logger.Warn("text generator unavailable, using rule fallback", "error", err)
		return applyRules(content, profile.Primary.Trait), true
	}
	// The system must never return less content than it received.
	if len(resp.Text) < len(content)/2 {
		e.logger.Warn("generator output too short, using rule fallback",
			"original_len", len(content),
			"generated_len", len(resp.Text),
		)
		return applyRules(content, profile.Primary.Trait), true
	}
	return resp.Text, false
}

// estimatedImprovement applies the calibrated ceiling: confidence·0.15 plus
// the per-type impacts scaled by confidence, capped at 0.31.
func estimatedImprovement(confidence float64, types []AdaptationType) float64 {
	sum := confidence * 0.15
	for _, at := range types {
		sum += at.Impact * confidence
	}
	return math.Min(improvementCeiling, math.Max(0, sum))
}

// editDistanceRatio is the Levenshtein distance normalized by the longer
// input, in [0,1].
func editDistanceRatio(a, b string) float64 {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein(ra, rb)) / float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
