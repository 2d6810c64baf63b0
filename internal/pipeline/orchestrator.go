package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tourwise/persona-engine/internal/adaptation"
	"github.com/tourwise/persona-engine/internal/feedback"
	"github.com/tourwise/persona-engine/internal/observability/metrics"
	"github.com/tourwise/persona-engine/internal/personality"
	"github.com/tourwise/persona-engine/internal/quality"
	"github.com/tourwise/persona-engine/internal/signals"
	"github.com/tourwise/persona-engine/internal/traits"
	"github.com/tourwise/persona-engine/pkg/logging"
)

// Request is one end-to-end personalization request.
type Request struct {
	SessionID         string                     `json:"session_id"`
	Events            []signals.InteractionEvent `json:"events"`
	OriginalContent   string                     `json:"original_content"`
	ContentType       string                     `json:"content_type,omitempty"`
	CulturalContext   string                     `json:"cultural_context,omitempty"`
	TargetDurationSec int                        `json:"target_duration_sec,omitempty"`

	// SessionStartedAt, when supplied by the client, anchors the session
	// span even if the first captured event came later.
	SessionStartedAt time.Time `json:"session_started_at,omitempty"`

	// History is an optional previously aggregated snapshot for this
	// visitor. It substitutes for the live events when the current batch is
	// too sparse to infer from; its CollectedAt drives time decay.
	History *signals.BehaviorSnapshot `json:"user_behavior_data,omitempty"`
}

// PersonalitySummary is the externally visible slice of the resolved profile.
type PersonalitySummary struct {
	PrimaryTrait    string             `json:"primary_trait"`
	SecondaryTrait  string             `json:"secondary_trait,omitempty"`
	Hybrid          bool               `json:"hybrid"`
	Confidence      float64            `json:"confidence"`
	TraitScores     map[string]float64 `json:"trait_scores"`
	FallbackApplied bool               `json:"fallback_applied"`
}

// QualitySummary compresses the validation report for the response body.
type QualitySummary struct {
	OverallScore   float64            `json:"overall_score"`
	StepScores     map[string]float64 `json:"step_scores"`
	Passed         bool               `json:"passed"`
	CriticalIssues []string           `json:"critical_issues,omitempty"`
}

// AdaptationSummary reports how the content was transformed.
type AdaptationSummary struct {
	AdaptationLevel      float64  `json:"adaptation_level"`
	AdaptationTypes      []string `json:"adaptation_types,omitempty"`
	EstimatedImprovement float64  `json:"estimated_improvement"`
	CacheHit             bool     `json:"cache_hit"`
	FallbackUsed         bool     `json:"fallback_used"`
}

// CombinedResponse is the full pipeline output. Error is set only when a
// stage failed and the original content was returned unmodified.
type CombinedResponse struct {
	SessionID        string                   `json:"session_id"`
	AdaptedContent   string                   `json:"adapted_content"`
	Personality      PersonalitySummary       `json:"personality"`
	Quality          QualitySummary           `json:"quality"`
	Adaptation       AdaptationSummary        `json:"adaptation"`
	Recommendations  []quality.Recommendation `json:"recommendations,omitempty"`
	ProcessingTimeMS int64                    `json:"processing_time_ms"`
	Cached           bool                     `json:"cached"`
	Error            string                   `json:"error,omitempty"`
}

// Config tunes the orchestrator.
type Config struct {
	MinProfileConfidence float64
}

// Orchestrator runs the five stages in order and degrades gracefully: any
// stage failure yields the original content untouched rather than an error
// response.
type Orchestrator struct {
	aggregator *signals.Aggregator
	inference  *traits.Engine
	resolver   *personality.Resolver
	adapter    *adaptation.Engine
	validator  *quality.Pipeline
	tracker    *feedback.Tracker
	store      ResponseStore
	cfg        Config

	logger  *logging.Logger
	metrics *metrics.PipelineMetrics
	tracer  trace.Tracer
	now     func() time.Time
}

// New wires the orchestrator. store, tracker, and metrics may be nil;
// each disables its concern.
func New(
	aggregator *signals.Aggregator,
	inference *traits.Engine,
	resolver *personality.Resolver,
	adapter *adaptation.Engine,
	validator *quality.Pipeline,
	tracker *feedback.Tracker,
	store ResponseStore,
	cfg Config,
	logger *logging.Logger,
	m *metrics.PipelineMetrics,
) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MinProfileConfidence <= 0 {
		cfg.MinProfileConfidence = personality.MinimumConfidence
	}
	return &Orchestrator{
		aggregator: aggregator,
		inference:  inference,
		resolver:   resolver,
		adapter:    adapter,
		validator:  validator,
		tracker:    tracker,
		store:      store,
		cfg:        cfg,
		logger:     logger.Component("orchestrator"),
		metrics:    m,
		tracer:     otel.Tracer("persona.internal.pipeline"),
		now:        time.Now,
	}
}

// Run executes the full pipeline for one request. It never panics: any stage
// panic is recovered and the original content is returned with Error set.
func (o *Orchestrator) Run(ctx context.Context, req Request) (resp *CombinedResponse) {
	started := o.now()
	ctx, span := o.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("session.id", req.SessionID),
			attribute.Int("events.count", len(req.Events)),
		))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline stage panicked", "panic", fmt.Sprint(r), "session_id", req.SessionID)
			o.metrics.ObserveRequest("panic")
			resp = o.degraded(req, started, fmt.Sprintf("internal pipeline failure: %v", r))
		}
		resp.ProcessingTimeMS = o.now().Sub(started).Milliseconds()
		span.SetAttributes(attribute.Int64("pipeline.duration_ms", resp.ProcessingTimeMS))
	}()

	if req.OriginalContent == "" {
		o.metrics.ObserveRequest("rejected")
		return o.degraded(req, started, "original content is required")
	}

	snap := o.aggregate(ctx, req)
	key := requestFingerprint(req.OriginalContent, &snap)

	if cached := o.lookupCached(ctx, key); cached != nil {
		o.metrics.ObserveRequest("ok")
		cached.Cached = true
		cached.SessionID = req.SessionID
		return cached
	}

	profile, scores, fallbackApplied := o.resolve(ctx, &snap)
	result, adaptErr := o.adapt(ctx, req, profile)

	adapted := req.OriginalContent
	if adaptErr == nil {
		adapted = result.AdaptedContent
	}

	report := o.validate(ctx, adapted, req, result.AdaptationLevel)

	resp = &CombinedResponse{
		SessionID:      req.SessionID,
		AdaptedContent: adapted,
		Personality:    summarizeProfile(profile, fallbackApplied, scores),
		Quality: QualitySummary{
			OverallScore:   report.OverallScore,
			StepScores:     stepScores(report),
			Passed:         report.Passed,
			CriticalIssues: report.CriticalIssues,
		},
		Adaptation: AdaptationSummary{
			AdaptationLevel:      result.AdaptationLevel,
			AdaptationTypes:      result.AdaptationTypes,
			EstimatedImprovement: result.EstimatedImprovement,
			CacheHit:             result.CacheHit,
			FallbackUsed:         result.UsedFallback || adaptErr != nil,
		},
		Recommendations: report.Recommendations,
	}
	if adaptErr != nil {
		resp.Error = adaptErr.Error()
	}

	o.recordOutcome(req, profile, report, resp)
	o.storeCached(ctx, key, resp)
	o.metrics.ObserveRequest("ok")
	return resp
}

// historyFloor is the live event count below which a supplied historical
// snapshot substitutes for the current batch.
const historyFloor = 5

func (o *Orchestrator) aggregate(ctx context.Context, req Request) signals.BehaviorSnapshot {
	done := o.stage(ctx, "signal_aggregation")
	defer done()
	snap := o.aggregator.Aggregate(req.Events, signals.SessionContext{
		SessionID: req.SessionID,
		StartedAt: req.SessionStartedAt,
	})
	if snap.EventCount < historyFloor && req.History != nil && req.History.EventCount > snap.EventCount {
		o.logger.Debug("sparse live events, using historical snapshot",
			"live_events", snap.EventCount,
			"history_events", req.History.EventCount,
		)
		return *req.History
	}
	return snap
}

func (o *Orchestrator) resolve(ctx context.Context, snap *signals.BehaviorSnapshot) (*personality.Profile, [5]traits.TraitScore, bool) {
	done := o.stage(ctx, "trait_inference")
	scores := o.inference.InferTraits(snap)
	done()

	done = o.stage(ctx, "personality_resolution")
	defer done()
	profile := o.resolver.Resolve(scores, personality.MetricsFor(snap))
	if profile.Confidence < o.cfg.MinProfileConfidence {
		o.logger.Info("profile confidence below floor, applying fallback",
			"confidence", profile.Confidence,
			"floor", o.cfg.MinProfileConfidence,
		)
		o.metrics.ObserveFallback("personality_resolution")
		return personality.Fallback(), scores, true
	}
	return profile, scores, false
}

func (o *Orchestrator) adapt(ctx context.Context, req Request, profile *personality.Profile) (adaptation.Result, error) {
	done := o.stage(ctx, "content_adaptation")
	defer done()
	result, err := o.adapter.Adapt(ctx, req.OriginalContent, profile, adaptation.Options{
		ContentType:       req.ContentType,
		CulturalContext:   req.CulturalContext,
		TargetDurationSec: req.TargetDurationSec,
	})
	if err != nil {
		o.logger.Error("adaptation failed, serving original content", "error", err)
		o.metrics.ObserveFallback("content_adaptation")
	}
	return result, err
}

func (o *Orchestrator) validate(ctx context.Context, adapted string, req Request, level float64) quality.Report {
	done := o.stage(ctx, "quality_validation")
	defer done()
	report := o.validator.Validate(adapted, quality.Context{
		OriginalContent:   req.OriginalContent,
		CulturalContext:   req.CulturalContext,
		ContentType:       req.ContentType,
		TargetDurationSec: req.TargetDurationSec,
		AdaptationLevel:   level,
	})
	o.metrics.ObserveQualityScore(report.OverallScore)
	return report
}

func (o *Orchestrator) recordOutcome(req Request, profile *personality.Profile, report quality.Report, resp *CombinedResponse) {
	if o.tracker == nil {
		return
	}
	o.tracker.RecordOutcome(feedback.SystemOutcome{
		SessionID:     req.SessionID,
		Trait:         profile.Primary.Trait,
		Confidence:    profile.Confidence,
		QualityScore:  report.OverallScore,
		Effectiveness: resp.Adaptation.EstimatedImprovement,
	})
}

func (o *Orchestrator) lookupCached(ctx context.Context, key string) *CombinedResponse {
	if o.store == nil {
		return nil
	}
	cached, err := o.store.Get(ctx, key)
	if err != nil {
		o.logger.Warn("response cache lookup failed", "error", err)
		return nil
	}
	o.metrics.ObserveCacheLookup("response", cached != nil)
	return cached
}

func (o *Orchestrator) storeCached(ctx context.Context, key string, resp *CombinedResponse) {
	if o.store == nil {
		return
	}
	if err := o.store.Put(ctx, key, resp); err != nil {
		o.logger.Warn("response cache store failed", "error", err)
	}
}

// stage starts a span and returns a closure that ends it and observes the
// stage latency.
func (o *Orchestrator) stage(ctx context.Context, name string) func() {
	_, span := o.tracer.Start(ctx, "pipeline."+name)
	started := o.now()
	return func() {
		o.metrics.ObserveStageLatency(name, o.now().Sub(started).Seconds())
		span.End()
	}
}

func (o *Orchestrator) degraded(req Request, started time.Time, reason string) *CombinedResponse {
	return &CombinedResponse{
		SessionID:      req.SessionID,
		AdaptedContent: req.OriginalContent,
		Personality: PersonalitySummary{
			PrimaryTrait:    traits.Agreeableness.String(),
			Confidence:      0,
			TraitScores:     map[string]float64{},
			FallbackApplied: true,
		},
		Error: reason,
	}
}

func summarizeProfile(profile *personality.Profile, fallbackApplied bool, scores [5]traits.TraitScore) PersonalitySummary {
	summary := PersonalitySummary{
		PrimaryTrait:    profile.Primary.Trait.String(),
		Hybrid:          profile.Hybrid,
		Confidence:      profile.Confidence,
		TraitScores:     make(map[string]float64, len(scores)),
		FallbackApplied: fallbackApplied,
	}
	if profile.Secondary != nil {
		summary.SecondaryTrait = profile.Secondary.Trait.String()
	}
	for _, s := range scores {
		summary.TraitScores[s.Trait.String()] = s.Score
	}
	return summary
}

func stepScores(report quality.Report) map[string]float64 {
	out := make(map[string]float64, len(report.Steps))
	for _, s := range report.Steps {
		out[s.Name] = s.Score
	}
	return out
}

// requestFingerprint keys the response cache on the content plus a digest of
// the behavior that drives the profile. Different behavior must never share
// a cached response.
func requestFingerprint(content string, snap *signals.BehaviorSnapshot) string {
	h := sha256.New()
	h.Write([]byte(content))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d|%d|%.3f|%.3f|%.3f|%.3f|%.3f",
		snap.EventCount,
		snap.KindVariety,
		snap.DataQuality,
		snap.Exploration.ExplorationRatio,
		snap.Exploration.BacktrackRatio,
		snap.Attention.MeanDwellSec,
		snap.Attention.MeanResponseSec,
	)
	return hex.EncodeToString(h.Sum(nil))
}
