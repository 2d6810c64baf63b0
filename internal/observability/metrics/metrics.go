package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the personalization pipeline.
type PipelineMetrics struct {
	requestsTotal  *prometheus.CounterVec
	stageLatency   *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	qualityScore   prometheus.Histogram
	fallbacksTotal *prometheus.CounterVec
	alertsActive   *prometheus.GaugeVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "persona",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Total personalization requests",
		}, []string{"status"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "persona",
			Subsystem: "pipeline",
			Name:      "stage_latency_seconds",
			Help:      "Latency per pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "persona",
			Subsystem: "pipeline",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache name and result",
		}, []string{"cache", "result"}),
		qualityScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "persona",
			Subsystem: "quality",
			Name:      "overall_score",
			Help:      "Distribution of quality gate overall scores",
			Buckets:   prometheus.LinearBuckets(50, 5, 11),
		}),
		fallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "persona",
			Subsystem: "pipeline",
			Name:      "fallbacks_total",
			Help:      "Fallback activations by stage",
		}, []string{"stage"}),
		alertsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "persona",
			Subsystem: "feedback",
			Name:      "alerts_active",
			Help:      "Active validation alerts by metric",
		}, []string{"metric"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.stageLatency, m.cacheLookups, m.qualityScore, m.fallbacksTotal, m.alertsActive)
	return m
}

func (m *PipelineMetrics) ObserveRequest(status string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(status).Inc()
}

func (m *PipelineMetrics) ObserveStageLatency(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(seconds)
}

func (m *PipelineMetrics) ObserveCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *PipelineMetrics) ObserveQualityScore(score float64) {
	if m == nil {
		return
	}
	m.qualityScore.Observe(score)
}

func (m *PipelineMetrics) ObserveFallback(stage string) {
	if m == nil {
		return
	}
	m.fallbacksTotal.WithLabelValues(stage).Inc()
}

func (m *PipelineMetrics) SetAlertActive(metric string, active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1.0
	}
	m.alertsActive.WithLabelValues(metric).Set(v)
}
