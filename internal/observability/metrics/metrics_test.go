package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewPipelineMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.ObserveRequest("ok")
	m.ObserveStageLatency("traits", 0.01)
	m.ObserveCacheLookup("adaptation", true)
	m.ObserveCacheLookup("response", false)
	m.ObserveQualityScore(91.5)
	m.ObserveFallback("adaptation")
	m.SetAlertActive("overall_accuracy", true)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	if len(families) != 6 {
		t.Errorf("expected 6 metric families, got %d", len(families))
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *PipelineMetrics
	m.ObserveRequest("ok")
	m.ObserveStageLatency("traits", 0.01)
	m.ObserveCacheLookup("adaptation", false)
	m.ObserveQualityScore(80)
	m.ObserveFallback("personality")
	m.SetAlertActive("satisfaction", false)
}
