package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestAssistantMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewAssistantMetrics(reg)

	metrics.ObserveResolution(IntentOutcomeResolved, 120*time.Millisecond)
	metrics.ObserveResolution(IntentOutcomeRateLimited, 40*time.Millisecond)
	metrics.IncDispatched("query_jobs")
	metrics.IncDispatched("query_jobs")
	metrics.IncDispatchError("update_job")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "assistant_intent_resolutions", "outcome", IntentOutcomeResolved); err != nil {
		t.Fatalf("fetch resolved: %v", err)
	} else if got != 1 {
		t.Fatalf("expected resolved=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "assistant_intent_resolutions", "outcome", IntentOutcomeRateLimited); err != nil {
		t.Fatalf("fetch rate limited: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rate_limited=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "assistant_dispatched_intents", "intent", "query_jobs"); err != nil {
		t.Fatalf("fetch dispatched: %v", err)
	} else if got != 2 {
		t.Fatalf("expected dispatched=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "assistant_dispatch_errors", "intent", "update_job"); err != nil {
		t.Fatalf("fetch dispatch errors: %v", err)
	} else if got != 1 {
		t.Fatalf("expected errors=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "assistant_intent_duration_seconds", "outcome", IntentOutcomeResolved); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestAssistantMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewAssistantMetrics(nil)
	metrics.ObserveResolution(IntentOutcomeFailed, time.Second)
	metrics.IncDispatched("other_chat")
	metrics.IncDispatchError("")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if hasLabel(metric, label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%q not found", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if hasLabel(metric, label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%q not found", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func hasLabel(metric *dto.Metric, label, value string) bool {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == label && pair.GetValue() == value {
			return true
		}
	}
	return false
}
