package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestOrderMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOrderMetrics(reg)
	metrics.OrderPlaced(120 * time.Millisecond)
	metrics.OrderPlaced(80 * time.Millisecond)
	metrics.PlaceFailed("ITEM_UNAVAILABLE")
	metrics.OrderCancelled()
	metrics.StatusTransition("confirmed")
	metrics.StatusTransition("confirmed")
	metrics.StockRestoreFailed(3)
	metrics.CartMutation("add")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name, label, value string
		want               float64
	}{
		{"orders_placed_total", "", "", 2},
		{"orders_cancelled_total", "", "", 1},
		{"order_status_transitions_total", "to", "confirmed", 2},
		{"order_place_failures_total", "reason", "ITEM_UNAVAILABLE", 1},
		{"stock_restore_failures_total", "", "", 3},
		{"cart_mutations_total", "op", "add", 1},
	}
	for _, tc := range checks {
		got, err := fetchCounterValue(mfs, tc.name, tc.label, tc.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	mf := findMetricFamily(mfs, "order_place_duration_seconds")
	if mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleCount() != 2 {
		t.Fatalf("expected two duration samples")
	}
}

func TestOrderMetricsNilSafe(t *testing.T) {
	var metrics *OrderMetrics
	metrics.OrderPlaced(time.Second)
	metrics.PlaceFailed("x")
	metrics.OrderCancelled()
	metrics.StatusTransition("")
	metrics.StockRestoreFailed(1)
	metrics.CartMutation("add")

	NewOrderMetrics(nil).CartMutation("add")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if label == "" || matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
