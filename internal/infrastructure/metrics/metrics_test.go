package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistererRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegisterer(registry)

	if m.LedgerRecords == nil || m.HTTPRequests == nil || m.ReportCacheLookups == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.LedgerRecords.WithLabelValues("income").Inc()
	m.PayrollSettlements.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.LedgerRecords.WithLabelValues("income")); got != 1 {
		t.Fatalf("expected 1 income record, got %v", got)
	}
}

func TestNewWithRegistererIsolatesRegistries(t *testing.T) {
	// Two registries must not collide on metric names.
	NewWithRegisterer(prometheus.NewRegistry())
	NewWithRegisterer(prometheus.NewRegistry())
}
