package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"bookbff/internal/metrics"
)

// MetricsHarness is a Recorder wired to an in-memory reader.
type MetricsHarness struct {
	Recorder *metrics.Recorder
	Reader   *sdkmetric.ManualReader
}

// NewMetricsHarness returns a Recorder whose measurements can be inspected.
func NewMetricsHarness(t *testing.T) *MetricsHarness {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	rec, err := metrics.NewRecorder(provider.Meter("test"))
	require.NoError(t, err)
	return &MetricsHarness{Recorder: rec, Reader: reader}
}

func (h *MetricsHarness) collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.Reader.Collect(context.Background(), &rm))
	return rm
}

// Counter returns the value of a monotonic or up-down counter for op.
// A counter that was never touched reads as zero.
func (h *MetricsHarness) Counter(t *testing.T, name, op string) int64 {
	t.Helper()
	for _, sm := range h.collect(t).ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if hasOperation(dp.Attributes, op) {
					return dp.Value
				}
			}
		}
	}
	return 0
}

// SampleCount returns how many duration samples were recorded for op.
func (h *MetricsHarness) SampleCount(t *testing.T, op string) uint64 {
	t.Helper()
	for _, sm := range h.collect(t).ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != metrics.ExecutionDuration {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				if hasOperation(dp.Attributes, op) {
					return dp.Count
				}
			}
		}
	}
	return 0
}

func hasOperation(set attribute.Set, op string) bool {
	v, ok := set.Value(attribute.Key(metrics.OperationKey))
	return ok && v.AsString() == op
}
