// Package telemetry owns the OpenTelemetry meter provider and exposes its
// current readings over HTTP.
package telemetry

import (
	"context"
	"net/http"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"

	"bookbff/internal/httpx"
	"bookbff/internal/metrics"
)

type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	reader        *sdkmetric.ManualReader
}

func New(serviceName string) *Provider {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	return &Provider{meterProvider: mp, reader: reader}
}

func (p *Provider) Meter(name string) metric.Meter {
	return p.meterProvider.Meter(name)
}

// Point is one data point of the snapshot.
type Point struct {
	Name      string  `json:"name"`
	Operation string  `json:"operation,omitempty"`
	Kind      string  `json:"kind"`
	Value     int64   `json:"value,omitempty"`
	Count     uint64  `json:"count,omitempty"`
	Sum       float64 `json:"sum,omitempty"`
}

// Snapshot collects every instrument. Points are sorted by name, then operation.
func (p *Provider) Snapshot(ctx context.Context) ([]Point, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}

	points := []Point{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					points = append(points, Point{Name: m.Name, Operation: operation(dp.Attributes), Kind: "sum", Value: dp.Value})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					points = append(points, Point{Name: m.Name, Operation: operation(dp.Attributes), Kind: "histogram", Count: dp.Count, Sum: dp.Sum})
				}
			}
		}
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Name != points[j].Name {
			return points[i].Name < points[j].Name
		}
		return points[i].Operation < points[j].Operation
	})
	return points, nil
}

// Handler serves the snapshot as JSON.
func (p *Provider) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		points, err := p.Snapshot(r.Context())
		if err != nil {
			httpx.JSONError(w, r, http.StatusInternalServerError, "METRICS_UNAVAILABLE", "Metrics are unavailable", nil)
			return
		}
		httpx.JSONOK(w, points)
	}
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.meterProvider.Shutdown(ctx)
}

func operation(set attribute.Set) string {
	v, ok := set.Value(attribute.Key(metrics.OperationKey))
	if !ok {
		return ""
	}
	return v.AsString()
}
