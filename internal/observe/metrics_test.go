package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// findMetric locates a metric by name in collected resource metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func TestNewMetrics_AllInstrumentsCreated(t *testing.T) {
	m, _ := newTestMetrics(t)

	if m.TranscodeDuration == nil || m.STTDuration == nil || m.LLMDuration == nil || m.FrameEvalDuration == nil {
		t.Error("a latency histogram is nil")
	}
	if m.AnalysisRequests == nil || m.FrameStatuses == nil || m.ProviderErrors == nil {
		t.Error("a counter is nil")
	}
	if m.ActiveStreams == nil {
		t.Error("ActiveStreams is nil")
	}
	if m.HTTPRequestDuration == nil {
		t.Error("HTTPRequestDuration is nil")
	}
}

func TestRecordAnalysis(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAnalysis(ctx, "ok")
	m.RecordAnalysis(ctx, "ok")
	m.RecordAnalysis(ctx, "server_error")

	rm := collect(t, reader)
	met := findMetric(rm, "interviewace.analysis.requests")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric data type: %T", met.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(sum.DataPoints) != 2 {
		t.Errorf("status series = %d, want 2", len(sum.DataPoints))
	}
}

func TestRecordFrameStatus(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFrameStatus(ctx, "Good")
	m.RecordFrameStatus(ctx, "Adjust Position")

	rm := collect(t, reader)
	met := findMetric(rm, "interviewace.frame.statuses")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric data type: %T", met.Data)
	}
	if len(sum.DataPoints) != 2 {
		t.Errorf("status series = %d, want 2", len(sum.DataPoints))
	}
}

func TestActiveStreamsGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveStreams.Add(ctx, 1)
	m.ActiveStreams.Add(ctx, 1)
	m.ActiveStreams.Add(ctx, -1)

	rm := collect(t, reader)
	met := findMetric(rm, "interviewace.active_streams")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric data type: %T", met.Data)
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("gauge value = %+v, want 1", sum.DataPoints)
	}
}

func TestDefaultMetricsReturnsSameInstance(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different instances")
	}
}
