package observability

import (
	"context"
	"testing"
	"time"

	"absbot/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualProvider(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.install(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	return mp, reader
}

func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "metric %s is not an int64 sum", name)
				return sum
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return metricdata.Sum[int64]{}
}

func valueFor(sum metricdata.Sum[int64], key, value string) int64 {
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value
		}
	}
	return 0
}

func TestMetricsProvider_Disabled(t *testing.T) {
	mp := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, mp.Initialize(context.Background()))

	assert.False(t, mp.isEnabled())

	// No instruments exist; these must not panic
	mp.RecordCommandOutcome("accepted")
	mp.RecordDepartureOutcome("announced")
	mp.RecordNATSMessagePublished("member_left")
	mp.RecordRegistryCall("get", "ok", time.Millisecond)
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_InitializeEnabled(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelEndpoint = ""

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	assert.True(t, mp.isEnabled())
	assert.NotPanics(t, func() { mp.RecordCommandOutcome("accepted") })
}

func TestMetricsProvider_NilIsNoop(t *testing.T) {
	var mp *MetricsProvider
	assert.NotPanics(t, func() { mp.RecordCommandOutcome("accepted") })
}

func TestMetricsProvider_Counters(t *testing.T) {
	mp, reader := newManualProvider(t)

	mp.RecordCommandOutcome("accepted")
	mp.RecordCommandOutcome("accepted")
	mp.RecordCommandOutcome("invalid_argument")
	mp.RecordDepartureOutcome("lookup_miss")
	mp.RecordRegistryCall("set", "ok", 2*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	commands := findSum(t, rm, CommandsTotal)
	assert.Equal(t, int64(2), valueFor(commands, LabelOutcome, "accepted"))
	assert.Equal(t, int64(1), valueFor(commands, LabelOutcome, "invalid_argument"))

	departures := findSum(t, rm, DeparturesTotal)
	assert.Equal(t, int64(1), valueFor(departures, LabelOutcome, "lookup_miss"))

	calls := findSum(t, rm, RegistryCallsTotal)
	assert.Equal(t, int64(1), valueFor(calls, LabelMethod, "set"))
}
