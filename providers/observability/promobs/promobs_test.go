package promobs

import (
	"context"
	"strings"
	"testing"

	"github.com/leofalp/batchcalc/providers/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CounterWithLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := New(registry)
	ctx := context.Background()

	resolved := metrics.Counter(observability.MetricItemsResolved)
	resolved.Add(ctx, 2, observability.String(observability.AttrItemOutcome, "ok"))
	resolved.Add(ctx, 1, observability.String(observability.AttrItemOutcome, "division_by_zero"),
		observability.String(observability.AttrRequestID, "ignored"))

	vec := resolved.(*counter).vec
	assert.Equal(t, 2.0, testutil.ToFloat64(vec.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues("division_by_zero")))
	assert.Equal(t, 2, testutil.CollectAndCount(vec))
}

func TestMetrics_SameInstrumentPerName(t *testing.T) {
	metrics := New(prometheus.NewRegistry())

	assert.Same(t, metrics.Counter("a_total"), metrics.Counter("a_total"))
	assert.Same(t, metrics.Histogram("b_seconds"), metrics.Histogram("b_seconds"))
}

func TestMetrics_UnlabeledCounterIgnoresAttributes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := New(registry)

	polls := metrics.Counter(observability.MetricPollRequests)
	polls.Add(context.Background(), 1, observability.String(observability.AttrBatchID, "b1"))
	polls.Add(context.Background(), 1)
	polls.Add(context.Background(), -5)

	expected := `
# HELP batchcalc_poll_requests_total Number of batch status requests issued while polling.
# TYPE batchcalc_poll_requests_total counter
batchcalc_poll_requests_total 2
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), observability.MetricPollRequests))
}

func TestMetrics_Histogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := New(registry, WithBuckets("wait_seconds", 1, 10), WithHelp("wait_seconds", "Wait time."))

	wait := metrics.Histogram("wait_seconds")
	wait.Record(context.Background(), 0.5)
	wait.Record(context.Background(), 3)

	expected := `
# HELP wait_seconds Wait time.
# TYPE wait_seconds histogram
wait_seconds_bucket{le="1"} 1
wait_seconds_bucket{le="10"} 2
wait_seconds_bucket{le="+Inf"} 2
wait_seconds_sum 3.5
wait_seconds_count 2
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "wait_seconds"))
}

func TestMetrics_SharedRegistryReusesCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := New(registry)
	second := New(registry)

	first.Counter(observability.MetricBatchesSubmitted).Add(context.Background(), 1)
	second.Counter(observability.MetricBatchesSubmitted).Add(context.Background(), 1)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, 2.0, families[0].GetMetric()[0].GetCounter().GetValue())
}

func TestMetrics_CustomLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := New(registry, WithLabels("tool_calls_total", observability.AttrToolName))

	metrics.Counter("tool_calls_total").Add(context.Background(), 1, observability.String(observability.AttrToolName, "calculator"))

	expected := `
# HELP tool_calls_total tool_calls_total metric.
# TYPE tool_calls_total counter
tool_calls_total{tool_name="calculator"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "tool_calls_total"))
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"item.outcome":        "item_outcome",
		"batchcalc_total":     "batchcalc_total",
		"9lives":              "_9lives",
		"http.request.body":   "http_request_body",
		"with-dash and space": "with_dash_and_space",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, SanitizeName(input), input)
	}
}
