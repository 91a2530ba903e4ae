package repometrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/repokit/observability/repometrics"
	"github.com/rise-and-shine/repokit/repofactory"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func histogramCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total uint64
		for _, m := range mf.GetMetric() {
			total += m.GetHistogram().GetSampleCount()
		}
		return total
	}
	return 0
}

func TestListenerRecordsInvocations(t *testing.T) {
	reg := prometheus.NewRegistry()
	l, err := repometrics.NewListener(reg)
	require.NoError(t, err)

	l.AfterInvocation(repofactory.Invocation{
		Repository: "orders", Method: "FindByID",
		State: repofactory.StateSuccess, Duration: 5 * time.Millisecond,
	})
	l.AfterInvocation(repofactory.Invocation{
		Repository: "orders", Method: "FindByID",
		State: repofactory.StateSuccess, Duration: 7 * time.Millisecond,
	})
	l.AfterInvocation(repofactory.Invocation{
		Repository: "orders", Method: "Save",
		State: repofactory.StateError, Duration: time.Millisecond,
	})

	assert.InDelta(t, 2, counterValue(t, reg, "repository_invocations_total", map[string]string{
		"repository": "orders", "method": "FindByID", "state": "success",
	}), 0.001)
	assert.InDelta(t, 1, counterValue(t, reg, "repository_invocations_total", map[string]string{
		"repository": "orders", "method": "Save", "state": "error",
	}), 0.001)
	assert.EqualValues(t, 3, histogramCount(t, reg, "repository_invocation_duration_seconds"))
}

func TestListenerSharesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := repometrics.NewListener(reg)
	require.NoError(t, err)
	second, err := repometrics.NewListener(reg)
	require.NoError(t, err, "re-registration must reuse existing collectors")

	first.AfterInvocation(repofactory.Invocation{
		Repository: "orders", Method: "Count", State: repofactory.StateSuccess,
	})
	second.AfterInvocation(repofactory.Invocation{
		Repository: "orders", Method: "Count", State: repofactory.StateSuccess,
	})

	assert.InDelta(t, 2, counterValue(t, reg, "repository_invocations_total", map[string]string{
		"repository": "orders", "method": "Count", "state": "success",
	}), 0.001)
}
