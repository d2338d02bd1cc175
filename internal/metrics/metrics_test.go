package metrics

import (
	"testing"

	"voro-editor/internal/history"
	"voro-editor/internal/kernel"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Committed(history.Transaction{})
	m.Committed(history.Transaction{})
	m.Undone(history.Transaction{})
	m.ViewRebuilt(kernel.Triangles)
	m.ViewRebuilt(kernel.Triangles)
	m.ViewRebuilt(kernel.SiteSizes)
	m.SetCells(12)
	m.ImportFailed()
	m.Time("add")()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transactions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Undos))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Redos))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ViewRebuilds.WithLabelValues("triangles")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.Cells))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.EditDuration))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Positive(t, n)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Committed(history.Transaction{})
	m.ViewRebuilt(kernel.Preview)
	m.SetCells(1)
	m.SanityFailed()
	m.Time("x")()
}
