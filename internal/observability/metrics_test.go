package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NotNil(t, m.RequestsStarted)
	assert.NotNil(t, m.RequestsFinished)
	assert.NotNil(t, m.RequestDuration)
	assert.NotNil(t, m.ResultsPublished)
	assert.NotNil(t, m.JobsQueued)
	assert.NotNil(t, m.JobDuration)
}

func TestRecordRequestLifecycle(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRequestStarted("item_fetch")
	m.RecordRequestStarted("item_fetch")
	m.RecordRequestFinished("item_fetch", "finished", 20*time.Millisecond)
	m.RecordRequestFinished("item_fetch", "canceled", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsStarted.WithLabelValues("item_fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsFinished.WithLabelValues("item_fetch", "finished")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsFinished.WithLabelValues("item_fetch", "canceled")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestRecordResults(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordResults("item_occurrence_fetch", 3)
	m.RecordResults("item_occurrence_fetch", 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ResultsPublished.WithLabelValues("item_occurrence_fetch")))
}

func TestEngineMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SetJobsQueued(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.JobsQueued))
	m.RecordJob("item_save", time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(m.JobDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequestStarted("item_fetch")
		m.RecordRequestFinished("item_fetch", "finished", time.Second)
		m.RecordResults("item_fetch", 1)
		m.SetJobsQueued(1)
		m.RecordJob("item_fetch", time.Second)
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordRequestStarted("item_remove")

	path := filepath.Join(t.TempDir(), "organizer.prom")
	require.NoError(t, WriteTextfile(reg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `organizer_requests_started_total{kind="item_remove"} 1`))
}
