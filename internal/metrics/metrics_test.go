package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	first := New(prometheus.NewRegistry())
	second := New(prometheus.NewRegistry())

	first.TransactionsProcessed.Inc()
	first.EventsDropped.WithLabelValues(ReasonUnmatched).Add(3)

	assert.Equal(t, float64(1), testutil.ToFloat64(first.TransactionsProcessed))
	assert.Equal(t, float64(0), testutil.ToFloat64(second.TransactionsProcessed))
	assert.Equal(t, float64(3), testutil.ToFloat64(first.EventsDropped.WithLabelValues(ReasonUnmatched)))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.CheckpointVersion.Set(42)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "marketplace_indexer_processor_checkpoint_version 42")
}
