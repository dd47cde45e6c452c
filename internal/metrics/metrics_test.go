package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.EmbeddingServed("openai", false)
	m.EmbeddingServed("local", true)
	m.EmbeddingServed("local", true)
	m.EmbeddingFailed("openai")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbeddingsServed.WithLabelValues("openai", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmbeddingsServed.WithLabelValues("local", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbeddingFailures.WithLabelValues("openai")))
}

func TestSummaryAndSearchCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SummaryGenerated("deepseek-chat")
	m.SummaryGenerated("local-fallback")
	m.SummarySkipped()
	m.SearchCompleted("summaries", "lexical", 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummariesGenerated.WithLabelValues("deepseek-chat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummariesSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesTotal.WithLabelValues("summaries", "lexical")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SearchResults))
}

func TestObserveTool(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTool("retrieve_memories", 20*time.Millisecond, nil)
	m.ObserveTool("retrieve_memories", time.Second, errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.ToolDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.EmbeddingServed("openai", false)
		m.EmbeddingFailed("openai")
		m.SummaryGenerated("x")
		m.SummarySkipped()
		m.SearchCompleted("chunks", "local", 0)
		m.ObserveTool("t", time.Millisecond, nil)
	})
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SummarySkipped()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "chat_memory_summaries_skipped_total 1"))
}
