// Package metrics exposes Prometheus counters for the memory service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chat_memory"

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	EmbeddingsServed  *prometheus.CounterVec
	EmbeddingFailures *prometheus.CounterVec

	SummariesGenerated *prometheus.CounterVec
	SummariesSkipped   prometheus.Counter

	SearchesTotal *prometheus.CounterVec
	SearchResults *prometheus.HistogramVec

	ToolDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EmbeddingsServed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embeddings_served_total",
			Help:      "Embedding requests answered, by tier and whether a fallback tier answered",
		}, []string{"tier", "degraded"}),

		EmbeddingFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_tier_failures_total",
			Help:      "Embedding tier failures that caused a fallback",
		}, []string{"tier"}),

		SummariesGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_generated_total",
			Help:      "Summaries stored, by model label",
		}, []string{"model"}),

		SummariesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_skipped_total",
			Help:      "Conversations judged too short or simple to summarize",
		}),

		SearchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Similarity searches, by corpus and resolved provider",
		}, []string{"corpus", "provider"}),

		SearchResults: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}, []string{"corpus"}),

		ToolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "MCP tool call duration",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"tool", "status"}),

		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// EmbeddingServed records the tier that answered an embedding request.
func (m *Metrics) EmbeddingServed(tier string, degraded bool) {
	if m == nil {
		return
	}
	m.EmbeddingsServed.WithLabelValues(tier, strconv.FormatBool(degraded)).Inc()
}

// EmbeddingFailed records a tier failure.
func (m *Metrics) EmbeddingFailed(tier string) {
	if m == nil {
		return
	}
	m.EmbeddingFailures.WithLabelValues(tier).Inc()
}

// SummaryGenerated records a stored summary.
func (m *Metrics) SummaryGenerated(model string) {
	if m == nil {
		return
	}
	m.SummariesGenerated.WithLabelValues(model).Inc()
}

// SummarySkipped records a gated conversation.
func (m *Metrics) SummarySkipped() {
	if m == nil {
		return
	}
	m.SummariesSkipped.Inc()
}

// SearchCompleted records a search over corpus ("summaries" or "chunks").
func (m *Metrics) SearchCompleted(corpus, provider string, results int) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(corpus, provider).Inc()
	m.SearchResults.WithLabelValues(corpus).Observe(float64(results))
}

// ObserveTool records a tool call's duration and outcome.
func (m *Metrics) ObserveTool(tool string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ToolDuration.WithLabelValues(tool, status).Observe(d.Seconds())
}
