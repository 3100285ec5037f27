// Package metrics exposes Prometheus instrumentation for the scoring service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes.
const (
	OutcomeAnalyzed = "analyzed"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// AnalysesTotal counts orchestrator runs by trigger and outcome.
	AnalysesTotal *prometheus.CounterVec
	// OverallScore observes the overall score of every stored analysis.
	OverallScore prometheus.Histogram
	// EscalationsTotal counts analyses flagged for escalation.
	EscalationsTotal prometheus.Counter
	// SweepDuration observes how long each batch sweep takes.
	SweepDuration prometheus.Histogram
	// SweepConversations counts conversations handled by sweeps, by outcome.
	SweepConversations *prometheus.CounterVec
	// HTTPRequestsTotal counts API requests by route, method and status.
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration observes API latency by route and method.
	HTTPRequestDuration *prometheus.HistogramVec
)

// Init creates and registers all collectors. Safe to call more than once.
func Init() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		AnalysesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convoscore_analyses_total",
				Help: "Total number of conversation analyses by trigger and outcome",
			},
			[]string{"trigger", "outcome"},
		)
		OverallScore = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "convoscore_overall_score",
				Help:    "Distribution of overall conversation scores",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		)
		EscalationsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "convoscore_escalations_total",
				Help: "Total number of analyses that flagged escalation",
			},
		)
		SweepDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "convoscore_sweep_duration_seconds",
				Help:    "Duration of batch analysis sweeps",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		)
		SweepConversations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convoscore_sweep_conversations_total",
				Help: "Conversations handled by batch sweeps by outcome",
			},
			[]string{"outcome"},
		)
		HTTPRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convoscore_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		)
		HTTPRequestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "convoscore_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		)

		registry.MustRegister(
			AnalysesTotal,
			OverallScore,
			EscalationsTotal,
			SweepDuration,
			SweepConversations,
			HTTPRequestsTotal,
			HTTPRequestDuration,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// GetRegistry returns the service registry, initializing it if needed.
func GetRegistry() *prometheus.Registry {
	Init()
	return registry
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordAnalysis counts one orchestrator run. overall and escalated are only
// observed for OutcomeAnalyzed.
func RecordAnalysis(trigger, outcome string, overall float64, escalated bool) {
	Init()
	AnalysesTotal.WithLabelValues(trigger, outcome).Inc()
	if outcome != OutcomeAnalyzed {
		return
	}
	OverallScore.Observe(overall)
	if escalated {
		EscalationsTotal.Inc()
	}
}

// RecordSweep observes one completed sweep.
func RecordSweep(duration time.Duration, analyzed, skipped, failed int) {
	Init()
	SweepDuration.Observe(duration.Seconds())
	SweepConversations.WithLabelValues(OutcomeAnalyzed).Add(float64(analyzed))
	SweepConversations.WithLabelValues(OutcomeSkipped).Add(float64(skipped))
	SweepConversations.WithLabelValues(OutcomeFailed).Add(float64(failed))
}

// RecordHTTPRequest observes one served request.
func RecordHTTPRequest(route, method, status string, duration time.Duration) {
	Init()
	HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}
