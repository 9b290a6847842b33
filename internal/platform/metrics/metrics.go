package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CampaignsCreated     prometheus.Counter
	CampaignTransitions  *prometheus.CounterVec
	InstanceTransitions  *prometheus.CounterVec
	TransitionConflicts  prometheus.Counter
	PacksGenerated       *prometheus.CounterVec
	PackGenerationTime   prometheus.Histogram
	RollupRuns           prometheus.Counter
	ConsumptionAlerts    prometheus.Counter
	RequestLatency       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CampaignsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tangible_campaigns_created_total",
			Help: "Total number of campaigns created",
		}),
		CampaignTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tangible_campaign_transitions_total",
			Help: "Campaign lifecycle transitions by target status",
		}, []string{"target"}),
		InstanceTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tangible_instance_transitions_total",
			Help: "Program instance lifecycle transitions by target status",
		}, []string{"target"}),
		TransitionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tangible_transition_conflicts_total",
			Help: "Optimistic-concurrency conflicts on lifecycle transitions",
		}),
		PacksGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tangible_packs_generated_total",
			Help: "Regulatory pack generations by terminal status",
		}, []string{"status"}),
		PackGenerationTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tangible_pack_generation_duration_seconds",
			Help:    "Wall time spent generating a regulatory pack",
			Buckets: prometheus.DefBuckets,
		}),
		RollupRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tangible_rollup_runs_total",
			Help: "Completed metric rollup job runs",
		}),
		ConsumptionAlerts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tangible_consumption_alerts_total",
			Help: "Over-consumption alerts raised by the rollup job",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tangible_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// IncrementCampaignsCreated increments the campaigns created counter by 1.
func (m *Metrics) IncrementCampaignsCreated() {
	m.CampaignsCreated.Inc()
}

// ObserveCampaignTransition records one campaign transition.
func (m *Metrics) ObserveCampaignTransition(target string) {
	m.CampaignTransitions.WithLabelValues(target).Inc()
}

// ObserveInstanceTransition records one instance transition.
func (m *Metrics) ObserveInstanceTransition(target string) {
	m.InstanceTransitions.WithLabelValues(target).Inc()
}

// IncrementTransitionConflicts records a version-mismatch retry.
func (m *Metrics) IncrementTransitionConflicts() {
	m.TransitionConflicts.Inc()
}

// ObservePackGeneration records a finished pack generation.
func (m *Metrics) ObservePackGeneration(status string, elapsed time.Duration) {
	m.PacksGenerated.WithLabelValues(status).Inc()
	m.PackGenerationTime.Observe(elapsed.Seconds())
}

// IncrementRollupRuns records one completed rollup pass.
func (m *Metrics) IncrementRollupRuns() {
	m.RollupRuns.Inc()
}

// IncrementConsumptionAlerts records one over-consumption alert.
func (m *Metrics) IncrementConsumptionAlerts() {
	m.ConsumptionAlerts.Inc()
}

// ObserveRequestLatency records one HTTP request observation.
func (m *Metrics) ObserveRequestLatency(method, path string, elapsed time.Duration) {
	m.RequestLatency.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
