// Package metrics exposes Prometheus collectors for the work-orchestration
// subsystem.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	JobsClaimed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_jobs_claimed_total",
		Help: "Jobs claimed by the dispatcher, by queue.",
	}, []string{"queue"})

	JobsSucceeded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_jobs_succeeded_total",
		Help: "Jobs whose handler returned without error, by kind.",
	}, []string{"kind"})

	JobsRetried = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_jobs_retried_total",
		Help: "Jobs requeued after a retryable handler failure, by kind.",
	}, []string{"kind"})

	JobsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_jobs_failed_total",
		Help: "Jobs moved to the failed queue, by kind.",
	}, []string{"kind"})

	HandlerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatcher_handler_duration_seconds",
		Help:    "Wall time spent inside a job handler, by kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	SendGateDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sendgate_denials_total",
		Help: "send_email attempts denied before transmit, by reason.",
	}, []string{"reason"})

	AnalysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analysis_pipeline_duration_seconds",
		Help:    "Wall time to run all selected analyzers for one Analysis.",
		Buckets: prometheus.DefBuckets,
	}, []string{"industry"})

	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_depth",
		Help: "Approximate count of claimable jobs per queue, sampled by the scheduler.",
	}, []string{"queue"})
)

func init() {
	prometheus.MustRegister(
		JobsClaimed, JobsSucceeded, JobsRetried, JobsFailed,
		HandlerDuration, SendGateDenials, AnalysisDuration, QueueDepth,
	)
}
