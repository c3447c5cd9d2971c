package domain

import "time"

// QueueName is one of the fixed priority classes the job transport serves.
type QueueName string

const (
	QueueHigh   QueueName = "high"
	QueueNormal QueueName = "normal"
	QueueLow    QueueName = "low"
	QueueFailed QueueName = "failed"
)

// JobKind tags the body of a Job so the dispatcher can route it to the
// handler that owns it.
type JobKind string

const (
	JobSendEmail            JobKind = "send_email"
	JobProcessTrackingEvent JobKind = "process_tracking_event"
	JobAnalyzeLead          JobKind = "analyze_lead"
	JobGenerateProposal     JobKind = "generate_proposal"
	JobGenerateOffer        JobKind = "generate_offer"
	JobSyncCompanyByICO     JobKind = "sync_company_by_ico"
	JobDiscoverLeads        JobKind = "discover_leads"
	JobTakeScreenshot       JobKind = "take_screenshot"
	JobCalculateBenchmarks  JobKind = "calculate_benchmarks"
	JobBatchDiscovery       JobKind = "batch_discovery"
	JobExpireProposals      JobKind = "expire_proposals"
	JobCheckSSL             JobKind = "check_ssl"
	JobCleanupOldData       JobKind = "cleanup_old_data"
)

// DefaultQueue returns the fixed priority class a job kind is dispatched on.
func (k JobKind) DefaultQueue() QueueName {
	switch k {
	case JobSendEmail, JobProcessTrackingEvent:
		return QueueHigh
	case JobAnalyzeLead, JobGenerateProposal, JobGenerateOffer, JobSyncCompanyByICO:
		return QueueNormal
	default:
		return QueueLow
	}
}

// Job is a durable unit of asynchronous work. A job is claimable when
// AvailableAt <= now and DeliveredAt is nil.
type Job struct {
	ID          int64      `json:"id" db:"id"`
	Queue       QueueName  `json:"queue" db:"queue_name"`
	Kind        JobKind    `json:"kind" db:"-"`
	Body        string     `json:"body" db:"body"`
	Headers     string     `json:"headers" db:"headers"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	AvailableAt time.Time  `json:"availableAt" db:"available_at"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" db:"delivered_at"`
}

// RetryPolicy is the backoff schedule for a priority class.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
}

// Delay returns the backoff before the attempt-th retry (1-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// RetryPolicies is the fixed per-queue retry policy table.
var RetryPolicies = map[QueueName]RetryPolicy{
	QueueHigh:   {MaxRetries: 3, BaseDelay: 1 * time.Second, Multiplier: 2},
	QueueNormal: {MaxRetries: 3, BaseDelay: 5 * time.Second, Multiplier: 3},
	QueueLow:    {MaxRetries: 2, BaseDelay: 30 * time.Second, Multiplier: 2},
}
