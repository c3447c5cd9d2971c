package domain

import (
	"testing"
	"time"
)

func TestRetryPolicyDelay(t *testing.T) {
	cases := []struct {
		queue QueueName
		want  []time.Duration
	}{
		{QueueHigh, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}},
		{QueueNormal, []time.Duration{5 * time.Second, 15 * time.Second, 45 * time.Second}},
		{QueueLow, []time.Duration{30 * time.Second, 60 * time.Second}},
	}
	for _, c := range cases {
		p, ok := RetryPolicies[c.queue]
		if !ok {
			t.Fatalf("no retry policy for %s", c.queue)
		}
		if p.MaxRetries != len(c.want) {
			t.Errorf("%s: MaxRetries = %d, want %d", c.queue, p.MaxRetries, len(c.want))
		}
		for i, want := range c.want {
			if got := p.Delay(i + 1); got != want {
				t.Errorf("%s attempt %d: delay = %s, want %s", c.queue, i+1, got, want)
			}
		}
	}
}

func TestRetryPolicies_FailedQueueNeverRetries(t *testing.T) {
	if _, ok := RetryPolicies[QueueFailed]; ok {
		t.Error("the failed queue must not carry a retry policy")
	}
}

func TestJobKindDefaultQueue(t *testing.T) {
	cases := map[JobKind]QueueName{
		JobSendEmail:            QueueHigh,
		JobProcessTrackingEvent: QueueHigh,
		JobAnalyzeLead:          QueueNormal,
		JobGenerateProposal:     QueueNormal,
		JobGenerateOffer:        QueueNormal,
		JobSyncCompanyByICO:     QueueNormal,
		JobDiscoverLeads:        QueueLow,
		JobTakeScreenshot:       QueueLow,
		JobCalculateBenchmarks:  QueueLow,
		JobBatchDiscovery:       QueueLow,
		JobExpireProposals:      QueueLow,
		JobCheckSSL:             QueueLow,
		JobCleanupOldData:       QueueLow,
	}
	for kind, want := range cases {
		if got := kind.DefaultQueue(); got != want {
			t.Errorf("%s: default queue = %s, want %s", kind, got, want)
		}
	}
}
