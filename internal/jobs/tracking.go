package jobs

import "context"

// TrackingEventProcessor replays a process_tracking_event job body through
// the tracking ingestor's notification handling (tracking.Ingestor.
// ProcessJobEvent). See that method's doc for why the synchronous webhook
// stays the primary path and this is additive.
type TrackingEventProcessor interface {
	ProcessJobEvent(ctx context.Context, body string) error
}

func ProcessTrackingEventHandler(proc TrackingEventProcessor) func(ctx context.Context, body string) error {
	return proc.ProcessJobEvent
}
