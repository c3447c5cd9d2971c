package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/pkg/logger"
)

// SQSPublisher implements EventLogger by publishing to SQS instead of
// writing the event row directly, fanning the write off the request
// goroutine (pixel/click/webhook handlers all call Log synchronously).
type SQSPublisher struct {
	client   *sqs.Client
	queueURL string
}

func NewSQSPublisher(client *sqs.Client, queueURL string) *SQSPublisher {
	return &SQSPublisher{client: client, queueURL: queueURL}
}

func (p *SQSPublisher) Log(ctx context.Context, evt domain.TrackingEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	return err
}

// EventPersister is the durable sink the SQS consumer drains into.
// Satisfied by internal/repository/postgres.EventRepo.
type EventPersister interface {
	Log(ctx context.Context, evt domain.TrackingEvent) error
}

// SQSConsumer drains the tracking-event queue SQSPublisher writes to and
// persists each message via EventPersister, deleting it only after a
// successful write so a crash between receive and delete just redelivers.
type SQSConsumer struct {
	client   *sqs.Client
	queueURL string
	sink     EventPersister
}

func NewSQSConsumer(client *sqs.Client, queueURL string, sink EventPersister) *SQSConsumer {
	return &SQSConsumer{client: client, queueURL: queueURL, sink: sink}
}

// Run polls until ctx is cancelled. Intended to be started as its own
// goroutine from cmd/worker.
func (c *SQSConsumer) Run(ctx context.Context) {
	logger.Info("tracking: sqs consumer started", "queue_url", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("tracking: sqs receive failed", "error", err.Error())
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, msg := range out.Messages {
			c.process(ctx, msg)
		}
	}
}

func (c *SQSConsumer) process(ctx context.Context, msg sqstypes.Message) {
	var evt domain.TrackingEvent
	if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &evt); err != nil {
		logger.Error("tracking: sqs message decode failed", "error", err.Error())
		c.delete(ctx, msg.ReceiptHandle)
		return
	}
	if err := c.sink.Log(ctx, evt); err != nil {
		logger.Error("tracking: sqs event persist failed", "offer_id", evt.OfferID, "error", err.Error())
		return
	}
	c.delete(ctx, msg.ReceiptHandle)
}

func (c *SQSConsumer) delete(ctx context.Context, handle *string) {
	if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: handle,
	}); err != nil {
		logger.Warn("tracking: sqs delete message failed", "error", err.Error())
	}
}
