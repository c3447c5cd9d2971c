// Package mailprovider implements the mail-transport client against AWS
// SES v2, plus the tracking-link rewriter the send gate calls before
// handing a message to the transport.
package mailprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/outreach-orchestrator/internal/config"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/pkg/logger"
)

// Sender implements service/sending.Sender against AWS SES v2's SendEmail
// API. Safe for concurrent use: sesv2.Client has no mutable state of its
// own beyond the http.Client it wraps.
type Sender struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	configSet string
}

// New constructs a Sender from static SES credentials. Returns an error if
// the AWS SDK config fails to load; it does not probe SES itself, so a bad
// access key is only discovered on the first Send.
func New(ctx context.Context, cfg config.SESConfig) (*Sender, error) {
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("mailer: ses.from_email is required")
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("mailer: loading AWS config: %w", err)
	}

	return &Sender{
		client:    sesv2.NewFromConfig(awsCfg),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		configSet: cfg.ConfigSet,
	}, nil
}

// Send delivers msg through SES. A rejection from SES itself (bad address,
// throttled, etc.) is returned as a non-nil error; the gate's caller
// classifies it against apperror to decide retry vs permanent failure.
func (s *Sender) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	fromName := msg.FromName
	if fromName == "" {
		fromName = s.fromName
	}
	fromEmail := msg.FromEmail
	if fromEmail == "" {
		fromEmail = s.fromEmail
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", fromName, fromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{msg.Recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLContent), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("offer_id"), Value: aws.String(sanitizeTagValue(msg.OfferID))},
		},
	}
	if msg.TextContent != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.TextContent), Charset: aws.String("UTF-8")}
	}
	if s.configSet != "" {
		input.ConfigurationSetName = aws.String(s.configSet)
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		logger.Error("mailer: send failed", "offer_id", msg.OfferID, "error", err.Error())
		return nil, fmt.Errorf("mailer: ses send: %w", err)
	}

	messageID := ""
	if out.MessageId != nil {
		messageID = *out.MessageId
	}
	return &domain.SendResult{
		Success:   true,
		MessageID: messageID,
		ESPType:   domain.ESPSES,
		SentAt:    time.Now().UTC(),
	}, nil
}

// sanitizeTagValue strips characters SES message tags disallow; offer IDs
// are uuids so this is normally a no-op.
func sanitizeTagValue(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.' {
			out = append(out, c)
		}
	}
	return string(out)
}
