package publishers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// sqsPublisher sends each event as one message on a standard or FIFO queue.
type sqsPublisher struct {
	id       string
	queueURL string
	client   sqsClient
	log      Logger
}

func newSQSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	q := cfg.SQS
	if q == nil {
		return nil, fmt.Errorf("publisher %q missing sqs configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, q.Region, q.AWSAuth)
	if err != nil {
		return nil, err
	}
	return &sqsPublisher{
		id:       cfg.ID,
		queueURL: q.QueueURL,
		client: sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if q.Endpoint != "" {
				o.BaseEndpoint = aws.String(q.Endpoint)
			}
		}),
		log: ensureLogger(log),
	}, nil
}

func (s *sqsPublisher) ID() string   { return s.id }
func (s *sqsPublisher) Type() string { return TypeSQS }

// fifo reports whether the queue needs group and deduplication ids.
func (s *sqsPublisher) fifo() bool {
	return strings.HasSuffix(s.queueURL, ".fifo")
}

func (s *sqsPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := encodeAWSMessage(evt)
	if err != nil {
		return err
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(msg.body),
		MessageAttributes: stringAttributes(msg.attrs, func(dataType, value *string) types.MessageAttributeValue {
			return types.MessageAttributeValue{DataType: dataType, StringValue: value}
		}),
	}
	if s.fifo() {
		// One group per provider keeps a provider's articles ordered.
		input.MessageGroupId = aws.String(evt.ProviderID)
		input.MessageDeduplicationId = aws.String(evt.ID)
	}

	out, err := s.client.SendMessage(ctx, input)
	if err != nil {
		s.log.ErrorObj("sqs send failed", "publisher_sqs_error", map[string]any{
			"publisher_id": s.id,
			"event_id":     evt.ID,
			"error":        err.Error(),
		})
		return fmt.Errorf("send message to sqs: %w", err)
	}
	s.log.DebugObj("sqs message sent", "publisher_sqs_delivery", map[string]any{
		"publisher_id": s.id,
		"event_id":     evt.ID,
		"message_id":   aws.ToString(out.MessageId),
	})
	return nil
}
