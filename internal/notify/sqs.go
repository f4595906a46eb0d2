package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher enqueues booking events for downstream consumers.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
}

// NewSQSPublisher returns nil when queueURL is empty.
func NewSQSPublisher(client sqsAPI, queueURL string) *SQSPublisher {
	if queueURL == "" {
		return nil
	}
	if client == nil {
		panic("notify: SQS client cannot be nil")
	}
	return &SQSPublisher{client: client, queueURL: queueURL}
}

func (p *SQSPublisher) Name() string { return "sqs" }

func (p *SQSPublisher) Deliver(ctx context.Context, n Notification) error {
	evt := n.Event()
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("notify: marshal booking event: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(evt.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: failed to send SQS message: %w", err)
	}
	return nil
}
