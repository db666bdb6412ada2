package messaging

import (
	"context"
	"fmt"

	"github.com/Builder-Lawyers/execution-service/internal/application/errs"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const allAttributes = "All"

// SQSQueue is the billing queue the consumer reads from.
type SQSQueue struct {
	client *sqs.Client
	url    string
}

var _ interfaces.Queue = (*SQSQueue)(nil)

func NewSQSQueue(client *sqs.Client, url string) *SQSQueue {
	return &SQSQueue{client: client, url: url}
}

func (q *SQSQueue) ReceiveMessages(ctx context.Context, maxCount, waitSeconds int32) ([]interfaces.Message, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(q.url),
		MaxNumberOfMessages:         maxCount,
		WaitTimeSeconds:             waitSeconds,
		MessageAttributeNames:       []string{allAttributes},
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameAll},
	})
	if err != nil {
		return nil, errs.RetryableError{Err: fmt.Errorf("receive from %s, %w", q.url, err)}
	}

	messages := make([]interfaces.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		attributes := make(map[string]string, len(m.MessageAttributes))
		for name, value := range m.MessageAttributes {
			if value.StringValue != nil {
				attributes[name] = *value.StringValue
			}
		}
		messages = append(messages, interfaces.Message{
			MessageID:     aws.ToString(m.MessageId),
			Body:          aws.ToString(m.Body),
			Attributes:    attributes,
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return messages, nil
}

func (q *SQSQueue) DeleteMessage(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return errs.RetryableError{Err: fmt.Errorf("delete from %s, %w", q.url, err)}
	}
	return nil
}
