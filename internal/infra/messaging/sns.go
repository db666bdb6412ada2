package messaging

import (
	"context"
	"fmt"

	"github.com/Builder-Lawyers/execution-service/internal/application/errs"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const stringDataType = "String"

// SNSTopic is the execution events topic the outbox publisher writes to.
type SNSTopic struct {
	client   *sns.Client
	topicArn string
}

var _ interfaces.Topic = (*SNSTopic)(nil)

func NewSNSTopic(client *sns.Client, topicArn string) *SNSTopic {
	return &SNSTopic{client: client, topicArn: topicArn}
}

func (t *SNSTopic) Publish(ctx context.Context, message string, attributes map[string]string) (string, error) {
	messageAttributes := make(map[string]types.MessageAttributeValue, len(attributes))
	for name, value := range attributes {
		// SNS rejects empty string attributes
		if value == "" {
			continue
		}
		messageAttributes[name] = types.MessageAttributeValue{
			DataType:    aws.String(stringDataType),
			StringValue: aws.String(value),
		}
	}

	out, err := t.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(t.topicArn),
		Message:           aws.String(message),
		MessageAttributes: messageAttributes,
	})
	if err != nil {
		return "", errs.RetryableError{Err: fmt.Errorf("publish to %s, %w", t.topicArn, err)}
	}
	return aws.ToString(out.MessageId), nil
}
