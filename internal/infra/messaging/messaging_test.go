package messaging_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/Builder-Lawyers/execution-service/internal/application/events"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/internal/infra/messaging"
	"github.com/Builder-Lawyers/execution-service/internal/presentation/queue"
	"github.com/Builder-Lawyers/execution-service/internal/testinfra/awsinfra"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/require"
)

var (
	sqsClient *sqs.Client
	snsClient *sns.Client
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	cfg, terminate, err := awsinfra.Start(ctx, "sqs,sns")
	if err != nil {
		log.Fatalf("%v", err)
	}
	sqsClient = sqs.NewFromConfig(cfg)
	snsClient = sns.NewFromConfig(cfg)

	exitCode := m.Run()

	terminate()
	os.Exit(exitCode)
}

func createQueue(t *testing.T, name string) (string, string) {
	t.Helper()
	ctx := context.Background()
	created, err := sqsClient.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String(name)})
	require.NoError(t, err)

	attrs, err := sqsClient.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       created.QueueUrl,
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	})
	require.NoError(t, err)
	return aws.ToString(created.QueueUrl), attrs.Attributes[string(sqstypes.QueueAttributeNameQueueArn)]
}

func receiveAll(t *testing.T, q *messaging.SQSQueue, want int) []interfaces.Message {
	t.Helper()
	var received []interfaces.Message
	for attempt := 0; attempt < 5 && len(received) < want; attempt++ {
		batch, err := q.ReceiveMessages(context.Background(), 10, 2)
		require.NoError(t, err)
		received = append(received, batch...)
	}
	return received
}

func TestQueueReceivesAttributesAndDeletes(t *testing.T) {
	ctx := context.Background()
	url, _ := createQueue(t, "billing-raw")
	q := messaging.NewSQSQueue(sqsClient, url)

	_, err := sqsClient.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(`{"EventId":"e1","OsId":"os-1","Reason":"r"}`),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"EventType": {DataType: aws.String("String"), StringValue: aws.String("OsCanceled")},
		},
	})
	require.NoError(t, err)

	received := receiveAll(t, q, 1)
	require.Len(t, received, 1)
	require.Equal(t, "OsCanceled", received[0].Attributes["EventType"])
	require.NotEmpty(t, received[0].ReceiptHandle)

	require.NoError(t, q.DeleteMessage(ctx, received[0].ReceiptHandle))

	batch, err := q.ReceiveMessages(ctx, 10, 1)
	require.NoError(t, err)
	require.Empty(t, batch)
}

func TestTopicToQueueRoundTripDecodesEnvelope(t *testing.T) {
	ctx := context.Background()
	url, queueArn := createQueue(t, "billing-sns")

	createdTopic, err := snsClient.CreateTopic(ctx, &sns.CreateTopicInput{Name: aws.String("execution-events")})
	require.NoError(t, err)
	_, err = snsClient.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn: createdTopic.TopicArn,
		Protocol: aws.String("sqs"),
		Endpoint: aws.String(queueArn),
	})
	require.NoError(t, err)

	topic := messaging.NewSNSTopic(snsClient, aws.ToString(createdTopic.TopicArn))
	messageID, err := topic.Publish(ctx, `{"OsId":"os-7","PaymentId":"p-7","Amount":"12.50"}`, map[string]string{
		interfaces.AttrEventType:     "PaymentConfirmed",
		interfaces.AttrEventID:       "outbox-1",
		interfaces.AttrCorrelationID: "c-7",
		interfaces.AttrPublishedAt:   "",
	})
	require.NoError(t, err)
	require.NotEmpty(t, messageID)

	received := receiveAll(t, messaging.NewSQSQueue(sqsClient, url), 1)
	require.Len(t, received, 1)

	envelope, err := queue.Decode(received[0])
	require.NoError(t, err)
	require.Equal(t, "outbox-1", envelope.EventID)
	require.Equal(t, "c-7", envelope.CorrelationID)
	require.Equal(t, events.KindPaymentConfirmed, envelope.Kind)

	event, err := envelope.PaymentConfirmed()
	require.NoError(t, err)
	require.Equal(t, "os-7", event.OsID)
	require.Equal(t, "12.5", event.Amount.String())
}

func TestPublishToMissingTopicIsRetryable(t *testing.T) {
	topic := messaging.NewSNSTopic(snsClient, "arn:aws:sns:us-east-1:000000000000:missing")
	_, err := topic.Publish(context.Background(), "{}", nil)
	require.Error(t, err)
	require.ErrorContains(t, err, "retryable")
}
