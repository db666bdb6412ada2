package config

import (
	"context"
	"fmt"

	"github.com/Builder-Lawyers/execution-service/pkg/env"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
)

type MessagingConfig struct {
	QueueURL string
	TopicArn string
}

func NewMessagingConfig() MessagingConfig {
	return MessagingConfig{
		QueueURL: env.FirstEnv("", "AWS_SQS_QUEUE_BILLING", "SQS_QUEUE_URL"),
		TopicArn: env.FirstEnv("", "AWS_SNS_TOPIC_EXECUTION_EVENTS", "SNS_TOPIC_ARN"),
	}
}

func (c MessagingConfig) Validate() error {
	if c.QueueURL == "" {
		return fmt.Errorf("billing queue url is not set (AWS_SQS_QUEUE_BILLING or SQS_QUEUE_URL)")
	}
	if c.TopicArn == "" {
		return fmt.Errorf("execution topic arn is not set (AWS_SNS_TOPIC_EXECUTION_EVENTS or SNS_TOPIC_ARN)")
	}
	return nil
}

type ArchiveConfig struct {
	Enabled bool
	Bucket  string
}

func NewArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Enabled: env.GetBool("ARCHIVE_ENABLED", false),
		Bucket:  env.GetEnv("ARCHIVE_BUCKET", "execution-ledger"),
	}
}

type HTTPConfig struct {
	Addr string
}

func NewHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Addr: env.GetEnv("HTTP_ADDR", ":8080"),
	}
}

// LoadAWS resolves region and credentials from the default chain. AWS_ENDPOINT_URL
// points every client at localstack in development.
func LoadAWS(ctx context.Context) (aws.Config, error) {
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("error loading aws config, %w", err)
	}
	return cfg, nil
}
