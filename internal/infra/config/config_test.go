package config_test

import (
	"testing"

	"github.com/Builder-Lawyers/execution-service/internal/infra/config"
	"github.com/stretchr/testify/require"
)

func TestMessagingConfigPrefersPrimaryNames(t *testing.T) {
	t.Setenv("AWS_SQS_QUEUE_BILLING", "https://sqs/billing")
	t.Setenv("SQS_QUEUE_URL", "https://sqs/fallback")
	t.Setenv("AWS_SNS_TOPIC_EXECUTION_EVENTS", "")
	t.Setenv("SNS_TOPIC_ARN", "arn:aws:sns:us-east-1:1:execution")

	cfg := config.NewMessagingConfig()
	require.Equal(t, "https://sqs/billing", cfg.QueueURL)
	require.Equal(t, "arn:aws:sns:us-east-1:1:execution", cfg.TopicArn)
	require.NoError(t, cfg.Validate())
}

func TestMessagingConfigValidateRequiresBoth(t *testing.T) {
	require.Error(t, config.MessagingConfig{TopicArn: "arn"}.Validate())
	require.Error(t, config.MessagingConfig{QueueURL: "url"}.Validate())
}

func TestArchiveAndHTTPDefaults(t *testing.T) {
	t.Setenv("ARCHIVE_ENABLED", "")
	t.Setenv("ARCHIVE_BUCKET", "")
	t.Setenv("HTTP_ADDR", "")

	require.Equal(t, config.ArchiveConfig{Enabled: false, Bucket: "execution-ledger"}, config.NewArchiveConfig())
	require.Equal(t, ":8080", config.NewHTTPConfig().Addr)
}
