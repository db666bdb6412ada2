package awsinfra

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
)

const image = "localstack/localstack:3.8.1"

// Start runs localstack with the given services ("s3", "sqs,sns") and returns an aws config
// pointed at it, plus a func that terminates the container.
func Start(ctx context.Context, services string) (aws.Config, func(), error) {
	ls, err := localstack.Run(ctx, image, testcontainers.WithEnv(map[string]string{"SERVICES": services}))
	if err != nil {
		return aws.Config{}, nil, fmt.Errorf("failed to start localstack: %w", err)
	}
	terminate := func() {
		_ = ls.Terminate(context.Background())
	}

	host, err := ls.Host(ctx)
	if err != nil {
		terminate()
		return aws.Config{}, nil, fmt.Errorf("failed to get host: %w", err)
	}
	mappedPort, err := ls.MappedPort(ctx, "4566/tcp")
	if err != nil {
		terminate()
		return aws.Config{}, nil, fmt.Errorf("failed to get port: %w", err)
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithCredentialsProvider(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "test", SecretAccessKey: "test"}, nil
		})),
		awsConfig.WithBaseEndpoint("http://"+host+":"+mappedPort.Port()),
	)
	if err != nil {
		terminate()
		return aws.Config{}, nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return cfg, terminate, nil
}
