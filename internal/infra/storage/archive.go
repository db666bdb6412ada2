package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const jsonLinesContentType = "application/x-ndjson"

// Archive stores pruned ledger rows in an S3 bucket.
type Archive struct {
	client *s3.Client
	bucket string
}

var _ interfaces.Archive = (*Archive)(nil)

func NewArchive(config aws.Config, bucket string) *Archive {
	return &Archive{
		client: initClient(config),
		bucket: bucket,
	}
}

func initClient(config aws.Config) *s3.Client {
	client := s3.NewFromConfig(config, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client
}

func (a *Archive) Put(ctx context.Context, key string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(jsonLinesContentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("error uploading %s to %s, %w", key, a.bucket, err)
	}
	slog.Debug("archived ledger rows", "bucket", a.bucket, "key", key, "bytes", len(body))
	return nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		return fmt.Errorf("error creating bucket %s, %w", a.bucket, err)
	}
	return nil
}
