package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hachiran/ramensite/internal/config"
)

// NewS3Client builds a path-style S3 client for an S3-compatible endpoint.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := S3BaseEndpoint(cfg)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})
	return client, nil
}

// S3BaseEndpoint turns the configured endpoint into a URL, honouring UseSSL
// when no scheme is given. An empty endpoint means the AWS default.
func S3BaseEndpoint(cfg config.StorageConfig) string {
	switch {
	case cfg.Endpoint == "":
		return ""
	case strings.Contains(cfg.Endpoint, "://"):
		return cfg.Endpoint
	case cfg.UseSSL:
		return "https://" + cfg.Endpoint
	default:
		return "http://" + cfg.Endpoint
	}
}

// EnsureS3Bucket creates the bucket when missing and applies the public-read policy.
func EnsureS3Bucket(ctx context.Context, client *s3.Client, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var nf *types.NotFound
		if !errors.As(err, &nf) {
			return fmt.Errorf("check bucket existence: %w", err)
		}
		if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}

	_, err = client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(PublicReadPolicy(bucket)),
	})
	if err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}
