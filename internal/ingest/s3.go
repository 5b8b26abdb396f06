package ingest

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jgoulah/pvdash/internal/config"
)

// ObjectGetter is the subset of the S3 API used to fetch exports.
// *s3.Client implements it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// IsS3 reports whether source names an S3 object (s3://bucket/key)
func IsS3(source string) bool {
	return strings.HasPrefix(source, "s3://")
}

// NewS3Client creates an S3 client. Static credentials are used when an access
// key is configured, otherwise the default AWS credential chain applies.
// A custom endpoint enables path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.GetRegion()),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// parseS3URI splits s3://bucket/key into bucket and key
func parseS3URI(source string) (bucket, key string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", malformedf("parsing S3 location %q: %w", source, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", malformedf("S3 location %q must be s3://bucket/key", source)
	}
	return bucket, key, nil
}

func openS3(ctx context.Context, client ObjectGetter, clientErr error, source string) (io.ReadCloser, error) {
	if client == nil {
		if clientErr != nil {
			return nil, clientErr
		}
		return nil, fmt.Errorf("no S3 client configured for %s", source)
	}

	bucket, key, err := parseS3URI(source)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source, err)
	}

	return out.Body, nil
}
