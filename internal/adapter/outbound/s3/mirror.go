package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/podcaststudio/server/internal/port/outbound"
	"github.com/podcaststudio/server/internal/shared/config"
)

// ObjectPutter is the subset of the S3 client used by Mirror.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient creates an S3 client for cfg. It returns nil when no bucket is
// configured. Static credentials are used when both keys are set, otherwise
// the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg *config.StorageConfig) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			// S3-compatible stores such as MinIO or R2 need path-style URLs.
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Mirror implements outbound.ArtifactMirrorPort by uploading artifacts to
// a bucket under a key prefix.
type Mirror struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewMirror creates an artifact mirror.
func NewMirror(client ObjectPutter, bucket, prefix string) *Mirror {
	return &Mirror{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key for an artifact name.
func (m *Mirror) Key(name string) string {
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}

// Put uploads r as the object for name.
func (m *Mirror) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(m.Key(name)),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", m.Key(name), err)
	}
	return nil
}

var _ outbound.ArtifactMirrorPort = (*Mirror)(nil)
