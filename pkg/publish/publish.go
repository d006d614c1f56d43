// Package publish uploads rendered timelines to S3.
//
// Objects are stored under <prefix>/<run id>/<name>, so every run gets its
// own folder and reruns never overwrite each other. Failed uploads are
// retried with capped exponential backoff; the body is re-read from memory
// on every attempt.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/matzehuels/qlogtree/pkg/cache"
)

// DefaultTimeout bounds a single PutObject call.
const DefaultTimeout = 10 * time.Second

// DefaultBackoff is used when Config.Backoff is zero.
var DefaultBackoff = cache.Backoff{Attempts: 4, Initial: 200 * time.Millisecond, Max: 2 * time.Second}

// Config selects the destination bucket.
type Config struct {
	Bucket  string
	Region  string // empty uses the SDK's default resolution
	Prefix  string
	Timeout time.Duration // per attempt, defaults to DefaultTimeout
	Backoff cache.Backoff
}

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads artifacts of a run.
type S3Publisher struct {
	client ObjectPutter
	cfg    Config
}

// NewS3Publisher loads the default AWS configuration (environment, shared
// config, instance role) and creates a publisher. SDK-level retries are
// disabled in favor of the publisher's own backoff.
func NewS3Publisher(ctx context.Context, cfg Config) (*S3Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 1
	})
	return NewWithClient(client, cfg)
}

// NewWithClient creates a publisher around an existing client.
func NewWithClient(client ObjectPutter, cfg Config) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("publish: no bucket configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff.Attempts == 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &S3Publisher{client: client, cfg: cfg}, nil
}

// Key returns the object key for name within run.
func (p *S3Publisher) Key(runID, name string) string {
	return path.Join(strings.Trim(p.cfg.Prefix, "/"), runID, name)
}

// Publish uploads body and returns its s3:// location.
func (p *S3Publisher) Publish(ctx context.Context, runID, name string, body []byte) (string, error) {
	key := p.Key(runID, name)
	err := p.cfg.Backoff.Retry(ctx, func() error {
		if err := p.put(ctx, key, body); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", p.cfg.Bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", p.cfg.Bucket, key), nil
}

func (p *S3Publisher) put(ctx context.Context, key string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(ContentType(key)),
	})
	return err
}

// ContentType returns the MIME type for an artifact file name.
func ContentType(name string) string {
	switch path.Ext(name) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".dot":
		return "text/vnd.graphviz"
	default:
		return "application/octet-stream"
	}
}
