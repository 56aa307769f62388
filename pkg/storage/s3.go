package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/cmc-renewal/cms-api/pkg/config"
)

// ObjectAPI is the subset of the S3 client used by the provider.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Provider stores media in an S3-compatible bucket (GCS interoperability by default).
type S3Provider struct {
	client        ObjectAPI
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
	debug         bool
}

// NewS3Client builds an S3 client for the configured endpoint with static HMAC credentials.
func NewS3Client(ctx context.Context, cfg config.UploadConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Provider wraps client for bucket. Public URLs default to <endpoint>/<bucket>/<key>.
func NewS3Provider(client ObjectAPI, cfg config.UploadConfig, logger *zap.Logger) *S3Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := cfg.PublicBaseURL
	if base == "" {
		base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3Provider{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		logger:        logger,
		debug:         cfg.Debug,
	}
}

// Name identifies the provider on stored file rows.
func (p *S3Provider) Name() string { return "s3" }

// Put uploads obj with a public-read ACL.
func (p *S3Provider) Put(ctx context.Context, obj Object) (string, error) {
	if !validKey(obj.Key) {
		return "", ErrInvalidKey
	}
	input := &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(obj.Key),
		Body:         obj.Body,
		ContentType:  aws.String(obj.ContentType),
		CacheControl: aws.String("public, max-age=31536000"),
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", obj.Key, describe(err))
	}
	if p.debug {
		p.logger.Debug("object uploaded", zap.String("bucket", p.bucket), zap.String("key", obj.Key), zap.Int64("size", obj.Size))
	}
	return p.URL(obj.Key), nil
}

// Delete removes key; deleting a missing object succeeds.
func (p *S3Provider) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("delete object %s: %w", key, describe(err))
	}
	return nil
}

// URL returns the public URL of key.
func (p *S3Provider) URL(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return p.publicBaseURL + "/" + strings.Join(segs, "/")
}

func describe(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s: %w", apiErr.ErrorCode(), apiErr.ErrorMessage(), err)
	}
	return err
}
