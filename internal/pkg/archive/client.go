package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// ErrDisabled is returned when archiving is requested but not configured
var ErrDisabled = errors.New("report archiving is disabled")

// Uploader stores an export and returns where it went
type Uploader interface {
	Upload(ctx context.Context, object Object) (*UploadResult, error)
}

// Object is one export ready for upload
type Object struct {
	Context     string
	Extension   string
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	BucketName string
	ObjectKey  string
	Size       int64
}

// putObjectAPI is the part of the S3 client the archive needs
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Client uploads exports to an S3 compatible bucket
type Client struct {
	s3Client putObjectAPI
	config   *Config
	newID    func() string
}

// NewClient creates the archive client and checks the bucket is reachable
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, ErrDisabled
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	client := newClient(s3Client, cfg)
	if err := client.testConnection(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Archive] Initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

func newClient(api putObjectAPI, cfg *Config) *Client {
	return &Client{
		s3Client: api,
		config:   cfg,
		newID:    func() string { return uuid.NewString() },
	}
}

func (c *Client) testConnection(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}
	return nil
}

// Upload writes one export under a fresh key
func (c *Client) Upload(ctx context.Context, object Object) (*UploadResult, error) {
	at := object.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	key := c.config.ObjectKey(object.Context, at.UTC(), c.newID(), object.Extension)

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(object.Body),
		ContentLength: aws.Int64(int64(len(object.Body))),
		ContentType:   aws.String(object.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	log.Infof("[Archive] Uploaded s3://%s/%s (%d bytes)", c.config.BucketName, key, len(object.Body))
	return &UploadResult{
		BucketName: c.config.BucketName,
		ObjectKey:  key,
		Size:       int64(len(object.Body)),
	}, nil
}
