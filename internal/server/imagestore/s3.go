// Package imagestore archives images submitted for verification in an
// S3-compatible bucket (MinIO in development).
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignTTL = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config holds the bucket and credentials.
type Config struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// Archived points at a stored image. URL is a presigned GET valid for 15
// minutes.
type Archived struct {
	Key string
	URL string
}

// Store archives images.
type Store interface {
	Archive(ctx context.Context, userID string, data []byte, contentType string) (*Archived, error)
}

type S3Store struct {
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
	now     func() time.Time
}

func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, // MINIO_ROOT_USER
			cfg.SecretKey, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		bucket:  cfg.Bucket,
		client:  client,
		presign: newS3PresignClient(client),
		now:     time.Now,
	}, nil
}

// StorageKey is the object key for an image archived by userID at t.
func StorageKey(userID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("images/%s/%04d/%02d/%02d/%v", userID, t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *S3Store) Archive(ctx context.Context, userID string, data []byte, contentType string) (*Archived, error) {
	key := StorageKey(userID, s.now())

	if _, err := putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}); err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return nil, fmt.Errorf("presign get: %w", err)
	}

	return &Archived{Key: key, URL: req.URL}, nil
}
