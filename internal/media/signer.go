package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Signer resolves a storage key to a fetchable URL. Implementations
// must tolerate failure: the enricher treats an error as "no URL" and
// keeps going.
type Signer interface {
	SignURL(ctx context.Context, storageKey string) (string, error)
}

// S3Signer signs time-limited GET URLs against an S3 bucket.
type S3Signer struct {
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// NewS3Signer creates a new S3 signer
func NewS3Signer(ctx context.Context, region, bucket string, expiry time.Duration) (*S3Signer, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &S3Signer{
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		expiry:  expiry,
	}, nil
}

// SignURL returns a presigned GET URL for the storage key.
func (s *S3Signer) SignURL(ctx context.Context, storageKey string) (string, error) {
	if storageKey == "" {
		return "", nil
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", storageKey, err)
	}

	return req.URL, nil
}

// StaticSigner maps keys onto a fixed base URL. Used when the bucket
// is public behind a CDN, and in tests.
type StaticSigner struct {
	BaseURL string
}

// SignURL returns baseURL/key.
func (s *StaticSigner) SignURL(_ context.Context, storageKey string) (string, error) {
	if storageKey == "" {
		return "", nil
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.BaseURL, "/"), storageKey), nil
}
