package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL is the bucket's public base, e.g. https://pub-xxxx.r2.dev
	PublicURL string
}

// S3API is the slice of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// R2Store keeps objects in a Cloudflare R2 bucket through the S3 API.
type R2Store struct {
	client     S3API
	bucket     string
	publicBase string
}

func NewR2(ctx context.Context, c R2Config) (*R2Store, error) {
	if c.Bucket == "" || c.AccountID == "" || c.PublicURL == "" {
		return nil, fmt.Errorf("missing required R2 settings (R2_BUCKET, R2_ACCOUNT_ID, R2_PUBLIC_URL)")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return NewR2WithClient(client, c.Bucket, c.PublicURL), nil
}

func NewR2WithClient(client S3API, bucket, publicURL string) *R2Store {
	return &R2Store{client: client, bucket: bucket, publicBase: strings.TrimRight(publicURL, "/")}
}

func (s *R2Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return s.publicBase + "/" + escapeKey(key), nil
}

func (s *R2Store) Get(ctx context.Context, ref string) ([]byte, string, error) {
	key, err := s.keyFor(ref)
	if err != nil {
		return nil, "", err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to read R2 object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", err
	}
	ct := aws.ToString(out.ContentType)
	if ct == "" {
		ct = contentTypeFor(key)
	}
	return data, ct, nil
}

func (s *R2Store) keyFor(ref string) (string, error) {
	if !strings.HasPrefix(ref, s.publicBase+"/") {
		// bare keys are accepted too
		return strings.TrimPrefix(ref, "/"), nil
	}
	return url.PathUnescape(strings.TrimPrefix(ref, s.publicBase+"/"))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
