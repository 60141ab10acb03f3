package files

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Presigner hands out short-lived S3 URLs. The API server never proxies
// file bytes; clients talk to the bucket directly with these URLs.
type Presigner struct {
	bucket  string
	ttl     time.Duration
	presign *s3.PresignClient
}

func NewPresigner(client *s3.Client, bucket string, ttl time.Duration) *Presigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Presigner{
		bucket:  bucket,
		ttl:     ttl,
		presign: s3.NewPresignClient(client),
	}
}

// NewS3Client builds an S3 client from the ambient AWS credential chain.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config load: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Upload describes a presigned PUT the client performs directly against S3.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PresignUpload mints a PUT URL for a new object under the deal's prefix.
// The object key embeds a random component so repeated uploads of the same
// filename never overwrite each other.
func (p *Presigner) PresignUpload(ctx context.Context, dealID, filename, contentType string) (*Upload, error) {
	if dealID == "" {
		return nil, fmt.Errorf("deal id required")
	}
	filename = sanitizeFilename(filename)
	if filename == "" {
		return nil, fmt.Errorf("filename required")
	}

	key := fmt.Sprintf("deals/%s/%s-%s", dealID, uuid.NewString(), filename)

	in := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := p.presign.PresignPutObject(ctx, in, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &Upload{
		Key:       key,
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: time.Now().Add(p.ttl),
	}, nil
}

// PresignDownload mints a GET URL for an existing object.
func (p *Presigner) PresignDownload(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key required")
	}

	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
