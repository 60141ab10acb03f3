package files

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPresigner(t *testing.T, ttl time.Duration) *Presigner {
	t.Helper()
	client := s3.New(s3.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIATEST", "secret", ""),
	})
	return NewPresigner(client, "sowdesk-files", ttl)
}

func TestPresignUpload(t *testing.T) {
	p := testPresigner(t, 5*time.Minute)

	up, err := p.PresignUpload(context.Background(), "deal-123", "draft v1.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	require.NoError(t, err)

	assert.Equal(t, "PUT", up.Method)
	assert.True(t, strings.HasPrefix(up.Key, "deals/deal-123/"))
	assert.True(t, strings.HasSuffix(up.Key, "draft_v1.docx"))
	assert.Contains(t, up.URL, "sowdesk-files")
	assert.Contains(t, up.URL, "X-Amz-Signature")
}

func TestPresignUploadUniqueKeys(t *testing.T) {
	p := testPresigner(t, 5*time.Minute)

	a, err := p.PresignUpload(context.Background(), "deal-1", "sow.pdf", "")
	require.NoError(t, err)
	b, err := p.PresignUpload(context.Background(), "deal-1", "sow.pdf", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key)
}

func TestPresignUploadValidation(t *testing.T) {
	p := testPresigner(t, 5*time.Minute)

	_, err := p.PresignUpload(context.Background(), "", "sow.pdf", "")
	assert.Error(t, err)

	_, err = p.PresignUpload(context.Background(), "deal-1", "", "")
	assert.Error(t, err)

	// path traversal is stripped down to the base name
	up, err := p.PresignUpload(context.Background(), "deal-1", "../../etc/passwd", "")
	require.NoError(t, err)
	assert.NotContains(t, up.Key, "..")
}

func TestPresignDownload(t *testing.T) {
	p := testPresigner(t, time.Minute)

	url, err := p.PresignDownload(context.Background(), "deals/deal-1/abc-sow.pdf")
	require.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Signature")

	_, err = p.PresignDownload(context.Background(), "")
	assert.Error(t, err)
}
