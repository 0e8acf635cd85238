package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	appconfig "brigade-service/config"
	"brigade-service/internal/domain/image"
	brigade_errors "brigade-service/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts      []*s3.PutObjectInput
	deletes   []string
	putErr    error
	deleteErr error
	headErr   error
	head      *s3.HeadObjectOutput
	pages     []*s3.ListObjectsV2Output
	getRanges []string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{ETag: aws.String(`"abc123"`)}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return f.head, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.getRanges = append(f.getRanges, aws.ToString(in.Range))
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("data"))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if len(f.pages) == 0 {
		return &s3.ListObjectsV2Output{}, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

type fakePresigner struct {
	calls int
}

func (p *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	p.calls++
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &v4.PresignedHTTPRequest{
		URL:    "https://bucket.example/" + aws.ToString(in.Key) + "?X-Amz-Expires=" + opts.Expires.String(),
		Method: "GET",
	}, nil
}

func (p *fakePresigner) PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	p.calls++
	return &v4.PresignedHTTPRequest{
		URL:          "https://bucket.example/" + aws.ToString(in.Key),
		Method:       "PUT",
		SignedHeader: map[string][]string{"Host": {"bucket.example"}, "Content-Length": {"42"}},
	}, nil
}

func newTestClient(api *fakeS3) (*Client, *fakePresigner) {
	p := &fakePresigner{}
	return New(S3Config{Bucket: "brigade", Region: "eu-central-1"}, api, p), p
}

func jpegFile(size int64) FileInput {
	return FileInput{Name: "photo.JPG", ContentType: "image/jpeg", Size: size, Body: bytes.NewReader(make([]byte, size))}
}

func TestValidateFile(t *testing.T) {
	c, _ := newTestClient(&fakeS3{})

	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     error
	}{
		{"jpeg", "image/jpeg", 10, nil},
		{"png with params", "image/png; charset=binary", 10, nil},
		{"webp", "image/webp", 10, nil},
		{"heic", "IMAGE/HEIC", 10, nil},
		{"gif rejected", "image/gif", 10, brigade_errors.ErrUnsupportedMediaType},
		{"pdf rejected", "application/pdf", 10, brigade_errors.ErrUnsupportedMediaType},
		{"empty type", "", 10, brigade_errors.ErrUnsupportedMediaType},
		{"zero size", "image/png", 0, brigade_errors.ErrPayloadTooLarge},
		{"max size", "image/png", DefaultMaxUploadBytes, nil},
		{"over max", "image/png", DefaultMaxUploadBytes + 1, brigade_errors.ErrPayloadTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ValidateFile("f", tt.contentType, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpload_RejectsBeforeNetwork(t *testing.T) {
	api := &fakeS3{}
	c, _ := newTestClient(api)
	owner := image.ReportOwner(3)

	_, err := c.Upload(context.Background(), owner, FileInput{Name: "a.gif", ContentType: "image/gif", Size: 5, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, brigade_errors.ErrUnsupportedMediaType)

	_, err = c.Upload(context.Background(), owner, FileInput{Name: "a.png", ContentType: "image/png", Size: 0, Body: strings.NewReader("")})
	assert.ErrorIs(t, err, brigade_errors.ErrPayloadTooLarge)

	_, err = c.Upload(context.Background(), image.Owner{}, jpegFile(5))
	assert.ErrorIs(t, err, brigade_errors.ErrInvalidInput)

	assert.Empty(t, api.puts)
}

func TestUpload_KeyEncryptionAndETag(t *testing.T) {
	api := &fakeS3{}
	c, _ := newTestClient(api)

	res, err := c.Upload(context.Background(), image.CampaignOwner(7), jpegFile(16))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^uploads/campaign/7/images/[0-9a-f]{32}\.jpg$`), res.Key)
	assert.Equal(t, "abc123", res.ETag)
	assert.Equal(t, "image/jpeg", res.ContentType)

	require.Len(t, api.puts, 1)
	put := api.puts[0]
	assert.Equal(t, types.ServerSideEncryptionAes256, put.ServerSideEncryption)
	assert.Equal(t, "brigade", aws.ToString(put.Bucket))
	assert.Equal(t, int64(16), aws.ToInt64(put.ContentLength))
	assert.Equal(t, "image/jpeg", aws.ToString(put.ContentType))
}

func TestUpload_KeysAreUnique(t *testing.T) {
	api := &fakeS3{}
	c, _ := newTestClient(api)

	a, err := c.Upload(context.Background(), image.PostOwner(1), jpegFile(4))
	require.NoError(t, err)
	b, err := c.Upload(context.Background(), image.PostOwner(1), jpegFile(4))
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestUpload_StoreFailure(t *testing.T) {
	c, _ := newTestClient(&fakeS3{putErr: errors.New("connection reset")})

	_, err := c.Upload(context.Background(), image.PostOwner(1), jpegFile(4))
	assert.ErrorIs(t, err, brigade_errors.ErrUpstreamStore)
}

func TestExtFor(t *testing.T) {
	assert.Equal(t, ".png", extFor("scan.PNG", "image/png"))
	assert.Equal(t, ".jpg", extFor("noext", "image/jpeg"))
	assert.Equal(t, ".webp", extFor("", "image/webp"))
	assert.Equal(t, ".heic", extFor("weird.name.with spaces", "image/heic"))
	assert.Equal(t, ".bin", extFor("", "application/octet-stream"))
}

func TestDelete(t *testing.T) {
	t.Run("empty key", func(t *testing.T) {
		api := &fakeS3{}
		c, _ := newTestClient(api)
		assert.ErrorIs(t, c.Delete(context.Background(), "   "), brigade_errors.ErrInvalidInput)
		assert.Empty(t, api.deletes)
	})

	t.Run("missing object is success", func(t *testing.T) {
		c, _ := newTestClient(&fakeS3{deleteErr: &types.NoSuchKey{}})
		assert.NoError(t, c.Delete(context.Background(), "uploads/post/1/images/a.jpg"))
	})

	t.Run("generic not found code is success", func(t *testing.T) {
		c, _ := newTestClient(&fakeS3{deleteErr: &smithy.GenericAPIError{Code: "NotFound"}})
		assert.NoError(t, c.Delete(context.Background(), "k"))
	})

	t.Run("access denied", func(t *testing.T) {
		c, _ := newTestClient(&fakeS3{deleteErr: &smithy.GenericAPIError{Code: "AccessDenied"}})
		assert.ErrorIs(t, c.Delete(context.Background(), "k"), brigade_errors.ErrUpstreamStore)
	})
}

func TestPresignedReadURL(t *testing.T) {
	c, p := newTestClient(&fakeS3{})

	u1, err := c.PresignedReadURL(context.Background(), "uploads/report/1/images/a.png", 0)
	require.NoError(t, err)
	u2, err := c.PresignedReadURL(context.Background(), "uploads/report/1/images/a.png", 0)
	require.NoError(t, err)

	assert.Equal(t, 2, p.calls, "every call presigns again")
	assert.Contains(t, u1, "15m0s")
	assert.NotEmpty(t, u2)

	_, err = c.PresignedReadURL(context.Background(), "", 0)
	assert.ErrorIs(t, err, brigade_errors.ErrInvalidInput)
}

func TestPresignedReadURL_RealSigner(t *testing.T) {
	sdk := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
		BaseEndpoint: aws.String("http://localhost:9000"),
		UsePathStyle: true,
	})
	c := New(S3Config{Bucket: "brigade", Region: "us-east-1"}, sdk, s3.NewPresignClient(sdk))

	for i := 0; i < 2; i++ {
		raw, err := c.PresignedReadURL(context.Background(), "uploads/post/9/images/x.webp", 0)
		require.NoError(t, err)

		parsed, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", parsed.Host)
		assert.Equal(t, "/brigade/uploads/post/9/images/x.webp", parsed.Path)
		assert.Equal(t, "900", parsed.Query().Get("X-Amz-Expires"))
		assert.NotEmpty(t, parsed.Query().Get("X-Amz-Signature"))
	}
}

func TestPresignedUploadURL(t *testing.T) {
	c, _ := newTestClient(&fakeS3{})

	up, err := c.PresignedUploadURL(context.Background(), image.ReportOwner(4), "a.png", "image/png", 42)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.Key, "uploads/report/4/images/"))
	assert.Equal(t, "image/png", up.Headers["Content-Type"])
	assert.Equal(t, "AES256", up.Headers["x-amz-server-side-encryption"])
	assert.Equal(t, "42", up.Headers["Content-Length"])
	_, hasHost := up.Headers["Host"]
	assert.False(t, hasHost)

	_, err = c.PresignedUploadURL(context.Background(), image.ReportOwner(4), "a.tiff", "image/tiff", 42)
	assert.ErrorIs(t, err, brigade_errors.ErrUnsupportedMediaType)
}

func TestStat(t *testing.T) {
	modified := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c, _ := newTestClient(&fakeS3{head: &s3.HeadObjectOutput{
		ContentLength: aws.Int64(99),
		ETag:          aws.String(`"e1"`),
		ContentType:   aws.String("image/png"),
		LastModified:  aws.Time(modified),
	}})

	info, err := c.Stat(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, int64(99), info.Size)
	assert.Equal(t, "e1", info.ETag)
	assert.Equal(t, modified, info.LastModified)

	missing, _ := newTestClient(&fakeS3{headErr: &types.NotFound{}})
	_, err = missing.Stat(context.Background(), "k")
	assert.ErrorIs(t, err, brigade_errors.ErrNotFound)
}

func TestReadHead_SetsRange(t *testing.T) {
	api := &fakeS3{}
	c, _ := newTestClient(api)

	body, err := c.ReadHead(context.Background(), "k", 1024)
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, []string{"bytes=0-1023"}, api.getRanges)
}

func TestListObjects_Paginates(t *testing.T) {
	api := &fakeS3{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{{Key: aws.String("uploads/a"), Size: aws.Int64(1)}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("t1"),
		},
		{
			Contents: []types.Object{{Key: aws.String("uploads/b"), Size: aws.Int64(2)}},
		},
	}}
	c, _ := newTestClient(api)

	objects, err := c.ListObjects(context.Background(), "uploads/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "uploads/a", objects[0].Key)
	assert.Equal(t, "uploads/b", objects[1].Key)
}

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver("test_storage", reg)
	require.NoError(t, err)

	again, err := NewPrometheusObserver("test_storage", reg)
	require.NoError(t, err, "re-registration reuses collectors")

	api := &fakeS3{}
	c := New(S3Config{Bucket: "b", Region: "r"}, api, &fakePresigner{}, WithObserver(obs))
	_, err = c.Upload(context.Background(), image.PostOwner(1), jpegFile(10))
	require.NoError(t, err)
	again.RecordOperation("delete", time.Millisecond, errors.New("boom"))

	assert.Equal(t, float64(10), testutil.ToFloat64(obs.uploadBytes))
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.operationErrors.WithLabelValues("delete")))
}

func TestS3ConfigFrom(t *testing.T) {
	cfg := S3ConfigFrom(&appconfig.Config{
		S3Region:        "eu-central-1",
		S3Bucket:        "brigade-images",
		S3Prefix:        "/uploads/",
		S3MaxUploadMB:   5,
		S3PresignTTLMin: 10,
	})
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 10*time.Minute, cfg.PresignTTL)

	c := New(cfg, &fakeS3{}, nil)
	assert.Equal(t, "uploads", c.Prefix())
}
