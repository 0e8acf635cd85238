package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"brigade-service/internal/domain/image"
	brigade_errors "brigade-service/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

const (
	DefaultPrefix         = "uploads"
	DefaultMaxUploadBytes = 100 << 20
	DefaultPresignTTL     = 15 * time.Minute
)

// allowedContentTypes maps accepted image types to the extension used when
// the file name does not carry one.
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

type S3Config struct {
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	Endpoint       string
	Prefix         string
	MaxUploadBytes int64
	PresignTTL     time.Duration
}

func (c S3Config) withDefaults() S3Config {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	c.Prefix = strings.Trim(c.Prefix, "/")
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.PresignTTL <= 0 {
		c.PresignTTL = DefaultPresignTTL
	}
	return c
}

// S3API is the subset of *s3.Client the gateway uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Presigner is the subset of *s3.PresignClient the gateway uses.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// FileInput is one file to store.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadResult struct {
	Key         string
	ETag        string
	ContentType string
	Size        int64
}

type PresignedUpload struct {
	URL     string
	Key     string
	Headers map[string]string
}

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Client is the object store gateway. All configuration is injected.
type Client struct {
	cfg      S3Config
	s3       S3API
	presign  Presigner
	observer Observer
}

type Option func(*Client)

func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

func NewClient(ctx context.Context, cfg S3Config, opts ...Option) (*Client, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 region and bucket are required")
	}

	var loadOpts []func(*config.LoadOptions) error
	loadOpts = append(loadOpts, config.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return New(cfg, s3Client, s3.NewPresignClient(s3Client), opts...), nil
}

// New wires a gateway around already-built SDK clients.
func New(cfg S3Config, api S3API, presigner Presigner, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg.withDefaults(),
		s3:       api,
		presign:  presigner,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Bucket() string { return c.cfg.Bucket }

func (c *Client) Prefix() string { return c.cfg.Prefix }

func (c *Client) MaxUploadBytes() int64 { return c.cfg.MaxUploadBytes }

func (c *Client) PresignTTL() time.Duration { return c.cfg.PresignTTL }

// ValidateFile checks the declared type and size and returns the normalized
// content type. It never touches the network.
func (c *Client) ValidateFile(name, contentType string, size int64) (string, error) {
	normalized := normalizeContentType(contentType)
	if _, ok := allowedContentTypes[normalized]; !ok {
		return "", fmt.Errorf("%w: %q", brigade_errors.ErrUnsupportedMediaType, contentType)
	}
	if size <= 0 || size > c.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", brigade_errors.ErrPayloadTooLarge, size, c.cfg.MaxUploadBytes)
	}
	return normalized, nil
}

// KeyPrefix is the directory under which every object of owner lives.
func (c *Client) KeyPrefix(owner image.Owner) string {
	return fmt.Sprintf("%s/%s/%d/images/", c.cfg.Prefix, owner.Kind, owner.ID)
}

// NewObjectKey builds <prefix>/<kind>/<id>/images/<random><ext>.
func (c *Client) NewObjectKey(owner image.Owner, fileName, contentType string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return c.KeyPrefix(owner) + random + extFor(fileName, contentType)
}

func (c *Client) Upload(ctx context.Context, owner image.Owner, file FileInput) (UploadResult, error) {
	if owner.IsZero() || !owner.Kind.Valid() {
		return UploadResult{}, fmt.Errorf("%w: owner %s", brigade_errors.ErrInvalidInput, owner)
	}
	contentType, err := c.ValidateFile(file.Name, file.ContentType, file.Size)
	if err != nil {
		return UploadResult{}, err
	}
	if file.Body == nil {
		return UploadResult{}, fmt.Errorf("%w: empty body", brigade_errors.ErrInvalidInput)
	}

	key := c.NewObjectKey(owner, file.Name, contentType)
	start := time.Now()
	out, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(c.cfg.Bucket),
		Key:                  aws.String(key),
		Body:                 file.Body,
		ContentType:          aws.String(contentType),
		ContentLength:        aws.Int64(file.Size),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	c.observer.RecordUpload(time.Since(start), file.Size, err)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: put %s: %v", brigade_errors.ErrUpstreamStore, key, err)
	}

	return UploadResult{
		Key:         key,
		ETag:        trimETag(aws.ToString(out.ETag)),
		ContentType: contentType,
		Size:        file.Size,
	}, nil
}

// Delete removes the object at key. A key that does not exist counts as
// deleted.
func (c *Client) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: object key is required", brigade_errors.ErrInvalidInput)
	}
	start := time.Now()
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil && isNotFound(err) {
		err = nil
	}
	c.observer.RecordOperation("delete", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", brigade_errors.ErrUpstreamStore, key, err)
	}
	return nil
}

// PresignedReadURL mints a new GET URL on every call. ttl <= 0 uses the
// configured default.
func (c *Client) PresignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: object key is required", brigade_errors.ErrInvalidInput)
	}
	if ttl <= 0 {
		ttl = c.cfg.PresignTTL
	}
	start := time.Now()
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = ttl
	})
	c.observer.RecordOperation("presign_get", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: presign get %s: %v", brigade_errors.ErrUpstreamStore, key, err)
	}
	return req.URL, nil
}

// PresignedUploadURL validates the file like Upload does and returns a PUT URL
// the client uploads to directly.
func (c *Client) PresignedUploadURL(ctx context.Context, owner image.Owner, fileName, contentType string, size int64) (PresignedUpload, error) {
	if owner.IsZero() || !owner.Kind.Valid() {
		return PresignedUpload{}, fmt.Errorf("%w: owner %s", brigade_errors.ErrInvalidInput, owner)
	}
	normalized, err := c.ValidateFile(fileName, contentType, size)
	if err != nil {
		return PresignedUpload{}, err
	}

	key := c.NewObjectKey(owner, fileName, normalized)
	start := time.Now()
	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(c.cfg.Bucket),
		Key:                  aws.String(key),
		ContentType:          aws.String(normalized),
		ContentLength:        aws.Int64(size),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	}, func(po *s3.PresignOptions) {
		po.Expires = c.cfg.PresignTTL
	})
	c.observer.RecordOperation("presign_put", time.Since(start), err)
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("%w: presign put %s: %v", brigade_errors.ErrUpstreamStore, key, err)
	}

	headers := map[string]string{
		"Content-Type":                 normalized,
		"x-amz-server-side-encryption": string(types.ServerSideEncryptionAes256),
	}
	for name, values := range req.SignedHeader {
		if strings.EqualFold(name, "host") || len(values) == 0 {
			continue
		}
		headers[name] = values[0]
	}

	return PresignedUpload{URL: req.URL, Key: key, Headers: headers}, nil
}

// Stat returns the object's metadata, or ErrNotFound.
func (c *Client) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if strings.TrimSpace(key) == "" {
		return ObjectInfo{}, fmt.Errorf("%w: object key is required", brigade_errors.ErrInvalidInput)
	}
	start := time.Now()
	out, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			c.observer.RecordOperation("head", time.Since(start), nil)
			return ObjectInfo{}, brigade_errors.ErrNotFound
		}
		c.observer.RecordOperation("head", time.Since(start), err)
		return ObjectInfo{}, fmt.Errorf("%w: head %s: %v", brigade_errors.ErrUpstreamStore, key, err)
	}
	c.observer.RecordOperation("head", time.Since(start), nil)

	return ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ETag:         trimETag(aws.ToString(out.ETag)),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// ReadHead opens at most limit bytes from the start of the object.
func (c *Client) ReadHead(ctx context.Context, key string, limit int64) (io.ReadCloser, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: object key is required", brigade_errors.ErrInvalidInput)
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}
	if limit > 0 {
		input.Range = aws.String(fmt.Sprintf("bytes=0-%d", limit-1))
	}
	start := time.Now()
	out, err := c.s3.GetObject(ctx, input)
	if err != nil {
		if isNotFound(err) {
			c.observer.RecordOperation("get", time.Since(start), nil)
			return nil, brigade_errors.ErrNotFound
		}
		c.observer.RecordOperation("get", time.Since(start), err)
		return nil, fmt.Errorf("%w: get %s: %v", brigade_errors.ErrUpstreamStore, key, err)
	}
	c.observer.RecordOperation("get", time.Since(start), nil)
	return out.Body, nil
}

// ListObjects walks every object under prefix.
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	start := time.Now()
	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.cfg.Bucket),
		Prefix: aws.String(prefix),
	})

	var objects []ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			c.observer.RecordOperation("list", time.Since(start), err)
			return nil, fmt.Errorf("%w: list %s: %v", brigade_errors.ErrUpstreamStore, prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         trimETag(aws.ToString(obj.ETag)),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	c.observer.RecordOperation("list", time.Since(start), nil)
	return objects, nil
}

func normalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func extFor(fileName, contentType string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if extPattern.MatchString(ext) {
		return ext
	}
	if mapped, ok := allowedContentTypes[contentType]; ok {
		return mapped
	}
	return ".bin"
}

func trimETag(etag string) string {
	return strings.Trim(etag, `"`)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
