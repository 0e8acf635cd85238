package testutil

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"brigade-service/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type memObject struct {
	body         []byte
	contentType  string
	etag         string
	lastModified time.Time
}

// MemoryS3 is an in-memory bucket that satisfies storage.S3API and
// storage.Presigner. Hooks inject failures per key.
type MemoryS3 struct {
	mu      sync.Mutex
	objects map[string]memObject
	signed  int
	puts    int

	// PutHook runs before an object is stored; a non-nil error fails the put.
	// n is the 1-based count of put attempts.
	PutHook func(key string, n int) error
	// DeleteHook runs before an object is removed.
	DeleteHook func(key string) error

	Now func() time.Time
}

func NewMemoryS3() *MemoryS3 {
	return &MemoryS3{
		objects: make(map[string]memObject),
		Now:     time.Now,
	}
}

// NewStore wires a real gateway on top of mem.
func NewStore(mem *MemoryS3) *storage.Client {
	return storage.New(storage.S3Config{
		Region: "us-east-1",
		Bucket: "test-bucket",
		Prefix: storage.DefaultPrefix,
	}, mem, mem)
}

func (m *MemoryS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := aws.ToString(params.Key)

	m.mu.Lock()
	m.puts++
	n := m.puts
	hook := m.PutHook
	m.mu.Unlock()

	if hook != nil {
		if err := hook(key, n); err != nil {
			return nil, err
		}
	}

	var body []byte
	if params.Body != nil {
		b, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		body = b
	}
	sum := md5.Sum(body)
	etag := hex.EncodeToString(sum[:])

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{
		body:         body,
		contentType:  aws.ToString(params.ContentType),
		etag:         etag,
		lastModified: m.Now(),
	}
	return &s3.PutObjectOutput{ETag: aws.String(`"` + etag + `"`)}, nil
}

func (m *MemoryS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := aws.ToString(params.Key)
	if m.DeleteHook != nil {
		if err := m.DeleteHook(key); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *MemoryS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.body))),
		ContentType:   aws.String(obj.contentType),
		ETag:          aws.String(`"` + obj.etag + `"`),
		LastModified:  aws.Time(obj.lastModified),
	}, nil
}

func (m *MemoryS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	obj, ok := m.objects[aws.ToString(params.Key)]
	m.mu.Unlock()
	if !ok {
		return nil, &types.NoSuchKey{}
	}

	body := obj.body
	if r := aws.ToString(params.Range); strings.HasPrefix(r, "bytes=0-") {
		if end, err := strconv.Atoi(strings.TrimPrefix(r, "bytes=0-")); err == nil && end+1 < len(body) {
			body = body[:end+1]
		}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(obj.contentType),
	}, nil
}

func (m *MemoryS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := aws.ToString(params.Prefix)
	out := &s3.ListObjectsV2Output{}
	for _, key := range m.keysLocked() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		obj := m.objects[key]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.body))),
			ETag:         aws.String(`"` + obj.etag + `"`),
			LastModified: aws.Time(obj.lastModified),
		})
	}
	return out, nil
}

func (m *MemoryS3) PresignGetObject(_ context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return m.presign(http.MethodGet, aws.ToString(params.Key), optFns)
}

func (m *MemoryS3) PresignPutObject(_ context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return m.presign(http.MethodPut, aws.ToString(params.Key), optFns)
}

func (m *MemoryS3) presign(method, key string, optFns []func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	m.mu.Lock()
	m.signed++
	sig := m.signed
	m.mu.Unlock()

	q := url.Values{}
	q.Set("X-Amz-Expires", strconv.Itoa(int(opts.Expires.Seconds())))
	q.Set("X-Amz-Signature", fmt.Sprintf("%064x", sig))
	return &v4.PresignedHTTPRequest{
		URL:          "https://test-bucket.s3.local/" + key + "?" + q.Encode(),
		Method:       method,
		SignedHeader: http.Header{"Host": []string{"test-bucket.s3.local"}},
	}, nil
}

// Put stores an object directly, as a client using a presigned URL would.
func (m *MemoryS3) Put(key, contentType string, body []byte) {
	sum := md5.Sum(body)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{
		body:         body,
		contentType:  contentType,
		etag:         hex.EncodeToString(sum[:]),
		lastModified: m.Now(),
	}
}

// Touch backdates an object.
func (m *MemoryS3) Touch(key string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if obj, ok := m.objects[key]; ok {
		obj.lastModified = at
		m.objects[key] = obj
	}
}

func (m *MemoryS3) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *MemoryS3) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keysLocked()
}

func (m *MemoryS3) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *MemoryS3) keysLocked() []string {
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	_ storage.S3API     = (*MemoryS3)(nil)
	_ storage.Presigner = (*MemoryS3)(nil)
)
