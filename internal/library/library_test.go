package library

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exercise runs the behavior every backend must share.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	defer func() { require.NoError(t, s.Close()) }()

	payload := []byte{0x5d, 0x3b, 0x79, 0x60, '\r', '\n', 0, 1, 2}
	e, err := s.Put(ctx, "scenes/a.voro", payload)
	require.NoError(t, err)
	assert.Equal(t, "scenes/a.voro", e.Name)
	assert.EqualValues(t, len(payload), e.Size)

	got, err := s.Get(ctx, "scenes/a.voro")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = s.Put(ctx, "scenes/a.voro", []byte("v2"))
	require.NoError(t, err)
	got, err = s.Get(ctx, "scenes/a.voro")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got, "put overwrites")

	_, err = s.Put(ctx, "b.voro", []byte("b"))
	require.NoError(t, err)
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b.voro", list[0].Name)
	assert.Equal(t, "scenes/a.voro", list[1].Name)

	_, err = s.Get(ctx, "missing.voro")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Delete(ctx, "b.voro")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(ctx, "b.voro")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Put(ctx, "../escape", nil)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestFS(t *testing.T) {
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DriverFS, s.Driver())
	exercise(t, s)
}

func TestSQLite(t *testing.T) {
	s, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "lib.db"))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, s.Driver())
	exercise(t, s)
}

func TestS3(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "none"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "none"))
	rt := &fakeS3{objects: map[string][]byte{}}
	s, err := NewS3(context.Background(), Config{
		Bucket:    "scenes",
		Endpoint:  "https://mock.s3.local",
		Prefix:    "team/",
		PathStyle: true,
		AccessKey: "AKIA",
		SecretKey: "SECRET",
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
	})
	require.NoError(t, err)
	exercise(t, s)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	for key := range rt.objects {
		assert.True(t, strings.HasPrefix(key, "team/"), key)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, s.Driver())

	_, err = Open(context.Background(), Config{Driver: "tape"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = Open(context.Background(), Config{Driver: DriverS3})
	assert.Error(t, err, "bucket is required")
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvDriver, "s3")
	t.Setenv(EnvBucket, "b")
	t.Setenv(EnvPathStyle, "TRUE")
	t.Setenv(EnvAccessKey, "minio")
	t.Setenv(EnvSecretKey, "minio123")
	cfg := FromEnv(Config{Driver: DriverFS, Path: "/tmp/x"})
	assert.Equal(t, Config{Driver: DriverS3, Path: "/tmp/x", Bucket: "b", PathStyle: true,
		AccessKey: "minio", SecretKey: "minio123"}, cfg)
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"a.voro", "a.voro", true},
		{"dir//b.voro", "dir/b.voro", true},
		{`dir\c.voro`, "dir/c.voro", true},
		{"", "", false},
		{"/etc/passwd", "", false},
		{"a/../../b", "", false},
		{".", "", false},
	}
	for _, tt := range tests {
		got, err := CleanName(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidName, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

// fakeS3 answers the subset of the S3 REST API used by the store.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(f.objects[k]))
		}
		b.WriteString("</ListBucketResult>")
		return respond(http.StatusOK, []byte(b.String()), "application/xml"), nil
	}

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			body = dechunk(body)
		}
		f.objects[key] = body
		return respond(http.StatusOK, nil, ""), nil
	case http.MethodGet, http.MethodHead:
		body, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, ""), nil
		}
		if req.Method == http.MethodHead {
			resp := respond(http.StatusOK, nil, "application/octet-stream")
			resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
			return resp, nil
		}
		return respond(http.StatusOK, body, "application/octet-stream"), nil
	case http.MethodDelete:
		delete(f.objects, key)
		return respond(http.StatusNoContent, nil, ""), nil
	}
	return respond(http.StatusNotImplemented, nil, ""), nil
}

func respond(status int, body []byte, contentType string) *http.Response {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	return &http.Response{
		StatusCode:    status,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

// dechunk decodes an aws-chunked body, ignoring chunk signatures and
// trailers.
func dechunk(b []byte) []byte {
	var out []byte
	for {
		i := bytes.Index(b, []byte("\r\n"))
		if i < 0 {
			return out
		}
		header := string(b[:i])
		if j := strings.IndexByte(header, ';'); j >= 0 {
			header = header[:j]
		}
		n, err := strconv.ParseInt(header, 16, 64)
		if err != nil || n == 0 || int(n) > len(b)-i-2 {
			return out
		}
		out = append(out, b[i+2:i+2+int(n)]...)
		b = b[i+2+int(n):]
		b = bytes.TrimPrefix(b, []byte("\r\n"))
	}
}
