package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/internal/media"
)

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "stickers_1_2_by_bot/6ba7b810-9dad-11d1-80b4-00c04fd430c8.png",
		ObjectKey("stickers_1_2_by_bot", "sticker.png", id))
	assert.Equal(t, "p/6ba7b810-9dad-11d1-80b4-00c04fd430c8.webm", ObjectKey("p", "sticker.webm", id))
}

func TestNew_EndpointForms(t *testing.T) {
	for _, endpoint := range []string{"localhost:9000", "http://localhost:9000", "https://s3.example.com"} {
		s, err := New(Config{Endpoint: endpoint, Bucket: "b", Region: "us-east-1"})
		require.NoError(t, err, endpoint)
		assert.NotNil(t, s)
	}

	_, err := New(Config{Endpoint: "http://[::1"})
	assert.Error(t, err)
}

type s3Stub struct {
	mu      sync.Mutex
	puts    map[string][]byte
	headers map[string]http.Header
	buckets map[string]bool
}

func (s *s3Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	switch {
	case r.Method == http.MethodHead && len(parts) == 1:
		if s.buckets[bucket] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && len(parts) == 1:
		s.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		s.puts[parts[1]] = body
		s.headers[parts[1]] = r.Header.Clone()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStubStore(t *testing.T) (*ObjectStore, *s3Stub) {
	t.Helper()
	stub := &s3Stub{puts: map[string][]byte{}, headers: map[string]http.Header{}, buckets: map[string]bool{}}
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	s, err := New(Config{Endpoint: server.URL, AccessKey: "k", SecretKey: "s", Bucket: "stickers", Region: "us-east-1"})
	require.NoError(t, err)
	return s, stub
}

func TestObjectStore_EnsureBucket(t *testing.T) {
	s, stub := newStubStore(t)

	require.NoError(t, s.EnsureBucket(context.Background()))
	assert.True(t, stub.buckets["stickers"])

	require.NoError(t, s.EnsureBucket(context.Background()), "existing bucket is fine")
}

func TestObjectStore_Put(t *testing.T) {
	s, stub := newStubStore(t)

	art := media.Artifact{Data: []byte("png-bytes"), Format: media.FormatStatic, FileName: "sticker.png", MIME: "image/png"}
	key, err := s.Put(context.Background(), 42, "stickers_42_1_by_bot", art)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "stickers_42_1_by_bot/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	stub.mu.Lock()
	defer stub.mu.Unlock()
	// Plain-HTTP uploads may be aws-chunked; the payload is embedded verbatim.
	assert.Contains(t, string(stub.puts[key]), "png-bytes")
	assert.Equal(t, "image/png", stub.headers[key].Get("Content-Type"))
	assert.Equal(t, "42", stub.headers[key].Get("X-Amz-Meta-User-Id"))
}
