package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pixkeeper/internal/common"
	sc "github.com/dmitrijs2005/pixkeeper/internal/server/config"
)

type fakeObject struct {
	data        []byte
	contentType string
}

// fakeS3 speaks just enough path-style S3 for the adapter.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]fakeObject
	failGet bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{buckets: map[string]bool{}, objects: map[string]fakeObject{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")

	if key == "" {
		switch r.Method {
		case http.MethodHead:
			if !f.buckets[bucket] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			f.buckets[bucket] = true
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id := bucket + "/" + key
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[id] = fakeObject{data: data, contentType: r.Header.Get("Content-Type")}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if f.failGet {
			writeS3Error(w, http.StatusInternalServerError, "InternalError")
			return
		}
		obj, ok := f.objects[id]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(obj.data)
	case http.MethodDelete:
		delete(f.objects, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>`+code+`</Code><Message>`+code+`</Message></Error>`)
}

func testConfig(endpoint string) *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: endpoint,
		S3UsePathStyle: true,
		S3Bucket:       "gallery",
	}
}

func newTestStore(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	return store, fake
}

func TestS3Store_PutGetRemove(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "alice/cat.png", []byte("abc"), "image/png"))
	assert.Equal(t, []byte("abc"), fake.objects["gallery/alice/cat.png"].data)

	obj, err := store.Get(ctx, "alice/cat.png")
	require.NoError(t, err)
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, obj.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "abc", string(body))
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(3), obj.Size)

	require.NoError(t, store.Remove(ctx, "alice/cat.png"))
	_, err = store.Get(ctx, "alice/cat.png")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestS3Store_GetUpstreamFailure(t *testing.T) {
	store, fake := newTestStore(t)
	fake.failGet = true

	_, err := store.Get(context.Background(), "alice/cat.png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestS3Store_EnsureBucket(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureBucket(ctx))
	assert.True(t, fake.buckets["gallery"])

	require.NoError(t, store.EnsureBucket(ctx))
}

func TestS3Store_PresignGet(t *testing.T) {
	store, err := NewS3Store(context.Background(), testConfig("http://127.0.0.1:9000"))
	require.NoError(t, err)

	raw, err := store.PresignGet(context.Background(), "alice/cat.png", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", u.Host)
	assert.Equal(t, "/gallery/alice/cat.png", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestS3Store_PresignGetError(t *testing.T) {
	store, err := NewS3Store(context.Background(), testConfig("http://127.0.0.1:9000"))
	require.NoError(t, err)

	orig := presignGetObject
	t.Cleanup(func() { presignGetObject = orig })
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("sign failed")
	}

	_, err = store.PresignGet(context.Background(), "alice/cat.png", time.Minute)
	assert.ErrorContains(t, err, "sign failed")
}

func TestS3Store_PublicURL(t *testing.T) {
	store, err := NewS3Store(context.Background(), testConfig("http://127.0.0.1:9000/"))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000/gallery/alice/cat.png", store.PublicURL("alice/cat.png"))
}
