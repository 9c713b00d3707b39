package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/proxcli/internal/platform/s3"
)

func zerologNop() zerolog.Logger {
	return zerolog.Nop()
}

// fakeBucket is a minimal path-style S3 endpoint holding one bucket.
type fakeBucket struct {
	mu      sync.Mutex
	name    string
	objects map[string][]byte
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != f.name {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}

	switch {
	case key == "" && r.Method == http.MethodGet:
		f.list(w, r.URL.Query().Get("prefix"))
	case key == "" && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeBucket) list(w http.ResponseWriter, prefix string) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><IsTruncated>false</IsTruncated>", f.name, prefix, len(keys))
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", k, len(f.objects[k]))
	}
	b.WriteString("</ListBucketResult>")

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func newS3Store(t *testing.T, prefix string) (*Store, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{name: "proxcli-state", objects: map[string][]byte{}}
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	raw := awss3.New(awss3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		HTTPClient:   &http.Client{Transport: &http.Transport{}},
	})
	backend := NewS3Backend(s3.NewFromS3(raw, "us-east-1"), bucket.name, prefix)
	return New(backend), bucket
}

func TestS3Backend_StateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, bucket := newS3Store(t, "/clusters/home/")

	want := sampleState()
	require.NoError(t, s.WriteState(ctx, "lab", want))
	assert.Contains(t, bucket.objects, "clusters/home/lab.state")

	got, err := s.LoadState(ctx, "lab")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestS3Backend_MissingKeys(t *testing.T) {
	ctx := context.Background()
	s, _ := newS3Store(t, "")

	state, err := s.LoadState(ctx, "lab")
	require.NoError(t, err)
	assert.True(t, state.IsEmpty())

	_, ok, err := s.LoadPlan(ctx, "lab")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.DeletePlan(ctx, "lab"))
}

func TestS3Backend_ListStacksIgnoresOtherPrefixes(t *testing.T) {
	ctx := context.Background()
	s, bucket := newS3Store(t, "home")

	bucket.objects["other/lab.state"] = []byte("{}")
	bucket.objects["home/nested/x.state"] = []byte("{}")
	require.NoError(t, s.WriteState(ctx, "lab", sampleState()))

	stacks, err := s.ListStacks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StackInfo{{Name: "lab", HasState: true}}, stacks)
}

func TestS3Backend_Location(t *testing.T) {
	b := NewS3Backend(nil, "bucket", "a/b/")
	assert.Equal(t, "s3://bucket/a/b/", b.Location())
	assert.Equal(t, "s3://bucket/", NewS3Backend(nil, "bucket", "").Location())
}
