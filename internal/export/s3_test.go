package export

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shipledger/internal/store"
)

// putRecorder is an HTTP transport that accepts PutObject requests and keeps
// their bodies.
type putRecorder struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    bool
}

func (r *putRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	if r.fail {
		return &http.Response{StatusCode: http.StatusForbidden, Body: io.NopCloser(strings.NewReader(
			`<?xml version="1.0"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)),
			Header: http.Header{"Content-Type": {"application/xml"}}}, nil
	}
	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	body, _ := io.ReadAll(req.Body)
	if dec, ok := decodeChunked(body); ok {
		body = dec
	}

	r.mu.Lock()
	r.objects[strings.TrimPrefix(req.URL.Path, "/")] = body
	r.types[strings.TrimPrefix(req.URL.Path, "/")] = req.Header.Get("Content-Type")
	r.mu.Unlock()

	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {`"etag"`}}}, nil
}

// decodeChunked unwraps a single-chunk aws-chunked payload: <hex>\r\n<body>\r\n0\r\n...
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.SplitN(string(b), "\r\n", 3)
	if len(parts) < 3 || !strings.HasPrefix(parts[2], "0") {
		return nil, false
	}
	var size int
	for _, c := range parts[0] {
		switch {
		case c >= '0' && c <= '9':
			size = size*16 + int(c-'0')
		case c >= 'a' && c <= 'f':
			size = size*16 + int(c-'a') + 10
		default:
			return nil, false
		}
	}
	if size != len(parts[1]) {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newMockSink(t *testing.T, rec *putRecorder, key string) *S3Sink {
	t.Helper()
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.HTTPClient = &http.Client{Transport: rec}
		o.UsePathStyle = true
		o.RetryMaxAttempts = 1
	})
	return NewS3SinkWithClient(client, "test-bucket", key)
}

func TestS3Sink_Put(t *testing.T) {
	rec := &putRecorder{objects: map[string][]byte{}, types: map[string]string{}}
	sink := newMockSink(t, rec, "exports/ledger.jsonl")

	loc, err := sink.Put(context.Background(), []byte("{\"a\":1}\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3://test-bucket/exports/ledger.jsonl", loc)

	body, ok := rec.objects["test-bucket/exports/ledger.jsonl"]
	require.True(t, ok, "object stored under bucket/key")
	assert.Contains(t, string(body), `{"a":1}`)
	assert.Equal(t, "application/x-ndjson", rec.types["test-bucket/exports/ledger.jsonl"])
}

func TestS3Sink_PutError(t *testing.T) {
	rec := &putRecorder{objects: map[string][]byte{}, types: map[string]string{}, fail: true}
	sink := newMockSink(t, rec, "ledger.jsonl")

	_, err := sink.Put(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://test-bucket/ledger.jsonl")
}

func TestLedger_ToS3(t *testing.T) {
	st := seededStore(t)
	rec := &putRecorder{objects: map[string][]byte{}, types: map[string]string{}}
	sink := newMockSink(t, rec, "ledger.jsonl")

	res, err := Ledger(context.Background(), st, store.ListFilter{}, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.Contains(t, string(rec.objects["test-bucket/ledger.jsonl"]), `"pod1_id":"t1"`)
}

func TestNewS3Sink_RequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{})
	assert.Error(t, err)
}
