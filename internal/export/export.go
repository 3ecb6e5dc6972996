// Package export writes the ledger as JSON lines to a local file or an S3
// object.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/shipledger/internal/model"
	"github.com/roach88/shipledger/internal/store"
)

// Sink receives one complete export.
type Sink interface {
	// Put stores body and returns where it was written.
	Put(ctx context.Context, body []byte) (string, error)
}

// Result describes a finished export.
type Result struct {
	Rows     int    `json:"rows"`
	Bytes    int    `json:"bytes"`
	Location string `json:"location"`
}

// WriteJSONL writes one JSON object per entry.
func WriteJSONL(w io.Writer, entries []model.LookupEntry) error {
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode entry %s: %w", e.Pod1ID, err)
		}
	}
	return nil
}

// Ledger exports the rows selected by filter to sink.
func Ledger(ctx context.Context, st *store.Store, filter store.ListFilter, sink Sink) (Result, error) {
	entries, err := st.ListEntries(ctx, filter)
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteJSONL(&buf, entries); err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}

	loc, err := sink.Put(ctx, buf.Bytes())
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	return Result{Rows: len(entries), Bytes: buf.Len(), Location: loc}, nil
}

// ParseS3Target splits "s3://bucket/key" into bucket and key.
// ok is false for anything that is not an s3 URL.
func ParseS3Target(target string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(target, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	return bucket, key, true
}

// Open returns the sink for target: an S3 sink for s3:// URLs, otherwise a
// file sink.
func Open(ctx context.Context, target string, cfg S3Config) (Sink, error) {
	bucket, key, isS3 := ParseS3Target(target)
	if !isS3 {
		if target == "" {
			return nil, fmt.Errorf("export target required")
		}
		return FileSink{Path: target}, nil
	}
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 target %q needs a bucket and a key", target)
	}
	cfg.Bucket = bucket
	cfg.Key = key
	return NewS3Sink(ctx, cfg)
}
