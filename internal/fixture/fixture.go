// Package fixture loads batches of source records from YAML, JSON or CUE
// files and appends them to a store.
package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/model"
	"github.com/roach88/shipledger/internal/store"
)

// Fixture is a batch of source records.
type Fixture struct {
	Transactions  []model.TransactionRecord `yaml:"transactions" json:"transactions"`
	OperationLogs []OperationLog            `yaml:"operation_logs" json:"operation_logs"`
	Departures    []model.DepartureRecord   `yaml:"departures" json:"departures"`
}

// OperationLog is an operation-log record whose details payload is written
// inline as a mapping instead of a JSON string.
type OperationLog struct {
	ID            string         `yaml:"id" json:"id"`
	TimestampMs   int64          `yaml:"timestamp_ms" json:"timestamp_ms"`
	OperationName string         `yaml:"operation_name" json:"operation_name"`
	Status        string         `yaml:"status" json:"status"`
	Summary       string         `yaml:"summary" json:"summary"`
	Details       map[string]any `yaml:"details" json:"details"`
}

// Record converts the fixture row to a store record. A missing status
// defaults to "success".
func (l OperationLog) Record() (model.OperationLogRecord, error) {
	rec := model.OperationLogRecord{
		ID:            l.ID,
		TimestampMs:   l.TimestampMs,
		OperationName: l.OperationName,
		Status:        l.Status,
		Summary:       l.Summary,
	}
	if rec.Status == "" {
		rec.Status = "success"
	}
	if l.Details != nil {
		raw, err := json.Marshal(l.Details)
		if err != nil {
			return model.OperationLogRecord{}, fmt.Errorf("encode details: %w", err)
		}
		rec.DetailsRaw = raw
	}
	return rec, nil
}

// Len returns the number of records in the fixture.
func (f *Fixture) Len() int {
	return len(f.Transactions) + len(f.OperationLogs) + len(f.Departures)
}

// Error codes for fixture problems.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeDecode        = "E006" // Fixture could not be decoded
	ErrCodeMissingID     = "E101" // Record without id
	ErrCodeNegativeTime  = "E102" // Negative timestamp
	ErrCodeDuplicateID   = "E103" // Same id twice within one source
	ErrCodeFormatUnknown = "E104" // Unsupported file extension
	ErrCodeBadDetails    = "E105" // Operation details do not parse
)

// LoadError represents an error that occurred during fixture loading.
type LoadError struct {
	Code    string
	Message string
	Path    string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a fixture file. YAML (.yaml, .yml), JSON (.json) and CUE (.cue)
// files are accepted; CUE files must evaluate to concrete data.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "fixture not found"}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Path: path, Message: err.Error()}
	}

	var fx *Fixture
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		fx, err = decodeYAML(data)
	case ".cue":
		fx, err = decodeCUE(data, path)
	default:
		return nil, &LoadError{Code: ErrCodeFormatUnknown, Path: path,
			Message: fmt.Sprintf("unsupported fixture format %q", filepath.Ext(path))}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Path: path, Message: err.Error()}
	}

	if err := fx.Validate(); err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return fx, nil
}

// decodeYAML decodes YAML or JSON. Unknown keys are an error.
func decodeYAML(data []byte) (*Fixture, error) {
	fx := &Fixture{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(fx); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return fx, nil
}

func decodeCUE(data []byte, path string) (*Fixture, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	fx := &Fixture{}
	if err := v.Decode(fx); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return fx, nil
}

// Validate checks ids, timestamps and operation payloads without touching
// a store. It returns a *LoadError.
func (f *Fixture) Validate() error {
	check := func(source string, seen map[string]bool, id string, ts int64) *LoadError {
		if id == "" {
			return &LoadError{Code: ErrCodeMissingID, Message: source + " record without id"}
		}
		if ts < 0 {
			return &LoadError{Code: ErrCodeNegativeTime, Message: fmt.Sprintf("%s %s: negative timestamp", source, id)}
		}
		if seen[id] {
			return &LoadError{Code: ErrCodeDuplicateID, Message: fmt.Sprintf("%s %s: duplicate id", source, id)}
		}
		seen[id] = true
		return nil
	}

	seen := map[string]bool{}
	for _, tx := range f.Transactions {
		if err := check("transaction", seen, tx.ID, tx.TimestampSec); err != nil {
			return err
		}
	}
	seen = map[string]bool{}
	for _, l := range f.OperationLogs {
		if err := check("operation log", seen, l.ID, l.TimestampMs); err != nil {
			return err
		}
		rec, err := l.Record()
		if err == nil {
			_, err = model.ParseDetails(classify.DetailsKindFor(rec.OperationName), rec.DetailsRaw)
		}
		if err != nil {
			return &LoadError{Code: ErrCodeBadDetails, Message: fmt.Sprintf("operation log %s: %v", l.ID, err)}
		}
	}
	seen = map[string]bool{}
	for _, d := range f.Departures {
		if err := check("departure", seen, d.ID, d.TimestampMs); err != nil {
			return err
		}
	}
	return nil
}

// Counts is the outcome of an import for one source.
type Counts struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

func (c *Counts) add(inserted bool) {
	if inserted {
		c.Inserted++
	} else {
		c.Skipped++
	}
}

// Result counts the records written and skipped by Apply. Records whose id
// is already stored are skipped.
type Result struct {
	Transactions  Counts `json:"transactions"`
	OperationLogs Counts `json:"operation_logs"`
	Departures    Counts `json:"departures"`
}

// Apply appends every record of f to st. Call Validate first; Apply stops at
// the first store error.
func (f *Fixture) Apply(ctx context.Context, st *store.Store) (Result, error) {
	var res Result
	for _, l := range f.OperationLogs {
		rec, err := l.Record()
		if err != nil {
			return res, fmt.Errorf("operation log %s: %w", l.ID, err)
		}
		ok, err := st.AppendOperationLog(ctx, rec)
		if err != nil {
			return res, err
		}
		res.OperationLogs.add(ok)
	}
	for _, tx := range f.Transactions {
		ok, err := st.AppendTransaction(ctx, tx)
		if err != nil {
			return res, err
		}
		res.Transactions.add(ok)
	}
	for _, d := range f.Departures {
		ok, err := st.AppendDeparture(ctx, d)
		if err != nil {
			return res, err
		}
		res.Departures.add(ok)
	}
	return res, nil
}
