package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/shipledger/internal/model"
)

// marshalSnapshot converts a vessel snapshot to JSON TEXT, or NULL when absent.
// Struct field order makes the encoding deterministic.
func marshalSnapshot(v *model.VesselSnapshot) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal vessel snapshot: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalSnapshot parses JSON TEXT back into a snapshot. NULL yields nil.
func unmarshalSnapshot(data sql.NullString) (*model.VesselSnapshot, error) {
	if !data.Valid || data.String == "" {
		return nil, nil
	}
	var v model.VesselSnapshot
	if err := json.Unmarshal([]byte(data.String), &v); err != nil {
		return nil, fmt.Errorf("unmarshal vessel snapshot: %w", err)
	}
	return &v, nil
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt maps 0 to NULL. Only used for timestamps of absent matches.
func nullInt(n int64, valid bool) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: valid}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
