package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shipledger/internal/export"
)

func TestExport_File(t *testing.T) {
	dbPath := builtStore(t)
	target := filepath.Join(t.TempDir(), "ledger.jsonl")

	stdout, _, err := execute(t, "export", "--db", dbPath, target)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Exported 3 rows")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"pod1_id":"t1"`)
}

func TestExport_UnmatchedJSON(t *testing.T) {
	dbPath := builtStore(t)
	target := filepath.Join(t.TempDir(), "unmatched.jsonl")

	stdout, _, err := execute(t, "--format", "json", "export", "--db", dbPath, "--unmatched", target)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   export.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Rows)
	assert.Equal(t, target, resp.Data.Location)
}

func TestExport_InvalidTarget(t *testing.T) {
	dbPath := builtStore(t)

	_, _, err := execute(t, "export", "--db", dbPath, "s3://bucket-only")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid export target")
}

func TestExport_StoreNotFound(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "export", "--db", filepath.Join(dir, "missing.db"), filepath.Join(dir, "out.jsonl"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
