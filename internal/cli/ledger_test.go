package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Text(t *testing.T) {
	dbPath := builtStore(t)

	stdout, _, err := execute(t, "ledger", "--db", dbPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "POD1"))
	assert.Contains(t, lines[1], "t1")
	assert.Contains(t, lines[1], "l1")
	assert.Contains(t, lines[2], "d1")
	assert.Contains(t, lines[3], "weird_tag")
	fields := strings.Fields(lines[3])
	assert.Equal(t, []string{"-", "-"}, fields[len(fields)-2:], "unmatched columns shown as dashes")
}

func TestLedger_Unmatched(t *testing.T) {
	dbPath := builtStore(t)

	stdout, _, err := execute(t, "--format", "json", "ledger", "--db", dbPath, "--unmatched")
	require.NoError(t, err)

	var resp struct {
		Data LedgerResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, "t3", resp.Data.Entries[0].Pod1ID)
	assert.Equal(t, int64(42), resp.Data.Entries[0].CashAmount)
}

func TestLedger_ContextAndLimit(t *testing.T) {
	dbPath := builtStore(t)

	stdout, _, err := execute(t, "--format", "json", "ledger", "--db", dbPath, "--context", "vessels_departed")
	require.NoError(t, err)

	var resp struct {
		Data LedgerResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, 1, resp.Data.Count)
	e := resp.Data.Entries[0]
	assert.Equal(t, "l2", e.Pod2ID)
	assert.Equal(t, "d1", e.Pod3ID)
	require.NotNil(t, e.Pod3VesselSnapshot)
	assert.Equal(t, int64(7), e.Pod3VesselSnapshot.VesselID)

	stdout, _, err = execute(t, "--format", "json", "ledger", "--db", dbPath, "--limit", "2")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, 2, resp.Data.Count)
}

func TestLedger_Empty(t *testing.T) {
	dbPath := importedStore(t)

	stdout, _, err := execute(t, "ledger", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No ledger entries\n", stdout)
}

func TestLedger_StoreNotFound(t *testing.T) {
	_, _, err := execute(t, "ledger", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
