package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// basicFixture holds one matched fuel purchase, one departure matched to
// both its operation log and its departure record, and one unknown tag.
const basicFixture = `
transactions:
  - {id: t1, timestamp_sec: 1000, context: fuel_purchased, cash_delta: -500}
  - {id: t2, timestamp_sec: 2000, context: vessels_departed, cash_delta: 1200}
  - {id: t3, timestamp_sec: 3000, context: weird_tag, cash_delta: 42}
operation_logs:
  - id: l1
    timestamp_ms: 1000000
    operation_name: Auto-Fuel
    details: {totalCost: 500}
  - id: l2
    timestamp_ms: 2000000
    operation_name: Auto-Depart
    summary: 1 vessel departed
    details:
      vessels:
        - {vesselId: 7, name: Aurora, income: 1000, harborFee: -200, guards: 0}
departures:
  - {id: d1, timestamp_ms: 2000500, vessel_id: 7, vessel_name: Aurora, income: 1000, harbor_fee: -200}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// importedStore imports basicFixture into a new store and returns its path.
func importedStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	fixturePath := writeFile(t, dir, "basic.yaml", basicFixture)
	dbPath := filepath.Join(dir, "ledger.db")
	_, _, err := execute(t, "import", "--db", dbPath, fixturePath)
	require.NoError(t, err)
	return dbPath
}

// builtStore is importedStore followed by one build.
func builtStore(t *testing.T) string {
	t.Helper()
	dbPath := importedStore(t)
	_, _, err := execute(t, "build", "--db", dbPath)
	require.NoError(t, err)
	return dbPath
}
