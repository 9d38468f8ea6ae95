package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-explain/errcode"
	"sql-explain/log"
)

const tablesYAML = `
tables:
  - name: t
    columns:
      - {name: a, type: bigint}
      - {name: s, type: varchar}
    rows:
      - [1, x]
      - [2, y]
    filter_push_down: exact
    limit_push_down: true
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	defer log.SetLogger(slog.Default())()
	cmd := New()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExplainStdin(t *testing.T) {
	out, err := run(t, "filter numbers.number#0 = 1\n  scan numbers(10)\n", "explain")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Filter\n├── filters: [numbers.number (#0) = 1]\n├── estimated rows: 3.33\n"), out)
	assert.Contains(t, out, "push downs: [filters: [numbers.number (#0) = 1], limit: NONE]")
}

func TestExplainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.txt")
	require.NoError(t, os.WriteFile(path, []byte("limit 1\n  scan numbers(10)"), 0o644))

	out, err := run(t, "", "explain", path)
	require.NoError(t, err)
	assert.Contains(t, out, "push downs: [filters: [], limit: 1]")

	out, err = run(t, "", "explain", "--raw", path)
	require.NoError(t, err)
	assert.Contains(t, out, "push downs: [filters: [], limit: NONE]")

	_, err = run(t, "", "explain", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tablesYAML), 0o644))

	out, err := run(t, "", "--config", path, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "TABLE")
	assert.Regexp(t, `default\.default\.t\s+2\s+2\s+1\s+48 B\s+exact\s+true`, out)

	out, err = run(t, "scan t", "--config", path, "explain")
	require.NoError(t, err)
	assert.Contains(t, out, "table: default.default.t")
}

func TestErrors(t *testing.T) {
	_, err := run(t, "scan nowhere", "explain")
	require.Error(t, err)
	assert.Equal(t, errcode.UnknownTable, errcode.Of(err))

	_, err = run(t, "scan numbers(1)", "--log-level", "loud", "explain")
	assert.Error(t, err)

	_, err = run(t, "", "tables", "extra")
	assert.Error(t, err)
}
