package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ammiranda/tree_diagram/layout"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecords = `[
  {"id": 1, "title": "root", "parentId": null},
  {"id": 2, "title": "a", "parentId": 1},
  {"id": 3, "title": "b", "parentId": 1}
]`

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLayoutJSON(t *testing.T) {
	out, err := runCLI(t, sampleRecords, "layout", "-")
	require.NoError(t, err)

	var d layout.Diagram
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	require.Len(t, d.Nodes, 3)
	assert.Equal(t, int64(1), d.Nodes[0].ID)
	assert.Equal(t, 0.0, d.Nodes[0].X)
	assert.Equal(t, -150.0, d.Nodes[1].X)
	assert.Equal(t, 140.0, d.Nodes[2].Y)
	assert.Len(t, d.Edges, 2)
}

func TestLayoutFormats(t *testing.T) {
	path := writeFile(t, "records.json", sampleRecords)

	out, err := runCLI(t, "", "layout", path, "--format", "svg")
	require.NoError(t, err)
	assert.Contains(t, out, "<svg")
	assert.Equal(t, 3, strings.Count(out, "<rect"))

	out, err = runCLI(t, "", "layout", path, "-f", "dot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph tree {"))
	assert.Contains(t, out, "1 -> 2;")

	_, err = runCLI(t, "", "layout", path, "--format", "png")
	assert.ErrorContains(t, err, "unknown format")
}

func TestLayoutOutputFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.dot")
	out, err := runCLI(t, sampleRecords, "layout", "-", "-f", "dot", "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph tree {")
}

func TestLayoutOutputFileNotCreatedOnError(t *testing.T) {
	dir := t.TempDir()

	dest := filepath.Join(dir, "bad-format.svg")
	_, err := runCLI(t, sampleRecords, "layout", "-", "--format", "bogus", "-o", dest)
	require.Error(t, err)
	assert.NoFileExists(t, dest)

	dest = filepath.Join(dir, "orphan.json")
	_, err = runCLI(t, `[{"id": 2, "parentId": 9}]`, "layout", "-", "-o", dest)
	assert.ErrorIs(t, err, layout.ErrDanglingReference)
	assert.NoFileExists(t, dest)

	_, err = runCLI(t, sampleRecords, "layout", "-", "-o", filepath.Join(dir, "missing", "out.json"))
	assert.Error(t, err, "unwritable output is reported")
}

func TestMigrateSQLite(t *testing.T) {
	db := filepath.Join(t.TempDir(), "nodes.db")

	out, err := runCLI(t, "", "migrate", "version", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out, "fresh database has no schema")

	out, err = runCLI(t, "", "migrate", "up", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = runCLI(t, "", "migrate", "down", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = runCLI(t, "", "migrate", "down", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	_, err = runCLI(t, "", "migrate", "down", "--db", db)
	assert.ErrorContains(t, err, "no migrations to rollback")

	_, err = runCLI(t, "", "migrate", "version", "--store", "memory")
	assert.ErrorContains(t, err, "unknown store")
}

func TestLayoutDanglingPolicy(t *testing.T) {
	orphan := `[{"id": 1, "title": "root"}, {"id": 2, "title": "orphan", "parentId": 9}]`

	_, err := runCLI(t, orphan, "layout", "-")
	assert.ErrorIs(t, err, layout.ErrDanglingReference)

	out, err := runCLI(t, orphan, "layout", "-", "--dangling", "root")
	require.NoError(t, err)
	var d layout.Diagram
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Len(t, d.Nodes, 2)
	assert.Empty(t, d.Edges)

	_, err = runCLI(t, orphan, "layout", "-", "--dangling", "drop")
	assert.Error(t, err)
}

func TestLayoutConfigFile(t *testing.T) {
	cfg := writeFile(t, "tree.toml", `
[layout]
node_width = 100
horizontal_spacing = 20
dangling = "root"
`)
	orphan := `[{"id": 1, "title": "root"}, {"id": 2, "title": "a", "parentId": 1}, {"id": 3, "title": "b", "parentId": 1}, {"id": 4, "title": "orphan", "parentId": 9}]`

	out, err := runCLI(t, orphan, "layout", "-", "--config", cfg)
	require.NoError(t, err)
	var d layout.Diagram
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	node, ok := d.Node(2)
	require.True(t, ok)
	assert.Equal(t, -60.0, node.X)
	_, ok = d.Node(4)
	assert.True(t, ok, "config promotes dangling records")

	_, err = runCLI(t, "", "layout", "-", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLayoutBadInput(t *testing.T) {
	_, err := runCLI(t, `{"id": 1}`, "layout", "-")
	assert.ErrorContains(t, err, "error decoding records")

	_, err = runCLI(t, "", "layout")
	assert.Error(t, err, "FILE is required")

	_, err = runCLI(t, "", "layout", filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestServeUnknownStore(t *testing.T) {
	_, err := runCLI(t, "", "serve", "--store", "mongo")
	assert.ErrorContains(t, err, "unknown store")
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		verbose bool
		env     string
		want    log.Level
		wantErr bool
	}{
		{false, "", log.InfoLevel, false},
		{false, "warn", log.WarnLevel, false},
		{false, "DEBUG", log.DebugLevel, false},
		{true, "error", log.DebugLevel, false},
		{false, "loud", log.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			got, err := logLevel(tt.verbose, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownLogLevelFailsCommand(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	_, err := runCLI(t, sampleRecords, "layout", "-")
	assert.ErrorContains(t, err, "unknown log level")
}
