package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/core"
	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "decaymem.yaml")
	cfg := `
vector_store:
  provider: sqlite
  config:
    db_path: ` + filepath.Join(dir, "memories.db") + `
embedder:
  provider: hash
log:
  level: error
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"store", "import", "search", "cleanup", "stats", "sweep"})
}

func TestStoreAndSearch(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "store", "I adopted a cat named Miso", "--role", "user", "--tag", "pets")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	_, err = run(t, "--config", cfg, "store", "Miso sounds lovely", "--role", "assistant")
	require.NoError(t, err)

	out, err = run(t, "--config", cfg, "search", "I adopted a cat named Miso", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `## Memory Search Results for: "I adopted a cat named Miso"`)
	assert.Contains(t, out, "**user**: I adopted a cat named Miso")

	out, err = run(t, "--config", cfg, "search", "anything", "--json")
	require.NoError(t, err)
	var results []*core.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results, 2)

	out, err = run(t, "--config", cfg, "stats", "--json")
	require.NoError(t, err)
	var stats core.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.TotalMemories)

	out, err = run(t, "--config", cfg, "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 0")
}

func TestImport(t *testing.T) {
	cfg := writeConfig(t)
	csvPath := filepath.Join(t.TempDir(), "memories.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"utterance,role,unix_timestamp\n"+
			"\"Remind me to water the plants, please\",user,1736000000\n"+
			"Sure. I will remind you tomorrow.,assistant,1736000030\n"+
			"What is the capital of Peru?,user,1736100000\n",
	), 0o600))

	out, err := run(t, "--config", cfg, "import", csvPath, "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "imported 3 memories")

	out, err = run(t, "--config", cfg, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "memories:     3")
}

func TestReadEntries(t *testing.T) {
	entries, err := readEntries(strings.NewReader("role,unix_timestamp,utterance\nassistant,1736000030.5,hello\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Content)
	assert.Equal(t, vectors.RoleAssistant, entries[0].Role)
	assert.Equal(t, []string{"conversation", "csv_data"}, entries[0].Tags)
	assert.Equal(t, time.Unix(1736000030, 500_000_000).UTC(), entries[0].Timestamp)

	_, err = readEntries(strings.NewReader(""))
	assert.Error(t, err)

	_, err = readEntries(strings.NewReader("utterance,role\nhi,user\n"))
	assert.ErrorContains(t, err, "unix_timestamp")

	_, err = readEntries(strings.NewReader("utterance,role,unix_timestamp\nhi,user,yesterday\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestSweepRequiresSchedule(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, "--config", cfg, "sweep")
	assert.Error(t, err)
}
