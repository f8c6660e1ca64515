package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/core"
)

func TestDefaultConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "memory", cfg.VectorStore.Provider)
	assert.Equal(t, "hash", cfg.Embedder.Provider)
	assert.Equal(t, 604800.0, cfg.Strength.DecayConstantSeconds)
	assert.Equal(t, 1.0, cfg.Strength.RecencyWeight)
	assert.Equal(t, 0.5, cfg.Strength.FrequencyWeight)
	assert.Equal(t, 2.0, cfg.Strength.EmotionalWeight)
	assert.Equal(t, 100, cfg.Strength.MaxExpectedRetrievals)
	assert.Equal(t, 0.1, cfg.Memory.MinStrength)
	assert.Equal(t, 10000, cfg.Memory.MaxMemories)
	assert.Equal(t, "immediate", cfg.Memory.InsertMode)
	assert.Equal(t, []string{"semantic", "temporal", "contextual", "role"}, cfg.Memory.QueryPriority)
	assert.Equal(t, 384, cfg.Vectors.Dimensions.Semantic)
	assert.Equal(t, 20, cfg.Vectors.Dimensions.Temporal)
	assert.Equal(t, 100, cfg.Vectors.Dimensions.Contextual)
	assert.Equal(t, 1, cfg.Vectors.Dimensions.Role)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.Config)
	}{
		{"missing store provider", func(c *core.Config) { c.VectorStore.Provider = "" }},
		{"missing embedder provider", func(c *core.Config) { c.Embedder.Provider = "" }},
		{"zero semantic dimension", func(c *core.Config) { c.Vectors.Dimensions.Semantic = 0 }},
		{"role dimension", func(c *core.Config) { c.Vectors.Dimensions.Role = 2 }},
		{"slot strategy", func(c *core.Config) { c.Vectors.SlotStrategy = "random" }},
		{"time zone", func(c *core.Config) { c.Vectors.TimeZone = "Mars/Olympus" }},
		{"decay constant", func(c *core.Config) { c.Strength.DecayConstantSeconds = 0 }},
		{"negative weight", func(c *core.Config) { c.Strength.FrequencyWeight = -1 }},
		{"max expected retrievals", func(c *core.Config) { c.Strength.MaxExpectedRetrievals = 0 }},
		{"min strength", func(c *core.Config) { c.Memory.MinStrength = 1.5 }},
		{"max memories", func(c *core.Config) { c.Memory.MaxMemories = -1 }},
		{"cleanup margin", func(c *core.Config) { c.Memory.CleanupMargin = -1 }},
		{"delete batch", func(c *core.Config) { c.Memory.DeleteBatchSize = 0 }},
		{"insert mode", func(c *core.Config) { c.Memory.InsertMode = "lazy" }},
		{"unknown priority space", func(c *core.Config) { c.Memory.QueryPriority = []string{"visual"} }},
		{"duplicate priority space", func(c *core.Config) { c.Memory.QueryPriority = []string{"role", "role"} }},
		{"cron schedule", func(c *core.Config) { c.Memory.CleanupSchedule = "every tuesday" }},
		{"access workers", func(c *core.Config) { c.Access.Workers = 0 }},
		{"timeout", func(c *core.Config) { c.OperationTimeoutSeconds = 0 }},
		{"id scheme", func(c *core.Config) { c.IDScheme = "serial" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := core.DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, core.ErrInvalidConfig)
		})
	}

	t.Run("valid schedule", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.Memory.CleanupSchedule = "*/15 * * * *"
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"vector_store": {"provider": "sqlite", "config": {"db_path": "/tmp/m.db"}},
		"strength": {"frequency_weight": 0, "decay_constant_seconds": 3600},
		"memory": {"max_memories": 50, "insert_mode": "buffered"}
	}`), 0o600))

	cfg, err := core.LoadConfigFromJSON(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.VectorStore.Provider)
	assert.Equal(t, "/tmp/m.db", cfg.VectorStore.Config["db_path"])
	assert.Equal(t, 0.0, cfg.Strength.FrequencyWeight, "explicit zero is kept")
	assert.Equal(t, 1.0, cfg.Strength.RecencyWeight, "omitted fields keep defaults")
	assert.Equal(t, 3600.0, cfg.Strength.DecayConstantSeconds)
	assert.Equal(t, 50, cfg.Memory.MaxMemories)
	assert.Equal(t, 1000, cfg.Memory.CleanupMargin)
	assert.Equal(t, "buffered", cfg.Memory.InsertMode)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vector_store:
  provider: chromem
  config:
    path: /var/lib/decaymem
vectors:
  dimensions:
    semantic: 1536
    temporal: 20
    contextual: 100
    role: 1
  slot_strategy: hash
memory:
  min_strength: 0.2
  auto_cleanup: false
  cleanup_schedule: "0 * * * *"
log:
  level: debug
  format: json
`), 0o600))

	cfg, err := core.LoadConfigFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, 1536, cfg.Vectors.Dimensions.Semantic)
	assert.Equal(t, "hash", cfg.Vectors.SlotStrategy)
	assert.Equal(t, 0.2, cfg.Memory.MinStrength)
	assert.False(t, cfg.Memory.AutoCleanup)
	assert.Equal(t, "0 * * * *", cfg.Memory.CleanupSchedule)
	assert.Equal(t, 10000, cfg.Memory.MaxMemories)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := core.LoadConfigFromJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory: [unclosed"), 0o600))
	_, err = core.LoadConfigFromYAML(path)
	assert.Error(t, err)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, cfg *core.Config)
		wantErr bool
	}{
		{
			name: "sqlite with overrides",
			envVars: map[string]string{
				"DATABASE_PROVIDER":   "sqlite",
				"SQLITE_PATH":         "./test.db",
				"MEMORY_MAX_MEMORIES": "500",
				"MEMORY_INSERT_MODE":  "buffered",
				"EMBEDDING_DIMS":      "768",
			},
			check: func(t *testing.T, cfg *core.Config) {
				assert.Equal(t, "sqlite", cfg.VectorStore.Provider)
				assert.Equal(t, "./test.db", cfg.VectorStore.Config["db_path"])
				assert.Equal(t, 500, cfg.Memory.MaxMemories)
				assert.Equal(t, "buffered", cfg.Memory.InsertMode)
				assert.Equal(t, 768, cfg.Vectors.Dimensions.Semantic)
			},
		},
		{
			name: "postgres",
			envVars: map[string]string{
				"DATABASE_PROVIDER": "postgres",
				"POSTGRES_HOST":     "db.internal",
				"POSTGRES_PORT":     "6543",
			},
			check: func(t *testing.T, cfg *core.Config) {
				assert.Equal(t, "db.internal", cfg.VectorStore.Config["host"])
				assert.Equal(t, 6543, cfg.VectorStore.Config["port"])
			},
		},
		{
			name: "decay in seconds",
			envVars: map[string]string{
				"MEMORY_DECAY_SECONDS": "86400",
			},
			check: func(t *testing.T, cfg *core.Config) {
				assert.Equal(t, "memory", cfg.VectorStore.Provider)
				assert.Equal(t, 86400.0, cfg.Strength.DecayConstantSeconds)
			},
		},
		{
			name:    "malformed number",
			envVars: map[string]string{"MEMORY_MAX_MEMORIES": "lots"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := core.LoadConfigFromEnv()
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidConfig)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
