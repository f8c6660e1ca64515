package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oceanbase/decaymem-go/pkg/intelligence"
	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

// Config contains the complete configuration for a decaymem client.
//
// It includes settings for:
//   - Vector store (where memories and their four vector spaces live)
//   - Embedding provider (for the semantic space)
//   - Sentiment analyzer (for emotional charge)
//   - Strength model and eviction policy
//
// Start from DefaultConfig; the loaders decode on top of it, so omitted
// fields keep their defaults.
//
// Example:
//
//	config := core.DefaultConfig()
//	config.VectorStore = core.VectorStoreConfig{
//	    Provider: "sqlite",
//	    Config: map[string]interface{}{
//	        "db_path": "./memories.db",
//	    },
//	}
//	config.Memory.MaxMemories = 5000
type Config struct {
	// VectorStore contains vector store configuration.
	VectorStore VectorStoreConfig `json:"vector_store" yaml:"vector_store"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder" yaml:"embedder"`

	// LLM configures the language model used by the llm sentiment analyzer (optional).
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Sentiment selects the sentiment analyzer.
	Sentiment SentimentConfig `json:"sentiment" yaml:"sentiment"`

	// Vectors configures vector generation.
	Vectors VectorsConfig `json:"vectors" yaml:"vectors"`

	// Strength configures the strength model.
	Strength StrengthConfig `json:"strength" yaml:"strength"`

	// Memory configures the insert mode and the eviction policy.
	Memory MemoryConfig `json:"memory" yaml:"memory"`

	// Access configures the background access-statistics tracker.
	Access AccessConfig `json:"access" yaml:"access"`

	// OperationTimeoutSeconds bounds every call to the vector index, the
	// embedder and the sentiment analyzer. Default: 30
	OperationTimeoutSeconds float64 `json:"operation_timeout_seconds" yaml:"operation_timeout_seconds"`

	// IDScheme is "snowflake" (default) or "uuid".
	IDScheme string `json:"id_scheme" yaml:"id_scheme"`

	// NodeID is the snowflake node number. Default: 1
	NodeID int64 `json:"node_id" yaml:"node_id"`

	// Log configures logging.
	Log LogConfig `json:"log" yaml:"log"`
}

// VectorStoreConfig contains configuration for the vector store.
//
// Supported providers: memory, sqlite, postgres, oceanbase, chromem
//
// Example:
//
//	storeConfig := core.VectorStoreConfig{
//	    Provider: "sqlite",
//	    Config: map[string]interface{}{
//	        "db_path":         "./memories.db",
//	        "collection_name": "memories",
//	    },
//	}
type VectorStoreConfig struct {
	// Provider is the vector store provider name.
	Provider string `json:"provider" yaml:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path, collection_name
	// For PostgreSQL: host, port, user, password, db_name, collection_name, ssl_mode, dsn
	// For OceanBase: host, port, user, password, db_name, collection_name, vector_index
	// For chromem: path, compress, collection_name
	Config map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: hash, openai, qwen, onnx
type EmbedderConfig struct {
	// Provider is the embedding provider name.
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the API key for the embedding provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the embedding model name (e.g., "text-embedding-3-small").
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// CacheSize caches this many embeddings in memory. Zero disables the cache.
	CacheSize int64 `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`

	// Parameters contains additional provider-specific parameters (optional).
	// For onnx: model_path, tokenizer_path, shared_library_path, max_sequence_length
	Parameters map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: openai, deepseek, qwen, ollama, anthropic.
// deepseek and qwen go through their OpenAI-compatible endpoints; any other
// compatible endpoint works as openai with BaseURL set.
type LLMConfig struct {
	// Provider is the LLM provider name. Default: openai
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// APIKey is the API key for the LLM provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the model name to use (e.g., "gpt-4o-mini").
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// SentimentConfig selects the sentiment analyzer.
type SentimentConfig struct {
	// Provider is "lexicon" (default) or "llm".
	Provider string `json:"provider" yaml:"provider"`

	// Lexicon adds or overrides word valences of the lexicon analyzer.
	Lexicon map[string]float64 `json:"lexicon,omitempty" yaml:"lexicon,omitempty"`
}

// VectorsConfig configures vector generation.
type VectorsConfig struct {
	// Dimensions are the lengths of the four vector spaces.
	Dimensions vectors.Dimensions `json:"dimensions" yaml:"dimensions"`

	// SlotStrategy is "sequential" (default) or "hash".
	SlotStrategy string `json:"slot_strategy" yaml:"slot_strategy"`

	// TimeZone is the IANA zone temporal features are read in. Default: UTC
	TimeZone string `json:"time_zone,omitempty" yaml:"time_zone,omitempty"`
}

// StrengthConfig configures the strength model.
type StrengthConfig struct {
	// DecayConstantSeconds is the recency time constant. Default: 604800 (7 days)
	DecayConstantSeconds float64 `json:"decay_constant_seconds" yaml:"decay_constant_seconds"`

	RecencyWeight   float64 `json:"recency_weight" yaml:"recency_weight"`
	FrequencyWeight float64 `json:"frequency_weight" yaml:"frequency_weight"`
	EmotionalWeight float64 `json:"emotional_weight" yaml:"emotional_weight"`

	// MaxExpectedRetrievals saturates the frequency factor. Default: 100
	MaxExpectedRetrievals int `json:"max_expected_retrievals" yaml:"max_expected_retrievals"`
}

// MemoryConfig configures the insert mode and eviction.
type MemoryConfig struct {
	// MinStrength evicts memories weaker than this. Default: 0.1
	MinStrength float64 `json:"min_strength" yaml:"min_strength"`

	// MaxMemories is the capacity bound. Default: 10000
	MaxMemories int `json:"max_memories" yaml:"max_memories"`

	// CleanupMargin is scanned beyond MaxMemories on each pass. Default: 1000
	CleanupMargin int `json:"cleanup_margin" yaml:"cleanup_margin"`

	// DeleteBatchSize is the number of ids per delete call. Default: 256
	DeleteBatchSize int `json:"delete_batch_size" yaml:"delete_batch_size"`

	// InsertMode is "immediate" (default) or "buffered".
	InsertMode string `json:"insert_mode" yaml:"insert_mode"`

	// QueryPriority orders the spaces Retrieve picks its query vector from.
	// Default: semantic, temporal, contextual, role
	QueryPriority []string `json:"query_priority,omitempty" yaml:"query_priority,omitempty"`

	// AutoCleanup runs cleanup after every Store and StoreBulk. Default: true
	AutoCleanup bool `json:"auto_cleanup" yaml:"auto_cleanup"`

	// CleanupSchedule is a cron expression for the sweeper (optional).
	CleanupSchedule string `json:"cleanup_schedule,omitempty" yaml:"cleanup_schedule,omitempty"`

	// BulkConcurrency bounds concurrent sentiment calls in StoreBulk. Default: 8
	BulkConcurrency int `json:"bulk_concurrency" yaml:"bulk_concurrency"`
}

// AccessConfig configures the background access tracker.
type AccessConfig struct {
	// Workers is the number of goroutines applying updates. Default: 4
	Workers int `json:"workers" yaml:"workers"`

	// QueueSize bounds pending updates; more are dropped. Default: 1024
	QueueSize int `json:"queue_size" yaml:"queue_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error. Default: warn
	Level string `json:"level" yaml:"level"`

	// Format is console or json. Default: console
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns a configuration with every default filled in. It
// uses the in-memory vector store and the offline hash embedder.
func DefaultConfig() *Config {
	strength := intelligence.DefaultStrengthConfig()
	return &Config{
		VectorStore: VectorStoreConfig{Provider: "memory"},
		Embedder:    EmbedderConfig{Provider: "hash"},
		Sentiment:   SentimentConfig{Provider: "lexicon"},
		Vectors: VectorsConfig{
			Dimensions:   vectors.DefaultDimensions(),
			SlotStrategy: string(vectors.SlotSequential),
		},
		Strength: StrengthConfig{
			DecayConstantSeconds:  strength.DecayConstant.Seconds(),
			RecencyWeight:         strength.RecencyWeight,
			FrequencyWeight:       strength.FrequencyWeight,
			EmotionalWeight:       strength.EmotionalWeight,
			MaxExpectedRetrievals: strength.MaxExpectedRetrievals,
		},
		Memory: MemoryConfig{
			MinStrength:     0.1,
			MaxMemories:     10000,
			CleanupMargin:   1000,
			DeleteBatchSize: 256,
			InsertMode:      ModeImmediate.String(),
			QueryPriority:   spaceNames(vectors.AllSpaces),
			AutoCleanup:     true,
			BulkConcurrency: 8,
		},
		Access: AccessConfig{
			Workers:   4,
			QueueSize: 1024,
		},
		OperationTimeoutSeconds: 30,
		IDScheme:                "snowflake",
		NodeID:                  1,
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Applies environment variables on top of DefaultConfig
//
// Supported environment variables:
//   - DATABASE_PROVIDER (memory, sqlite, postgres, oceanbase, chromem)
//   - SQLITE_PATH, SQLITE_COLLECTION
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_DATABASE, POSTGRES_COLLECTION, POSTGRES_SSLMODE
//   - OCEANBASE_HOST, OCEANBASE_PORT, OCEANBASE_USER, OCEANBASE_PASSWORD, OCEANBASE_DATABASE, OCEANBASE_COLLECTION
//   - CHROMEM_PATH, CHROMEM_COLLECTION
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL, EMBEDDING_BASE_URL, EMBEDDING_DIMS, EMBEDDING_CACHE_SIZE
//   - ONNX_MODEL_PATH, ONNX_TOKENIZER_PATH, ONNX_LIBRARY_PATH
//   - SENTIMENT_PROVIDER, LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//   - MEMORY_DECAY_SECONDS, MEMORY_MIN_STRENGTH, MEMORY_MAX_MEMORIES, MEMORY_INSERT_MODE, MEMORY_CLEANUP_SCHEDULE
//   - VECTOR_TIME_ZONE, VECTOR_SLOT_STRATEGY, ID_SCHEME, LOG_LEVEL, LOG_FORMAT
//
// Returns a Config instance, or an error if a numeric variable is malformed.
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	// Use FindEnvFile to locate .env file (supports upward search)
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	config := DefaultConfig()
	env := &envReader{}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "memory")
	config.VectorStore.Provider = provider

	switch provider {
	case "sqlite":
		config.VectorStore.Config = map[string]interface{}{
			"db_path":         getEnvOrDefault("SQLITE_PATH", "./decaymem.db"),
			"collection_name": getEnvOrDefault("SQLITE_COLLECTION", "memories"),
		}
	case "postgres":
		config.VectorStore.Config = map[string]interface{}{
			"host":            getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":            env.int("POSTGRES_PORT", 5432),
			"user":            getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password":        os.Getenv("POSTGRES_PASSWORD"),
			"db_name":         getEnvOrDefault("POSTGRES_DATABASE", "decaymem"),
			"collection_name": getEnvOrDefault("POSTGRES_COLLECTION", "memories"),
			"ssl_mode":        getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "oceanbase":
		config.VectorStore.Config = map[string]interface{}{
			"host":            getEnvOrDefault("OCEANBASE_HOST", "127.0.0.1"),
			"port":            env.int("OCEANBASE_PORT", 2881),
			"user":            getEnvOrDefault("OCEANBASE_USER", "root@sys"),
			"password":        os.Getenv("OCEANBASE_PASSWORD"),
			"db_name":         getEnvOrDefault("OCEANBASE_DATABASE", "decaymem"),
			"collection_name": getEnvOrDefault("OCEANBASE_COLLECTION", "memories"),
		}
	case "chromem":
		config.VectorStore.Config = map[string]interface{}{
			"path":            os.Getenv("CHROMEM_PATH"),
			"collection_name": getEnvOrDefault("CHROMEM_COLLECTION", "memories"),
		}
	}

	config.Embedder = EmbedderConfig{
		Provider:  getEnvOrDefault("EMBEDDING_PROVIDER", "hash"),
		APIKey:    os.Getenv("EMBEDDING_API_KEY"),
		Model:     os.Getenv("EMBEDDING_MODEL"),
		BaseURL:   os.Getenv("EMBEDDING_BASE_URL"),
		CacheSize: int64(env.int("EMBEDDING_CACHE_SIZE", 0)),
	}
	if config.Embedder.Provider == "onnx" {
		config.Embedder.Parameters = map[string]interface{}{
			"model_path":          os.Getenv("ONNX_MODEL_PATH"),
			"tokenizer_path":      os.Getenv("ONNX_TOKENIZER_PATH"),
			"shared_library_path": os.Getenv("ONNX_LIBRARY_PATH"),
		}
	}
	config.Vectors.Dimensions.Semantic = env.int("EMBEDDING_DIMS", config.Vectors.Dimensions.Semantic)
	config.Vectors.TimeZone = os.Getenv("VECTOR_TIME_ZONE")
	config.Vectors.SlotStrategy = getEnvOrDefault("VECTOR_SLOT_STRATEGY", config.Vectors.SlotStrategy)

	config.Sentiment.Provider = getEnvOrDefault("SENTIMENT_PROVIDER", "lexicon")
	config.LLM = LLMConfig{
		Provider: getEnvOrDefault("LLM_PROVIDER", "openai"),
		APIKey:   os.Getenv("LLM_API_KEY"),
		Model:    os.Getenv("LLM_MODEL"),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
	}

	config.Strength.DecayConstantSeconds = env.float("MEMORY_DECAY_SECONDS", config.Strength.DecayConstantSeconds)
	config.Memory.MinStrength = env.float("MEMORY_MIN_STRENGTH", config.Memory.MinStrength)
	config.Memory.MaxMemories = env.int("MEMORY_MAX_MEMORIES", config.Memory.MaxMemories)
	config.Memory.InsertMode = getEnvOrDefault("MEMORY_INSERT_MODE", config.Memory.InsertMode)
	config.Memory.CleanupSchedule = os.Getenv("MEMORY_CLEANUP_SCHEDULE")

	config.IDScheme = getEnvOrDefault("ID_SCHEME", config.IDScheme)
	config.Log.Level = getEnvOrDefault("LOG_LEVEL", config.Log.Level)
	config.Log.Format = getEnvOrDefault("LOG_FORMAT", config.Log.Format)

	if env.err != nil {
		return nil, NewMemoryError("LoadConfigFromEnv", env.err)
	}
	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return config, nil
}

// LoadConfigFromYAML loads configuration from a YAML file.
func LoadConfigFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromYAML", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, NewMemoryError("LoadConfigFromYAML", err)
	}

	return config, nil
}

// LoadConfigFromFile picks the JSON or YAML loader by file extension.
func LoadConfigFromFile(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadConfigFromYAML(path)
	default:
		return LoadConfigFromJSON(path)
	}
}

// Validate validates the configuration.
//
// Returns an error wrapping ErrInvalidConfig that names the offending field.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return NewMemoryError("Validate", fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if c.VectorStore.Provider == "" {
		return invalid("vector_store.provider is required")
	}
	if c.Embedder.Provider == "" {
		return invalid("embedder.provider is required")
	}
	if err := c.Vectors.Dimensions.Validate(); err != nil {
		return invalid("vectors.dimensions: %v", err)
	}
	if _, err := vectors.ParseSlotStrategy(c.Vectors.SlotStrategy); err != nil {
		return invalid("vectors.slot_strategy: %v", err)
	}
	if _, err := c.location(); err != nil {
		return invalid("vectors.time_zone: %v", err)
	}

	s := c.Strength
	if s.DecayConstantSeconds <= 0 {
		return invalid("strength.decay_constant_seconds must be positive")
	}
	if s.RecencyWeight < 0 || s.FrequencyWeight < 0 || s.EmotionalWeight < 0 {
		return invalid("strength weights must be non-negative")
	}
	if s.MaxExpectedRetrievals <= 0 {
		return invalid("strength.max_expected_retrievals must be positive")
	}

	m := c.Memory
	if m.MinStrength < 0 || m.MinStrength > 1 {
		return invalid("memory.min_strength must be in [0,1]")
	}
	if m.MaxMemories <= 0 {
		return invalid("memory.max_memories must be positive")
	}
	if m.CleanupMargin < 0 {
		return invalid("memory.cleanup_margin must be non-negative")
	}
	if m.DeleteBatchSize <= 0 {
		return invalid("memory.delete_batch_size must be positive")
	}
	if m.BulkConcurrency <= 0 {
		return invalid("memory.bulk_concurrency must be positive")
	}
	if _, err := ParseInsertMode(m.InsertMode); err != nil {
		return invalid("memory.insert_mode: %v", err)
	}
	if _, err := c.queryPriority(); err != nil {
		return invalid("memory.query_priority: %v", err)
	}
	if m.CleanupSchedule != "" && !gronx.New().IsValid(m.CleanupSchedule) {
		return invalid("memory.cleanup_schedule: invalid cron expression %q", m.CleanupSchedule)
	}

	if c.Access.Workers <= 0 || c.Access.QueueSize <= 0 {
		return invalid("access.workers and access.queue_size must be positive")
	}
	if c.OperationTimeoutSeconds <= 0 {
		return invalid("operation_timeout_seconds must be positive")
	}
	switch c.IDScheme {
	case "snowflake", "uuid":
	default:
		return invalid("id_scheme must be snowflake or uuid")
	}
	return nil
}

func (c *Config) strengthConfig() intelligence.StrengthConfig {
	return intelligence.StrengthConfig{
		DecayConstant:         time.Duration(c.Strength.DecayConstantSeconds * float64(time.Second)),
		RecencyWeight:         c.Strength.RecencyWeight,
		FrequencyWeight:       c.Strength.FrequencyWeight,
		EmotionalWeight:       c.Strength.EmotionalWeight,
		MaxExpectedRetrievals: c.Strength.MaxExpectedRetrievals,
	}
}

func (c *Config) location() (*time.Location, error) {
	if c.Vectors.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Vectors.TimeZone)
}

func (c *Config) queryPriority() ([]vectors.Space, error) {
	if len(c.Memory.QueryPriority) == 0 {
		return vectors.AllSpaces, nil
	}
	seen := make(map[vectors.Space]bool, len(c.Memory.QueryPriority))
	out := make([]vectors.Space, 0, len(c.Memory.QueryPriority))
	for _, name := range c.Memory.QueryPriority {
		space, err := vectors.ParseSpace(name)
		if err != nil {
			return nil, err
		}
		if seen[space] {
			return nil, fmt.Errorf("space %q listed twice", name)
		}
		seen[space] = true
		out = append(out, space)
	}
	return out, nil
}

func (c *Config) timeout() time.Duration {
	return time.Duration(c.OperationTimeoutSeconds * float64(time.Second))
}

func spaceNames(spaces []vectors.Space) []string {
	out := make([]string, len(spaces))
	for i, s := range spaces {
		out[i] = string(s)
	}
	return out
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses numeric variables and keeps the first error.
type envReader struct {
	err error
}

func (r *envReader) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		return def
	}
	return f
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	// First check the current directory
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	// Check project root directory (search upward)
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
