package core

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/oceanbase/decaymem-go/pkg/embedder"
	cacheEmbedder "github.com/oceanbase/decaymem-go/pkg/embedder/cache"
	hashEmbedder "github.com/oceanbase/decaymem-go/pkg/embedder/hash"
	onnxEmbedder "github.com/oceanbase/decaymem-go/pkg/embedder/onnx"
	openaiEmbedder "github.com/oceanbase/decaymem-go/pkg/embedder/openai"
	qwenEmbedder "github.com/oceanbase/decaymem-go/pkg/embedder/qwen"
	"github.com/oceanbase/decaymem-go/pkg/llm"
	anthropicLLM "github.com/oceanbase/decaymem-go/pkg/llm/anthropic"
	ollamaLLM "github.com/oceanbase/decaymem-go/pkg/llm/ollama"
	openaiLLM "github.com/oceanbase/decaymem-go/pkg/llm/openai"
	"github.com/oceanbase/decaymem-go/pkg/observe"
	"github.com/oceanbase/decaymem-go/pkg/sentiment"
	"github.com/oceanbase/decaymem-go/pkg/storage"
	chromemStore "github.com/oceanbase/decaymem-go/pkg/storage/chromem"
	memoryStore "github.com/oceanbase/decaymem-go/pkg/storage/memory"
	"github.com/oceanbase/decaymem-go/pkg/storage/oceanbase"
	postgresStore "github.com/oceanbase/decaymem-go/pkg/storage/postgres"
	sqliteStore "github.com/oceanbase/decaymem-go/pkg/storage/sqlite"
)

// NewClientFromConfig creates a client and every collaborator named in cfg.
//
// The client is initialized with:
//   - Vector store (memory, SQLite, PostgreSQL, OceanBase or chromem)
//   - Embedding provider (hash, OpenAI, Qwen or ONNX), optionally cached
//   - Sentiment analyzer (lexicon, or llm through OpenAI, DeepSeek, Qwen, Ollama or Anthropic)
//   - A logger built from cfg.Log, unless WithObserver is given
//
// The client owns these collaborators and closes them in Close.
//
// Example:
//
//	config, _ := core.LoadConfigFromFile("decaymem.yaml")
//	client, err := core.NewClientFromConfig(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func NewClientFromConfig(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var owned []io.Closer
	fail := func(err error) (*Client, error) {
		for i := len(owned) - 1; i >= 0; i-- {
			_ = owned[i].Close()
		}
		return nil, err
	}

	index, err := initStorage(cfg.VectorStore)
	if err != nil {
		return fail(err)
	}
	owned = append(owned, index)

	emb, err := initEmbedder(cfg.Embedder, cfg.Vectors.Dimensions.Semantic)
	if err != nil {
		return fail(err)
	}
	owned = append(owned, emb)

	analyzer, provider, err := initSentiment(cfg.Sentiment, cfg.LLM)
	if err != nil {
		return fail(err)
	}
	if provider != nil {
		owned = append(owned, provider)
	}

	obs := observe.New(os.Stderr, observe.Options{
		Level:  cfg.Log.Level,
		Format: observe.Format(cfg.Log.Format),
	})
	opts = append([]ClientOption{WithObserver(obs)}, opts...)

	client, err := NewClient(cfg, Dependencies{
		Index:     index,
		Embedder:  emb,
		Sentiment: analyzer,
	}, opts...)
	if err != nil {
		return fail(err)
	}
	client.owned = owned
	return client, nil
}

// initStorage initializes the storage backend. The provider map is fully
// read before anything is opened.
func initStorage(cfg VectorStoreConfig) (storage.VectorStore, error) {
	c := readConfig(cfg.Config)
	var open func() (storage.VectorStore, error)
	switch cfg.Provider {
	case "memory":
		open = func() (storage.VectorStore, error) { return memoryStore.NewClient(), nil }
	case "sqlite":
		sc := &sqliteStore.Config{
			DBPath:         c.str("db_path", "./decaymem.db"),
			CollectionName: c.str("collection_name", ""),
		}
		open = func() (storage.VectorStore, error) { return sqliteStore.NewClient(sc) }
	case "postgres":
		pc := &postgresStore.Config{
			Host:           c.str("host", "localhost"),
			Port:           c.int("port", 5432),
			User:           c.str("user", "postgres"),
			Password:       c.str("password", ""),
			DBName:         c.str("db_name", "decaymem"),
			CollectionName: c.str("collection_name", ""),
			SSLMode:        c.str("ssl_mode", "disable"),
			DSN:            c.str("dsn", ""),
		}
		open = func() (storage.VectorStore, error) { return postgresStore.NewClient(pc) }
	case "oceanbase":
		oc := &oceanbase.Config{
			Host:           c.str("host", "127.0.0.1"),
			Port:           c.int("port", 2881),
			User:           c.str("user", "root@sys"),
			Password:       c.str("password", ""),
			DBName:         c.str("db_name", "decaymem"),
			CollectionName: c.str("collection_name", ""),
			VectorIndex:    c.bool("vector_index", false),
		}
		open = func() (storage.VectorStore, error) { return oceanbase.NewClient(oc) }
	case "chromem":
		cc := &chromemStore.Config{
			Path:           c.str("path", ""),
			Compress:       c.bool("compress", false),
			CollectionName: c.str("collection_name", ""),
		}
		open = func() (storage.VectorStore, error) { return chromemStore.NewClient(cc) }
	default:
		return nil, NewMemoryError("initStorage", fmt.Errorf("%w: unknown vector store provider %q", ErrInvalidConfig, cfg.Provider))
	}
	if c.err != nil {
		return nil, NewMemoryError("initStorage", c.err)
	}

	store, err := open()
	if err != nil {
		return nil, NewMemoryError("initStorage", dependencyError(cfg.Provider, err))
	}
	return store, nil
}

// initEmbedder initializes the embedder provider.
func initEmbedder(cfg EmbedderConfig, dims int) (embedder.Provider, error) {
	p := readConfig(cfg.Parameters)
	var open func() (embedder.Provider, error)
	switch cfg.Provider {
	case "hash":
		open = func() (embedder.Provider, error) { return hashEmbedder.NewClient(dims), nil }
	case "openai":
		oc := &openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: dims,
		}
		open = func() (embedder.Provider, error) { return openaiEmbedder.NewClient(oc) }
	case "qwen":
		qc := &qwenEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: dims,
			TextType:   p.str("text_type", ""),
		}
		open = func() (embedder.Provider, error) { return qwenEmbedder.NewClient(qc) }
	case "onnx":
		xc := &onnxEmbedder.Config{
			ModelPath:         p.str("model_path", ""),
			TokenizerPath:     p.str("tokenizer_path", ""),
			SharedLibraryPath: p.str("shared_library_path", ""),
			Dimensions:        dims,
			MaxSequenceLength: p.int("max_sequence_length", 0),
		}
		open = func() (embedder.Provider, error) { return onnxEmbedder.NewClient(xc) }
	default:
		return nil, NewMemoryError("initEmbedder", fmt.Errorf("%w: unknown embedder provider %q", ErrInvalidConfig, cfg.Provider))
	}
	if p.err != nil {
		return nil, NewMemoryError("initEmbedder", p.err)
	}

	provider, err := open()
	if err != nil {
		return nil, NewMemoryError("initEmbedder", fmt.Errorf("%w: %s: %v", ErrInvalidConfig, cfg.Provider, err))
	}

	if cfg.CacheSize > 0 {
		cached, err := cacheEmbedder.NewClient(provider, &cacheEmbedder.Config{MaxEntries: cfg.CacheSize})
		if err != nil {
			_ = provider.Close()
			return nil, NewMemoryError("initEmbedder", err)
		}
		return cached, nil
	}
	return provider, nil
}

// initSentiment initializes the sentiment analyzer. The returned provider is
// the language model behind an llm analyzer, nil otherwise.
func initSentiment(cfg SentimentConfig, llmCfg LLMConfig) (sentiment.Analyzer, llm.Provider, error) {
	switch cfg.Provider {
	case "", "lexicon":
		return sentiment.NewLexicon(cfg.Lexicon), nil, nil
	case "llm":
		provider, err := initLLM(llmCfg)
		if err != nil {
			return nil, nil, err
		}
		return sentiment.NewLLM(provider), provider, nil
	}
	return nil, nil, NewMemoryError("initSentiment", fmt.Errorf("%w: unknown sentiment provider %q", ErrInvalidConfig, cfg.Provider))
}

// OpenAI-compatible endpoints reached through the openai provider.
var compatibleLLMs = map[string]struct{ baseURL, model string }{
	"deepseek": {"https://api.deepseek.com", "deepseek-chat"},
	"qwen":     {"https://dashscope.aliyuncs.com/compatible-mode/v1", "qwen-plus"},
}

// initLLM initializes the LLM provider.
func initLLM(cfg LLMConfig) (llm.Provider, error) {
	var (
		provider llm.Provider
		err      error
	)
	if preset, ok := compatibleLLMs[cfg.Provider]; ok {
		if cfg.BaseURL == "" {
			cfg.BaseURL = preset.baseURL
		}
		if cfg.Model == "" {
			cfg.Model = preset.model
		}
		cfg.Provider = "openai"
	}
	switch cfg.Provider {
	case "", "openai":
		provider, err = openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "ollama":
		provider, err = ollamaLLM.NewClient(&ollamaLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "anthropic":
		provider, err = anthropicLLM.NewClient(&anthropicLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewMemoryError("initLLM", fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, cfg.Provider))
	}
	if err != nil {
		return nil, NewMemoryError("initLLM", fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	return provider, nil
}

// providerConfig reads typed values out of a decoded provider map and keeps
// the first type error. JSON numbers arrive as float64 and env values as
// strings, so both are accepted.
type providerConfig struct {
	values map[string]interface{}
	err    error
}

func readConfig(values map[string]interface{}) *providerConfig {
	return &providerConfig{values: values}
}

func (c *providerConfig) fail(key string, v interface{}, want string) {
	if c.err == nil {
		c.err = fmt.Errorf("%w: %s must be %s, got %T", ErrInvalidConfig, key, want, v)
	}
}

func (c *providerConfig) str(key, def string) string {
	v, ok := c.values[key]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		c.fail(key, v, "a string")
		return def
	}
	if s == "" {
		return def
	}
	return s
}

func (c *providerConfig) int(key string, def int) int {
	v, ok := c.values[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	c.fail(key, v, "an integer")
	return def
}

func (c *providerConfig) bool(key string, def bool) bool {
	v, ok := c.values[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	c.fail(key, v, "a boolean")
	return def
}
