package config

import "time"

// AppConfig is the root configuration for the messageai service.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Cache    CacheConfig    `yaml:"cache"`
	Redis    RedisConfig    `yaml:"redis"`
	VectorDB VectorDBConfig `yaml:"vectordb"`
	Milvus   MilvusConfig   `yaml:"milvus"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Chat     ChatConfig     `yaml:"chat"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout_seconds"`
	WriteTimeout int `yaml:"write_timeout_seconds"`
	IdleTimeout  int `yaml:"idle_timeout_seconds"`
}

// LoggingConfig mirrors the logging package configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Encoding    string `yaml:"encoding"`
	Development bool   `yaml:"development"`
}

// CacheConfig controls the server-side response cache.
type CacheConfig struct {
	// BackendType selects the document store backend: "redis" or "memory"
	BackendType string `yaml:"backend_type"`

	// Enabled controls whether server-side caching is active
	Enabled bool `yaml:"enabled"`

	// DefaultTTLSeconds applies when a caller does not pass an explicit TTL
	DefaultTTLSeconds int `yaml:"default_ttl_seconds"`

	// EmbeddingTTLSeconds is the TTL for cached message embeddings
	EmbeddingTTLSeconds int `yaml:"embedding_ttl_seconds"`

	// SearchTTLSeconds is the TTL for cached search results
	SearchTTLSeconds int `yaml:"search_ttl_seconds"`

	// ChatSessionTTLSeconds is the TTL for mirrored chat session history
	ChatSessionTTLSeconds int `yaml:"chat_session_ttl_seconds"`

	// ScopeSearchByUser includes the user id and result limit in the
	// search-result cache key. When false the key is derived from the
	// query text alone and cached results are shared across users, which
	// matches the original behavior but lets one user observe another
	// user's result set.
	ScopeSearchByUser bool `yaml:"scope_search_by_user"`
}

// RedisConfig holds connection settings for the Redis document store.
type RedisConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Password  string `yaml:"password"`
	Database  int    `yaml:"database"`
	KeyPrefix string `yaml:"key_prefix"`
}

// VectorDBConfig selects the vector search provider, independent of the
// document-store backend.
type VectorDBConfig struct {
	// BackendType selects the search provider: "milvus" or "memory"
	BackendType string `yaml:"backend_type"`
}

// MilvusConfig holds connection and collection settings for vector search.
type MilvusConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	CollectionName string `yaml:"collection_name"`
	VectorField    string `yaml:"vector_field"`
	Dimension      int    `yaml:"dimension"`
	MetricType     string `yaml:"metric_type"`
	TopK           int    `yaml:"top_k"`
	EfSearch       int    `yaml:"ef_search"`
}

// OpenAIConfig holds settings for the LLM and embedding provider.
type OpenAIConfig struct {
	// APIKeyEnv names the environment variable holding the API key
	APIKeyEnv string `yaml:"api_key_env"`

	// BaseURL overrides the provider endpoint (for gateways and tests)
	BaseURL string `yaml:"base_url"`

	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`

	// TimeoutSeconds bounds every provider call
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MaxRetries bounds the exponential backoff retry loop (0 disables retry)
	MaxRetries int `yaml:"max_retries"`
}

// ChatConfig tunes the chat orchestrator.
type ChatConfig struct {
	// RecentMessageCount is how many trailing conversation messages feed the context
	RecentMessageCount int `yaml:"recent_message_count"`

	// RelatedMessageCount is how many semantically related messages feed the context
	RelatedMessageCount int `yaml:"related_message_count"`

	// MaxSuggestions caps proactive suggestions per turn
	MaxSuggestions int `yaml:"max_suggestions"`
}

// Timeout returns the provider call timeout as a duration.
func (c OpenAIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Cache.BackendType == "" {
		cfg.Cache.BackendType = "memory"
	}
	if cfg.Cache.DefaultTTLSeconds == 0 {
		cfg.Cache.DefaultTTLSeconds = 3600
	}
	if cfg.Cache.EmbeddingTTLSeconds == 0 {
		cfg.Cache.EmbeddingTTLSeconds = 86400
	}
	if cfg.Cache.SearchTTLSeconds == 0 {
		cfg.Cache.SearchTTLSeconds = 1800
	}
	if cfg.Cache.ChatSessionTTLSeconds == 0 {
		cfg.Cache.ChatSessionTTLSeconds = 3600
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "mai:"
	}
	if cfg.VectorDB.BackendType == "" {
		cfg.VectorDB.BackendType = "memory"
	}
	if cfg.Milvus.Host == "" {
		cfg.Milvus.Host = "localhost"
	}
	if cfg.Milvus.Port == 0 {
		cfg.Milvus.Port = 19530
	}
	if cfg.Milvus.CollectionName == "" {
		cfg.Milvus.CollectionName = "message_embeddings"
	}
	if cfg.Milvus.VectorField == "" {
		cfg.Milvus.VectorField = "embedding"
	}
	if cfg.Milvus.Dimension == 0 {
		cfg.Milvus.Dimension = 1536
	}
	if cfg.Milvus.MetricType == "" {
		cfg.Milvus.MetricType = "IP"
	}
	if cfg.Milvus.TopK == 0 {
		cfg.Milvus.TopK = 10
	}
	if cfg.Milvus.EfSearch == 0 {
		cfg.Milvus.EfSearch = 64
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 30
	}
	if cfg.Chat.RecentMessageCount == 0 {
		cfg.Chat.RecentMessageCount = 5
	}
	if cfg.Chat.RelatedMessageCount == 0 {
		cfg.Chat.RelatedMessageCount = 5
	}
	if cfg.Chat.MaxSuggestions == 0 {
		cfg.Chat.MaxSuggestions = 3
	}
}
