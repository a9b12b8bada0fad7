package types

import "time"

// HTTPConfig holds shared HTTP settings used by the service clients.
type HTTPConfig struct {
	// BaseURL is the service root (e.g. "http://localhost:8080").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"url"`

	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "screening-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// APIKey is sent as a bearer token when non-empty.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// EmbeddingConfig holds settings for the embedding service client.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// CacheSize is the number of query embeddings kept in memory (0 disables).
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`

	// CacheTTL bounds how long a cached embedding is reused.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// InferenceConfig holds settings for the chat-completions inference client.
type InferenceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxTokens is passed through as n_predict (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Temperature is passed through unmodified (default 0.6).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
}

// DistanceMetric selects the vector store distance function.
type DistanceMetric string

const (
	MetricL2     DistanceMetric = "l2"
	MetricCosine DistanceMetric = "cosine"
)

// VectorStoreConfig holds settings for the embedded vector store.
type VectorStoreConfig struct {
	// Path is the SQLite database file (e.g. "rag.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Dimension is the embedding length fixed at schema creation (default 1024).
	Dimension int `json:"dimension" yaml:"dimension" mapstructure:"dimension"`

	// Metric is the distance metric fixed at schema creation (default l2).
	Metric DistanceMetric `json:"metric" yaml:"metric" mapstructure:"metric"`
}

// RetrievalConfig holds settings for the retrieval pipeline.
type RetrievalConfig struct {
	// EmbedRetries is how many times a failed embedding is retried before
	// the record is skipped (default 0: skip on first failure).
	EmbedRetries int `json:"embed_retries" yaml:"embed_retries" mapstructure:"embed_retries"`

	// TopK is the default number of neighbors returned by a query (default 5).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`
}

// ClassificationConfig holds settings for the classification pipeline.
type ClassificationConfig struct {
	// Criteria is the inclusion criteria text, used verbatim in prompts.
	Criteria string `json:"criteria" yaml:"criteria" mapstructure:"criteria"`

	// CriteriaFile is read when Criteria is empty.
	CriteriaFile string `json:"criteria_file" yaml:"criteria_file" mapstructure:"criteria_file"`

	// Delay is the minimum spacing between inference requests (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// Output is the Result Set checkpoint file (default "results.json").
	Output string `json:"output" yaml:"output" mapstructure:"output"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// PipelineConfig groups all component configurations. It is loaded once
// and passed by value into each component constructor.
type PipelineConfig struct {
	Embedding      EmbeddingConfig      `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Inference      InferenceConfig      `json:"inference" yaml:"inference" mapstructure:"inference"`
	Store          VectorStoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Retrieval      RetrievalConfig      `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Classification ClassificationConfig `json:"classification" yaml:"classification" mapstructure:"classification"`
	Log            LogConfig            `json:"log" yaml:"log" mapstructure:"log"`
}
