package config

// CorpusConfig configures the transit knowledge corpus indexed at startup.
type CorpusConfig struct {
	// Path is the corpus file read and indexed at startup.
	Path string `mapstructure:"path" json:"path"`

	// ChunkSize is the target chunk length in characters.
	ChunkSize int `mapstructure:"chunk_size" json:"chunk_size"`

	// ChunkOverlap is the number of characters shared between adjacent chunks.
	// Must be smaller than ChunkSize.
	ChunkOverlap int `mapstructure:"chunk_overlap" json:"chunk_overlap"`
}

// SearchConfig configures the external news search tool.
type SearchConfig struct {
	// Region scopes results, e.g. "de-de", "us-en".
	Region string `mapstructure:"region" json:"region"`

	// Recency restricts result age: "d" (day), "w" (week), "m" (month).
	Recency string `mapstructure:"recency" json:"recency"`

	// MaxResults is the number of results returned to the model.
	MaxResults int `mapstructure:"max_results" json:"max_results"`

	// TimeoutMs bounds each external lookup call.
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`
}
