package config

const (
	defaultMaxK                    = 6
	defaultGroundingThreshold      = 0.5
	defaultGroundedConfidence      = 1.0
	defaultWeakConfidence          = 0.5
	defaultClarificationConfidence = 0.3
)

// ApplyDefaults sets default values for any zero values in cfg.
// Chunk overlap is left alone: zero is a valid overlap and Validate rejects bad values.
// Settings where zero is meaningful (max_k, the confidence table) are pointers and
// are only defaulted when nil.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = 60
	}
	if cfg.Corpus.Directory == "" {
		cfg.Corpus.Directory = "data"
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = []string{".txt"}
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 300
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hash"
	}
	if cfg.Embedding.Model == "" {
		if cfg.Embedding.Provider == "hash" {
			cfg.Embedding.Model = "hash-bow"
		} else {
			cfg.Embedding.Model = "text-embedding-3-small"
		}
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 15
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 64
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "extractive"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.APIKeyEnv == "" {
		if cfg.LLM.Provider == "azure" {
			cfg.LLM.APIKeyEnv = "AZURE_OPENAI_KEY"
		} else {
			cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if cfg.LLM.APIVersion == "" {
		cfg.LLM.APIVersion = "2024-05-01-preview"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 30
	}
	if cfg.Retrieval.DefaultK == 0 {
		cfg.Retrieval.DefaultK = 3
	}
	if cfg.Retrieval.MaxK == nil {
		cfg.Retrieval.MaxK = Ptr(defaultMaxK)
	}
	if cfg.Retrieval.SnippetLength == 0 {
		cfg.Retrieval.SnippetLength = 60
	}
	if cfg.Dialogue.HistoryTurns == 0 {
		cfg.Dialogue.HistoryTurns = 5
	}
	if cfg.Dialogue.MaxHistory == 0 {
		cfg.Dialogue.MaxHistory = 20
	}
	c := &cfg.Dialogue.Confidence
	t := c.Table()
	c.GroundingThreshold = Ptr(t.GroundingThreshold)
	c.Grounded = Ptr(t.Grounded)
	c.Weak = Ptr(t.Weak)
	c.Clarification = Ptr(t.Clarification)
	if cfg.Sessions.Backend == "" {
		cfg.Sessions.Backend = "memory"
	}
	if cfg.Sessions.DatabasePath == "" {
		cfg.Sessions.DatabasePath = "agent_history.db"
	}
}
