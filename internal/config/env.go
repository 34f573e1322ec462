package config

import "strconv"

// ApplyEnv overlays environment variables onto cfg. getenv is usually os.Getenv.
// Unparseable numeric values are ignored and the file value is kept.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("DATA_DIR"); v != "" {
		cfg.Corpus.Directory = v
	}
	if v := getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := getenv("CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.Size = n
		}
	}
	if v := getenv("CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.Overlap = n
		}
	}
	if v := getenv("AZURE_OPENAI_ENDPOINT"); v != "" && cfg.LLM.Provider == "azure" {
		cfg.LLM.BaseURL = v
	}
	if v := getenv("AZURE_OPENAI_DEPLOYMENT"); v != "" && cfg.LLM.Provider == "azure" {
		cfg.LLM.Model = v
	}
	if v := getenv("AZURE_OPENAI_API_VERSION"); v != "" && cfg.LLM.Provider == "azure" {
		cfg.LLM.APIVersion = v
	}
	if v := getenv("TANYA_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}
