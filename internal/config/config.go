package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig selects and configures one provider-backed model, either for
// embeddings or for inference.
type LLMConfig struct {
	Provider string `yaml:"provider"` // googleai | openai | ollama
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Key      string `yaml:"key"`
}

// StoreConfig configures the vector index engine.
type StoreConfig struct {
	Backend     string `yaml:"backend"` // chromem | postgres
	IndexDir    string `yaml:"index_dir"`
	Collection  string `yaml:"collection"`
	PostgresDSN string `yaml:"postgres_dsn"`
	VectorSize  int    `yaml:"vector_size"`
	Debug       bool   `yaml:"debug"`
}

// RAGConfig holds the chunking and retrieval knobs.
type RAGConfig struct {
	Chunker      string   `yaml:"chunker"` // sentence | token
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	TopK         int      `yaml:"top_k"`
	MinRelevance *float64 `yaml:"min_relevance,omitempty"` // max cosine distance; nil disables the filter
	PerPageCap   int      `yaml:"per_page_cap"`
	MaxTokens    int      `yaml:"max_tokens"`
	Temperature  float64  `yaml:"temperature"`
}

// Config is constructed once at process entry and passed into each component
// constructor. There is no global config object.
type Config struct {
	EmbedLLM LLMConfig   `yaml:"embed_llm"`
	InferLLM LLMConfig   `yaml:"infer_llm"`
	Store    StoreConfig `yaml:"store"`
	RAG      RAGConfig   `yaml:"rag"`
}

// Default returns the configuration used when no config file exists. API
// keys come from the environment, matching GEMINI_API_KEY/GOOGLE_API_KEY
// conventions.
func Default() *Config {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	cfg := &Config{
		EmbedLLM: LLMConfig{Provider: "googleai", Model: "text-embedding-004", Key: key},
		InferLLM: LLMConfig{Provider: "googleai", Model: "gemini-1.5-flash", Key: key},
		Store: StoreConfig{
			Backend:    "chromem",
			IndexDir:   "./data/index",
			Collection: "pdf_rag",
			VectorSize: 768,
		},
	}
	cfg.RAG = defaultRAG()
	return cfg
}

func defaultRAG() RAGConfig {
	return RAGConfig{
		Chunker:      "sentence",
		ChunkSize:    800,
		ChunkOverlap: 120,
		TopK:         5,
		PerPageCap:   2,
		MaxTokens:    800,
		Temperature:  0.2,
	}
}

// LoadConfig reads a YAML config file, expanding ${VAR} references so
// secrets can stay in the environment. A missing file falls back to
// Default().
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := defaultRAG()
	if c.RAG.Chunker == "" {
		c.RAG.Chunker = def.Chunker
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = def.ChunkSize
	}
	if c.RAG.ChunkOverlap < 0 {
		c.RAG.ChunkOverlap = 0
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = def.TopK
	}
	if c.RAG.PerPageCap <= 0 {
		c.RAG.PerPageCap = def.PerPageCap
	}
	if c.RAG.MaxTokens <= 0 {
		c.RAG.MaxTokens = def.MaxTokens
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "chromem"
	}
	if c.Store.IndexDir == "" {
		c.Store.IndexDir = "./data/index"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "pdf_rag"
	}
	if c.Store.VectorSize <= 0 {
		c.Store.VectorSize = 768
	}
}
