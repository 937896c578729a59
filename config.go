package knowledgehub

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the knowledgehub engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.knowledgehub/knowledgehub.db
	DBPath string `json:"db_path"`

	// StorageDir is the directory where uploaded document bodies and
	// reviewer attachments are written, one file per content hash.
	StorageDir string `json:"storage_dir"`

	// LLMProvider selects the record extractor: "stub" (rule-based,
	// no network calls) or "llm" (Claude-backed).
	LLMProvider string `json:"llm_provider"`

	// AnthropicAPIKey authenticates the "llm" extractor. Required when
	// LLMProvider is "llm".
	AnthropicAPIKey string `json:"-"`

	// MaxChunkTokens, MinChunkTokens and ChunkOverlap control the
	// chunker's section splitting (§4.3 of the ingestion pipeline).
	MaxChunkTokens int `json:"max_chunk_tokens"`
	MinChunkTokens int `json:"min_chunk_tokens"`
	ChunkOverlap   int `json:"chunk_overlap"`

	// WorkerConcurrency is loaded from KH_WORKER_CONCURRENCY but nothing
	// reads it: each upload runs its pipeline on its own goroutine, with no
	// cap on how many run at once.
	WorkerConcurrency int `json:"worker_concurrency"`

	// APIKey gates all HTTP routes when non-empty.
	APIKey string `json:"-"`

	// CORSOrigins lists allowed origins for the HTTP server. A single "*"
	// allows all origins.
	CORSOrigins []string `json:"cors_origins"`

	// EmbeddingDim must match chunker.EmbeddingDim.
	EmbeddingDim int `json:"embedding_dim"`
}

// DefaultConfig returns a Config with sensible defaults for local
// development: the stub extractor, no API key, database under
// ~/.knowledgehub/.
func DefaultConfig() Config {
	return Config{
		StorageDir:        "storage",
		LLMProvider:       "stub",
		MaxChunkTokens:    500,
		MinChunkTokens:    100,
		ChunkOverlap:      50,
		WorkerConcurrency: 4,
		CORSOrigins:       []string{"*"},
		EmbeddingDim:      1536,
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "knowledgehub.db"
	}
	return filepath.Join(home, ".knowledgehub", "knowledgehub.db")
}

// LoadConfigFromEnv overlays KH_* environment variables onto a base
// Config (typically DefaultConfig()).
func LoadConfigFromEnv(base Config) Config {
	c := base

	if v := os.Getenv("KH_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("KH_STORAGE_DIR"); v != "" {
		c.StorageDir = v
	}
	if v := os.Getenv("KH_LLM_PROVIDER"); v != "" {
		c.LLMProvider = v
	}
	if v := os.Getenv("KH_ANTHROPIC_API_KEY"); v != "" {
		c.AnthropicAPIKey = v
	}
	if v := os.Getenv("KH_MAX_CHUNK_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxChunkTokens = n
		}
	}
	if v := os.Getenv("KH_MIN_CHUNK_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MinChunkTokens = n
		}
	}
	if v := os.Getenv("KH_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkOverlap = n
		}
	}
	if v := os.Getenv("KH_WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WorkerConcurrency = n
		}
	}
	if v := os.Getenv("KH_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("KH_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}

	return c
}
