package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region types

// Memory backends.
const (
	MemoryBackendLexical   = "lexical"
	MemoryBackendEmbedding = "embedding"
)

// Agent backends.
const (
	AgentBackendLLM       = "llm"
	AgentBackendHeuristic = "heuristic"
)

// MemoryConfig selects the similarity backend and retrieval knobs.
type MemoryConfig struct {
	Backend       string  `yaml:"backend"`
	TopK          int     `yaml:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity"`
	PersistPath   string  `yaml:"persistence_path"`
	EmbedModel    string  `yaml:"embed_model"`
}

// AgentConfig configures one agent tier.
type AgentConfig struct {
	Backend     string  `yaml:"backend"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
}

// APIKey reads the agent's key from its configured environment variable.
func (a AgentConfig) APIKey() string {
	return os.Getenv(a.APIKeyEnv)
}

// LoopConfig bounds and instruments the decision loop.
type LoopConfig struct {
	MaxEvents           int    `yaml:"max_events"`
	AuditEvery          int    `yaml:"audit_every"`
	StatePath           string `yaml:"state_path"`
	LogPath             string `yaml:"log_path"`
	ArchivePath         string `yaml:"archive_path"`
	IncludeStateInQuery bool   `yaml:"include_state_in_query"`
	UseState            bool   `yaml:"use_state"`
	UseRetrieval        bool   `yaml:"use_retrieval"`
}

// Config is the root of the YAML config file.
type Config struct {
	Seed     int64        `yaml:"seed"`
	DataPath string       `yaml:"data_path"`
	Memory   MemoryConfig `yaml:"memory"`
	Proposer AgentConfig  `yaml:"proposer"`
	Reviewer AgentConfig  `yaml:"reviewer"`
	Loop     LoopConfig   `yaml:"loop"`
}

// #endregion types

// #region defaults

// Default returns the full default configuration: lexical memory,
// Together.ai generative agents, fifty events per run.
func Default() Config {
	return Config{
		Seed:     42,
		DataPath: "data/synthetic_comments.json",
		Memory: MemoryConfig{
			Backend:       MemoryBackendLexical,
			TopK:          3,
			MinSimilarity: 0.05,
		},
		Proposer: AgentConfig{
			Backend:     AgentBackendLLM,
			Model:       "Qwen/Qwen2.5-7B-Instruct-Turbo",
			MaxTokens:   256,
			Temperature: 0.4,
			BaseURL:     "https://api.together.xyz/v1",
			APIKeyEnv:   "TOGETHER_API_KEY",
		},
		Reviewer: AgentConfig{
			Backend:     AgentBackendLLM,
			Model:       "meta-llama/Llama-3.3-70B-Instruct-Turbo",
			MaxTokens:   512,
			Temperature: 0.2,
			BaseURL:     "https://api.together.xyz/v1",
			APIKeyEnv:   "TOGETHER_API_KEY",
		},
		Loop: LoopConfig{
			MaxEvents:    50,
			AuditEvery:   1,
			StatePath:    "data/user_state.json",
			UseState:     true,
			UseRetrieval: true,
		},
	}
}

// #endregion defaults

// #region load

// Load reads a YAML config over the defaults, so omitted keys keep
// their default values, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects unknown backends and out-of-range knobs.
func (c Config) Validate() error {
	switch c.Memory.Backend {
	case MemoryBackendLexical, MemoryBackendEmbedding:
	default:
		return fmt.Errorf("memory.backend: unknown %q", c.Memory.Backend)
	}
	if c.Memory.TopK <= 0 {
		return fmt.Errorf("memory.top_k: must be positive, got %d", c.Memory.TopK)
	}
	if c.Memory.MinSimilarity < 0 || c.Memory.MinSimilarity > 1 {
		return fmt.Errorf("memory.min_similarity: must be in [0,1], got %v", c.Memory.MinSimilarity)
	}
	for name, a := range map[string]AgentConfig{"proposer": c.Proposer, "reviewer": c.Reviewer} {
		switch a.Backend {
		case AgentBackendLLM, AgentBackendHeuristic:
		default:
			return fmt.Errorf("%s.backend: unknown %q", name, a.Backend)
		}
		if a.Backend == AgentBackendLLM && a.Model == "" {
			return fmt.Errorf("%s.model: required for the llm backend", name)
		}
		if a.MaxTokens < 0 {
			return fmt.Errorf("%s.max_tokens: must not be negative, got %d", name, a.MaxTokens)
		}
		if a.Temperature < 0 {
			return fmt.Errorf("%s.temperature: must not be negative, got %v", name, a.Temperature)
		}
	}
	if c.Loop.MaxEvents <= 0 {
		return fmt.Errorf("loop.max_events: must be positive, got %d", c.Loop.MaxEvents)
	}
	if c.Loop.AuditEvery <= 0 {
		return fmt.Errorf("loop.audit_every: must be positive, got %d", c.Loop.AuditEvery)
	}
	return nil
}

// #endregion load
