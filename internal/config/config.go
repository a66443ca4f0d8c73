// Package config holds all taskseek configuration.
// Configuration is an explicit struct constructed once at startup and passed
// into the router, agents, and interaction loop. There is no ambient global
// state; secrets may be overridden from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all taskseek configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM backend configuration
	LLM LLMConfig `yaml:"llm"`

	// Router / classifier configuration
	Router RouterConfig `yaml:"router"`

	// Browser driver configuration
	Browser BrowserConfig `yaml:"browser"`

	// Session persistence
	Session SessionConfig `yaml:"session"`

	// Prompt templates
	Prompts PromptsConfig `yaml:"prompts"`

	// Tool execution settings
	Execution ExecutionConfig `yaml:"execution"`

	// MCP server integration
	MCP MCPConfig `yaml:"mcp"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the generation backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// RouterConfig configures classification-based dispatch.
type RouterConfig struct {
	// Strategy selects the classifier: "remote" (chat-completion label
	// emission) or "local" (embedding-based zero-shot scoring).
	Strategy string `yaml:"strategy"`

	// Threshold passed to the classifier (default: 0.5).
	Threshold float64 `yaml:"threshold"`

	// EmbeddingModel used by the local strategy.
	EmbeddingModel string `yaml:"embedding_model"`

	// Fallback policy when the remote classifier returns an unregistered
	// label: "first" (default agent) is the only policy currently shipped,
	// kept configurable rather than hard-wired.
	Fallback string `yaml:"fallback"`
}

// BrowserConfig configures the rod-backed browser driver.
type BrowserConfig struct {
	Headless            bool `yaml:"headless"`
	NavigationTimeoutMs int  `yaml:"navigation_timeout_ms"`
	MaxSteps            int  `yaml:"max_steps"` // Step limit for the browse loop
	PageTextLimit       int  `yaml:"page_text_limit"`
}

// NavigationTimeout returns the navigation timeout.
func (c BrowserConfig) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// SessionConfig configures session persistence.
type SessionConfig struct {
	// Save enables session persistence.
	Save bool `yaml:"save"`

	// DatabasePath is the SQLite session store location.
	DatabasePath string `yaml:"database_path"`

	// ConversationsDir receives per-agent conversation exports.
	ConversationsDir string `yaml:"conversations_dir"`

	// TrainingDataDir receives the bulk copy of completed session artifacts.
	TrainingDataDir string `yaml:"training_data_dir"`
}

// PromptsConfig configures prompt template loading.
type PromptsConfig struct {
	Dir       string `yaml:"dir"`
	HotReload bool   `yaml:"hot_reload"`
}

// ExecutionConfig configures the tool executor.
type ExecutionConfig struct {
	AllowedBinaries  []string `yaml:"allowed_binaries"`
	DefaultTimeout   string   `yaml:"default_timeout"`
	WorkingDirectory string   `yaml:"working_directory"`
}

// Timeout returns the parsed default tool timeout.
func (c ExecutionConfig) Timeout() time.Duration {
	if d, err := time.ParseDuration(c.DefaultTimeout); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}

// MCPConfig configures the MCP server the mcp agent talks to.
type MCPConfig struct {
	Enabled bool     `yaml:"enabled"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Timeout string   `yaml:"timeout"`
}

// CallTimeout returns the parsed per-call MCP timeout.
func (c MCPConfig) CallTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// LoggingConfig configures categorized logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "taskseek",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			BaseURL:  "http://127.0.0.1:11434/v1",
			Timeout:  "120s",
		},

		Router: RouterConfig{
			Strategy:       "remote",
			Threshold:      0.5,
			EmbeddingModel: "gemini-embedding-001",
			Fallback:       "first",
		},

		Browser: BrowserConfig{
			Headless:            true,
			NavigationTimeoutMs: 30000,
			MaxSteps:            8,
			PageTextLimit:       8000,
		},

		Session: SessionConfig{
			Save:             true,
			DatabasePath:     ".seek/sessions.db",
			ConversationsDir: "conversations",
			TrainingDataDir:  "training_data",
		},

		Prompts: PromptsConfig{
			Dir:       "prompts",
			HotReload: false,
		},

		Execution: ExecutionConfig{
			AllowedBinaries: []string{"python3", "bash", "go", "ls", "cat"},
			DefaultTimeout:  "60s",
		},

		MCP: MCPConfig{
			Enabled: false,
			Timeout: "30s",
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads configuration from a YAML file, layered over defaults.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets the environment supply secrets so they stay out of
// config files.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TASKSEEK_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("TASKSEEK_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("TASKSEEK_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
}

// Validate checks configuration invariants that cannot be defaulted away.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	switch c.Router.Strategy {
	case "remote", "local":
	default:
		return fmt.Errorf("unknown router strategy %q", c.Router.Strategy)
	}

	if c.Router.Threshold < 0 || c.Router.Threshold > 1 {
		return fmt.Errorf("router threshold %.2f out of range [0,1]", c.Router.Threshold)
	}

	if _, err := time.ParseDuration(c.LLM.Timeout); c.LLM.Timeout != "" && err != nil {
		return fmt.Errorf("invalid llm timeout %q: %w", c.LLM.Timeout, err)
	}
	return nil
}

// LLMTimeout returns the parsed backend timeout.
func (c *Config) LLMTimeout() time.Duration {
	if d, err := time.ParseDuration(c.LLM.Timeout); err == nil && d > 0 {
		return d
	}
	return 120 * time.Second
}
