// Package config handles configuration loading and management for aitril.
// It supports XDG config paths, project-level overrides, and environment
// variables. Load returns an immutable snapshot: a coordination run reads the
// snapshot it was given and never observes later edits.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"
)

// Config holds all configuration for aitril.
type Config struct {
	Providers    map[string]ProviderConfig `mapstructure:"providers"`
	Deployment   map[string]TargetConfig   `mapstructure:"deployment"`
	Coordination CoordinationConfig        `mapstructure:"coordination"`
	Server       ServerConfig              `mapstructure:"server"`
	History      HistoryConfig             `mapstructure:"history"`
}

// ProviderConfig holds settings for a single LLM provider backend.
type ProviderConfig struct {
	// Name is a human-readable display name (e.g. "Claude (Anthropic)").
	Name string `mapstructure:"name"`
	// Enabled toggles whether the provider participates in runs.
	Enabled bool `mapstructure:"enabled"`
	// Model overrides the provider's default model.
	Model string `mapstructure:"model"`
	// BaseURL points local providers (ollama, llamacpp) at their server.
	BaseURL string `mapstructure:"base_url"`
	// EnableTools lets the provider request tool executions during a run.
	EnableTools bool `mapstructure:"enable_tools"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `mapstructure:"api_key_env"`
	// UseBedrock routes Anthropic calls through AWS Bedrock.
	UseBedrock bool `mapstructure:"use_bedrock"`
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name for Bedrock.
	AWSProfile string `mapstructure:"aws_profile"`
}

// TargetConfig holds settings for a single deployment target.
type TargetConfig struct {
	Name    string            `mapstructure:"name"`
	Enabled bool              `mapstructure:"enabled"`
	Options map[string]string `mapstructure:"options"`
}

// CoordinationConfig holds bounds and knobs for the collaboration strategies.
type CoordinationConfig struct {
	// DebateRounds is the number of rounds in debate mode.
	DebateRounds int `mapstructure:"debate_rounds"`
	// MaxToolIterations caps the provider-driven tool loop per agent turn.
	MaxToolIterations int `mapstructure:"max_tool_iterations"`
	// MaxReviseCycles bounds the review -> implementation loop in build mode.
	MaxReviseCycles int `mapstructure:"max_revise_cycles"`
	// SynthesisProvider names the provider that writes consensus syntheses.
	// Empty means the first enabled provider in sorted order.
	SynthesisProvider string `mapstructure:"synthesis_provider"`
}

// ServerConfig holds settings for the web observer.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// HistoryConfig holds session history settings.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// Load loads configuration from XDG paths, project overrides, and environment
// variables. Precedence (highest to lowest):
// 1. Environment variables (provider API keys)
// 2. Project config (.aitril.yaml in current directory or parent)
// 3. User config (~/.config/aitril/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvProviders(cfg)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvProviders(cfg)

	return cfg, nil
}

// applyEnvProviders enables providers whose API key env vars are set but
// which have no explicit configuration. This mirrors running against a bare
// environment: exporting ANTHROPIC_API_KEY is enough to enable anthropic.
func applyEnvProviders(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	envDefaults := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"gemini":    "GOOGLE_API_KEY",
	}
	for name, envVar := range envDefaults {
		if _, configured := cfg.Providers[name]; configured {
			continue
		}
		if os.Getenv(envVar) == "" {
			continue
		}
		cfg.Providers[name] = ProviderConfig{
			Enabled:   true,
			APIKeyEnv: envVar,
		}
	}
}

// EnabledProviders returns the names of enabled providers in sorted order.
// Sorted order keeps sequential mode and synthesis selection deterministic.
func (c *Config) EnabledProviders() []string {
	var names []string
	for name, pc := range c.Providers {
		if pc.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	for name, pc := range cfg.Providers {
		key := "providers." + name
		v.Set(key+".name", pc.Name)
		v.Set(key+".enabled", pc.Enabled)
		v.Set(key+".model", pc.Model)
		v.Set(key+".base_url", pc.BaseURL)
		v.Set(key+".enable_tools", pc.EnableTools)
		v.Set(key+".api_key_env", pc.APIKeyEnv)
	}
	for name, tc := range cfg.Deployment {
		key := "deployment." + name
		v.Set(key+".name", tc.Name)
		v.Set(key+".enabled", tc.Enabled)
		v.Set(key+".options", tc.Options)
	}
	v.Set("coordination.debate_rounds", cfg.Coordination.DebateRounds)
	v.Set("coordination.max_tool_iterations", cfg.Coordination.MaxToolIterations)
	v.Set("coordination.max_revise_cycles", cfg.Coordination.MaxReviseCycles)
	v.Set("coordination.synthesis_provider", cfg.Coordination.SynthesisProvider)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.db_path", cfg.History.DBPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("coordination.debate_rounds", 2)
	v.SetDefault("coordination.max_tool_iterations", 5)
	v.SetDefault("coordination.max_revise_cycles", 2)
	v.SetDefault("coordination.synthesis_provider", "")

	v.SetDefault("server.addr", ":8000")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.db_path", "")

	v.SetDefault("deployment.local.name", "Local File System")
	v.SetDefault("deployment.local.enabled", true)
	v.SetDefault("deployment.local.options", map[string]string{"output_dir": "./output"})
	v.SetDefault("deployment.docker.name", "Docker Container")
	v.SetDefault("deployment.docker.enabled", true)
	v.SetDefault("deployment.github.name", "GitHub Pages")
	v.SetDefault("deployment.github.enabled", false)
	v.SetDefault("deployment.ec2.name", "AWS EC2")
	v.SetDefault("deployment.ec2.enabled", false)
}

// getUserConfigDir returns the XDG config directory for aitril.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "aitril")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "aitril")
	}
	return filepath.Join(home, ".config", "aitril")
}

// findProjectConfig searches for .aitril.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".aitril.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values and the three hosted
// providers registered but disabled until a key is present.
func Default() *Config {
	return &Config{
		Providers: map[string]ProviderConfig{
			"openai": {
				Name:      "GPT (OpenAI)",
				Enabled:   false,
				APIKeyEnv: "OPENAI_API_KEY",
			},
			"anthropic": {
				Name:      "Claude (Anthropic)",
				Enabled:   false,
				APIKeyEnv: "ANTHROPIC_API_KEY",
			},
			"gemini": {
				Name:      "Gemini (Google)",
				Enabled:   false,
				APIKeyEnv: "GOOGLE_API_KEY",
			},
		},
		Deployment: map[string]TargetConfig{
			"local": {
				Name:    "Local File System",
				Enabled: true,
				Options: map[string]string{"output_dir": "./output"},
			},
			"docker": {
				Name:    "Docker Container",
				Enabled: true,
				Options: map[string]string{},
			},
			"github": {
				Name:    "GitHub Pages",
				Enabled: false,
				Options: map[string]string{},
			},
			"ec2": {
				Name:    "AWS EC2",
				Enabled: false,
				Options: map[string]string{},
			},
		},
		Coordination: CoordinationConfig{
			DebateRounds:      2,
			MaxToolIterations: 5,
			MaxReviseCycles:   2,
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}
