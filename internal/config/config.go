package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // quota days follow a fixed zone regardless of the host

	"github.com/creasty/defaults"
	"github.com/markis/bizcoach/internal/segment"
	"gopkg.in/yaml.v3"
)

const (
	configDirName = "bizcoach"
	defaultConfig = ".config"
)

var configFiles = []string{
	"config.yaml",
	"config.yml",
}

// Providers that can produce a coached response.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderScripted = "scripted"
)

// Quota stores.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config represents the structure of the configuration file used by the application.
type Config struct {
	// Schema selects the tag layout shared by the prompt and the parser ("a" or "b").
	Schema   string `yaml:"schema" default:"b"`
	Provider string `yaml:"provider" default:"gemini"`
	Model    string `yaml:"model" default:"gemini-1.5-flash"`
	// BaseURL overrides the endpoint of OpenAI-compatible providers.
	BaseURL string `yaml:"base_url"`

	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Quota  QuotaConfig  `yaml:"quota"`
	Render RenderConfig `yaml:"render"`
	Log    LogConfig    `yaml:"log"`
	Script ScriptConfig `yaml:"script"`

	// Scenes adds to or overrides the built-in scene catalogue.
	Scenes map[string]SceneConfig `yaml:"scenes"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr" default:":8787"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" default:"10s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" default:"10s"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" default:"65536"`
	MaxHistory        int           `yaml:"max_history" default:"20"`
}

type ClientConfig struct {
	URL     string        `yaml:"url" default:"http://localhost:8787"`
	UserID  string        `yaml:"user_id" default:"local"`
	Scene   string        `yaml:"scene" default:"morning-sync"`
	Timeout time.Duration `yaml:"timeout" default:"60s"`
}

// QuotaConfig configures the daily chat limit. A negative limit disables it.
type QuotaConfig struct {
	DailyLimit int      `yaml:"daily_limit" default:"5"`
	Timezone   string   `yaml:"timezone" default:"Asia/Tokyo"`
	Store      string   `yaml:"store" default:"memory"`
	Path       string   `yaml:"path"`
	ProUsers   []string `yaml:"pro_users"`
}

type RenderConfig struct {
	Format string `yaml:"format" default:"markdown"`
	Theme  string `yaml:"theme" default:"dark"`
	Wrap   int    `yaml:"wrap" default:"120"`
}

type LogConfig struct {
	Level string `yaml:"level" default:"info"`
}

// ScriptConfig drives the scripted provider, which replays a fixed response.
type ScriptConfig struct {
	Response  string        `yaml:"response"`
	ChunkSize int           `yaml:"chunk_size" default:"5"`
	Delay     time.Duration `yaml:"delay"`
}

// SceneConfig describes a role-play scene.
type SceneConfig struct {
	Label     string `yaml:"label"`
	Context   string `yaml:"context"`
	Focus     string `yaml:"focus"`
	Opening   string `yaml:"opening"`
	OpeningJP string `yaml:"opening_jp"`
}

// configResult is a struct used to return the configuration and any error that occurs during loading.
type configResult struct {
	config *Config
	err    error
}

// newDefaultConfig creates a configuration populated from the struct defaults.
func newDefaultConfig() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	return cfg
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return newDefaultConfig()
}

// Dir returns the configuration directory based on the XDG_CONFIG_HOME environment variable.
func Dir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configHome = filepath.Join(home, defaultConfig)
	}

	return filepath.Join(configHome, configDirName), nil
}

// tryLoadConfig attempts to load a configuration file from the specified path.
func tryLoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := newDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadConfig loads the configuration from the user's config directory, with a timeout.
func LoadConfig(ctx context.Context) (*Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result := make(chan configResult, 1)

	go func() {
		cfg, err := loadConfigFiles(ctx)
		result <- configResult{config: cfg, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-result:
		if r.err != nil {
			return nil, r.err
		}
		if err := r.config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return r.config, nil
	}
}

// loadConfigFiles loads configuration files from the config directory.
func loadConfigFiles(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before loading config: %w", err)
	}

	configDir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	// Return default config early if directory doesn't exist
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return newDefaultConfig(), nil
	}

	for _, filename := range configFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cfg, err := tryLoadConfig(filepath.Join(configDir, filename))
		if err == nil {
			return cfg, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config from %s: %w", filename, err)
		}
	}

	return newDefaultConfig(), nil
}

// SectionSchema resolves the configured schema.
func (c *Config) SectionSchema() (segment.Schema, error) {
	return segment.SchemaByName(c.Schema)
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if _, err := c.SectionSchema(); err != nil {
		return err
	}
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderScripted:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	switch c.Quota.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.Quota.Path == "" {
			return errors.New("quota.path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown quota store %q", c.Quota.Store)
	}
	if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
		return fmt.Errorf("invalid quota timezone: %w", err)
	}
	if c.Script.ChunkSize <= 0 {
		return errors.New("script.chunk_size must be positive")
	}
	return nil
}
