package steward

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Store backends selectable via configuration.
const (
	StoreBackendMemory   = "memory"
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

// Config holds the agent's runtime settings. Values come from a YAML file,
// the environment (STEWARD_* variables), or both, with the environment
// taking precedence.
type Config struct {
	StoreBackend string `yaml:"store_backend" envconfig:"STORE_BACKEND"`
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR"`

	PostgresDSN string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`

	RedisAddr     string `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" envconfig:"REDIS_DB"`

	OpenAIAPIKey string `yaml:"openai_api_key" envconfig:"OPENAI_API_KEY"`
	ModelName    string `yaml:"model_name" envconfig:"MODEL_NAME"`

	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"`
}

func (c *Config) applyDefaults() {
	if c.StoreBackend == "" {
		c.StoreBackend = StoreBackendFile
	}
	if c.ModelName == "" {
		c.ModelName = "gpt-4o-mini"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// LoadConfig reads the optional YAML file at path, then overlays STEWARD_*
// environment variables. An empty path skips the file step.
func LoadConfig(path string) (*Config, error) {
	var config Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewValidationError("failed to read config file %q: %v", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, NewValidationError("failed to parse config file %q: %v", path, err)
		}
	}
	if err := envconfig.Process("steward", &config); err != nil {
		return nil, NewValidationError("failed to process environment: %v", err)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendMemory, StoreBackendFile:
	case StoreBackendPostgres:
		if c.PostgresDSN == "" {
			return NewValidationError("postgres store requires postgres_dsn")
		}
	case StoreBackendRedis:
		if c.RedisAddr == "" {
			return NewValidationError("redis store requires redis_addr")
		}
	default:
		return NewValidationError("unknown store backend %q", c.StoreBackend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return NewValidationError("unknown log format %q", c.LogFormat)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{store=%s model=%s log=%s/%s}",
		c.StoreBackend, c.ModelName, c.LogLevel, c.LogFormat)
}
