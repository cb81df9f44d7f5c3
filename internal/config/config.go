// Package config loads service settings from an optional YAML file, a .env file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MalithGihan/flowviz-service/internal/validate"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

type Config struct {
	Port            string        `yaml:"port" env:"PORT" json:"port" validate:"required,numeric"`
	GraphServiceURL string        `yaml:"graphServiceURL" env:"GRAPH_SERVICE_URL" json:"graphServiceURL" validate:"required,url"`
	DataRoot        string        `yaml:"dataRoot" env:"DATA_ROOT" json:"dataRoot" validate:"required"`
	LogLevel        string        `yaml:"logLevel" env:"LOG_LEVEL" json:"logLevel" validate:"oneof=debug info warn error"`
	ReadTimeout     time.Duration `yaml:"readTimeout" env:"READ_TIMEOUT" json:"readTimeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" env:"WRITE_TIMEOUT" json:"writeTimeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" env:"IDLE_TIMEOUT" json:"idleTimeout" validate:"gt=0"`
	UpstreamTimeout time.Duration `yaml:"upstreamTimeout" env:"UPSTREAM_TIMEOUT" json:"upstreamTimeout" validate:"gt=0"`
	UpstreamRPS     float64       `yaml:"upstreamRPS" env:"UPSTREAM_RPS" json:"upstreamRPS" validate:"gte=0"`
	UploadLimitMB   int64         `yaml:"uploadLimitMB" env:"UPLOAD_LIMIT_MB" json:"uploadLimitMB" validate:"gte=1"`
	CORSOrigins     []string      `yaml:"corsOrigins" env:"CORS_ORIGINS" envSeparator:"," json:"corsOrigins"`

	DefaultLabelMode string `yaml:"defaultLabelMode" env:"DEFAULT_LABEL_MODE" json:"defaultLabelMode" validate:"oneof=events time"`
	DefaultPower     int    `yaml:"defaultPower" env:"DEFAULT_POWER" json:"defaultPower" validate:"gte=0,lte=100"`
}

// Default serves on port 8085 with long timeouts for multi-GB
// uploads, every edge visible.
func Default() Config {
	return Config{
		Port:             "8085",
		GraphServiceURL:  "http://localhost:8090",
		DataRoot:         "./data",
		LogLevel:         "info",
		ReadTimeout:      60 * time.Minute,
		WriteTimeout:     60 * time.Minute,
		IdleTimeout:      60 * time.Second,
		UpstreamTimeout:  15 * time.Minute,
		UpstreamRPS:      0,
		UploadLimitMB:    3 * 1024,
		CORSOrigins:      []string{"*"},
		DefaultLabelMode: string(types.LabelEvents),
		DefaultPower:     100,
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE or path, then
// environment variables, and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load the env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Addr() string { return ":" + c.Port }

func (c *Config) UploadLimitBytes() int64 { return c.UploadLimitMB << 20 }

func (c *Config) DisplayDefaults() types.DisplayParameters {
	return types.DisplayParameters{
		LabelMode:    types.LabelMode(c.DefaultLabelMode),
		PowerPercent: c.DefaultPower,
	}
}
