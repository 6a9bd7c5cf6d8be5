// Package config provides YAML-based configuration with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up next to the working directory.
const DefaultPath = "resumend.yaml"

// AppConfig is the root configuration document.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Remote  RemoteConfig  `yaml:"remote"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port                 int    `yaml:"port" validate:"min=1,max=65535"`
	BindAddress          string `yaml:"bindAddress"`
	EnableCORS           bool   `yaml:"enableCors"`
	AllowOrigins         string `yaml:"allowOrigins"`
	ReadTimeout          int    `yaml:"readTimeoutSeconds" validate:"gt=0"`
	WriteTimeout         int    `yaml:"writeTimeoutSeconds" validate:"gt=0"`
	IdleTimeout          int    `yaml:"idleTimeoutSeconds" validate:"gt=0"`
	BodyLimit            string `yaml:"bodyLimit" validate:"required"`
	EnableCompression    bool   `yaml:"enableCompression"`
	CompressionLevel     int    `yaml:"compressionLevel" validate:"min=-1,max=9"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
}

// RemoteConfig points at the resume analysis service.
type RemoteConfig struct {
	BaseURL             string `yaml:"baseUrl" validate:"required,url"`
	UploadPath          string `yaml:"uploadPath" validate:"required,startswith=/"`
	QueryPath           string `yaml:"queryPath" validate:"required,startswith=/"`
	QueryTimeoutSeconds int    `yaml:"queryTimeoutSeconds" validate:"gt=0"`
}

// SessionConfig controls browser tab lifetime.
type SessionConfig struct {
	TabTTLMinutes          int `yaml:"tabTtlMinutes" validate:"gt=0"`
	CleanupIntervalSeconds int `yaml:"cleanupIntervalSeconds" validate:"gt=0"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	FilePath   string `yaml:"filePath"`
	Production bool   `yaml:"production"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:                 8089,
			BindAddress:          "0.0.0.0",
			EnableCORS:           false,
			AllowOrigins:         "*",
			ReadTimeout:          30,
			WriteTimeout:         60,
			IdleTimeout:          120,
			BodyLimit:            "20M",
			EnableCompression:    true,
			CompressionLevel:     5,
			EnableRequestLogging: true,
		},
		Remote: RemoteConfig{
			BaseURL:             "https://headstarter-resume-app.onrender.com",
			UploadPath:          "/upload",
			QueryPath:           "/query",
			QueryTimeoutSeconds: 20,
		},
		Session: SessionConfig{
			TabTTLMinutes:          10,
			CleanupIntervalSeconds: 60,
		},
		Logging: LoggingConfig{
			Level:    "info",
			FilePath: "./logs/resumend.log",
		},
	}
}

// Load reads configuration from path. A missing file is created with the
// defaults. A .env file in the working directory, when present, is loaded
// first so its variables take part in the overrides.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()
	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# Resumend client configuration\n# This file is auto-generated on first run\n\n")
	if err := os.WriteFile(path, append(header, out...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if url := os.Getenv("RESUMEND_REMOTE_URL"); url != "" {
		c.Remote.BaseURL = url
	}
	if level := os.Getenv("RESUMEND_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file, ok := os.LookupEnv("RESUMEND_LOG_FILE"); ok {
		c.Logging.FilePath = file
	}
	if os.Getenv("GO_ENV") == "production" {
		c.Logging.Production = true
	}
}

// resolvePaths converts a relative log path to one next to the config file
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Logging.FilePath != "" && !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(configDir, c.Logging.FilePath)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// QueryTimeout returns the query deadline.
func (c *AppConfig) QueryTimeout() time.Duration {
	return time.Duration(c.Remote.QueryTimeoutSeconds) * time.Second
}

// TabTTL returns how long an idle tab is kept.
func (c *AppConfig) TabTTL() time.Duration {
	return time.Duration(c.Session.TabTTLMinutes) * time.Minute
}

// CleanupInterval returns how often expired tabs are purged.
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Session.CleanupIntervalSeconds) * time.Second
}
