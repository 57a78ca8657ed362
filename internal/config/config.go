package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigRelPath = ".oas2postman/config.yaml"
	defaultStoreRelPath  = ".oas2postman/history.db"
)

type ConvertConfig struct {
	BaseURL      string `yaml:"base_url"`
	OutputFormat string `yaml:"output_format"`
	Indent       int    `yaml:"indent"`
	StableID     bool   `yaml:"stable_id"`
	ExporterID   string `yaml:"exporter_id"`
	Strict       bool   `yaml:"strict"`
}

type FilterConfig struct {
	IgnorePaths    []string `yaml:"ignore_paths"`
	IncludeTags    []string `yaml:"include_tags"`
	ExcludeTags    []string `yaml:"exclude_tags"`
	SkipDeprecated bool     `yaml:"skip_deprecated"`
}

type SanitizeConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Headers     []string `yaml:"headers"`
	BodyFields  []string `yaml:"body_fields"`
	Replacement string   `yaml:"replacement"`
}

type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	CORSOrigin   string `yaml:"cors_origin"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

type StoreConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Convert  ConvertConfig  `yaml:"convert"`
	Filter   FilterConfig   `yaml:"filter"`
	Sanitize SanitizeConfig `yaml:"sanitize"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns a config with defaults applied and the switches that
// default to on already set.
func Default() *Config {
	cfg := &Config{}
	cfg.Sanitize.Enabled = true
	cfg.Store.Enabled = true
	cfg.SetDefaults()
	return cfg
}

// Load loads YAML config, then applies env overrides. A missing file is
// not an error.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, defaultConfigRelPath)
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.SetDefaults()
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.Convert.OutputFormat == "" {
		c.Convert.OutputFormat = "json"
	}
	if c.Convert.Indent == 0 {
		c.Convert.Indent = 2
	}
	if c.Convert.ExporterID == "" {
		c.Convert.ExporterID = "oas2postman"
	}
	if len(c.Sanitize.Headers) == 0 {
		c.Sanitize.Headers = []string{"Authorization", "Cookie", "Set-Cookie", "X-Api-Key", "X-Auth-Token"}
	}
	if len(c.Sanitize.BodyFields) == 0 {
		c.Sanitize.BodyFields = []string{"password", "secret", "token", "api_key", "access_token", "refresh_token", "credential"}
	}
	if c.Sanitize.Replacement == "" {
		c.Sanitize.Replacement = "***REDACTED***"
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 10 << 20
	}
	if c.Store.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Store.Path = filepath.Join(home, defaultStoreRelPath)
		} else {
			c.Store.Path = "history.db"
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Convert.OutputFormat) {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("convert.output_format must be json or yaml, got %q", c.Convert.OutputFormat)
	}
	if c.Convert.Indent < 0 {
		return errors.New("convert.indent cannot be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Store.Enabled && strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path cannot be empty")
	}
	return nil
}

// ValidateServe enforces serve-specific requirements.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return errors.New("server.host cannot be empty")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes cannot be negative")
	}
	return nil
}

func applyEnvOverrides(c *Config) {
	setString(&c.Convert.BaseURL, "OAS2POSTMAN_BASE_URL")
	setString(&c.Convert.OutputFormat, "OAS2POSTMAN_OUTPUT_FORMAT")
	setInt(&c.Convert.Indent, "OAS2POSTMAN_INDENT")
	setBool(&c.Convert.StableID, "OAS2POSTMAN_STABLE_ID")
	setBool(&c.Convert.Strict, "OAS2POSTMAN_STRICT")
	setBool(&c.Sanitize.Enabled, "OAS2POSTMAN_SANITIZE")
	setString(&c.Server.Host, "OAS2POSTMAN_SERVER_HOST")
	setInt(&c.Server.Port, "OAS2POSTMAN_SERVER_PORT")
	setString(&c.Server.CORSOrigin, "OAS2POSTMAN_CORS_ORIGIN")
	setString(&c.Store.Path, "OAS2POSTMAN_STORE_PATH")
	setBool(&c.Store.Enabled, "OAS2POSTMAN_STORE_ENABLED")
	setString(&c.Log.Level, "OAS2POSTMAN_LOG_LEVEL")
	setString(&c.Log.Format, "OAS2POSTMAN_LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
