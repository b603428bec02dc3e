package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ragdash/internal/domain"
)

// RemoteConfig locates the analysis service.
type RemoteConfig struct {
	BaseURL     string `yaml:"base_url" env:"BASE_URL" validate:"required,url"`
	TimeoutSecs int    `yaml:"timeout_secs" env:"TIMEOUT_SECS" validate:"min=0"`
}

// Timeout converts TimeoutSecs; zero means no client-side timeout.
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSecs) * time.Second
}

// LogConfig configures the file logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=text json"`
	File   string `yaml:"file" env:"LOG_FILE"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Remote   RemoteConfig          `yaml:"remote" envPrefix:"RAGDASH_"`
	Pipeline domain.PipelineConfig `yaml:"pipeline"`
	Log      LogConfig             `yaml:"log" envPrefix:"RAGDASH_"`
}

const (
	defaultBaseURL = "http://localhost:8000"
	appDir         = "ragdash"
)

// Load reads a config from path, applies defaults and RAGDASH_* environment
// overrides, and validates the result. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return finalize(defaultConfig())
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return finalize(cfg)
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragdash/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragdash/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := userConfigPath("config.yaml")
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	out, err := finalize(cfg)
	return out, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func userConfigPath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDir, name), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Remote:   RemoteConfig{BaseURL: defaultBaseURL},
		Pipeline: domain.DefaultPipelineConfig(),
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

func finalize(cfg *AppConfig) (*AppConfig, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	applyConfigDefaults(cfg)
	method, err := domain.ParseChunkMethod(string(cfg.Pipeline.Method))
	if err != nil {
		return nil, fmt.Errorf("invalid config: AppConfig.Pipeline.Method: %w", err)
	}
	cfg.Pipeline.Method = method
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyConfigDefaults(cfg *AppConfig) {
	cfg.Remote.BaseURL = strings.TrimSpace(cfg.Remote.BaseURL)
	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = defaultBaseURL
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.File == "" {
		if p, err := userConfigPath("ragdash.log"); err == nil {
			cfg.Log.File = p
		}
	}
	cfg.Pipeline.Method = domain.ChunkMethod(strings.ToLower(strings.TrimSpace(string(cfg.Pipeline.Method))))
	if cfg.Pipeline.Method == "" {
		cfg.Pipeline = domain.DefaultPipelineConfig()
	}
	cfg.Pipeline = cfg.Pipeline.Clamp()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and reports the first invalid field.
func Validate(cfg *AppConfig) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("invalid config: %s", fieldMessage(verrs[0]))
	}
	return fmt.Errorf("invalid config: %w", err)
}

func fieldMessage(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL, got %q", field, e.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", field, e.Tag())
	}
}
