package workflow

import (
	"sync"

	"ragdash/internal/domain"
)

// ConfigModel holds the current pipeline configuration. The value is replaced
// wholesale on every Set and is never partially populated.
type ConfigModel struct {
	mu  sync.RWMutex
	cfg domain.PipelineConfig
}

// NewConfigModel starts from initial, clamped into range. An initial value
// that still fails validation falls back to the built-in defaults.
func NewConfigModel(initial domain.PipelineConfig) *ConfigModel {
	cfg := initial.Clamp()
	if cfg.Validate() != nil {
		cfg = domain.DefaultPipelineConfig()
	}
	return &ConfigModel{cfg: cfg}
}

// Get returns the current configuration.
func (m *ConfigModel) Get() domain.PipelineConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Set clamps cfg and replaces the current configuration with it. A value that
// is invalid after clamping (unknown method, TopK < 1) is rejected and the
// previous configuration stays in place.
func (m *ConfigModel) Set(cfg domain.PipelineConfig) error {
	cfg = cfg.Clamp()
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	return nil
}

// Update applies fn to the current configuration and stores the result.
func (m *ConfigModel) Update(fn func(domain.PipelineConfig) domain.PipelineConfig) (domain.PipelineConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := fn(m.cfg).Clamp()
	if err := next.Validate(); err != nil {
		return m.cfg, err
	}
	m.cfg = next
	return next, nil
}
