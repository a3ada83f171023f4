package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manager reads and writes the per-user config file.
type Manager struct {
	configDir string
}

// NewManager returns a manager rooted at <user config dir>/chatagent.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user config dir")
	}
	return NewManagerAt(filepath.Join(configDir, "chatagent")), nil
}

// NewManagerAt returns a manager rooted at dir.
func NewManagerAt(dir string) *Manager {
	return &Manager{configDir: dir}
}

// Dir returns the config directory.
func (m *Manager) Dir() string {
	return m.configDir
}

// Path returns the absolute path of config.yaml.
func (m *Manager) Path() string {
	return filepath.Join(m.configDir, "config.yaml")
}

// Load reads the config file. A missing file yields Defaults().
func (m *Manager) Load() (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(m.Path())
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config yaml")
	}
	return &cfg, nil
}

// Save writes cfg as YAML, readable by the owner only.
func (m *Manager) Save(cfg *Config) error {
	if err := Validate(*cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(m.configDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create config dir")
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.Path(), data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// Exists reports whether config.yaml has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.Path())
	return err == nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// Redacted returns a copy of cfg with secrets masked for display.
func Redacted(cfg Config) Config {
	if cfg.LLM.APIKey != "" {
		k := cfg.LLM.APIKey
		if len(k) > 8 {
			cfg.LLM.APIKey = k[:4] + "..." + k[len(k)-4:]
		} else {
			cfg.LLM.APIKey = "****"
		}
	}
	cfg.Agent.Stop = append([]string(nil), cfg.Agent.Stop...)
	cfg.Knowledge.Extensions = append([]string(nil), cfg.Knowledge.Extensions...)
	return cfg
}
