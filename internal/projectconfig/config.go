// Package projectconfig provides the ProjectConfig struct and loader for
// .riskbench.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for project configuration. These are the single source of
// truth — New() references them and no other code should duplicate them.
const (
	DefaultResultsDir = "results"

	DefaultBackend    = "http"
	DefaultTimeoutSec = 120
)

// DefaultsConfig holds default run parameters. Command-line flags override
// every field.
type DefaultsConfig struct {
	Backend     string  `yaml:"backend,omitempty"`
	Endpoint    string  `yaml:"endpoint,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Timeout     int     `yaml:"timeout,omitempty"`
	Sensitivity float64 `yaml:"sensitivity,omitempty"`
}

// PathsConfig holds directory paths.
type PathsConfig struct {
	Results string `yaml:"results,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .riskbench.yaml.
type ProjectConfig struct {
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Results: DefaultResultsDir,
		},
		Defaults: DefaultsConfig{
			Backend: DefaultBackend,
			Timeout: DefaultTimeoutSec,
		},
	}
}

// Load finds .riskbench.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading .riskbench.yaml: %w", err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing .riskbench.yaml: %w", err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .riskbench.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates
// real I/O errors (e.g. permission denied) instead of silently swallowing
// them.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ".riskbench.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero file values onto the defaults.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}
	if src.Defaults.Backend != "" {
		dst.Defaults.Backend = src.Defaults.Backend
	}
	if src.Defaults.Endpoint != "" {
		dst.Defaults.Endpoint = src.Defaults.Endpoint
	}
	if src.Defaults.Model != "" {
		dst.Defaults.Model = src.Defaults.Model
	}
	if src.Defaults.APIKey != "" {
		dst.Defaults.APIKey = src.Defaults.APIKey
	}
	if src.Defaults.Timeout != 0 {
		dst.Defaults.Timeout = src.Defaults.Timeout
	}
	if src.Defaults.Sensitivity != 0 {
		dst.Defaults.Sensitivity = src.Defaults.Sensitivity
	}
}
