// Package config loads ~/.wtm/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ActionCD     = "cd"
	ActionRemove = "remove"

	defaultPreviewTimeout = 5 * time.Second
)

var defaultBaseRefs = []string{"origin/develop", "origin/main", "origin/master"}

type Config struct {
	DefaultAction  string        `yaml:"default_action"`
	Preview        bool          `yaml:"preview"`
	PreviewTimeout time.Duration `yaml:"preview_timeout"`
	BaseRefs       []string      `yaml:"base_refs"`
	ConfirmRemove  *bool         `yaml:"confirm_remove,omitempty"`
	LogFile        string        `yaml:"log_file,omitempty"`
	LogLevel       string        `yaml:"log_level,omitempty"`
}

func Default() Config {
	confirm := true
	return Config{
		DefaultAction:  ActionCD,
		PreviewTimeout: defaultPreviewTimeout,
		BaseRefs:       append([]string(nil), defaultBaseRefs...),
		ConfirmRemove:  &confirm,
		LogLevel:       "info",
	}
}

// ShouldConfirmRemove reports whether removal asks first.
func (c Config) ShouldConfirmRemove() bool {
	return c.ConfirmRemove == nil || *c.ConfirmRemove
}

// Path returns $HOME/.wtm/config.yaml.
func Path() (string, error) {
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return "", errors.New("HOME not set")
	}
	return filepath.Join(home, ".wtm", "config.yaml"), nil
}

// Load reads the config at path, or at Path() when path is empty. A missing
// file yields the defaults.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		p, err := Path()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	c.DefaultAction = strings.ToLower(strings.TrimSpace(c.DefaultAction))
	if c.DefaultAction == "" {
		c.DefaultAction = ActionCD
	}
	if c.DefaultAction != ActionCD && c.DefaultAction != ActionRemove {
		return Config{}, fmt.Errorf("invalid default_action %q (want %s or %s)", c.DefaultAction, ActionCD, ActionRemove)
	}
	if c.PreviewTimeout <= 0 {
		c.PreviewTimeout = defaultPreviewTimeout
	}
	refs := make([]string, 0, len(c.BaseRefs))
	for _, r := range c.BaseRefs {
		if r = strings.TrimSpace(r); r != "" {
			refs = append(refs, r)
		}
	}
	if len(refs) == 0 {
		refs = append(refs, defaultBaseRefs...)
	}
	c.BaseRefs = refs
	c.LogFile = expandHome(strings.TrimSpace(c.LogFile))
	c.LogLevel = strings.TrimSpace(c.LogLevel)
	return c, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
