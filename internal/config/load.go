package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates the configuration file at path. Both YAML and
// JSON files are accepted (JSON is a YAML subset). Unknown fields are
// rejected so typos surface before the engine ever sees a plan.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config file %s is empty", path)
		}
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults for the per-category time estimates, in seconds. Overridable
// through the time_estimates section; used only for progress display.
var defaultEstimates = map[string]int{
	"gui_app":       30,
	"cli_tool":      10,
	"rust_install":  120,
	"node_install":  60,
	"oh_my_zsh":     30,
	"font":          15,
	"configuration": 5,
}

func (c *Config) applyDefaults() {
	if c.Output.Mode == "" {
		c.Output.Mode = ModeNormal
	}
	if c.Git.DefaultBranch == "" {
		c.Git.DefaultBranch = "main"
	}
	if c.SSH.KeyType == "" {
		c.SSH.KeyType = "ed25519"
	}
	if c.SSH.KeyName == "" {
		c.SSH.KeyName = "github"
	}
	if c.Development.Node.Version == "" {
		c.Development.Node.Version = "lts"
	}

	estimates := make(map[string]int, len(defaultEstimates))
	for k, v := range defaultEstimates {
		estimates[k] = v
	}
	for k, v := range c.TimeEstimates {
		estimates[k] = v
	}
	c.TimeEstimates = estimates
}

// Estimate returns the configured time estimate for a category key.
func (c *Config) Estimate(key string) int {
	return c.TimeEstimates[key]
}

// Validate checks the invariants the engine relies on. It is called by
// Load; configuration errors abort the run before any plan is built.
func (c *Config) Validate() error {
	if c.User.Name == "" || c.User.Email == "" {
		return errors.New("config: user section must provide both name and email")
	}

	switch c.Output.Mode {
	case ModeMinimal, ModeNormal, ModeVerbose:
	default:
		return fmt.Errorf("config: unknown output mode %q (want minimal, normal, or verbose)", c.Output.Mode)
	}

	switch c.SSH.KeyType {
	case "ed25519", "rsa", "ecdsa":
	default:
		return fmt.Errorf("config: unsupported ssh key type %q", c.SSH.KeyType)
	}

	for key, seconds := range c.TimeEstimates {
		if seconds < 0 {
			return fmt.Errorf("config: time estimate for %q must be >= 0, got %d", key, seconds)
		}
	}

	for i, f := range c.Fonts {
		if f.Name == "" || f.Repo == "" || f.Tag == "" {
			return fmt.Errorf("config: fonts[%d] must provide name, repo, and tag", i)
		}
	}

	return nil
}
