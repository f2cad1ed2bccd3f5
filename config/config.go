package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/filetree/internal/util"
	"gopkg.in/yaml.v3"
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	// DefaultCheckInvariants leaves the checker out of the mutation path
	DefaultCheckInvariants = false

	// DefaultMaxNodes of 0 means the live node count is unbounded
	DefaultMaxNodes = 0

	// DefaultMountName is used when no mount name is given
	DefaultMountName = "default"
)

// Config contains runtime configuration values for a file tree.
type Config struct {
	LogLvl util.LogLevel // Log level (Default info)
	// Run the invariant checker before and after every mutating tree operation
	// and panic on a violation (Default false)
	CheckInvariants bool
	// Upper bound on live nodes per tree; an insert that would exceed it fails
	// with a memory error and is rolled back. 0 disables the bound (Default 0)
	MaxNodes  int
	MountName string // Name of the tree mounted by the CLI (Default "default")
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is a verbosity between 1 (error) and 5 (trace), not a [util.LogLevel]
	LogLvl          *int    `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	CheckInvariants *bool   `yaml:"check_invariants,omitempty" json:"check_invariants,omitempty"`
	MaxNodes        *int    `yaml:"max_nodes,omitempty" json:"max_nodes,omitempty"`
	MountName       *string `yaml:"mount_name,omitempty" json:"mount_name,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl:          DefaultLogLvl,
		CheckInvariants: DefaultCheckInvariants,
		MaxNodes:        DefaultMaxNodes,
		MountName:       DefaultMountName,
	}
}

// NewConfig creates a default Config with override applied. A nil override
// yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = util.LevelFromVerbosity(*override.LogLvl)
	}
	if override.CheckInvariants != nil {
		c.CheckInvariants = *override.CheckInvariants
	}
	if override.MaxNodes != nil {
		c.MaxNodes = max(0, *override.MaxNodes)
	}
	if override.MountName != nil && *override.MountName != "" {
		c.MountName = *override.MountName
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
