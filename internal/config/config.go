// Package config provides the per-repository grove configuration.
// Configuration is defined in .grove.yaml at the repository root.
package config

import (
	"fmt"
	"time"
)

// Lifecycle events with configurable hook commands. The names double as the
// keys under hooks: in .grove.yaml.
const (
	EventPostCreate = "post_create"
	EventPostSetup  = "post_setup"
	EventPreRemove  = "pre_remove"
	EventPostRemove = "post_remove"
)

// Config is the top-level grove configuration.
type Config struct {
	Version          string              `yaml:"version"`
	WorktreeBasePath string              `yaml:"worktree_base_path"`
	WorktreeNaming   string              `yaml:"worktree_naming"`
	Environment      EnvironmentConfig   `yaml:"environment"`
	Ports            PortsConfig         `yaml:"ports"`
	Hooks            HooksConfig         `yaml:"hooks"`
	Editor           EditorConfig        `yaml:"editor"`
	Notifications    NotificationsConfig `yaml:"notifications"`
}

// EnvironmentConfig controls what gets copied into a fresh worktree.
type EnvironmentConfig struct {
	CopyFiles     []string            `yaml:"copy_files"`
	Substitutions SubstitutionsConfig `yaml:"substitutions"`
}

// SubstitutionsConfig controls {{NAME}} expansion in copied files and hooks.
type SubstitutionsConfig struct {
	Enabled         *bool             `yaml:"enabled"`
	CustomVariables map[string]string `yaml:"custom_variables"`
}

// PortsConfig defines the port range and the named services that each
// environment gets a port for.
type PortsConfig struct {
	BasePort int      `yaml:"base_port"`
	MaxPort  int      `yaml:"max_port"`
	Names    []string `yaml:"names"`
}

// HooksConfig holds the command lists per lifecycle event.
type HooksConfig struct {
	Timeout    *Duration `yaml:"timeout"`
	PostCreate []string  `yaml:"post_create"`
	PostSetup  []string  `yaml:"post_setup"`
	PreRemove  []string  `yaml:"pre_remove"`
	PostRemove []string  `yaml:"post_remove"`
}

// EditorConfig controls which editor opens environments.
type EditorConfig struct {
	Command  string `yaml:"command"`
	AutoOpen *bool  `yaml:"auto_open"`
}

// NotificationsConfig controls desktop notifications.
type NotificationsConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// HookCommands returns the command list configured for a lifecycle event.
func (c *Config) HookCommands(event string) []string {
	switch event {
	case EventPostCreate:
		return c.Hooks.PostCreate
	case EventPostSetup:
		return c.Hooks.PostSetup
	case EventPreRemove:
		return c.Hooks.PreRemove
	case EventPostRemove:
		return c.Hooks.PostRemove
	default:
		return nil
	}
}

// HookTimeout returns the configured per-command timeout.
func (c *Config) HookTimeout() time.Duration {
	if c.Hooks.Timeout == nil {
		return defaultHookTimeout
	}
	return c.Hooks.Timeout.Duration
}

// SubstitutionsEnabled reports whether copied files get {{NAME}} expansion.
func (c *Config) SubstitutionsEnabled() bool {
	if c.Environment.Substitutions.Enabled == nil {
		return true
	}
	return *c.Environment.Substitutions.Enabled
}

// AutoOpen reports whether the editor opens automatically after create.
func (c *Config) AutoOpen() bool {
	if c.Editor.AutoOpen == nil {
		return false
	}
	return *c.Editor.AutoOpen
}

// NotificationsEnabled reports whether desktop notifications are sent.
func (c *Config) NotificationsEnabled() bool {
	if c.Notifications.Enabled == nil {
		return false
	}
	return *c.Notifications.Enabled
}

// Duration is a wrapper around time.Duration that implements YAML unmarshaling
// from human-readable strings like "300s", "5m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}
