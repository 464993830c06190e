package config

import "time"

const (
	defaultVersion     = "1.0"
	defaultBasePath    = "../{repo_name}-worktrees"
	defaultNaming      = "{branch_slug}"
	defaultBasePort    = 10000
	defaultMaxPort     = 65000
	defaultHookTimeout = 300 * time.Second
)

// DefaultConfig returns the configuration grove uses when .grove.yaml is
// missing or leaves settings unset.
func DefaultConfig() *Config {
	substitutions := true
	autoOpen := false
	notifications := false
	timeout := Duration{defaultHookTimeout}

	return &Config{
		Version:          defaultVersion,
		WorktreeBasePath: defaultBasePath,
		WorktreeNaming:   defaultNaming,
		Environment: EnvironmentConfig{
			CopyFiles: []string{".env"},
			Substitutions: SubstitutionsConfig{
				Enabled:         &substitutions,
				CustomVariables: map[string]string{},
			},
		},
		Ports: PortsConfig{
			BasePort: defaultBasePort,
			MaxPort:  defaultMaxPort,
			Names:    []string{},
		},
		Hooks: HooksConfig{
			Timeout:    &timeout,
			PostCreate: []string{},
			PostSetup:  []string{},
			PreRemove:  []string{},
			PostRemove: []string{},
		},
		Editor: EditorConfig{
			AutoOpen: &autoOpen,
		},
		Notifications: NotificationsConfig{
			Enabled: &notifications,
		},
	}
}

// Merge fills in missing values in partial from defaults.
// partial takes precedence; defaults fill gaps. Hook command lists are not
// merged element-wise: a list the file defines fully replaces the default.
func Merge(partial, defaults *Config) *Config {
	result := *partial

	if result.Version == "" {
		result.Version = defaults.Version
	}
	if result.WorktreeBasePath == "" {
		result.WorktreeBasePath = defaults.WorktreeBasePath
	}
	if result.WorktreeNaming == "" {
		result.WorktreeNaming = defaults.WorktreeNaming
	}

	// Environment
	if result.Environment.CopyFiles == nil {
		result.Environment.CopyFiles = defaults.Environment.CopyFiles
	}
	if result.Environment.Substitutions.Enabled == nil {
		result.Environment.Substitutions.Enabled = defaults.Environment.Substitutions.Enabled
	}
	if result.Environment.Substitutions.CustomVariables == nil {
		result.Environment.Substitutions.CustomVariables = defaults.Environment.Substitutions.CustomVariables
	}

	// Ports
	if result.Ports.BasePort == 0 {
		result.Ports.BasePort = defaults.Ports.BasePort
	}
	if result.Ports.MaxPort == 0 {
		result.Ports.MaxPort = defaults.Ports.MaxPort
	}
	if result.Ports.Names == nil {
		result.Ports.Names = defaults.Ports.Names
	}

	// Hooks
	if result.Hooks.Timeout == nil {
		result.Hooks.Timeout = defaults.Hooks.Timeout
	}
	if result.Hooks.PostCreate == nil {
		result.Hooks.PostCreate = defaults.Hooks.PostCreate
	}
	if result.Hooks.PostSetup == nil {
		result.Hooks.PostSetup = defaults.Hooks.PostSetup
	}
	if result.Hooks.PreRemove == nil {
		result.Hooks.PreRemove = defaults.Hooks.PreRemove
	}
	if result.Hooks.PostRemove == nil {
		result.Hooks.PostRemove = defaults.Hooks.PostRemove
	}

	// Editor
	if result.Editor.AutoOpen == nil {
		result.Editor.AutoOpen = defaults.Editor.AutoOpen
	}

	// Notifications
	if result.Notifications.Enabled == nil {
		result.Notifications.Enabled = defaults.Notifications.Enabled
	}

	return &result
}
