package config

import (
	"fmt"
	"strings"
)

// ValidationError describes a single validation problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a merged Config for errors and returns all problems found.
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Version != defaultVersion {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %q (grove understands %q)", cfg.Version, defaultVersion),
		})
	}

	if strings.TrimSpace(cfg.WorktreeBasePath) == "" {
		errs = append(errs, ValidationError{
			Field:   "worktree_base_path",
			Message: "base path template is required",
		})
	}
	if strings.TrimSpace(cfg.WorktreeNaming) == "" {
		errs = append(errs, ValidationError{
			Field:   "worktree_naming",
			Message: "naming template is required",
		})
	}

	// Port range
	if cfg.Ports.BasePort < 1 || cfg.Ports.BasePort > 65535 {
		errs = append(errs, ValidationError{
			Field:   "ports.base_port",
			Message: fmt.Sprintf("port %d outside 1-65535", cfg.Ports.BasePort),
		})
	}
	if cfg.Ports.MaxPort < 1 || cfg.Ports.MaxPort > 65535 {
		errs = append(errs, ValidationError{
			Field:   "ports.max_port",
			Message: fmt.Sprintf("port %d outside 1-65535", cfg.Ports.MaxPort),
		})
	}
	if cfg.Ports.BasePort > cfg.Ports.MaxPort {
		errs = append(errs, ValidationError{
			Field:   "ports",
			Message: fmt.Sprintf("base_port %d exceeds max_port %d", cfg.Ports.BasePort, cfg.Ports.MaxPort),
		})
	}

	seen := make(map[string]bool)
	for i, name := range cfg.Ports.Names {
		field := fmt.Sprintf("ports.names[%d]", i)
		if strings.TrimSpace(name) == "" {
			errs = append(errs, ValidationError{Field: field, Message: "service name must not be empty"})
			continue
		}
		if seen[name] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("duplicate service name %q", name)})
		}
		seen[name] = true
	}

	// Hooks
	if cfg.Hooks.Timeout != nil && cfg.Hooks.Timeout.Duration <= 0 {
		errs = append(errs, ValidationError{
			Field:   "hooks.timeout",
			Message: "timeout must be positive",
		})
	}
	for _, event := range []string{EventPostCreate, EventPostSetup, EventPreRemove, EventPostRemove} {
		for i, command := range cfg.HookCommands(event) {
			if strings.TrimSpace(command) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("hooks.%s[%d]", event, i),
					Message: "command must not be empty",
				})
			}
		}
	}

	// Substitution variable names must be legal {{NAME}} identifiers
	for name := range cfg.Environment.Substitutions.CustomVariables {
		if !validVariableName(name) {
			errs = append(errs, ValidationError{
				Field:   "environment.substitutions.custom_variables",
				Message: fmt.Sprintf("invalid variable name %q (use uppercase letters, digits, underscore)", name),
			})
		}
	}

	return errs
}

// validVariableName reports whether name matches [A-Z_][A-Z0-9_]*.
func validVariableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
