package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Template is the default .grove.yaml content with commented optional sections.
const Template = `# Grove configuration
# See: https://github.com/zhubert/grove for full documentation
#
# This file controls how grove creates worktree environments for this
# repository. Every setting has a sensible default; uncomment to override.

version: "1.0"

# Where new worktrees go and what their directories are called.
# Available placeholders: {repo_name}, {branch}, {branch_slug}
worktree_base_path: "../{repo_name}-worktrees"
worktree_naming: "{branch_slug}"

environment:
  # Files copied from the repository root into each new worktree.
  copy_files:
    - .env
  substitutions:
    enabled: true            # Expand {{NAME}} in copied files and hook commands
    custom_variables: {}     # e.g. API_URL: "http://localhost:{{PORT_WEB}}"

ports:
  # base_port: 10000         # First port considered for allocation
  # max_port: 65000          # Last port considered for allocation
  # names: []                # One port per name, e.g. [web, db]

hooks:
  # timeout: 300s            # Per-command wall-clock limit
  post_create: []            # After the worktree exists, before state is saved
  post_setup: []             # After state is saved
  pre_remove: []             # Before removal; failure aborts the removal
  post_remove: []            # After removal; failure only warns

editor:
  # command: code            # Overrides $VISUAL/$EDITOR and auto-detection
  # auto_open: false         # Open the editor after every create

notifications:
  # enabled: false           # Desktop notification when create/remove finishes
`

// WriteTemplate writes the starter .grove.yaml to the repository root.
// An existing file is only overwritten when force is set.
func WriteTemplate(repoRoot string, force bool) (string, error) {
	fp := filepath.Join(repoRoot, FileName)

	if _, err := os.Stat(fp); err == nil && !force {
		return fp, fmt.Errorf("%s already exists (use --force to overwrite)", fp)
	}

	if err := os.WriteFile(fp, []byte(Template), 0o644); err != nil {
		return fp, fmt.Errorf("failed to write %s: %w", fp, err)
	}

	return fp, nil
}
