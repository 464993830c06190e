package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	groveerrors "github.com/zhubert/grove/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("expected nil error for missing file, got: %v", err)
	}
	if cfg != nil {
		t.Error("expected nil config for missing file")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
version: "1.0"
worktree_naming: "{repo_name}--{branch_slug}"
ports:
  base_port: 15000
  names: [web, db]
hooks:
  timeout: 90s
  post_create:
    - npm install
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.WorktreeNaming != "{repo_name}--{branch_slug}" {
		t.Errorf("naming: got %q", cfg.WorktreeNaming)
	}
	if cfg.Ports.BasePort != 15000 {
		t.Errorf("base_port: got %d, want 15000", cfg.Ports.BasePort)
	}
	if len(cfg.Ports.Names) != 2 || cfg.Ports.Names[1] != "db" {
		t.Errorf("names: got %v", cfg.Ports.Names)
	}
	if cfg.Hooks.Timeout == nil || cfg.Hooks.Timeout.Duration != 90*time.Second {
		t.Error("timeout: expected 90s")
	}
	if len(cfg.Hooks.PostCreate) != 1 || cfg.Hooks.PostCreate[0] != "npm install" {
		t.Errorf("post_create: got %v", cfg.Hooks.PostCreate)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "worktree_naming: [unclosed")

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if groveerrors.GetKind(err) != groveerrors.KindConfig {
		t.Errorf("kind = %v, want KindConfig", groveerrors.GetKind(err))
	}
}

func TestLoadAndMerge_NoFile(t *testing.T) {
	cfg, err := LoadAndMerge(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config")
	}
	if cfg.WorktreeBasePath != "../{repo_name}-worktrees" {
		t.Errorf("expected default base path, got %q", cfg.WorktreeBasePath)
	}
}

func TestLoadAndMerge_PartialFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
hooks:
  post_setup:
    - echo done
`)

	cfg, err := LoadAndMerge(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Explicit values preserved
	if len(cfg.Hooks.PostSetup) != 1 || cfg.Hooks.PostSetup[0] != "echo done" {
		t.Errorf("post_setup: got %v", cfg.Hooks.PostSetup)
	}

	// Defaults filled in
	if cfg.Version != "1.0" {
		t.Errorf("version: got %q, want default", cfg.Version)
	}
	if cfg.HookTimeout() != 300*time.Second {
		t.Errorf("timeout: got %s, want default", cfg.HookTimeout())
	}
}

func TestLoadAndMerge_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
ports:
  base_port: 50000
  max_port: 20000
`)

	_, err := LoadAndMerge(dir)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if groveerrors.GetKind(err) != groveerrors.KindInvalid {
		t.Errorf("kind = %v, want KindInvalid", groveerrors.GetKind(err))
	}
}
