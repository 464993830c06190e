package template

import "testing"

func TestExpand(t *testing.T) {
	c := Context{
		Branch:       "feature/login",
		BranchSlug:   "feature-login",
		WorktreePath: "/repos/app-worktrees/feature-login",
		RepoName:     "app",
	}

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "single variable",
			text:     "git checkout {{BRANCH}}",
			expected: "git checkout feature/login",
		},
		{
			name:     "multiple variables",
			text:     "echo {{REPO_NAME}}:{{BRANCH_SLUG}}",
			expected: "echo app:feature-login",
		},
		{
			name:     "unknown variable left verbatim",
			text:     "{{BRANCH}}-{{UNKNOWN}}",
			expected: "feature/login-{{UNKNOWN}}",
		},
		{
			name:     "lowercase braces untouched",
			text:     "docker run {{image}} {{BRANCH_SLUG}}",
			expected: "docker run {{image}} feature-login",
		},
		{
			name:     "no variables",
			text:     "npm install",
			expected: "npm install",
		},
		{
			name:     "worktree path",
			text:     "cp .env {{WORKTREE_PATH}}/.env",
			expected: "cp .env /repos/app-worktrees/feature-login/.env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.text, c); got != tt.expected {
				t.Errorf("Expand(%q) = %q, want %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestExpand_UnknownLeftVerbatim(t *testing.T) {
	c := Context{Branch: "x"}

	if got := Expand("{{BRANCH}}-{{UNKNOWN}}", c); got != "x-{{UNKNOWN}}" {
		t.Errorf("Expand = %q, want %q", got, "x-{{UNKNOWN}}")
	}
}

func TestVars_Ports(t *testing.T) {
	c := Context{
		Branch:       "main",
		PortMappings: map[string]int{"web": 10000, "api": 10001},
	}

	vars := c.Vars()

	if vars["PORT_WEB"] != "10000" {
		t.Errorf("PORT_WEB = %q, want %q", vars["PORT_WEB"], "10000")
	}
	if vars["PORT_API"] != "10001" {
		t.Errorf("PORT_API = %q, want %q", vars["PORT_API"], "10001")
	}
}

func TestVars_CustomOverridesBuiltin(t *testing.T) {
	c := Context{
		Branch: "main",
		CustomVariables: map[string]string{
			"BRANCH":  "overridden",
			"API_KEY": "secret",
		},
	}

	vars := c.Vars()

	if vars["BRANCH"] != "overridden" {
		t.Errorf("custom variable should override built-in, got %q", vars["BRANCH"])
	}
	if vars["API_KEY"] != "secret" {
		t.Errorf("API_KEY = %q, want %q", vars["API_KEY"], "secret")
	}
}

func TestExpand_CustomVariable(t *testing.T) {
	c := Context{
		CustomVariables: map[string]string{"DB_NAME": "app_dev"},
	}

	if got := Expand("createdb {{DB_NAME}}", c); got != "createdb app_dev" {
		t.Errorf("Expand = %q, want %q", got, "createdb app_dev")
	}
}

func TestExpandPath(t *testing.T) {
	c := Context{
		Branch:     "feature/login",
		BranchSlug: "feature-login",
		RepoName:   "app",
	}

	tests := []struct {
		name     string
		tmpl     string
		expected string
	}{
		{
			name:     "base path template",
			tmpl:     "../{repo_name}-worktrees",
			expected: "../app-worktrees",
		},
		{
			name:     "naming template",
			tmpl:     "{branch_slug}",
			expected: "feature-login",
		},
		{
			name:     "branch keeps slashes",
			tmpl:     "{branch}",
			expected: "feature/login",
		},
		{
			name:     "unknown name left verbatim",
			tmpl:     "{repo_name}/{nope}",
			expected: "app/{nope}",
		},
		{
			name:     "uppercase braces untouched",
			tmpl:     "{REPO_NAME}/{branch_slug}",
			expected: "{REPO_NAME}/feature-login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandPath(tt.tmpl, c); got != tt.expected {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.tmpl, got, tt.expected)
			}
		})
	}
}
