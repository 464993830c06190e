// Package template resolves the placeholder variables grove exposes to hook
// commands and worktree path templates.
//
// Hook commands use {{NAME}} placeholders with uppercase names; path templates
// use {name} placeholders with lowercase names. Unknown names are left
// verbatim in both forms so unrelated brace text is never corrupted.
package template

import (
	"regexp"
	"strconv"
	"strings"
)

// Context carries the variables for one environment operation. It is built
// once per create/remove and never mutated afterwards.
type Context struct {
	Branch          string
	BranchSlug      string
	WorktreePath    string
	RepoName        string
	PortMappings    map[string]int
	CustomVariables map[string]string
}

var (
	hookVarPattern = regexp.MustCompile(`\{\{([A-Z_][A-Z0-9_]*)\}\}`)
	pathVarPattern = regexp.MustCompile(`\{([a-z_]+)\}`)
)

// Vars returns every variable available to {{NAME}} substitution and hook
// environment injection: the built-ins, PORT_<NAME> per port mapping, and
// custom variables. Custom variables override built-ins on collision.
func (c Context) Vars() map[string]string {
	vars := map[string]string{
		"BRANCH":        c.Branch,
		"BRANCH_SLUG":   c.BranchSlug,
		"WORKTREE_PATH": c.WorktreePath,
		"REPO_NAME":     c.RepoName,
	}

	for name, port := range c.PortMappings {
		vars["PORT_"+strings.ToUpper(name)] = strconv.Itoa(port)
	}

	for name, value := range c.CustomVariables {
		vars[name] = value
	}

	return vars
}

// Expand replaces {{NAME}} placeholders in text with context variables.
// Names must match [A-Z_][A-Z0-9_]*; unknown names are kept as-is.
func Expand(text string, c Context) string {
	vars := c.Vars()

	return hookVarPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-2]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

// ExpandPath replaces {name} placeholders in a worktree path template.
// Available names are repo_name, branch, and branch_slug; unknown names are
// kept as-is.
func ExpandPath(tmpl string, c Context) string {
	vars := map[string]string{
		"repo_name":   c.RepoName,
		"branch":      c.Branch,
		"branch_slug": c.BranchSlug,
	}

	return pathVarPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}
