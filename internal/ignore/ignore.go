// Package ignore implements the three-layer ignore-rule composition used
// by the scanner: a built-in directory denylist, a set of hardcoded
// sensitive-file overrides that cannot be whitelisted back in, and a
// .gitignore/.augmentignore layer that can. Only the .gitignore and
// .augmentignore at the workspace root are read; .gitignore files in
// subdirectories are not.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultRules are directory and file names ignored unconditionally,
// regardless of any .gitignore or .augmentignore content.
var DefaultRules = []string{
	".git",
	".gitignore",
	".augmentignore",
	"node_modules",
	"target",
	".augment",
	"dist",
	"build",
	".next",
	".venv",
	"venv",
	"__pycache__",
	".DS_Store",
}

// sensitiveFiles can never be whitelisted back in by a .gitignore "!" rule,
// even if the repository explicitly tries to un-ignore them.
var sensitiveFiles = map[string]bool{
	".env":          true,
	".env.local":    true,
	"id_rsa":        true,
	"id_ed25519":    true,
	".npmrc":        true,
	".netrc":        true,
}

// Matcher decides whether a workspace-relative path should be skipped
// during a scan.
type Matcher struct {
	root       string
	git        *gitignore.GitIgnore
	hasLayered bool
}

// New builds a Matcher for the workspace rooted at root, loading
// .gitignore and .augmentignore from root if present.
func New(root string) *Matcher {
	m := &Matcher{root: root}

	var lines []string
	for _, name := range []string{".gitignore", ".augmentignore"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		lines = append(lines, strings.Split(string(data), "\n")...)
		m.hasLayered = true
	}

	if m.hasLayered {
		// CompileIgnoreLines never errors on pattern content; safe to ignore.
		m.git, _ = gitignore.CompileIgnoreLines(lines...)
	}

	return m
}

// Ignore reports whether relPath (workspace-relative, forward-slash
// separated) should be skipped. isDir indicates whether relPath names a
// directory, which affects gitignore's directory-only patterns.
func (m *Matcher) Ignore(relPath string, isDir bool) bool {
	for _, part := range strings.Split(relPath, "/") {
		if sensitiveFiles[part] {
			return true
		}
		for _, rule := range DefaultRules {
			if part == rule {
				return true
			}
		}
	}

	if m.git == nil {
		return false
	}

	// go-gitignore matches directory patterns by trailing slash.
	candidate := relPath
	if isDir && !strings.HasSuffix(candidate, "/") {
		candidate += "/"
	}

	return m.git.MatchesPath(candidate)
}
