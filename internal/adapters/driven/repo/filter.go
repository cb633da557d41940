// Package repo holds the walk filtering and tree building shared by repository sources.
package repo

import (
	"bytes"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// DefaultIgnoreDirs are directory names never walked.
var DefaultIgnoreDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "bower_components", "vendor",
	"__pycache__", ".venv", "venv", ".tox", ".mypy_cache", ".pytest_cache",
	"dist", "build", "target", "out", "bin", "obj",
	".next", ".nuxt", ".terraform", ".cache", "coverage",
	".idea", ".vscode",
}

// binaryExts are extensions whose content is never useful to the model.
var binaryExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".7z": true, ".xz": true, ".jar": true, ".war": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".webp": true, ".bmp": true, ".svg": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wav": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	".bin": true, ".dat": true, ".db": true, ".sqlite": true,
	".pyc": true, ".pyo": true, ".class": true, ".o": true, ".a": true, ".wasm": true,
	".lock": true, ".sum": true,
}

// sniffLen is how much of a file LooksBinary checks for NUL bytes.
const sniffLen = 8000

// LooksBinary reports whether the start of data contains a NUL byte.
func LooksBinary(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// IsBinaryPath reports whether a path has a binary or lockfile extension.
func IsBinaryPath(p string) bool {
	return binaryExts[strings.ToLower(path.Ext(p))]
}

// ignoreRule is one .gitignore line.
type ignoreRule struct {
	base    string
	pattern string
	dirOnly bool
	negate  bool
}

// Matcher decides which repository paths a source reports.
// Paths are slash-separated and relative to the repository root.
type Matcher struct {
	include  []string
	exclude  []string
	maxBytes int64
	ignore   map[string]bool
	rules    []ignoreRule
}

// NewMatcher builds a matcher from a walk filter and the default ignore list.
func NewMatcher(filter driven.WalkFilter) *Matcher {
	m := &Matcher{
		include:  cleanPatterns(filter.Include),
		exclude:  cleanPatterns(filter.Exclude),
		maxBytes: filter.MaxFileBytes,
		ignore:   make(map[string]bool, len(DefaultIgnoreDirs)),
	}
	for _, d := range DefaultIgnoreDirs {
		m.ignore[d] = true
	}
	return m
}

func cleanPatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.TrimPrefix(p, "./"))
		}
	}
	return out
}

// AddGitignore adds the rules of a .gitignore found in dir ("" for the root).
// Supported: comments, blank lines, negation, trailing-slash directory rules,
// anchored patterns and ** globs.
func (m *Matcher) AddGitignore(dir, content string) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule := ignoreRule{base: dir}
		if strings.HasPrefix(line, "!") {
			rule.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			rule.dirOnly = true
			line = strings.TrimRight(line, "/")
		}
		// A slash anywhere but the end anchors the pattern to dir.
		if strings.Contains(line, "/") {
			line = strings.TrimPrefix(line, "/")
		} else {
			line = "**/" + line
		}
		if line == "" || line == "**/" {
			continue
		}
		rule.pattern = line
		m.rules = append(m.rules, rule)
	}
}

// gitignored applies .gitignore rules. The last matching rule wins.
func (m *Matcher) gitignored(rel string, isDir bool) bool {
	ignored := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		sub := rel
		if r.base != "" {
			if !strings.HasPrefix(rel, r.base+"/") {
				continue
			}
			sub = strings.TrimPrefix(rel, r.base+"/")
		}
		if ok, _ := doublestar.Match(r.pattern, sub); ok {
			ignored = !r.negate
		}
	}
	return ignored
}

// SkipDir reports whether a directory and everything below it is skipped.
func (m *Matcher) SkipDir(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	if m.ignore[path.Base(rel)] {
		return true
	}
	if m.gitignored(rel, true) {
		return true
	}
	return matchAny(m.exclude, rel)
}

// SkipFile reports whether a file is skipped. A negative size means unknown.
func (m *Matcher) SkipFile(rel string, size int64) bool {
	if IsBinaryPath(rel) {
		return true
	}
	if m.maxBytes > 0 && size > m.maxBytes {
		return true
	}
	if m.gitignored(rel, false) {
		return true
	}
	if matchAny(m.exclude, rel) {
		return true
	}
	if len(m.include) > 0 && !matchAny(m.include, rel) {
		return true
	}
	return false
}

// SkipPath checks a file and all of its parent directories.
// Sources that list paths without walking (such as a git tree) use this.
func (m *Matcher) SkipPath(rel string, size int64) bool {
	dir := path.Dir(rel)
	for dir != "." && dir != "/" && dir != "" {
		if m.SkipDir(dir) {
			return true
		}
		dir = path.Dir(dir)
	}
	return m.SkipFile(rel, size)
}

// matchAny reports whether rel matches a pattern. Patterns without a slash
// also match the base name, so "*.md" excludes Markdown at any depth.
func matchAny(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}
