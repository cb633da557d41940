package repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

func TestLooksBinary(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{name: "text", data: "package main\n", want: false},
		{name: "empty", data: "", want: false},
		{name: "nul byte", data: "PK\x03\x04\x00", want: true},
		{name: "nul past sniff window", data: strings.Repeat("a", sniffLen) + "\x00", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksBinary([]byte(tt.data)))
		})
	}
}

func TestIsBinaryPath(t *testing.T) {
	assert.True(t, IsBinaryPath("assets/logo.PNG"))
	assert.True(t, IsBinaryPath("go.sum"))
	assert.False(t, IsBinaryPath("cmd/main.go"))
	assert.False(t, IsBinaryPath("Makefile"))
}

func TestMatcher_SkipDir_Defaults(t *testing.T) {
	m := NewMatcher(driven.WalkFilter{})

	tests := []struct {
		rel  string
		want bool
	}{
		{rel: "", want: false},
		{rel: ".", want: false},
		{rel: ".git", want: true},
		{rel: "web/node_modules", want: true},
		{rel: "services/api/__pycache__", want: true},
		{rel: "services/api", want: false},
		{rel: "internal/build", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, m.SkipDir(tt.rel))
		})
	}
}

func TestMatcher_SkipFile(t *testing.T) {
	tests := []struct {
		name   string
		filter driven.WalkFilter
		rel    string
		size   int64
		want   bool
	}{
		{name: "plain source", rel: "api/main.go", size: 10, want: false},
		{name: "binary", rel: "docs/diagram.png", size: 10, want: true},
		{name: "too large", filter: driven.WalkFilter{MaxFileBytes: 100}, rel: "big.go", size: 101, want: true},
		{name: "at limit", filter: driven.WalkFilter{MaxFileBytes: 100}, rel: "big.go", size: 100, want: false},
		{name: "unknown size", filter: driven.WalkFilter{MaxFileBytes: 100}, rel: "big.go", size: -1, want: false},
		{name: "exclude by base name", filter: driven.WalkFilter{Exclude: []string{"*_test.go"}}, rel: "api/h_test.go", want: true},
		{name: "exclude by path glob", filter: driven.WalkFilter{Exclude: []string{"docs/**"}}, rel: "docs/a/b.md", want: true},
		{name: "exclude leading dot slash", filter: driven.WalkFilter{Exclude: []string{"./docs/**"}}, rel: "docs/x.md", want: true},
		{name: "include miss", filter: driven.WalkFilter{Include: []string{"*.go"}}, rel: "README.md", want: true},
		{name: "include hit", filter: driven.WalkFilter{Include: []string{"*.go"}}, rel: "a/b/c.go", want: false},
		{name: "include path glob", filter: driven.WalkFilter{Include: []string{"services/**/*.py"}}, rel: "services/x/app.py", want: false},
		{name: "blank patterns ignored", filter: driven.WalkFilter{Include: []string{" ", ""}}, rel: "README.md", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(tt.filter)
			assert.Equal(t, tt.want, m.SkipFile(tt.rel, tt.size))
		})
	}
}

func TestMatcher_Gitignore(t *testing.T) {
	m := NewMatcher(driven.WalkFilter{})
	m.AddGitignore("", "# comment\n\n*.log\n/generated\ntmp/\n!keep.log\r\n")
	m.AddGitignore("web", "secrets.json\n")

	tests := []struct {
		name  string
		rel   string
		isDir bool
		want  bool
	}{
		{name: "glob any depth", rel: "a/b/debug.log", want: true},
		{name: "negation", rel: "a/keep.log", want: false},
		{name: "anchored dir", rel: "generated", isDir: true, want: true},
		{name: "anchored does not match nested", rel: "pkg/generated", isDir: true, want: false},
		{name: "dir only rule on dir", rel: "x/tmp", isDir: true, want: true},
		{name: "dir only rule on file", rel: "x/tmp", isDir: false, want: false},
		{name: "nested gitignore", rel: "web/secrets.json", want: true},
		{name: "nested gitignore outside base", rel: "api/secrets.json", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bool
			if tt.isDir {
				got = m.SkipDir(tt.rel)
			} else {
				got = m.SkipFile(tt.rel, 1)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcher_SkipPath_ChecksParents(t *testing.T) {
	m := NewMatcher(driven.WalkFilter{})
	m.AddGitignore("", "generated/\n")

	assert.True(t, m.SkipPath("web/node_modules/react/index.js", 10))
	assert.True(t, m.SkipPath("generated/api.go", 10))
	assert.False(t, m.SkipPath("web/src/index.js", 10))
}

func TestTreeBuilder(t *testing.T) {
	b := NewTreeBuilder()
	b.AddFile("services/api/main.go", 12)
	b.AddFile("services/api/handler.go", 30)
	b.AddFile("README.md", 5)
	b.AddFile("/", 0)

	root := b.Root()
	dirs, files := root.Count()
	assert.Equal(t, 2, dirs)
	assert.Equal(t, 3, files)

	api := root.Find("services/api")
	require.NotNil(t, api)
	assert.True(t, api.IsDir)
	require.Len(t, api.Children, 2)
	assert.Equal(t, "handler.go", api.Children[0].Name)

	main := root.Find("services/api/main.go")
	require.NotNil(t, main)
	assert.Equal(t, int64(12), main.Size)

	// Directories sort before files.
	assert.Equal(t, "services", root.Children[0].Name)
}
