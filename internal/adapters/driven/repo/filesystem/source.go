// Package filesystem provides a RepoSource over a local directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/archer/internal/adapters/driven/repo"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.RepoSource = (*Source)(nil)

// Source walks a local repository.
type Source struct {
	root string
}

// New creates a source rooted at dir, which must be an existing directory.
func New(dir string) (*Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}
	return &Source{root: abs}, nil
}

// Root returns the absolute repository path.
func (s *Source) Root() string {
	return s.root
}

// Matcher returns a matcher for filter primed with the repository's root .gitignore.
func (s *Source) Matcher(filter driven.WalkFilter) *repo.Matcher {
	m := repo.NewMatcher(filter)
	s.loadGitignore(m, "")
	return m
}

// Hierarchy walks the repository. Ignored directories are not descended into,
// and directories left without files are dropped.
func (s *Source) Hierarchy(ctx context.Context, filter driven.WalkFilter) (*domain.FileNode, error) {
	m := repo.NewMatcher(filter)
	tree := repo.NewTreeBuilder()

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			rel = ""
		}

		if walkErr != nil {
			if rel == "" {
				return walkErr
			}
			logger.Debug("skip %s: %v", rel, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if m.SkipDir(rel) {
				return filepath.SkipDir
			}
			s.loadGitignore(m, rel)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Debug("skip %s: %v", rel, err)
			return nil
		}
		if m.SkipFile(rel, info.Size()) {
			return nil
		}
		tree.AddFile(rel, info.Size())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}

	root := tree.Root()
	root.Name = filepath.Base(s.root)
	return root, nil
}

// loadGitignore adds dir/.gitignore to m when present.
func (s *Source) loadGitignore(m *repo.Matcher, dir string) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(dir), ".gitignore"))
	if err != nil {
		return
	}
	m.AddGitignore(dir, string(data))
}

// ReadFile returns the content of a repository-relative path.
// Paths escaping the repository are rejected.
func (s *Source) ReadFile(ctx context.Context, rel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", rel, domain.ErrNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", rel, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, rel)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	if repo.LooksBinary(data) {
		return "", fmt.Errorf("%w: %s looks binary", domain.ErrUnsupportedType, rel)
	}
	return string(data), nil
}

// resolve maps a repository-relative path to an absolute one inside the root.
func (s *Source) resolve(rel string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if clean == "/" || strings.Contains(rel, "\x00") {
		return "", fmt.Errorf("%w: path %q", domain.ErrInvalidInput, rel)
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(path.Clean(filepath.ToSlash(rel)), "../") || path.Clean(filepath.ToSlash(rel)) == ".." {
		return "", fmt.Errorf("%w: path %q escapes repository", domain.ErrInvalidInput, rel)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean[1:])), nil
}

// Rel converts an absolute path below the root to a repository-relative one.
func (s *Source) Rel(abs string) (string, bool) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
