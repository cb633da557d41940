// Package github provides a RepoSource that reads a repository through the GitHub API.
// Only the git tree and blobs are fetched, so nothing is cloned to disk.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/archer/internal/adapters/driven/repo"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.RepoSource = (*Source)(nil)

// Ref identifies a repository and an optional branch, tag or commit.
type Ref struct {
	Owner string
	Repo  string
	Ref   string
}

// ParseRef parses "owner/repo", "owner/repo@ref" or the github:// form of either.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "github://")
	s = strings.TrimPrefix(s, "https://github.com/")

	var r Ref
	if at := strings.LastIndex(s, "@"); at >= 0 {
		r.Ref = s[at+1:]
		s = s[:at]
		if r.Ref == "" {
			return Ref{}, fmt.Errorf("%w: empty ref in %q", domain.ErrInvalidInput, s)
		}
	}
	owner, name, ok := strings.Cut(strings.TrimSuffix(s, ".git"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Ref{}, fmt.Errorf("%w: expected owner/repo[@ref], got %q", domain.ErrInvalidInput, s)
	}
	r.Owner, r.Repo = owner, name
	return r, nil
}

// String returns the github:// form.
func (r Ref) String() string {
	s := "github://" + r.Owner + "/" + r.Repo
	if r.Ref != "" {
		s += "@" + r.Ref
	}
	return s
}

// Source walks a GitHub repository.
type Source struct {
	client *Client
	ref    Ref

	mu    sync.Mutex
	blobs map[string]string // path to blob SHA
}

// New creates a source. An empty Ref.Ref resolves to the default branch on first use.
func New(client *Client, ref Ref) *Source {
	return &Source{client: client, ref: ref}
}

// Root returns github://owner/repo@ref.
func (s *Source) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref.String()
}

// resolveRef fills in the default branch when no ref was given.
func (s *Source) resolveRef(ctx context.Context) (string, error) {
	s.mu.Lock()
	ref := s.ref.Ref
	s.mu.Unlock()
	if ref != "" {
		return ref, nil
	}

	branch, err := s.client.DefaultBranch(ctx, s.ref.Owner, s.ref.Repo)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.ref.Ref = branch
	s.mu.Unlock()
	return branch, nil
}

// Hierarchy fetches the recursive tree and applies the filter.
func (s *Source) Hierarchy(ctx context.Context, filter driven.WalkFilter) (*domain.FileNode, error) {
	ref, err := s.resolveRef(ctx)
	if err != nil {
		return nil, err
	}

	tree, err := s.client.GetTree(ctx, s.ref.Owner, s.ref.Repo, ref)
	if err != nil {
		return nil, err
	}
	if tree.GetTruncated() {
		logger.Warn("github tree for %s is truncated, some files are missing", s.Root())
	}

	blobs := make(map[string]string, len(tree.Entries))
	m := repo.NewMatcher(filter)
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" && strings.HasSuffix(entry.GetPath(), ".gitignore") {
			if err := s.addGitignore(ctx, m, entry.GetPath(), entry.GetSHA()); err != nil {
				logger.Debug("skip %s: %v", entry.GetPath(), err)
			}
		}
	}

	builder := repo.NewTreeBuilder()
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		p := entry.GetPath()
		blobs[p] = entry.GetSHA()
		if m.SkipPath(p, int64(entry.GetSize())) {
			continue
		}
		builder.AddFile(p, int64(entry.GetSize()))
	}

	s.mu.Lock()
	s.blobs = blobs
	s.mu.Unlock()

	root := builder.Root()
	root.Name = s.ref.Repo
	return root, nil
}

// addGitignore reads a .gitignore blob into the matcher.
func (s *Source) addGitignore(ctx context.Context, m *repo.Matcher, p, sha string) error {
	if p != ".gitignore" && !strings.HasSuffix(p, "/.gitignore") {
		return nil
	}
	content, err := s.fetchBlob(ctx, p, sha)
	if err != nil {
		return err
	}
	dir := strings.TrimSuffix(strings.TrimSuffix(p, ".gitignore"), "/")
	m.AddGitignore(dir, content)
	return nil
}

// ReadFile fetches a file's blob. The tree is loaded on first use.
func (s *Source) ReadFile(ctx context.Context, p string) (string, error) {
	s.mu.Lock()
	loaded := s.blobs != nil
	s.mu.Unlock()
	if !loaded {
		if _, err := s.Hierarchy(ctx, driven.WalkFilter{}); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	sha, ok := s.blobs[strings.Trim(p, "/")]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%s: %w", p, domain.ErrNotFound)
	}
	return s.fetchBlob(ctx, p, sha)
}

func (s *Source) fetchBlob(ctx context.Context, p, sha string) (string, error) {
	blob, err := s.client.GetBlob(ctx, s.ref.Owner, s.ref.Repo, sha)
	if err != nil {
		return "", err
	}
	data := []byte(blob.GetContent())
	if blob.GetEncoding() == "base64" {
		content := strings.ReplaceAll(blob.GetContent(), "\n", "")
		data, err = base64.StdEncoding.DecodeString(content)
		if err != nil {
			return "", fmt.Errorf("decode blob %s: %w", sha, err)
		}
	}
	if repo.LooksBinary(data) {
		return "", fmt.Errorf("%w: %s looks binary", domain.ErrUnsupportedType, p)
	}
	return string(data), nil
}
