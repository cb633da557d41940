package driven

import (
	"context"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// WalkFilter decides which paths of a repository are visited.
type WalkFilter struct {
	// Include limits files to these glob patterns. Empty means all files.
	Include []string

	// Exclude skips files and directories matching these glob patterns.
	Exclude []string

	// MaxFileBytes skips files larger than this. Zero means no limit.
	MaxFileBytes int64
}

// RepoSource walks a repository and reads its files.
// Implementations exist for the local filesystem and for GitHub.
type RepoSource interface {
	// Root returns a human-readable location such as a path or github://owner/repo@ref.
	Root() string

	// Hierarchy walks the repository and returns its directory tree.
	Hierarchy(ctx context.Context, filter WalkFilter) (*domain.FileNode, error)

	// ReadFile returns the content of a repository-relative path.
	ReadFile(ctx context.Context, path string) (string, error)
}
