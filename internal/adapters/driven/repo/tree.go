package repo

import (
	"path"
	"strings"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// TreeBuilder assembles a hierarchy from slash-separated file paths.
type TreeBuilder struct {
	root *domain.FileNode
	dirs map[string]*domain.FileNode
}

// NewTreeBuilder creates a builder with an empty root.
func NewTreeBuilder() *TreeBuilder {
	root := domain.NewDirNode("", "")
	return &TreeBuilder{
		root: root,
		dirs: map[string]*domain.FileNode{"": root},
	}
}

// AddFile inserts a file and any missing parent directories.
func (b *TreeBuilder) AddFile(rel string, size int64) {
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return
	}
	parent := b.dir(path.Dir(rel))
	parent.AddChild(&domain.FileNode{Name: path.Base(rel), Path: rel, Size: size})
}

// dir returns the directory node for rel, creating it and its parents.
func (b *TreeBuilder) dir(rel string) *domain.FileNode {
	if rel == "." {
		rel = ""
	}
	if node, ok := b.dirs[rel]; ok {
		return node
	}
	parent := b.dir(path.Dir(rel))
	node := domain.NewDirNode(path.Base(rel), rel)
	parent.AddChild(node)
	b.dirs[rel] = node
	return node
}

// Root returns the assembled hierarchy.
func (b *TreeBuilder) Root() *domain.FileNode {
	return b.root
}
