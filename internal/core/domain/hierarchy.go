package domain

import (
	"sort"
	"strings"
)

// FileNode is one entry of a walked repository hierarchy.
// Paths are repository-relative and use forward slashes.
type FileNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	IsDir    bool        `json:"is_dir"`
	Size     int64       `json:"size,omitempty"`
	Children []*FileNode `json:"children,omitempty"`
}

// NewDirNode creates a directory node.
func NewDirNode(name, path string) *FileNode {
	return &FileNode{Name: name, Path: path, IsDir: true}
}

// AddChild appends a child and keeps children sorted: directories first, then by name.
func (n *FileNode) AddChild(child *FileNode) {
	n.Children = append(n.Children, child)
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
}

// Files returns every file leaf below n, depth-first in child order.
func (n *FileNode) Files() []*FileNode {
	if n == nil {
		return nil
	}
	if !n.IsDir {
		return []*FileNode{n}
	}
	var files []*FileNode
	for _, c := range n.Children {
		files = append(files, c.Files()...)
	}
	return files
}

// Count returns the number of directories and files below n, excluding n itself.
func (n *FileNode) Count() (dirs, files int) {
	if n == nil {
		return 0, 0
	}
	for _, c := range n.Children {
		if c.IsDir {
			dirs++
			d, f := c.Count()
			dirs += d
			files += f
		} else {
			files++
		}
	}
	return dirs, files
}

// Find returns the node at the given repository-relative path.
func (n *FileNode) Find(path string) *FileNode {
	path = strings.Trim(path, "/")
	if n == nil {
		return nil
	}
	if path == "" || path == n.Path {
		return n
	}
	for _, c := range n.Children {
		if c.Path == path {
			return c
		}
		if c.IsDir && strings.HasPrefix(path, c.Path+"/") {
			return c.Find(path)
		}
	}
	return nil
}

// Render returns the hierarchy as an indented tree, one entry per line.
// Directories carry a trailing slash. This is the form sent to the model.
func (n *FileNode) Render() string {
	var sb strings.Builder
	n.render(&sb, 0)
	return sb.String()
}

func (n *FileNode) render(sb *strings.Builder, depth int) {
	if n == nil {
		return
	}
	name := n.Name
	if name == "" {
		name = "."
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(name)
	if n.IsDir {
		sb.WriteByte('/')
	}
	sb.WriteByte('\n')
	for _, c := range n.Children {
		c.render(sb, depth+1)
	}
}

// SourceFile is the content of one repository file.
type SourceFile struct {
	Path    string
	Content string
}
