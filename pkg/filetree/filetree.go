package filetree

import (
	"sort"
	"strings"
)

// NodeType distinguishes files from folders.
type NodeType string

const (
	TypeFile   NodeType = "file"
	TypeFolder NodeType = "folder"
)

// Node is one entry in the generated-project explorer. Folders hold children;
// files hold content. Every folder's path is a prefix of all of its
// descendants' paths.
type Node struct {
	Name     string
	Type     NodeType
	Path     string
	Content  string
	Children []*Node
	Expanded bool
}

// Build converts a flat path -> content mapping into a nested tree. The tree
// is rebuilt wholesale on every refresh; folders start expanded. Ordering is
// deterministic: folders before files, lexicographic within each kind.
func Build(files map[string]string) []*Node {
	root := &Node{Type: TypeFolder, Expanded: true}

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		insert(root, path, files[path])
	}

	sortChildren(root)
	return root.Children
}

// insert walks the folder chain for path, creating missing folders, and
// attaches the final segment as a file leaf.
func insert(root *Node, path, content string) {
	segments := strings.Split(path, "/")
	node := root
	prefix := ""

	for i, segment := range segments {
		if segment == "" {
			continue
		}
		if prefix == "" {
			prefix = segment
		} else {
			prefix = prefix + "/" + segment
		}

		last := i == len(segments)-1
		if last {
			node.Children = append(node.Children, &Node{
				Name:    segment,
				Type:    TypeFile,
				Path:    prefix,
				Content: content,
			})
			return
		}

		child := findFolder(node, segment)
		if child == nil {
			child = &Node{
				Name:     segment,
				Type:     TypeFolder,
				Path:     prefix,
				Expanded: true,
			}
			node.Children = append(node.Children, child)
		}
		node = child
	}
}

func findFolder(parent *Node, name string) *Node {
	for _, child := range parent.Children {
		if child.Type == TypeFolder && child.Name == name {
			return child
		}
	}
	return nil
}

func sortChildren(node *Node) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.Type != b.Type {
			return a.Type == TypeFolder
		}
		return a.Name < b.Name
	})
	for _, child := range node.Children {
		if child.Type == TypeFolder {
			sortChildren(child)
		}
	}
}

// LeafPaths returns the path of every file in the tree, depth-first.
func LeafPaths(nodes []*Node) []string {
	var paths []string
	walk(nodes, func(n *Node) {
		if n.Type == TypeFile {
			paths = append(paths, n.Path)
		}
	})
	return paths
}

// Find returns the node with the given path, or nil.
func Find(nodes []*Node, path string) *Node {
	var found *Node
	walk(nodes, func(n *Node) {
		if n.Path == path {
			found = n
		}
	})
	return found
}

// Resolve re-validates a selection against a freshly rebuilt tree. A selected
// file that no longer exists yields "" instead of a stale path.
func Resolve(nodes []*Node, selected string) string {
	if selected == "" {
		return ""
	}
	if n := Find(nodes, selected); n != nil && n.Type == TypeFile {
		return selected
	}
	return ""
}

// VisibleNode is one explorer row: a node plus its indent level.
type VisibleNode struct {
	Node  *Node
	Depth int
}

// Flatten returns the rows the explorer should draw.
func Flatten(nodes []*Node) []VisibleNode {
	var rows []VisibleNode
	var descend func(nodes []*Node, depth int)
	descend = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			rows = append(rows, VisibleNode{Node: n, Depth: depth})
			if n.Type == TypeFolder && n.Expanded {
				descend(n.Children, depth+1)
			}
		}
	}
	descend(nodes, 0)
	return rows
}

func walk(nodes []*Node, fn func(*Node)) {
	for _, n := range nodes {
		fn(n)
		if n.Type == TypeFolder {
			walk(n.Children, fn)
		}
	}
}
