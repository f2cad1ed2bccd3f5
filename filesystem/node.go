package filesystem

import (
	"fmt"
	"slices"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/ftpath"
)

// Kind tags a Node as a directory or a file
type Kind uint8

const (
	Directory Kind = iota
	File
)

func (k Kind) String() string {
	if k == File {
		return "file"
	}
	return "dir"
}

// Node is one vertex of the tree. A directory owns its children, kept sorted
// by path with no duplicates; a file carries a caller-owned content slice and
// its declared size. parent is a non-owning back reference, nil for the root.
//
// NOTE: Node is not safe for concurrent use
type Node struct {
	path     ftpath.Path
	parent   *Node
	kind     Kind
	children []*Node
	content  []byte // caller-owned; never copied
	size     uint64
}

// NewNode creates a node of the given kind at p and links it into parent's
// children. parent is nil only for a new root, which must have depth 1.
// content and size are ignored for directories.
//
// Errors:
//   - NoSuchPath if p has depth 0, if parent is nil and p's depth is not 1,
//     or if p is not exactly one level below parent
//   - NotADirectory if parent is a file
//   - ConflictingPath if parent's path is not a prefix of p
//   - AlreadyInTree if parent already has a child at p
func NewNode(p ftpath.Path, parent *Node, kind Kind, content []byte, size uint64) (*Node, error) {
	if p.Depth() == 0 {
		return nil, fmt.Errorf("%w: empty path", filetree.ErrNoSuchPath)
	}

	idx := 0
	if parent != nil {
		if parent.kind == File {
			return nil, fmt.Errorf("%w: %s", filetree.ErrNotADirectory, parent.path)
		}
		parentDepth := parent.path.Depth()
		if p.SharedPrefixDepth(parent.path) < parentDepth {
			return nil, fmt.Errorf("%w: %s is not under %s", filetree.ErrConflictingPath, p, parent.path)
		}
		// parent must be exactly one level up from child
		if p.Depth() != parentDepth+1 {
			return nil, fmt.Errorf("%w: %s is not a child of %s", filetree.ErrNoSuchPath, p, parent.path)
		}
		var found bool
		if found, idx = parent.HasChild(p); found {
			return nil, fmt.Errorf("%w: %s", filetree.ErrAlreadyInTree, p)
		}
	} else if p.Depth() != 1 {
		// new node must be root; only one level is created at a time
		return nil, fmt.Errorf("%w: root %s must have depth 1", filetree.ErrNoSuchPath, p)
	}

	node := &Node{
		path:   p,
		parent: parent,
		kind:   kind,
	}
	if kind == File {
		node.content = content
		node.size = size
	}
	if parent != nil {
		parent.children = slices.Insert(parent.children, idx, node)
	}
	return node, nil
}

// NewDir is [NewNode] for a directory
func NewDir(p ftpath.Path, parent *Node) (*Node, error) {
	return NewNode(p, parent, Directory, nil, 0)
}

// NewFile is [NewNode] for a file
func NewFile(p ftpath.Path, parent *Node, content []byte, size uint64) (*Node, error) {
	return NewNode(p, parent, File, content, size)
}

// Free detaches n from its parent and destroys n together with all of its
// descendants. Returns the number of nodes destroyed, n included.
// The content of destroyed files is left untouched for its owner.
func (n *Node) Free() int {
	if n.parent != nil {
		if found, idx := n.parent.HasChild(n.path); found && n.parent.children[idx] == n {
			n.parent.children = slices.Delete(n.parent.children, idx, idx+1)
		}
		n.parent = nil
	}

	count := 0
	// each child detaches itself from n.children
	for len(n.children) > 0 {
		count += n.children[0].Free()
	}
	n.children = nil
	n.content = nil
	return count + 1
}

// HasChild reports whether n has a child at p. The returned index is the
// child's position if found, or the position it would be inserted at.
func (n *Node) HasChild(p ftpath.Path) (bool, int) {
	idx, found := slices.BinarySearchFunc(n.children, p, func(c *Node, target ftpath.Path) int {
		return c.path.Compare(target)
	})
	return found, idx
}

// Child returns the child at idx
func (n *Node) Child(idx int) (*Node, error) {
	if idx < 0 || idx >= len(n.children) {
		return nil, fmt.Errorf("%w: child %d of %s", filetree.ErrNoSuchPath, idx, n.path)
	}
	return n.children[idx], nil
}

// NumChildren returns the number of direct children; always 0 for a file
func (n *Node) NumChildren() int {
	return len(n.children)
}

func (n *Node) Path() ftpath.Path {
	return n.path
}

// Parent returns the owning directory, nil for the root or a detached node
func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Kind() Kind {
	return n.kind
}

func (n *Node) IsFile() bool {
	return n.kind == File
}

// Content returns the file's content slice as supplied by the caller
func (n *Node) Content() []byte {
	return n.content
}

// Size returns the file's declared content length
func (n *Node) Size() uint64 {
	return n.size
}

// replaceContent swaps in new content and returns the previous content and size
func (n *Node) replaceContent(content []byte, size uint64) ([]byte, uint64) {
	old, oldSize := n.content, n.size
	n.content, n.size = content, size
	return old, oldSize
}

func (n *Node) entry() filetree.Entry {
	e := filetree.Entry{
		Path:   n.path.String(),
		Depth:  n.path.Depth(),
		IsFile: n.kind == File,
	}
	if e.IsFile {
		e.Size = n.size
	}
	return e
}

// Compare orders nodes by path; the canonical child order
func Compare(a, b *Node) int {
	return a.path.Compare(b.path)
}
