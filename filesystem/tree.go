package filesystem

import (
	"fmt"
	"strings"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/config"
	"github.com/brettbedarf/filetree/ftpath"
	"github.com/brettbedarf/filetree/internal/util"
)

// State is the lifecycle state of a [FileTree]
type State uint8

const (
	Uninitialized State = iota
	Empty               // initialized, no root
	Populated           // initialized, root present
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Empty:
		return "empty"
	case Populated:
		return "populated"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// FileTree manages one single-rooted tree of directory and file nodes
// addressed by absolute paths. It owns every node reachable from its root.
//
// Lifecycle: Uninitialized -> Init -> Empty <-> Populated -> Destroy -> Uninitialized.
// Every path taking operation fails with an initialization error while
// Uninitialized.
//
// NOTE: FileTree is not safe for concurrent use; callers sharing a tree
// between goroutines must serialize access (see server.Mount).
type FileTree struct {
	cfg   *config.Config
	state State
	root  *Node
	count int // live nodes reachable from root
}

// NewFileTree returns an uninitialized tree. A nil cfg uses the defaults.
func NewFileTree(cfg *config.Config) *FileTree {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &FileTree{cfg: cfg}
}

// State returns the current lifecycle state
func (t *FileTree) State() State {
	return t.state
}

// Count returns the number of live nodes, root included
func (t *FileTree) Count() int {
	return t.count
}

// Root returns the root node, nil if the tree is not populated
func (t *FileTree) Root() *Node {
	return t.root
}

// Init moves an uninitialized tree to the empty state
func (t *FileTree) Init() error {
	t.assertValid("Init")
	if t.state != Uninitialized {
		return fmt.Errorf("%w: already initialized", filetree.ErrInitialization)
	}
	t.state = Empty
	t.root = nil
	t.count = 0
	t.assertValid("Init")
	return nil
}

// Destroy frees every node and returns the tree to the uninitialized state
func (t *FileTree) Destroy() error {
	logger := util.GetLogger("FileTree.Destroy")
	t.assertValid("Destroy")
	if t.state == Uninitialized {
		return fmt.Errorf("%w: not initialized", filetree.ErrInitialization)
	}
	if t.root != nil {
		freed := t.root.Free()
		t.count -= freed
		t.root = nil
		logger.Debug().Int("freed", freed).Msg("Freed tree")
	}
	t.state = Uninitialized
	t.assertValid("Destroy")
	return nil
}

// InsertDirectory inserts a directory at path, creating any missing ancestor
// directories. See [FileTree.insert] for the failure modes.
func (t *FileTree) InsertDirectory(path string) error {
	return t.insert(path, Directory, nil, 0)
}

// InsertFile inserts a file at path holding content with declared length
// size, creating any missing ancestor directories. content is stored by
// reference and never copied.
func (t *FileTree) InsertFile(path string, content []byte, size uint64) error {
	return t.insert(path, File, content, size)
}

// insert builds the missing suffix of path below the deepest existing
// ancestor, one level at a time, the last level being of the given kind.
// Nodes created by a failed call are freed before returning, so the tree
// is unchanged on error.
//
// Errors: InitializationError, BadPath, ConflictingPath (outside the root, or
// any file inserted into an empty tree), AlreadyInTree, NotADirectory (deepest
// existing ancestor is a file), MemoryError (node budget exhausted).
func (t *FileTree) insert(path string, kind Kind, content []byte, size uint64) error {
	logger := util.GetLogger("FileTree.Insert")
	t.assertValid("Insert")

	if t.state == Uninitialized {
		return fmt.Errorf("%w: not initialized", filetree.ErrInitialization)
	}
	p, err := ftpath.New(path)
	if err != nil {
		return err
	}

	// find the closest ancestor of p already in the tree
	cur, err := t.traversePath(p)
	if err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Insert rejected")
		return err
	}
	// no ancestor found although a root exists: p isn't underneath root
	if cur == nil && t.root != nil {
		return fmt.Errorf("%w: %s is outside the tree", filetree.ErrConflictingPath, p)
	}
	// an empty tree only accepts a directory, so the root can never be a file
	if t.root == nil && kind == File {
		return fmt.Errorf("%w: %s would root the tree at a file", filetree.ErrConflictingPath, p)
	}

	depth := p.Depth()
	level := 1
	if cur != nil {
		if cur.path.Compare(p) == 0 {
			return fmt.Errorf("%w: %s", filetree.ErrAlreadyInTree, p)
		}
		if cur.IsFile() {
			return fmt.Errorf("%w: %s", filetree.ErrNotADirectory, cur.path)
		}
		level = cur.path.Depth() + 1
	}

	// build the rest of the path one level at a time; nothing is committed
	// to the tree's state until every level exists
	var firstNew *Node
	created := 0
	rollback := func(cause error) error {
		if firstNew != nil {
			firstNew.Free()
		}
		logger.Debug().Err(cause).Str("path", path).Int("rolledBack", created).Msg("Insert failed")
		t.assertValid("Insert")
		return cause
	}
	for ; level <= depth; level++ {
		if t.cfg.MaxNodes > 0 && t.count+created >= t.cfg.MaxNodes {
			return rollback(fmt.Errorf("%w: node limit %d reached", filetree.ErrMemory, t.cfg.MaxNodes))
		}
		prefix, err := p.Prefix(level)
		if err != nil {
			return rollback(err)
		}
		k := Directory
		if level == depth {
			k = kind
		}
		node, err := NewNode(prefix, cur, k, content, size)
		if err != nil {
			return rollback(err)
		}
		if firstNew == nil {
			firstNew = node
		}
		cur = node
		created++
	}

	if t.root == nil {
		t.root = firstNew
	}
	t.count += created
	t.state = Populated
	logger.Debug().Str("path", path).Str("kind", kind.String()).Int("created", created).Msg("Inserted node(s)")

	t.assertValid("Insert")
	return nil
}

// ContainsDirectory reports whether a directory exists at path.
// Any lookup error yields false.
func (t *FileTree) ContainsDirectory(path string) bool {
	n, err := t.findNode(path)
	return err == nil && !n.IsFile()
}

// ContainsFile reports whether a file exists at path.
// Any lookup error yields false.
func (t *FileTree) ContainsFile(path string) bool {
	n, err := t.findNode(path)
	return err == nil && n.IsFile()
}

// RemoveDirectory removes the directory at path and its whole subtree
func (t *FileTree) RemoveDirectory(path string) error {
	return t.remove(path, Directory)
}

// RemoveFile removes the file at path. The content is not touched.
func (t *FileTree) RemoveFile(path string) error {
	return t.remove(path, File)
}

func (t *FileTree) remove(path string, kind Kind) error {
	logger := util.GetLogger("FileTree.Remove")
	t.assertValid("Remove")

	n, err := t.findNode(path)
	if err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Remove rejected")
		return err
	}
	switch {
	case kind == Directory && n.IsFile():
		return fmt.Errorf("%w: %s", filetree.ErrNotADirectory, path)
	case kind == File && !n.IsFile():
		return fmt.Errorf("%w: %s", filetree.ErrNotAFile, path)
	}

	freed := n.Free()
	t.count -= freed
	if t.count == 0 {
		t.root = nil
		t.state = Empty
	}
	logger.Debug().Str("path", path).Int("freed", freed).Msg("Removed node(s)")

	t.assertValid("Remove")
	return nil
}

// GetFileContents returns the content of the file at path. ok is false if
// there is no file at path.
func (t *FileTree) GetFileContents(path string) (content []byte, ok bool) {
	n, err := t.findNode(path)
	if err != nil || !n.IsFile() {
		return nil, false
	}
	return n.content, true
}

// ReplaceFileContents swaps the content of the file at path and returns the
// previous content and size. The previous content is handed back, not
// released. ok is false if there is no file at path.
func (t *FileTree) ReplaceFileContents(path string, content []byte, size uint64) (old []byte, oldSize uint64, ok bool) {
	t.assertValid("ReplaceFileContents")
	n, err := t.findNode(path)
	if err != nil || !n.IsFile() {
		return nil, 0, false
	}
	old, oldSize = n.replaceContent(content, size)
	t.assertValid("ReplaceFileContents")
	return old, oldSize, true
}

// Stat reports whether path is a file and, for files, its declared size
func (t *FileTree) Stat(path string) (filetree.Stat, error) {
	n, err := t.findNode(path)
	if err != nil {
		return filetree.Stat{}, err
	}
	if n.IsFile() {
		return filetree.Stat{IsFile: true, Size: n.size}, nil
	}
	return filetree.Stat{}, nil
}

// Walk calls fn for every node in listing order: at each directory the file
// children first, then the directory children's subtrees, each group in
// ascending path order. Walk stops at the first error fn returns.
func (t *FileTree) Walk(fn func(filetree.Entry) error) error {
	if t.state == Uninitialized {
		return fmt.Errorf("%w: not initialized", filetree.ErrInitialization)
	}
	return walkByKind(t.root, func(n *Node) error { return fn(n.entry()) })
}

// String serializes the tree as one newline-terminated absolute path per
// node, in [FileTree.Walk] order. An empty tree yields "".
func (t *FileTree) String() (string, error) {
	var sb strings.Builder
	err := t.Walk(func(e filetree.Entry) error {
		sb.WriteString(e.Path)
		sb.WriteByte('\n')
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// walkByKind is a pre-order traversal that visits n, then n's file children,
// then n's directory children's subtrees.
func walkByKind(n *Node, fn func(*Node) error) error {
	if n == nil {
		return nil
	}
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if c.IsFile() {
			if err := walkByKind(c, fn); err != nil {
				return err
			}
		}
	}
	for _, c := range n.children {
		if !c.IsFile() {
			if err := walkByKind(c, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// traversePath walks from the root as far as possible towards p and returns
// the deepest node reached, which may hold only a prefix of p. Returns nil
// when the tree has no root, and ConflictingPath when the root's path is not
// a prefix of p.
func (t *FileTree) traversePath(p ftpath.Path) (*Node, error) {
	if t.root == nil {
		return nil, nil
	}
	top, err := p.Prefix(1)
	if err != nil {
		return nil, err
	}
	if t.root.path.Compare(top) != 0 {
		return nil, fmt.Errorf("%w: %s is not under root %s", filetree.ErrConflictingPath, p, t.root.path)
	}

	cur := t.root
	for i := 2; i <= p.Depth(); i++ {
		prefix, err := p.Prefix(i)
		if err != nil {
			return nil, err
		}
		found, idx := cur.HasChild(prefix)
		if !found {
			// as far as we can go
			break
		}
		if cur, err = cur.Child(idx); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// findNode resolves path to the node holding exactly that path
func (t *FileTree) findNode(path string) (*Node, error) {
	if t.state == Uninitialized {
		return nil, fmt.Errorf("%w: not initialized", filetree.ErrInitialization)
	}
	p, err := ftpath.New(path)
	if err != nil {
		return nil, err
	}
	n, err := t.traversePath(p)
	if err != nil {
		return nil, err
	}
	if n == nil || n.path.Compare(p) != 0 {
		return nil, fmt.Errorf("%w: %s", filetree.ErrNoSuchPath, p)
	}
	return n, nil
}
