package filesystem

import (
	"errors"
	"fmt"

	"github.com/brettbedarf/filetree/internal/util"
)

// ErrInvariant is wrapped by every violation reported by the checker
var ErrInvariant = errors.New("invariant violation")

func violation(format string, args ...any) error {
	err := fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
	logger := util.GetLogger("Checker")
	logger.Warn().Err(err).Msg("Broken tree invariant")
	return err
}

// CheckNode verifies the invariants local to n: n is non-nil, a file has no
// children, and n's parent (if any) holds the longest proper prefix of n's path.
func CheckNode(n *Node) error {
	if n == nil {
		return violation("a node is nil")
	}
	if n.IsFile() && len(n.children) != 0 {
		return violation("file %s has %d children", n.path, len(n.children))
	}
	if p := n.parent; p != nil {
		if n.path.SharedPrefixDepth(p.path) != n.path.Depth()-1 {
			return violation("parent-child nodes don't have parent-child paths: (%s) (%s)", p.path, n.path)
		}
	}
	return nil
}

// CheckTree verifies the whole tree state: lifecycle consistency, a directory
// root, and for every node reachable from root the node invariants, strictly
// ascending duplicate-free children, and that count equals the number of
// reachable nodes. Returns the first violation found.
func CheckTree(state State, root *Node, count int) error {
	switch state {
	case Uninitialized:
		if count != 0 {
			return violation("not initialized, but count is %d", count)
		}
		if root != nil {
			return violation("not initialized, but root is %s", root.path)
		}
	case Empty:
		if root != nil || count != 0 {
			return violation("empty tree has root=%v and count %d", root != nil, count)
		}
	case Populated:
		if root == nil || count <= 0 {
			return violation("populated tree has root=%v and count %d", root != nil, count)
		}
	default:
		return violation("unknown state %s", state)
	}

	if root != nil {
		if root.IsFile() {
			return violation("root %s cannot be a file", root.path)
		}
		if root.parent != nil {
			return violation("root %s has a parent", root.path)
		}
	}

	remaining := count
	if err := checkSubtree(root, &remaining); err != nil {
		return err
	}
	if remaining != 0 {
		return violation("count %d claims %d more nodes than reachable", count, remaining)
	}
	return nil
}

// IsValid is the boolean form of [CheckTree]
func IsValid(state State, root *Node, count int) bool {
	return CheckTree(state, root, count) == nil
}

// checkSubtree performs a pre-order walk of n, decrementing *remaining once
// per visited node.
func checkSubtree(n *Node, remaining *int) error {
	if n == nil {
		return nil
	}
	if err := CheckNode(n); err != nil {
		return err
	}
	if *remaining <= 0 {
		return violation("count is lower than the number of nodes reachable (at %s)", n.path)
	}
	*remaining--

	for _, child := range n.children {
		if child == nil {
			return violation("a child of %s is nil", n.path)
		}
	}
	for i, child := range n.children {
		for j := i + 1; j < len(n.children); j++ {
			switch cmp := Compare(child, n.children[j]); {
			case cmp == 0:
				return violation("duplicate path %s under %s", child.path, n.path)
			case cmp > 0:
				return violation("children of %s out of order: %s before %s", n.path, child.path, n.children[j].path)
			}
		}
		if child.parent != n {
			return violation("child %s does not point back to parent %s", child.path, n.path)
		}
		if err := checkSubtree(child, remaining); err != nil {
			return err
		}
	}
	return nil
}

// Check runs [CheckTree] over t
func (t *FileTree) Check() error {
	return CheckTree(t.state, t.root, t.count)
}

// assertValid panics on a broken invariant when the config enables checking
func (t *FileTree) assertValid(op string) {
	if !t.cfg.CheckInvariants {
		return
	}
	if err := t.Check(); err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
}
