// Package ftpath provides the immutable absolute path value used to address
// nodes in a file tree.
package ftpath

import (
	"fmt"
	"strings"

	"github.com/brettbedarf/filetree"
)

// Separator between path components
const Separator = "/"

// Path is an absolute, slash-delimited path such as "/a/b/c".
// Its depth is the number of components. The zero value has depth 0 and is
// never returned by [New].
type Path struct {
	str   string
	comps []string
}

// New parses s into a Path. s must begin with "/", must not end with "/",
// and every component must be non-empty and neither "." nor "..".
func New(s string) (Path, error) {
	if !strings.HasPrefix(s, Separator) {
		return Path{}, fmt.Errorf("%w: %q is not absolute", filetree.ErrBadPath, s)
	}
	comps := strings.Split(s[1:], Separator)
	for _, c := range comps {
		switch c {
		case "":
			return Path{}, fmt.Errorf("%w: %q has an empty component", filetree.ErrBadPath, s)
		case ".", "..":
			return Path{}, fmt.Errorf("%w: %q has a relative component", filetree.ErrBadPath, s)
		}
	}
	return Path{str: s, comps: comps}, nil
}

// MustNew is like [New] but panics on a malformed path. Intended for
// constants and tests.
func MustNew(s string) Path {
	p, err := New(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Depth returns the number of components
func (p Path) Depth() int {
	return len(p.comps)
}

// String renders the path
func (p Path) String() string {
	return p.str
}

// Len returns the length of the rendered path in bytes
func (p Path) Len() int {
	return len(p.str)
}

// Name returns the last component, or "" for the zero Path
func (p Path) Name() string {
	if len(p.comps) == 0 {
		return ""
	}
	return p.comps[len(p.comps)-1]
}

// Components returns a copy of the path's components
func (p Path) Components() []string {
	out := make([]string, len(p.comps))
	copy(out, p.comps)
	return out
}

// IsZero reports whether p is the zero Path
func (p Path) IsZero() bool {
	return len(p.comps) == 0
}

// Prefix returns the path made of the first depth components.
// depth must be in [1, p.Depth()].
func (p Path) Prefix(depth int) (Path, error) {
	if depth < 1 || depth > len(p.comps) {
		return Path{}, fmt.Errorf("%w: prefix depth %d of %q", filetree.ErrNoSuchPath, depth, p.str)
	}
	if depth == len(p.comps) {
		return p, nil
	}
	comps := p.comps[:depth:depth]
	return Path{str: Separator + strings.Join(comps, Separator), comps: comps}, nil
}

// Compare orders paths lexicographically by their rendered form.
// Returns <0, 0 or >0.
func (p Path) Compare(other Path) int {
	return strings.Compare(p.str, other.str)
}

// CompareString is [Path.Compare] against an already rendered path
func (p Path) CompareString(s string) int {
	return strings.Compare(p.str, s)
}

// SharedPrefixDepth returns the number of leading components p and other
// have in common.
func (p Path) SharedPrefixDepth(other Path) int {
	n := min(len(p.comps), len(other.comps))
	i := 0
	for i < n && p.comps[i] == other.comps[i] {
		i++
	}
	return i
}
