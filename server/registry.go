// Package server hosts named file trees for concurrent callers. The trees
// themselves are single-threaded; every Mount serializes access to its tree.
package server

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/filetree/config"
	"github.com/brettbedarf/filetree/filesystem"
	"github.com/brettbedarf/filetree/internal/util"
)

var (
	ErrMountExists   = errors.New("mount already exists")
	ErrMountNotFound = errors.New("mount not found")
)

// Mount is one named, initialized file tree
type Mount struct {
	id   string
	name string
	mu   sync.Mutex // serializes every access to tree
	tree *filesystem.FileTree
}

// ID returns the mount's unique session ID
func (m *Mount) ID() string {
	return m.id
}

func (m *Mount) Name() string {
	return m.name
}

// Do runs fn with exclusive access to the mount's tree. The tree must not be
// retained after fn returns.
func (m *Mount) Do(fn func(tree *filesystem.FileTree) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.tree)
}

// Registry maps mount names to mounted trees
type Registry struct {
	cfg    *config.Config
	mounts *xsync.Map[string, *Mount]
}

func NewRegistry(cfg *config.Config) *Registry {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &Registry{
		cfg:    cfg,
		mounts: xsync.NewMap[string, *Mount](),
	}
}

// Mount creates and initializes a new tree under name
func (r *Registry) Mount(name string) (*Mount, error) {
	logger := util.GetLogger("Registry.Mount")

	tree := filesystem.NewFileTree(r.cfg)
	if err := tree.Init(); err != nil {
		return nil, err
	}
	m := &Mount{
		id:   uuid.New().String(),
		name: name,
		tree: tree,
	}
	if _, loaded := r.mounts.LoadOrStore(name, m); loaded {
		return nil, fmt.Errorf("%w: %s", ErrMountExists, name)
	}
	logger.Info().Str("name", name).Str("id", m.id).Msg("Mounted tree")
	return m, nil
}

// Get returns the mount registered under name
func (r *Registry) Get(name string) (*Mount, bool) {
	return r.mounts.Load(name)
}

// Unmount removes name from the registry and destroys its tree.
// Returns the number of nodes the tree held.
func (r *Registry) Unmount(name string) (int, error) {
	logger := util.GetLogger("Registry.Unmount")

	m, ok := r.mounts.LoadAndDelete(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMountNotFound, name)
	}
	var count int
	err := m.Do(func(tree *filesystem.FileTree) error {
		count = tree.Count()
		return tree.Destroy()
	})
	if err != nil {
		return 0, err
	}
	logger.Info().Str("name", name).Str("id", m.id).Int("nodes", count).Msg("Unmounted tree")
	return count, nil
}

// Names returns the registered mount names in ascending order
func (r *Registry) Names() []string {
	names := make([]string, 0, r.mounts.Size())
	r.mounts.Range(func(name string, _ *Mount) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

// Close unmounts every tree
func (r *Registry) Close() error {
	var errs []error
	for _, name := range r.Names() {
		if _, err := r.Unmount(name); err != nil && !errors.Is(err, ErrMountNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
