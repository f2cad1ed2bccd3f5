package filesystem

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.CheckInvariants = true
	return cfg
}

// newTestTree returns an initialized tree that asserts its invariants around
// every mutation
func newTestTree(t *testing.T) *FileTree {
	t.Helper()
	tree := NewFileTree(createTestConfig())
	require.NoError(t, tree.Init())
	return tree
}

func mustString(t *testing.T, tree *FileTree) string {
	t.Helper()
	s, err := tree.String()
	require.NoError(t, err)
	return s
}

func TestFileTree_Lifecycle(t *testing.T) {
	t.Parallel()

	tree := NewFileTree(nil)
	assert.Equal(t, Uninitialized, tree.State())
	assert.ErrorIs(t, tree.Destroy(), filetree.ErrInitialization)

	require.NoError(t, tree.Init())
	assert.Equal(t, Empty, tree.State())
	assert.ErrorIs(t, tree.Init(), filetree.ErrInitialization)

	require.NoError(t, tree.InsertDirectory("/a/b"))
	assert.Equal(t, Populated, tree.State())
	assert.Equal(t, 2, tree.Count())

	require.NoError(t, tree.Destroy())
	assert.Equal(t, Uninitialized, tree.State())
	assert.Equal(t, 0, tree.Count())
	assert.Nil(t, tree.Root())
	require.NoError(t, tree.Check())

	require.NoError(t, tree.Init(), "must be reusable after destroy")
	assert.False(t, tree.ContainsDirectory("/a"))
}

func TestFileTree_UninitializedGuard(t *testing.T) {
	t.Parallel()

	tree := NewFileTree(createTestConfig())

	assert.ErrorIs(t, tree.InsertDirectory("/a"), filetree.ErrInitialization)
	assert.ErrorIs(t, tree.InsertFile("/a/f", []byte("x"), 1), filetree.ErrInitialization)
	assert.ErrorIs(t, tree.RemoveDirectory("/a"), filetree.ErrInitialization)
	assert.ErrorIs(t, tree.RemoveFile("/a/f"), filetree.ErrInitialization)
	_, err := tree.Stat("/a")
	assert.ErrorIs(t, err, filetree.ErrInitialization)
	_, err = tree.String()
	assert.ErrorIs(t, err, filetree.ErrInitialization)
	assert.ErrorIs(t, tree.Walk(func(filetree.Entry) error { return nil }), filetree.ErrInitialization)

	assert.False(t, tree.ContainsDirectory("/a"))
	assert.False(t, tree.ContainsFile("/a/f"))
	_, ok := tree.GetFileContents("/a/f")
	assert.False(t, ok)
	_, _, ok = tree.ReplaceFileContents("/a/f", nil, 0)
	assert.False(t, ok)

	assert.Equal(t, Uninitialized, tree.State())
	assert.Equal(t, 0, tree.Count())
}

func TestFileTree_InsertFile_RoundTrip(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	content := []byte("contents of f")

	require.NoError(t, tree.InsertDirectory("/a"))
	require.NoError(t, tree.InsertFile("/a/f", content, uint64(len(content))))

	assert.True(t, tree.ContainsFile("/a/f"))
	assert.False(t, tree.ContainsDirectory("/a/f"))
	assert.True(t, tree.ContainsDirectory("/a"))
	assert.False(t, tree.ContainsFile("/a"))

	got, ok := tree.GetFileContents("/a/f")
	require.True(t, ok)
	assert.Equal(t, content, got)
	assert.Same(t, &content[0], &got[0], "content must be returned by reference")

	st, err := tree.Stat("/a/f")
	require.NoError(t, err)
	assert.Equal(t, filetree.Stat{IsFile: true, Size: uint64(len(content))}, st)

	st, err = tree.Stat("/a")
	require.NoError(t, err)
	assert.False(t, st.IsFile)
}

func TestFileTree_InsertDirectory_MaterializesAncestors(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)

	require.NoError(t, tree.InsertDirectory("/a/b/c"))
	assert.Equal(t, 3, tree.Count())
	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		assert.True(t, tree.ContainsDirectory(p), p)
	}

	require.NoError(t, tree.InsertDirectory("/a/x/y"))
	assert.Equal(t, 5, tree.Count(), "only the missing suffix is created")
}

func TestFileTree_Insert_AlreadyInTree(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	require.NoError(t, tree.InsertDirectory("/a/b"))
	require.NoError(t, tree.InsertFile("/a/f", nil, 0))
	before := mustString(t, tree)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"dir_twice", func() error { return tree.InsertDirectory("/a/b") }},
		{"root_twice", func() error { return tree.InsertDirectory("/a") }},
		{"file_twice", func() error { return tree.InsertFile("/a/f", []byte("x"), 1) }},
		{"file_over_dir", func() error { return tree.InsertFile("/a/b", nil, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.fn(), filetree.ErrAlreadyInTree)
			assert.Equal(t, 3, tree.Count())
			assert.Equal(t, before, mustString(t, tree))
		})
	}
}

func TestFileTree_Insert_ConflictingRoot(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	require.NoError(t, tree.InsertDirectory("/x"))

	err := tree.InsertDirectory("/y/z")
	assert.ErrorIs(t, err, filetree.ErrConflictingPath)
	assert.Equal(t, filetree.ConflictingPath, filetree.StatusOf(err))

	assert.ErrorIs(t, tree.InsertDirectory("/y"), filetree.ErrConflictingPath)
	assert.Equal(t, 1, tree.Count())
}

func TestFileTree_Insert_FileAsRoot(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)

	for _, p := range []string{"/f", "/a/f", "/a/b/c/f"} {
		err := tree.InsertFile(p, []byte("x"), 1)
		assert.ErrorIs(t, err, filetree.ErrConflictingPath, p)
		assert.Equal(t, Empty, tree.State(), p)
		assert.Equal(t, 0, tree.Count(), p)
		assert.Nil(t, tree.Root(), p)
	}
	assert.False(t, tree.ContainsDirectory("/a"), "no ancestors may be left behind")

	require.NoError(t, tree.InsertDirectory("/a"))
	require.NoError(t, tree.InsertFile("/a/f", []byte("x"), 1), "files go in once a directory root exists")
	assert.Equal(t, 2, tree.Count())
}

func TestFileTree_Insert_BelowFile(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	require.NoError(t, tree.InsertDirectory("/a"))
	require.NoError(t, tree.InsertFile("/a/f", nil, 0))

	assert.ErrorIs(t, tree.InsertDirectory("/a/f/g"), filetree.ErrNotADirectory)
	assert.ErrorIs(t, tree.InsertFile("/a/f/g/h", nil, 0), filetree.ErrNotADirectory)
	assert.Equal(t, 2, tree.Count())
}

func TestFileTree_BadPath(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	require.NoError(t, tree.InsertDirectory("/a"))

	for _, p := range []string{"", "a", "/a/", "/a//b"} {
		assert.ErrorIs(t, tree.InsertDirectory(p), filetree.ErrBadPath, p)
		assert.ErrorIs(t, tree.RemoveDirectory(p), filetree.ErrBadPath, p)
		_, err := tree.Stat(p)
		assert.Equal(t, filetree.BadPath, filetree.StatusOf(err), p)
		assert.False(t, tree.ContainsDirectory(p))
	}
	assert.Equal(t, 1, tree.Count())
}

func TestFileTree_Insert_MemoryRollback(t *testing.T) {
	t.Parallel()

	cfg := createTestConfig()
	cfg.MaxNodes = 4
	tree := NewFileTree(cfg)
	require.NoError(t, tree.Init())
	require.NoError(t, tree.InsertDirectory("/a/b"))
	before := mustString(t, tree)

	err := tree.InsertFile("/a/c/d/e", []byte("x"), 1)

	assert.ErrorIs(t, err, filetree.ErrMemory)
	assert.Equal(t, 2, tree.Count())
	assert.False(t, tree.ContainsDirectory("/a/c"), "partially built suffix must be rolled back")
	assert.Equal(t, before, mustString(t, tree))
	require.NoError(t, tree.Check())

	require.NoError(t, tree.InsertDirectory("/a/c/d"), "inserts within the limit still succeed")
	assert.Equal(t, 4, tree.Count())
}

func TestFileTree_Insert_MemoryRollback_EmptyTree(t *testing.T) {
	t.Parallel()

	cfg := createTestConfig()
	cfg.MaxNodes = 2
	tree := NewFileTree(cfg)
	require.NoError(t, tree.Init())

	assert.ErrorIs(t, tree.InsertDirectory("/a/b/c"), filetree.ErrMemory)
	assert.Equal(t, Empty, tree.State())
	assert.Nil(t, tree.Root())
	assert.Equal(t, 0, tree.Count())
}

func TestFileTree_Remove(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	require.NoError(t, tree.InsertDirectory("/a/b/c"))
	require.NoError(t, tree.InsertFile("/a/b/f", []byte("x"), 1))
	require.NoError(t, tree.InsertFile("/a/g", []byte("y"), 1))
	require.Equal(t, 5, tree.Count())

	assert.ErrorIs(t, tree.RemoveFile("/a/b"), filetree.ErrNotAFile)
	assert.ErrorIs(t, tree.RemoveDirectory("/a/g"), filetree.ErrNotADirectory)
	assert.ErrorIs(t, tree.RemoveDirectory("/a/zz"), filetree.ErrNoSuchPath)
	assert.ErrorIs(t, tree.RemoveDirectory("/b"), filetree.ErrConflictingPath)
	assert.Equal(t, 5, tree.Count())

	require.NoError(t, tree.RemoveDirectory("/a/b"))
	assert.Equal(t, 2, tree.Count(), "the whole subtree must be freed")
	assert.False(t, tree.ContainsDirectory("/a/b/c"))
	assert.False(t, tree.ContainsFile("/a/b/f"))

	require.NoError(t, tree.RemoveFile("/a/g"))
	assert.Equal(t, 1, tree.Count())
	assert.Equal(t, "/a\n", mustString(t, tree))
}

func TestFileTree_RemoveRoot_ReturnsToEmpty(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	require.NoError(t, tree.InsertDirectory("/a/b"))
	require.NoError(t, tree.InsertFile("/a/b/f", nil, 0))

	require.NoError(t, tree.RemoveDirectory("/a"))

	assert.Equal(t, Empty, tree.State())
	assert.Equal(t, 0, tree.Count())
	assert.Nil(t, tree.Root())
	assert.Equal(t, "", mustString(t, tree))

	require.NoError(t, tree.InsertDirectory("/z"), "a new root may be planted")
	assert.Equal(t, "/z\n", mustString(t, tree))
}

func TestFileTree_ReplaceFileContents(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	first := []byte("first")
	second := []byte("second!")
	require.NoError(t, tree.InsertDirectory("/a"))
	require.NoError(t, tree.InsertFile("/a/f", first, 5))

	old, oldSize, ok := tree.ReplaceFileContents("/a/f", second, 7)
	require.True(t, ok)
	assert.Equal(t, first, old)
	assert.Equal(t, uint64(5), oldSize)

	got, ok := tree.GetFileContents("/a/f")
	require.True(t, ok)
	assert.Equal(t, second, got)
	st, err := tree.Stat("/a/f")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), st.Size)

	_, _, ok = tree.ReplaceFileContents("/a", second, 7)
	assert.False(t, ok, "directories have no content")
	_, ok = tree.GetFileContents("/a")
	assert.False(t, ok)
	_, ok = tree.GetFileContents("/a/missing")
	assert.False(t, ok)
}

func TestFileTree_String_FilesBeforeDirectories(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	require.NoError(t, tree.InsertDirectory("/a/b"))
	require.NoError(t, tree.InsertFile("/a/b/g", []byte("g"), 1))
	require.NoError(t, tree.InsertFile("/a/f", []byte("f"), 1))

	assert.Equal(t, "/a\n/a/f\n/a/b\n/a/b/g\n", mustString(t, tree))
}

func TestFileTree_String_Ordering(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	for _, p := range []string{"/r/d2/x", "/r/d1"} {
		require.NoError(t, tree.InsertDirectory(p))
	}
	for _, p := range []string{"/r/z", "/r/a", "/r/d2/y", "/r/d2/a"} {
		require.NoError(t, tree.InsertFile(p, nil, 0))
	}

	want := strings.Join([]string{
		"/r",
		"/r/a", "/r/z", // files first, ascending
		"/r/d1",
		"/r/d2",
		"/r/d2/a", "/r/d2/y",
		"/r/d2/x",
	}, "\n") + "\n"
	assert.Equal(t, want, mustString(t, tree))
}

func TestFileTree_String_Empty(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	assert.Equal(t, "", mustString(t, tree))
}

func TestFileTree_Walk(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	require.NoError(t, tree.InsertDirectory("/a/d"))
	require.NoError(t, tree.InsertFile("/a/f", []byte("abc"), 3))

	var entries []filetree.Entry
	require.NoError(t, tree.Walk(func(e filetree.Entry) error {
		entries = append(entries, e)
		return nil
	}))
	assert.Equal(t, []filetree.Entry{
		{Path: "/a", Depth: 1},
		{Path: "/a/f", Depth: 2, IsFile: true, Size: 3},
		{Path: "/a/d", Depth: 2},
	}, entries)

	stop := errors.New("stop")
	visited := 0
	err := tree.Walk(func(filetree.Entry) error {
		visited++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, visited)
}

func TestFileTree_AssertValid_PanicsOnCorruption(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	require.NoError(t, tree.InsertDirectory("/a"))
	tree.count = 7

	assert.Panics(t, func() { _ = tree.InsertDirectory("/a/b") })
}

// TestFileTree_RandomOps runs a seeded random sequence of operations and
// checks every invariant after each step against a simple model of the tree.
func TestFileTree_RandomOps(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	names := []string{"a", "b", "c"}
	randPath := func() string {
		depth := 1 + rng.IntN(4)
		parts := make([]string, depth)
		parts[0] = "r"
		if rng.IntN(10) == 0 {
			parts[0] = "q" // occasionally outside the root
		}
		for i := 1; i < depth; i++ {
			parts[i] = names[rng.IntN(len(names))]
		}
		return "/" + strings.Join(parts, "/")
	}

	tree := newTestTree(t)
	for i := range 2000 {
		p := randPath()
		var err error
		switch op := rng.IntN(5); op {
		case 0, 1:
			err = tree.InsertDirectory(p)
		case 2:
			err = tree.InsertFile(p, []byte(p), uint64(len(p)))
		case 3:
			err = tree.RemoveDirectory(p)
		case 4:
			err = tree.RemoveFile(p)
		}
		require.NotEqual(t, filetree.Unknown, filetree.StatusOf(err), "step %d: unexpected error %v", i, err)
		require.NoError(t, tree.Check(), "step %d", i)

		listing := mustString(t, tree)
		assert.Equal(t, tree.Count(), strings.Count(listing, "\n"), "step %d", i)
		if tree.Count() == 0 {
			assert.Equal(t, Empty, tree.State())
		}
	}
}

func TestFileTree_String_Large(t *testing.T) {
	t.Parallel()

	tree := newTestTree(t)
	require.NoError(t, tree.InsertDirectory("/root"))
	for i := range 50 {
		require.NoError(t, tree.InsertFile(fmt.Sprintf("/root/d%02d/f", i), nil, 0))
	}
	assert.Equal(t, 101, tree.Count())
	lines := strings.Split(strings.TrimSuffix(mustString(t, tree), "\n"), "\n")
	require.Len(t, lines, 101)
	assert.Equal(t, "/root", lines[0])
	assert.Equal(t, "/root/d00", lines[1])
	assert.Equal(t, "/root/d00/f", lines[2])
	assert.Equal(t, "/root/d49/f", lines[100])
}
