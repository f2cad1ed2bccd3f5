package filetree

// Stat describes a resolved node. Size is only meaningful when IsFile is set.
type Stat struct {
	IsFile bool
	Size   uint64
}

// Entry is a read-only snapshot of one node handed to tree walkers
type Entry struct {
	Path   string
	Depth  int
	IsFile bool
	Size   uint64 // declared content length; 0 for directories
}
