// Package filetree contains the core domain types shared by every layer of
// the in-memory File Tree: the error taxonomy, stat/listing values and node
// create requests.
package filetree

import (
	"errors"
)

// Status is the enumerated result of a tree operation. Operations return
// errors; [StatusOf] recovers the Status from any of them.
type Status int

// Unknown is reported by [StatusOf] for errors that wrap none of the sentinels.
const Unknown Status = -1

const (
	Success Status = iota
	BadPath
	ConflictingPath
	NoSuchPath
	AlreadyInTree
	NotADirectory
	NotAFile
	InitializationError
	MemoryError
)

// Sentinel errors, one per failing [Status]. Errors returned by the tree wrap
// exactly one of these so callers can match with errors.Is.
var (
	ErrBadPath         = errors.New("bad path")
	ErrConflictingPath = errors.New("conflicting path")
	ErrNoSuchPath      = errors.New("no such path")
	ErrAlreadyInTree   = errors.New("already in tree")
	ErrNotADirectory   = errors.New("not a directory")
	ErrNotAFile        = errors.New("not a file")
	ErrInitialization  = errors.New("initialization error")
	ErrMemory          = errors.New("memory error")
)

var statusErrs = [...]struct {
	status Status
	err    error
}{
	{BadPath, ErrBadPath},
	{ConflictingPath, ErrConflictingPath},
	{NoSuchPath, ErrNoSuchPath},
	{AlreadyInTree, ErrAlreadyInTree},
	{NotADirectory, ErrNotADirectory},
	{NotAFile, ErrNotAFile},
	{InitializationError, ErrInitialization},
	{MemoryError, ErrMemory},
}

// StatusOf maps err onto the taxonomy. A nil error is [Success]; an error
// outside the taxonomy is reported as [Unknown].
func StatusOf(err error) Status {
	if err == nil {
		return Success
	}
	for _, se := range statusErrs {
		if errors.Is(err, se.err) {
			return se.status
		}
	}
	return Unknown
}

// Err returns the sentinel error for s, or nil for [Success] and unknown values.
func (s Status) Err() error {
	for _, se := range statusErrs {
		if se.status == s {
			return se.err
		}
	}
	return nil
}

func (s Status) String() string {
	switch s {
	case Success:
		return "SUCCESS"
	case BadPath:
		return "BAD_PATH"
	case ConflictingPath:
		return "CONFLICTING_PATH"
	case NoSuchPath:
		return "NO_SUCH_PATH"
	case AlreadyInTree:
		return "ALREADY_IN_TREE"
	case NotADirectory:
		return "NOT_A_DIRECTORY"
	case NotAFile:
		return "NOT_A_FILE"
	case InitializationError:
		return "INITIALIZATION_ERROR"
	case MemoryError:
		return "MEMORY_ERROR"
	default:
		return "UNKNOWN"
	}
}
