package snapshot

import (
	"errors"
	"fmt"
)

var (
	ErrSnapshotMismatch = errors.New("snapshot mismatch")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrUnsupportedValue = errors.New("value cannot be snapshotted")
	ErrCorruptSnapshot  = errors.New("corrupt snapshot")
	ErrEmptyIdentity    = errors.New("snapshot identity is empty")
)

// MismatchError describes the first difference between a value and its
// stored snapshot.
type MismatchError struct {
	Identity string
	Path     string
	Reason   string
	Diff     string
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("snapshot %q: %s: %s", e.Identity, e.Path, e.Reason)
	if e.Diff != "" {
		msg += "\n" + e.Diff
	}
	return msg
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrSnapshotMismatch
}

// difference is the first mismatch found while walking two trees.
type difference struct {
	path   string
	reason string
}

func diffAt(path, format string, args ...any) *difference {
	return &difference{path: path, reason: fmt.Sprintf(format, args...)}
}
