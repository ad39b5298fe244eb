package mountfs

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is reported when no store can resolve a name.
	ErrNotFound = errors.New("mountfs: not found")
	// ErrBackend marks a failure of the underlying storage, as opposed to a
	// missing file. The original cause stays reachable through errors.Is/As.
	ErrBackend = errors.New("mountfs: backend failure")
	// ErrIsDir is the backend failure for opening a directory as a file.
	ErrIsDir = errors.New("mountfs: is a directory")
)

// Error records a failed operation, the name it was given and the kind of
// store that failed.
type Error struct {
	Op    string
	Path  string
	Store string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Store, e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets not-found errors match fs.ErrNotExist.
func (e *Error) Is(target error) bool {
	return target == fs.ErrNotExist && errors.Is(e.Err, ErrNotFound)
}

// IsNotFound reports whether err means the name could not be resolved.
// Errors from foreign stores that wrap fs.ErrNotExist count as well.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

func notFound(store, name string) error {
	return &Error{Op: "open", Path: name, Store: store, Err: ErrNotFound}
}

func backendError(store, name string, err error) error {
	return &Error{Op: "open", Path: name, Store: store, Err: fmt.Errorf("%w: %w", ErrBackend, err)}
}
