package mountfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Local serves files from a directory on the local disk. Names are cleaned
// before they are joined to the root, so ".." never leaves it.
type Local struct {
	root string
}

// NewLocal creates a Local rooted at the given directory. The directory is
// not checked until files are opened.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Pwd creates a Local rooted at the current working directory.
func Pwd() (*Local, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return NewLocal(wd), nil
}

// Root returns the directory l serves.
func (l *Local) Root() string { return l.root }

func (l *Local) abs(name string) string {
	rel := cleanName(name)
	if rel == "" {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(rel))
}

func (l *Local) Open(name string) (File, error) {
	f, err := os.Open(l.abs(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound("local", name)
		}
		return nil, backendError("local", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, backendError("local", name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, backendError("local", name, ErrIsDir)
	}
	return f, nil
}
