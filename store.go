package mountfs

import (
	"bytes"
	"io"
	"path"
	"strings"
)

// File is an open, sequentially readable file. Each call to Open returns a
// new File owned by the caller, who must close it.
type File interface {
	io.Reader
	io.Closer
}

// Store is the capability shared by every backend and combinator: open a
// file by name. Names are relative to whatever the store represents; stores
// know nothing about mount points.
type Store interface {
	Open(name string) (File, error)
}

// StoreFunc adapts an ordinary function to the Store interface.
type StoreFunc func(name string) (File, error)

func (f StoreFunc) Open(name string) (File, error) { return f(name) }

// Empty is a store that never has anything. It terminates merge chains.
type Empty struct{}

func (Empty) Open(name string) (File, error) {
	return nil, notFound("empty", name)
}

// ReadFile opens name in s and reads it to the end.
func ReadFile(s Store, name string) ([]byte, error) {
	f, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// memFile serves a byte slice that must not change while the file is open.
type memFile struct {
	*bytes.Reader
}

func newMemFile(data []byte) *memFile {
	return &memFile{Reader: bytes.NewReader(data)}
}

func (f *memFile) Close() error { return nil }

// cleanName turns a store-relative name into the canonical key used by the
// bundled backends: slash separated, cleaned, no leading slash. The root is "".
func cleanName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}
