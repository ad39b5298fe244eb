package mountfs

import (
	"errors"
	"testing"
)

var errDisk = errors.New("disk on fire")

// recorder is a store that remembers every name it was asked for and
// delegates to next.
type recorder struct {
	names []string
	next  Store
}

func (r *recorder) Open(name string) (File, error) {
	r.names = append(r.names, name)
	return r.next.Open(name)
}

// failing is a store whose every Open is a backend failure.
var failing = StoreFunc(func(name string) (File, error) {
	return nil, backendError("failing", name, errDisk)
})

func ramOf(files map[string]string) *Ram {
	r := NewRam()
	for name, content := range files {
		r.Touch(name, []byte(content))
	}
	return r
}

func mustRead(t *testing.T, s Store, name string) string {
	t.Helper()
	data, err := ReadFile(s, name)
	if err != nil {
		t.Fatalf("read %q: %v", name, err)
	}
	return string(data)
}

func mustNotFound(t *testing.T, s Store, name string) {
	t.Helper()
	f, err := s.Open(name)
	if err == nil {
		f.Close()
		t.Fatalf("open %q: expected not found, got a file", name)
	}
	if !IsNotFound(err) {
		t.Fatalf("open %q: expected not found, got %v", name, err)
	}
}
