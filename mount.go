package mountfs

import (
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

// Table binds stores to mount paths. Bindings keep their mount order and a
// lookup is served by the most recently mounted binding whose path is a
// prefix of the looked up name. Unlike Merge, a Table never falls back to an
// older binding when the chosen store fails.
//
// A Table is itself a Store. It has no internal locking: Mount and Unmount
// must not run concurrently with Open.
type Table struct {
	mounts []binding
	log    logrus.FieldLogger
}

type binding struct {
	path  string
	key   splitPath
	store Store
}

// Resolution describes which binding serves a name.
type Resolution struct {
	Mount string // mount path, as given to Mount
	Rest  string // name relative to the mount
	Store Store
}

// New returns an empty Table.
func New(opts ...Option) *Table {
	t := &Table{log: discardLogger()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Mount binds s at path and returns t. The path is kept as given; several
// bindings may share it, and the newest one shadows the others.
func (t *Table) Mount(path string, s Store) *Table {
	t.mounts = append(t.mounts, binding{path: path, key: parsePath(path), store: s})
	return t
}

// Unmount removes the most recently mounted binding whose path equals path
// exactly and hands its store back. Other bindings keep their order.
func (t *Table) Unmount(path string) (Store, bool) {
	for i := len(t.mounts) - 1; i >= 0; i-- {
		if t.mounts[i].path != path {
			continue
		}
		s := t.mounts[i].store
		t.mounts = slices.Delete(t.mounts, i, i+1)
		t.log.WithField("mount", path).Debug("unmounted")
		return s, true
	}
	return nil, false
}

// Mounts returns the mount paths, oldest first.
func (t *Table) Mounts() []string {
	paths := make([]string, len(t.mounts))
	for i, m := range t.mounts {
		paths[i] = m.path
	}
	return paths
}

// Resolve finds the binding that serves name without opening anything.
func (t *Table) Resolve(name string) (Resolution, bool) {
	key := parsePath(name)
	for i := len(t.mounts) - 1; i >= 0; i-- {
		m := t.mounts[i]
		if rest, ok := key.strip(m.key); ok {
			return Resolution{Mount: m.path, Rest: rest, Store: m.store}, true
		}
	}
	return Resolution{}, false
}

// Open resolves name and returns the bound store's result verbatim.
func (t *Table) Open(name string) (File, error) {
	r, ok := t.Resolve(name)
	if !ok {
		t.log.WithField("path", name).Debug("no mount")
		return nil, notFound("mount", name)
	}
	t.log.WithFields(logrus.Fields{
		"path":  name,
		"mount": r.Mount,
		"rest":  r.Rest,
	}).Debug("resolved")
	return r.Store.Open(r.Rest)
}

// splitPath is a path broken into components. Empty and "." components are
// dropped, so "/a//b/./c" and "/a/b/c" compare equal.
type splitPath struct {
	rooted bool
	parts  []string
}

func parsePath(p string) splitPath {
	sp := splitPath{rooted: strings.HasPrefix(p, "/")}
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." {
			continue
		}
		sp.parts = append(sp.parts, part)
	}
	return sp
}

// strip removes prefix from p component-wise. "/files" strips from
// "/files/a.txt" but not from "/filesystem".
func (p splitPath) strip(prefix splitPath) (string, bool) {
	if p.rooted != prefix.rooted || len(prefix.parts) > len(p.parts) {
		return "", false
	}
	for i, part := range prefix.parts {
		if p.parts[i] != part {
			return "", false
		}
	}
	return strings.Join(p.parts[len(prefix.parts):], "/"), true
}
