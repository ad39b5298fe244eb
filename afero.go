package mountfs

import (
	"errors"
	"io/fs"

	"github.com/spf13/afero"
)

// Afero serves files from an afero filesystem, e.g. a MemMapFs built by a
// test or a BasePathFs over the OS.
type Afero struct {
	fs afero.Fs
}

// NewAfero wraps fsys.
func NewAfero(fsys afero.Fs) *Afero {
	return &Afero{fs: fsys}
}

func (a *Afero) Open(name string) (File, error) {
	rel := "/" + cleanName(name)
	f, err := a.fs.Open(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound("afero", name)
		}
		return nil, backendError("afero", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, backendError("afero", name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, backendError("afero", name, ErrIsDir)
	}
	return f, nil
}
