package mountfs

import (
	"errors"
	"io/fs"
)

type ioFS struct {
	fsys fs.FS
}

// FromFS serves any io/fs filesystem, such as an embed.FS or os.DirFS.
// Names are cleaned before they reach fsys, so they always satisfy
// fs.ValidPath.
func FromFS(fsys fs.FS) Store {
	return ioFS{fsys: fsys}
}

func (s ioFS) Open(name string) (File, error) {
	rel := cleanName(name)
	if rel == "" {
		rel = "."
	}
	f, err := s.fsys.Open(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound("fs", name)
		}
		return nil, backendError("fs", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, backendError("fs", name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, backendError("fs", name, ErrIsDir)
	}
	return f, nil
}
