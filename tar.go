package mountfs

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aweris/mountfs/internal/compression"
)

// Tar serves the regular files of a tarball from memory. The whole archive
// is read when the store is created; Open never touches the source again.
type Tar struct {
	files map[string][]byte
}

// NewTar reads a tarball from r. Gzip, bzip2, xz, zstd, lz4 and zlib
// compressed input is recognised by its magic bytes and unpacked on the fly.
//
// Member names are cleaned, so "./etc/hosts" and "/etc/hosts" are both
// served as "etc/hosts". When a name occurs more than once the last member
// wins, matching what extracting the archive would leave behind. A hard
// link serves its target's content as of the point the link was written.
func NewTar(r io.Reader) (*Tar, error) {
	rc, _, err := compression.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("tar: %w", err)
	}
	defer rc.Close()

	t := &Tar{files: make(map[string][]byte)}

	tr := tar.NewReader(rc)
	for {
		head, err := tr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read tar: %w", err)
		}

		name := cleanName(head.Name)
		switch head.Typeflag {
		case tar.TypeReg:
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("read tar member %s: %w", head.Name, err)
			}
			t.files[name] = data
		case tar.TypeLink:
			// the target precedes the link; later members never change it
			if data, ok := t.files[cleanName(head.Linkname)]; ok {
				t.files[name] = data
			} else {
				delete(t.files, name)
			}
		default:
			// directories, symlinks and device nodes are not files
			delete(t.files, name)
		}
	}
	return t, nil
}

// OpenTar reads the tarball at path.
func OpenTar(path string) (*Tar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tarball: %w", err)
	}
	defer f.Close()
	return NewTar(f)
}

// Len returns the number of files in the archive.
func (t *Tar) Len() int { return len(t.files) }

func (t *Tar) Open(name string) (File, error) {
	data, ok := t.files[cleanName(name)]
	if !ok {
		return nil, notFound("tar", name)
	}
	return newMemFile(data), nil
}
