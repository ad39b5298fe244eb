package mountfs

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Zip serves the members of a zip archive. Members are decompressed on each
// Open straight from the underlying io.ReaderAt, which must stay valid for
// the life of the store. Deflate, store and zstd (method 93) are supported.
type Zip struct {
	files  map[string]*zip.File
	closer io.Closer
}

// NewZip reads the central directory of the size-byte archive in r.
func NewZip(r io.ReaderAt, size int64) (*Zip, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("read zip: %w", err)
	}
	return newZip(zr, nil), nil
}

// OpenZip opens the zip archive at path. Close releases the file.
func OpenZip(path string) (*Zip, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	return newZip(&zr.Reader, zr), nil
}

func newZip(zr *zip.Reader, closer io.Closer) *Zip {
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	z := &Zip{files: make(map[string]*zip.File, len(zr.File)), closer: closer}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		z.files[cleanName(f.Name)] = f
	}
	return z
}

// Len returns the number of files in the archive.
func (z *Zip) Len() int { return len(z.files) }

// Close releases the archive file when the store was created by OpenZip.
func (z *Zip) Close() error {
	if z.closer == nil {
		return nil
	}
	return z.closer.Close()
}

func (z *Zip) Open(name string) (File, error) {
	f, ok := z.files[cleanName(name)]
	if !ok {
		return nil, notFound("zip", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, backendError("zip", name, err)
	}
	return rc, nil
}
