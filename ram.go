package mountfs

import "maps"

// Ram is an in-memory store mapping names to byte buffers. It owns its
// buffers: Touch copies the data it is given.
//
// Ram has no locking. Concurrent Opens are safe, but Touch and Clear must
// not run alongside anything else.
type Ram struct {
	files map[string][]byte
}

// NewRam returns an empty Ram.
func NewRam() *Ram {
	return &Ram{files: make(map[string][]byte)}
}

// Touch stores a copy of data under name, replacing any previous content.
func (r *Ram) Touch(name string, data []byte) {
	r.files[cleanName(name)] = append([]byte(nil), data...)
}

// Clear removes every file.
func (r *Ram) Clear() {
	clear(r.files)
}

// Len returns the number of files held.
func (r *Ram) Len() int { return len(r.files) }

// Clone returns an independent copy of r.
func (r *Ram) Clone() *Ram {
	files := make(map[string][]byte, len(r.files))
	for name, data := range maps.All(r.files) {
		files[name] = append([]byte(nil), data...)
	}
	return &Ram{files: files}
}

func (r *Ram) Open(name string) (File, error) {
	data, ok := r.files[cleanName(name)]
	if !ok {
		return nil, notFound("ram", name)
	}
	return newMemFile(data), nil
}
