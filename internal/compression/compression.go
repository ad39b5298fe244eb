// Package compression detects and undoes the stream compressions archives
// commonly ship with.
package compression

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Format identifies a stream compression.
type Format uint8

const (
	None Format = iota
	Gzip
	Bzip2
	XZ
	Zstd
	LZ4
	Zlib
)

func (f Format) String() string {
	switch f {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case XZ:
		return "xz"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	case Zlib:
		return "zlib"
	default:
		return fmt.Sprintf("unknown(%d)", f)
	}
}

// headerLen is the number of leading bytes Detect looks at: one tar block.
const headerLen = 512

var (
	magicGzip  = []byte{0x1F, 0x8B}
	magicBzip2 = []byte("BZh")
	magicXZ    = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
	magicZstd  = []byte{0x28, 0xB5, 0x2F, 0xFD}
	magicLZ4   = []byte{0x04, 0x22, 0x4D, 0x18}
)

// Detect returns the format announced by the first bytes of a stream. A
// header that is a valid tar block is uncompressed, whatever it starts with.
func Detect(header []byte) Format {
	switch {
	case isTarHeader(header):
		return None
	case bytes.HasPrefix(header, magicGzip):
		return Gzip
	case bytes.HasPrefix(header, magicXZ):
		return XZ
	case bytes.HasPrefix(header, magicZstd):
		return Zstd
	case bytes.HasPrefix(header, magicLZ4):
		return LZ4
	case len(header) >= 4 && bytes.HasPrefix(header, magicBzip2) && header[3] >= '1' && header[3] <= '9':
		return Bzip2
	case isZlib(header):
		return Zlib
	default:
		return None
	}
}

// isZlib checks the RFC 1950 header: deflate with a 32K window, no preset
// dictionary and a checksum that makes CMF*256+FLG a multiple of 31.
func isZlib(header []byte) bool {
	if len(header) < 2 || header[0] != 0x78 || header[1]&0x20 != 0 {
		return false
	}
	return (uint16(header[0])<<8|uint16(header[1]))%31 == 0
}

// isTarHeader reports whether block is a tar header with a valid checksum.
// The checksum field counts as spaces when summing.
func isTarHeader(block []byte) bool {
	if len(block) < headerLen {
		return false
	}
	field := strings.Trim(string(block[148:156]), " \x00")
	want, err := strconv.ParseUint(field, 8, 32)
	if err != nil {
		return false
	}
	var sum uint64
	for i, b := range block[:headerLen] {
		if i >= 148 && i < 156 {
			b = ' '
		}
		sum += uint64(b)
	}
	return sum == want
}

// NewReader returns a reader that decompresses r according to its leading
// bytes, together with the detected format. Uncompressed input is passed
// through. Closing the result does not close r.
func NewReader(r io.Reader) (io.ReadCloser, Format, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(headerLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, None, fmt.Errorf("read header: %w", err)
	}

	format := Detect(header)
	var rc io.ReadCloser
	switch format {
	case Gzip:
		rc, err = gzip.NewReader(br)
	case Bzip2:
		rc = io.NopCloser(bzip2.NewReader(br))
	case XZ:
		var xr *xz.Reader
		if xr, err = xz.NewReader(br); err == nil {
			rc = io.NopCloser(xr)
		}
	case Zstd:
		var zr *zstd.Decoder
		if zr, err = zstd.NewReader(br, zstd.WithDecoderConcurrency(1)); err == nil {
			rc = zr.IOReadCloser()
		}
	case LZ4:
		rc = io.NopCloser(lz4.NewReader(br))
	case Zlib:
		rc, err = zlib.NewReader(br)
	default:
		rc = io.NopCloser(br)
	}
	if err != nil {
		return nil, format, fmt.Errorf("open %s stream: %w", format, err)
	}
	return rc, format, nil
}
