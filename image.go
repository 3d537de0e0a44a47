package codexfs

import (
	"fmt"
	"io"
)

// Image is a thin wrapper over a random-access backing file offering exactly
// ReadExactAt and WriteAllAt. All I/O in this package goes
// through it; there is no buffering beyond what the OS page cache provides.
// Uses io.ReaderAt/io.WriterAt directly rather than introducing a custom
// I/O abstraction.
type Image struct {
	r io.ReaderAt
	w io.WriterAt
}

// NewImage wraps a backing store. rw may implement both io.ReaderAt and
// io.WriterAt (as *os.File does); a read-only mount only needs io.ReaderAt.
func NewImage(rw interface{ io.ReaderAt }) *Image {
	img := &Image{r: rw}
	if w, ok := rw.(io.WriterAt); ok {
		img.w = w
	}
	return img
}

// ReadExactAt reads len(buf) bytes at off, returning ErrIO on a short read.
func (img *Image) ReadExactAt(buf []byte, off int64) error {
	n, err := img.r.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w: read at %d: %v", ErrIO, off, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: short read at %d: got %d want %d", ErrIO, off, n, len(buf))
	}
	return nil
}

// WriteAllAt writes all of buf at off, returning ErrIO on a short write.
func (img *Image) WriteAllAt(buf []byte, off int64) error {
	if img.w == nil {
		return fmt.Errorf("%w: image opened read-only", ErrIO)
	}
	n, err := img.w.WriteAt(buf, off)
	if err != nil {
		return fmt.Errorf("%w: write at %d: %v", ErrIO, off, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: short write at %d: got %d want %d", ErrIO, off, n, len(buf))
	}
	return nil
}
