package codexfs

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrIO is returned when the backing image file has a short or failed read/write.
	ErrIO = errors.New("codexfs: i/o error")

	// ErrInvalidMagic is returned when the superblock magic does not match the
	// expected CodexFS magic number.
	ErrInvalidMagic = errors.New("codexfs: invalid superblock magic")

	// ErrFormat is returned when on-disk data violates the format (bad nameoff,
	// extent invariant violation, unknown file type, etc).
	ErrFormat = errors.New("codexfs: malformed image")

	// ErrCodec is returned when the MicroLZMA encoder or decoder reports a failure.
	ErrCodec = errors.New("codexfs: codec error")

	// ErrUnsupportedFileType is returned when the build walks a source tree entry
	// that is not a regular file, directory, or symlink.
	ErrUnsupportedFileType = errors.New("codexfs: unsupported file type")

	// ErrAllocInvariant indicates an internal allocator bookkeeping bug. It should
	// never be observed outside of this package's own tests.
	ErrAllocInvariant = errors.New("codexfs: allocator invariant violated")

	// ErrNotDirectory is returned when a directory operation is attempted on a
	// non-directory inode.
	ErrNotDirectory = errors.New("codexfs: not a directory")

	// ErrNotSymlink is returned when Readlink is called on a non-symlink inode.
	ErrNotSymlink = errors.New("codexfs: not a symlink")

	// ErrNotFound is returned when a path component cannot be resolved.
	ErrNotFound = errors.New("codexfs: no such file or directory")
)
