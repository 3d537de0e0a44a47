package codexfs

import (
	"io/fs"
	"path"
)

// dirent is one in-memory directory entry: a child name paired with the nid
// of the inode it resolves to. file_type is cached so directory listings
// don't need to load the child inode just to classify it.
type dirent struct {
	name     string
	nid      uint64
	fileType FileType
	child    *Inode // build-time only; nid is resolved from child.Nid at serialization time
}

// dirInode holds the build/mount state specific to a directory.
type dirInode struct {
	entries []dirent
}

// fileInode holds the build/mount state specific to a regular file.
type fileInode struct {
	// Build-time only: contents read eagerly during the tree walk (lazy,
	// on-demand content loading is not implemented), and
	// the TLSH digest used for reordering.
	content []byte
	digest  *tlshDigest

	// Populated once the compression pipeline (or the uncompressed writer)
	// has placed this file's bytes.
	extents []OnDiskExtent // compressed mode; empty otherwise
	blkOff  uint32         // uncompressed mode only
}

// symlinkInode holds the build/mount state specific to a symlink.
type symlinkInode struct {
	target string
}

// Inode is a polymorphic inode: exactly one of Dir, File, Symlink is
// non-nil, discriminated by FileType: the on-disk union is modeled as a
// tagged record rather than exposed as a raw union. Parent is a non-owning
// back-reference stored as a nid (or, at build time before nids are
// assigned, a direct pointer) rather than a language-level weak handle,
// mirroring the Rust implementation's Weak<Inode> parent links.
type Inode struct {
	sess *Session

	Path string // build-time only, for diagnostics and content loading

	FileType FileType
	Mode     fs.FileMode // permission bits only; type bits come from FileType
	Ino      uint32      // source fs ino (hardlink dedup key) or assigned ino
	Uid      uint16
	Gid      uint16
	Nlink    uint16
	Size     uint64

	Nid   uint64 // assigned once slots are allocated (build) or known (mount)
	BlkID uint32 // first data block (regular files only; unset for directories and symlinks)

	ParentNid uint64 // resolved lazily via sess.GetInode
	parent    *Inode // build-time convenience, avoids a nid round-trip

	Dir     *dirInode
	File    *fileInode
	Symlink *symlinkInode
}

// IsDir, IsSymlink, IsRegular mirror FileType's classifications on the
// inode itself for callers that only have an *Inode in hand.
func (i *Inode) IsDir() bool     { return i.FileType.IsDir() }
func (i *Inode) IsSymlink() bool { return i.FileType.IsSymlink() }
func (i *Inode) IsRegular() bool { return i.FileType.IsRegular() }

// FullMode returns the combined fs.FileMode (type bits + permission bits),
// the inverse of ModeToUnix/UnixToMode's composition.
func (i *Inode) FullMode() fs.FileMode {
	return i.FileType.Mode() | i.Mode
}

// Parent returns the parent directory inode, resolving through the
// session's nid table if the build-time pointer isn't set (mount-time
// path). The root is its own parent, by convention.
func (i *Inode) Parent() *Inode {
	if i.parent != nil {
		return i.parent
	}
	if i.sess == nil {
		return nil
	}
	parent, err := i.sess.GetInode(i.ParentNid)
	if err != nil {
		return nil
	}
	return parent
}

// Readlink returns the symlink target, or ErrNotSymlink if i is not a
// symlink.
func (i *Inode) Readlink() (string, error) {
	if i.Symlink == nil {
		return "", ErrNotSymlink
	}
	return i.Symlink.target, nil
}

// Lookup resolves a single path component among a directory's children.
// Synthetic "." and ".." are handled without consulting Dir.entries.
func (i *Inode) Lookup(name string) (*Inode, error) {
	if i.Dir == nil {
		return nil, ErrNotDirectory
	}
	switch name {
	case ".":
		return i, nil
	case "..":
		if p := i.Parent(); p != nil {
			return p, nil
		}
		return i, nil
	}
	for _, e := range i.Dir.entries {
		if e.name == name {
			return i.sess.GetInode(e.nid)
		}
	}
	return nil, ErrNotFound
}

// LookupPath resolves a slash-separated path relative to i, component by
// component.
func (i *Inode) LookupPath(p string) (*Inode, error) {
	cur := i
	for _, part := range splitPath(p) {
		next, err := cur.Lookup(part)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func splitPath(p string) []string {
	p = path.Clean("/" + p)
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			if i > start {
				parts = append(parts, p[start:i])
			}
			start = i + 1
		}
	}
	if start < len(p) {
		parts = append(parts, p[start:])
	}
	return parts
}
