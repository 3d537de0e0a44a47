//go:build fuse

package codexfs

import (
	"io"
	"log"
	"sync"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// FS is the raw FUSE adapter for a mounted image. It implements the
// read-only opcode set directly and leaves every mutating opcode to
// fuse.NewDefaultRawFileSystem()'s ENOSYS default (Symlink and Link are
// overridden to return EPERM instead, since hard links and symlinks exist
// on a CodexFS image but can never be created on one). Built on the raw
// fuse.RawFileSystem interface — low-level *In/*Out structs — rather than
// the higher-level nodefs/pathfs tree API.
type FS struct {
	fuse.RawFileSystem

	sess *Session

	mu     sync.Mutex
	handle uint64 // monotonic file/dir handle counter
}

// NewFS wraps sess as a fuse.RawFileSystem.
func NewFS(sess *Session) *FS {
	return &FS{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		sess:          sess,
	}
}

func (fs *FS) String() string { return "codexfs" }

func (fs *FS) Init(server *fuse.Server) {
	log.Printf("codexfs: mounted, root nid %d", fs.sess.rootNid)
}

func (fs *FS) nextHandle() uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.handle++
	return fs.handle
}

func toStatus(err error) fuse.Status {
	if err == nil {
		return fuse.OK
	}
	switch err {
	case ErrNotFound:
		return fuse.ENOENT
	case ErrNotDirectory:
		return fuse.Status(syscall.ENOTDIR)
	case ErrNotSymlink:
		return fuse.Status(syscall.EINVAL)
	default:
		return fuse.EIO
	}
}

func (fs *FS) inode(nid uint64) (*Inode, fuse.Status) {
	i, err := fs.sess.GetInode(nid)
	if err != nil {
		return nil, toStatus(err)
	}
	return i, fuse.OK
}

func (fs *FS) fillAttr(i *Inode, out *fuse.Attr) {
	out.Size = i.Size
	out.Mode = ModeToUnix(i.FullMode())
	out.Nlink = uint32(i.Nlink)
	out.Uid = uint32(i.Uid)
	out.Gid = uint32(i.Gid)
	out.Blksize = fs.sess.blockSize
	if fs.sess.blockSize > 0 {
		out.Blocks = (i.Size + uint64(fs.sess.blockSize) - 1) / uint64(fs.sess.blockSize)
	}
}

func (fs *FS) fillEntry(i *Inode, entry *fuse.EntryOut) {
	entry.NodeId = fs.sess.FuseIno(i.Nid)
	entry.Attr.Ino = entry.NodeId
	fs.fillAttr(i, &entry.Attr)
	entry.SetEntryTimeout(time.Second)
	entry.SetAttrTimeout(time.Second)
}

// Lookup implements the "lookup" opcode.
func (fs *FS) Lookup(cancel <-chan struct{}, header *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	parent, st := fs.inode(fs.sess.NidFromFuseIno(header.NodeId))
	if st != fuse.OK {
		return st
	}
	child, err := parent.Lookup(name)
	if err != nil {
		return toStatus(err)
	}
	fs.fillEntry(child, out)
	return fuse.OK
}

// GetAttr implements the "getattr" opcode.
func (fs *FS) GetAttr(cancel <-chan struct{}, input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	i, st := fs.inode(fs.sess.NidFromFuseIno(input.NodeId))
	if st != fuse.OK {
		return st
	}
	out.Ino = fs.sess.FuseIno(i.Nid)
	fs.fillAttr(i, &out.Attr)
	out.SetTimeout(time.Second)
	return fuse.OK
}

// Readlink implements the "readlink" opcode.
func (fs *FS) Readlink(cancel <-chan struct{}, header *fuse.InHeader) ([]byte, fuse.Status) {
	i, st := fs.inode(fs.sess.NidFromFuseIno(header.NodeId))
	if st != fuse.OK {
		return nil, st
	}
	target, err := i.Readlink()
	if err != nil {
		return nil, toStatus(err)
	}
	return []byte(target), fuse.OK
}

// Open implements the "open" opcode; codexfs is read-only, so any open on
// a regular file succeeds and requests the kernel keep the page cache
// around rather than codexfs adding its own buffering layer.
func (fs *FS) Open(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	i, st := fs.inode(fs.sess.NidFromFuseIno(input.NodeId))
	if st != fuse.OK {
		return st
	}
	if !i.IsRegular() {
		return fuse.Status(syscall.EISDIR)
	}
	out.OpenFlags = fuse.FOPEN_KEEP_CACHE
	out.Fh = fs.nextHandle()
	return fuse.OK
}

// OpenDir implements the "opendir" opcode.
func (fs *FS) OpenDir(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	i, st := fs.inode(fs.sess.NidFromFuseIno(input.NodeId))
	if st != fuse.OK {
		return st
	}
	if !i.IsDir() {
		return fuse.Status(syscall.ENOTDIR)
	}
	out.OpenFlags = fuse.FOPEN_KEEP_CACHE
	out.Fh = fs.nextHandle()
	return fuse.OK
}

// Read implements the "read" opcode by delegating to the decompression
// read path.
func (fs *FS) Read(cancel <-chan struct{}, input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	i, st := fs.inode(fs.sess.NidFromFuseIno(input.NodeId))
	if st != fuse.OK {
		return nil, st
	}
	data, err := fs.sess.ReadFile(i, input.Offset, uint64(len(buf)))
	if err != nil {
		return nil, toStatus(err)
	}
	n := copy(buf, data)
	return fuse.ReadResultData(buf[:n]), fuse.OK
}

// ReadDir implements the "readdir" opcode, synthesizing "." and ".." as
// the first two entries (mirroring inode_fuse.go's ReadDir).
func (fs *FS) ReadDir(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	i, st := fs.inode(fs.sess.NidFromFuseIno(input.NodeId))
	if st != fuse.OK {
		return st
	}
	entries, err := fs.sess.ReadDir(i, false)
	if err != nil {
		return toStatus(err)
	}
	pos := input.Offset
	for idx := pos; idx < uint64(len(entries)); idx++ {
		e := entries[idx]
		info, ierr := e.Info()
		if ierr != nil {
			return toStatus(ierr)
		}
		ino := info.Sys().(*Inode)
		if !out.AddDirEntry(fuse.DirEntry{
			Name: e.Name(),
			Mode: ModeToUnix(ino.FullMode()),
			Ino:  fs.sess.FuseIno(ino.Nid),
		}) {
			break
		}
	}
	return fuse.OK
}

// Release and ReleaseDir implement the "release"/"releasedir" opcodes: this
// adapter holds no per-handle state beyond the counter in Open/OpenDir, so
// there is nothing to free.
func (fs *FS) Release(cancel <-chan struct{}, input *fuse.ReleaseIn) {}
func (fs *FS) ReleaseDir(input *fuse.ReleaseIn)                     {}

// StatFs implements the "statfs" opcode as a minimal stub.
func (fs *FS) StatFs(cancel <-chan struct{}, header *fuse.InHeader, out *fuse.StatfsOut) fuse.Status {
	*out = fuse.StatfsOut{
		Bsize:  fs.sess.blockSize,
		Frsize: fs.sess.blockSize,
		Blocks: uint64(fs.sess.blocks),
		Files:  uint64(fs.sess.inodeCount),
	}
	return fuse.OK
}

// Symlink and Link are explicitly EPERM (not ENOSYS): this operation cannot
// exist on a read-only, hard-link-frozen image, as distinct from "not
// implemented at all" (ENOSYS, the embedded default for
// mknod/mkdir/unlink/rmdir/rename/write/setattr/setxattr/create/fallocate/
// ioctl/...).
func (fs *FS) Symlink(cancel <-chan struct{}, header *fuse.InHeader, target, name string, out *fuse.EntryOut) fuse.Status {
	return fuse.EPERM
}

func (fs *FS) Link(cancel <-chan struct{}, input *fuse.LinkIn, name string, out *fuse.EntryOut) fuse.Status {
	return fuse.EPERM
}

var _ io.Closer = (*closerSession)(nil)

type closerSession struct{ *Session }

func (c closerSession) Close() error { return c.Session.Close() }
