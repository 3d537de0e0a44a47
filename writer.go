package codexfs

import (
	"bytes"
	"fmt"
	"os"
)

// Option configures a Session at build time using the functional options
// pattern (WithBlockSize, WithCompression, WithModTime).
type Option func(*Session) error

// WithBlockSize overrides the default 4096-byte block size. Must be a
// power of two.
func WithBlockSize(n uint32) Option {
	return func(s *Session) error {
		if n == 0 || n&(n-1) != 0 {
			return fmt.Errorf("%w: block size %d is not a power of two", ErrFormat, n)
		}
		s.blockSize = n
		s.blkszBits = blkszBitsFor(n)
		return nil
	}
}

// WithCompression toggles MicroLZMA compression of file data; mkfs's -u
// flag selects the inverse, uncompressed mode.
func WithCompression(enabled bool) Option {
	return func(s *Session) error {
		s.compressed = enabled
		return nil
	}
}

// WithModTime sets the image-wide modification timestamp recorded for
// informational purposes only; nothing in codexfs reads it back.
func WithModTime(t int32) Option {
	return func(s *Session) error {
		s.modTime = t
		return nil
	}
}

func newBuildSession(img *Image, opts ...Option) (*Session, error) {
	s := &Session{
		img:           img,
		blockSize:     DefaultBlockSize,
		inodeSlotSize: InodeSize,
		compressed:    true,
		bySrcIno:      make(map[uint64]*Inode),
	}
	s.blkszBits = blkszBitsFor(s.blockSize)
	s.islotBits = islotBitsFor(s.inodeSlotSize)

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.alloc = NewAllocator(s.blockSize, s.inodeSlotSize)
	return s, nil
}

// Build packs srcPath into a new image at imgPath: configure, walk the
// source tree, reserve the superblock, emit file data (compressed or not),
// allocate and write inode slots, write the superblock, and pad to a block
// boundary. Generalized from an incremental Add()-then-Finalize() writer
// API into a single-call build, since the source tree must be fully known
// before reordering can run.
func Build(imgPath, srcPath string, opts ...Option) error {
	f, err := os.Create(imgPath)
	if err != nil {
		return err
	}
	defer f.Close()

	sess, err := newBuildSession(NewImage(f), opts...)
	if err != nil {
		return err
	}

	root, err := BuildFromPath(sess, srcPath)
	if err != nil {
		return err
	}

	// Step: reserve the superblock region. This is always the first
	// allocation, so it lands at offset 0.
	sbAddr := sess.alloc.Balloc(SuperblockSize, KindMeta)
	if sbAddr != SuperblockOff {
		return fmt.Errorf("%w: superblock did not land at offset 0", ErrAllocInvariant)
	}

	fileInodes := collectRegularFiles(sess.allInodes)

	if sess.compressed {
		reordered := reorderFiles(fileInodes)
		if err := compressFiles(sess, reordered); err != nil {
			return err
		}
	} else {
		if err := writeUncompressedFiles(sess, fileInodes); err != nil {
			return err
		}
	}

	if err := allocateInodeSlots(sess); err != nil {
		return err
	}
	if err := writeInodes(sess); err != nil {
		return err
	}

	sess.rootNid = root.Nid
	sess.inodeCount = uint32(len(sess.allInodes))
	sess.blocks = sess.alloc.TailBlockID() + 1

	if err := writeSuperblock(sess); err != nil {
		return err
	}

	// Pad the image out to a whole block boundary.
	finalSize := int64(blkIDToAddr(sess.alloc.TailBlockID()+1, sess.blkszBits))
	return f.Truncate(finalSize)
}

// collectRegularFiles extracts the regular-file inodes from the full
// discovery-order inode list, preserving that order — this is the order
// the compression pipeline treats as "discovery order" before reordering,
// and the order used directly in uncompressed mode.
func collectRegularFiles(all []*Inode) []*Inode {
	var files []*Inode
	for _, i := range all {
		if i.IsRegular() {
			files = append(files, i)
		}
	}
	return files
}

// allocateInodeSlots hands every discovered inode a nid.
// This must run after file data has been emitted, because a regular file's
// tail size (its extent count) is only known once compression has run.
func allocateInodeSlots(sess *Session) error {
	for _, i := range sess.allInodes {
		tailSize := tailSizeFor(i, sess.compressed)
		if i.IsDir() {
			// The on-disk Size field doubles as the directory tail's byte
			// length, mirroring how it doubles as the symlink target length
			// below — both reuse the single "size" field rather than adding
			// a type-specific one.
			i.Size = uint64(tailSize)
		}
		total := uint64(InodeSize + tailSize)
		addr := sess.alloc.Balloc(total, KindInode)
		i.Nid = addrToNid(addr, sess.islotBits)
	}
	return nil
}

// tailSizeFor returns the byte length of an inode's variable-length tail:
// the directory dirent+name region, the raw symlink target, or — for
// regular files in compressed mode only — the extent list.
func tailSizeFor(i *Inode, compressed bool) int {
	switch {
	case i.IsDir():
		return dirTailSize(i)
	case i.IsSymlink():
		return len(i.Symlink.target)
	case i.IsRegular():
		if compressed {
			return len(i.File.extents) * ExtentSize
		}
		return 0
	default:
		return 0
	}
}

// writeInodes serializes every inode's header and tail to its allocated
// slot. It runs after allocateInodeSlots so that every
// nid — including children referenced by directory tails — is final.
func writeInodes(sess *Session) error {
	for _, i := range sess.allInodes {
		data, err := serializeInode(sess, i)
		if err != nil {
			return err
		}
		addr := nidToInodeOff(i.Nid, sess.islotBits)
		if err := sess.img.WriteAllAt(data, int64(addr)); err != nil {
			return err
		}
	}
	return nil
}

func serializeInode(sess *Session, i *Inode) ([]byte, error) {
	var union uint16
	if i.IsRegular() {
		if sess.compressed {
			union = uint16(len(i.File.extents))
		} else {
			union = uint16(i.File.blkOff)
		}
	}

	header := OnDiskInode{
		Mode:  uint16(ModeToUnix(i.FullMode())),
		Nlink: i.Nlink,
		Size:  uint32(i.Size),
		Ino:   i.Ino,
		Uid:   i.Uid,
		Gid:   i.Gid,
		BlkID: i.BlkID,
		U:     union,
	}

	buf := new(bytes.Buffer)
	buf.Write(marshalStruct(&header))

	switch {
	case i.IsDir():
		parentNid := i.Nid
		if p := i.parent; p != nil {
			parentNid = p.Nid
		}
		buf.Write(buildDirTail(i, parentNid))
	case i.IsSymlink():
		buf.WriteString(i.Symlink.target)
	case i.IsRegular() && sess.compressed:
		for _, e := range i.File.extents {
			ext := e
			buf.Write(marshalStruct(&ext))
		}
	}

	return buf.Bytes(), nil
}

func writeSuperblock(sess *Session) error {
	var flags ImageFlags
	if sess.compressed {
		flags |= FlagCompressedImg
	}
	sb := OnDiskSuperblock{
		Magic:        Magic,
		BlkszBits:    sess.blkszBits,
		RootNid:      sess.rootNid,
		Inos:         sess.inodeCount,
		IslotBits:    sess.islotBits,
		Blocks:       sess.blocks,
		EndDataBlkID: sess.endDataBlkID,
		EndDataBlkSz: sess.endDataBlkSz,
		Flags:        flags,
		Codec:        CodecMicroLZMA,
	}
	return sess.img.WriteAllAt(marshalStruct(&sb), SuperblockOff)
}
