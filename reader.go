package codexfs

import (
	"fmt"
	"io/fs"
	"os"
)

// Open loads the superblock at imgPath and returns a mount-ready Session:
// read the superblock, then load and cache the root inode. Every other
// inode is materialized lazily and cached by nid, generalized from the common
// ino-cache pattern to nid since codexfs addresses inodes by slot index
// rather than an export table entry.
func Open(imgPath string) (*Session, error) {
	f, err := os.Open(imgPath)
	if err != nil {
		return nil, err
	}
	img := NewImage(f)

	head := make([]byte, SuperblockSize)
	if err := img.ReadExactAt(head, SuperblockOff); err != nil {
		f.Close()
		return nil, err
	}
	var sb OnDiskSuperblock
	if err := unmarshalStruct(&sb, head); err != nil {
		f.Close()
		return nil, err
	}
	if sb.Magic != Magic {
		f.Close()
		return nil, ErrInvalidMagic
	}
	if sb.Flags.Has(FlagCompressedImg) && sb.Codec != CodecMicroLZMA {
		f.Close()
		return nil, fmt.Errorf("%w: image uses unsupported codec %s", ErrCodec, sb.Codec)
	}

	sess := &Session{
		img:           img,
		blockSize:     uint32(1) << sb.BlkszBits,
		blkszBits:     sb.BlkszBits,
		inodeSlotSize: uint32(1) << sb.IslotBits,
		islotBits:     sb.IslotBits,
		compressed:    sb.Flags.Has(FlagCompressedImg),
		codec:         sb.Codec,
		rootNid:       sb.RootNid,
		inodeCount:    sb.Inos,
		blocks:        sb.Blocks,
		endDataBlkID:  sb.EndDataBlkID,
		endDataBlkSz:  sb.EndDataBlkSz,
		byNid:         make(map[uint64]*Inode),
		closer:        f,
	}

	root, err := sess.GetInode(sb.RootNid)
	if err != nil {
		f.Close()
		return nil, err
	}
	sess.root = root
	return sess, nil
}

// Root returns the image's root directory inode.
func (sess *Session) Root() *Inode {
	return sess.root
}

// FuseIno maps a nid to a FUSE kernel inode number: kernel ino 1
// (FUSE_ROOT_ID) aliases the root's nid; every other kernel ino is nid+1.
func (sess *Session) FuseIno(nid uint64) uint64 {
	if nid == sess.rootNid {
		return 1
	}
	return nid + 1
}

// NidFromFuseIno is the inverse of FuseIno.
func (sess *Session) NidFromFuseIno(ino uint64) uint64 {
	if ino == 1 {
		return sess.rootNid
	}
	return ino - 1
}

// GetInode returns the inode at nid, reading and parsing it from the image
// on first access and caching the result thereafter.
func (sess *Session) GetInode(nid uint64) (*Inode, error) {
	if cached, ok := sess.byNid[nid]; ok {
		return cached, nil
	}

	headerOff := nidToInodeOff(nid, sess.islotBits)
	headerBuf := make([]byte, InodeSize)
	if err := sess.img.ReadExactAt(headerBuf, int64(headerOff)); err != nil {
		return nil, err
	}
	var header OnDiskInode
	if err := unmarshalStruct(&header, headerBuf); err != nil {
		return nil, err
	}

	fullMode := UnixToMode(uint32(header.Mode))
	ft := FileTypeFromMode(fullMode)

	inode := &Inode{
		sess:     sess,
		FileType: ft,
		Mode:     fullMode.Perm(),
		Ino:      header.Ino,
		Uid:      header.Uid,
		Gid:      header.Gid,
		Nlink:    header.Nlink,
		Size:     uint64(header.Size),
		BlkID:    header.BlkID,
		Nid:      nid,
	}

	// Cache before reading the tail: a directory's tail may reference this
	// nid (its own "." entry and, for the root, its ".." entry too).
	sess.byNid[nid] = inode

	metaOff := int64(nidToInodeMetaOff(nid, sess.islotBits))

	switch ft {
	case DirType:
		tailBuf := make([]byte, header.Size)
		if len(tailBuf) > 0 {
			if err := sess.img.ReadExactAt(tailBuf, metaOff); err != nil {
				return nil, err
			}
		}
		entries, err := parseDirTail(tailBuf)
		if err != nil {
			return nil, err
		}
		if len(entries) < 2 {
			return nil, fmt.Errorf("%w: directory missing . and .. entries", ErrFormat)
		}
		inode.ParentNid = entries[1].nid
		inode.Dir = &dirInode{entries: entries[2:]}
	case SymlinkType:
		tailBuf := make([]byte, header.Size)
		if len(tailBuf) > 0 {
			if err := sess.img.ReadExactAt(tailBuf, metaOff); err != nil {
				return nil, err
			}
		}
		inode.Symlink = &symlinkInode{target: string(tailBuf)}
	case RegularType:
		if sess.compressed {
			count := int(header.U)
			extents := make([]OnDiskExtent, count)
			if count > 0 {
				raw := make([]byte, count*ExtentSize)
				if err := sess.img.ReadExactAt(raw, metaOff); err != nil {
					return nil, err
				}
				for idx := 0; idx < count; idx++ {
					off := idx * ExtentSize
					if err := unmarshalStruct(&extents[idx], raw[off:off+ExtentSize]); err != nil {
						return nil, err
					}
				}
			}
			inode.File = &fileInode{extents: extents}
		} else {
			inode.File = &fileInode{blkOff: uint32(header.U)}
		}
	case UnknownType:
		return nil, fmt.Errorf("%w: unknown file type at nid %d", ErrFormat, nid)
	default:
		// Char/block devices, fifos, sockets: accepted as directory
		// children but carry no additional tail to parse.
	}

	return inode, nil
}

// ReadDir returns the directory entries of dir, including the synthesized
// "." and ".." unless skipDot is true.
func (sess *Session) ReadDir(dir *Inode, skipDot bool) ([]fs.DirEntry, error) {
	if dir.Dir == nil {
		return nil, ErrNotDirectory
	}
	var out []fs.DirEntry
	if !skipDot {
		out = append(out,
			dirEntry{sess: sess, e: dirent{name: ".", nid: dir.Nid, fileType: DirType}},
			dirEntry{sess: sess, e: dirent{name: "..", nid: dir.ParentNid, fileType: DirType}},
		)
	}
	for _, e := range dir.Dir.entries {
		out = append(out, dirEntry{sess: sess, e: e})
	}
	return out, nil
}
