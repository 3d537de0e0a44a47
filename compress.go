package codexfs

import (
	"bytes"
	"fmt"
	"sort"
)

// compressFiles runs the MicroLZMA streaming compression pipeline over the
// already-reordered file list: it concatenates their contents
// into one global stream, repeatedly compresses as much of the remaining
// stream as fits in one freshly allocated block, writes that block
// right-aligned, and assigns extents to every file whose bytes land in the
// fragment just produced.
func compressFiles(sess *Session, files []*Inode) error {
	if len(files) == 0 {
		return nil
	}

	var stream bytes.Buffer
	for _, f := range files {
		stream.Write(f.File.content)
	}
	s := stream.Bytes()

	var g uint64
	fileIdx := 0
	fStart := uint64(0)

	for g < uint64(len(s)) {
		addr := sess.alloc.Balloc(uint64(sess.blockSize), KindZData)
		blockID := uint32(addr / uint64(sess.blockSize))

		compressed, totalIn, err := encodeMicroLZMABlock(s[g:], int(sess.blockSize))
		if err != nil {
			return err
		}

		block := make([]byte, sess.blockSize)
		copy(block[int(sess.blockSize)-len(compressed):], compressed)
		if err := sess.img.WriteAllAt(block, int64(addr)); err != nil {
			return err
		}

		sess.endDataBlkID = blockID
		sess.endDataBlkSz = uint32(len(compressed))

		fragOff := uint64(0)
		for fragOff < uint64(totalIn) {
			file := files[fileIdx]
			if len(file.File.extents) == 0 {
				file.BlkID = blockID
			}
			remaining := fStart + file.Size - g
			want := uint64(totalIn) - fragOff
			n := want
			if remaining < n {
				n = remaining
			}

			file.File.extents = append(file.File.extents, OnDiskExtent{
				Off:     uint32(g - fStart),
				FragOff: uint32(fragOff),
			})

			g += n
			fragOff += n

			if g-fStart == file.Size {
				fileIdx++
				fStart = g
			}
		}
	}

	return nil
}

// writeUncompressedFiles is the uncompressed-mode variant of the build
// pipeline: each file's bytes are written
// directly via a byte-granular KindData allocation, recording the
// intra-block offset in the inode's blk_off union branch.
func writeUncompressedFiles(sess *Session, files []*Inode) error {
	for _, f := range files {
		if f.Size == 0 {
			continue
		}
		addr := sess.alloc.Balloc(f.Size, KindData)
		if err := sess.img.WriteAllAt(f.File.content, int64(addr)); err != nil {
			return err
		}
		f.BlkID = addrToBlkID(addr, sess.blkszBits)
		f.File.blkOff = addrToBlkOff(addr, sess.blockSize)
	}
	return nil
}

// ReadFile recovers bytes [off, off+length) of file's logical content
//. In compressed mode it locates the covering extents via
// binary search, decodes only the fragments that overlap the requested
// range, and splices the result; in uncompressed mode it is a direct
// ReadExactAt at the recorded block offset.
func (sess *Session) ReadFile(file *Inode, off, length uint64) ([]byte, error) {
	if off > file.Size {
		return nil, nil
	}
	if off+length > file.Size {
		length = file.Size - off
	}
	if length == 0 {
		return []byte{}, nil
	}

	if !sess.compressed {
		buf := make([]byte, length)
		addr := blkIDToAddr(file.BlkID, sess.blkszBits) + uint64(file.File.blkOff) + off
		if err := sess.img.ReadExactAt(buf, int64(addr)); err != nil {
			return nil, err
		}
		return buf, nil
	}

	extents := file.File.extents
	if len(extents) == 0 {
		return nil, fmt.Errorf("%w: regular file with no extents", ErrFormat)
	}

	startIdx := sort.Search(len(extents), func(i int) bool {
		return uint64(extents[i].Off) > off
	}) - 1
	if startIdx < 0 {
		startIdx = 0
	}

	out := make([]byte, 0, length)
	lenLeft := length
	curOff := off

	for idx := startIdx; idx < len(extents) && lenLeft > 0; idx++ {
		ext := extents[idx]
		blockID := file.BlkID + uint32(idx)

		frag, err := sess.readFragment(blockID)
		if err != nil {
			return nil, err
		}

		var needed uint64
		if idx+1 < len(extents) {
			needed = uint64(extents[idx+1].Off) - uint64(ext.Off)
		} else {
			needed = file.Size - uint64(ext.Off)
		}

		if curOff >= uint64(ext.Off) {
			skip := curOff - uint64(ext.Off)
			avail := needed - skip
			take := lenLeft
			if avail < take {
				take = avail
			}
			start := uint64(ext.FragOff) + skip
			if start+take > uint64(len(frag)) {
				return nil, fmt.Errorf("%w: extent exceeds decoded fragment", ErrFormat)
			}
			out = append(out, frag[start:start+take]...)
			curOff += take
			lenLeft -= take
		} else {
			// Invariant B: off < ext.off implies frag_off == 0 for this
			// extent — the file begins mid-fragment but at the fragment's
			// own start.
			gap := uint64(ext.Off) - curOff
			if gap >= lenLeft {
				break
			}
			take := needed
			if lenLeft-gap < take {
				take = lenLeft - gap
			}
			if take > uint64(len(frag)) {
				take = uint64(len(frag))
			}
			out = append(out, frag[:take]...)
			curOff += gap + take
			lenLeft -= gap + take
		}
	}

	return out, nil
}

// readFragment reads and decodes the compressed data block blockID,
// scanning for the leading zero margin that right-alignment leaves. The
// final block's compressed length is taken from the
// superblock's end_data_blk_sz rather than scanned for, since a legitimate
// compressed payload may itself start with a zero byte.
func (sess *Session) readFragment(blockID uint32) ([]byte, error) {
	block := make([]byte, sess.blockSize)
	if err := sess.img.ReadExactAt(block, int64(blockID)*int64(sess.blockSize)); err != nil {
		return nil, err
	}

	var compLen int
	if blockID == sess.endDataBlkID {
		compLen = int(sess.endDataBlkSz)
	} else {
		margin := 0
		for margin < len(block) && block[margin] == 0 {
			margin++
		}
		compLen = len(block) - margin
	}
	if compLen <= 0 || compLen > len(block) {
		return nil, fmt.Errorf("%w: implausible compressed fragment length %d", ErrFormat, compLen)
	}

	return decodeMicroLZMAFragment(block[len(block)-compLen:])
}
