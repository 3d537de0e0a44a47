package codexfs

import "io"

// Session replaces process-wide globals (the superblock, allocator,
// compression-session state, and inode tables) with a single value passed
// by reference through the API. A Session is used either for building an
// image (newBuildSession) or for mounting one (Open); the two halves share
// the inode/superblock model but not the allocator or file collector.
type Session struct {
	img *Image

	blockSize     uint32
	inodeSlotSize uint32
	islotBits     uint8
	blkszBits     uint8
	compressed    bool
	codec         ImageCodec
	modTime       int32

	rootNid      uint64
	inodeCount   uint32
	blocks       uint32
	endDataBlkID uint32
	endDataBlkSz uint32

	// Build-time only.
	alloc      *Allocator
	bySrcIno   map[uint64]*Inode // hard-link dedup, keyed by source fs ino
	allInodes  []*Inode          // insertion order, for deterministic nid assignment
	root       *Inode
	nextSrcIno uint64 // synthetic ino allocator when source ino is unavailable

	// Mount-time only.
	byNid  map[uint64]*Inode
	closer io.Closer
}

// Close releases the backing file, if the Session owns one (i.e. it was
// created by Open rather than Build, which closes its own file handle
// immediately after finishing the image).
func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func blkszBitsFor(blockSize uint32) uint8 {
	bits := uint8(0)
	for (uint32(1) << bits) < blockSize {
		bits++
	}
	return bits
}

func islotBitsFor(slotSize uint32) uint8 {
	return blkszBitsFor(slotSize)
}
