package codexfs

import (
	"log"
)

// BufferKind selects the alignment used by Allocator.Balloc.
type BufferKind int

const (
	// KindMeta is alignment 1, used for tiny fixed-size structures such as
	// the superblock.
	KindMeta BufferKind = iota
	// KindInode aligns to the inode-slot size.
	KindInode
	// KindZData aligns to the full block size B; used for compressed data
	// blocks, which must start on a block boundary.
	KindZData
	// KindData is alignment 1, used for uncompressed file bytes, which may
	// be packed byte-granular.
	KindData
)

// align returns the alignment in bytes for kind, given the image's block
// size and inode slot size.
func (k BufferKind) align(blockSize, inodeSlotSize uint32) uint32 {
	switch k {
	case KindInode:
		return inodeSlotSize
	case KindZData:
		return blockSize
	default:
		return 1
	}
}

// bufferBlock tracks one block's write cursor: bytes [0, blkOff) are spoken
// for, [blkOff, blockSize) is free room. Grounded on buffer.rs's BufferBlock.
type bufferBlock struct {
	blkID  uint32
	blkOff uint32
}

func (b *bufferBlock) addr(blockSize uint32) uint64 {
	return uint64(b.blkID)*uint64(blockSize) + uint64(b.blkOff)
}

// Allocator hands out byte regions in the emerging image: a
// free_table of partially-filled blocks bucketed by remaining room, plus
// tail-of-image contiguous extension when no bucket has room. Grounded on
// buffer.rs's BufferManager; Go single-ownership (no Rc/RefCell) replaces
// reference-counted interior mutability since the allocator is only ever
// touched by the single build goroutine.
type Allocator struct {
	blockSize     uint32
	inodeSlotSize uint32
	table         [][]*bufferBlock // table[remaining room] -> candidate blocks
	tail          *bufferBlock
}

// NewAllocator creates an allocator for an image with the given block size
// and inode slot size. Block 0 starts out entirely free.
func NewAllocator(blockSize, inodeSlotSize uint32) *Allocator {
	a := &Allocator{
		blockSize:     blockSize,
		inodeSlotSize: inodeSlotSize,
		table:         make([][]*bufferBlock, blockSize+1),
	}
	first := &bufferBlock{blkID: 0, blkOff: 0}
	a.tail = first
	a.pushBlock(first)
	return a
}

// TailBlockID returns the id of the image's current last block.
func (a *Allocator) TailBlockID() uint32 {
	return a.tail.blkID
}

// Balloc allocates size bytes aligned per kind and returns the byte address
// of the start of the region.
func (a *Allocator) Balloc(size uint64, kind BufferKind) uint64 {
	align := kind.align(a.blockSize, a.inodeSlotSize)
	if align > a.blockSize {
		panic(ErrAllocInvariant) // caller guarantees align <= blockSize
	}
	alignedSize := RoundUp(size, uint64(align))

	if addr, ok := a.bfind(alignedSize, align); ok {
		return addr
	}
	return a.ballocContig(alignedSize, align)
}

// bfind scans free_table[alignedSize .. B] from the smallest-fit bucket
// upward and reuses the first non-empty one.
func (a *Allocator) bfind(alignedSize uint64, align uint32) (uint64, bool) {
	if alignedSize > uint64(a.blockSize) {
		return 0, false
	}
	for i := int(alignedSize); i <= int(a.blockSize); i++ {
		if len(a.table[i]) == 0 {
			continue
		}
		n := len(a.table[i])
		blk := a.table[i][n-1]
		a.table[i] = a.table[i][:n-1]

		addr := RoundUp(blk.addr(a.blockSize), uint64(align))
		newOff := uint32(RoundUp(uint64(blk.blkOff), uint64(align))) + uint32(alignedSize)
		blk.blkOff = newOff
		a.pushBlock(blk)
		return addr, true
	}
	return 0, false
}

// ballocContig extends the image from the tail block, allocating whole
// successor blocks until alignedSize bytes have been accounted for.
func (a *Allocator) ballocContig(alignedSize uint64, align uint32) uint64 {
	alignedOff := uint32(RoundUp(uint64(a.tail.blkOff), uint64(align)))

	var addr uint64
	var sizeLeft uint64

	switch {
	case alignedOff < a.blockSize:
		addr = RoundUp(a.tail.addr(a.blockSize), uint64(align))
		sizeLeft = alignedSize - uint64(a.blockSize-alignedOff)
		a.updateBlock(a.tail, a.blockSize)
	case alignedOff == a.blockSize:
		addr = uint64(a.TailBlockID()+1) * uint64(a.blockSize)
		sizeLeft = alignedSize
	default:
		panic(ErrAllocInvariant)
	}

	for sizeLeft > 0 {
		blk := &bufferBlock{blkID: a.TailBlockID() + 1}
		take := sizeLeft
		if take > uint64(a.blockSize) {
			take = uint64(a.blockSize)
		}
		blk.blkOff = uint32(take)
		sizeLeft -= take
		a.tail = blk
		a.pushBlock(blk)
	}

	log.Printf("codexfs: alloc contig %d", addr)
	return addr
}

func (a *Allocator) pushBlock(blk *bufferBlock) {
	a.table[a.blockSize-blk.blkOff] = append(a.table[a.blockSize-blk.blkOff], blk)
}

func (a *Allocator) updateBlock(blk *bufferBlock, newOff uint32) {
	bucket := a.table[a.blockSize-blk.blkOff]
	for i, e := range bucket {
		if e == blk {
			a.table[a.blockSize-blk.blkOff] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	blk.blkOff = newOff
	a.pushBlock(blk)
}
