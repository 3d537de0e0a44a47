package codexfs

import (
	"github.com/glaslos/tlsh"
)

// tlshDigest wraps a computed TLSH hash (bucket-256, 3-byte checksum, v4 —
// the library's default configuration) for one file's contents. It is nil
// when the file is too small or too uniform for TLSH to produce a stable
// digest; distance returns the sentinel distance 1000 for any pair
// involving a nil digest.
type tlshDigest struct {
	h *tlsh.Tlsh
}

// computeTLSH hashes data, returning nil if TLSH declines to produce a
// digest (too short or too uniform an input).
func computeTLSH(data []byte) *tlshDigest {
	h, err := tlsh.HashBytes(data)
	if err != nil {
		return nil
	}
	return &tlshDigest{h: h}
}

// sentinelDistance is substituted for the TLSH difference whenever either
// side of a pair lacks a digest.
const sentinelDistance = 1000

// distance returns the TLSH difference between a and b, or sentinelDistance
// if either is nil.
func distance(a, b *tlshDigest) int {
	if a == nil || b == nil || a.h == nil || b.h == nil {
		return sentinelDistance
	}
	return a.h.Diff(b.h)
}
