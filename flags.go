package codexfs

import "strings"

// ImageFlags is the superblock's flags byte: a small bitset with a
// String()/Has() pair, narrowed to the one bit this format actually
// defines.
type ImageFlags uint8

const (
	// FlagCompressedImg marks an image whose data blocks are MicroLZMA
	// compressed rather than stored byte-for-byte; bit 0 of the
	// superblock's flags byte, named so ImageFlags.String()/Has() have a
	// symbol to report.
	FlagCompressedImg ImageFlags = 1 << iota
)

func (f ImageFlags) String() string {
	var opt []string
	if f&FlagCompressedImg != 0 {
		opt = append(opt, "COMPRESSED")
	}
	return strings.Join(opt, "|")
}

func (f ImageFlags) Has(what ImageFlags) bool {
	return f&what == what
}
