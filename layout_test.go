package codexfs

import "testing"

func TestMarshalUnmarshalSuperblock(t *testing.T) {
	in := OnDiskSuperblock{
		Magic:        Magic,
		Checksum:     0xdeadbeef,
		BlkszBits:    12,
		RootNid:      7,
		Inos:         42,
		IslotBits:    5,
		Blocks:       100,
		EndDataBlkID: 99,
		EndDataBlkSz: 1234,
		Flags:        FlagCompressedImg,
		Codec:        CodecMicroLZMA,
	}
	buf := marshalStruct(&in)
	if len(buf) != SuperblockSize {
		t.Fatalf("marshaled superblock is %d bytes, want %d", len(buf), SuperblockSize)
	}

	var out OnDiskSuperblock
	if err := unmarshalStruct(&out, buf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", out, in)
	}
}

func TestMarshalUnmarshalInode(t *testing.T) {
	in := OnDiskInode{
		Mode:  0644,
		Nlink: 2,
		Size:  8192,
		Ino:   55,
		Uid:   1000,
		Gid:   1000,
		BlkID: 3,
		U:     9,
	}
	buf := marshalStruct(&in)
	if len(buf) != InodeSize {
		t.Fatalf("marshaled inode is %d bytes, want %d", len(buf), InodeSize)
	}
	var out OnDiskInode
	if err := unmarshalStruct(&out, buf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", out, in)
	}
}

func TestMarshalUnmarshalDirent(t *testing.T) {
	in := OnDiskDirent{Nid: 123, Nameoff: 48, FileType: uint8(RegularType)}
	buf := marshalStruct(&in)
	if len(buf) != DirentSize {
		t.Fatalf("marshaled dirent is %d bytes, want %d", len(buf), DirentSize)
	}
	var out OnDiskDirent
	if err := unmarshalStruct(&out, buf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", out, in)
	}
}

func TestMarshalUnmarshalExtent(t *testing.T) {
	in := OnDiskExtent{Off: 4096, FragOff: 12}
	buf := marshalStruct(&in)
	if len(buf) != ExtentSize {
		t.Fatalf("marshaled extent is %d bytes, want %d", len(buf), ExtentSize)
	}
	var out OnDiskExtent
	if err := unmarshalStruct(&out, buf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", out, in)
	}
}

func TestRoundUpDown(t *testing.T) {
	cases := []struct {
		value, align, up, down uint64
	}{
		{0, 8, 0, 0},
		{1, 8, 8, 0},
		{8, 8, 8, 8},
		{9, 8, 16, 8},
		{4095, 4096, 4096, 0},
		{4096, 4096, 4096, 4096},
	}
	for _, c := range cases {
		if got := RoundUp(c.value, c.align); got != c.up {
			t.Errorf("RoundUp(%d,%d) = %d, want %d", c.value, c.align, got, c.up)
		}
		if got := RoundDown(c.value, c.align); got != c.down {
			t.Errorf("RoundDown(%d,%d) = %d, want %d", c.value, c.align, got, c.down)
		}
	}
}

func TestAddrBlockConversions(t *testing.T) {
	const blkszBits = 12 // 4096
	const blockSize = uint32(1) << blkszBits

	addr := uint64(4096*3 + 100)
	if got := addrToBlkID(addr, blkszBits); got != 3 {
		t.Errorf("addrToBlkID = %d, want 3", got)
	}
	if got := addrToBlkOff(addr, blockSize); got != 100 {
		t.Errorf("addrToBlkOff = %d, want 100", got)
	}
	if got := blkIDToAddr(3, blkszBits); got != 4096*3 {
		t.Errorf("blkIDToAddr = %d, want %d", got, 4096*3)
	}
}

func TestAddrNidConversions(t *testing.T) {
	const islotBits = 5 // slot size 32
	nid := addrToNid(32*7, islotBits)
	if nid != 7 {
		t.Fatalf("addrToNid = %d, want 7", nid)
	}
	if got := nidToInodeOff(7, islotBits); got != 32*7 {
		t.Errorf("nidToInodeOff = %d, want %d", got, 32*7)
	}
	if got := nidToInodeMetaOff(7, islotBits); got != 32*8 {
		t.Errorf("nidToInodeMetaOff = %d, want %d", got, 32*8)
	}
}

func TestIsDotOrDotDot(t *testing.T) {
	for _, name := range []string{".", ".."} {
		if !IsDotOrDotDot(name) {
			t.Errorf("IsDotOrDotDot(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "a", "..foo", "foo.."} {
		if IsDotOrDotDot(name) {
			t.Errorf("IsDotOrDotDot(%q) = true, want false", name)
		}
	}
}
