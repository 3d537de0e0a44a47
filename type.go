package codexfs

import "io/fs"

// FileType is the on-disk dirent file_type / inode discriminant: 1=file,
// 2=dir, 3=chr, 4=blk, 5=fifo, 6=sock, 7=symlink. Zero (Unknown) is never
// written by this package's builder; a reader encountering it treats it as
// a format error.
type FileType uint8

const (
	UnknownType FileType = iota
	RegularType
	DirType
	CharDevType
	BlockDevType
	FifoType
	SocketType
	SymlinkType
)

func (t FileType) IsDir() bool {
	return t == DirType
}

func (t FileType) IsSymlink() bool {
	return t == SymlinkType
}

func (t FileType) IsRegular() bool {
	return t == RegularType
}

// Mode returns the fs.FileMode bits describing this type alone, with no
// permission bits set.
func (t FileType) Mode() fs.FileMode {
	switch t {
	case DirType:
		return fs.ModeDir
	case RegularType:
		return 0
	case SymlinkType:
		return fs.ModeSymlink
	case BlockDevType:
		return fs.ModeDevice
	case CharDevType:
		return fs.ModeDevice | fs.ModeCharDevice
	case FifoType:
		return fs.ModeNamedPipe
	case SocketType:
		return fs.ModeSocket
	default:
		return fs.ModeIrregular
	}
}

// FileTypeFromMode classifies a standard-library fs.FileMode into the
// on-disk FileType discriminant. Devices, FIFOs and sockets are classified
// but rejected by the builder; see collector.go.
func FileTypeFromMode(mode fs.FileMode) FileType {
	switch {
	case mode.IsDir():
		return DirType
	case mode&fs.ModeSymlink != 0:
		return SymlinkType
	case mode&fs.ModeNamedPipe != 0:
		return FifoType
	case mode&fs.ModeSocket != 0:
		return SocketType
	case mode&fs.ModeCharDevice != 0:
		return CharDevType
	case mode&fs.ModeDevice != 0:
		return BlockDevType
	case mode.IsRegular():
		return RegularType
	default:
		return UnknownType
	}
}
