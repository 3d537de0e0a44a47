//go:build linux || darwin

package codexfs

import (
	"io/fs"
	"syscall"
)

// srcStat extracts the hardlink-dedup key (source ino), uid, gid, and
// nlink from a walked file's OS-level stat info. Split by platform
// (stat_unix.go / stat_other.go) since only Unix-family syscall.Stat_t
// exposes these fields.
func srcStat(info fs.FileInfo) (ino uint64, uid, gid uint16, nlink uint16, ok bool) {
	st, isStat := info.Sys().(*syscall.Stat_t)
	if !isStat {
		return 0, 0, 0, 0, false
	}
	return uint64(st.Ino), uint16(st.Uid), uint16(st.Gid), uint16(st.Nlink), true
}
