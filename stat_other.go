//go:build !linux && !darwin

package codexfs

import "io/fs"

// srcStat has no OS stat info to draw on outside linux/darwin; callers fall
// back to a synthetic per-path ino, which disables hardlink detection.
func srcStat(info fs.FileInfo) (ino uint64, uid, gid uint16, nlink uint16, ok bool) {
	return 0, 0, 0, 0, false
}
