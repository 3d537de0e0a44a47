package codexfs

import (
	"bytes"
	"io/fs"
	"time"
)

// buildDirTail packs a directory's dentries plus inlined names into the
// on-disk tail format: dirent[0]=".", dirent[1]="..", then the
// real children in i.Dir.entries order, followed by the concatenated name
// region. nameoff on the first dirent doubles as a dirent-count signal: it
// equals (d+2)*sizeof(dirent), which is also the byte offset where the name
// region begins.
func buildDirTail(i *Inode, parentNid uint64) []byte {
	children := i.Dir.entries
	count := len(children) + 2
	headerSize := count * DirentSize

	names := make([]string, 0, count)
	names = append(names, ".", "..")
	for _, c := range children {
		names = append(names, c.name)
	}

	nids := make([]uint64, 0, count)
	nids = append(nids, i.Nid, parentNid)
	types := make([]FileType, 0, count)
	types = append(types, DirType, DirType)
	for _, c := range children {
		nid := c.nid
		if c.child != nil {
			nid = c.child.Nid
		}
		nids = append(nids, nid)
		types = append(types, c.fileType)
	}

	buf := new(bytes.Buffer)
	nameoff := headerSize
	for idx := range names {
		d := OnDiskDirent{
			Nid:      nids[idx],
			Nameoff:  uint16(nameoff),
			FileType: uint8(types[idx]),
		}
		buf.Write(marshalStruct(&d))
		nameoff += len(names[idx])
	}
	for _, n := range names {
		buf.WriteString(n)
	}
	return buf.Bytes()
}

// dirTailSize returns the exact byte length buildDirTail would produce,
// without actually building it: (d+2)*sizeof(dirent) + 3 (for "." and "..")
// + sum of child name lengths.
func dirTailSize(i *Inode) int {
	d := len(i.Dir.entries)
	sz := (d+2)*DirentSize + 3
	for _, c := range i.Dir.entries {
		sz += len(c.name)
	}
	return sz
}

// parseDirTail decodes a directory tail produced by buildDirTail back into
// dirents (including the synthesized "." and "..", which callers typically
// skip via IsDotOrDotDot).
func parseDirTail(data []byte) ([]dirent, error) {
	if len(data) < DirentSize {
		return nil, ErrFormat
	}
	var first OnDiskDirent
	if err := unmarshalStruct(&first, data[:DirentSize]); err != nil {
		return nil, err
	}
	if int(first.Nameoff)%DirentSize != 0 {
		return nil, ErrFormat
	}
	count := int(first.Nameoff) / DirentSize
	headerSize := count * DirentSize
	if len(data) < headerSize {
		return nil, ErrFormat
	}

	raw := make([]OnDiskDirent, count)
	for idx := 0; idx < count; idx++ {
		off := idx * DirentSize
		if err := unmarshalStruct(&raw[idx], data[off:off+DirentSize]); err != nil {
			return nil, err
		}
	}

	entries := make([]dirent, count)
	for idx := 0; idx < count; idx++ {
		start := int(raw[idx].Nameoff)
		var end int
		if idx+1 < count {
			end = int(raw[idx+1].Nameoff)
		} else {
			end = len(data)
		}
		if start < headerSize || end > len(data) || end < start {
			return nil, ErrFormat
		}
		entries[idx] = dirent{
			name:     string(data[start:end]),
			nid:      raw[idx].Nid,
			fileType: FileType(raw[idx].FileType),
		}
	}
	return entries, nil
}

// dirEntry adapts a dirent to fs.DirEntry for callers walking a mounted
// image with the standard library's directory-walking conventions.
type dirEntry struct {
	sess *Session
	e    dirent
}

func (d dirEntry) Name() string { return d.e.name }
func (d dirEntry) IsDir() bool  { return d.e.fileType.IsDir() }
func (d dirEntry) Type() fs.FileMode {
	return d.e.fileType.Mode()
}
func (d dirEntry) Info() (fs.FileInfo, error) {
	child, err := d.sess.GetInode(d.e.nid)
	if err != nil {
		return nil, err
	}
	return fileInfo{child}, nil
}

// fileInfo adapts an *Inode to fs.FileInfo.
type fileInfo struct {
	i *Inode
}

func (fi fileInfo) Name() string {
	return fi.i.Path // only meaningful for the root-relative name set by caller
}
func (fi fileInfo) Size() int64        { return int64(fi.i.Size) }
func (fi fileInfo) Mode() fs.FileMode  { return fi.i.FullMode() }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return fi.i.IsDir() }
func (fi fileInfo) Sys() interface{}   { return fi.i }
