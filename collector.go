package codexfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// BuildFromPath walks srcPath (an OS directory tree) and builds the
// in-memory inode forest that the orchestration layer (writer.go) then
// lays out on disk. Regular files with a previously unseen source ino have
// their contents read eagerly and a TLSH digest computed;
// files sharing a source ino with an already-seen path alias the same
// *Inode and simply gain a path/nlink (hard-link dedup).
//
// Grounded on writer.go's Add(path, d, err), generalized from squashfs's
// single-pass fs.WalkDirFunc into codexfs's two-phase model (collect now,
// reorder+compress+allocate later).
func BuildFromPath(sess *Session, srcPath string) (*Inode, error) {
	pathToInode := make(map[string]*Inode)

	err := filepath.WalkDir(srcPath, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcPath, p)
		if err != nil {
			return err
		}
		if rel == "." {
			rel = ""
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		ft := FileTypeFromMode(info.Mode())
		switch ft {
		case DirType, RegularType, SymlinkType:
			// supported, fall through
		default:
			return fmt.Errorf("%w: %s", ErrUnsupportedFileType, p)
		}

		srcIno, uid, gid, _, hasStat := srcStat(info)

		if ft != DirType {
			if hasStat {
				if existing, dup := sess.bySrcIno[srcIno]; dup {
					existing.Nlink++
					attachChild(sess, pathToInode, rel, existing)
					return nil
				}
			}
		}

		inode := &Inode{
			sess:     sess,
			Path:     rel,
			FileType: ft,
			Mode:     info.Mode().Perm(),
			Uid:      uid,
			Gid:      gid,
		}

		if hasStat {
			inode.Ino = uint32(srcIno)
			sess.bySrcIno[srcIno] = inode
		} else {
			sess.nextSrcIno++
			inode.Ino = uint32(sess.nextSrcIno)
		}

		switch ft {
		case DirType:
			inode.Dir = &dirInode{}
			inode.Nlink = 2
		case RegularType:
			content, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			inode.Size = uint64(len(content))
			inode.File = &fileInode{
				content: content,
				digest:  computeTLSH(content),
			}
			inode.Nlink = 1
		case SymlinkType:
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			inode.Symlink = &symlinkInode{target: target}
			inode.Size = uint64(len(target))
			inode.Nlink = 1
		}

		sess.allInodes = append(sess.allInodes, inode)
		pathToInode[rel] = inode

		if rel == "" {
			inode.parent = inode // root is its own parent
			sess.root = inode
			return nil
		}

		parentRel := filepath.Dir(rel)
		if parentRel == "." {
			parentRel = ""
		}
		parent := pathToInode[parentRel]
		if parent == nil || parent.Dir == nil {
			return fmt.Errorf("%w: parent of %s not found", ErrFormat, rel)
		}
		linkChild(parent, inode, filepath.Base(rel))
		if ft == DirType {
			parent.Nlink++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sortDirEntries(sess.root)
	return sess.root, nil
}

// attachChild links an already-known inode (a hard link target) under a
// second parent path, without creating a new *Inode.
func attachChild(sess *Session, pathToInode map[string]*Inode, rel string, target *Inode) {
	parentRel := filepath.Dir(rel)
	if parentRel == "." {
		parentRel = ""
	}
	parent := pathToInode[parentRel]
	if parent == nil || parent.Dir == nil {
		return
	}
	linkChild(parent, target, filepath.Base(rel))
}

func linkChild(parent, child *Inode, name string) {
	parent.Dir.entries = append(parent.Dir.entries, dirent{
		name:     name,
		fileType: child.FileType,
		child:    child,
	})
	if child.parent == nil {
		child.parent = parent
	}
}

// sortDirEntries orders i's children lexically by name, then recurses into
// every child directory, so that entry order does not depend on the walk.
// filepath.WalkDir already visits each directory's entries in lexical
// order, and linkChild/attachChild append in visit order, so this sort
// leaves entries built by BuildFromPath in the order they already have.
func sortDirEntries(i *Inode) {
	if i.Dir == nil {
		return
	}
	sort.Slice(i.Dir.entries, func(a, b int) bool {
		return i.Dir.entries[a].name < i.Dir.entries[b].name
	})
	for _, e := range i.Dir.entries {
		if e.child != nil {
			sortDirEntries(e.child)
		}
	}
}
