package codexfs

import (
	"bytes"
	"strings"
	"testing"
)

func TestDistanceSentinelForMissingDigest(t *testing.T) {
	if d := distance(nil, nil); d != sentinelDistance {
		t.Errorf("distance(nil,nil) = %d, want %d", d, sentinelDistance)
	}
	present := computeTLSH(bytes.Repeat([]byte("abcdefgh"), 64))
	if d := distance(nil, present); d != sentinelDistance {
		t.Errorf("distance(nil,present) = %d, want %d", d, sentinelDistance)
	}
}

func makeFileInode(name string, content []byte) *Inode {
	return &Inode{
		Path:     name,
		FileType: RegularType,
		Size:     uint64(len(content)),
		File: &fileInode{
			content: content,
			digest:  computeTLSH(content),
		},
	}
}

func TestReorderFilesIsAPermutation(t *testing.T) {
	files := []*Inode{
		makeFileInode("a", bytes.Repeat([]byte("aaaaaaaa"), 64)),
		makeFileInode("b", bytes.Repeat([]byte("bbbbbbbb"), 64)),
		makeFileInode("c", []byte(strings.Repeat("abcabcabc", 40))),
		makeFileInode("d", bytes.Repeat([]byte("aaaaaaab"), 64)),
	}

	out := reorderFiles(files)
	if len(out) != len(files) {
		t.Fatalf("reorderFiles returned %d entries, want %d", len(out), len(files))
	}

	seen := make(map[string]bool, len(files))
	for _, f := range out {
		seen[f.Path] = true
	}
	for _, f := range files {
		if !seen[f.Path] {
			t.Errorf("reorderFiles dropped %q", f.Path)
		}
	}
}

func TestReorderFilesIsDeterministic(t *testing.T) {
	build := func() []*Inode {
		return []*Inode{
			makeFileInode("a", bytes.Repeat([]byte("aaaaaaaa"), 64)),
			makeFileInode("b", bytes.Repeat([]byte("bbbbbbbb"), 64)),
			makeFileInode("c", bytes.Repeat([]byte("cccccccc"), 64)),
		}
	}

	pathsOf := func(in []*Inode) []string {
		out := make([]string, len(in))
		for i, f := range in {
			out[i] = f.Path
		}
		return out
	}

	first := pathsOf(reorderFiles(build()))
	second := pathsOf(reorderFiles(build()))

	if len(first) != len(second) {
		t.Fatalf("length mismatch between runs")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("reorderFiles is not deterministic: run1=%v run2=%v", first, second)
		}
	}
}

func TestReorderFilesTrivialCases(t *testing.T) {
	if out := reorderFiles(nil); len(out) != 0 {
		t.Errorf("reorderFiles(nil) = %v, want empty", out)
	}
	one := []*Inode{makeFileInode("only", []byte("x"))}
	out := reorderFiles(one)
	if len(out) != 1 || out[0].Path != "only" {
		t.Errorf("reorderFiles single-element = %v, want [only]", out)
	}
}
