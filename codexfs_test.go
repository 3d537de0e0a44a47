package codexfs_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codexfs/codexfs"
)

// layoutFixture writes a small tree exercising a regular file, a nested
// directory, a symlink, and a hard link, and returns the source root.
func layoutFixture(t *testing.T) (root string, aContent []byte) {
	t.Helper()
	root = t.TempDir()

	aContent = []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 50))
	if err := os.WriteFile(filepath.Join(root, "a.txt"), aContent, 0644); err != nil {
		t.Fatal(err)
	}

	if err := os.Mkdir(filepath.Join(root, "dir1"), 0755); err != nil {
		t.Fatal(err)
	}
	bContent := []byte("nested file content")
	if err := os.WriteFile(filepath.Join(root, "dir1", "b.txt"), bContent, 0644); err != nil {
		t.Fatal(err)
	}

	if err := os.Symlink("../a.txt", filepath.Join(root, "dir1", "link_to_a")); err != nil {
		t.Fatal(err)
	}

	if err := os.Link(filepath.Join(root, "a.txt"), filepath.Join(root, "hardlink")); err != nil {
		t.Fatal(err)
	}

	return root, aContent
}

func TestBuildAndOpenCompressed(t *testing.T) {
	root, aContent := layoutFixture(t)
	imgPath := filepath.Join(t.TempDir(), "image.codexfs")

	if err := codexfs.Build(imgPath, root); err != nil {
		t.Fatalf("Build: %v", err)
	}

	sess, err := codexfs.Open(imgPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	a, err := sess.Root().LookupPath("a.txt")
	if err != nil {
		t.Fatalf("LookupPath a.txt: %v", err)
	}
	if !a.IsRegular() {
		t.Fatal("a.txt should be a regular file")
	}
	got, err := sess.ReadFile(a, 0, a.Size)
	if err != nil {
		t.Fatalf("ReadFile a.txt: %v", err)
	}
	if !bytes.Equal(got, aContent) {
		t.Fatalf("a.txt content mismatch: got %d bytes, want %d", len(got), len(aContent))
	}

	// Partial read in the middle of the file.
	mid, err := sess.ReadFile(a, 10, 20)
	if err != nil {
		t.Fatalf("partial ReadFile: %v", err)
	}
	if !bytes.Equal(mid, aContent[10:30]) {
		t.Fatalf("partial read mismatch: got %q, want %q", mid, aContent[10:30])
	}

	b, err := sess.Root().LookupPath("dir1/b.txt")
	if err != nil {
		t.Fatalf("LookupPath dir1/b.txt: %v", err)
	}
	bGot, err := sess.ReadFile(b, 0, b.Size)
	if err != nil {
		t.Fatalf("ReadFile dir1/b.txt: %v", err)
	}
	if string(bGot) != "nested file content" {
		t.Fatalf("dir1/b.txt content mismatch: got %q", bGot)
	}

	link, err := sess.Root().LookupPath("dir1/link_to_a")
	if err != nil {
		t.Fatalf("LookupPath dir1/link_to_a: %v", err)
	}
	if !link.IsSymlink() {
		t.Fatal("dir1/link_to_a should be a symlink")
	}
	target, err := link.Readlink()
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if target != "../a.txt" {
		t.Fatalf("symlink target = %q, want %q", target, "../a.txt")
	}

	hardlink, err := sess.Root().LookupPath("hardlink")
	if err != nil {
		t.Fatalf("LookupPath hardlink: %v", err)
	}
	if hardlink.Ino != a.Ino {
		t.Fatalf("hardlink.Ino = %d, want %d (same as a.txt)", hardlink.Ino, a.Ino)
	}
	if a.Nlink != 2 {
		t.Fatalf("a.txt Nlink = %d, want 2", a.Nlink)
	}

	entries, err := sess.ReadDir(sess.Root(), true)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	for _, want := range []string{"a.txt", "dir1", "hardlink"} {
		if !names[want] {
			t.Errorf("root directory listing missing %q: got %v", want, names)
		}
	}
}

func TestBuildAndOpenUncompressed(t *testing.T) {
	root, aContent := layoutFixture(t)
	imgPath := filepath.Join(t.TempDir(), "image.codexfs")

	if err := codexfs.Build(imgPath, root, codexfs.WithCompression(false)); err != nil {
		t.Fatalf("Build: %v", err)
	}

	sess, err := codexfs.Open(imgPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	a, err := sess.Root().LookupPath("a.txt")
	if err != nil {
		t.Fatalf("LookupPath a.txt: %v", err)
	}
	got, err := sess.ReadFile(a, 0, a.Size)
	if err != nil {
		t.Fatalf("ReadFile a.txt: %v", err)
	}
	if !bytes.Equal(got, aContent) {
		t.Fatal("a.txt content mismatch in uncompressed mode")
	}
}

func TestBuildWithCustomBlockSize(t *testing.T) {
	root, aContent := layoutFixture(t)
	imgPath := filepath.Join(t.TempDir(), "image.codexfs")

	if err := codexfs.Build(imgPath, root, codexfs.WithBlockSize(1024)); err != nil {
		t.Fatalf("Build: %v", err)
	}

	sess, err := codexfs.Open(imgPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	a, err := sess.Root().LookupPath("a.txt")
	if err != nil {
		t.Fatalf("LookupPath a.txt: %v", err)
	}
	got, err := sess.ReadFile(a, 0, a.Size)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, aContent) {
		t.Fatal("a.txt content mismatch with custom block size")
	}
}

func TestWithBlockSizeRejectsNonPowerOfTwo(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "f"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	imgPath := filepath.Join(t.TempDir(), "image.codexfs")
	err := codexfs.Build(imgPath, root, codexfs.WithBlockSize(1000))
	if err == nil {
		t.Fatal("expected an error for a non-power-of-two block size")
	}
}

func TestFuseInoRoundtrip(t *testing.T) {
	root, _ := layoutFixture(t)
	imgPath := filepath.Join(t.TempDir(), "image.codexfs")
	if err := codexfs.Build(imgPath, root); err != nil {
		t.Fatalf("Build: %v", err)
	}
	sess, err := codexfs.Open(imgPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	if got := sess.FuseIno(sess.Root().Nid); got != 1 {
		t.Fatalf("FuseIno(root) = %d, want 1 (FUSE_ROOT_ID)", got)
	}
	if got := sess.NidFromFuseIno(1); got != sess.Root().Nid {
		t.Fatalf("NidFromFuseIno(1) = %d, want root nid %d", got, sess.Root().Nid)
	}

	a, err := sess.Root().LookupPath("a.txt")
	if err != nil {
		t.Fatalf("LookupPath: %v", err)
	}
	ino := sess.FuseIno(a.Nid)
	if ino != a.Nid+1 {
		t.Fatalf("FuseIno(a.txt) = %d, want %d", ino, a.Nid+1)
	}
	if got := sess.NidFromFuseIno(ino); got != a.Nid {
		t.Fatalf("NidFromFuseIno roundtrip = %d, want %d", got, a.Nid)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "bogus.codexfs")
	if err := os.WriteFile(imgPath, make([]byte, codexfs.SuperblockSize), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := codexfs.Open(imgPath)
	if err == nil {
		t.Fatal("expected an error opening an image with a zeroed superblock")
	}
}
