package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestFSContainsFiles(t *testing.T) {
	empty := fstest.MapFS{"a/b": &fstest.MapFile{Mode: os.ModeDir}}
	ok, err := FSContainsFiles(empty)
	if err != nil || ok {
		t.Fatalf("expected no files, got %v, %v", ok, err)
	}

	full := fstest.MapFS{"a/b/c.mp3": &fstest.MapFile{Data: []byte("x")}}
	ok, err = FSContainsFiles(full)
	if err != nil || !ok {
		t.Fatalf("expected files, got %v, %v", ok, err)
	}

	ok, err = FSContainsFiles(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	if err != nil || ok {
		t.Fatalf("expected missing dir to contain no files, got %v, %v", ok, err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audio", "hazza", "001.mp3")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatal(err)
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(bs) != "second" {
		t.Fatalf("expected replaced contents, got %q", bs)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, got %v", entries)
	}
}

func TestWriteFileAtomicRenameFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "001.svg")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	old := renameFunc
	renameFunc = func(string, string) error { return os.ErrPermission }
	defer func() { renameFunc = old }()

	if err := WriteFileAtomic(path, []byte("new")); err == nil {
		t.Fatal("expected error")
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(bs) != "old" {
		t.Fatalf("expected previous contents to survive, got %q", bs)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".001.svg.tmp-") {
			t.Fatalf("temporary file left behind: %q", e.Name())
		}
	}
}

func TestSameContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a")

	same, err := SameContents(path, []byte("x"))
	if err != nil || same {
		t.Fatalf("expected missing file to differ, got %v, %v", same, err)
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if same, _ := SameContents(path, []byte("x")); !same {
		t.Fatal("expected identical contents")
	}
	if same, _ := SameContents(path, []byte("y")); same {
		t.Fatal("expected different contents")
	}
}

func TestRemoveFiles(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"001.mp3", "002.mp3", "hazza/001.mp3", "hazza/deep/002.mp3"} {
		if err := WriteFileAtomic(filepath.Join(dir, p), []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	n, err := RemoveFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 files removed, got %d", n)
	}

	for _, p := range []string{"001.mp3", "002.mp3"} {
		if _, err := os.Stat(filepath.Join(dir, p)); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be removed, got %v", p, err)
		}
	}
	for _, p := range []string{"hazza/001.mp3", "hazza/deep/002.mp3"} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Fatalf("expected nested %s to be kept: %v", p, err)
		}
	}

	if n, err := RemoveFiles(filepath.Join(dir, "missing")); err != nil || n != 0 {
		t.Fatalf("expected missing dir to be a no-op, got %d, %v", n, err)
	}
}
