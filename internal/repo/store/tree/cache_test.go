package tree

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/fs"
)

func newCache(t *testing.T) (*ScanCache, string) {
	t.Helper()
	dir := t.TempDir()
	return LoadScanCache(fs.NewOSFS(), filepath.Join(dir, "scancache.json")), dir
}

func statFile(t *testing.T, path string) os.FileInfo {
	t.Helper()
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return fi
}

func TestScanCacheHitOnUnchangedFile(t *testing.T) {
	c, dir := newCache(t)
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	fi := statFile(t, path)
	want := digest.SHA1.Sum([]byte("content"))

	c.Store(path, "f.txt", fi, want)

	got, ok := c.Lookup(fs.NewOSFS(), path, "f.txt", fi)
	if !ok {
		t.Fatal("expected cache hit for unchanged file")
	}
	if got != want {
		t.Errorf("cached digest = %s, want %s", got, want)
	}
}

func TestScanCacheMissOnChangedContent(t *testing.T) {
	c, dir := newCache(t)
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("before"), 0o644); err != nil {
		t.Fatal(err)
	}
	c.Store(path, "f.txt", statFile(t, path), digest.SHA1.Sum([]byte("before")))

	// Same length, different bytes, bumped mtime.
	if err := os.WriteFile(path, []byte("after!"), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Lookup(fs.NewOSFS(), path, "f.txt", statFile(t, path)); ok {
		t.Error("changed content must not hit the cache")
	}
}

// A touched file with identical bytes is still a hit: the fingerprint
// catches it even though mtime moved.
func TestScanCacheHitOnTouchedFile(t *testing.T) {
	c, dir := newCache(t)
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("stable"), 0o644); err != nil {
		t.Fatal(err)
	}
	want := digest.SHA1.Sum([]byte("stable"))
	c.Store(path, "f.txt", statFile(t, path), want)

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Lookup(fs.NewOSFS(), path, "f.txt", statFile(t, path))
	if !ok {
		t.Fatal("touched-but-identical file should hit via fingerprint")
	}
	if got != want {
		t.Errorf("cached digest = %s, want %s", got, want)
	}
}

func TestScanCacheSaveAndReload(t *testing.T) {
	fsys := fs.NewOSFS()
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "scancache.json")

	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("persisted"), 0o644); err != nil {
		t.Fatal(err)
	}
	fi := statFile(t, path)
	want := digest.SHA1.Sum([]byte("persisted"))

	c := LoadScanCache(fsys, cachePath)
	c.Store(path, "f.txt", fi, want)
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := LoadScanCache(fsys, cachePath)
	got, ok := reloaded.Lookup(fsys, path, "f.txt", fi)
	if !ok {
		t.Fatal("expected hit from reloaded cache")
	}
	if got != want {
		t.Errorf("reloaded digest = %s, want %s", got, want)
	}
}

func TestScanCacheCorruptFileYieldsEmptyCache(t *testing.T) {
	fsys := fs.NewOSFS()
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "scancache.json")
	if err := os.WriteFile(cachePath, []byte("{broken json"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := LoadScanCache(fsys, cachePath)
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Lookup(fsys, path, "f.txt", statFile(t, path)); ok {
		t.Error("corrupt cache must load empty, not hit")
	}
}
