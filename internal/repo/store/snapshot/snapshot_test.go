package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solovev/dirsnap/internal/config"
	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/fs"
	"github.com/solovev/dirsnap/internal/repo/store/object"
	"github.com/solovev/dirsnap/internal/repo/store/snaplog"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	cfg := config.NewRepoConfig(t.TempDir())
	fsys := fs.NewOSFS()
	for _, d := range []string{cfg.Root, cfg.ObjectsPath(), cfg.SnapshotsPath()} {
		if err := fsys.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	objects := object.NewContext(cfg.ObjectsPath(), fsys, digest.SHA1)
	log := snaplog.NewLog(cfg.LogPath(), fsys)
	c := NewContext(cfg, fsys, digest.SHA1, objects, log, nil)
	c.Quiet = true
	return c
}

func seedWorkTree(t *testing.T, c *Context, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(c.Config.WorkTree, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func TestCreateStoresArtifactObjectsAndLogEntry(t *testing.T) {
	c := newTestContext(t)
	seedWorkTree(t, c, map[string]string{
		"readme.md":   "docs",
		"src/main.go": "package main",
	})

	artifact, err := c.Create("first")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(artifact.Files) != 2 {
		t.Errorf("artifact lists %d files, want 2", len(artifact.Files))
	}

	// Every blob must be retrievable from the object store.
	for _, f := range artifact.Files {
		if _, err := c.Objects.Get(f.Digest); err != nil {
			t.Errorf("object for %s missing: %v", f.Path, err)
		}
	}

	if !c.FS.Exists(c.Config.ArtifactPath("first")) {
		t.Error("artifact file not written")
	}
	if !c.Log.ExistsName("first") {
		t.Error("log entry not appended")
	}
	if !c.Log.ExistsDigest(artifact.Tree.Digest) {
		t.Error("root digest not logged")
	}
}

func TestCreateRefusesDuplicateName(t *testing.T) {
	c := newTestContext(t)
	seedWorkTree(t, c, map[string]string{"a.txt": "one"})

	if _, err := c.Create("taken"); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	seedWorkTree(t, c, map[string]string{"a.txt": "two"})
	_, err := c.Create("taken")
	if !errors.Is(err, ErrNameTaken) {
		t.Errorf("Create with reused name = %v, want ErrNameTaken", err)
	}
}

func TestCreateRefusesDuplicateContent(t *testing.T) {
	c := newTestContext(t)
	seedWorkTree(t, c, map[string]string{"a.txt": "same"})

	if _, err := c.Create("original"); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := c.Create("copy")
	if !errors.Is(err, ErrDuplicateContent) {
		t.Errorf("Create with identical tree = %v, want ErrDuplicateContent", err)
	}
	if c.FS.Exists(c.Config.ArtifactPath("copy")) {
		t.Error("refused snapshot must not leave an artifact behind")
	}
}

func TestCreateRejectsInvalidName(t *testing.T) {
	c := newTestContext(t)
	seedWorkTree(t, c, map[string]string{"a.txt": "x"})

	for _, name := range []string{"", "Has Caps", "under_score"} {
		if _, err := c.Create(name); err == nil {
			t.Errorf("Create(%q) succeeded, want validation error", name)
		}
	}
}

func TestCreateHonorsIgnoreFile(t *testing.T) {
	c := newTestContext(t)
	seedWorkTree(t, c, map[string]string{
		"keep.txt":   "keep",
		"secret.env": "password",
		"debug.log":  "noise",
		"trace.log":  "noise",
	})
	ignore := "secret.env\n*.log\n"
	if err := os.WriteFile(c.Config.IgnorePath(), []byte(ignore), 0o644); err != nil {
		t.Fatalf("write ignore file: %v", err)
	}

	artifact, err := c.Create("filtered")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	paths := map[string]bool{}
	for _, f := range artifact.Files {
		paths[f.Path] = true
	}
	if !paths["keep.txt"] {
		t.Error("keep.txt missing from artifact")
	}
	for _, excluded := range []string{"secret.env", "debug.log", "trace.log"} {
		if paths[excluded] {
			t.Errorf("%s should be excluded from the artifact", excluded)
		}
	}

	// Excluded content must not leak into the object store either.
	secretDigest := digest.SHA1.Sum([]byte("password"))
	if c.Objects.Exists(secretDigest) {
		t.Error("excluded file content stored as an object")
	}
}

func TestCreateSkipsMetadataDirectory(t *testing.T) {
	c := newTestContext(t)
	seedWorkTree(t, c, map[string]string{"a.txt": "x"})

	artifact, err := c.Create("clean")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, f := range artifact.Files {
		if strings.HasPrefix(f.Path, config.RepoDir) {
			t.Errorf("metadata file %s leaked into the snapshot", f.Path)
		}
	}
}
