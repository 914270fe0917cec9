package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/solovev/dirsnap/internal/fs"
)

func TestLoadRoundTrip(t *testing.T) {
	c := newTestContext(t)
	seedWorkTree(t, c, map[string]string{"a.txt": "alpha", "b/c.txt": "gamma"})

	created, err := c.Create("roundtrip")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := Load(c.FS, c.Config.ArtifactPath("roundtrip"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Tree.Digest != created.Tree.Digest {
		t.Errorf("loaded root %s, want %s", loaded.Tree.Digest, created.Tree.Digest)
	}
	if len(loaded.Files) != len(created.Files) {
		t.Errorf("loaded %d files, want %d", len(loaded.Files), len(created.Files))
	}
}

func TestLoadRejectsBadInputs(t *testing.T) {
	dir := t.TempDir()
	fsys := fs.NewOSFS()

	wrongExt := filepath.Join(dir, "artifact.zip")
	if err := os.WriteFile(wrongExt, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	notGzip := filepath.Join(dir, "notgzip.gz")
	if err := os.WriteFile(notGzip, []byte("plainly not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Valid gzip wrapping that is not a CBOR artifact.
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("not cbor"))
	gz.Close()
	badPayload := filepath.Join(dir, "badpayload.gz")
	if err := os.WriteFile(badPayload, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		label string
		path  string
	}{
		{"missing file", filepath.Join(dir, "absent.gz")},
		{"directory", dir},
		{"wrong extension", wrongExt},
		{"not gzip", notGzip},
		{"gzip of non-CBOR", badPayload},
	}
	for _, tt := range cases {
		artifact, err := Load(fsys, tt.path)
		if err == nil {
			t.Errorf("%s: Load succeeded, want diagnostic error", tt.label)
		}
		if artifact != nil {
			t.Errorf("%s: Load returned a non-nil artifact alongside an error", tt.label)
		}
	}
}
