package object

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/fs"
)

func newContext(t *testing.T) *Context {
	t.Helper()
	return NewContext(filepath.Join(t.TempDir(), "objects"), fs.NewOSFS(), digest.SHA1)
}

func TestPutGetRoundTrip(t *testing.T) {
	c := newContext(t)
	data := []byte("object payload")
	d := digest.SHA1.Sum(data)

	if err := c.Put(d, data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := c.Get(d)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Get = %q, want %q", got, data)
	}
}

func TestPutShardLayout(t *testing.T) {
	c := newContext(t)
	data := []byte("sharded")
	d := digest.SHA1.Sum(data)

	if err := c.Put(d, data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	want := filepath.Join(c.Dir, string(d[:2]), string(d[2:]))
	if !c.FS.Exists(want) {
		t.Errorf("object not stored at sharded path %s", want)
	}
}

func TestPutIdempotent(t *testing.T) {
	c := newContext(t)
	data := []byte("idempotent")
	d := digest.SHA1.Sum(data)

	if err := c.Put(d, data); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := c.Put(d, data); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	list, err := c.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("store holds %d objects after double Put, want 1", len(list))
	}

	got, err := c.Get(d)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("content changed after second Put")
	}
}

func TestGetMissingObject(t *testing.T) {
	c := newContext(t)
	d := digest.SHA1.Sum([]byte("never stored"))

	_, err := c.Get(d)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestPutRejectsMalformedDigest(t *testing.T) {
	c := newContext(t)
	if err := c.Put(digest.Digest("xy"), []byte("x")); err == nil {
		t.Error("expected error for malformed digest")
	}
}

func TestVerifyDetectsDamage(t *testing.T) {
	c := newContext(t)

	good := []byte("good object")
	goodDigest := digest.SHA1.Sum(good)
	if err := c.Put(goodDigest, good); err != nil {
		t.Fatalf("Put good: %v", err)
	}

	// Store mismatching content under a valid digest address.
	bad := []byte("original bytes")
	badDigest := digest.SHA1.Sum(bad)
	if err := c.Put(badDigest, []byte("corrupted bytes")); err != nil {
		t.Fatalf("Put bad: %v", err)
	}

	checks, err := c.Verify(2)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	status := map[digest.Digest]Status{}
	for check := range checks {
		status[check.Digest] = check.Status
	}
	if status[goodDigest] != OK {
		t.Errorf("intact object reported %v", status[goodDigest])
	}
	if status[badDigest] != Damaged {
		t.Errorf("corrupt object reported %v", status[badDigest])
	}
}
