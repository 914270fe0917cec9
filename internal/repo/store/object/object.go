package object

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/fs"
)

// ErrNotFound is returned by Get when no object exists for a digest.
// Callers must treat it as "missing object", not corruption.
var ErrNotFound = errors.New("object not found")

// Context handles the content-addressed object store. Objects live
// under Dir sharded two levels deep: the first two hex characters of
// the digest name the shard directory, the remainder names the file.
type Context struct {
	Dir  string
	FS   fs.FS
	Algo digest.Algorithm
}

// NewContext creates an object store context rooted at dir.
func NewContext(dir string, fsys fs.FS, algo digest.Algorithm) *Context {
	return &Context{Dir: dir, FS: fsys, Algo: algo}
}

// Path returns the storage path for a digest.
func (c *Context) Path(d digest.Digest) (string, error) {
	if !d.Valid(c.Algo) {
		return "", fmt.Errorf("malformed digest %q", d)
	}
	return filepath.Join(c.Dir, string(d[:2]), string(d[2:])), nil
}

// Put stores data under its digest. Idempotent: if the target path
// already exists the call is a no-op, since digest equality implies
// byte equality. The write is atomic (temp file + rename) so a crash
// never leaves a partial object at its final path.
func (c *Context) Put(d digest.Digest, data []byte) error {
	dst, err := c.Path(d)
	if err != nil {
		return err
	}

	if c.FS.Exists(dst) {
		return nil
	}

	shard := filepath.Dir(dst)
	if err := c.FS.MkdirAll(shard, 0o755); err != nil {
		return fmt.Errorf("create shard dir %q: %w", shard, err)
	}

	tmp, tmpPath, err := c.FS.CreateTempFile(shard, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %q: %w", shard, err)
	}
	defer c.FS.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write object %s: %w", d, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp object %s: %w", d, err)
	}

	if err := c.FS.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename temp object to %q: %w", dst, err)
	}
	return nil
}

// Get retrieves the raw bytes of an object. A missing shard or file
// yields ErrNotFound.
func (c *Context) Get(d digest.Digest) ([]byte, error) {
	path, err := c.Path(d)
	if err != nil {
		return nil, err
	}
	data, err := c.FS.ReadFile(path)
	if err != nil {
		if c.FS.IsNotExist(err) {
			return nil, fmt.Errorf("object %s: %w", d, ErrNotFound)
		}
		return nil, fmt.Errorf("read object %s: %w", d, err)
	}
	return data, nil
}

// Exists reports whether an object is present.
func (c *Context) Exists(d digest.Digest) bool {
	path, err := c.Path(d)
	if err != nil {
		return false
	}
	return c.FS.Exists(path)
}

// List enumerates every stored digest by walking the shard layout.
func (c *Context) List() ([]digest.Digest, error) {
	shards, err := c.FS.ReadDir(c.Dir)
	if err != nil {
		if c.FS.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list objects dir %q: %w", c.Dir, err)
	}

	var out []digest.Digest
	for _, shard := range shards {
		if !shard.IsDir() || len(shard.Name()) != 2 {
			continue
		}
		files, err := c.FS.ReadDir(filepath.Join(c.Dir, shard.Name()))
		if err != nil {
			return nil, fmt.Errorf("list shard %q: %w", shard.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			d := digest.Digest(shard.Name() + f.Name())
			if d.Valid(c.Algo) {
				out = append(out, d)
			}
		}
	}
	return out, nil
}
