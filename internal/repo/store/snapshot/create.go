package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/solovev/dirsnap/internal/codec"
	"github.com/solovev/dirsnap/internal/config"
	"github.com/solovev/dirsnap/internal/progress"
	"github.com/solovev/dirsnap/internal/repo/store/snaplog"
	"github.com/solovev/dirsnap/internal/repo/store/tree"
	"github.com/solovev/dirsnap/internal/util"
)

// Duplicate refusals. Both mean "do not create", but callers report
// them differently, so they are distinct sentinels.
var (
	ErrNameTaken        = errors.New("snapshot name already used")
	ErrDuplicateContent = errors.New("snapshot content identical to an existing snapshot")
)

// Create snapshots the working tree under the given name.
//
// Sequence: validate the name, resolve the ignore set, hash the tree,
// refuse on duplicate name or duplicate root digest, store every blob
// into the object store, persist the compressed artifact, append the
// log entry. Refusals happen before any object is written.
func (c *Context) Create(name string) (*Artifact, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	excludes, err := tree.LoadExcludes(c.FS, c.Config.WorkTree, c.Config.IgnorePath(), config.ReservedNames)
	if err != nil {
		return nil, err
	}

	hasher := &tree.Hasher{Algo: c.Algo, FS: c.FS, Cache: c.Cache}
	root, err := hasher.Hash(c.Config.WorkTree, excludes)
	if err != nil {
		return nil, fmt.Errorf("hash working tree: %w", err)
	}

	if c.Log.ExistsName(name) {
		return nil, fmt.Errorf("snapshot %q: %w", name, ErrNameTaken)
	}
	if c.Log.ExistsDigest(root.Digest) {
		return nil, fmt.Errorf("snapshot %q: %w", name, ErrDuplicateContent)
	}

	files := root.Files()
	if err := c.storeBlobs(files); err != nil {
		return nil, err
	}

	artifact := &Artifact{Tree: root, Files: files}
	if err := c.writeArtifact(name, artifact); err != nil {
		return nil, err
	}

	if err := c.Log.Append(snaplog.Entry{Name: name, Root: root.Digest}); err != nil {
		return nil, err
	}

	if c.Cache != nil {
		if err := c.Cache.Save(); err != nil {
			// The cache is an optimization; a failed save only costs
			// re-hashing next time.
			fmt.Printf("Warning: %v\n", err)
		}
	}

	return artifact, nil
}

// storeBlobs writes every blob's bytes into the object store, reading
// from the working tree. This is the only side-effecting write of file
// content during a snapshot.
func (c *Context) storeBlobs(files []tree.FileEntry) error {
	bar := progress.New(len(files), "Storing objects", c.Quiet)
	defer bar.Finish()

	return util.Parallel(files, util.WorkerCount(), func(f tree.FileEntry) error {
		path := filepath.Join(c.Config.WorkTree, filepath.FromSlash(f.Path))
		data, err := c.FS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %q: %w", path, err)
		}
		if err := c.Objects.Put(f.Digest, data); err != nil {
			return fmt.Errorf("store %q: %w", f.Path, err)
		}
		bar.Increment()
		return nil
	})
}

// writeArtifact CBOR-encodes the artifact, gzips it and persists it
// atomically as snapshots/<name>.gz.
func (c *Context) writeArtifact(name string, artifact *Artifact) error {
	payload, err := codec.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("encode artifact %q: %w", name, err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return fmt.Errorf("compress artifact %q: %w", name, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compress artifact %q: %w", name, err)
	}

	dir := c.Config.SnapshotsPath()
	if err := c.FS.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshots dir: %w", err)
	}

	tmp, tmpPath, err := c.FS.CreateTempFile(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer c.FS.Remove(tmpPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := c.FS.Rename(tmpPath, c.Config.ArtifactPath(name)); err != nil {
		return fmt.Errorf("persist artifact %q: %w", name, err)
	}
	return nil
}
