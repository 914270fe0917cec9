package tree

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/fs"
)

// maxDepth bounds the recursive walk. Deeper trees fail explicitly
// instead of risking stack exhaustion.
const maxDepth = 4096

// Hasher computes the merkle-style tree of a working directory.
type Hasher struct {
	Algo  digest.Algorithm
	FS    fs.FS
	Cache *ScanCache // optional: skips re-digesting unchanged files
}

// Hash walks dir, skipping excluded names, and returns the root tree
// node (Name is empty for the root).
//
// Symbolic links to regular files are followed and hashed as opaque
// blobs. Broken links and special files (devices, sockets, fifos) are
// an explicit error: silently skipping them would make two different
// directories hash equal.
func (h *Hasher) Hash(dir string, excludes Excludes) (*TreeNode, error) {
	return h.hashDir(dir, "", excludes, 0)
}

func (h *Hasher) hashDir(dir, rel string, excludes Excludes, depth int) (*TreeNode, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("directory tree exceeds depth limit %d at %q", maxDepth, dir)
	}

	entries, err := h.FS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list directory %q: %w", dir, err)
	}

	var children []*TreeNode
	for _, entry := range entries {
		name := entry.Name()
		if excludes.Has(name) {
			continue
		}

		full := filepath.Join(dir, name)
		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}

		if entry.IsDir() {
			child, err := h.hashDir(full, childRel, excludes, depth+1)
			if err != nil {
				return nil, err
			}
			child.Name = name
			children = append(children, child)
			continue
		}

		d, err := h.hashBlob(full, childRel, entry)
		if err != nil {
			return nil, err
		}
		children = append(children, &TreeNode{Kind: KindBlob, Name: name, Digest: d})
	}

	sortChildren(children)
	d, err := hashChildren(h.Algo, children)
	if err != nil {
		return nil, fmt.Errorf("hash directory %q: %w", dir, err)
	}

	return &TreeNode{Kind: KindTree, Digest: d, Children: children}, nil
}

// hashBlob digests one non-directory entry.
func (h *Hasher) hashBlob(full, rel string, entry os.DirEntry) (digest.Digest, error) {
	mode := entry.Type()

	switch {
	case mode.IsRegular():
		// plain file
	case mode&os.ModeSymlink != 0:
		// Follow the link; the target must be a regular file.
		fi, err := h.FS.Stat(full)
		if err != nil {
			return "", fmt.Errorf("broken symlink %q: %w", full, err)
		}
		if !fi.Mode().IsRegular() {
			return "", fmt.Errorf("symlink %q resolves to a non-regular file", full)
		}
	default:
		return "", fmt.Errorf("unsupported special file %q (mode %s)", full, mode)
	}

	if h.Cache != nil {
		fi, err := h.FS.Stat(full)
		if err != nil {
			return "", fmt.Errorf("stat %q: %w", full, err)
		}
		if d, ok := h.Cache.Lookup(h.FS, full, rel, fi); ok {
			return d, nil
		}
		d, err := h.digestFile(full)
		if err != nil {
			return "", err
		}
		h.Cache.Store(full, rel, fi, d)
		return d, nil
	}

	return h.digestFile(full)
}

func (h *Hasher) digestFile(full string) (digest.Digest, error) {
	rc, err := h.FS.Open(full)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", full, err)
	}
	defer rc.Close()

	d, err := h.Algo.SumReader(rc)
	if err != nil {
		return "", fmt.Errorf("hash %q: %w", full, err)
	}
	return d, nil
}
