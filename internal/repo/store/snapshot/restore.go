package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/solovev/dirsnap/internal/config"
	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/progress"
	"github.com/solovev/dirsnap/internal/repo/store/tree"
)

// Problem is a per-file restoration diagnostic. Restoration is atomic
// only at single-file granularity: one unresolvable file is reported
// and the rest of the tree is still restored.
type Problem struct {
	Path string
	Err  error
}

// Restore materializes an artifact under destRoot/<name>.
//
// Two passes: the flat file list first drives direct content
// restoration of every blob; the tree is then walked to recreate empty
// directories and any blob reachable only through the recursive
// structure. A missing object or a failed file write is collected as a
// Problem and does not abort the remaining files. The returned error
// is non-nil only for failures that invalidate the whole restore, such
// as an uncreatable destination.
func (c *Context) Restore(artifact *Artifact, destRoot, name string) ([]Problem, error) {
	dest := filepath.Join(destRoot, name)
	if err := c.FS.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create destination %q: %w", dest, err)
	}

	bar := progress.New(len(artifact.Files), "Restoring "+name, c.Quiet)
	defer bar.Finish()

	var problems []Problem
	restored := make(map[string]bool, len(artifact.Files))

	// Pass 1: flat file list.
	for _, f := range artifact.Files {
		if err := c.restoreBlob(dest, f.Path, f.Digest); err != nil {
			problems = append(problems, Problem{Path: f.Path, Err: err})
		} else {
			restored[f.Path] = true
		}
		bar.Increment()
	}

	// Pass 2: tree structure. Recreates empty directories and picks up
	// blobs the flat list missed.
	artifact.Tree.Walk(func(rel string, node *tree.TreeNode) {
		switch node.Kind {
		case tree.KindTree:
			dir := filepath.Join(dest, filepath.FromSlash(rel))
			if err := c.FS.MkdirAll(dir, 0o755); err != nil {
				problems = append(problems, Problem{Path: rel, Err: err})
			}
		case tree.KindBlob:
			if restored[rel] {
				return
			}
			if err := c.restoreBlob(dest, rel, node.Digest); err != nil {
				problems = append(problems, Problem{Path: rel, Err: err})
			} else {
				restored[rel] = true
			}
		}
	})

	return problems, nil
}

// restoreBlob fetches one object and writes it at its relative path
// under dest.
func (c *Context) restoreBlob(dest, rel string, d digest.Digest) error {
	data, err := c.Objects.Get(d)
	if err != nil {
		return err
	}
	target := filepath.Join(dest, filepath.FromSlash(rel))
	if err := c.FS.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create dir for %q: %w", rel, err)
	}
	if err := c.FS.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", rel, err)
	}
	return nil
}

// RestoreAll loads every artifact in the snapshots directory and
// restores each independently under destRoot. Unloadable artifacts are
// skipped with a diagnostic; problems are aggregated per snapshot name.
func (c *Context) RestoreAll(destRoot string) (map[string][]Problem, error) {
	dir := c.Config.SnapshotsPath()
	entries, err := c.FS.ReadDir(dir)
	if err != nil {
		if c.FS.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshots dir %q: %w", dir, err)
	}

	results := make(map[string][]Problem)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), config.ArtifactExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), config.ArtifactExt)
		artifact, err := Load(c.FS, filepath.Join(dir, entry.Name()))
		if err != nil {
			results[name] = []Problem{{Path: entry.Name(), Err: err}}
			continue
		}
		problems, err := c.Restore(artifact, destRoot, name)
		if err != nil {
			return results, err
		}
		results[name] = problems
	}
	return results, nil
}
