package snapshot

import (
	"github.com/solovev/dirsnap/internal/config"
	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/fs"
	"github.com/solovev/dirsnap/internal/repo/store/object"
	"github.com/solovev/dirsnap/internal/repo/store/snaplog"
	"github.com/solovev/dirsnap/internal/repo/store/tree"
)

// Artifact is the persisted unit of one snapshot: the hashed tree plus
// a flat list of every reachable blob. The flat list drives direct,
// non-recursive content restoration; the tree restores structure
// (including empty directories). Created once at snapshot time,
// immutable afterwards.
type Artifact struct {
	Tree  *tree.TreeNode   `cbor:"tree"`
	Files []tree.FileEntry `cbor:"files"`
}

// Context handles snapshot creation, loading and restoration. One
// snapshot or restore operation runs to completion before another may
// start: the duplicate check and log append are not guarded by a lock,
// and a snapshot is only valid if the working tree is quiescent while
// it is taken.
type Context struct {
	Config  *config.RepoConfig
	FS      fs.FS
	Algo    digest.Algorithm
	Objects *object.Context
	Log     *snaplog.Log
	Cache   *tree.ScanCache // optional
	Quiet   bool            // suppress progress rendering
}

// NewContext wires a snapshot context from its collaborators.
func NewContext(cfg *config.RepoConfig, fsys fs.FS, algo digest.Algorithm,
	objects *object.Context, log *snaplog.Log, cache *tree.ScanCache) *Context {
	return &Context{
		Config:  cfg,
		FS:      fsys,
		Algo:    algo,
		Objects: objects,
		Log:     log,
		Cache:   cache,
	}
}
