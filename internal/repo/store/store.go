package store

import (
	"fmt"

	"github.com/solovev/dirsnap/internal/config"
	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/fs"
	"github.com/solovev/dirsnap/internal/repo/store/object"
	"github.com/solovev/dirsnap/internal/repo/store/snaplog"
	"github.com/solovev/dirsnap/internal/repo/store/snapshot"
	"github.com/solovev/dirsnap/internal/repo/store/tree"
)

// Context unifies the store subsystems behind one handle. There is no
// implicit global state: every operation goes through a Context built
// from an explicit RepoConfig.
type Context struct {
	Config    *config.RepoConfig
	Algo      digest.Algorithm
	Objects   *object.Context
	Log       *snaplog.Log
	Snapshots *snapshot.Context
}

// Options allows optional dependency injection for tests.
type Options struct {
	FS    fs.FS
	Cache *tree.ScanCache
	Quiet bool
}

// New wires a store from the repo settings. The digest algorithm comes
// from config.yml and is constant for the life of the store.
func New(cfg *config.RepoConfig, settings config.Settings, opts *Options) (*Context, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil RepoConfig provided")
	}

	algo, err := digest.Parse(settings.Digest)
	if err != nil {
		return nil, fmt.Errorf("repo settings: %w", err)
	}

	fsys := fs.FS(fs.NewOSFS())
	if opts != nil && opts.FS != nil {
		fsys = opts.FS
	}

	cache := tree.LoadScanCache(fsys, cfg.ScanCachePath())
	if opts != nil && opts.Cache != nil {
		cache = opts.Cache
	}

	objects := object.NewContext(cfg.ObjectsPath(), fsys, algo)
	log := snaplog.NewLog(cfg.LogPath(), fsys)
	snapshots := snapshot.NewContext(cfg, fsys, algo, objects, log, cache)
	if opts != nil {
		snapshots.Quiet = opts.Quiet
	}

	return &Context{
		Config:    cfg,
		Algo:      algo,
		Objects:   objects,
		Log:       log,
		Snapshots: snapshots,
	}, nil
}
