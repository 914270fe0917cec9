package repo

import (
	"fmt"
	"os"

	"github.com/solovev/dirsnap/internal/config"
	"github.com/solovev/dirsnap/internal/fs"
	"github.com/solovev/dirsnap/internal/repo/store"
)

// Repository is the explicit handle every operation runs against. It
// owns the metadata directory of one working tree; the process has
// exclusive write access to it for the duration of an operation.
type Repository struct {
	Config   *config.RepoConfig
	Settings config.Settings
	Store    *store.Context
	FS       fs.FS
}

// Init creates the metadata directory layout for a working tree and
// persists the chosen digest algorithm. Returns os.ErrExist when the
// working tree is already initialized.
func Init(workTree, digestName string, opts *store.Options) (*Repository, error) {
	cfg := config.NewRepoConfig(workTree)

	fsys := fs.FS(fs.NewOSFS())
	if opts != nil && opts.FS != nil {
		fsys = opts.FS
	}

	if fsys.Exists(cfg.SettingsPath()) {
		return nil, fmt.Errorf("repository at %q: %w", workTree, os.ErrExist)
	}

	dirs := []string{cfg.Root, cfg.ObjectsPath(), cfg.SnapshotsPath()}
	for _, d := range dirs {
		if err := fsys.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create repo dir %q: %w", d, err)
		}
	}

	settings := config.DefaultSettings()
	if digestName != "" {
		settings.Digest = digestName
	}
	if err := config.SaveSettings(fsys, cfg.SettingsPath(), settings); err != nil {
		return nil, err
	}

	return open(cfg, settings, opts)
}

// Open loads an initialized repository for a working tree.
func Open(workTree string, opts *store.Options) (*Repository, error) {
	cfg := config.NewRepoConfig(workTree)

	fsys := fs.FS(fs.NewOSFS())
	if opts != nil && opts.FS != nil {
		fsys = opts.FS
	}

	settings, err := config.LoadSettings(fsys, cfg.SettingsPath())
	if err != nil {
		return nil, fmt.Errorf("open repository at %q (run init first?): %w", workTree, err)
	}

	return open(cfg, settings, opts)
}

func open(cfg *config.RepoConfig, settings config.Settings, opts *store.Options) (*Repository, error) {
	st, err := store.New(cfg, settings, opts)
	if err != nil {
		return nil, err
	}
	fsys := fs.FS(fs.NewOSFS())
	if opts != nil && opts.FS != nil {
		fsys = opts.FS
	}
	return &Repository{Config: cfg, Settings: settings, Store: st, FS: fsys}, nil
}
