package config

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/solovev/dirsnap/internal/fs"
)

const (
	RepoDir       = ".dirsnap"
	ObjectsDir    = "objects"
	SnapshotsDir  = "snapshots"
	LogFile       = "log.cbor"
	SettingsFile  = "config.yml"
	ScanCacheFile = "scancache.json"

	IgnoreFile  = ".dirsnap-ignore"
	ArtifactExt = ".gz"
)

const (
	// FormatVersion is bumped when the on-disk layout changes.
	FormatVersion = 1

	DefaultDigest = "sha1"
)

// ReservedNames are always excluded from snapshots, regardless of the
// ignore file's contents.
var ReservedNames = []string{RepoDir, IgnoreFile}

// RepoConfig resolves all repository paths relative to a working tree.
type RepoConfig struct {
	WorkTree string // directory being snapshotted
	Root     string // metadata directory (<WorkTree>/.dirsnap)
}

// NewRepoConfig builds a RepoConfig rooted at the given working tree.
func NewRepoConfig(workTree string) *RepoConfig {
	clean := filepath.Clean(workTree)
	return &RepoConfig{
		WorkTree: clean,
		Root:     filepath.Join(clean, RepoDir),
	}
}

func (c *RepoConfig) ObjectsPath() string   { return filepath.Join(c.Root, ObjectsDir) }
func (c *RepoConfig) SnapshotsPath() string { return filepath.Join(c.Root, SnapshotsDir) }
func (c *RepoConfig) LogPath() string       { return filepath.Join(c.Root, LogFile) }
func (c *RepoConfig) SettingsPath() string  { return filepath.Join(c.Root, SettingsFile) }
func (c *RepoConfig) ScanCachePath() string { return filepath.Join(c.Root, ScanCacheFile) }
func (c *RepoConfig) IgnorePath() string    { return filepath.Join(c.WorkTree, IgnoreFile) }

// ArtifactPath returns the path of the compressed artifact for a
// snapshot name.
func (c *RepoConfig) ArtifactPath(name string) string {
	return filepath.Join(c.SnapshotsPath(), name+ArtifactExt)
}

// Settings are the persisted repository-level options. The digest
// algorithm is fixed at init time: changing it would invalidate every
// digest already in the store.
type Settings struct {
	Version int    `yaml:"version"`
	Digest  string `yaml:"digest"`
}

// DefaultSettings returns the settings written by a fresh init.
func DefaultSettings() Settings {
	return Settings{Version: FormatVersion, Digest: DefaultDigest}
}

// LoadSettings reads config.yml from the metadata directory.
func LoadSettings(fsys fs.FS, path string) (Settings, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings %q: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %q: %w", path, err)
	}
	if s.Digest == "" {
		s.Digest = DefaultDigest
	}
	return s, nil
}

// SaveSettings writes config.yml into the metadata directory.
func SaveSettings(fsys fs.FS, path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", path, err)
	}
	return nil
}
