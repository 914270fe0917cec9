package snaplog

import (
	"fmt"
	"path/filepath"

	"github.com/solovev/dirsnap/internal/codec"
	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/fs"
)

// Entry records one successful snapshot. Entries are appended once and
// never mutated or removed.
type Entry struct {
	Name string        `cbor:"name"`
	Root digest.Digest `cbor:"root"`
}

// Log is the append-style record of snapshot name/root pairs used for
// duplicate detection. On disk it is a CBOR list rewritten in full on
// each append; logically it is append-only.
type Log struct {
	Path string
	FS   fs.FS
}

// NewLog creates a log handle for the given file.
func NewLog(path string, fsys fs.FS) *Log {
	return &Log{Path: path, FS: fsys}
}

// Entries reads the full log. A log file that does not exist yet is an
// empty log, not an error.
func (l *Log) Entries() ([]Entry, error) {
	data, err := l.FS.ReadFile(l.Path)
	if err != nil {
		if l.FS.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot log %q: %w", l.Path, err)
	}
	var entries []Entry
	if err := codec.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse snapshot log %q: %w", l.Path, err)
	}
	return entries, nil
}

// ExistsName reports whether a snapshot with the given name is logged.
// If the log cannot be read or parsed the answer is true: failing
// closed refuses a snapshot rather than silently overwriting history.
func (l *Log) ExistsName(name string) bool {
	entries, err := l.Entries()
	if err != nil {
		return true
	}
	for _, e := range entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

// ExistsDigest reports whether any logged snapshot has the given root
// digest. Fails closed like ExistsName.
func (l *Log) ExistsDigest(d digest.Digest) bool {
	entries, err := l.Entries()
	if err != nil {
		return true
	}
	for _, e := range entries {
		if e.Root == d {
			return true
		}
	}
	return false
}

// Append rewrites the log with the new entry added. Unlike the
// existence checks, a read or write failure here is fatal for the
// snapshot: appending against unreadable history would corrupt it.
func (l *Log) Append(entry Entry) error {
	entries, err := l.Entries()
	if err != nil {
		return fmt.Errorf("append to snapshot log: %w", err)
	}
	entries = append(entries, entry)

	data, err := codec.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode snapshot log: %w", err)
	}

	dir := filepath.Dir(l.Path)
	tmp, tmpPath, err := l.FS.CreateTempFile(dir, ".tmp-log-*")
	if err != nil {
		return fmt.Errorf("create temp log in %q: %w", dir, err)
	}
	defer l.FS.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := l.FS.Rename(tmpPath, l.Path); err != nil {
		return fmt.Errorf("replace snapshot log %q: %w", l.Path, err)
	}
	return nil
}
