package tree

import (
	"fmt"
	"os"
	"sync"

	"github.com/zeebo/xxh3"
	"golang.org/x/exp/mmap"

	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/fs"
	"github.com/solovev/dirsnap/internal/util"
)

// mmapThreshold is the file size above which fingerprinting memory-maps
// the file instead of reading it through the FS.
const mmapThreshold = 4 * 1024 * 1024

// cacheRecord remembers what a file looked like when it was last
// digested. Size and mtime form the fast path; the xxh3 fingerprint
// catches touched-but-unchanged files without paying for the full
// content digest.
type cacheRecord struct {
	Size        int64         `json:"size"`
	MTimeNanos  int64         `json:"mtime"`
	Fingerprint string        `json:"fingerprint"`
	Digest      digest.Digest `json:"digest"`
}

// ScanCache maps working-tree relative paths to the digest computed on
// a previous snapshot. It is an optimization only: a cold or corrupt
// cache just means every file is digested from scratch.
type ScanCache struct {
	fsys    fs.FS
	path    string
	records map[string]cacheRecord
	dirty   bool
	mu      sync.Mutex
}

// LoadScanCache reads scancache.json. A missing or unparsable cache
// yields an empty one.
func LoadScanCache(fsys fs.FS, path string) *ScanCache {
	c := &ScanCache{fsys: fsys, path: path, records: make(map[string]cacheRecord)}
	if err := util.ReadJSON(fsys, path, &c.records); err != nil {
		c.records = make(map[string]cacheRecord)
	}
	return c
}

// Lookup returns the cached digest for rel if the file at full is
// provably unchanged.
func (c *ScanCache) Lookup(fsys fs.FS, full, rel string, fi os.FileInfo) (digest.Digest, bool) {
	c.mu.Lock()
	rec, ok := c.records[rel]
	c.mu.Unlock()
	if !ok || rec.Size != fi.Size() {
		return "", false
	}

	if rec.MTimeNanos == fi.ModTime().UnixNano() {
		return rec.Digest, true
	}

	// mtime changed: check the fast fingerprint before giving up.
	fp, err := fingerprint(fsys, full, fi.Size())
	if err != nil || fp != rec.Fingerprint {
		return "", false
	}

	c.mu.Lock()
	rec.MTimeNanos = fi.ModTime().UnixNano()
	c.records[rel] = rec
	c.dirty = true
	c.mu.Unlock()
	return rec.Digest, true
}

// Store records the digest computed for the file at full, keyed by
// its working-tree relative path.
func (c *ScanCache) Store(full, rel string, fi os.FileInfo, d digest.Digest) {
	fp, err := fingerprint(c.fsys, full, fi.Size())
	if err != nil {
		fp = ""
	}
	c.mu.Lock()
	c.records[rel] = cacheRecord{
		Size:        fi.Size(),
		MTimeNanos:  fi.ModTime().UnixNano(),
		Fingerprint: fp,
		Digest:      d,
	}
	c.dirty = true
	c.mu.Unlock()
}

// Save persists the cache if anything changed.
func (c *ScanCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := util.WriteJSON(c.fsys, c.path, c.records); err != nil {
		return fmt.Errorf("save scan cache: %w", err)
	}
	c.dirty = false
	return nil
}

// fingerprint computes the xxh3-128 of the file's content. Large files
// are memory-mapped; smaller ones (and files only visible through a
// non-OS FS) are read normally.
func fingerprint(fsys fs.FS, path string, size int64) (string, error) {
	if size >= mmapThreshold {
		if fp, err := fingerprintMmap(path, size); err == nil {
			return fp, nil
		}
		// fall through to a plain read
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := xxh3.Hash128(data).Bytes()
	return fmt.Sprintf("%x", sum[:]), nil
}

func fingerprintMmap(path string, size int64) (string, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	data := make([]byte, size)
	if _, err := reader.ReadAt(data, 0); err != nil {
		return "", err
	}
	sum := xxh3.Hash128(data).Bytes()
	return fmt.Sprintf("%x", sum[:]), nil
}
