package snapshot

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/solovev/dirsnap/internal/codec"
	"github.com/solovev/dirsnap/internal/config"
	"github.com/solovev/dirsnap/internal/fs"
)

// Load reads and decompresses a stored artifact. Any mismatch — not a
// regular file, wrong extension, gzip or CBOR failure, payload without
// a tree — yields a nil artifact and a diagnostic error, never a
// panic: callers scanning many artifacts skip bad ones and continue.
func Load(fsys fs.FS, path string) (*Artifact, error) {
	fi, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("artifact %q: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("artifact %q: not a regular file", path)
	}
	if !strings.HasSuffix(path, config.ArtifactExt) {
		return nil, fmt.Errorf("artifact %q: missing %s extension", path, config.ArtifactExt)
	}

	rc, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("artifact %q: %w", path, err)
	}
	defer rc.Close()

	gz, err := gzip.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("artifact %q: decompress: %w", path, err)
	}
	defer gz.Close()

	payload, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("artifact %q: decompress: %w", path, err)
	}

	var artifact Artifact
	if err := codec.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("artifact %q: decode: %w", path, err)
	}
	if artifact.Tree == nil {
		return nil, fmt.Errorf("artifact %q: malformed payload: no tree", path)
	}
	return &artifact, nil
}
