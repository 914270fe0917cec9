package digest

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/zeebo/blake3"
)

// Algorithm selects the content hash used for addressing. It is a
// store-wide constant chosen at init time and persisted in the repo
// settings: changing it invalidates every digest already stored.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	BLAKE3 Algorithm = "blake3"
)

// Digest is the lowercase hex fingerprint of some content. The hex
// form is the addressing key throughout the store.
type Digest string

// Parse validates an algorithm name from the repo settings.
func Parse(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case SHA1:
		return SHA1, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unknown digest algorithm %q", name)
	}
}

// New returns a fresh hasher for the algorithm.
func (a Algorithm) New() hash.Hash {
	switch a {
	case BLAKE3:
		return blake3.New()
	default:
		return sha1.New()
	}
}

// Size returns the raw digest length in bytes.
func (a Algorithm) Size() int {
	switch a {
	case BLAKE3:
		return 32
	default:
		return sha1.Size
	}
}

// HexLen returns the length of the hex-encoded digest.
func (a Algorithm) HexLen() int {
	return a.Size() * 2
}

// Sum computes the digest of data.
func (a Algorithm) Sum(data []byte) Digest {
	h := a.New()
	h.Write(data)
	return Digest(hex.EncodeToString(h.Sum(nil)))
}

// SumReader computes the digest of everything readable from r.
func (a Algorithm) SumReader(r io.Reader) (Digest, error) {
	h := a.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash stream: %w", err)
	}
	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// Raw decodes the digest back to raw bytes.
func (d Digest) Raw() ([]byte, error) {
	raw, err := hex.DecodeString(string(d))
	if err != nil {
		return nil, fmt.Errorf("decode digest %q: %w", d, err)
	}
	return raw, nil
}

func (d Digest) String() string { return string(d) }

// Valid reports whether d looks like a digest of algorithm a.
func (d Digest) Valid(a Algorithm) bool {
	if len(d) != a.HexLen() {
		return false
	}
	_, err := hex.DecodeString(string(d))
	return err == nil
}
