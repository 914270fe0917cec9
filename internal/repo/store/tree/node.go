package tree

import (
	"encoding/hex"
	"path"
	"sort"

	"github.com/solovev/dirsnap/internal/digest"
)

// Kind distinguishes blob and tree nodes.
type Kind uint8

const (
	KindBlob Kind = 1
	KindTree Kind = 2
)

// TreeNode is one entry of a snapshot at hashing time: a file (blob)
// or a directory (tree). A tree's digest is a pure function of its
// sorted children's (kind, name, digest) records, so it does not
// depend on filesystem enumeration order.
type TreeNode struct {
	Kind     Kind          `cbor:"kind"`
	Name     string        `cbor:"name"`
	Digest   digest.Digest `cbor:"digest"`
	Children []*TreeNode   `cbor:"children,omitempty"`
}

// FileEntry locates one blob inside a snapshot: slash-separated path
// relative to the snapshot root, plus its content digest.
type FileEntry struct {
	Path   string        `cbor:"path"`
	Digest digest.Digest `cbor:"digest"`
}

// sortChildren orders children by name ascending, byte order. Required
// before hashing: the digest is computed over the sorted sequence.
func sortChildren(children []*TreeNode) {
	sort.Slice(children, func(i, j int) bool {
		return children[i].Name < children[j].Name
	})
}

// record returns the node's contribution to its parent digest:
// kind byte, name, NUL, raw digest bytes. Names cannot contain NUL
// and digests are fixed-size, so no (kind, name, digest) tuple can
// collide with another's encoding.
func (n *TreeNode) record() ([]byte, error) {
	raw, err := n.Digest.Raw()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 2+len(n.Name)+len(raw))
	buf = append(buf, byte(n.Kind))
	buf = append(buf, n.Name...)
	buf = append(buf, 0)
	buf = append(buf, raw...)
	return buf, nil
}

// hashChildren computes a tree digest over already-sorted children.
// An empty directory hashes to the digest of empty input.
func hashChildren(algo digest.Algorithm, children []*TreeNode) (digest.Digest, error) {
	h := algo.New()
	for _, c := range children {
		rec, err := c.record()
		if err != nil {
			return "", err
		}
		h.Write(rec)
	}
	return digest.Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// Files returns every blob reachable from n as a flat list of
// (relative path, digest) pairs, in walk order. The root node's own
// name is not part of the paths.
func (n *TreeNode) Files() []FileEntry {
	var out []FileEntry
	n.walk(func(rel string, node *TreeNode) {
		if node.Kind == KindBlob {
			out = append(out, FileEntry{Path: rel, Digest: node.Digest})
		}
	})
	return out
}

// walk visits every node below n with its slash-separated relative
// path. Iterative with an explicit stack, so arbitrarily deep trees
// cannot exhaust the goroutine stack.
func (n *TreeNode) walk(fn func(rel string, node *TreeNode)) {
	type frame struct {
		node *TreeNode
		rel  string
	}
	stack := []frame{}
	for i := len(n.Children) - 1; i >= 0; i-- {
		c := n.Children[i]
		stack = append(stack, frame{node: c, rel: c.Name})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(f.rel, f.node)
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			c := f.node.Children[i]
			stack = append(stack, frame{node: c, rel: path.Join(f.rel, c.Name)})
		}
	}
}

// Walk exposes the iterative traversal for consumers outside the
// package (restoration walks the tree to recreate directories).
func (n *TreeNode) Walk(fn func(rel string, node *TreeNode)) {
	n.walk(fn)
}
