package object

import (
	"github.com/solovev/dirsnap/internal/digest"
	"github.com/solovev/dirsnap/internal/util"
)

// Status indicates the state of a stored object on disk.
type Status int

const (
	OK Status = iota
	Damaged
)

// Check is the verification result for a single object.
type Check struct {
	Digest digest.Digest
	Status Status
}

// Verify recomputes the digest of every stored object concurrently and
// streams results. The channel closes when the whole store has been
// checked.
func (c *Context) Verify(workers int) (<-chan Check, error) {
	digests, err := c.List()
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = util.WorkerCount()
	}

	out := make(chan Check, 128)
	go func() {
		defer close(out)
		_ = util.Parallel(digests, workers, func(d digest.Digest) error {
			out <- Check{Digest: d, Status: c.verifyOne(d)}
			return nil
		})
	}()
	return out, nil
}

func (c *Context) verifyOne(d digest.Digest) Status {
	data, err := c.Get(d)
	if err != nil {
		return Damaged
	}
	if c.Algo.Sum(data) != d {
		return Damaged
	}
	return OK
}
