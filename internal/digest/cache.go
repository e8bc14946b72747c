package digest

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
)

type cacheKey struct {
	path string
	algo Algorithm
}

// Cache memoizes file digests. It lives for one sync call; files written
// through Put are recorded so they are not re-read.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]Digest
}

func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]Digest)}
}

// File returns the digest of path. ok is false when the file does not exist.
func (c *Cache) File(path string, algo Algorithm) (d Digest, ok bool, err error) {
	k := cacheKey{path: filepath.Clean(path), algo: algo}

	c.mu.Lock()
	d, hit := c.entries[k]
	c.mu.Unlock()
	if hit {
		return d, true, nil
	}

	d, err = OfFile(path, algo)
	if errors.Is(err, os.ErrNotExist) {
		return Digest{}, false, nil
	}
	if err != nil {
		return Digest{}, false, err
	}

	c.Put(path, d)
	return d, true, nil
}

// Matches is the one content comparison the sync trusts: it hashes path
// with remote's algorithm and reports whether the bytes are the ones remote
// describes. local is the file's digest, zero when the file does not exist.
// A zero remote never matches; the file is then hashed with md5.
func (c *Cache) Matches(path string, remote Digest) (local Digest, match bool, err error) {
	algo := remote.Algo
	if algo == "" {
		algo = MD5
	}

	local, ok, err := c.File(path, algo)
	if err != nil || !ok {
		return Digest{}, false, err
	}
	return local, local.Equal(remote), nil
}

func (c *Cache) Put(path string, d Digest) {
	c.mu.Lock()
	c.entries[cacheKey{path: filepath.Clean(path), algo: d.Algo}] = d
	c.mu.Unlock()
}
