// Package digest computes and compares content digests of media files.
//
// Digests are written as "<algorithm>:<hex>", e.g. "md5:5d41402abc4b2a76...".
// A bare hex string is read as md5, which is what form servers publish.
//
// Equal digests are treated as equal content. Cache.Matches is the only predicate
// the media resolver trusts when deciding to reuse or copy a file; file
// names are never trusted on their own.
package digest

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/formsync/internal/common"
	"golang.org/x/crypto/blake2b"
)

type Algorithm string

const (
	MD5     Algorithm = "md5"
	SHA256  Algorithm = "sha256"
	BLAKE2b Algorithm = "blake2b"
)

// Digest is a parsed content digest.
type Digest struct {
	Algo Algorithm
	Hex  string
}

func (d Digest) String() string {
	if d.IsZero() {
		return ""
	}
	return string(d.Algo) + ":" + d.Hex
}

func (d Digest) IsZero() bool {
	return d.Hex == ""
}

// Equal compares algorithm and value; hex case is ignored.
func (d Digest) Equal(o Digest) bool {
	if d.IsZero() || o.IsZero() {
		return false
	}
	return d.Algo == o.Algo && strings.EqualFold(d.Hex, o.Hex)
}

func newHash(a Algorithm) (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case SHA256:
		return sha256.New(), nil
	case BLAKE2b:
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %q", common.ErrInvalidDigest, a)
	}
}

func hexLen(a Algorithm) int {
	if a == MD5 {
		return md5.Size * 2
	}
	return 64
}

// Parse reads a digest string.
func Parse(s string) (Digest, error) {
	s = strings.TrimSpace(s)
	algo, value := MD5, s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		algo, value = Algorithm(strings.ToLower(s[:i])), s[i+1:]
	}

	if _, err := newHash(algo); err != nil {
		return Digest{}, err
	}
	if len(value) != hexLen(algo) {
		return Digest{}, fmt.Errorf("%w: %q has wrong length for %s", common.ErrInvalidDigest, s, algo)
	}
	if _, err := hex.DecodeString(value); err != nil {
		return Digest{}, fmt.Errorf("%w: %q is not hex", common.ErrInvalidDigest, s)
	}

	return Digest{Algo: algo, Hex: strings.ToLower(value)}, nil
}

// OfReader streams r through the algorithm.
func OfReader(r io.Reader, algo Algorithm) (Digest, error) {
	h, err := newHash(algo)
	if err != nil {
		return Digest{}, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, fmt.Errorf("failed to calculate digest: %w", err)
	}
	return Digest{Algo: algo, Hex: hex.EncodeToString(h.Sum(nil))}, nil
}

// OfFile digests the file at path.
func OfFile(path string, algo Algorithm) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return OfReader(f, algo)
}

// Hasher digests bytes written through it, for hashing a stream while it is
// being copied elsewhere.
type Hasher struct {
	algo Algorithm
	h    hash.Hash
}

func NewHasher(algo Algorithm) (*Hasher, error) {
	h, err := newHash(algo)
	if err != nil {
		return nil, err
	}
	return &Hasher{algo: algo, h: h}, nil
}

func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum returns the digest of everything written so far.
func (h *Hasher) Sum() Digest {
	return Digest{Algo: h.algo, Hex: hex.EncodeToString(h.h.Sum(nil))}
}
