// Package mediasource fetches media bytes named by a manifest download URL.
//
// Every failure to obtain the remote stream wraps common.ErrTransferFailure
// so callers can tell it apart from local filesystem errors.
package mediasource

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/dmitrijs2005/formsync/internal/common"
)

// Source opens the byte stream behind a download URL. The caller closes
// the returned reader.
type Source interface {
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, rawURL string) (io.ReadCloser, error)

func (f SourceFunc) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	return f(ctx, rawURL)
}

// Router dispatches a URL to the Source registered for its scheme.
type Router struct {
	sources map[string]Source
}

func NewRouter() *Router {
	return &Router{sources: make(map[string]Source)}
}

// Handle registers src for the given URL schemes, replacing earlier entries.
func (r *Router) Handle(src Source, schemes ...string) *Router {
	for _, s := range schemes {
		r.sources[strings.ToLower(s)] = src
	}
	return r
}

func (r *Router) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %w", common.ErrTransferFailure, rawURL, err)
	}

	src, ok := r.sources[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported url scheme %q", common.ErrTransferFailure, u.Scheme)
	}

	return src.Fetch(ctx, rawURL)
}

// FileSource serves file:// URLs from the local filesystem, for sideloaded
// media.
type FileSource struct{}

func (FileSource) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTransferFailure, err)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "file" {
		return nil, fmt.Errorf("%w: not a file url: %q", common.ErrTransferFailure, rawURL)
	}

	f, err := os.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTransferFailure, err)
	}
	return f, nil
}
