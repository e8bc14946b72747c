// Package metadata keeps what the media sync remembers between runs: the
// manifest hash of the last complete sync of each form version's media
// directory.
package metadata

import (
	"context"
)

// ManifestKey identifies one synced media directory. MediaDir is the
// absolute path, so two downloads of a version into different directories
// are tracked separately.
type ManifestKey struct {
	FormID   string
	Version  string
	MediaDir string
}

type Repository interface {
	// GetManifestHash returns (nil, nil) when nothing was stored for key.
	GetManifestHash(ctx context.Context, key ManifestKey) (*string, error)
	SetManifestHash(ctx context.Context, key ManifestKey, hash string) error
}
