// Package media decides how each manifest file gets into a form version's
// media directory and performs that decision.
//
// A file is reused when the target already holds the right bytes, copied
// when an older version of the same form has them, and downloaded
// otherwise. Only digests decide; a matching file name alone never does.
package media

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/formsync/internal/common"
	"github.com/dmitrijs2005/formsync/internal/digest"
	"github.com/dmitrijs2005/formsync/internal/logging"
	"github.com/dmitrijs2005/formsync/internal/models"
)

type Action int

const (
	ActionReuseExisting Action = iota
	ActionCopyFromPrior
	ActionDownload
)

func (a Action) String() string {
	switch a {
	case ActionReuseExisting:
		return "reuse"
	case ActionCopyFromPrior:
		return "copy"
	case ActionDownload:
		return "download"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Target is the media directory being filled and the file names it held
// when the sync started.
type Target struct {
	Dir      string
	Existing map[string]struct{}
}

func (t Target) Has(name string) bool {
	_, ok := t.Existing[name]
	return ok
}

func (t Target) Path(name string) string {
	return filepath.Join(t.Dir, name)
}

// Decision is the outcome of Resolve.
type Decision struct {
	Action Action

	// Source is the prior file to copy for ActionCopyFromPrior and the
	// download URL for ActionDownload.
	Source string

	// Remote is the parsed manifest digest; zero when the manifest value
	// could not be parsed.
	Remote digest.Digest

	// Baseline is the digest of the content that stood for this file before
	// the sync: the target's own copy, else the newest prior version's file
	// of the same name. Zero when neither exists.
	Baseline digest.Digest
}

type Resolver struct {
	cache *digest.Cache
	log   logging.Logger
}

// NewResolver returns a resolver hashing through cache, which should live
// no longer than one sync.
func NewResolver(cache *digest.Cache, log logging.Logger) *Resolver {
	return &Resolver{cache: cache, log: log}
}

// Resolve picks the action for file. priors are the other versions of the
// same form, most recent first.
func (r *Resolver) Resolve(ctx context.Context, target Target, file models.MediaFile, priors []models.FormVersion) (Decision, error) {
	d := Decision{Action: ActionDownload, Source: file.DownloadURL}

	remote, err := digest.Parse(file.Hash)
	if err != nil {
		r.log.Warn(ctx, "unusable media digest, file will be downloaded", "file", file.FileName, "hash", file.Hash, "error", err)
	}
	d.Remote = remote

	if target.Has(file.FileName) {
		local, match, err := r.cache.Matches(target.Path(file.FileName), remote)
		if err != nil {
			return d, fmt.Errorf("%w: %w", common.ErrLocalIO, err)
		}
		d.Baseline = local
		if match {
			d.Action, d.Source = ActionReuseExisting, ""
			return d, nil
		}
	}

	for _, p := range priors {
		if err := ctx.Err(); err != nil {
			return d, err
		}

		path := filepath.Join(p.MediaPath, file.FileName)
		got, match, err := r.cache.Matches(path, remote)
		if err != nil {
			// An unreadable prior only loses a copy opportunity.
			r.log.Warn(ctx, "skipping unreadable prior media file", "path", path, "error", err)
			continue
		}
		if d.Baseline.IsZero() {
			d.Baseline = got
		}
		if match {
			d.Action, d.Source = ActionCopyFromPrior, path
			return d, nil
		}
	}

	return d, nil
}
