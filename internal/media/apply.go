package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/formsync/internal/common"
	"github.com/dmitrijs2005/formsync/internal/digest"
	"github.com/dmitrijs2005/formsync/internal/filex"
	"github.com/dmitrijs2005/formsync/internal/mediasource"
	"github.com/dmitrijs2005/formsync/internal/models"
)

// Apply carries out d for file and returns the digest of the file now in
// the target directory. Reuse writes nothing; copy and download each write
// exactly one file, atomically.
func (r *Resolver) Apply(ctx context.Context, target Target, file models.MediaFile, d Decision, src mediasource.Source) (digest.Digest, error) {
	dst := target.Path(file.FileName)

	switch d.Action {
	case ActionReuseExisting:
		return d.Baseline, nil

	case ActionCopyFromPrior:
		if _, err := filex.CopyFile(d.Source, dst); err != nil {
			return digest.Digest{}, fmt.Errorf("%w: copy %s: %w", common.ErrLocalIO, d.Source, err)
		}
		// The copy is byte-identical, so it inherits the source digest.
		final, _, err := r.cache.File(d.Source, d.Remote.Algo)
		if err != nil {
			return digest.Digest{}, fmt.Errorf("%w: %w", common.ErrLocalIO, err)
		}
		r.cache.Put(dst, final)
		return final, nil

	case ActionDownload:
		return r.download(ctx, dst, file, d, src)

	default:
		return digest.Digest{}, fmt.Errorf("unknown media action %v", d.Action)
	}
}

func (r *Resolver) download(ctx context.Context, dst string, file models.MediaFile, d Decision, src mediasource.Source) (digest.Digest, error) {
	if src == nil {
		return digest.Digest{}, fmt.Errorf("%w: no media source for %s", common.ErrTransferFailure, file.FileName)
	}

	rc, err := src.Fetch(ctx, file.DownloadURL)
	if err != nil {
		if !errors.Is(err, common.ErrTransferFailure) {
			err = fmt.Errorf("%w: %w", common.ErrTransferFailure, err)
		}
		return digest.Digest{}, err
	}
	defer rc.Close()

	algo := d.Remote.Algo
	if algo == "" {
		algo = digest.MD5
	}
	h, err := digest.NewHasher(algo)
	if err != nil {
		return digest.Digest{}, err
	}

	if _, err := filex.WriteFileAtomic(dst, io.TeeReader(rc, h)); err != nil {
		var re *filex.ReadError
		if errors.As(err, &re) {
			return digest.Digest{}, fmt.Errorf("%w: read %s: %w", common.ErrTransferFailure, file.DownloadURL, re.Err)
		}
		return digest.Digest{}, fmt.Errorf("%w: %w", common.ErrLocalIO, err)
	}

	final := h.Sum()
	r.cache.Put(dst, final)

	if !d.Remote.IsZero() && !final.Equal(d.Remote) {
		r.log.Warn(ctx, "downloaded media does not match manifest digest",
			"file", file.FileName, "expected", d.Remote.String(), "actual", final.String())
	}

	return final, nil
}
