package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/formsync/internal/common"
	"github.com/dmitrijs2005/formsync/internal/digest"
	"github.com/dmitrijs2005/formsync/internal/entities"
	"github.com/dmitrijs2005/formsync/internal/filex"
	"github.com/dmitrijs2005/formsync/internal/formversions"
	"github.com/dmitrijs2005/formsync/internal/logging"
	"github.com/dmitrijs2005/formsync/internal/media"
	"github.com/dmitrijs2005/formsync/internal/mediasource"
	"github.com/dmitrijs2005/formsync/internal/models"
	"github.com/dmitrijs2005/formsync/internal/repositories/metadata"
)

// Outcome reports a media sync. Changed is set when at least one file now
// holds bytes different from what stood for it before the sync.
type Outcome struct {
	Success bool
	Changed bool
}

// EntityListImporter loads an entity list file that arrived as media.
type EntityListImporter interface {
	ImportFile(ctx context.Context, listName, path string) error
}

type MediaSyncService interface {
	// SyncMedia brings form's media directory in line with manifest. Files
	// are processed in manifest order; a file that fails does not stop the
	// others, and the returned error joins every failure.
	SyncMedia(ctx context.Context, form models.FormVersion, manifest models.Manifest, src mediasource.Source) (Outcome, error)
}

type mediaSyncService struct {
	index    *formversions.Index
	hashes   metadata.Repository
	importer EntityListImporter
	log      logging.Logger
}

// NewMediaSyncService wires the sync. importer may be nil, in which case
// entity list files are stored like any other media.
func NewMediaSyncService(index *formversions.Index, hashes metadata.Repository, importer EntityListImporter, log logging.Logger) MediaSyncService {
	return &mediaSyncService{index: index, hashes: hashes, importer: importer, log: log}
}

func (s *mediaSyncService) SyncMedia(ctx context.Context, form models.FormVersion, manifest models.Manifest, src mediasource.Source) (Outcome, error) {
	log := s.log.With("form_id", form.FormID, "version", form.Version)

	if err := manifest.Validate(); err != nil {
		return Outcome{}, err
	}

	// The stored hash belongs to one directory; a copy of the same version
	// elsewhere is synced on its own.
	dir, err := filepath.Abs(form.MediaPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", common.ErrLocalIO, err)
	}
	key := metadata.ManifestKey{FormID: form.FormID, Version: form.Version, MediaDir: dir}

	stored, err := s.hashes.GetManifestHash(ctx, key)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to read stored manifest hash: %w", err)
	}

	if manifest.Hash != nil && stored != nil && *manifest.Hash == *stored {
		log.Debug(ctx, "manifest unchanged, skipping media")
		return Outcome{Success: true}, nil
	}

	if len(manifest.Files) == 0 {
		s.storeHash(ctx, log, key, manifest)
		return Outcome{Success: true, Changed: manifest.Hash != nil}, nil
	}

	target, priors, err := s.prepare(ctx, form)
	if err != nil {
		return Outcome{}, err
	}

	resolver := media.NewResolver(digest.NewCache(), log)

	var (
		errs    []error
		changed bool
	)

	for _, f := range manifest.Files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		fileChanged, err := s.syncFile(ctx, log, resolver, target, f, priors, src)
		if err != nil {
			log.Error(ctx, "media file failed", "file", f.FileName, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", f.FileName, err))
			continue
		}
		changed = changed || fileChanged
	}

	if len(errs) > 0 {
		return Outcome{Changed: changed}, errors.Join(errs...)
	}

	s.storeHash(ctx, log, key, manifest)

	log.Info(ctx, "media synced", "files", len(manifest.Files), "changed", changed)
	return Outcome{Success: true, Changed: changed}, nil
}

// prepare creates the media directory and collects the versions that may
// supply files: every other version of the form with its own directory.
func (s *mediaSyncService) prepare(ctx context.Context, form models.FormVersion) (media.Target, []models.FormVersion, error) {
	dir, err := filex.EnsureDir(form.MediaPath)
	if err != nil {
		return media.Target{}, nil, fmt.Errorf("%w: %w", common.ErrLocalIO, err)
	}

	existing, err := filex.ListFileNames(dir)
	if err != nil {
		return media.Target{}, nil, fmt.Errorf("%w: %w", common.ErrLocalIO, err)
	}

	versions, err := s.index.VersionsOf(ctx, form.FormID)
	if err != nil {
		return media.Target{}, nil, err
	}

	priors := make([]models.FormVersion, 0, len(versions))
	for _, v := range versions {
		if form.DbID != 0 && v.DbID == form.DbID {
			continue
		}
		if samePath(v.MediaPath, dir) {
			continue
		}
		priors = append(priors, v)
	}

	return media.Target{Dir: dir, Existing: existing}, priors, nil
}

func (s *mediaSyncService) syncFile(ctx context.Context, log logging.Logger, r *media.Resolver, target media.Target,
	f models.MediaFile, priors []models.FormVersion, src mediasource.Source) (bool, error) {

	d, err := r.Resolve(ctx, target, f, priors)
	if err != nil {
		return false, err
	}

	final, err := r.Apply(ctx, target, f, d, src)
	if err != nil {
		return false, err
	}

	changed := !final.Equal(d.Baseline)
	log.Debug(ctx, "media file materialized", "file", f.FileName, "action", d.Action.String(), "changed", changed)

	if f.IsEntityList && s.importer != nil {
		list := entities.ListNameFromFile(f.FileName)
		if err := s.importer.ImportFile(ctx, list, target.Path(f.FileName)); err != nil {
			return changed, err
		}
	}

	return changed, nil
}

// storeHash records the manifest hash after a complete sync. A failure only
// costs a full re-check next time, so it is logged and not returned.
func (s *mediaSyncService) storeHash(ctx context.Context, log logging.Logger, key metadata.ManifestKey, manifest models.Manifest) {
	if manifest.Hash == nil {
		return
	}
	if err := s.hashes.SetManifestHash(ctx, key, *manifest.Hash); err != nil {
		log.Warn(ctx, "failed to store manifest hash", "error", err)
	}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
