package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/formsync/internal/formversions"
	"github.com/dmitrijs2005/formsync/internal/logging"
	"github.com/dmitrijs2005/formsync/internal/mediasource"
	"github.com/dmitrijs2005/formsync/internal/models"
	"github.com/dmitrijs2005/formsync/internal/repositories/forms"
)

// FormDownload describes one form version fetched from a server, with its
// definition already on disk and its media still to be synced.
type FormDownload struct {
	FormID       string          `json:"formId"`
	Version      string          `json:"version"`
	FormFilePath string          `json:"formFilePath"`
	MediaPath    string          `json:"mediaPath"`
	Manifest     models.Manifest `json:"manifest"`
}

type DownloadResult struct {
	Form    models.FormVersion
	Changed bool
}

type FormDownloadService interface {
	// Download syncs the media of d, carries the last-saved file forward from
	// the previous version and records d as the newest version of its form.
	// Nothing is recorded when the media sync fails.
	Download(ctx context.Context, d FormDownload, src mediasource.Source) (DownloadResult, error)
}

type formDownloadService struct {
	forms     forms.Repository
	index     *formversions.Index
	media     MediaSyncService
	lastSaved LastSavedService
	log       logging.Logger

	now func() time.Time
}

func NewFormDownloadService(formsRepo forms.Repository, index *formversions.Index, mediaSync MediaSyncService,
	lastSaved LastSavedService, log logging.Logger) FormDownloadService {
	return &formDownloadService{
		forms:     formsRepo,
		index:     index,
		media:     mediaSync,
		lastSaved: lastSaved,
		log:       log,
		now:       time.Now,
	}
}

func (s *formDownloadService) Download(ctx context.Context, d FormDownload, src mediasource.Source) (DownloadResult, error) {
	form, err := s.existingOrNew(ctx, d)
	if err != nil {
		return DownloadResult{}, err
	}

	out, err := s.media.SyncMedia(ctx, form, d.Manifest, src)
	if err != nil {
		return DownloadResult{Form: form, Changed: out.Changed}, fmt.Errorf("media sync of form %s version %s failed: %w", d.FormID, d.Version, err)
	}

	if err := s.lastSaved.CarryForward(ctx, form.FormID, form.MediaPath); err != nil {
		return DownloadResult{Form: form, Changed: out.Changed}, err
	}

	form.Date = s.now().UnixMilli()
	if err := s.forms.Save(ctx, &form); err != nil {
		return DownloadResult{Form: form, Changed: out.Changed}, fmt.Errorf("failed to save form %s: %w", d.FormID, err)
	}

	s.log.Info(ctx, "form downloaded", "form_id", form.FormID, "version", form.Version, "db_id", form.DbID, "media_changed", out.Changed)
	return DownloadResult{Form: form, Changed: out.Changed}, nil
}

// existingOrNew returns the stored record for the same version and media
// directory when there is one, so downloading a version twice updates it
// instead of adding a duplicate.
func (s *formDownloadService) existingOrNew(ctx context.Context, d FormDownload) (models.FormVersion, error) {
	form := models.FormVersion{
		FormID:       d.FormID,
		Version:      d.Version,
		FormFilePath: d.FormFilePath,
		MediaPath:    d.MediaPath,
	}

	versions, err := s.index.VersionsOf(ctx, d.FormID)
	if err != nil {
		return form, err
	}

	for _, v := range versions {
		if v.Version == d.Version && samePath(v.MediaPath, d.MediaPath) {
			form.DbID = v.DbID
			form.Date = v.Date
			break
		}
	}

	return form, nil
}
