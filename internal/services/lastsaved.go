package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/formsync/internal/common"
	"github.com/dmitrijs2005/formsync/internal/filex"
	"github.com/dmitrijs2005/formsync/internal/formversions"
	"github.com/dmitrijs2005/formsync/internal/logging"
)

type LastSavedService interface {
	// CarryForward copies the last-saved file of the newest stored version
	// of formID into destMediaDir. Without such a version or file it does
	// nothing.
	CarryForward(ctx context.Context, formID, destMediaDir string) error
}

type lastSavedService struct {
	index *formversions.Index
	log   logging.Logger
}

func NewLastSavedService(index *formversions.Index, log logging.Logger) LastSavedService {
	return &lastSavedService{index: index, log: log}
}

func (s *lastSavedService) CarryForward(ctx context.Context, formID, destMediaDir string) error {
	newest, err := s.index.MostRecent(ctx, formID)
	if err != nil {
		return err
	}
	if newest == nil {
		return nil
	}

	src := filepath.Join(newest.MediaPath, common.LastSavedFileName)
	if !filex.Exists(src) {
		return nil
	}

	dst := filepath.Join(destMediaDir, common.LastSavedFileName)
	if samePath(src, dst) {
		return nil
	}

	if _, err := filex.EnsureDir(destMediaDir); err != nil {
		return fmt.Errorf("%w: %w", common.ErrLocalIO, err)
	}
	if _, err := filex.CopyFile(src, dst); err != nil {
		return fmt.Errorf("%w: carry forward %s: %w", common.ErrLocalIO, src, err)
	}

	s.log.Debug(ctx, "last-saved file carried forward", "form_id", formID, "from", newest.MediaPath, "to", destMediaDir)
	return nil
}
