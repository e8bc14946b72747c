// Package formversions answers recency questions about the locally stored
// versions of a form. Every call reads through to the forms repository.
package formversions

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/formsync/internal/models"
	"github.com/dmitrijs2005/formsync/internal/repositories/forms"
)

type Index struct {
	repo forms.Repository
}

func NewIndex(repo forms.Repository) *Index {
	return &Index{repo: repo}
}

// VersionsOf returns all versions of formID, most recent first.
func (i *Index) VersionsOf(ctx context.Context, formID string) ([]models.FormVersion, error) {
	versions, err := i.repo.GetAllByFormID(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to load versions of form %s: %w", formID, err)
	}

	slices.SortStableFunc(versions, func(a, b models.FormVersion) int {
		switch {
		case a.NewerThan(b):
			return -1
		case b.NewerThan(a):
			return 1
		}
		return 0
	})

	return versions, nil
}

// MostRecent returns the newest version of formID, or nil when there is none.
func (i *Index) MostRecent(ctx context.Context, formID string) (*models.FormVersion, error) {
	return i.MostRecentOtherThan(ctx, formID, 0)
}

// MostRecentOtherThan returns the newest version of formID whose DbID is
// not excludeDbID, or nil. Zero excludes nothing.
func (i *Index) MostRecentOtherThan(ctx context.Context, formID string, excludeDbID int64) (*models.FormVersion, error) {
	versions, err := i.VersionsOf(ctx, formID)
	if err != nil {
		return nil, err
	}

	for _, v := range versions {
		if excludeDbID != 0 && v.DbID == excludeDbID {
			continue
		}
		return &v, nil
	}

	return nil, nil
}
