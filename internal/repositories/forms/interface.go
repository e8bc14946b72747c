package forms

import (
	"context"

	"github.com/dmitrijs2005/formsync/internal/models"
)

// Repository describes storage operations for FormVersion records.
type Repository interface {
	// Save inserts the record when DbID is zero (assigning DbID) and updates
	// it otherwise.
	Save(ctx context.Context, form *models.FormVersion) error

	// GetAllByFormID returns every version of formID, most recent first.
	GetAllByFormID(ctx context.Context, formID string) ([]models.FormVersion, error)

	// Get returns the record with the given DbID or common.ErrorNotFound.
	Get(ctx context.Context, dbID int64) (*models.FormVersion, error)
}
