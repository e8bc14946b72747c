package entities

import (
	"context"

	"github.com/dmitrijs2005/formsync/internal/models"
)

// Repository describes storage and lookup operations for entity lists.
type Repository interface {
	// Lists returns the names of all known lists.
	Lists(ctx context.Context) ([]string, error)

	// CreateList registers an empty list. Creating an existing list is a no-op.
	CreateList(ctx context.Context, list string) error

	// Save upserts entities into list, creating the list when needed.
	Save(ctx context.Context, list string, entities ...models.Entity) error

	// GetEntities returns the current entities of list in list order.
	GetEntities(ctx context.Context, list string) ([]models.Entity, error)

	// GetByID returns (nil, nil) when no entity has the id.
	GetByID(ctx context.Context, list, id string) (*models.Entity, error)

	// GetAllByProperty returns entities whose property name equals value
	// exactly, in list order.
	GetAllByProperty(ctx context.Context, list, name, value string) ([]models.Entity, error)
}
