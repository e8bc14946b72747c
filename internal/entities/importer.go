package entities

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/formsync/internal/common"
	"github.com/dmitrijs2005/formsync/internal/logging"
	"github.com/dmitrijs2005/formsync/internal/models"
)

// Writer is the repository surface an Importer needs.
type Writer interface {
	Save(ctx context.Context, list string, entities ...models.Entity) error
}

// Importer loads entity list files into the repository.
type Importer struct {
	repo Writer
	log  logging.Logger
}

func NewImporter(repo Writer, log logging.Logger) *Importer {
	return &Importer{repo: repo, log: log}
}

// ImportFile parses the CSV at path and saves its rows into listName. The
// list is created even when the file has no rows.
func (im *Importer) ImportFile(ctx context.Context, listName, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrLocalIO, err)
	}
	defer f.Close()

	items, err := ParseCSV(listName, f)
	if err != nil {
		return err
	}

	if err := im.repo.Save(ctx, listName, items...); err != nil {
		return fmt.Errorf("failed to save entity list %s: %w", listName, err)
	}

	im.log.Info(ctx, "entity list imported", "list", listName, "entities", len(items))
	return nil
}
