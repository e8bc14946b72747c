package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/formsync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetManifestHash(ctx context.Context, key ManifestKey) (*string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT hash FROM manifest_hashes WHERE form_id = ? AND version = ? AND media_dir = ?`,
		key.FormID, key.Version, key.MediaDir).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest hash of %s/%s: %w", key.FormID, key.Version, err)
	}
	return &hash, nil
}

func (r *SQLiteRepository) SetManifestHash(ctx context.Context, key ManifestKey, hash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO manifest_hashes (form_id, version, media_dir, hash) VALUES (?, ?, ?, ?)
		ON CONFLICT(form_id, version, media_dir) DO UPDATE SET hash = excluded.hash
	`, key.FormID, key.Version, key.MediaDir, hash)
	if err != nil {
		return fmt.Errorf("failed to set manifest hash of %s/%s: %w", key.FormID, key.Version, err)
	}
	return nil
}
