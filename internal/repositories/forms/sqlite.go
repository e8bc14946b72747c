package forms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/formsync/internal/common"
	"github.com/dmitrijs2005/formsync/internal/dbx"
	"github.com/dmitrijs2005/formsync/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, f *models.FormVersion) error {

	if f.DbID == 0 {
		query := `INSERT INTO forms (form_id, version, date, form_file_path, media_path) VALUES (?, ?, ?, ?, ?)`
		res, err := r.db.ExecContext(ctx, query, f.FormID, f.Version, f.Date, f.FormFilePath, f.MediaPath)
		if err != nil {
			return fmt.Errorf("failed to insert form: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get form id: %w", err)
		}
		f.DbID = id
		return nil
	}

	query := `UPDATE forms SET form_id=?, version=?, date=?, form_file_path=?, media_path=? WHERE id=?`
	res, err := r.db.ExecContext(ctx, query, f.FormID, f.Version, f.Date, f.FormFilePath, f.MediaPath, f.DbID)
	if err != nil {
		return fmt.Errorf("failed to update form: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("form %d: %w", f.DbID, common.ErrorNotFound)
	}

	return nil
}

func (r *SQLiteRepository) GetAllByFormID(ctx context.Context, formID string) ([]models.FormVersion, error) {

	query := `SELECT id, form_id, version, date, form_file_path, media_path FROM forms
		WHERE form_id=? ORDER BY date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, formID)
	if err != nil {
		return nil, fmt.Errorf("error selecting forms: %w", err)
	}
	defer rows.Close()

	var result []models.FormVersion

	for rows.Next() {
		var f models.FormVersion
		if err := rows.Scan(&f.DbID, &f.FormID, &f.Version, &f.Date, &f.FormFilePath, &f.MediaPath); err != nil {
			return nil, fmt.Errorf("failed to scan form row: %w", err)
		}
		result = append(result, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate form rows: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, dbID int64) (*models.FormVersion, error) {

	query := `SELECT id, form_id, version, date, form_file_path, media_path FROM forms WHERE id=?`
	row := r.db.QueryRowContext(ctx, query, dbID)

	f := &models.FormVersion{}
	err := row.Scan(&f.DbID, &f.FormID, &f.Version, &f.Date, &f.FormFilePath, &f.MediaPath)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("form %d: %w", dbID, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}

	return f, nil
}
