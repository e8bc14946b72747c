package entities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/formsync/internal/dbx"
	"github.com/dmitrijs2005/formsync/internal/models"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Lists(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM entity_lists ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity lists: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan list name: %w", err)
		}
		result = append(result, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate list names: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) CreateList(ctx context.Context, list string) error {
	return createList(ctx, r.db, list)
}

func createList(ctx context.Context, db dbx.DBTX, list string) error {
	_, err := db.ExecContext(ctx, `INSERT INTO entity_lists (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, list)
	if err != nil {
		return fmt.Errorf("failed to create list %s: %w", list, err)
	}
	return nil
}

func (r *SQLiteRepository) Save(ctx context.Context, list string, entities ...models.Entity) error {
	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		if err := createList(ctx, tx, list); err != nil {
			return err
		}
		for _, e := range entities {
			if err := saveEntity(ctx, tx, list, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveEntity(ctx context.Context, tx dbx.DBTX, list string, e models.Entity) error {
	var (
		rowID   int64
		label   string
		version int64
	)

	err := tx.QueryRowContext(ctx, `SELECT row_id, label, version FROM entities WHERE list=? AND id=?`, list, e.ID).
		Scan(&rowID, &label, &version)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if e.Version == 0 {
			e.Version = 1
		}
		if e.BranchID == "" {
			e.BranchID = uuid.NewString()
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO entities (list, id, label, version, branch_id, trunk_version)
			VALUES (?, ?, ?, ?, ?, ?)`, list, e.ID, e.Label, e.Version, e.BranchID, e.TrunkVersion)
		if err != nil {
			return fmt.Errorf("failed to insert entity %s: %w", e.ID, err)
		}
		if rowID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get entity row id: %w", err)
		}

	case err != nil:
		return fmt.Errorf("failed to get entity %s: %w", e.ID, err)

	default:
		// Versions never go backwards; an older copy is ignored.
		if e.Version != 0 && e.Version < version {
			return nil
		}
		if e.Version == 0 {
			e.Version = version
		}
		if e.Label == "" {
			e.Label = label
		}

		_, err := tx.ExecContext(ctx, `UPDATE entities SET label=?, version=?, branch_id=COALESCE(NULLIF(?, ''), branch_id), trunk_version=?
			WHERE row_id=?`, e.Label, e.Version, e.BranchID, e.TrunkVersion, rowID)
		if err != nil {
			return fmt.Errorf("failed to update entity %s: %w", e.ID, err)
		}
	}

	for _, p := range e.Properties {
		_, err := tx.ExecContext(ctx, `INSERT INTO entity_properties (entity_row, position, name, value)
			VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM entity_properties WHERE entity_row = ?), ?, ?)
			ON CONFLICT(entity_row, name) DO UPDATE SET value = excluded.value`, rowID, rowID, p.Name, p.Value)
		if err != nil {
			return fmt.Errorf("failed to save property %s of entity %s: %w", p.Name, e.ID, err)
		}
	}

	return nil
}

func (r *SQLiteRepository) GetEntities(ctx context.Context, list string) ([]models.Entity, error) {
	return r.query(ctx, list, "1 = 1")
}

func (r *SQLiteRepository) GetByID(ctx context.Context, list, id string) (*models.Entity, error) {
	result, err := r.query(ctx, list, "e.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

func (r *SQLiteRepository) GetAllByProperty(ctx context.Context, list, name, value string) ([]models.Entity, error) {
	return r.query(ctx, list,
		"e.row_id IN (SELECT entity_row FROM entity_properties WHERE name = ? AND value = ?)", name, value)
}

// query loads the entities of list matching filter (an expression over
// alias e) together with their properties, inside one transaction.
func (r *SQLiteRepository) query(ctx context.Context, list string, filter string, args ...any) ([]models.Entity, error) {
	var result []models.Entity

	err := dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		entities, byRow, err := selectEntities(ctx, tx, list, filter, args)
		if err != nil || len(entities) == 0 {
			return err
		}
		if err := selectProperties(ctx, tx, list, filter, args, entities, byRow); err != nil {
			return err
		}
		result = entities
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func selectEntities(ctx context.Context, tx dbx.DBTX, list, filter string, args []any) ([]models.Entity, map[int64]int, error) {
	query := `SELECT e.row_id, e.id, e.label, e.version, e.branch_id, e.trunk_version, o.idx
		FROM entities e
		JOIN (SELECT row_id, ROW_NUMBER() OVER (ORDER BY row_id) AS idx FROM entities WHERE list = ?) o ON o.row_id = e.row_id
		WHERE e.list = ? AND ` + filter + `
		ORDER BY e.row_id`

	rows, err := tx.QueryContext(ctx, query, append([]any{list, list}, args...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("error selecting entities: %w", err)
	}
	defer rows.Close()

	var result []models.Entity
	byRow := make(map[int64]int)

	for rows.Next() {
		var (
			rowID int64
			trunk sql.NullInt64
			e     = models.Entity{List: list}
		)
		if err := rows.Scan(&rowID, &e.ID, &e.Label, &e.Version, &e.BranchID, &trunk, &e.Index); err != nil {
			return nil, nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		if trunk.Valid {
			v := trunk.Int64
			e.TrunkVersion = &v
		}
		byRow[rowID] = len(result)
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate entity rows: %w", err)
	}

	return result, byRow, nil
}

func selectProperties(ctx context.Context, tx dbx.DBTX, list, filter string, args []any, entities []models.Entity, byRow map[int64]int) error {
	query := `SELECT p.entity_row, p.name, p.value
		FROM entity_properties p
		JOIN entities e ON e.row_id = p.entity_row
		WHERE e.list = ? AND ` + filter + `
		ORDER BY p.entity_row, p.position`

	rows, err := tx.QueryContext(ctx, query, append([]any{list}, args...)...)
	if err != nil {
		return fmt.Errorf("error selecting entity properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rowID int64
			p     models.Property
		)
		if err := rows.Scan(&rowID, &p.Name, &p.Value); err != nil {
			return fmt.Errorf("failed to scan property row: %w", err)
		}
		if i, ok := byRow[rowID]; ok {
			entities[i].Properties = append(entities[i].Properties, p)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate property rows: %w", err)
	}

	return nil
}
