package entities

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/formsync/internal/common"
	"github.com/dmitrijs2005/formsync/internal/models"
)

// ListNameFromFile derives an entity list name from its media file name,
// e.g. "trees.csv" is list "trees".
func ListNameFromFile(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseCSV reads an entity list file. The header must contain "name"; the
// reserved columns label, __version, __trunkVersion and __branchId are
// optional and every other column becomes a property in header order.
// Rows without __version get version 1.
func ParseCSV(listName string, r io.Reader) ([]models.Entity, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: empty file", common.ErrInvalidEntityList, listName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrInvalidEntityList, listName, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		if h == "" {
			return nil, fmt.Errorf("%w: %s: empty column name at %d", common.ErrInvalidEntityList, listName, i+1)
		}
		if _, dup := cols[h]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate column %q", common.ErrInvalidEntityList, listName, h)
		}
		cols[h] = i
	}
	if _, ok := cols[FieldName]; !ok {
		return nil, fmt.Errorf("%w: %s: missing %q column", common.ErrInvalidEntityList, listName, FieldName)
	}

	var result []models.Entity
	seen := make(map[string]int)

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", common.ErrInvalidEntityList, listName, err)
		}

		e, err := parseRow(listName, header, cols, rec)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %w", common.ErrInvalidEntityList, listName, line, err)
		}

		// A later row for the same id replaces the earlier one.
		if i, ok := seen[e.ID]; ok {
			result[i] = e
			continue
		}
		seen[e.ID] = len(result)
		result = append(result, e)
	}

	return result, nil
}

func parseRow(listName string, header []string, cols map[string]int, rec []string) (models.Entity, error) {
	get := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return rec[i], true
	}

	e := models.Entity{List: listName, Version: 1}

	e.ID, _ = get(FieldName)
	if e.ID == "" {
		return e, errors.New("empty name")
	}
	e.Label, _ = get(FieldLabel)

	if v, ok := get(FieldVersion); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return e, fmt.Errorf("bad %s %q", FieldVersion, v)
		}
		e.Version = n
	}
	if v, ok := get(FieldTrunkVersion); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return e, fmt.Errorf("bad %s %q", FieldTrunkVersion, v)
		}
		e.TrunkVersion = &n
	}
	e.BranchID, _ = get(FieldBranchID)

	for i, h := range header {
		switch h {
		case FieldName, FieldLabel, FieldVersion, FieldTrunkVersion, FieldBranchID:
			continue
		}
		var value string
		if i < len(rec) {
			value = rec[i]
		}
		e.Properties = append(e.Properties, models.Property{Name: h, Value: value})
	}

	return e, nil
}
