package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/formsync/internal/services"
	"golang.org/x/sync/errgroup"
)

// LoadDownload reads a form download descriptor. Relative paths inside it
// are resolved against formsDir.
func LoadDownload(path, formsDir string) (services.FormDownload, error) {
	var d services.FormDownload

	data, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if d.FormID == "" {
		return d, fmt.Errorf("%s: formId is required", path)
	}
	if d.MediaPath == "" {
		d.MediaPath = d.FormID + "-" + d.Version + "-media"
	}

	d.MediaPath = underDir(formsDir, d.MediaPath)
	if d.FormFilePath != "" {
		d.FormFilePath = underDir(formsDir, d.FormFilePath)
	}

	return d, nil
}

func underDir(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Sync downloads every described form. Descriptors of the same form run
// one after another in the given order; different forms run concurrently,
// at most config.Concurrency at a time. A failing form does not stop the
// others.
func (a *App) Sync(ctx context.Context, paths []string) error {
	var (
		order  []string
		groups = make(map[string][]services.FormDownload)
	)

	for _, p := range paths {
		d, err := LoadDownload(p, a.config.FormsDir)
		if err != nil {
			return err
		}
		if _, ok := groups[d.FormID]; !ok {
			order = append(order, d.FormID)
		}
		groups[d.FormID] = append(groups[d.FormID], d)
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Concurrency)

	for _, formID := range order {
		downloads := groups[formID]
		g.Go(func() error {
			for _, d := range downloads {
				res, err := a.download.Download(gctx, d, a.source)

				mu.Lock()
				if err != nil {
					errs = append(errs, err)
					fmt.Fprintf(a.out, "FAIL\t%s\t%s\t%v\n", d.FormID, d.Version, err)
				} else {
					fmt.Fprintf(a.out, "OK\t%s\t%s\tchanged=%t\n", d.FormID, d.Version, res.Changed)
				}
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%d of %d downloads failed: %w", len(errs), len(paths), err)
	}
	return nil
}
