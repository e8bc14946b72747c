package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/formsync/internal/db"
	"github.com/dmitrijs2005/formsync/internal/entities"
	"github.com/dmitrijs2005/formsync/internal/formversions"
	"github.com/dmitrijs2005/formsync/internal/logging"
	"github.com/dmitrijs2005/formsync/internal/models"
	entityrepo "github.com/dmitrijs2005/formsync/internal/repositories/entities"
	"github.com/dmitrijs2005/formsync/internal/repositories/forms"
	"github.com/dmitrijs2005/formsync/internal/repositories/metadata"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	forms    *forms.SQLiteRepository
	entities *entityrepo.SQLiteRepository
	hashes   *metadata.SQLiteRepository
	index    *formversions.Index

	sync      MediaSyncService
	lastSaved LastSavedService
	download  *formDownloadService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	d, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	log := logging.Nop()
	e := &testEnv{
		forms:    forms.NewSQLiteRepository(d),
		entities: entityrepo.NewSQLiteRepository(d),
		hashes:   metadata.NewSQLiteRepository(d),
	}
	e.index = formversions.NewIndex(e.forms)
	e.sync = NewMediaSyncService(e.index, e.hashes, entities.NewImporter(e.entities, log), log)
	e.lastSaved = NewLastSavedService(e.index, log)
	e.download = NewFormDownloadService(e.forms, e.index, e.sync, e.lastSaved, log).(*formDownloadService)
	return e
}

// saveVersion stores a form version whose media directory holds files.
func (e *testEnv) saveVersion(t *testing.T, formID, version string, date int64, files map[string]string) models.FormVersion {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	f := models.FormVersion{FormID: formID, Version: version, Date: date, MediaPath: dir}
	require.NoError(t, e.forms.Save(context.Background(), &f))
	return f
}

func manifestKey(form models.FormVersion) metadata.ManifestKey {
	return metadata.ManifestKey{FormID: form.FormID, Version: form.Version, MediaDir: form.MediaPath}
}

// storedHash returns the manifest hash recorded for form's media directory.
// Test media paths come from t.TempDir and are already absolute.
func (e *testEnv) storedHash(t *testing.T, form models.FormVersion) *string {
	t.Helper()
	h, err := e.hashes.GetManifestHash(context.Background(), manifestKey(form))
	require.NoError(t, err)
	return h
}

func md5Of(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

// fakeSource serves content by URL and records every fetch.
type fakeSource struct {
	mu      sync.Mutex
	content map[string]string
	failing map[string]bool
	fetched []string
}

func newFakeSource(content map[string]string) *fakeSource {
	return &fakeSource{content: content, failing: map[string]bool{}}
}

func (s *fakeSource) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetched = append(s.fetched, rawURL)
	if s.failing[rawURL] {
		return nil, errors.New("connection reset by peer")
	}
	c, ok := s.content[rawURL]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(c)), nil
}

func (s *fakeSource) Fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetched...)
}

func ptr[T any](v T) *T { return &v }
