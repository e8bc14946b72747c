package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/formsync/internal/common"
	"github.com/dmitrijs2005/formsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestDownload_SyncsCarriesForwardAndSaves(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.download.now = fixedClock(1_000)

	prev := e.saveVersion(t, "f", "1", 10, map[string]string{
		common.LastSavedFileName: "<saved/>",
		"logo.png":               "logo",
	})

	d := FormDownload{
		FormID:       "f",
		Version:      "2",
		FormFilePath: "/forms/f-2.xml",
		MediaPath:    filepath.Join(t.TempDir(), "f-2-media"),
		Manifest: models.Manifest{Files: []models.MediaFile{
			{FileName: "logo.png", Hash: md5Of("logo"), DownloadURL: "http://srv/logo"},
			{FileName: "audio.mp3", Hash: md5Of("beep"), DownloadURL: "http://srv/audio"},
		}},
	}
	src := newFakeSource(map[string]string{"http://srv/audio": "beep"})

	res, err := e.download.Download(ctx, d, src)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.NotZero(t, res.Form.DbID)
	assert.NotEqual(t, prev.DbID, res.Form.DbID)
	assert.Equal(t, int64(1_000), res.Form.Date)

	assert.Equal(t, "logo", readFile(t, filepath.Join(d.MediaPath, "logo.png")))
	assert.Equal(t, "beep", readFile(t, filepath.Join(d.MediaPath, "audio.mp3")))
	assert.Equal(t, "<saved/>", readFile(t, filepath.Join(d.MediaPath, common.LastSavedFileName)))
	assert.Equal(t, []string{"http://srv/audio"}, src.Fetched())

	newest, err := e.index.MostRecent(ctx, "f")
	require.NoError(t, err)
	require.NotNil(t, newest)
	assert.Equal(t, res.Form, *newest)
}

func TestDownload_MediaFailureSavesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	d := FormDownload{
		FormID:    "f",
		Version:   "1",
		MediaPath: filepath.Join(t.TempDir(), "media"),
		Manifest:  models.Manifest{Files: []models.MediaFile{{FileName: "a", Hash: md5Of("a"), DownloadURL: "http://srv/a"}}},
	}

	_, err := e.download.Download(ctx, d, newFakeSource(nil))
	require.ErrorIs(t, err, common.ErrTransferFailure)

	versions, err := e.index.VersionsOf(ctx, "f")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestDownload_SameVersionTwiceUpdatesRecord(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	d := FormDownload{
		FormID:    "f",
		Version:   "1",
		MediaPath: filepath.Join(t.TempDir(), "media"),
		Manifest:  models.Manifest{Files: []models.MediaFile{{FileName: "a", Hash: md5Of("a"), DownloadURL: "http://srv/a"}}},
	}
	src := newFakeSource(map[string]string{"http://srv/a": "a"})

	e.download.now = fixedClock(100)
	first, err := e.download.Download(ctx, d, src)
	require.NoError(t, err)
	assert.True(t, first.Changed)

	e.download.now = fixedClock(200)
	second, err := e.download.Download(ctx, d, src)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Form.DbID, second.Form.DbID)
	assert.Equal(t, int64(200), second.Form.Date)

	versions, err := e.index.VersionsOf(ctx, "f")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
	assert.Len(t, src.Fetched(), 1)
}

func TestDownload_SameVersionIntoNewDirectoryFillsIt(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	manifest := models.Manifest{
		Hash:  ptr("h1"),
		Files: []models.MediaFile{{FileName: "logo.png", Hash: md5Of("logo"), DownloadURL: "http://srv/logo"}},
	}
	src := newFakeSource(map[string]string{"http://srv/logo": "logo"})

	e.download.now = fixedClock(100)
	first, err := e.download.Download(ctx, FormDownload{
		FormID: "f", Version: "1", MediaPath: filepath.Join(t.TempDir(), "a"), Manifest: manifest,
	}, src)
	require.NoError(t, err)

	dirB := filepath.Join(t.TempDir(), "b")
	e.download.now = fixedClock(200)
	second, err := e.download.Download(ctx, FormDownload{
		FormID: "f", Version: "1", MediaPath: dirB, Manifest: manifest,
	}, src)
	require.NoError(t, err)
	assert.NotEqual(t, first.Form.DbID, second.Form.DbID)
	assert.False(t, second.Changed, "the bytes are copied from the first directory")

	assert.Equal(t, "logo", readFile(t, filepath.Join(dirB, "logo.png")))
	assert.Equal(t, []string{"http://srv/logo"}, src.Fetched())

	newest, err := e.index.MostRecent(ctx, "f")
	require.NoError(t, err)
	require.NotNil(t, newest)
	assert.Equal(t, dirB, newest.MediaPath)
}
