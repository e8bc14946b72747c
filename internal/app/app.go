// Package app wires configuration, storage, media sources and services into
// the formsync command-line application.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/formsync/internal/config"
	"github.com/dmitrijs2005/formsync/internal/db"
	"github.com/dmitrijs2005/formsync/internal/entities"
	"github.com/dmitrijs2005/formsync/internal/formversions"
	"github.com/dmitrijs2005/formsync/internal/logging"
	"github.com/dmitrijs2005/formsync/internal/mediasource"
	entityrepo "github.com/dmitrijs2005/formsync/internal/repositories/entities"
	"github.com/dmitrijs2005/formsync/internal/repositories/forms"
	"github.com/dmitrijs2005/formsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/formsync/internal/services"
)

// ErrUsage is returned for a missing or malformed command line.
var ErrUsage = errors.New("usage: formsync [flags] sync <download.json>... | query <list> <field> <value> | entities <list> [partial]")

type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer

	db       *sql.DB
	entities entityrepo.Repository
	source   mediasource.Source
	download services.FormDownloadService
}

// NewApp opens the database named in c and builds the services on top of
// it. Results are written to out, logs go through logger.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, out io.Writer) (*App, error) {
	d, err := db.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	source, err := newSource(ctx, c, logger)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	formsRepo := forms.NewSQLiteRepository(d)
	entityRepo := entityrepo.NewSQLiteRepository(d)
	hashes := metadata.NewSQLiteRepository(d)
	index := formversions.NewIndex(formsRepo)

	mediaSync := services.NewMediaSyncService(index, hashes, entities.NewImporter(entityRepo, logger), logger)
	lastSaved := services.NewLastSavedService(index, logger)

	return &App{
		config:   c,
		logger:   logger,
		out:      out,
		db:       d,
		entities: entityRepo,
		source:   source,
		download: services.NewFormDownloadService(formsRepo, index, mediaSync, lastSaved, logger),
	}, nil
}

// newSource routes download URLs by scheme. S3 is only wired when an
// endpoint or credentials are configured.
func newSource(ctx context.Context, c *config.Config, logger logging.Logger) (mediasource.Source, error) {
	router := mediasource.NewRouter().
		Handle(mediasource.NewHTTPSource(c.HTTPTimeout, c.HTTPMaxRetries, logger), "http", "https").
		Handle(mediasource.FileSource{}, "file")

	if c.S3BaseEndpoint != "" || c.S3AccessKey != "" {
		s3src, err := mediasource.NewS3Source(ctx, mediasource.S3Options{
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		router.Handle(s3src, "s3")
	}

	return router, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// initSignalHandler cancels the run on SIGINT, SIGTERM or SIGQUIT. The
// returned function releases the handler.
func (a *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case s := <-sigs:
			a.logger.Warn(context.Background(), "signal received, stopping", "signal", s.String())
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run executes one command given by its positional arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	stop := a.initSignalHandler(cancelFunc)
	defer stop()

	if len(args) == 0 {
		return ErrUsage
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "sync":
		if len(rest) == 0 {
			return ErrUsage
		}
		return a.Sync(ctx, rest)

	case "query":
		if len(rest) != 3 {
			return ErrUsage
		}
		return a.Query(ctx, rest[0], rest[1], rest[2])

	case "entities":
		if len(rest) < 1 || len(rest) > 2 {
			return ErrUsage
		}
		return a.Entities(ctx, rest[0], len(rest) == 2 && rest[1] == "partial")

	default:
		return fmt.Errorf("unknown command %q: %w", cmd, ErrUsage)
	}
}
