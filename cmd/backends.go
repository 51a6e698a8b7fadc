package cmd

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/extractor"
	"github.com/kozaktomas/face-attendance/internal/gallery"
)

// backends holds the storage and extractor collaborators shared by all
// commands that touch the database.
type backends struct {
	pool      *postgres.Pool
	students  *postgres.StudentRepository
	records   *postgres.AttendanceRepository
	galleries gallery.Store
	extractor *extractor.Client
}

// openBackends connects to PostgreSQL, runs migrations and wires the
// configured gallery backend and extractor client.
func openBackends(cfg *config.Config) (*backends, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	galleries, err := newGalleryStore(cfg, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &backends{
		pool:      pool,
		students:  postgres.NewStudentRepository(pool),
		records:   postgres.NewAttendanceRepository(pool),
		galleries: galleries,
		extractor: extractor.NewClient(cfg.Extractor.URL, cfg.Extractor.Model, cfg.Extractor.Timeout),
	}, nil
}

// newGalleryStore selects the gallery backend: flat files on disk
// (default) or pgvector rows in PostgreSQL.
func newGalleryStore(cfg *config.Config, pool *postgres.Pool) (gallery.Store, error) {
	switch cfg.Gallery.Backend {
	case "", "fs":
		store, err := gallery.NewFSStore(cfg.Gallery.Dir)
		if err != nil {
			return nil, fmt.Errorf("opening gallery directory %s: %w", cfg.Gallery.Dir, err)
		}
		return store, nil
	case "postgres":
		return postgres.NewGalleryStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown gallery backend %q (want fs or postgres)", cfg.Gallery.Backend)
	}
}

func (b *backends) close() {
	if err := b.pool.Close(); err != nil {
		fmt.Printf("Warning: closing database pool: %v\n", err)
	}
}
