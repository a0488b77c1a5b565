package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jask/signalfromnoise/internal/config"
	"github.com/jask/signalfromnoise/internal/database"
	"github.com/jask/signalfromnoise/internal/database/repository"
	"github.com/jask/signalfromnoise/internal/printer"
	"github.com/jask/signalfromnoise/internal/service"
)

// defaultSeed keeps mock catalogs identical across machines.
const defaultSeed uint64 = 42

// store bundles the sqlite handle with the services built on it.
type store struct {
	db       *sql.DB
	files    *repository.FileRepo
	requests *repository.RequestRepo
	cache    *service.CategoryCache
	catalog  *service.CatalogService
	export   *service.ExportService
	importer *service.ImportService
	maint    *service.MaintenanceService
}

// openStore opens and migrates the database. withCache connects the redis
// category cache when one is configured; a cache that cannot be reached is
// reported and skipped.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger, withCache bool) (*store, error) {
	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s := &store{
		db:       db,
		files:    repository.NewFileRepo(db),
		requests: repository.NewRequestRepo(db),
	}
	if withCache && cfg.Cache.RedisAddr != "" {
		cache, err := service.NewCategoryCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL)
		if err != nil {
			printer.Warning("category cache disabled: %v", err)
			log.Warn("category cache disabled", "addr", cfg.Cache.RedisAddr, "err", err)
		} else {
			s.cache = cache
		}
	}
	s.catalog = &service.CatalogService{Files: s.files, Requests: s.requests, Cache: s.cache, Log: log}
	s.export = &service.ExportService{Files: s.files, Dir: cfg.Export.Dir, Log: log}
	s.importer = &service.ImportService{Files: s.files, Requests: s.requests, Cache: s.cache}
	s.maint = &service.MaintenanceService{DB: db, Cache: s.cache}
	return s, nil
}

func (s *store) Close() error {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	return s.db.Close()
}

// seedIfEmpty fills an empty catalog with mock data when the config asks for it.
func (s *store) seedIfEmpty(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if !cfg.Database.SeedOnEmpty {
		return nil
	}
	stats, seeded, err := database.SeedIfEmpty(ctx, s.db, defaultSeed)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if seeded {
		log.Info("seeded empty catalog", "files", stats.Files, "requests", stats.Requests)
	}
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, printer.Error("Invalid configuration", err.Error(),
			"Fix the value in "+config.Path()+" or the matching SFN_ environment variable.")
	}
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

// parseDay reads a YYYY-MM-DD flag. An end date covers the whole day.
func parseDay(s string, end bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
