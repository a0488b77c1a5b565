package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/signalfromnoise/internal/database"
)

// MaintenanceService houses destructive actions surfaced through the CLI.
type MaintenanceService struct {
	DB    *sql.DB
	Cache *CategoryCache
}

// Reset wipes the catalog and production requests. It keeps the schema intact
// so the store can be reseeded or reimported.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, t := range []string{"files", "production_requests"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	if s.Cache != nil {
		return s.Cache.Invalidate(ctx)
	}
	return nil
}
