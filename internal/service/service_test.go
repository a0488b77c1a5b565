package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/signalfromnoise/internal/database"
	"github.com/jask/signalfromnoise/internal/database/repository"
)

func setupDB(t *testing.T) (*sql.DB, context.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, ctx
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixture inserts six files and two requests; request 2 covers 2023 only.
func fixture(t *testing.T, ctx context.Context, db *sql.DB) *CatalogService {
	t.Helper()
	files := repository.NewFileRepo(db)
	requests := repository.NewRequestRepo(db)
	for _, f := range []repository.File{
		{Path: "Email_2022/a.pdf", Directory: "Email_2022", Category: "email", Date: day(2022, 2, 1), Size: 100, FileName: "a.pdf"},
		{Path: "Email_2023/b.pdf", Directory: "Email_2023", Category: "email", Date: day(2023, 2, 1), Size: 200, FileName: "b.pdf", Privileged: true},
		{Path: "Email_2023/c.pdf", Directory: "Email_2023", Category: "email", Date: day(2023, 3, 1), Size: 300, FileName: "c.pdf"},
		{Path: "Claims/d.pdf", Directory: "Claims", Category: "claim", Date: day(2023, 4, 1), Size: 400, FileName: "d.pdf"},
		{Path: "Claims/e.pdf", Directory: "Claims", Category: "claim", Date: day(2024, 4, 1), Size: 500, FileName: "e.pdf"},
		{Path: "Misc/f.txt", Directory: "Misc", Category: "other", Date: day(2024, 5, 1), Size: 600, FileName: "f.txt"},
	} {
		_, err := files.Insert(ctx, nil, f)
		require.NoError(t, err)
	}
	start, end := day(2023, 1, 1), day(2023, 12, 31)
	require.NoError(t, requests.Upsert(ctx, repository.ProductionRequest{ID: 1, Title: ""}))
	require.NoError(t, requests.Upsert(ctx, repository.ProductionRequest{ID: 2, Title: "2023 only", DateStart: &start, DateEnd: &end}))
	return &CatalogService{Files: files, Requests: requests}
}

// addEmails inserts correspondence: two 2023 contract emails inside request
// 2's window and one 2022 budget email with an external sender.
func addEmails(t *testing.T, ctx context.Context, db *sql.DB) {
	t.Helper()
	str := func(s string) *string { return &s }
	files := repository.NewFileRepo(db)
	for _, f := range []repository.File{
		{Path: "Mail/m1.eml", Directory: "Mail", Category: "email", Date: day(2023, 6, 1), FileName: "m1.eml",
			Topic: str("Contract Review"), FromEmail: str("alice@company.com"), ToEmail: str("bob@company.com"), IsInternal: true},
		{Path: "Mail/m2.eml", Directory: "Mail", Category: "email", Date: day(2023, 7, 1), FileName: "m2.eml",
			Topic: str("Contract Review"), FromEmail: str("bob@company.com"), ToEmail: str("carol@company.com"), IsInternal: true},
		{Path: "Mail/m3.eml", Directory: "Mail", Category: "email", Date: day(2022, 1, 1), FileName: "m3.eml",
			Topic: str("Budget Planning"), FromEmail: str("vendor@supplier.com"), ToEmail: str("carol@company.com")},
		{Path: "Claims/x.pdf", Directory: "Claims", Category: "claim", Date: day(2023, 6, 1), FileName: "x.pdf",
			Topic: str("Ignored"), FromEmail: str("nobody@company.com")},
	} {
		_, err := files.Insert(ctx, nil, f)
		require.NoError(t, err)
	}
}
