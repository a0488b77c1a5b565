package backend

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/signalfromnoise/internal/api"
	"github.com/jask/signalfromnoise/internal/database"
	"github.com/jask/signalfromnoise/internal/database/repository"
	"github.com/jask/signalfromnoise/internal/service"
	"github.com/jask/signalfromnoise/internal/wizard"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "backend.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	files := repository.NewFileRepo(db)
	requests := repository.NewRequestRepo(db)
	subject := "Invoice - Email 1"
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, f := range []repository.File{
		{Path: "Email/a.pdf", Directory: "Email", Category: "email", FileName: "a.pdf", Size: 1000, Subject: &subject},
		{Path: "Email/b.pdf", Directory: "Email", Category: "email", FileName: "b.pdf", Size: 2000, Privileged: true},
		{Path: "Claims/c.pdf", Directory: "Claims", Category: "claim", FileName: "c.pdf", Size: 3000},
	} {
		f.Date = base.AddDate(0, i, 0)
		_, err := files.Insert(ctx, nil, f)
		require.NoError(t, err)
	}
	require.NoError(t, requests.Upsert(ctx, repository.ProductionRequest{ID: 5, Title: "REQUEST FOR PRODUCTION NO: 5"}))
	return &Local{
		Catalog: &service.CatalogService{Files: files, Requests: requests},
		Export:  &service.ExportService{Files: files, Dir: t.TempDir()},
	}
}

func newClient(t *testing.T, local *Local, codec Codec) *Client {
	t.Helper()
	h := api.NewHandler(local.Catalog, local.Export, "test")
	srv := httptest.NewServer(api.NewServer(h, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, codec, 5*time.Second)
	require.NoError(t, err)
	return c
}

// backends returns the same catalog behind every implementation.
func backends(t *testing.T) map[string]wizard.Backend {
	local := newLocal(t)
	return map[string]wizard.Backend{
		"local":   local,
		"json":    newClient(t, local, CodecJSON),
		"msgpack": newClient(t, local, CodecMsgpack),
	}
}

func TestBackendsAgree(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			reqs, err := b.FetchProductionRequests(ctx)
			require.NoError(t, err)
			require.Equal(t, []wizard.ProductionRequest{{ID: 5, Title: "REQUEST FOR PRODUCTION NO: 5"}}, reqs)

			id := int64(5)
			payload, err := b.FetchCategories(ctx, &id)
			require.NoError(t, err)
			require.True(t, payload.IsKeyed())
			require.Equal(t, []wizard.CategoryCount{{Token: "email", Count: 2}, {Token: "claim", Count: 1}, {Token: "other", Count: 0}}, payload.Counts)

			files, err := b.FetchFiles(ctx, []string{"email"})
			require.NoError(t, err)
			require.Len(t, files, 2)
			require.Equal(t, "b.pdf", files[0].Filename)
			require.Equal(t, "Email/b.pdf", files[0].Path)
			require.Equal(t, "email", files[0].Category)
			require.Equal(t, int64(2000), files[0].Extra["size"])
			require.Equal(t, true, files[0].Extra["privileged"])
			require.Equal(t, "Invoice - Email 1", files[1].Extra["subject"])

			res, err := b.SearchFiles(ctx, wizard.SearchRequest{
				ProductionRequestID: 5,
				Categories:          []string{"email", "claim"},
				ExcludePrivileged:   true,
				Page:                1,
				PageSize:            1,
			})
			require.NoError(t, err)
			require.Equal(t, 2, res.TotalCount)
			require.Equal(t, 2, res.TotalPages)
			require.Len(t, res.Files, 1)
			require.Equal(t, "c.pdf", res.Files[0].Filename)

			zip, err := b.CreateZip(ctx, wizard.ZipRequest{ProductionRequestID: 5, FileIDs: []int64{files[0].ID}})
			require.NoError(t, err)
			require.True(t, zip.Success)
			require.FileExists(t, zip.ZipPath)

			rejected, err := b.CreateZip(ctx, wizard.ZipRequest{ProductionRequestID: 5, FileIDs: []int64{404}})
			require.NoError(t, err)
			require.False(t, rejected.Success)
		})
	}
}

func TestClientErrors(t *testing.T) {
	c := newClient(t, newLocal(t), CodecJSON)
	missing := int64(77)
	_, err := c.FetchCategories(context.Background(), &missing)
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	require.Equal(t, http.StatusNotFound, herr.Status)
	require.Equal(t, "NOT_FOUND", herr.Code)

	_, err = NewClient("not a url", CodecJSON, time.Second)
	require.Error(t, err)
	_, err = NewClient("http://localhost:1", "xml", time.Second)
	require.Error(t, err)
}

func TestDecodeCategoriesJSONShapes(t *testing.T) {
	p, err := decodeCategoriesJSON([]byte(`{"other": 3, "Claims": 1, "email": 9}`))
	require.NoError(t, err)
	require.Equal(t, []wizard.CategoryCount{{Token: "other", Count: 3}, {Token: "Claims", Count: 1}, {Token: "email", Count: 9}}, p.Counts)

	p, err = decodeCategoriesJSON([]byte(`["claim", "email"]`))
	require.NoError(t, err)
	require.Equal(t, []string{"claim", "email"}, p.Names)
	require.False(t, p.IsKeyed())

	_, err = decodeCategoriesJSON([]byte(`"email"`))
	require.Error(t, err)
}

func TestWizardRunsOverHTTP(t *testing.T) {
	c := newClient(t, newLocal(t), CodecMsgpack)
	rt := wizard.NewRuntime(context.Background(), c, wizard.DefaultOptions(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	drain := func(cmd tea.Cmd) {
		queue := []tea.Cmd{cmd}
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			if next == nil {
				continue
			}
			switch msg := next().(type) {
			case tea.BatchMsg:
				queue = append(queue, msg...)
			case wizard.Msg:
				queue = append(queue, rt.Dispatch(msg))
			}
		}
	}
	run := func(msg wizard.Msg) { drain(rt.Dispatch(msg)) }

	drain(rt.Init())
	run(wizard.RequestSelected{ID: 5})
	run(wizard.CategoryToggled{Category: wizard.CategoryClaims})
	run(wizard.FilesRequested{})

	m := rt.Model()
	require.Equal(t, wizard.StepDashboard, m.Step)
	require.Len(t, m.Files, 1)
	require.Equal(t, 2, m.CategoryCounts[wizard.CategoryEmail])
}
