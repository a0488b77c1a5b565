package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jask/signalfromnoise/internal/database"
	"github.com/jask/signalfromnoise/internal/database/repository"
	"github.com/jask/signalfromnoise/internal/service"
)

func newTestServer(t *testing.T) (*echo.Echo, string) {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "api.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	files := repository.NewFileRepo(db)
	requests := repository.NewRequestRepo(db)
	date := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	topic, alice, vendor := "Contract Review", "alice@company.com", "sales@vendor.com"
	for i, f := range []repository.File{
		{Path: "Email/a.pdf", Directory: "Email", Category: "email", FileName: "a.pdf", Size: 10,
			Topic: &topic, FromEmail: &alice, ToEmail: &vendor},
		{Path: "Email/b.pdf", Directory: "Email", Category: "email", FileName: "b.pdf", Size: 20, Privileged: true},
		{Path: "Claims/c.pdf", Directory: "Claims", Category: "claim", FileName: "c.pdf", Size: 30},
		{Path: "Misc/d.txt", Directory: "Misc", Category: "other", FileName: "d.txt", Size: 40},
	} {
		f.Date = date.AddDate(0, 0, i)
		_, err := files.Insert(ctx, nil, f)
		require.NoError(t, err)
	}
	require.NoError(t, requests.Upsert(ctx, repository.ProductionRequest{ID: 3, Title: "REQUEST FOR PRODUCTION NO: 3"}))

	exportDir := t.TempDir()
	h := NewHandler(
		&service.CatalogService{Files: files, Requests: requests},
		&service.ExportService{Files: files, Dir: exportDir},
		"test",
	)
	return NewServer(h, slog.New(slog.NewTextHandler(io.Discard, nil))), exportDir
}

func do(e *echo.Echo, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)
	rec := do(e, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestCategoriesKeepOrder(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/api/categories?request_id=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":2,"claim":1,"other":1}`, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Body.String(), `{"email":2,"claim":1`))

	rec = do(e, http.MethodGet, "/api/categories?shape=list", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["email","claim","other"]`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/categories?request_id=99", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)

	rec = do(e, http.MethodGet, "/api/categories?request_id=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"VALIDATION_ERROR"`)
}

func TestCategoriesMsgpackKeepsOrder(t *testing.T) {
	e, _ := newTestServer(t)
	rec := do(e, http.MethodGet, "/api/categories", "", map[string]string{echo.HeaderAccept: MIMEMsgpack})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, MIMEMsgpack, rec.Header().Get(echo.HeaderContentType))

	dec := msgpack.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	n, err := dec.DecodeMapLen()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	var keys []string
	for i := 0; i < n; i++ {
		k, err := dec.DecodeString()
		require.NoError(t, err)
		_, err = dec.DecodeInt()
		require.NoError(t, err)
		keys = append(keys, k)
	}
	require.Equal(t, []string{"email", "claim", "other"}, keys)
}

func TestFilesAndSearch(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/files", `{"categories":["claims","other"]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var files FilesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files.Files, 2)
	require.Equal(t, "d.txt", files.Files[0].FileName)

	rec = do(e, http.MethodPost, "/api/files/search",
		`{"production_request_id":3,"categories":["email"],"exclude_privileged":true,"page":1,"page_size":10,"date_start":"2023-06-01","date_end":"2023-06-01"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 1, res.TotalCount)
	require.Equal(t, "Email/a.pdf", res.Files[0].Path)

	rec = do(e, http.MethodPost, "/api/files/search", `{"date_start":"June"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchMsgpackBody(t *testing.T) {
	e, _ := newTestServer(t)
	body, err := msgpack.Marshal(SearchRequest{Categories: []string{"claim"}, Page: 1, PageSize: 5})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/files/search", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, MIMEMsgpack)
	req.Header.Set(echo.HeaderAccept, MIMEMsgpack)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res SearchResponse
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 1, res.TotalCount)
	require.Equal(t, "claim", res.Files[0].Category)
}

func TestTopicsAndPeople(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/api/topics?request_id=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"topics":["Contract Review"]}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/people", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"internal":[],"external":["alice@company.com","sales@vendor.com"],"all":["alice@company.com","sales@vendor.com"]}`,
		rec.Body.String())

	rec = do(e, http.MethodGet, "/api/people?request_id=99", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/topics?request_id=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"VALIDATION_ERROR"`)
}

func TestReduction(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/files/reduction",
		`{"categories":["email"],"exclude_privileged":true,"date_start":"2023-06-01","date_end":"2023-06-03"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res ReductionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 4, res.InitialSpace)
	require.Equal(t, []ReductionStepDTO{
		{Step: "category", Before: 4, After: 2, Reduction: 0.5},
		{Step: "date_range", Before: 2, After: 2, Reduction: 0},
		{Step: "privileged", Before: 2, After: 1, Reduction: 0.5},
	}, res.StepReductions)
	require.Equal(t, 1, res.FinalSpace)
	require.InDelta(t, 0.75, res.TotalReduction, 1e-9)

	rec = do(e, http.MethodPost, "/api/files/reduction", `{"date_end":"tomorrow"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestZip(t *testing.T) {
	e, dir := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/zip", `{"production_request_id":3,"file_ids":[1,3]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res ZipResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.Equal(t, dir, filepath.Dir(res.ZipPath))

	rec = do(e, http.MethodPost, "/api/zip", `{"production_request_id":3,"file_ids":[]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.False(t, res.Success)
	require.Contains(t, res.Message, "no files")
}

func TestHandlerDirect(t *testing.T) {
	e, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Handlers are plain echo.HandlerFuncs and work without the router.
	h := NewHandler(nil, nil, "v")
	if assert.NoError(t, h.HandleHealth(c)) {
		assert.Contains(t, rec.Body.String(), `"version":"v"`)
	}
}
