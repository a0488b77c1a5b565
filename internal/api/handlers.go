package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jask/signalfromnoise/internal/service"
)

// Handler serves the file catalog to wizard clients.
type Handler struct {
	catalog *service.CatalogService
	export  *service.ExportService
	version string
}

func NewHandler(catalog *service.CatalogService, export *service.ExportService, version string) *Handler {
	return &Handler{catalog: catalog, export: export, version: version}
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleListRequests returns every production request.
func (h *Handler) HandleListRequests(c echo.Context) error {
	reqs, err := h.catalog.ListRequests(c.Request().Context())
	if err != nil {
		return fromServiceError("failed to list production requests", err)
	}
	out := make([]RequestDTO, len(reqs))
	for i, p := range reqs {
		out[i] = toRequestDTO(p)
	}
	return respond(c, http.StatusOK, out)
}

// HandleCategories returns an ordered category -> count object, or a plain
// name list with ?shape=list. request_id scopes the counts.
func (h *Handler) HandleCategories(c echo.Context) error {
	id, err := queryRequestID(c)
	if err != nil {
		return err
	}
	var requestID *int64
	if id != 0 {
		requestID = &id
	}
	totals, err := h.catalog.CategoryCounts(c.Request().Context(), requestID)
	if err != nil {
		return fromServiceError("failed to count categories", err)
	}
	if c.QueryParam("shape") == "list" {
		names := make([]string, len(totals))
		for i, t := range totals {
			names[i] = t.Category
		}
		return respond(c, http.StatusOK, names)
	}
	counts := make(CategoryCounts, len(totals))
	for i, t := range totals {
		counts[i] = CategoryCount{Category: t.Category, Count: t.Count}
	}
	return respond(c, http.StatusOK, counts)
}

// HandleFiles returns every file in the requested categories.
func (h *Handler) HandleFiles(c echo.Context) error {
	var req FilesRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	files, err := h.catalog.FilesByCategory(c.Request().Context(), req.Categories)
	if err != nil {
		return fromServiceError("failed to list files", err)
	}
	return respond(c, http.StatusOK, FilesResponse{Files: toFileDTOs(files)})
}

// HandleSearch runs a paginated file query.
func (h *Handler) HandleSearch(c echo.Context) error {
	var req SearchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	start, err := parseWireDate(req.DateStart, false)
	if err != nil {
		return NewValidationError("date_start")
	}
	end, err := parseWireDate(req.DateEnd, true)
	if err != nil {
		return NewValidationError("date_end")
	}
	if req.Page < 0 {
		return NewValidationError("page")
	}
	if req.PageSize < 0 {
		return NewValidationError("page_size")
	}
	res, err := h.catalog.Search(c.Request().Context(), service.SearchParams{
		RequestID:         req.ProductionRequestID,
		DateStart:         start,
		DateEnd:           end,
		Categories:        req.Categories,
		ExcludePrivileged: req.ExcludePrivileged,
		Page:              req.Page,
		PageSize:          req.PageSize,
	})
	if err != nil {
		return fromServiceError("failed to search files", err)
	}
	return respond(c, http.StatusOK, SearchResponse{
		Files:      toFileDTOs(res.Files),
		TotalCount: res.TotalCount,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	})
}

// HandleTopics returns the distinct email topics. request_id scopes them to
// the request's window.
func (h *Handler) HandleTopics(c echo.Context) error {
	id, err := queryRequestID(c)
	if err != nil {
		return err
	}
	topics, err := h.catalog.Topics(c.Request().Context(), id)
	if err != nil {
		return fromServiceError("failed to list topics", err)
	}
	return respond(c, http.StatusOK, TopicsResponse{Topics: topics})
}

// HandlePeople returns internal and external email correspondents.
func (h *Handler) HandlePeople(c echo.Context) error {
	id, err := queryRequestID(c)
	if err != nil {
		return err
	}
	people, err := h.catalog.People(c.Request().Context(), id)
	if err != nil {
		return fromServiceError("failed to list people", err)
	}
	return respond(c, http.StatusOK, PeopleResponse{
		Internal: people.Internal,
		External: people.External,
		All:      people.All,
	})
}

// HandleReduction reports how much each filter of the selection narrows the
// catalog. Pagination fields are ignored.
func (h *Handler) HandleReduction(c echo.Context) error {
	var req SearchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	start, err := parseWireDate(req.DateStart, false)
	if err != nil {
		return NewValidationError("date_start")
	}
	end, err := parseWireDate(req.DateEnd, true)
	if err != nil {
		return NewValidationError("date_end")
	}
	red, err := h.catalog.Reduction(c.Request().Context(), service.SearchParams{
		RequestID:         req.ProductionRequestID,
		DateStart:         start,
		DateEnd:           end,
		Categories:        req.Categories,
		ExcludePrivileged: req.ExcludePrivileged,
	})
	if err != nil {
		return fromServiceError("failed to compute reduction", err)
	}
	return respond(c, http.StatusOK, toReductionResponse(red))
}

// HandleZip archives the selected files. A selection the export rejects is
// reported as success=false rather than an HTTP error.
func (h *Handler) HandleZip(c echo.Context) error {
	var req ZipRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	path, err := h.export.CreateZip(c.Request().Context(), req.ProductionRequestID, req.FileIDs)
	switch {
	case errors.Is(err, service.ErrNoFiles), errors.Is(err, service.ErrMissingFiles):
		return respond(c, http.StatusOK, ZipResponse{Success: false, Message: err.Error()})
	case err != nil:
		return NewInternalError("failed to create zip", err)
	}
	return respond(c, http.StatusOK, ZipResponse{
		Success: true,
		ZipPath: path,
		Message: fmt.Sprintf("zip created with %d files", len(req.FileIDs)),
	})
}

// queryRequestID reads the optional request_id query parameter; 0 means
// absent.
func queryRequestID(c echo.Context) (int64, error) {
	raw := c.QueryParam("request_id")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewValidationError("request_id")
	}
	return id, nil
}
