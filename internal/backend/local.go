// Package backend provides wizard.Backend implementations: Local calls the
// catalog in-process, Client talks to the HTTP API.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/jask/signalfromnoise/internal/database/repository"
	"github.com/jask/signalfromnoise/internal/service"
	"github.com/jask/signalfromnoise/internal/wizard"
)

// Local serves the wizard from the in-process catalog.
type Local struct {
	Catalog *service.CatalogService
	Export  *service.ExportService
}

var _ wizard.Backend = (*Local)(nil)

func (l *Local) FetchProductionRequests(ctx context.Context) ([]wizard.ProductionRequest, error) {
	reqs, err := l.Catalog.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]wizard.ProductionRequest, len(reqs))
	for i, p := range reqs {
		out[i] = wizard.ProductionRequest{ID: p.ID, Title: p.Title, Description: p.Description}
	}
	return out, nil
}

func (l *Local) FetchCategories(ctx context.Context, requestID *int64) (wizard.CategoryPayload, error) {
	totals, err := l.Catalog.CategoryCounts(ctx, requestID)
	if err != nil {
		return wizard.CategoryPayload{}, err
	}
	counts := make([]wizard.CategoryCount, len(totals))
	for i, t := range totals {
		counts[i] = wizard.CategoryCount{Token: t.Category, Count: t.Count}
	}
	return wizard.CategoryPayload{Counts: counts}, nil
}

func (l *Local) FetchFiles(ctx context.Context, categories []string) ([]wizard.FileRecord, error) {
	files, err := l.Catalog.FilesByCategory(ctx, categories)
	if err != nil {
		return nil, err
	}
	return toRecords(files), nil
}

func (l *Local) SearchFiles(ctx context.Context, req wizard.SearchRequest) (wizard.SearchResult, error) {
	res, err := l.Catalog.Search(ctx, service.SearchParams{
		RequestID:         req.ProductionRequestID,
		DateStart:         req.DateStart,
		DateEnd:           req.DateEnd,
		Categories:        req.Categories,
		ExcludePrivileged: req.ExcludePrivileged,
		Page:              req.Page,
		PageSize:          req.PageSize,
	})
	if err != nil {
		return wizard.SearchResult{}, err
	}
	return wizard.SearchResult{
		Files:      toRecords(res.Files),
		TotalCount: res.TotalCount,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}, nil
}

// CreateZip reports rejected selections as an unsuccessful result, the same
// way the HTTP API does.
func (l *Local) CreateZip(ctx context.Context, req wizard.ZipRequest) (wizard.ZipResult, error) {
	path, err := l.Export.CreateZip(ctx, req.ProductionRequestID, req.FileIDs)
	if errors.Is(err, service.ErrNoFiles) || errors.Is(err, service.ErrMissingFiles) {
		return wizard.ZipResult{Success: false, Message: err.Error()}, nil
	}
	if err != nil {
		return wizard.ZipResult{}, err
	}
	return wizard.ZipResult{Success: true, ZipPath: path, Message: "zip created"}, nil
}

func toRecords(files []repository.File) []wizard.FileRecord {
	out := make([]wizard.FileRecord, len(files))
	for i, f := range files {
		extra := map[string]any{
			"directory":      f.Directory,
			"date":           f.Date.Format(time.RFC3339),
			"size":           f.Size,
			"privileged":     f.Privileged,
			"duplicate_hash": f.DuplicateHash,
		}
		if f.Subject != nil {
			extra["subject"] = *f.Subject
		}
		if f.FromEmail != nil {
			extra["from_email"] = *f.FromEmail
		}
		if f.ToEmail != nil {
			extra["to_email"] = *f.ToEmail
		}
		out[i] = wizard.FileRecord{
			ID:       f.ID,
			Filename: f.FileName,
			Path:     f.Path,
			Category: f.Category,
			Extra:    extra,
		}
	}
	return out
}
