package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jask/signalfromnoise/internal/database/repository"
)

// CatalogService answers the read side of the wizard: production requests,
// category counts and file queries.
type CatalogService struct {
	Files    *repository.FileRepo
	Requests *repository.RequestRepo
	// Cache is optional; nil disables category count caching.
	Cache *CategoryCache
	Log   *slog.Logger
}

// SearchParams is a paginated file query on behalf of a production request.
// RequestID 0 means "no request scope".
type SearchParams struct {
	RequestID         int64
	DateStart         *time.Time
	DateEnd           *time.Time
	Categories        []string
	ExcludePrivileged bool
	Page              int
	PageSize          int
}

func (s *CatalogService) log() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// DefaultTitle is used for production requests stored without a title.
func DefaultTitle(id int64) string {
	return fmt.Sprintf("REQUEST FOR PRODUCTION NO: %d", id)
}

// ListRequests returns every production request, filling empty titles.
func (s *CatalogService) ListRequests(ctx context.Context) ([]repository.ProductionRequest, error) {
	reqs, err := s.Requests.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list production requests: %w", err)
	}
	for i := range reqs {
		if strings.TrimSpace(reqs[i].Title) == "" {
			reqs[i].Title = DefaultTitle(reqs[i].ID)
		}
	}
	return reqs, nil
}

// CategoryCounts returns per-category totals in display order (email, claim,
// other). A request id scopes the counts to the request's date window.
func (s *CatalogService) CategoryCounts(ctx context.Context, requestID *int64) ([]repository.CategoryTotal, error) {
	var id int64
	if requestID != nil {
		id = *requestID
	}
	if s.Cache != nil {
		if totals, ok, err := s.Cache.Get(ctx, id); err != nil {
			s.log().Warn("category cache read failed", "request_id", id, "err", err)
		} else if ok {
			return totals, nil
		}
	}

	filters, err := s.scope(ctx, id, repository.FileFilters{})
	if err != nil {
		return nil, err
	}
	totals, err := s.Files.CountByCategory(ctx, filters)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, id, totals); err != nil {
			s.log().Warn("category cache write failed", "request_id", id, "err", err)
		}
	}
	return totals, nil
}

// FilesByCategory returns every file in the given categories, newest first.
// An empty category list matches nothing.
func (s *CatalogService) FilesByCategory(ctx context.Context, categories []string) ([]repository.File, error) {
	cats := NormalizeTokens(categories)
	if len(cats) == 0 {
		return []repository.File{}, nil
	}
	start := time.Now()
	files, err := s.Files.List(ctx, repository.FileFilters{Categories: cats})
	if err != nil {
		return nil, err
	}
	s.log().Info("listed files", "categories", cats, "count", len(files), "duration", time.Since(start))
	return files, nil
}

// Search runs a paginated query, intersecting the caller's date range with
// the production request's window. Like FilesByCategory, an empty category
// list matches nothing and yields an empty first page.
func (s *CatalogService) Search(ctx context.Context, p SearchParams) (repository.FileResult, error) {
	filters, err := s.scope(ctx, p.RequestID, repository.FileFilters{
		DateStart:         p.DateStart,
		DateEnd:           p.DateEnd,
		Categories:        NormalizeTokens(p.Categories),
		ExcludePrivileged: p.ExcludePrivileged,
		Page:              p.Page,
		PageSize:          p.PageSize,
	})
	if err != nil {
		return repository.FileResult{}, err
	}
	if len(filters.Categories) == 0 {
		return emptyPage(filters), nil
	}
	start := time.Now()
	res, err := s.Files.Search(ctx, filters)
	if err != nil {
		return repository.FileResult{}, err
	}
	s.log().Info("searched files", "request_id", p.RequestID, "page", res.Page, "total", res.TotalCount, "duration", time.Since(start))
	return res, nil
}

// Topics lists the distinct email topics, scoped to the request window when
// requestID is non-zero.
func (s *CatalogService) Topics(ctx context.Context, requestID int64) ([]string, error) {
	filters, err := s.scope(ctx, requestID, repository.FileFilters{})
	if err != nil {
		return nil, err
	}
	topics, err := s.Files.Topics(ctx, filters)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		s.log().Warn("no email topics found", "request_id", requestID)
	}
	return topics, nil
}

// People lists the internal and external correspondents of the emails in
// scope.
func (s *CatalogService) People(ctx context.Context, requestID int64) (repository.People, error) {
	filters, err := s.scope(ctx, requestID, repository.FileFilters{})
	if err != nil {
		return repository.People{}, err
	}
	people, err := s.Files.People(ctx, filters)
	if err != nil {
		return repository.People{}, err
	}
	s.log().Info("listed people", "request_id", requestID, "internal", len(people.Internal), "external", len(people.External))
	return people, nil
}

// Reduction reports how far each filter of p narrows the catalog. The
// request window is folded into the date range step.
func (s *CatalogService) Reduction(ctx context.Context, p SearchParams) (repository.Reduction, error) {
	filters, err := s.scope(ctx, p.RequestID, repository.FileFilters{
		DateStart:         p.DateStart,
		DateEnd:           p.DateEnd,
		Categories:        NormalizeTokens(p.Categories),
		ExcludePrivileged: p.ExcludePrivileged,
	})
	if err != nil {
		return repository.Reduction{}, err
	}
	red, err := s.Files.Reduction(ctx, filters)
	if err != nil {
		return repository.Reduction{}, err
	}
	s.log().Info("computed reduction", "request_id", p.RequestID, "initial", red.Initial, "final", red.Final, "steps", len(red.Steps))
	return red, nil
}

func emptyPage(f repository.FileFilters) repository.FileResult {
	res := repository.FileResult{Files: []repository.File{}, Page: f.Page, PageSize: f.PageSize}
	if res.Page < 1 {
		res.Page = 1
	}
	if res.PageSize < 1 {
		res.PageSize = repository.DefaultPageSize
	}
	return res
}

func (s *CatalogService) scope(ctx context.Context, requestID int64, f repository.FileFilters) (repository.FileFilters, error) {
	if requestID == 0 {
		return f, nil
	}
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return f, err
	}
	f.DateStart = later(f.DateStart, req.DateStart)
	f.DateEnd = earlier(f.DateEnd, req.DateEnd)
	return f, nil
}

func later(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil || a.After(*b) {
		return a
	}
	return b
}

func earlier(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil || a.Before(*b) {
		return a
	}
	return b
}

// NormalizeTokens maps UI or API category names onto stored tokens:
// "claims" becomes "claim", unknown names become "other". Duplicates are
// dropped keeping first position.
func NormalizeTokens(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, raw := range in {
		tok := strings.ToLower(strings.TrimSpace(raw))
		switch tok {
		case repository.CategoryEmail, repository.CategoryClaim:
		case "claims":
			tok = repository.CategoryClaim
		default:
			tok = repository.CategoryOther
		}
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}

// CategorizePath assigns a category from path patterns: anything mentioning
// email, mail or .eml is email, then claim, else other.
func CategorizePath(path string) string {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "email"), strings.Contains(p, ".eml"), strings.Contains(p, "mail"):
		return repository.CategoryEmail
	case strings.Contains(p, "claim"):
		return repository.CategoryClaim
	default:
		return repository.CategoryOther
	}
}
