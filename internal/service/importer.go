package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jask/signalfromnoise/internal/database/repository"
)

// ImportService loads catalogs and production requests from files.
type ImportService struct {
	Files    *repository.FileRepo
	Requests *repository.RequestRepo
	Cache    *CategoryCache
}

type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

// ShouldExclude reports whether a catalog path is left out of imports:
// hidden files and archives (.zip, .pst, .zst).
func ShouldExclude(p string) bool {
	if strings.HasPrefix(path.Base(p), ".") {
		return true
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".zip", ".pst", ".zst":
		return true
	}
	return false
}

// ImportManifest reads a JSON object mapping file path to content hash and
// catalogues every path that is not excluded. The manifest carries no dates,
// so every file is dated at.
func (s *ImportService) ImportManifest(ctx context.Context, r io.Reader, at time.Time) (ImportResult, error) {
	var manifest map[string]string
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return ImportResult{}, fmt.Errorf("decode manifest: %w", err)
	}
	paths := make([]string, 0, len(manifest))
	for p := range manifest {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	res := ImportResult{}
	for _, p := range paths {
		clean := strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
		if clean == "." || ShouldExclude(clean) {
			res.Skipped++
			continue
		}
		dir := path.Dir(clean)
		f := repository.File{
			Path:          clean,
			Directory:     dir,
			Category:      CategorizePath(clean),
			Date:          at.UTC(),
			DuplicateHash: manifest[p],
			FileName:      path.Base(clean),
		}
		if _, err := s.Files.Insert(ctx, nil, f); err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Imported++
	}
	s.invalidate(ctx)
	return res, nil
}

type requestDoc struct {
	ID          int64  `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	DateStart   string `yaml:"date_start" json:"date_start"`
	DateEnd     string `yaml:"date_end" json:"date_end"`
}

// ImportRequests reads a list of production requests. YAML is a superset of
// JSON, so both formats go through the YAML decoder.
func (s *ImportService) ImportRequests(ctx context.Context, r io.Reader) (ImportResult, error) {
	var docs []requestDoc
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil && err != io.EOF {
		return ImportResult{}, fmt.Errorf("decode requests: %w", err)
	}
	res := ImportResult{}
	for i, d := range docs {
		if d.ID <= 0 {
			res.Errors = append(res.Errors, fmt.Errorf("entry %d: id must be positive", i+1))
			continue
		}
		p := repository.ProductionRequest{ID: d.ID, Title: strings.TrimSpace(d.Title), Description: d.Description}
		if p.Title == "" {
			p.Title = DefaultTitle(d.ID)
		}
		var err error
		if p.DateStart, err = parseDay(d.DateStart); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("entry %d date_start: %w", i+1, err))
			continue
		}
		if p.DateEnd, err = parseDay(d.DateEnd); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("entry %d date_end: %w", i+1, err))
			continue
		}
		if p.DateEnd != nil {
			end := p.DateEnd.Add(24*time.Hour - time.Second)
			p.DateEnd = &end
		}
		if err := s.Requests.Upsert(ctx, p); err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Imported++
	}
	s.invalidate(ctx)
	return res, nil
}

func (s *ImportService) invalidate(ctx context.Context) {
	if s.Cache != nil {
		_ = s.Cache.Invalidate(ctx)
	}
}

func parseDay(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
