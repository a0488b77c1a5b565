package wizard

import (
	"fmt"
	"strings"
	"time"
)

// CategoryLoading selects when categories are fetched.
type CategoryLoading string

const (
	// CategoryLoadingLazy fetches categories when a request is selected.
	CategoryLoadingLazy CategoryLoading = "lazy"
	// CategoryLoadingEager also prefetches at start, so the categories step
	// has a list to show while the request-scoped load is outstanding.
	CategoryLoadingEager CategoryLoading = "eager"
)

// FileQuery selects which collaborator call serves file fetches.
type FileQuery string

const (
	FileQueryAll   FileQuery = "all"
	FileQueryPaged FileQuery = "paged"
)

const (
	DefaultPageSize    = 50
	DefaultCallTimeout = 30 * time.Second
)

// Options are the named variants of the wizard flow.
type Options struct {
	CategoryLoading   CategoryLoading
	FileQuery         FileQuery
	PageSize          int
	ExcludePrivileged bool
	DateStart         *time.Time
	DateEnd           *time.Time
	CallTimeout       time.Duration
}

// DefaultOptions returns lazy category loading over unpaged file fetches.
func DefaultOptions() Options {
	return Options{
		CategoryLoading: CategoryLoadingLazy,
		FileQuery:       FileQueryAll,
		PageSize:        DefaultPageSize,
		CallTimeout:     DefaultCallTimeout,
	}
}

// ParseCategoryLoading accepts "lazy" or "eager"; empty means lazy.
func ParseCategoryLoading(s string) (CategoryLoading, error) {
	switch CategoryLoading(strings.ToLower(strings.TrimSpace(s))) {
	case "", CategoryLoadingLazy:
		return CategoryLoadingLazy, nil
	case CategoryLoadingEager:
		return CategoryLoadingEager, nil
	default:
		return "", fmt.Errorf("unknown category loading %q", s)
	}
}

// ParseFileQuery accepts "all" or "paged"; empty means all.
func ParseFileQuery(s string) (FileQuery, error) {
	switch FileQuery(strings.ToLower(strings.TrimSpace(s))) {
	case "", FileQueryAll:
		return FileQueryAll, nil
	case FileQueryPaged:
		return FileQueryPaged, nil
	default:
		return "", fmt.Errorf("unknown file query %q", s)
	}
}

func (o Options) withDefaults() Options {
	if o.CategoryLoading == "" {
		o.CategoryLoading = CategoryLoadingLazy
	}
	if o.FileQuery == "" {
		o.FileQuery = FileQueryAll
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	return o
}
