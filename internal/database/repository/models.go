package repository

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("not found")

// Category tokens stored in files.category.
const (
	CategoryEmail = "email"
	CategoryClaim = "claim"
	CategoryOther = "other"
)

// Categories lists the stored tokens in display order.
var Categories = []string{CategoryEmail, CategoryClaim, CategoryOther}

// File represents a files row. The email fields are nil for non-email files.
type File struct {
	ID            int64
	Path          string
	Directory     string
	Category      string
	Date          time.Time
	Size          int64
	Privileged    bool
	DuplicateHash string
	FileName      string
	Subject       *string
	FromEmail     *string
	ToEmail       *string
	Topic         *string
	IsInternal    bool
}

// ProductionRequest represents a production_requests row. A non-nil window
// scopes searches made on behalf of the request.
type ProductionRequest struct {
	ID          int64
	Title       string
	Description string
	DateStart   *time.Time
	DateEnd     *time.Time
	CreatedAt   time.Time
}

// FileFilters narrows file queries. Zero values mean "no constraint".
type FileFilters struct {
	DateStart         *time.Time
	DateEnd           *time.Time
	Categories        []string
	ExcludePrivileged bool
	Page              int
	PageSize          int
}

// FileResult is one page of files plus pagination totals.
type FileResult struct {
	Files      []File
	TotalCount int
	Page       int
	PageSize   int
	TotalPages int
}

// CategoryTotal is a per-category file count.
type CategoryTotal struct {
	Category string
	Count    int
}

// People holds the distinct correspondents of email files. All is Internal
// followed by the External addresses not already listed.
type People struct {
	Internal []string
	External []string
	All      []string
}

// Reduction step names, in the order the filters are applied.
const (
	StepCategory   = "category"
	StepDateRange  = "date_range"
	StepPrivileged = "privileged"
)

// ReductionStep is the file count before and after one filter.
// Reduction is (Before-After)/Before, zero when Before is zero.
type ReductionStep struct {
	Name      string
	Before    int
	After     int
	Reduction float64
}

// Reduction describes how a filter set narrows the whole catalog.
type Reduction struct {
	Initial int
	Steps   []ReductionStep
	Final   int
	Total   float64
}
