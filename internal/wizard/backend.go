package wizard

import (
	"context"
	"time"
)

// Backend is the collaborator surface the orchestrator calls. Implementations
// live outside this package; see internal/backend.
type Backend interface {
	FetchProductionRequests(ctx context.Context) ([]ProductionRequest, error)
	FetchCategories(ctx context.Context, requestID *int64) (CategoryPayload, error)
	FetchFiles(ctx context.Context, categories []string) ([]FileRecord, error)
	SearchFiles(ctx context.Context, req SearchRequest) (SearchResult, error)
	CreateZip(ctx context.Context, req ZipRequest) (ZipResult, error)
}

// SearchRequest is the paginated file query.
type SearchRequest struct {
	ProductionRequestID int64
	DateStart           *time.Time
	DateEnd             *time.Time
	Categories          []string
	ExcludePrivileged   bool
	Page                int
	PageSize            int
}

// SearchResult is one page of a paginated file query.
type SearchResult struct {
	Files      []FileRecord
	TotalCount int
	Page       int
	PageSize   int
	TotalPages int
}

// ZipRequest asks the backend to archive the given files.
type ZipRequest struct {
	ProductionRequestID int64
	FileIDs             []int64
}

// ZipResult is the backend's archive outcome.
type ZipResult struct {
	Success bool
	ZipPath string
	Message string
}
