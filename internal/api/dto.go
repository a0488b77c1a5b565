package api

import (
	"time"

	"github.com/jask/signalfromnoise/internal/database/repository"
)

type RequestDTO struct {
	ID          int64   `json:"id" msgpack:"id"`
	Title       string  `json:"title" msgpack:"title"`
	Description string  `json:"description" msgpack:"description"`
	DateStart   *string `json:"date_start,omitempty" msgpack:"date_start,omitempty"`
	DateEnd     *string `json:"date_end,omitempty" msgpack:"date_end,omitempty"`
}

// FileDTO is the wire form of a catalogued file. Clients treat every field
// beyond id, file_name, path and category as pass-through.
type FileDTO struct {
	ID            int64   `json:"id" msgpack:"id"`
	FileName      string  `json:"file_name" msgpack:"file_name"`
	Path          string  `json:"path" msgpack:"path"`
	Category      string  `json:"category" msgpack:"category"`
	Directory     string  `json:"directory" msgpack:"directory"`
	Date          string  `json:"date" msgpack:"date"`
	Size          int64   `json:"size" msgpack:"size"`
	Privileged    bool    `json:"privileged" msgpack:"privileged"`
	DuplicateHash string  `json:"duplicate_hash" msgpack:"duplicate_hash"`
	Subject       *string `json:"subject,omitempty" msgpack:"subject,omitempty"`
	FromEmail     *string `json:"from_email,omitempty" msgpack:"from_email,omitempty"`
	ToEmail       *string `json:"to_email,omitempty" msgpack:"to_email,omitempty"`
	Topic         *string `json:"topic,omitempty" msgpack:"topic,omitempty"`
	IsInternal    bool    `json:"is_internal" msgpack:"is_internal"`
}

type FilesRequest struct {
	Categories []string `json:"categories" msgpack:"categories"`
}

type FilesResponse struct {
	Files []FileDTO `json:"files" msgpack:"files"`
}

// SearchRequest dates accept YYYY-MM-DD or RFC3339.
type SearchRequest struct {
	ProductionRequestID int64    `json:"production_request_id" msgpack:"production_request_id"`
	DateStart           string   `json:"date_start,omitempty" msgpack:"date_start,omitempty"`
	DateEnd             string   `json:"date_end,omitempty" msgpack:"date_end,omitempty"`
	Categories          []string `json:"categories" msgpack:"categories"`
	ExcludePrivileged   bool     `json:"exclude_privileged" msgpack:"exclude_privileged"`
	Page                int      `json:"page" msgpack:"page"`
	PageSize            int      `json:"page_size" msgpack:"page_size"`
}

type SearchResponse struct {
	Files      []FileDTO `json:"files" msgpack:"files"`
	TotalCount int       `json:"total_count" msgpack:"total_count"`
	Page       int       `json:"page" msgpack:"page"`
	PageSize   int       `json:"page_size" msgpack:"page_size"`
	TotalPages int       `json:"total_pages" msgpack:"total_pages"`
}

type TopicsResponse struct {
	Topics []string `json:"topics" msgpack:"topics"`
}

type PeopleResponse struct {
	Internal []string `json:"internal" msgpack:"internal"`
	External []string `json:"external" msgpack:"external"`
	All      []string `json:"all" msgpack:"all"`
}

type ReductionStepDTO struct {
	Step      string  `json:"step_name" msgpack:"step_name"`
	Before    int     `json:"space_before" msgpack:"space_before"`
	After     int     `json:"space_after" msgpack:"space_after"`
	Reduction float64 `json:"reduction" msgpack:"reduction"`
}

// ReductionResponse reports |U|, the per-filter counts and |F|.
type ReductionResponse struct {
	InitialSpace   int                `json:"initial_space" msgpack:"initial_space"`
	StepReductions []ReductionStepDTO `json:"step_reductions" msgpack:"step_reductions"`
	FinalSpace     int                `json:"final_space" msgpack:"final_space"`
	TotalReduction float64            `json:"total_reduction" msgpack:"total_reduction"`
}

type ZipRequest struct {
	ProductionRequestID int64   `json:"production_request_id" msgpack:"production_request_id"`
	FileIDs             []int64 `json:"file_ids" msgpack:"file_ids"`
}

type ZipResponse struct {
	Success bool   `json:"success" msgpack:"success"`
	ZipPath string `json:"zip_path,omitempty" msgpack:"zip_path,omitempty"`
	Message string `json:"message" msgpack:"message"`
}

func toRequestDTO(p repository.ProductionRequest) RequestDTO {
	dto := RequestDTO{ID: p.ID, Title: p.Title, Description: p.Description}
	if p.DateStart != nil {
		s := p.DateStart.Format(time.DateOnly)
		dto.DateStart = &s
	}
	if p.DateEnd != nil {
		s := p.DateEnd.Format(time.DateOnly)
		dto.DateEnd = &s
	}
	return dto
}

func toFileDTOs(files []repository.File) []FileDTO {
	out := make([]FileDTO, len(files))
	for i, f := range files {
		out[i] = FileDTO{
			ID:            f.ID,
			FileName:      f.FileName,
			Path:          f.Path,
			Category:      f.Category,
			Directory:     f.Directory,
			Date:          f.Date.Format(time.RFC3339),
			Size:          f.Size,
			Privileged:    f.Privileged,
			DuplicateHash: f.DuplicateHash,
			Subject:       f.Subject,
			FromEmail:     f.FromEmail,
			ToEmail:       f.ToEmail,
			Topic:         f.Topic,
			IsInternal:    f.IsInternal,
		}
	}
	return out
}

func toReductionResponse(r repository.Reduction) ReductionResponse {
	steps := make([]ReductionStepDTO, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = ReductionStepDTO{Step: s.Name, Before: s.Before, After: s.After, Reduction: s.Reduction}
	}
	return ReductionResponse{
		InitialSpace:   r.Initial,
		StepReductions: steps,
		FinalSpace:     r.Final,
		TotalReduction: r.Total,
	}
}

// parseWireDate accepts a calendar day or an RFC3339 timestamp. end selects
// the last second of a calendar day so day ranges are inclusive.
func parseWireDate(s string, end bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}
