package wizard

import "fmt"

// Step is the wizard stage currently shown.
type Step int

const (
	StepRequest Step = iota
	StepCategories
	StepDashboard
)

func (s Step) String() string {
	switch s {
	case StepRequest:
		return "request"
	case StepCategories:
		return "categories"
	case StepDashboard:
		return "dashboard"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// ProductionRequest is reference data fetched once at start.
type ProductionRequest struct {
	ID          int64
	Title       string
	Description string
}

// FileRecord is one row of a result set. Extra carries every field the
// wizard passes through without interpreting.
type FileRecord struct {
	ID       int64
	Filename string
	Path     string
	Category string
	Extra    map[string]any
}

// Loading records what the wizard is waiting for, not which call is pending.
type Loading struct {
	Requests   bool
	Categories bool
	Files      bool
}

// ExportResult is the outcome of the last zip export.
type ExportResult struct {
	Success bool
	ZipPath string
	Message string
}

// Model is an immutable snapshot of the wizard. Only Update produces new
// values; slices and maps held by a Model are never written after creation.
type Model struct {
	Step              Step
	SelectedRequestID *int64
	Requests          []ProductionRequest

	AvailableCategories []DataCategory
	CategoryCounts      map[DataCategory]int
	SelectedCategories  CategorySet

	Files      []FileRecord
	FilesEpoch uint64
	Page       int
	TotalCount int
	TotalPages int

	Loading    Loading
	Exporting  bool
	LastExport *ExportResult
	Err        *Failure

	FileRequestEpoch uint64
	ExportEpoch      uint64
}

// NewModel returns the start-of-application snapshot.
func NewModel() Model {
	return Model{
		Step:                StepRequest,
		AvailableCategories: DefaultCategories(),
		Loading:             Loading{Requests: true},
	}
}

// SelectedRequest looks up the chosen request in the reference list.
func (m Model) SelectedRequest() (ProductionRequest, bool) {
	if m.SelectedRequestID == nil {
		return ProductionRequest{}, false
	}
	for _, r := range m.Requests {
		if r.ID == *m.SelectedRequestID {
			return r, true
		}
	}
	return ProductionRequest{}, false
}

// CanRequestFiles reports whether the "next" action from the categories step
// is enabled.
func (m Model) CanRequestFiles() bool {
	return m.SelectedRequestID != nil && !m.SelectedCategories.Empty() && !m.Loading.Categories
}

// CanSelectRequest reports whether choosing a request is enabled. Category
// loads are single in-flight, so selection waits for the previous one.
func (m Model) CanSelectRequest() bool {
	return !m.Loading.Requests && !m.Loading.Categories
}

// FileIDs returns the ids of the current result set in display order.
func (m Model) FileIDs() []int64 {
	ids := make([]int64, 0, len(m.Files))
	for _, f := range m.Files {
		ids = append(ids, f.ID)
	}
	return ids
}
