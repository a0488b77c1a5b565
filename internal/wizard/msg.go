package wizard

// Msg is the closed set of events the reducer understands. Every Msg is also
// a tea.Msg, so orchestrator commands can return them directly.
type Msg interface {
	wizardMsg()
}

// RequestsLoaded carries the production request reference list.
type RequestsLoaded struct {
	Requests []ProductionRequest
}

// RequestSelected starts a fresh categories sub-flow for ID.
type RequestSelected struct {
	ID int64
}

// CategoriesRequested asks for a category load without changing step. It is
// how eager loading prefetches at start.
type CategoriesRequested struct{}

// CategoriesLoaded carries normalized categories and optional counts.
type CategoriesLoaded struct {
	Categories []DataCategory
	Counts     map[DataCategory]int
}

// CategoryToggled flips membership of Category in the selection.
type CategoryToggled struct {
	Category DataCategory
}

// FilesRequested starts a new file fetch attempt. Page is 1-based and only
// meaningful for paged queries; zero means the first page.
type FilesRequested struct {
	Page int
}

// FilesLoaded is the result of the fetch tagged Epoch.
type FilesLoaded struct {
	Files      []FileRecord
	Epoch      uint64
	Page       int
	TotalCount int
	TotalPages int
}

// BackToRequest returns to the request step, keeping selections.
type BackToRequest struct{}

// BackToCategories returns to the categories step, keeping selections.
type BackToCategories struct{}

// ErrorOccurred reports a collaborator failure. Epoch is the file epoch for
// FilesLoadFailed and the export epoch for ExportFailed.
type ErrorOccurred struct {
	Kind    ErrorKind
	Message string
	Epoch   uint64
}

// ErrorDismissed clears the visible error.
type ErrorDismissed struct{}

// ExportRequested asks for a zip of the current result set.
type ExportRequested struct{}

// ExportFinished carries the outcome of the export tagged Epoch.
type ExportFinished struct {
	Result ExportResult
	Epoch  uint64
}

func (RequestsLoaded) wizardMsg()      {}
func (RequestSelected) wizardMsg()     {}
func (CategoriesRequested) wizardMsg() {}
func (CategoriesLoaded) wizardMsg()    {}
func (CategoryToggled) wizardMsg()     {}
func (FilesRequested) wizardMsg()      {}
func (FilesLoaded) wizardMsg()         {}
func (BackToRequest) wizardMsg()       {}
func (BackToCategories) wizardMsg()    {}
func (ErrorOccurred) wizardMsg()       {}
func (ErrorDismissed) wizardMsg()      {}
func (ExportRequested) wizardMsg()     {}
func (ExportFinished) wizardMsg()      {}
