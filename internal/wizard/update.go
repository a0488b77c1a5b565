package wizard

// Update is the reducer: the only place a Model changes. It is total,
// synchronous and never calls a collaborator. m is received by value and the
// slices it shares with the result are never written.
func Update(m Model, msg Msg) Model {
	switch msg := msg.(type) {
	case RequestsLoaded:
		m.Requests = msg.Requests
		m.Loading.Requests = false

	case RequestSelected:
		id := msg.ID
		m.Step = StepCategories
		m.SelectedRequestID = &id
		m.SelectedCategories = 0
		m = clearFiles(m)
		m.Loading.Files = false
		m.Loading.Categories = true
		m.Exporting = false
		m.LastExport = nil

	case CategoriesRequested:
		m.Loading.Categories = true

	case CategoriesLoaded:
		m.AvailableCategories = msg.Categories
		m.CategoryCounts = msg.Counts
		m.Loading.Categories = false

	case CategoryToggled:
		if m.Step != StepCategories {
			return m
		}
		m.SelectedCategories = m.SelectedCategories.Toggle(msg.Category)

	case FilesRequested:
		if m.Step != StepCategories && m.Step != StepDashboard {
			return m
		}
		page := msg.Page
		if page < 1 {
			page = 1
		}
		m.Step = StepDashboard
		m.FileRequestEpoch++
		m = clearFiles(m)
		m.Page = page
		m.Loading.Files = true
		m.Exporting = false
		m.LastExport = nil

	case FilesLoaded:
		if !acceptFiles(m, msg.Epoch) {
			return m
		}
		m.Files = msg.Files
		m.FilesEpoch = msg.Epoch
		m.Page = msg.Page
		m.TotalCount = msg.TotalCount
		m.TotalPages = msg.TotalPages
		m.Loading.Files = false

	case BackToRequest:
		m.Step = StepRequest

	case BackToCategories:
		if m.SelectedRequestID == nil {
			return m
		}
		m.Step = StepCategories

	case ErrorOccurred:
		return applyFailure(m, msg)

	case ErrorDismissed:
		m.Err = nil

	case ExportRequested:
		if m.Step != StepDashboard || m.Loading.Files || m.Exporting || len(m.Files) == 0 {
			return m
		}
		m.ExportEpoch++
		m.Exporting = true

	case ExportFinished:
		if !acceptExport(m, msg.Epoch) {
			return m
		}
		res := msg.Result
		m.Exporting = false
		m.LastExport = &res
	}
	return m
}

// applyFailure records a collaborator failure and degrades the affected part
// of the model to its safe default.
func applyFailure(m Model, msg ErrorOccurred) Model {
	switch msg.Kind {
	case RequestsLoadFailed:
		m.Requests = nil
		m.Loading.Requests = false
	case CategoriesLoadFailed:
		m.AvailableCategories = DefaultCategories()
		m.CategoryCounts = nil
		m.Loading.Categories = false
	case FilesLoadFailed:
		// A failure of a superseded fetch is as stale as its success would be.
		if !acceptFiles(m, msg.Epoch) {
			return m
		}
		m = clearFiles(m)
		m.FilesEpoch = msg.Epoch
		m.Loading.Files = false
	case ExportFailed:
		if !acceptExport(m, msg.Epoch) {
			return m
		}
		m.Exporting = false
		m.LastExport = &ExportResult{Success: false, Message: msg.Message}
	}
	m.Err = &Failure{Kind: msg.Kind, Message: msg.Message}
	return m
}

func clearFiles(m Model) Model {
	m.Files = nil
	m.FilesEpoch = 0
	m.TotalCount = 0
	m.TotalPages = 0
	m.Page = 0
	return m
}
