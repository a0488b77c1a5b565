package tui

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/signalfromnoise/internal/wizard"
)

// maxRows caps how many dashboard rows are rendered per page.
const maxRows = 50

// App is the bubbletea model. It owns no wizard state of its own: every
// wizard change goes through the runtime, and App keeps only cursors and
// input buffers.
type App struct {
	rt      *wizard.Runtime
	opts    wizard.Options
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	width   int
	height  int

	reqCursor  int
	catCursor  int
	fileCursor int

	filtering bool
	filter    string
	status    string
}

// New builds an App over backend.
func New(ctx context.Context, backend wizard.Backend, opts wizard.Options, log *slog.Logger) *App {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = infoStyle
	return &App{
		rt:      wizard.NewRuntime(ctx, backend, opts, log),
		opts:    opts,
		keys:    newKeyMap(),
		help:    help.New(),
		spinner: sp,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.rt.Init(), a.spinner.Tick)
}

// Model exposes the current wizard snapshot.
func (a *App) Model() wizard.Model {
	return a.rt.Model()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wizard.Msg:
		return a, a.dispatch(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.filtering {
			return a, a.updateFilter(msg)
		}
		return a, a.updateKey(msg)
	}
	return a, nil
}

func (a *App) dispatch(msg wizard.Msg) tea.Cmd {
	cmd := a.rt.Dispatch(msg)
	a.clampCursors()
	return cmd
}

func (a *App) updateKey(msg tea.KeyMsg) tea.Cmd {
	m := a.rt.Model()
	a.status = ""
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return nil
	case key.Matches(msg, a.keys.Dismiss):
		if m.Err != nil {
			return a.dispatch(wizard.ErrorDismissed{})
		}
		return nil
	}

	switch m.Step {
	case wizard.StepRequest:
		return a.updateRequestStep(msg, m)
	case wizard.StepCategories:
		return a.updateCategoriesStep(msg, m)
	case wizard.StepDashboard:
		return a.updateDashboard(msg, m)
	}
	return nil
}

func (a *App) updateRequestStep(msg tea.KeyMsg, m wizard.Model) tea.Cmd {
	visible := a.visibleRequests()
	switch {
	case key.Matches(msg, a.keys.Up):
		a.reqCursor = moveCursor(a.reqCursor, -1, len(visible))
	case key.Matches(msg, a.keys.Down):
		a.reqCursor = moveCursor(a.reqCursor, 1, len(visible))
	case key.Matches(msg, a.keys.Filter):
		a.filtering = true
	case key.Matches(msg, a.keys.Back):
		a.filter = ""
		a.reqCursor = 0
	case key.Matches(msg, a.keys.Enter):
		return a.selectRequest(m, visible)
	}
	return nil
}

func (a *App) selectRequest(m wizard.Model, visible []wizard.ProductionRequest) tea.Cmd {
	if !m.CanSelectRequest() {
		a.status = "still loading"
		return nil
	}
	if len(visible) == 0 {
		return nil
	}
	a.catCursor = 0
	return a.dispatch(wizard.RequestSelected{ID: visible[a.reqCursor].ID})
}

func (a *App) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		a.filtering = false
		a.filter = ""
	case tea.KeyEnter:
		a.filtering = false
		return a.selectRequest(a.rt.Model(), a.visibleRequests())
	case tea.KeyBackspace:
		if a.filter != "" {
			_, size := utf8.DecodeLastRuneInString(a.filter)
			a.filter = a.filter[:len(a.filter)-size]
		}
	case tea.KeyUp:
		a.reqCursor = moveCursor(a.reqCursor, -1, len(a.visibleRequests()))
		return nil
	case tea.KeyDown:
		a.reqCursor = moveCursor(a.reqCursor, 1, len(a.visibleRequests()))
		return nil
	case tea.KeySpace:
		a.filter += " "
	case tea.KeyRunes:
		a.filter += string(msg.Runes)
	default:
		return nil
	}
	a.reqCursor = 0
	return nil
}

func (a *App) updateCategoriesStep(msg tea.KeyMsg, m wizard.Model) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Up):
		a.catCursor = moveCursor(a.catCursor, -1, len(m.AvailableCategories))
	case key.Matches(msg, a.keys.Down):
		a.catCursor = moveCursor(a.catCursor, 1, len(m.AvailableCategories))
	case key.Matches(msg, a.keys.Toggle):
		if len(m.AvailableCategories) > 0 {
			return a.dispatch(wizard.CategoryToggled{Category: m.AvailableCategories[a.catCursor]})
		}
	case key.Matches(msg, a.keys.Refresh):
		return a.dispatch(wizard.CategoriesRequested{})
	case key.Matches(msg, a.keys.Enter):
		if !m.CanRequestFiles() {
			if m.SelectedCategories.Empty() {
				a.status = "select at least one category"
			} else {
				a.status = "still loading"
			}
			return nil
		}
		a.fileCursor = 0
		return a.dispatch(wizard.FilesRequested{Page: 1})
	case key.Matches(msg, a.keys.Back):
		return a.dispatch(wizard.BackToRequest{})
	}
	return nil
}

func (a *App) updateDashboard(msg tea.KeyMsg, m wizard.Model) tea.Cmd {
	rows := min(len(m.Files), maxRows)
	switch {
	case key.Matches(msg, a.keys.Up):
		a.fileCursor = moveCursor(a.fileCursor, -1, rows)
	case key.Matches(msg, a.keys.Down):
		a.fileCursor = moveCursor(a.fileCursor, 1, rows)
	case key.Matches(msg, a.keys.Refresh):
		a.fileCursor = 0
		return a.dispatch(wizard.FilesRequested{Page: max(m.Page, 1)})
	case key.Matches(msg, a.keys.Next):
		if a.opts.FileQuery == wizard.FileQueryPaged && !m.Loading.Files && m.Page < m.TotalPages {
			a.fileCursor = 0
			return a.dispatch(wizard.FilesRequested{Page: m.Page + 1})
		}
	case key.Matches(msg, a.keys.Prev):
		if a.opts.FileQuery == wizard.FileQueryPaged && !m.Loading.Files && m.Page > 1 {
			a.fileCursor = 0
			return a.dispatch(wizard.FilesRequested{Page: m.Page - 1})
		}
	case key.Matches(msg, a.keys.Zip):
		if m.Loading.Files || m.Exporting {
			a.status = "still loading"
			return nil
		}
		if len(m.Files) == 0 {
			a.status = "nothing to export"
			return nil
		}
		return a.dispatch(wizard.ExportRequested{})
	case key.Matches(msg, a.keys.Back):
		return a.dispatch(wizard.BackToCategories{})
	}
	return nil
}

func (a *App) visibleRequests() []wizard.ProductionRequest {
	return rankRequests(a.rt.Model().Requests, a.filter)
}

func (a *App) clampCursors() {
	m := a.rt.Model()
	a.reqCursor = clamp(a.reqCursor, len(a.visibleRequests()))
	a.catCursor = clamp(a.catCursor, len(m.AvailableCategories))
	a.fileCursor = clamp(a.fileCursor, min(len(m.Files), maxRows))
}

func moveCursor(cur, delta, n int) int {
	return clamp(cur+delta, n)
}

func clamp(cur, n int) int {
	if n <= 0 || cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
