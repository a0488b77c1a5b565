package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/jask/signalfromnoise/internal/wizard"
)

type stubBackend struct {
	failRequests bool
	zipped       []int64
}

func (s *stubBackend) FetchProductionRequests(context.Context) ([]wizard.ProductionRequest, error) {
	if s.failRequests {
		return nil, errors.New("connection refused")
	}
	return []wizard.ProductionRequest{
		{ID: 7, Title: "REQUEST FOR PRODUCTION NO: 7", Description: "claims 2023"},
		{ID: 8, Title: "REQUEST FOR PRODUCTION NO: 8", Description: "all email"},
	}, nil
}

func (s *stubBackend) FetchCategories(context.Context, *int64) (wizard.CategoryPayload, error) {
	return wizard.CategoryPayload{Counts: []wizard.CategoryCount{
		{Token: "email", Count: 40}, {Token: "claim", Count: 12}, {Token: "other", Count: 3},
	}}, nil
}

func (s *stubBackend) FetchFiles(_ context.Context, categories []string) ([]wizard.FileRecord, error) {
	var out []wizard.FileRecord
	for i, c := range categories {
		out = append(out, wizard.FileRecord{
			ID:       int64(i + 1),
			Filename: c + ".eml",
			Path:     "/data/dir_01/" + c + ".eml",
			Category: c,
			Extra:    map[string]any{"size": int64(2048), "date": "2023-04-01T00:00:00Z"},
		})
	}
	return out, nil
}

func (s *stubBackend) SearchFiles(ctx context.Context, req wizard.SearchRequest) (wizard.SearchResult, error) {
	files, _ := s.FetchFiles(ctx, req.Categories)
	return wizard.SearchResult{Files: files, TotalCount: len(files), Page: req.Page, PageSize: req.PageSize, TotalPages: 1}, nil
}

func (s *stubBackend) CreateZip(_ context.Context, req wizard.ZipRequest) (wizard.ZipResult, error) {
	s.zipped = req.FileIDs
	return wizard.ZipResult{Success: true, ZipPath: "/tmp/exports/7.zip"}, nil
}

func newTestApp(t *testing.T, b wizard.Backend) *App {
	t.Helper()
	return New(context.Background(), b, wizard.DefaultOptions(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// run executes cmd and feeds results back into the app until no commands
// remain. Spinner ticks are dropped so the loop terminates.
func run(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 64, "command chain too long")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, c := a.Update(msg)
			queue = append(queue, c)
		}
	}
}

func press(t *testing.T, a *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := a.Update(msg)
		run(t, a, cmd)
	}
}

func plainView(a *App) string {
	return ansi.Strip(a.View())
}

func TestAppFullFlow(t *testing.T) {
	b := &stubBackend{}
	a := newTestApp(t, b)
	run(t, a, a.Init())

	view := plainView(a)
	require.Contains(t, view, "REQUEST FOR PRODUCTION NO: 7")
	require.Contains(t, view, "> REQUEST FOR PRODUCTION NO: 7")

	press(t, a, "enter")
	require.Equal(t, wizard.StepCategories, a.Model().Step)
	view = plainView(a)
	require.Contains(t, view, "[ ] email (40)")
	require.Contains(t, view, "[ ] claim (12)")

	press(t, a, "enter")
	require.Equal(t, wizard.StepCategories, a.Model().Step)
	require.Contains(t, plainView(a), "select at least one category")

	press(t, a, "space", "j", "space")
	require.Contains(t, plainView(a), "[x] claim (12)")

	press(t, a, "enter")
	m := a.Model()
	require.Equal(t, wizard.StepDashboard, m.Step)
	require.Len(t, m.Files, 2)
	view = plainView(a)
	require.Contains(t, view, "files 2")
	require.Contains(t, view, "size 4.0 KB")
	require.Contains(t, view, "zip ~3.4 KB")
	require.Contains(t, view, "2023-04-01")

	press(t, a, "z")
	require.Equal(t, []int64{1, 2}, b.zipped)
	require.Contains(t, plainView(a), "zip created: /tmp/exports/7.zip")

	press(t, a, "esc")
	require.Equal(t, wizard.StepCategories, a.Model().Step)
	press(t, a, "esc")
	require.Equal(t, wizard.StepRequest, a.Model().Step)
}

func TestAppEnterDisabledWhileLoading(t *testing.T) {
	a := newTestApp(t, &stubBackend{})
	require.True(t, a.Model().Loading.Requests)
	require.Contains(t, plainView(a), "loading requests")

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Equal(t, wizard.StepRequest, a.Model().Step)
	require.Contains(t, plainView(a), "still loading")
}

func TestAppFilterSelectsRankedRequest(t *testing.T) {
	a := newTestApp(t, &stubBackend{})
	run(t, a, a.Init())

	press(t, a, "/", "e", "m", "a", "l")
	view := plainView(a)
	require.Contains(t, view, "/emal_")
	require.Contains(t, view, "NO: 8")
	require.NotContains(t, view, "NO: 7")

	// q is filter input, not quit, while typing.
	press(t, a, "q")
	require.Contains(t, plainView(a), "no requests match the filter")
	press(t, a, "backspace")

	press(t, a, "enter")
	m := a.Model()
	require.Equal(t, wizard.StepCategories, m.Step)
	require.EqualValues(t, 8, *m.SelectedRequestID)
}

func TestAppFilterBackspaceTrimsWholeRune(t *testing.T) {
	a := newTestApp(t, &stubBackend{})
	run(t, a, a.Init())

	press(t, a, "/", "c", "a", "f", "é", "backspace")
	require.Equal(t, "caf", a.filter)
	require.True(t, utf8.ValidString(a.filter))

	press(t, a, "backspace", "backspace", "backspace", "backspace")
	require.Empty(t, a.filter)
}

func TestAppReselectWhileFilesLoading(t *testing.T) {
	a := newTestApp(t, &stubBackend{})
	run(t, a, a.Init())

	press(t, a, "enter", "space")
	_, pending := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, pending)
	require.True(t, a.Model().Loading.Files)

	press(t, a, "esc", "esc", "j", "enter")
	m := a.Model()
	require.Equal(t, wizard.StepCategories, m.Step)
	require.EqualValues(t, 8, *m.SelectedRequestID)
	require.False(t, m.Loading.Files)
	require.NotContains(t, plainView(a), "still loading")

	run(t, a, pending)
	require.Empty(t, a.Model().Files)
}

func TestAppErrorDismiss(t *testing.T) {
	a := newTestApp(t, &stubBackend{failRequests: true})
	run(t, a, a.Init())

	view := plainView(a)
	require.Contains(t, view, "requests load failed: connection refused")
	require.Contains(t, view, "no production requests")

	press(t, a, "x")
	require.Nil(t, a.Model().Err)
	require.NotContains(t, plainView(a), "requests load failed")
}

func TestAppQuit(t *testing.T) {
	a := newTestApp(t, &stubBackend{})
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRankRequests(t *testing.T) {
	reqs := []wizard.ProductionRequest{
		{ID: 1, Title: "Smith v. Acme", Description: "invoices"},
		{ID: 2, Title: "Acme claims", Description: "insurance"},
		{ID: 3, Title: "Jones", Description: "emails"},
	}
	ids := func(rs []wizard.ProductionRequest) []int64 {
		var out []int64
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	require.Equal(t, []int64{1, 2, 3}, ids(rankRequests(reqs, "")))
	require.Equal(t, []int64{1, 2}, ids(rankRequests(reqs, "acme")))
	require.Equal(t, []int64{2}, ids(rankRequests(reqs, "clams")))
	require.Empty(t, rankRequests(reqs, "zzzzzz"))
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "512 B", formatBytes(512))
	require.Equal(t, "1.5 KB", formatBytes(1536))
	require.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
	require.True(t, strings.HasSuffix(formatBytes(3<<30), "GB"))
}
