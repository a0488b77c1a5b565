package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

var errBackendDown = errors.New("backend down")

// fakeBackend serves canned data; file results encode the requested tokens so
// tests can tell which fetch produced them.
type fakeBackend struct {
	mu        sync.Mutex
	requests  []ProductionRequest
	payload   CategoryPayload
	failReqs  bool
	failCats  bool
	failFiles bool
	perToken  int
	calls     map[string]int
	lastZip   ZipRequest
	lastQuery SearchRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		requests: []ProductionRequest{
			{ID: 7, Title: "REQUEST FOR PRODUCTION NO: 7", Description: "claims 2023"},
			{ID: 8, Title: "REQUEST FOR PRODUCTION NO: 8", Description: "all email"},
		},
		payload:  CategoryPayload{Counts: []CategoryCount{{"email", 40}, {"claim", 30}, {"other", 10}}},
		perToken: 3,
		calls:    make(map[string]int),
	}
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) FetchProductionRequests(context.Context) ([]ProductionRequest, error) {
	f.record("requests")
	if f.failReqs {
		return nil, errBackendDown
	}
	return f.requests, nil
}

func (f *fakeBackend) FetchCategories(_ context.Context, _ *int64) (CategoryPayload, error) {
	f.record("categories")
	if f.failCats {
		return CategoryPayload{}, errBackendDown
	}
	return f.payload, nil
}

func (f *fakeBackend) FetchFiles(_ context.Context, categories []string) ([]FileRecord, error) {
	f.record("files")
	if f.failFiles {
		return nil, errBackendDown
	}
	return filesFor(categories, f.perToken), nil
}

func (f *fakeBackend) SearchFiles(_ context.Context, req SearchRequest) (SearchResult, error) {
	f.record("search")
	f.mu.Lock()
	f.lastQuery = req
	f.mu.Unlock()
	if f.failFiles {
		return SearchResult{}, errBackendDown
	}
	all := filesFor(req.Categories, f.perToken)
	start := (req.Page - 1) * req.PageSize
	end := start + req.PageSize
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	pages := (len(all) + req.PageSize - 1) / req.PageSize
	return SearchResult{Files: all[start:end], TotalCount: len(all), Page: req.Page, PageSize: req.PageSize, TotalPages: pages}, nil
}

func (f *fakeBackend) CreateZip(_ context.Context, req ZipRequest) (ZipResult, error) {
	f.record("zip")
	f.mu.Lock()
	f.lastZip = req
	f.mu.Unlock()
	return ZipResult{Success: true, ZipPath: fmt.Sprintf("/tmp/%d.zip", req.ProductionRequestID), Message: "ok"}, nil
}

func filesFor(tokens []string, perToken int) []FileRecord {
	var out []FileRecord
	for _, tok := range tokens {
		for i := 0; i < perToken; i++ {
			out = append(out, FileRecord{
				ID:       int64(len(out) + 1),
				Filename: fmt.Sprintf("%s_%d.pdf", tok, i),
				Path:     fmt.Sprintf("%s/%s_%d.pdf", tok, tok, i),
				Category: tok,
			})
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRuntime(t *testing.T, b Backend, opts Options) *Runtime {
	t.Helper()
	return NewRuntime(context.Background(), b, opts, discardLogger())
}

// expand flattens batched commands into individual ones without running them.
func expand(cmd tea.Cmd) []tea.Cmd {
	if cmd == nil {
		return nil
	}
	return []tea.Cmd{cmd}
}

// runCmd executes cmd and feeds every resulting wizard Msg to rt, returning
// any follow-up commands that were not executed.
func runCmd(t *testing.T, rt *Runtime, cmd tea.Cmd) []tea.Cmd {
	t.Helper()
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var rest []tea.Cmd
		for _, c := range msg {
			rest = append(rest, expand(c)...)
		}
		return rest
	case Msg:
		return expand(rt.Dispatch(msg))
	default:
		t.Fatalf("unexpected message %T", msg)
		return nil
	}
}

// drain runs commands until none remain.
func drain(t *testing.T, rt *Runtime, cmd tea.Cmd) {
	t.Helper()
	queue := expand(cmd)
	for i := 0; len(queue) > 0; i++ {
		if i > 64 {
			t.Fatal("command chain exceeded max depth")
		}
		next := queue[0]
		queue = append(queue[1:], runCmd(t, rt, next)...)
	}
}
