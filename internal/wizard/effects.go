package wizard

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Orchestrator is the impure bridge between transitions and the backend. It
// never touches a Model; its commands run off the update loop and report back
// only through Msgs.
type Orchestrator struct {
	ctx     context.Context
	backend Backend
	opts    Options
	seq     *Sequencer
	log     *slog.Logger
}

func NewOrchestrator(ctx context.Context, backend Backend, opts Options, seq *Sequencer, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{ctx: ctx, backend: backend, opts: opts.withDefaults(), seq: seq, log: log}
}

// Init issues the start-of-application loads.
func (o *Orchestrator) Init() tea.Cmd {
	cmds := []tea.Cmd{o.loadRequests()}
	if o.opts.CategoryLoading == CategoryLoadingEager {
		cmds = append(cmds, emit(CategoriesRequested{}))
	}
	return tea.Batch(cmds...)
}

// Effects decides which collaborator calls the transition prev -> next,
// caused by msg, requires.
func (o *Orchestrator) Effects(prev, next Model, msg Msg) tea.Cmd {
	switch msg.(type) {
	case RequestSelected:
		if next.Loading.Categories {
			return o.loadCategories(next.SelectedRequestID)
		}
	case CategoriesRequested:
		if next.Loading.Categories && !prev.Loading.Categories {
			return o.loadCategories(next.SelectedRequestID)
		}
	case FilesRequested:
		if next.FileRequestEpoch != prev.FileRequestEpoch {
			return o.loadFiles(next)
		}
	case ExportRequested:
		if next.Exporting && !prev.Exporting {
			return o.exportZip(next)
		}
	}
	return nil
}

func (o *Orchestrator) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(o.ctx, o.opts.CallTimeout)
}

func (o *Orchestrator) loadRequests() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := o.callContext()
		defer cancel()
		start := time.Now()
		reqs, err := o.backend.FetchProductionRequests(ctx)
		if err != nil {
			o.log.Error("fetch production requests", "err", err)
			return ErrorOccurred{Kind: RequestsLoadFailed, Message: err.Error()}
		}
		o.log.Info("fetched production requests", "count", len(reqs), "duration", time.Since(start))
		return RequestsLoaded{Requests: reqs}
	}
}

func (o *Orchestrator) loadCategories(requestID *int64) tea.Cmd {
	var id *int64
	if requestID != nil {
		v := *requestID
		id = &v
	}
	return func() tea.Msg {
		ctx, cancel := o.callContext()
		defer cancel()
		start := time.Now()
		payload, err := o.backend.FetchCategories(ctx, id)
		if err != nil {
			o.log.Error("fetch categories", "err", err)
			return ErrorOccurred{Kind: CategoriesLoadFailed, Message: err.Error()}
		}
		cats, counts := NormalizeCategories(payload)
		o.log.Info("fetched categories", "keyed", payload.IsKeyed(), "categories", len(cats), "duration", time.Since(start))
		return CategoriesLoaded{Categories: cats, Counts: counts}
	}
}

func (o *Orchestrator) loadFiles(m Model) tea.Cmd {
	epoch := m.FileRequestEpoch
	tokens := Tokens(m.SelectedCategories.Slice())
	o.seq.Issue(epoch)

	if o.opts.FileQuery == FileQueryPaged {
		req := SearchRequest{
			Categories:        tokens,
			ExcludePrivileged: o.opts.ExcludePrivileged,
			DateStart:         o.opts.DateStart,
			DateEnd:           o.opts.DateEnd,
			Page:              m.Page,
			PageSize:          o.opts.PageSize,
		}
		if m.SelectedRequestID != nil {
			req.ProductionRequestID = *m.SelectedRequestID
		}
		return func() tea.Msg {
			ctx, cancel := o.callContext()
			defer cancel()
			start := time.Now()
			res, err := o.backend.SearchFiles(ctx, req)
			if err != nil {
				o.log.Error("search files", "epoch", epoch, "err", err)
				return ErrorOccurred{Kind: FilesLoadFailed, Message: err.Error(), Epoch: epoch}
			}
			o.log.Info("searched files", "epoch", epoch, "page", res.Page, "total", res.TotalCount, "duration", time.Since(start))
			return FilesLoaded{
				Files:      res.Files,
				Epoch:      epoch,
				Page:       res.Page,
				TotalCount: res.TotalCount,
				TotalPages: res.TotalPages,
			}
		}
	}

	return func() tea.Msg {
		ctx, cancel := o.callContext()
		defer cancel()
		start := time.Now()
		files, err := o.backend.FetchFiles(ctx, tokens)
		if err != nil {
			o.log.Error("fetch files", "epoch", epoch, "err", err)
			return ErrorOccurred{Kind: FilesLoadFailed, Message: err.Error(), Epoch: epoch}
		}
		o.log.Info("fetched files", "epoch", epoch, "count", len(files), "duration", time.Since(start))
		pages := 0
		if len(files) > 0 {
			pages = 1
		}
		return FilesLoaded{Files: files, Epoch: epoch, Page: 1, TotalCount: len(files), TotalPages: pages}
	}
}

func (o *Orchestrator) exportZip(m Model) tea.Cmd {
	epoch := m.ExportEpoch
	req := ZipRequest{FileIDs: m.FileIDs()}
	if m.SelectedRequestID != nil {
		req.ProductionRequestID = *m.SelectedRequestID
	}
	return func() tea.Msg {
		ctx, cancel := o.callContext()
		defer cancel()
		res, err := o.backend.CreateZip(ctx, req)
		if err != nil {
			o.log.Error("create zip", "export", epoch, "files", len(req.FileIDs), "err", err)
			return ErrorOccurred{Kind: ExportFailed, Message: err.Error(), Epoch: epoch}
		}
		if !res.Success {
			return ErrorOccurred{Kind: ExportFailed, Message: res.Message, Epoch: epoch}
		}
		o.log.Info("created zip", "export", epoch, "path", res.ZipPath, "files", len(req.FileIDs))
		return ExportFinished{Result: ExportResult{Success: true, ZipPath: res.ZipPath, Message: res.Message}, Epoch: epoch}
	}
}

func emit(msg Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
