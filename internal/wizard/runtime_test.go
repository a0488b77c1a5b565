package wizard

import (
	"math/rand/v2"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestRuntimeHappyPath(t *testing.T) {
	fb := newFakeBackend()
	rt := newTestRuntime(t, fb, DefaultOptions())

	drain(t, rt, rt.Init())
	m := rt.Model()
	require.False(t, m.Loading.Requests)
	require.Len(t, m.Requests, 2)
	require.Zero(t, fb.count("categories"), "lazy loading waits for a selection")

	drain(t, rt, rt.Dispatch(RequestSelected{ID: 7}))
	m = rt.Model()
	require.Equal(t, StepCategories, m.Step)
	require.False(t, m.Loading.Categories)
	require.Equal(t, []DataCategory{CategoryEmail, CategoryClaims, CategoryOther}, m.AvailableCategories)
	require.Equal(t, 40, m.CategoryCounts[CategoryEmail])

	drain(t, rt, rt.Dispatch(CategoryToggled{Category: CategoryClaims}))
	drain(t, rt, rt.Dispatch(FilesRequested{}))
	m = rt.Model()
	require.Equal(t, StepDashboard, m.Step)
	require.False(t, m.Loading.Files)
	require.Len(t, m.Files, 3)
	require.Equal(t, "claim", m.Files[0].Category)
	require.Zero(t, rt.Sequencer().Pending())

	drain(t, rt, rt.Dispatch(ExportRequested{}))
	m = rt.Model()
	require.True(t, m.LastExport.Success)
	require.Equal(t, "/tmp/7.zip", m.LastExport.ZipPath)
	require.Equal(t, []int64{1, 2, 3}, fb.lastZip.FileIDs)
}

func TestRuntimeEagerPrefetch(t *testing.T) {
	fb := newFakeBackend()
	opts := DefaultOptions()
	opts.CategoryLoading = CategoryLoadingEager
	rt := newTestRuntime(t, fb, opts)

	drain(t, rt, rt.Init())
	require.Equal(t, 1, fb.count("categories"))
	require.False(t, rt.Model().Loading.Categories)
	require.Equal(t, 40, rt.Model().CategoryCounts[CategoryEmail])

	drain(t, rt, rt.Dispatch(RequestSelected{ID: 8}))
	require.Equal(t, 2, fb.count("categories"))
}

func TestRuntimeOutOfOrderResults(t *testing.T) {
	fb := newFakeBackend()
	rt := newTestRuntime(t, fb, DefaultOptions())
	drain(t, rt, rt.Init())
	drain(t, rt, rt.Dispatch(RequestSelected{ID: 7}))
	drain(t, rt, rt.Dispatch(CategoryToggled{Category: CategoryEmail}))

	first := rt.Dispatch(FilesRequested{})
	require.True(t, rt.Sequencer().Outstanding(1))

	drain(t, rt, rt.Dispatch(BackToCategories{}))
	drain(t, rt, rt.Dispatch(CategoryToggled{Category: CategoryEmail}))
	drain(t, rt, rt.Dispatch(CategoryToggled{Category: CategoryClaims}))
	second := rt.Dispatch(FilesRequested{})
	require.True(t, rt.Sequencer().Outstanding(2))

	drain(t, rt, second)
	require.False(t, rt.Model().Loading.Files)
	drain(t, rt, first)

	m := rt.Model()
	require.EqualValues(t, 2, m.FilesEpoch)
	require.Len(t, m.Files, 3)
	for _, f := range m.Files {
		require.Equal(t, "claim", f.Category)
	}
	require.Zero(t, rt.Sequencer().Pending())
}

func TestRuntimeFailuresBecomeMsgs(t *testing.T) {
	fb := newFakeBackend()
	fb.failReqs = true
	fb.failCats = true
	fb.failFiles = true
	rt := newTestRuntime(t, fb, DefaultOptions())

	drain(t, rt, rt.Init())
	require.Equal(t, RequestsLoadFailed, rt.Model().Err.Kind)
	require.False(t, rt.Model().Loading.Requests)

	drain(t, rt, rt.Dispatch(RequestSelected{ID: 1}))
	require.Equal(t, CategoriesLoadFailed, rt.Model().Err.Kind)
	require.Equal(t, DefaultCategories(), rt.Model().AvailableCategories)

	drain(t, rt, rt.Dispatch(CategoryToggled{Category: CategoryEmail}))
	drain(t, rt, rt.Dispatch(FilesRequested{}))
	m := rt.Model()
	require.Equal(t, FilesLoadFailed, m.Err.Kind)
	require.Contains(t, m.Err.Message, "backend down")
	require.False(t, m.Loading.Files)
	require.Zero(t, rt.Sequencer().Pending())
}

func TestRuntimePagedQuery(t *testing.T) {
	fb := newFakeBackend()
	fb.perToken = 7
	opts := DefaultOptions()
	opts.FileQuery = FileQueryPaged
	opts.PageSize = 5
	opts.ExcludePrivileged = true
	rt := newTestRuntime(t, fb, opts)

	drain(t, rt, rt.Init())
	drain(t, rt, rt.Dispatch(RequestSelected{ID: 8}))
	drain(t, rt, rt.Dispatch(CategoryToggled{Category: CategoryEmail}))
	drain(t, rt, rt.Dispatch(CategoryToggled{Category: CategoryOther}))
	drain(t, rt, rt.Dispatch(FilesRequested{Page: 2}))

	m := rt.Model()
	require.Zero(t, fb.count("files"))
	require.Equal(t, 1, fb.count("search"))
	require.Equal(t, []string{"email", "other"}, fb.lastQuery.Categories)
	require.EqualValues(t, 8, fb.lastQuery.ProductionRequestID)
	require.True(t, fb.lastQuery.ExcludePrivileged)
	require.Equal(t, 2, m.Page)
	require.Equal(t, 14, m.TotalCount)
	require.Equal(t, 3, m.TotalPages)
	require.Len(t, m.Files, 5)
}

func TestRuntimePanicsOnViolation(t *testing.T) {
	if !checksEnabled {
		t.Skip("invariant checks compiled out")
	}
	rt := newTestRuntime(t, newFakeBackend(), DefaultOptions())
	rt.model.Step = StepCategories

	require.PanicsWithError(t,
		"invariant violation after wizard.ErrorDismissed at step categories: categories step without a selected request",
		func() { rt.Dispatch(ErrorDismissed{}) })
}

// TestRuntimeRandomWalk interleaves user actions with collaborator results
// delivered in random order; the runtime panics on any invariant violation.
func TestRuntimeRandomWalk(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*31))
		fb := newFakeBackend()
		opts := DefaultOptions()
		if seed%2 == 0 {
			opts.FileQuery = FileQueryPaged
			opts.PageSize = 2
		}
		if seed%3 == 0 {
			opts.CategoryLoading = CategoryLoadingEager
		}
		rt := newTestRuntime(t, fb, opts)
		pending := expand(rt.Init())

		userMsgs := func() Msg {
			switch rng.IntN(9) {
			case 0:
				return RequestSelected{ID: int64(1 + rng.IntN(3))}
			case 1, 2:
				return CategoryToggled{Category: DefaultCategories()[rng.IntN(3)]}
			case 3:
				return FilesRequested{Page: rng.IntN(3)}
			case 4:
				return BackToRequest{}
			case 5:
				return BackToCategories{}
			case 6:
				return ExportRequested{}
			case 7:
				return CategoriesRequested{}
			default:
				return ErrorDismissed{}
			}
		}

		require.NotPanics(t, func() {
			for step := 0; step < 300; step++ {
				fb.failFiles = rng.IntN(5) == 0
				fb.failCats = rng.IntN(7) == 0
				if len(pending) > 0 && rng.IntN(2) == 0 {
					i := rng.IntN(len(pending))
					cmd := pending[i]
					pending = append(pending[:i], pending[i+1:]...)
					pending = append(pending, runCmd(t, rt, cmd)...)
					continue
				}
				pending = append(pending, expand(rt.Dispatch(userMsgs()))...)
			}
			for len(pending) > 0 {
				cmd := pending[0]
				pending = append(pending[1:], runCmd(t, rt, cmd)...)
			}
		}, "seed %d", seed)

		m := rt.Model()
		require.False(t, m.Loading.Files, "seed %d", seed)
		require.Zero(t, rt.Sequencer().Pending(), "seed %d", seed)
		require.NoError(t, CheckInvariants(m, nil, rt.Sequencer()))
	}
}

var _ tea.Model = (*teaAdapter)(nil)

// teaAdapter checks that the runtime composes with a bubbletea program.
type teaAdapter struct{ rt *Runtime }

func (a *teaAdapter) Init() tea.Cmd { return a.rt.Init() }
func (a *teaAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m, ok := msg.(Msg); ok {
		return a, a.rt.Dispatch(m)
	}
	return a, nil
}
func (a *teaAdapter) View() string { return a.rt.Model().Step.String() }
