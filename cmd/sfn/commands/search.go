package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jask/signalfromnoise/internal/database/repository"
	"github.com/jask/signalfromnoise/internal/printer"
	"github.com/jask/signalfromnoise/internal/service"
)

// fileQuery holds the selection flags shared by search and zip.
type fileQuery struct {
	request           int64
	categories        []string
	excludePrivileged bool
	start             string
	end               string
}

func (q *fileQuery) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int64Var(&q.request, "request", 0, "production request id; its date window scopes the query")
	f.StringSliceVar(&q.categories, "category", nil, "categories to include: email, claim, other (default all)")
	f.BoolVar(&q.excludePrivileged, "exclude-privileged", false, "leave out privileged files")
	f.StringVar(&q.start, "start", "", "first day, YYYY-MM-DD")
	f.StringVar(&q.end, "end", "", "last day, YYYY-MM-DD (inclusive)")
}

func (q *fileQuery) params(page, pageSize int) (service.SearchParams, error) {
	start, err := parseDay(q.start, false)
	if err != nil {
		return service.SearchParams{}, err
	}
	end, err := parseDay(q.end, true)
	if err != nil {
		return service.SearchParams{}, err
	}
	categories := q.categories
	if len(categories) == 0 {
		categories = repository.Categories
	}
	return service.SearchParams{
		RequestID:         q.request,
		DateStart:         start,
		DateEnd:           end,
		Categories:        categories,
		ExcludePrivileged: q.excludePrivileged,
		Page:              page,
		PageSize:          pageSize,
	}, nil
}

var (
	searchQuery    fileQuery
	searchPage     int
	searchPageSize int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "List catalog files matching a selection",
	Args:  cobra.NoArgs,
	RunE:  runSearch,
}

func init() {
	searchQuery.register(searchCmd)
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "page number")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 0, "rows per page (default wizard.page_size)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pageSize := searchPageSize
	if pageSize <= 0 {
		pageSize = cfg.Wizard.PageSize
	}
	params, err := searchQuery.params(searchPage, pageSize)
	if err != nil {
		return printer.Error("Invalid flags", err.Error())
	}
	log := newLogger(os.Stderr, cfg.Log.Level)

	st, err := openStore(cmd.Context(), cfg, log, true)
	if err != nil {
		return printer.Error("Cannot open catalog", err.Error())
	}
	defer st.Close()

	res, err := st.catalog.Search(cmd.Context(), params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return printer.Error("Unknown production request", fmt.Sprintf("no request with id %d", params.RequestID))
		}
		return printer.Error("Search failed", err.Error())
	}

	rows := make([][]string, 0, len(res.Files))
	for _, f := range res.Files {
		rows = append(rows, []string{
			strconv.FormatInt(f.ID, 10),
			f.Date.Format("2006-01-02"),
			f.Category,
			strconv.FormatBool(f.Privileged),
			f.FileName,
			f.Path,
		})
	}
	if err := printer.Table([]string{"id", "date", "category", "privileged", "file", "path"}, rows); err != nil {
		return err
	}
	printer.Info("page %d of %d, %d files", res.Page, res.TotalPages, res.TotalCount)
	return nil
}
