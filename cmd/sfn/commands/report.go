package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/signalfromnoise/internal/database/repository"
	"github.com/jask/signalfromnoise/internal/printer"
)

var reportQuery fileQuery

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show how a selection narrows the catalog",
	Long: `Show the file count after each filter of the selection (category,
date range, privilege exclusion), then the email topics and correspondents
within the production request's window.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportQuery.register(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	params, err := reportQuery.params(0, 0)
	if err != nil {
		return printer.Error("Invalid flags", err.Error())
	}
	ctx := cmd.Context()
	log := newLogger(os.Stderr, cfg.Log.Level)

	st, err := openStore(ctx, cfg, log, false)
	if err != nil {
		return printer.Error("Cannot open catalog", err.Error())
	}
	defer st.Close()

	red, err := st.catalog.Reduction(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return printer.Error("Unknown production request", fmt.Sprintf("no request with id %d", params.RequestID))
		}
		return printer.Error("Report failed", err.Error())
	}
	rows := [][]string{{"catalog", "", strconv.Itoa(red.Initial), ""}}
	for _, s := range red.Steps {
		rows = append(rows, []string{s.Name, strconv.Itoa(s.Before), strconv.Itoa(s.After), percent(s.Reduction)})
	}
	if err := printer.Table([]string{"step", "before", "after", "reduction"}, rows); err != nil {
		return err
	}
	printer.Info("%d of %d files remain (%s reduction)", red.Final, red.Initial, percent(red.Total))

	topics, err := st.catalog.Topics(ctx, params.RequestID)
	if err != nil {
		return printer.Error("Report failed", err.Error())
	}
	people, err := st.catalog.People(ctx, params.RequestID)
	if err != nil {
		return printer.Error("Report failed", err.Error())
	}
	if len(topics) == 0 {
		printer.Warning("no email topics in scope")
	} else {
		printer.Info("topics: %s", strings.Join(topics, ", "))
	}
	printer.Info("people: %d internal, %d external, %d total", len(people.Internal), len(people.External), len(people.All))
	return nil
}

func percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}
