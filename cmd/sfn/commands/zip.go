package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/jask/signalfromnoise/internal/printer"
	"github.com/jask/signalfromnoise/internal/service"
)

// zipPageSize is how many ids are collected per search page.
const zipPageSize = 500

var zipQuery fileQuery

var zipCmd = &cobra.Command{
	Use:   "zip",
	Short: "Export every file matching a selection as a zip",
	Args:  cobra.NoArgs,
	RunE:  runZip,
}

func init() {
	zipQuery.register(zipCmd)
	rootCmd.AddCommand(zipCmd)
}

func runZip(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	log := newLogger(os.Stderr, cfg.Log.Level)

	st, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return printer.Error("Cannot open catalog", err.Error())
	}
	defer st.Close()

	var ids []int64
	for page := 1; ; page++ {
		params, err := zipQuery.params(page, zipPageSize)
		if err != nil {
			return printer.Error("Invalid flags", err.Error())
		}
		res, err := st.catalog.Search(ctx, params)
		if err != nil {
			return printer.Error("Search failed", err.Error())
		}
		for _, f := range res.Files {
			ids = append(ids, f.ID)
		}
		if page >= res.TotalPages {
			break
		}
	}

	printer.Step("zipping %d files", len(ids))
	path, err := st.export.CreateZip(ctx, zipQuery.request, ids)
	if errors.Is(err, service.ErrNoFiles) {
		printer.Warning("no files match the selection")
		return nil
	}
	if err != nil {
		return printer.Error("Export failed", err.Error())
	}
	printer.Success("wrote %s", path)
	return nil
}
