package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/signalfromnoise/internal/printer"
	"github.com/jask/signalfromnoise/internal/service"
)

var importDate string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a file manifest or production requests",
}

var importManifestCmd = &cobra.Command{
	Use:   "manifest <file.json>",
	Short: "Import a JSON manifest mapping file paths to content hashes",
	Long: `Import a JSON object of path -> hash. Hidden files and archives
(.zip, .pst, .zst) are skipped and categories are derived from the path.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportManifest,
}

var importRequestsCmd = &cobra.Command{
	Use:   "requests <file.yaml|file.json>",
	Short: "Import production requests from YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportRequests,
}

func init() {
	importManifestCmd.Flags().StringVar(&importDate, "date", "", "date recorded for every imported file, YYYY-MM-DD (default today)")
	importCmd.AddCommand(importManifestCmd, importRequestsCmd)
	rootCmd.AddCommand(importCmd)
}

func runImportManifest(cmd *cobra.Command, args []string) error {
	at := time.Now().UTC()
	if importDate != "" {
		d, err := parseDay(importDate, false)
		if err != nil {
			return printer.Error("Invalid --date", err.Error())
		}
		at = *d
	}
	return runImport(cmd, args[0], func(st *store, f *os.File) (service.ImportResult, error) {
		return st.importer.ImportManifest(cmd.Context(), f, at)
	})
}

func runImportRequests(cmd *cobra.Command, args []string) error {
	return runImport(cmd, args[0], func(st *store, f *os.File) (service.ImportResult, error) {
		return st.importer.ImportRequests(cmd.Context(), f)
	})
}

func runImport(cmd *cobra.Command, path string, fn func(*store, *os.File) (service.ImportResult, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr, cfg.Log.Level)

	f, err := os.Open(path)
	if err != nil {
		return printer.Error("Cannot open import file", err.Error())
	}
	defer f.Close()

	st, err := openStore(cmd.Context(), cfg, log, true)
	if err != nil {
		return printer.Error("Cannot open catalog", err.Error())
	}
	defer st.Close()

	printer.Step("importing %s", path)
	res, err := fn(st, f)
	if err != nil {
		return printer.Error("Import failed", err.Error())
	}
	for _, e := range res.Errors {
		printer.Warning("%v", e)
	}
	printer.Success("imported %d, skipped %d", res.Imported, res.Skipped)
	log.Info("import finished", "path", path, "imported", res.Imported, "skipped", res.Skipped, "errors", len(res.Errors))
	return nil
}
