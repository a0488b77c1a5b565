package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jask/signalfromnoise/internal/backend"
	"github.com/jask/signalfromnoise/internal/config"
	"github.com/jask/signalfromnoise/internal/printer"
	"github.com/jask/signalfromnoise/internal/tui"
	"github.com/jask/signalfromnoise/internal/wizard"
)

var (
	wizardBackend string
	wizardURL     string
	wizardCodec   string
	wizardEager   bool
	wizardPaged   bool
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Run the interactive production request wizard",
	Long: `Run the three step wizard: choose a production request, choose data
categories, then review the matching files and export them as a zip.

Logs go to log.file because the terminal belongs to the UI.`,
	Args: cobra.NoArgs,
	RunE: runWizard,
}

func init() {
	f := wizardCmd.Flags()
	f.StringVar(&wizardBackend, "backend", "", "catalog backend: local or http (default from config)")
	f.StringVar(&wizardURL, "url", "", "API base url for the http backend")
	f.StringVar(&wizardCodec, "codec", "", "wire codec for the http backend: json or msgpack")
	f.BoolVar(&wizardEager, "eager", false, "prefetch categories at start")
	f.BoolVar(&wizardPaged, "paged", false, "fetch files through the paginated search")
	rootCmd.AddCommand(wizardCmd)
}

func applyWizardFlags(cfg *config.Config) error {
	if wizardBackend != "" {
		cfg.Backend.Mode = wizardBackend
	}
	if wizardURL != "" {
		cfg.Backend.URL = wizardURL
	}
	if wizardCodec != "" {
		cfg.Backend.Codec = wizardCodec
	}
	if wizardEager {
		cfg.Wizard.CategoryLoading = string(wizard.CategoryLoadingEager)
	}
	if wizardPaged {
		cfg.Wizard.FileQuery = string(wizard.FileQueryPaged)
	}
	return cfg.Validate()
}

func runWizard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyWizardFlags(&cfg); err != nil {
		return printer.Error("Invalid flags", err.Error())
	}
	opts, err := cfg.Options()
	if err != nil {
		return printer.Error("Invalid wizard options", err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return printer.Error("Cannot create log directory", err.Error())
	}
	logFile, err := tea.LogToFile(cfg.Log.File, "sfn")
	if err != nil {
		return printer.Error("Cannot open log file", err.Error())
	}
	defer logFile.Close()
	log := newLogger(logFile, cfg.Log.Level)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var b wizard.Backend
	switch cfg.Backend.Mode {
	case "http":
		client, err := backend.NewClient(cfg.Backend.URL, backend.Codec(cfg.Backend.Codec), cfg.Backend.Timeout)
		if err != nil {
			return printer.Error("Invalid backend url", err.Error())
		}
		b = client
		log.Info("wizard using http backend", "url", cfg.Backend.URL, "codec", cfg.Backend.Codec)
	default:
		st, err := openStore(ctx, cfg, log, true)
		if err != nil {
			return printer.Error("Cannot open catalog", err.Error(),
				"Check database.path in "+config.Path()+".")
		}
		defer st.Close()
		if err := st.seedIfEmpty(ctx, cfg, log); err != nil {
			return printer.Error("Cannot seed catalog", err.Error())
		}
		b = &backend.Local{Catalog: st.catalog, Export: st.export}
		log.Info("wizard using local backend", "db", cfg.Database.Path)
	}

	p := tea.NewProgram(tui.New(ctx, b, opts, log), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return printer.Error("Wizard exited with an error", fmt.Sprint(err))
	}
	return nil
}
