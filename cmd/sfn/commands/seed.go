package commands

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jask/signalfromnoise/internal/database"
	"github.com/jask/signalfromnoise/internal/printer"
)

var (
	seedReset bool
	seedValue uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the catalog with deterministic mock data",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "wipe files and production requests first")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", defaultSeed, "random seed")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	if seedReset {
		printer.Step("resetting catalog")
		if err := st.maint.Reset(ctx); err != nil {
			return printer.Error("Reset failed", err.Error())
		}
	} else {
		n, err := st.files.Total(ctx)
		if err != nil {
			return printer.Error("Cannot read catalog", err.Error())
		}
		if n > 0 {
			printer.Warning("catalog already has %d files; nothing seeded", n)
			printer.Info("Run sfn seed --reset to replace it.")
			return nil
		}
	}

	printer.Step("seeding with seed %d", seedValue)
	stats, err := database.Seed(ctx, st.db, seedValue)
	if err != nil {
		return printer.Error("Seed failed", err.Error())
	}
	if st.cache != nil {
		if err := st.cache.Invalidate(ctx); err != nil {
			printer.Warning("cache invalidation failed: %v", err)
		}
	}
	if err := printer.Table([]string{"files", "privileged", "duplicates", "requests"}, [][]string{{
		strconv.Itoa(stats.Files),
		strconv.Itoa(stats.Privileged),
		strconv.Itoa(stats.Duplicates),
		strconv.Itoa(stats.Requests),
	}}); err != nil {
		return err
	}
	printer.Success("seeded %s", cfg.Database.Path)
	return nil
}
