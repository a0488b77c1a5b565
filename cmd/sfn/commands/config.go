package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jask/signalfromnoise/internal/config"
	"github.com/jask/signalfromnoise/internal/printer"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.Path()
	if _, err := os.Stat(path); err == nil && !configForce {
		return printer.Error("Config file already exists", path, "Pass --force to overwrite it.")
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return printer.Error("Cannot stat config file", err.Error())
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return printer.Error("Cannot write config", err.Error())
	}
	printer.Success("wrote %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rows := [][]string{
		{"config", config.Path()},
		{"database.path", cfg.Database.Path},
		{"database.seed_on_empty", fmt.Sprint(cfg.Database.SeedOnEmpty)},
		{"backend.mode", cfg.Backend.Mode},
		{"backend.url", cfg.Backend.URL},
		{"backend.codec", cfg.Backend.Codec},
		{"backend.timeout", cfg.Backend.Timeout.String()},
		{"server.addr", cfg.Server.Addr},
		{"cache.redis_addr", cfg.Cache.RedisAddr},
		{"cache.ttl", cfg.Cache.TTL.String()},
		{"wizard.category_loading", cfg.Wizard.CategoryLoading},
		{"wizard.file_query", cfg.Wizard.FileQuery},
		{"wizard.page_size", fmt.Sprint(cfg.Wizard.PageSize)},
		{"wizard.exclude_privileged", fmt.Sprint(cfg.Wizard.ExcludePrivileged)},
		{"wizard.date_start", cfg.Wizard.DateStart},
		{"wizard.date_end", cfg.Wizard.DateEnd},
		{"export.dir", cfg.Export.Dir},
		{"log.file", cfg.Log.File},
		{"log.level", cfg.Log.Level},
	}
	return printer.Table([]string{"key", "value"}, rows)
}
