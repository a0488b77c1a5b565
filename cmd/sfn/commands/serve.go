package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/signalfromnoise/internal/api"
	"github.com/jask/signalfromnoise/internal/printer"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP",
	Long: `Serve the catalog API used by "sfn wizard --backend http".

Responses are JSON, or msgpack when the client sends
Accept: application/msgpack. Category counts are cached in redis when
cache.redis_addr is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	log := newLogger(os.Stderr, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return printer.Error("Cannot open catalog", err.Error())
	}
	defer st.Close()
	if err := st.seedIfEmpty(ctx, cfg, log); err != nil {
		return printer.Error("Cannot seed catalog", err.Error())
	}

	e := api.NewServer(api.NewHandler(st.catalog, st.export, version), log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(cfg.Server.Addr)
	}()
	printer.Success("serving on %s", cfg.Server.Addr)
	log.Info("server started", "addr", cfg.Server.Addr, "cache", st.cache != nil)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return printer.Error("Server stopped", err.Error())
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return printer.Error("Shutdown failed", err.Error())
	}
	log.Info("server stopped")
	return nil
}
