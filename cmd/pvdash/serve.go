package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jgoulah/pvdash/internal/logging"
	"github.com/jgoulah/pvdash/internal/server"
	"github.com/jgoulah/pvdash/internal/session"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Runs the HTTP API. Exports are uploaded as sessions and their views are served as JSON
or downloadable files. When input.path is configured it is preloaded as a session.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(cfg.GetMaxSessions())

	if cfg.Input.Path != "" {
		id, v, err := store.Create(loadDataset(ctx, cfg.Input.Path, cfg))
		if err != nil {
			return fmt.Errorf("creating preloaded session: %w", err)
		}
		logging.Info("Preloaded session", "session", id, "source", cfg.Input.Path, "ok", v.OK())
	}

	addr := serveListen
	if addr == "" {
		addr = cfg.GetListen()
	}

	srv := server.New(store, server.Options{
		MaxUploadBytes: cfg.GetMaxUploadBytes(),
		MaxRows:        getMaxRows(cfg),
	})
	return srv.ListenAndServe(ctx, addr)
}
