package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/agent7/internal/api"
	"github.com/fentz26/agent7/internal/logging"
	"github.com/fentz26/agent7/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Logs go to a file while the TUI owns the terminal.
	f, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer f.Close()
	log := logging.New(logging.Options{Level: cfg.LogLevel, Output: f})

	if !isServerReachable(cmd.Context()) {
		fmt.Fprintf(os.Stderr, "⚠️  Agent7 server not reachable at %s; panels will fill in once it is up.\n", cfg.Server)
	}

	st, err := openStore()
	if err != nil {
		log.Warn().Err(err).Msg("recent projects unavailable")
	} else {
		defer st.Close()
	}

	app := tui.New(tui.Options{
		Client: newClient(),
		Config: cfg,
		Store:  st,
		Log:    log,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("server", cfg.Server).Msg("starting tui")
	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func isServerReachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err := api.NewClient(cfg.Server, time.Second).Status(ctx)
	return err == nil
}
