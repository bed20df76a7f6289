package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fentz26/agent7/internal/api"
	"github.com/fentz26/agent7/internal/config"
	"github.com/fentz26/agent7/internal/logging"
	"github.com/fentz26/agent7/internal/store"
	"github.com/fentz26/agent7/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agent7",
	Short: "Agent7 - terminal client for the Agent7 task server",
	Long: `agent7 drives an Agent7 server from the terminal: select a project, create and
execute tasks, chat with the agent and follow execution output live.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr    string
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "Agent7 server address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.agent7/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(statusCmd, statsCmd, filesCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// loadSettings loads the config file and applies flag overrides.
func loadSettings(cmd *cobra.Command, args []string) error {
	c, err := config.LoadConfig(resolvedConfigPath())
	if err != nil {
		return err
	}
	if apiAddr != "" {
		c.Server = apiAddr
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	logger = logging.New(logging.Options{Level: cfg.LogLevel, Pretty: true})
	return nil
}

func newClient() *api.Client {
	return api.NewClient(cfg.Server, cfg.RequestTimeout())
}

// openStore opens the recent-projects database. Callers treat failure as
// non-fatal.
func openStore() (*store.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return store.New(cfg.DBPath())
}

// newController builds a headless controller printing alerts to stderr. With
// yes set every confirmation is accepted without asking.
func newController(yes bool, recorder ui.ProjectRecorder) *ui.Controller {
	return ui.NewController(newClient(), ui.Options{
		Prompter:      &terminalPrompter{yes: yes, in: bufio.NewReader(os.Stdin), out: os.Stderr},
		Recorder:      recorder,
		Log:           logger,
		FileListLimit: cfg.FileListLimit,
	})
}

// terminalPrompter asks confirmations on stdin.
type terminalPrompter struct {
	yes bool
	in  *bufio.Reader
	out io.Writer
}

func (p *terminalPrompter) Alert(msg string) {
	fmt.Fprintln(p.out, "⚠️  "+msg)
}

func (p *terminalPrompter) Confirm(ctx context.Context, msg string) bool {
	if p.yes {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N] ", msg)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// printOutput writes the output log entries appended since from.
func printOutput(ctrl *ui.Controller, from int) int {
	out := ctrl.Snapshot().Output
	for _, line := range out[min(from, len(out)):] {
		fmt.Print(line)
	}
	return len(out)
}
