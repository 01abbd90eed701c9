package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tau/usage-live/internal/applog"
	"github.com/tau/usage-live/internal/claude"
	"github.com/tau/usage-live/internal/cli"
	"github.com/tau/usage-live/internal/config"
	"github.com/tau/usage-live/internal/cursor"
	"github.com/tau/usage-live/internal/tui"
	"github.com/tau/usage-live/internal/usage"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:          "usage-live",
		Short:        "Live terminal dashboard for Claude Pro and Cursor usage",
		Long:         "usage-live polls the Anthropic and Cursor usage APIs and renders\nlive progress bars. Left/Right switch views, q or Ctrl+C quits.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}

	var jsonMode, plainMode bool
	status := &cobra.Command{
		Use:   "status",
		Short: "Fetch usage once and print it",
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(runStatus(jsonMode, plainMode))
		},
	}
	status.Flags().BoolVar(&jsonMode, "json", false, "output JSON")
	status.Flags().BoolVar(&plainMode, "plain", false, "plain text (no color)")

	root.AddCommand(status)
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("usage-live " + version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage-live: %v (using defaults)\n", err)
	}
	return cfg
}

func providers(cfg config.Config) map[usage.View]tui.Provider {
	p := make(map[usage.View]tui.Provider)
	if cfg.ClaudeEnabled() {
		p[usage.ViewClaude] = claude.NewClient()
	}
	if cfg.CursorEnabled() {
		p[usage.ViewCursor] = cursor.NewClient()
	}
	return p
}

func runTUI() error {
	cfg := loadConfig()
	provs := providers(cfg)
	if len(provs) == 0 {
		return fmt.Errorf("both views are disabled in %s", config.DefaultPath())
	}

	logger, closer, err := applog.Init(config.LogDir(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("starting", "version", version, "interval", cfg.Interval().String())

	p := tea.NewProgram(tui.New(cfg, provs, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runStatus(jsonMode, plainMode bool) int {
	cfg := loadConfig()
	views := make(map[string]cli.Fetcher)
	if cfg.ClaudeEnabled() {
		views["claude"] = claude.NewClient()
	}
	if cfg.CursorEnabled() {
		views["cursor"] = cursor.NewClient()
	}
	return cli.Status(views, jsonMode, plainMode)
}
