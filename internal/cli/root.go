package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/netphils/cefdetector-standalone/internal/app"
	"github.com/netphils/cefdetector-standalone/internal/client"
	"github.com/netphils/cefdetector-standalone/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	backendURL   string
	backendToken string
	timeout      time.Duration
	appConfig    *config.Config

	// Set via ldflags at build time.
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "cefdetector",
	Short: "Find installed applications that bundle a browser runtime",
	Long: "cefdetector counts installed applications, then asks the detection backend which of them\n" +
		"embed a browser engine (libcef, Electron, NW.js, CefSharp, MiniBlink, ...).\n" +
		"Launch without subcommands for the interactive TUI.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			appConfig = config.Default()
			return nil
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		flags := cmd.Flags()
		if flags.Changed("url") {
			cfg.Backend.URL = backendURL
		}
		if flags.Changed("token") {
			cfg.Backend.Token = backendToken
		}
		if flags.Changed("timeout") {
			cfg.Backend.RequestTimeout = timeout
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := tea.LogToFile(appConfig.UI.LogFile, "cefdetector")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()

		p := tea.NewProgram(app.New(newBackend(), appConfig.UI.AboutURL), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// RootCmd exposes the command tree.
func RootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("cefdetector %s\n", version))
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/cefdetector/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "url", "", "WebSocket URL of the detection backend")
	rootCmd.PersistentFlags().StringVar(&backendToken, "token", "", "Auth token (if the backend requires it)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request HTTP timeout (0 = none)")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

func newBackend() *client.Backend {
	if appConfig == nil {
		appConfig = config.Default()
	}
	return client.NewBackend(appConfig.Backend.URL, appConfig.Backend.Token, appConfig.Backend.RequestTimeout)
}
