// Package main provides the entry point for the mailtriage CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/mailtriage/internal/logging"
	"github.com/nhle/mailtriage/internal/model"
	"github.com/nhle/mailtriage/internal/progress"
	"github.com/nhle/mailtriage/internal/store"
	"github.com/nhle/mailtriage/internal/version"
)

var (
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mailtriage",
		Short: "mailtriage - Fetch, search and tag your mailbox",
		Long:  "Fetches messages from an IMAP mailbox into local storage and tags them by fuzzy search.",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(configureCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mailtriage %s\n", version.Version)
			fmt.Printf("Commit: %s\n", version.Commit)
			fmt.Printf("Built: %s\n", version.BuildTime)
		},
	}
}

// app bundles the pieces every command needs: the loaded configuration,
// a logger, the opened store and a progress sink writing to stderr.
type app struct {
	cfg    *model.AppConfig
	logger *slog.Logger
	store  *store.SQLiteStore
	sink   progress.Sink
}

func openApp() (*app, error) {
	path := configFile
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Logging)
	sink := progress.Writer(os.Stderr)

	st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath, cfg.Storage.DataDir, sink)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &app{cfg: cfg, logger: logger, store: st, sink: sink}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
}

// confirm prints the prompt and reads a y/n answer from stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var answer string
	if _, err := fmt.Scanln(&answer); err != nil {
		return false
	}
	return answer == "y" || answer == "Y" || answer == "yes"
}
