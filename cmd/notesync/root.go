package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/notesync/internal/model"
)

var (
	cfgPath string
	verbose bool
	cfg     *model.AppConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notesync",
	Short: "Keep a local notes cache in sync with an IMAP mailbox",
	Long: `notesync mirrors the notes stored as messages in IMAP folders into a
local SQLite cache, lets you edit them offline and pushes the changes
back on the next sync.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := model.LoadConfig(cfgPath)
		if err != nil {
			fatal("Error loading config", err)
		}
		cfg = loaded

		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			level = slog.LevelInfo
		}
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", model.DefaultConfigPath(), "Path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}
