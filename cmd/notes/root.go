package main

import (
	"fmt"
	"os"

	"github.com/jrsteele09/go-notes-client/internal/config"
	"github.com/jrsteele09/go-notes-client/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	envFile string

	cfg    config.Config
	logger zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notes",
	Short: "Multi-tenant notes from the command line",
	Long: `notes signs in to a notes API and manages your organisation's notes,
members and plan. The session is kept between runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg = config.New()

		level := cfg.GetLogLevel()
		if verbose {
			level = "debug"
		}
		logger = logging.New(level, cfg.GetPrettyLogs())
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		displayAppname(cfg.GetAppName())
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Load environment variables from this file if it exists")
}
