package cmd

import (
	"fmt"
	"os"

	"github.com/nconklindev/sheetsync/internal/config"
	"github.com/nconklindev/sheetsync/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile string
	logFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sheetsync",
	Short: "Import spreadsheets into a Bitable table",
	Long: `sheetsync reads CSV and XLSX files, proposes a mapping from their
column headers to the fields of a Bitable table, lets you adjust it,
and creates one record per spreadsheet row.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command. version is printed by --version.
func Execute(version string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("sheetsync {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file (overrides LOG_FILE)")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(fieldsCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logFile != "" {
		c.Log.OutputPath = logFile
	}
	cfg = c
	return nil
}

// newLogger builds the logger for a command. When the TUI owns the terminal
// logs go to the configured file or nowhere.
func newLogger(tui bool) (*zap.Logger, error) {
	if tui {
		return logging.ForTUI(cfg.Log)
	}
	return logging.New(cfg.Log)
}
