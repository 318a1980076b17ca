package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sanhsing/beidou-edu-server/internal/client"
)

var (
	configFile    string
	serverURL     string
	retryAttempts uint
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
	os.Exit(0)
}

func newRootCommand() *cobra.Command {
	var debugMode bool
	rootCommand := &cobra.Command{
		Use:           "beidou",
		Short:         "Spaced repetition reviews for learners",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
	}
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug mode")
	flags.StringVar(&serverURL, "server", "", "Base URL of a beidou-server, e.g. http://localhost:8080. The database is used directly when empty")
	flags.UintVar(&retryAttempts, "retry", client.DefaultRetryAttempts, "Attempts of read requests sent to --server")

	rootCommand.AddCommand(
		newMigrateCommand(),
		newRecordCommand(),
		newDueCommand(),
		newForecastCommand(),
		newStatsCommand(),
		newEnrollCommand(),
		newHistoryCommand(),
		newImportCommand(),
		newExportCommand(),
		newReportCommand(),
	)
	return rootCommand
}

// setupLogger configures the default logger based on debug mode
func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: debugMode,
		})),
	)
}
