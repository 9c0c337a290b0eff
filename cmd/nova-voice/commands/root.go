package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "nova-voice",
	Short: "Voice-driven specification interview server",
	Long: `nova-voice runs interview sessions that turn a spoken or typed
conversation into a written specification document.

Clients connect over a websocket and exchange text or audio with an
AI interviewer; the server tracks how well each readiness dimension
is covered and writes the final document once the interview is
complete.

Commands:
  serve      Run the websocket server
  sessions   Inspect and manage stored sessions
  version    Show version information

Examples:
  # Run the server with a config file
  nova-voice serve -c config.yaml

  # List stored sessions as YAML
  nova-voice sessions list --data-dir ./data

  # Pull one field out of a session with a jq filter
  nova-voice sessions get <id> --data-dir ./data -o json --query .currentPhase`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
}

// newLogger builds the process logger honoring --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
