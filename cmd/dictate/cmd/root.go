package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"take-my-dictation/cmd/dictate/cmd/batch"
	"take-my-dictation/cmd/dictate/cmd/cli"
	"take-my-dictation/cmd/dictate/cmd/configcmd"
	"take-my-dictation/cmd/dictate/cmd/export"
	"take-my-dictation/cmd/dictate/cmd/transcribe"
	"take-my-dictation/cmd/dictate/cmd/version"
	"take-my-dictation/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dictate",
	Short: "Transcribe dictated audio with automatic quality checks",
	Long: `Transcribe dictated audio with automatic quality checks.

- Audio is measured and, when needed, compressed, converted or normalized
- Each transcript is scored; looping or low-confidence output is retried
  at different sampling temperatures
- Results are printed as JSON and can be stored in SQLite or PostgreSQL`,
	SilenceUsage:     true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	cli.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(batch.Cmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(version.Cmd)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&cli.Options.Verbose, "verbose", "V", false, "verbose output")
	flags.BoolVar(&cli.Options.JSONLogs, "log-json", false, "write logs as JSON")
	flags.StringVarP(&cli.Options.ConfigPath, "config", "c", config.GetDefaultConfigPath(), "pipeline config file")
}
