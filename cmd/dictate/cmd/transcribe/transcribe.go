package transcribe

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"take-my-dictation/cmd/dictate/cmd/cli"
	"take-my-dictation/internal/app"
	"take-my-dictation/internal/app/converter"
	"take-my-dictation/internal/app/model"
)

var (
	minDuration float64
	maxDuration float64
	save        bool
)

func init() {
	Cmd.Flags().Float64Var(&minDuration, "min-duration", 0, "shortest accepted audio in seconds (default from config)")
	Cmd.Flags().Float64Var(&maxDuration, "max-duration", 0, "longest accepted audio in seconds (default from config)")
	Cmd.Flags().BoolVarP(&save, "save", "s", false, "store the result in the result database")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe one audio file and print the result as JSON",
	Long: `Transcribe one audio file and print the result as JSON

- The result is accepted, a best-effort fallback, or failed
- Audio that cannot be decoded or is too short or too long is rejected`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := cli.Logger()
		file, err := cli.LoadConfig()
		if err != nil {
			return err
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		stat, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot read audio file: %w", err)
		}

		application, err := app.InitializeApplication(file, logger)
		if err != nil {
			return err
		}

		var store converter.ResultRepository
		if save {
			s, cleanup, err := app.InitializeResultStore(cmd.Context(), file)
			if err != nil {
				return err
			}
			defer cleanup()
			store = s
		}

		runner := converter.NewBatchRunner(application.Pipeline, store, converter.BatchOptions{
			Workers: 1,
			Bounds:  cli.Bounds(file, minDuration, maxDuration),
		}, nil, logger)

		report, err := runner.Run(cmd.Context(), []model.FileInfo{{FullPath: path, Name: stat.Name(), ModTime: stat.ModTime()}})
		if err != nil {
			return err
		}
		fileReport := report.Files[0]
		if fileReport.Err != nil {
			return fileReport.Err
		}
		return cli.WriteJSON(cmd.OutOrStdout(), model.View(fileReport.Result))
	},
}
