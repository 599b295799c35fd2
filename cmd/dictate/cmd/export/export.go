package export

import (
	"fmt"

	"github.com/spf13/cobra"

	"take-my-dictation/cmd/dictate/cmd/cli"
	"take-my-dictation/internal/app"
	"take-my-dictation/internal/app/converter/export"
)

var (
	outputFilePath string
	limit          int
)

func init() {
	Cmd.Flags().StringVarP(&outputFilePath, "output", "o", "", "xlsx file to write")
	Cmd.Flags().IntVarP(&limit, "limit", "l", 100, "number of most recent results to export")

	_ = Cmd.MarkFlagRequired("output")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored results to an Excel workbook",
	Long: `Export stored results to an Excel workbook

- One row per stored run, newest first, including rejected audio`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := cli.LoadConfig()
		if err != nil {
			return err
		}
		store, cleanup, err := app.InitializeResultStore(cmd.Context(), file)
		if err != nil {
			return err
		}
		defer cleanup()

		records, err := store.ListRecent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if err := export.ToExcel(records, outputFilePath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d result(s) to %s\n", len(records), outputFilePath)
		return nil
	},
}
