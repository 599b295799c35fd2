package batch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"take-my-dictation/cmd/dictate/cmd/cli"
	"take-my-dictation/internal/app"
	"take-my-dictation/internal/app/converter"
)

var (
	workers       int
	limit         int
	recursive     bool
	skipProcessed bool
	noSave        bool
	progress      bool
	metricsAddr   string
	minDuration   float64
	maxDuration   float64
)

func init() {
	flags := Cmd.Flags()
	flags.IntVarP(&workers, "workers", "w", 0, "parallel transcriptions (default from config)")
	flags.IntVarP(&limit, "limit", "l", 0, "transcribe at most this many files, 0 for all")
	flags.BoolVarP(&recursive, "recursive", "r", false, "include subdirectories")
	flags.BoolVar(&skipProcessed, "skip-processed", true, "skip files whose content already has a stored transcript")
	flags.BoolVar(&noSave, "no-save", false, "do not store results")
	flags.BoolVar(&progress, "progress", false, "always show the progress bar, even without a terminal")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the batch runs")
	flags.Float64Var(&minDuration, "min-duration", 0, "shortest accepted audio in seconds (default from config)")
	flags.Float64Var(&maxDuration, "max-duration", 0, "longest accepted audio in seconds (default from config)")
}

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch <directory>",
	Short: "Transcribe every audio file in a directory",
	Long: `Transcribe every audio file in a directory

- Files are processed oldest first by a bounded worker pool
- Every outcome, including rejected audio, is stored in the result database
- Files already transcribed (same content hash) are skipped`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := cli.Logger()
		file, err := cli.LoadConfig()
		if err != nil {
			return err
		}

		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		files, err := converter.FindAudioFiles(dir, recursive)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			logger.Info("no audio files found", zap.String("dir", dir))
			return nil
		}

		application, err := app.InitializeApplication(file, logger)
		if err != nil {
			return err
		}

		if metricsAddr != "" {
			stop := serveMetrics(application, logger)
			defer stop()
		}

		var store converter.ResultRepository
		if !noSave {
			s, cleanup, err := app.InitializeResultStore(cmd.Context(), file)
			if err != nil {
				return err
			}
			defer cleanup()
			store = s
		}

		if workers <= 0 {
			workers = file.Recognizer.Workers
		}
		pm := converter.NewProgressManager(converter.ProgressConfig{Enabled: converter.ShouldShowProgress(progress)})
		defer pm.Shutdown()

		runner := converter.NewBatchRunner(application.Pipeline, store, converter.BatchOptions{
			Workers:       workers,
			Limit:         limit,
			Bounds:        cli.Bounds(file, minDuration, maxDuration),
			SkipProcessed: skipProcessed && store != nil,
		}, pm, logger)

		report, err := runner.Run(cmd.Context(), files)
		printReport(cmd, report)
		return err
	},
}

func serveMetrics(application *app.Application, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(application.Registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", metricsAddr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

func printReport(cmd *cobra.Command, report converter.BatchReport) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tOUTCOME\tQUALITY\tATTEMPTS\tDETAIL")
	for _, fr := range report.Files {
		fmt.Fprintln(w, describe(fr))
	}
	_ = w.Flush()

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d accepted, %d fallback, %d failed, %d rejected, %d unavailable, %d skipped (batch %s)\n",
		report.Accepted, report.Fallback, report.Failed, report.Rejected, report.Unavailable, report.Skipped, report.RunID)
	if report.Fallback+report.Failed+report.Rejected+report.Unavailable > 0 {
		fmt.Fprintln(os.Stderr, "some files need review; see the DETAIL column")
	}
}
