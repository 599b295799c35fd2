package converter

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"take-my-dictation/internal/app/audio"
	"take-my-dictation/internal/app/errors"
	"take-my-dictation/internal/app/model"
	"take-my-dictation/internal/app/repository"
	"take-my-dictation/internal/app/utils"
)

// Transcriber runs the quality pipeline on one audio payload.
type Transcriber interface {
	Run(ctx context.Context, raw []byte, containerHint string, bounds audio.DurationBounds) (model.TranscriptionResult, error)
}

// ResultRepository is the subset of the result store used by batches.
type ResultRepository interface {
	Save(ctx context.Context, rec repository.Record) (int64, error)
	GetByFileHash(ctx context.Context, hash string) (*repository.Record, error)
}

// BatchOptions controls a batch run
type BatchOptions struct {
	Workers int
	// Limit caps how many unprocessed files are transcribed; 0 means all.
	Limit  int
	Bounds audio.DurationBounds
	// SkipProcessed skips files whose content hash already has a transcript.
	SkipProcessed bool
}

// FileReport is the outcome for one file
type FileReport struct {
	File    model.FileInfo
	Hash    string
	Skipped bool
	Result  model.TranscriptionResult
	Err     error
}

// BatchReport summarizes a batch run
type BatchReport struct {
	RunID string
	Files []FileReport

	Accepted    int
	Fallback    int
	Failed      int
	Rejected    int
	Unavailable int
	Skipped     int
}

// BatchRunner transcribes many files with a bounded worker pool. Each file is
// an independent pipeline request; the recognizer's rate limit is enforced by
// the recognizer the pipeline was built with.
type BatchRunner struct {
	transcriber Transcriber
	store       ResultRepository
	opts        BatchOptions
	progress    *ProgressManager
	logger      *zap.Logger
	now         func() time.Time
}

// NewBatchRunner creates a runner. store and progress may be nil.
func NewBatchRunner(transcriber Transcriber, store ResultRepository, opts BatchOptions, progress *ProgressManager, logger *zap.Logger) *BatchRunner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if progress == nil {
		progress = NewProgressManager(ProgressConfig{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchRunner{
		transcriber: transcriber,
		store:       store,
		opts:        opts,
		progress:    progress,
		logger:      logger,
		now:         time.Now,
	}
}

// Run processes files in order of discovery. Per-file failures are recorded in
// the report; only cancellation aborts the batch.
func (b *BatchRunner) Run(ctx context.Context, files []model.FileInfo) (BatchReport, error) {
	report := BatchReport{RunID: uuid.NewString()}
	logger := b.logger.With(zap.String("batch_id", report.RunID))

	reports := make([]FileReport, len(files))
	bar := b.progress.CreateBar(len(files), FormatProgressDescription("Transcribing", batchScope(files)))

	var (
		mu        sync.Mutex
		scheduled int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		i, file := i, file
		g.Go(func() error {
			fr := FileReport{File: file}
			defer func() { bar.Done(outcomeOf(fr)) }()

			raw, err := os.ReadFile(file.FullPath)
			if err != nil {
				fr.Err = errors.Wrapf(errors.ErrFileReadFailed, "%s: %v", file.FullPath, err)
				reports[i] = fr
				return nil
			}
			fr.Hash = utils.HashBytes(raw)

			if b.opts.SkipProcessed && b.store != nil {
				if prev, err := b.store.GetByFileHash(gctx, fr.Hash); err == nil {
					logger.Info("file already transcribed, skipping", zap.String("file", file.Name), zap.Int64("result_id", prev.ID))
					fr.Skipped = true
					reports[i] = fr
					return nil
				}
			}

			mu.Lock()
			if b.opts.Limit > 0 && scheduled >= b.opts.Limit {
				mu.Unlock()
				fr.Skipped = true
				reports[i] = fr
				return nil
			}
			scheduled++
			mu.Unlock()

			fr.Result, fr.Err = b.transcriber.Run(gctx, raw, file.Name, b.opts.Bounds)
			if ctxErr := gctx.Err(); ctxErr != nil && fr.Err != nil {
				reports[i] = fr
				return ctxErr
			}
			b.record(gctx, logger, &fr)
			reports[i] = fr
			return nil
		})
	}

	err := g.Wait()
	bar.Complete()
	b.progress.Wait()

	for _, fr := range reports {
		if fr.File.FullPath == "" {
			continue
		}
		report.Files = append(report.Files, fr)
		report.tally(fr)
	}
	if err == nil {
		err = ctx.Err()
	}
	logger.Info("batch finished",
		zap.Int("files", len(report.Files)),
		zap.Int("accepted", report.Accepted),
		zap.Int("fallback", report.Fallback),
		zap.Int("failed", report.Failed),
		zap.Int("rejected", report.Rejected),
		zap.Int("unavailable", report.Unavailable),
		zap.Int("skipped", report.Skipped),
	)
	return report, err
}

// record persists the file's outcome. Storage failures are logged, not fatal.
func (b *BatchRunner) record(ctx context.Context, logger *zap.Logger, fr *FileReport) {
	if b.store == nil {
		return
	}
	requestID := uuid.NewString()
	var rec repository.Record
	switch {
	case fr.Err == nil:
		rec = repository.NewRecord(requestID, fr.File, fr.Hash, fr.Result, b.now())
	case errors.Is(fr.Err, errors.ErrInvalidAudio):
		rec = repository.NewErrorRecord(requestID, fr.File, fr.Hash, repository.OutcomeInvalidAudio, fr.Err, b.now())
	default:
		rec = repository.NewErrorRecord(requestID, fr.File, fr.Hash, repository.OutcomeUnavailable, fr.Err, b.now())
	}
	if _, err := b.store.Save(ctx, rec); err != nil {
		logger.Error("failed to save result", zap.String("file", fr.File.Name), zap.Error(err))
	}
}

// outcomeOf names how one file ended.
func outcomeOf(fr FileReport) string {
	switch {
	case fr.Skipped:
		return OutcomeSkipped
	case fr.Err == nil && fr.Result != nil:
		switch fr.Result.Outcome() {
		case model.OutcomeAccepted:
			return OutcomeAccepted
		case model.OutcomeExhaustedFallback:
			return OutcomeFallback
		default:
			return OutcomeFailed
		}
	case errors.Is(fr.Err, errors.ErrInvalidAudio), errors.Is(fr.Err, errors.ErrFileReadFailed):
		return OutcomeRejected
	default:
		return OutcomeUnavailable
	}
}

func (r *BatchReport) tally(fr FileReport) {
	switch outcomeOf(fr) {
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeAccepted:
		r.Accepted++
	case OutcomeFallback:
		r.Fallback++
	case OutcomeFailed:
		r.Failed++
	case OutcomeRejected:
		r.Rejected++
	default:
		r.Unavailable++
	}
}

// FindAudioFiles lists audio files in dir, oldest first.
func FindAudioFiles(dir string, recursive bool) ([]model.FileInfo, error) {
	var files []model.FileInfo
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !isAudioFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, model.FileInfo{FullPath: path, Name: d.Name(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list audio files in %s", dir)
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].FullPath < files[j].FullPath
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

func isAudioFile(name string) bool {
	switch audio.NormalizeContainerHint(filepath.Ext(name)) {
	case audio.FormatWAV, audio.FormatMP3, audio.FormatMP4, audio.FormatM4A, audio.FormatWEBM,
		audio.FormatMPEG, audio.FormatMPGA, audio.FormatFLAC, audio.FormatOGG, audio.FormatAMR:
		return true
	}
	return false
}

func batchScope(files []model.FileInfo) string {
	if len(files) == 0 {
		return ""
	}
	return filepath.Base(filepath.Dir(files[0].FullPath))
}
