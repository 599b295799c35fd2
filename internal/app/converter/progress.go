package converter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Per-file batch outcomes, in the order the progress bar lists them.
const (
	OutcomeAccepted    = "accepted"
	OutcomeFallback    = "fallback"
	OutcomeFailed      = "failed"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
	OutcomeSkipped     = "skipped"
)

var outcomeOrder = []string{
	OutcomeAccepted, OutcomeFallback, OutcomeFailed,
	OutcomeRejected, OutcomeUnavailable, OutcomeSkipped,
}

type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
}

// ProgressManager renders batch progress on stderr. A disabled manager still
// hands out bars that keep outcome counts, so callers never branch on it.
type ProgressManager struct {
	container *mpb.Progress
	mu        sync.Mutex
}

func NewProgressManager(config ProgressConfig) *ProgressManager {
	if !config.Enabled {
		return &ProgressManager{}
	}
	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}
	return &ProgressManager{
		container: mpb.New(
			mpb.WithOutput(writer),
			mpb.WithRefreshRate(120*time.Millisecond),
		),
	}
}

// ProgressBar tracks one batch: how many files are done and how each ended.
type ProgressBar struct {
	bar *mpb.Bar

	mu     sync.Mutex
	counts map[string]int
}

// CreateBar adds a bar for total files. The right-hand side shows the running
// outcome tally, e.g. "3 accepted, 1 rejected".
func (pm *ProgressManager) CreateBar(total int, description string) *ProgressBar {
	pb := &ProgressBar{counts: make(map[string]int)}
	if pm.container == nil {
		return pb
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	pb.bar = pm.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(description+" ", decor.WC{W: len(description) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d/%d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncWidth), "done"),
			decor.Any(func(decor.Statistics) string { return pb.Tally() }, decor.WCSyncSpace),
		),
	)
	return pb
}

// Done records one finished file under outcome and advances the bar.
func (pb *ProgressBar) Done(outcome string) {
	pb.mu.Lock()
	pb.counts[outcome]++
	pb.mu.Unlock()
	if pb.bar != nil {
		pb.bar.Increment()
	}
}

// Tally lists the non-zero outcome counts.
func (pb *ProgressBar) Tally() string {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	var parts []string
	for _, outcome := range outcomeOrder {
		if n := pb.counts[outcome]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, outcome))
		}
	}
	return strings.Join(parts, ", ")
}

// Complete marks the bar done at its current count, which may be short of the
// total when a batch is cancelled.
func (pb *ProgressBar) Complete() {
	if pb.bar != nil {
		pb.bar.SetTotal(pb.bar.Current(), true)
	}
}

func (pm *ProgressManager) Wait() {
	if pm.container != nil {
		pm.container.Wait()
	}
}

func (pm *ProgressManager) Shutdown() {
	if pm.container != nil {
		pm.container.Shutdown()
	}
}

func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok || file == nil {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

// ShouldShowProgress enables bars when forced or when a terminal is attached.
func ShouldShowProgress(forced bool) bool {
	return forced || IsTTY(os.Stderr) || IsTTY(os.Stdout)
}

func FormatProgressDescription(action string, scope string) string {
	if scope != "" {
		return fmt.Sprintf("%s (%s)", action, scope)
	}
	return action
}
