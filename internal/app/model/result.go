package model

import "fmt"

// Outcome tags which variant a TranscriptionResult is.
type Outcome int

const (
	OutcomeAccepted Outcome = iota + 1
	OutcomeExhaustedFallback
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeExhaustedFallback:
		return "exhausted_fallback"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ResultSummary carries the fields every result variant has.
type ResultSummary struct {
	AttemptsMade   int      `json:"attempts_made"`
	TotalElapsedMs int64    `json:"total_elapsed_ms"`
	Warnings       []string `json:"warnings"`
}

func (s ResultSummary) Summary() ResultSummary {
	return s
}

// Transcript is the text chosen from one attempt together with its grade.
type Transcript struct {
	FinalText          string       `json:"final_text"`
	Language           string       `json:"language,omitempty"`
	ConfidenceScore    float64      `json:"confidence_score"`
	QualityLevel       QualityLevel `json:"quality_level"`
	ParameterUsed      float32      `json:"parameter_used"`
	RepetitionDetected bool         `json:"repetition_detected"`
}

// TranscriptionResult is one of AcceptedResult, FallbackResult or FailedResult.
// The set is closed: only this package can add variants.
type TranscriptionResult interface {
	Outcome() Outcome
	Summary() ResultSummary
	isTranscriptionResult()
}

// AcceptedResult is produced when an attempt met the acceptance criteria.
type AcceptedResult struct {
	Transcript
	ResultSummary
}

func (AcceptedResult) Outcome() Outcome       { return OutcomeAccepted }
func (AcceptedResult) isTranscriptionResult() {}

// FallbackResult is produced when the sweep ran out and the best attempt was kept.
type FallbackResult struct {
	Transcript
	ResultSummary
}

func (FallbackResult) Outcome() Outcome       { return OutcomeExhaustedFallback }
func (FallbackResult) isTranscriptionResult() {}

// FailedResult is produced when no attempt yielded usable text.
type FailedResult struct {
	ResultSummary
	Reason string `json:"reason"`
}

func (FailedResult) Outcome() Outcome       { return OutcomeFailed }
func (FailedResult) isTranscriptionResult() {}

// TranscriptOf returns the chosen transcript for variants that carry one.
func TranscriptOf(r TranscriptionResult) (Transcript, bool) {
	switch v := r.(type) {
	case AcceptedResult:
		return v.Transcript, true
	case FallbackResult:
		return v.Transcript, true
	default:
		return Transcript{}, false
	}
}

// ResultView is the flattened, serializable form of a TranscriptionResult.
type ResultView struct {
	Outcome Outcome `json:"outcome"`
	*Transcript
	ResultSummary
	Reason string `json:"reason,omitempty"`
}

// View flattens a result for JSON output and persistence.
func View(r TranscriptionResult) ResultView {
	view := ResultView{Outcome: r.Outcome(), ResultSummary: r.Summary()}
	if t, ok := TranscriptOf(r); ok {
		view.Transcript = &t
	}
	if f, ok := r.(FailedResult); ok {
		view.Reason = f.Reason
	}
	return view
}
