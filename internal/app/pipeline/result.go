package pipeline

import (
	"fmt"

	"take-my-dictation/internal/app/model"
)

const (
	warnRepetitionPersisted = "possible repetition persisted after all retries"
	warnLowConfidence       = "low confidence - audio may require re-recording"
	warnFairQuality         = "transcript quality is fair - manual review recommended"
	warnPoorQuality         = "transcript quality is poor - verify against the recording"
	warnNoUsableText        = "recognizer returned no usable text"
)

// assembly collects what result assembly needs from a finished sweep.
type assembly struct {
	attempts  []model.TranscriptionAttempt
	decision  Decision
	warnings  []string
	elapsedMs int64
}

// assembleResult builds the single result of a request. The accepted attempt
// is the last one; on fallback the best usable attempt wins, earliest first
// on ties. A sweep with no usable text is a FailedResult.
func assembleResult(cfg *Config, a assembly) model.TranscriptionResult {
	warnings := append([]string(nil), a.warnings...)
	for _, att := range a.attempts {
		if att.Assessment.RepetitionDetected {
			warnings = append(warnings, repetitionWarning(att))
		}
	}

	summary := model.ResultSummary{
		AttemptsMade:   len(a.attempts),
		TotalElapsedMs: a.elapsedMs,
	}

	if a.decision == DecisionAccept && len(a.attempts) > 0 {
		chosen := a.attempts[len(a.attempts)-1]
		summary.Warnings = nonNil(append(warnings, levelWarnings(cfg, chosen.Assessment)...))
		return model.AcceptedResult{Transcript: transcriptOf(chosen), ResultSummary: summary}
	}

	best, ok := bestAttempt(a.attempts)
	if !ok {
		summary.Warnings = append(warnings, warnNoUsableText)
		return model.FailedResult{
			ResultSummary: summary,
			Reason:        fmt.Sprintf("no usable transcript after %d attempt(s)", len(a.attempts)),
		}
	}

	warnings = append(warnings, fmt.Sprintf(
		"best-effort result: no attempt reached the acceptance threshold %.2f after %d attempt(s)",
		cfg.AcceptanceThreshold(), len(a.attempts)))
	if best.Assessment.RepetitionDetected {
		warnings = append(warnings, warnRepetitionPersisted)
	}
	summary.Warnings = nonNil(append(warnings, levelWarnings(cfg, best.Assessment)...))
	return model.FallbackResult{Transcript: transcriptOf(best), ResultSummary: summary}
}

func bestAttempt(attempts []model.TranscriptionAttempt) (model.TranscriptionAttempt, bool) {
	var (
		best  model.TranscriptionAttempt
		found bool
	)
	for _, att := range attempts {
		if att.Assessment.QualityLevel == model.QualityFailed {
			continue
		}
		if !found || att.Assessment.ConfidenceScore > best.Assessment.ConfidenceScore {
			best, found = att, true
		}
	}
	return best, found
}

func levelWarnings(cfg *Config, qa model.QualityAssessment) []string {
	var warnings []string
	if qa.ConfidenceScore < cfg.LowConfidenceThreshold() {
		warnings = append(warnings, warnLowConfidence)
	}
	switch qa.QualityLevel {
	case model.QualityFair:
		warnings = append(warnings, warnFairQuality)
	case model.QualityPoor:
		warnings = append(warnings, warnPoorQuality)
	}
	return warnings
}

func repetitionWarning(att model.TranscriptionAttempt) string {
	if att.Assessment.RepeatedPhrase == "" {
		return fmt.Sprintf("repetition detected at temperature=%.1f", att.ParameterValue)
	}
	return fmt.Sprintf("repetition detected at temperature=%.1f: %q", att.ParameterValue, att.Assessment.RepeatedPhrase)
}

func transcriptOf(att model.TranscriptionAttempt) model.Transcript {
	return model.Transcript{
		FinalText:          att.Text,
		Language:           att.Language,
		ConfidenceScore:    att.Assessment.ConfidenceScore,
		QualityLevel:       att.Assessment.QualityLevel,
		ParameterUsed:      att.ParameterValue,
		RepetitionDetected: att.Assessment.RepetitionDetected,
	}
}

func nonNil(warnings []string) []string {
	if warnings == nil {
		return []string{}
	}
	return warnings
}
