package quality

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"take-my-dictation/internal/app/model"
)

// Assessment flags recorded on a QualityAssessment.
const (
	FlagRepetition    = "repetition"
	FlagLowDiversity  = "low_word_diversity"
	FlagGarbledOutput = "garbled_characters"
)

// ScorerOptions holds the deduction weights and thresholds of the confidence score.
type ScorerOptions struct {
	RepetitionPenalty     float64
	LowDiversityPenalty   float64
	LowDiversityThreshold float64
	GarbledPenalty        float64
	GarbledThreshold      float64

	// SegmentWeight is the share of the final score taken by the mean segment
	// probability when the recognizer reported segments.
	SegmentWeight float64
}

func DefaultScorerOptions() ScorerOptions {
	return ScorerOptions{
		RepetitionPenalty:     0.5,
		LowDiversityPenalty:   0.3,
		LowDiversityThreshold: 0.30,
		GarbledPenalty:        0.2,
		GarbledThreshold:      0.10,
		SegmentWeight:         0.5,
	}
}

// ConfidenceScorer grades a single transcript.
type ConfidenceScorer struct {
	opts ScorerOptions
}

func NewConfidenceScorer(opts ScorerOptions) *ConfidenceScorer {
	return &ConfidenceScorer{opts: opts}
}

// Score combines heuristic deductions with the recognizer's own segment
// probabilities. Empty or wordless text is graded Failed with a zero score.
func (s *ConfidenceScorer) Score(text string, rep Repetition, segmentProbabilities []float64) model.QualityAssessment {
	words := normalizedWords(text)
	if len(words) == 0 {
		return model.QualityAssessment{QualityLevel: model.QualityFailed}
	}

	qa := model.QualityAssessment{
		RepetitionDetected: rep.Detected,
		RepeatedPhrase:     rep.Phrase,
		RepeatCount:        rep.Count,
		RepetitionKind:     string(rep.Heuristic),
		UniqueWordRatio:    float64(len(lo.Uniq(words))) / float64(len(words)),
		GarbledCharRatio:   GarbledRatio(text),
	}

	score := 1.0
	if rep.Detected {
		score -= s.opts.RepetitionPenalty
		qa.Flags = append(qa.Flags, FlagRepetition)
	}
	if qa.UniqueWordRatio < s.opts.LowDiversityThreshold {
		score -= s.opts.LowDiversityPenalty
		qa.Flags = append(qa.Flags, FlagLowDiversity)
	}
	if qa.GarbledCharRatio > s.opts.GarbledThreshold {
		score -= s.opts.GarbledPenalty
		qa.Flags = append(qa.Flags, FlagGarbledOutput)
	}

	if len(segmentProbabilities) > 0 {
		qa.AvgSegmentProbability = lo.Mean(lo.Map(segmentProbabilities, func(p float64, _ int) float64 {
			return clamp01(p)
		}))
		score = (1-s.opts.SegmentWeight)*score + s.opts.SegmentWeight*qa.AvgSegmentProbability
	}

	qa.ConfidenceScore = clamp01(score)
	qa.QualityLevel = LevelFor(qa.ConfidenceScore, len(qa.Flags) > 0)
	return qa
}

// LevelFor maps a score onto a quality level. A flagged transcript is never
// graded above Fair.
func LevelFor(score float64, flagged bool) model.QualityLevel {
	var level model.QualityLevel
	switch {
	case score >= 0.9:
		level = model.QualityExcellent
	case score >= 0.7:
		level = model.QualityGood
	case score >= 0.5:
		level = model.QualityFair
	default:
		level = model.QualityPoor
	}
	if flagged && level > model.QualityFair {
		level = model.QualityFair
	}
	return level
}

// sentencePunctuation is the ASCII punctuation that ordinary dictated text uses.
const sentencePunctuation = ".,!?'\"-:;"

// GarbledRatio is the share of runes that are neither alphanumeric nor
// ordinary text. Letters, digits, combining marks, whitespace, sentence
// punctuation and non-ASCII punctuation such as curly quotes count as clean.
// Symbols, control characters, invalid UTF-8, replacement characters and
// private-use code points count as garbled.
func GarbledRatio(text string) float64 {
	total, garbled := 0, 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		total++
		if garbledRune(r) {
			garbled++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(garbled) / float64(total)
}

func garbledRune(r rune) bool {
	switch {
	case r == utf8.RuneError, unicode.Is(unicode.Co, r):
		return true
	case unicode.IsControl(r):
		return !unicode.IsSpace(r)
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), unicode.IsSpace(r):
		return false
	case r < utf8.RuneSelf:
		return !strings.ContainsRune(sentencePunctuation, r)
	default:
		return !unicode.IsPunct(r)
	}
}

// SegmentProbability converts a segment's average log-probability into [0,1].
func SegmentProbability(avgLogprob float64) float64 {
	if math.IsNaN(avgLogprob) {
		return 0
	}
	return clamp01(math.Exp(avgLogprob))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// IsUsable reports whether text contains at least one word.
func IsUsable(text string) bool {
	return strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}
