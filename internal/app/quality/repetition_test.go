package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepetitionDetector_Detect(t *testing.T) {
	detector := NewRepetitionDetector(DefaultDetectorOptions())

	tests := []struct {
		name      string
		text      string
		detected  bool
		heuristic Heuristic
		phrase    string
		count     int
	}{
		{
			name:      "trigram loop",
			text:      "the cat sat the cat sat the cat sat on the mat",
			detected:  true,
			heuristic: HeuristicNGram,
			phrase:    "the cat sat",
			count:     3,
		},
		{
			name:      "punctuation and case do not hide a loop",
			text:      "Thank you for watching. Thank you for watching. THANK YOU FOR watching!",
			detected:  true,
			heuristic: HeuristicNGram,
			phrase:    "thank you for",
			count:     3,
		},
		{
			name:     "ordinary sentence",
			text:     "The quarterly report shows revenue grew by eight percent while costs stayed flat across every region.",
			detected: false,
		},
		{
			name:     "phrase repeated only twice",
			text:     "we should go now because we should go now",
			detected: false,
		},
		{
			name:     "empty text",
			text:     "   ",
			detected: false,
		},
		{
			name:     "too short for any heuristic",
			text:     "yes",
			detected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detector.Detect(tt.text)
			assert.Equal(t, tt.detected, got.Detected)
			if !tt.detected {
				assert.Empty(t, got.Phrase)
				assert.Zero(t, got.Count)
				return
			}
			assert.Equal(t, tt.heuristic, got.Heuristic)
			assert.Equal(t, tt.phrase, got.Phrase)
			assert.Equal(t, tt.count, got.Count)
		})
	}
}

func TestRepetitionDetector_TailLoop(t *testing.T) {
	opts := DefaultDetectorOptions()
	// Disable the n-gram check so the tail heuristic is the one under test.
	opts.MinNGram, opts.MaxNGram = 0, -1
	detector := NewRepetitionDetector(opts)

	intro := "Welcome everybody to the weekly planning meeting where we review the roadmap, discuss the open incidents, " +
		"agree on hiring priorities and look at the budget for the next quarter in some detail before lunch. "
	text := intro + strings.Repeat("la-la-la-la-la-", 8)

	got := detector.Detect(text)
	assert.True(t, got.Detected)
	assert.Equal(t, HeuristicTailLoop, got.Heuristic)
	assert.GreaterOrEqual(t, got.Count, 3)
	assert.NotEmpty(t, got.Phrase)
}

func TestRepetitionDetector_TruncatedRepeat(t *testing.T) {
	opts := DefaultDetectorOptions()
	opts.MinNGram, opts.MaxNGram = 0, -1
	opts.TailMinRunes = 1 << 20
	detector := NewRepetitionDetector(opts)

	sentence := "and then the committee decided to postpone the vote until "
	text := "The meeting opened with a short review of last month's minutes. " + sentence + sentence + "and then the commit"

	got := detector.Detect(text)
	assert.True(t, got.Detected)
	assert.Equal(t, HeuristicTruncatedRepeat, got.Heuristic)
	assert.GreaterOrEqual(t, got.Count, 2)

	// The same text with terminal punctuation is a finished sentence, not a cut-off loop.
	got = detector.Detect(text + "ee.")
	assert.False(t, got.Detected)
}

func TestRepetitionDetector_IsPure(t *testing.T) {
	detector := NewRepetitionDetector(DefaultDetectorOptions())
	text := "go go go go go team"
	first := detector.Detect(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, detector.Detect(text))
	}
}

func TestNormalizedWords(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "it's", "42"}, normalizedWords("Hello, WORLD! -- it's 42."))
	assert.Empty(t, normalizedWords("... --- !!!"))
}
