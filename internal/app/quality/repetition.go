package quality

import (
	"strings"
	"unicode"
)

// Heuristic names the check that flagged a repetition.
type Heuristic string

const (
	HeuristicNone            Heuristic = ""
	HeuristicNGram           Heuristic = "ngram"
	HeuristicTailLoop        Heuristic = "tail_loop"
	HeuristicTruncatedRepeat Heuristic = "truncated_repeat"
)

// Repetition is the detector's diagnostic. Phrase and Count are only set when
// Detected is true.
type Repetition struct {
	Detected  bool
	Phrase    string
	Count     int
	Heuristic Heuristic
}

// DetectorOptions tunes the three repetition heuristics.
type DetectorOptions struct {
	// N-gram loop: any run of MinNGram..MaxNGram words seen MinOccurrences times.
	MinNGram       int
	MaxNGram       int
	MinOccurrences int

	// Tail loop: fixed-size character chunks repeated inside the final quarter.
	TailChunkRunes int
	TailStride     int
	TailScanRunes  int
	TailMinRunes   int

	// Truncated repeat: the text stops mid-word while its last window echoes
	// the window before it.
	TruncationWindow   int
	TruncationLookback int
	TruncationProbes   []int
}

// DefaultDetectorOptions returns the thresholds used in production
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		MinNGram:           3,
		MaxNGram:           5,
		MinOccurrences:     3,
		TailChunkRunes:     15,
		TailStride:         5,
		TailScanRunes:      100,
		TailMinRunes:       40,
		TruncationWindow:   50,
		TruncationLookback: 100,
		TruncationProbes:   []int{30, 40, 50},
	}
}

// RepetitionDetector flags decoding loops in recognizer output.
// Detect is a pure function of its input text.
type RepetitionDetector struct {
	opts DetectorOptions
}

func NewRepetitionDetector(opts DetectorOptions) *RepetitionDetector {
	probes := make([]int, len(opts.TruncationProbes))
	copy(probes, opts.TruncationProbes)
	opts.TruncationProbes = probes
	return &RepetitionDetector{opts: opts}
}

// Options returns a copy of the detector's thresholds.
func (d *RepetitionDetector) Options() DetectorOptions {
	opts := d.opts
	opts.TruncationProbes = append([]int(nil), d.opts.TruncationProbes...)
	return opts
}

// Detect runs the heuristics in order (n-gram, tail loop, truncated repeat)
// and reports the first hit.
func (d *RepetitionDetector) Detect(text string) Repetition {
	if strings.TrimSpace(text) == "" {
		return Repetition{}
	}
	if r := d.detectNGram(text); r.Detected {
		return r
	}
	if r := d.detectTailLoop(text); r.Detected {
		return r
	}
	return d.detectTruncatedRepeat(text)
}

func (d *RepetitionDetector) detectNGram(text string) Repetition {
	words := normalizedWords(text)

	for n := d.opts.MinNGram; n <= d.opts.MaxNGram; n++ {
		if n <= 0 || len(words) < n+d.opts.MinOccurrences-1 {
			continue
		}

		counts := make(map[string]int)
		first := make(map[string]int)
		for i := 0; i+n <= len(words); i++ {
			key := strings.Join(words[i:i+n], " ")
			if _, seen := first[key]; !seen {
				first[key] = i
			}
			counts[key]++
		}

		best, bestPos := "", -1
		for key, c := range counts {
			if c < d.opts.MinOccurrences {
				continue
			}
			if bestPos == -1 || first[key] < bestPos {
				best, bestPos = key, first[key]
			}
		}
		if bestPos >= 0 {
			return Repetition{Detected: true, Phrase: best, Count: counts[best], Heuristic: HeuristicNGram}
		}
	}
	return Repetition{}
}

func (d *RepetitionDetector) detectTailLoop(text string) Repetition {
	runes := []rune(text)
	tail := runes[len(runes)*3/4:]
	if len(tail) < d.opts.TailMinRunes || d.opts.TailChunkRunes <= 0 || d.opts.TailStride <= 0 {
		return Repetition{}
	}

	tailText := string(tail)
	for i := 0; i+d.opts.TailChunkRunes <= len(tail) && i < d.opts.TailScanRunes; i += d.opts.TailStride {
		chunk := string(tail[i : i+d.opts.TailChunkRunes])
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		if c := strings.Count(tailText, chunk); c >= d.opts.MinOccurrences {
			return Repetition{Detected: true, Phrase: strings.TrimSpace(chunk), Count: c, Heuristic: HeuristicTailLoop}
		}
	}
	return Repetition{}
}

func (d *RepetitionDetector) detectTruncatedRepeat(text string) Repetition {
	runes := []rune(strings.TrimRightFunc(text, unicode.IsSpace))
	window, lookback := d.opts.TruncationWindow, d.opts.TruncationLookback
	if window <= 0 || len(runes) <= window+lookback/2 {
		return Repetition{}
	}

	last := runes[len(runes)-1]
	if !unicode.IsLetter(last) && !unicode.IsDigit(last) {
		return Repetition{}
	}

	tail := runes[len(runes)-window:]
	start := len(runes) - window - lookback
	if start < 0 {
		start = 0
	}
	preceding := string(runes[start : len(runes)-window])

	for _, probe := range d.opts.TruncationProbes {
		if probe <= 0 || probe > len(tail) {
			continue
		}
		needle := string(tail[:probe])
		if strings.TrimSpace(needle) == "" {
			continue
		}
		if c := strings.Count(preceding, needle); c > 0 {
			return Repetition{Detected: true, Phrase: strings.TrimSpace(needle), Count: c + 1, Heuristic: HeuristicTruncatedRepeat}
		}
	}
	return Repetition{}
}

// normalizedWords lowercases and strips surrounding punctuation so that
// "Sat," and "sat" compare equal.
func normalizedWords(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(strings.ToLower(f), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}
