package model

import "fmt"

// QualityLevel is an ordered grade of a transcript. Comparisons with < and >
// follow the grade order: Failed < Poor < Fair < Good < Excellent.
type QualityLevel int

const (
	QualityFailed QualityLevel = iota
	QualityPoor
	QualityFair
	QualityGood
	QualityExcellent
)

var qualityNames = map[QualityLevel]string{
	QualityFailed:    "failed",
	QualityPoor:      "poor",
	QualityFair:      "fair",
	QualityGood:      "good",
	QualityExcellent: "excellent",
}

func (q QualityLevel) String() string {
	if name, ok := qualityNames[q]; ok {
		return name
	}
	return fmt.Sprintf("QualityLevel(%d)", int(q))
}

// MarshalText encodes the level by name so JSON output stays readable.
func (q QualityLevel) MarshalText() ([]byte, error) {
	name, ok := qualityNames[q]
	if !ok {
		return nil, fmt.Errorf("unknown quality level %d", int(q))
	}
	return []byte(name), nil
}

func (q *QualityLevel) UnmarshalText(text []byte) error {
	level, err := ParseQualityLevel(string(text))
	if err != nil {
		return err
	}
	*q = level
	return nil
}

// ParseQualityLevel converts a level name back into a QualityLevel
func ParseQualityLevel(name string) (QualityLevel, error) {
	for level, n := range qualityNames {
		if n == name {
			return level, nil
		}
	}
	return QualityFailed, fmt.Errorf("unknown quality level %q", name)
}

// QualityAssessment is the scorer's verdict on a single attempt.
type QualityAssessment struct {
	ConfidenceScore    float64      `json:"confidence_score"`
	QualityLevel       QualityLevel `json:"quality_level"`
	RepetitionDetected bool         `json:"repetition_detected"`
	RepeatedPhrase     string       `json:"repeated_phrase,omitempty"`
	RepeatCount        int          `json:"repeat_count,omitempty"`
	RepetitionKind     string       `json:"repetition_kind,omitempty"`

	UniqueWordRatio       float64  `json:"unique_word_ratio"`
	GarbledCharRatio      float64  `json:"garbled_char_ratio"`
	AvgSegmentProbability float64  `json:"avg_segment_probability,omitempty"`
	Flags                 []string `json:"flags,omitempty"`
}

// TranscriptionAttempt records one recognizer call made by the orchestrator.
type TranscriptionAttempt struct {
	AttemptIndex         int               `json:"attempt_index"`
	ParameterValue       float32           `json:"parameter_value"`
	Text                 string            `json:"text"`
	Language             string            `json:"language,omitempty"`
	SegmentProbabilities []float64         `json:"segment_probabilities,omitempty"`
	ElapsedMs            int64             `json:"elapsed_ms"`
	Assessment           QualityAssessment `json:"assessment"`
}
