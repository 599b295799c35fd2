package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityLevelOrdering(t *testing.T) {
	assert.True(t, QualityFailed < QualityPoor)
	assert.True(t, QualityPoor < QualityFair)
	assert.True(t, QualityFair < QualityGood)
	assert.True(t, QualityGood < QualityExcellent)
}

func TestQualityLevelText(t *testing.T) {
	for level, name := range qualityNames {
		text, err := level.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, name, string(text))

		var parsed QualityLevel
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, level, parsed)
	}

	_, err := QualityLevel(42).MarshalText()
	assert.Error(t, err)
	_, err = ParseQualityLevel("superb")
	assert.Error(t, err)
}

func TestTranscriptOf(t *testing.T) {
	accepted := AcceptedResult{Transcript: Transcript{FinalText: "hello"}, ResultSummary: ResultSummary{AttemptsMade: 1}}
	fallback := FallbackResult{Transcript: Transcript{FinalText: "best"}, ResultSummary: ResultSummary{AttemptsMade: 5}}
	failed := FailedResult{ResultSummary: ResultSummary{AttemptsMade: 5}, Reason: "no usable text"}

	tr, ok := TranscriptOf(accepted)
	assert.True(t, ok)
	assert.Equal(t, "hello", tr.FinalText)

	tr, ok = TranscriptOf(fallback)
	assert.True(t, ok)
	assert.Equal(t, "best", tr.FinalText)

	_, ok = TranscriptOf(failed)
	assert.False(t, ok)

	assert.Equal(t, OutcomeAccepted, accepted.Outcome())
	assert.Equal(t, OutcomeExhaustedFallback, fallback.Outcome())
	assert.Equal(t, OutcomeFailed, failed.Outcome())
	assert.Equal(t, 5, failed.Summary().AttemptsMade)
}

func TestViewJSON(t *testing.T) {
	result := FallbackResult{
		Transcript: Transcript{
			FinalText:       "the best we could do",
			ConfidenceScore: 0.42,
			QualityLevel:    QualityPoor,
			ParameterUsed:   0.4,
		},
		ResultSummary: ResultSummary{AttemptsMade: 5, TotalElapsedMs: 1200, Warnings: []string{"w"}},
	}

	data, err := json.Marshal(View(result))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "exhausted_fallback", decoded["outcome"])
	assert.Equal(t, "poor", decoded["quality_level"])
	assert.Equal(t, "the best we could do", decoded["final_text"])
	assert.EqualValues(t, 5, decoded["attempts_made"])
	assert.NotContains(t, decoded, "reason")

	data, err = json.Marshal(View(FailedResult{Reason: "no usable text"}))
	require.NoError(t, err)
	var failed map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &failed))
	assert.Equal(t, "failed", failed["outcome"])
	assert.Equal(t, "no usable text", failed["reason"])
	assert.NotContains(t, failed, "final_text")
}
