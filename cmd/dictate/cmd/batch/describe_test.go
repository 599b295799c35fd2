package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"take-my-dictation/internal/app/converter"
	"take-my-dictation/internal/app/errors"
	"take-my-dictation/internal/app/model"
)

func TestDescribe(t *testing.T) {
	file := model.FileInfo{Name: "memo.wav"}

	tests := []struct {
		name   string
		report converter.FileReport
		want   string
	}{
		{
			name:   "skipped",
			report: converter.FileReport{File: file, Skipped: true},
			want:   "memo.wav\tskipped\t-\t-\t-",
		},
		{
			name:   "rejected",
			report: converter.FileReport{File: file, Err: errors.InvalidAudio("duration 0.4s is outside [1, 7200]")},
			want:   "memo.wav\terror\t-\t-\tinvalid audio: duration 0.4s is outside [1, 7200]",
		},
		{
			name: "accepted",
			report: converter.FileReport{File: file, Result: model.AcceptedResult{
				Transcript:    model.Transcript{FinalText: "hi", ConfidenceScore: 0.87, QualityLevel: model.QualityGood},
				ResultSummary: model.ResultSummary{AttemptsMade: 1},
			}},
			want: "memo.wav\taccepted\tgood (0.87)\t1\t-",
		},
		{
			name: "fallback shows last warning",
			report: converter.FileReport{File: file, Result: model.FallbackResult{
				Transcript:    model.Transcript{ConfidenceScore: 0.7, QualityLevel: model.QualityFair},
				ResultSummary: model.ResultSummary{AttemptsMade: 5, Warnings: []string{"a", "manual review recommended"}},
			}},
			want: "memo.wav\texhausted_fallback\tfair (0.70)\t5\tmanual review recommended",
		},
		{
			name: "failed shows reason",
			report: converter.FileReport{File: file, Result: model.FailedResult{
				ResultSummary: model.ResultSummary{AttemptsMade: 5},
				Reason:        "no usable transcript after 5 attempt(s)",
			}},
			want: "memo.wav\tfailed\t-\t5\tno usable transcript after 5 attempt(s)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.report))
		})
	}
}
