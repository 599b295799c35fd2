package model

// AudioDescriptor holds the measured characteristics of one input audio payload.
// It is computed once per request and never mutated afterwards.
type AudioDescriptor struct {
	DurationSeconds float64 `json:"duration_seconds"`
	SampleRateHz    int     `json:"sample_rate_hz"`
	Channels        int     `json:"channels"`
	ContainerFormat string  `json:"container_format"`
	SizeBytes       int64   `json:"size_bytes"`
	LoudnessDbfs    float64 `json:"loudness_dbfs"`
}
