package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedRecognizer spaces out calls to a recognizer shared by several
// pipelines (the batch worker pool).
type RateLimitedRecognizer struct {
	next    Recognizer
	limiter *rate.Limiter
}

// NewRateLimited limits next to requestsPerMinute with a burst of one.
// A non-positive limit returns next unchanged.
func NewRateLimited(next Recognizer, requestsPerMinute int) Recognizer {
	if requestsPerMinute <= 0 {
		return next
	}
	limit := rate.Every(time.Minute / time.Duration(requestsPerMinute))
	return &RateLimitedRecognizer{next: next, limiter: rate.NewLimiter(limit, 1)}
}

func (r *RateLimitedRecognizer) Recognize(ctx context.Context, request *RecognitionRequest) (*RecognitionResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TranscriptionError{
			Code:      "rate_limit_wait",
			Kind:      KindTimeout,
			Message:   "rate limiter wait exceeds the request deadline",
			Provider:  r.next.GetProviderInfo().Name,
			Retryable: true,
			Cause:     err,
		}
	}
	return r.next.Recognize(ctx, request)
}

func (r *RateLimitedRecognizer) GetProviderInfo() ProviderInfo {
	return r.next.GetProviderInfo()
}
