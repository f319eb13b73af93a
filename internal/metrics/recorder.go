package metrics

import (
	"context"
	"time"
)

// Recorder fans metrics out to Sentry spans and, in production, CloudWatch
type Recorder struct {
	sentry     *SentryMetrics
	cloudwatch *Client
}

// NewRecorder builds a recorder; a nil CloudWatch client records to Sentry only
func NewRecorder(cw *Client) *Recorder {
	return &Recorder{
		sentry:     NewSentryMetrics(),
		cloudwatch: cw,
	}
}

// RecordAPIRequest records a completed HTTP request
func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	r.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
}

// RecordGeneration records one provider call. Token counts are only recorded on success.
func (r *Recorder) RecordGeneration(
	ctx context.Context,
	model, mode string,
	duration time.Duration,
	totalTokens, inputTokens, outputTokens int,
	success bool,
) {
	if r == nil {
		return
	}
	r.sentry.RecordGenerationDuration(ctx, mode, duration, success)
	r.cloudwatch.RecordGenerationDuration(mode, duration, success)
	if success {
		r.sentry.RecordTokenUsage(ctx, model, totalTokens, inputTokens, outputTokens)
		r.cloudwatch.RecordTokenUsage(model, totalTokens, inputTokens, outputTokens)
	}
}

// RecordMalformedResponse reports a provider reply that could not be decoded into a song.
// These are rare and worth an event of their own.
func (r *Recorder) RecordMalformedResponse(model, mode string, rawLength int) {
	if r == nil {
		return
	}
	r.sentry.RecordCustomMetric("malformed_response", map[string]interface{}{
		"model":      model,
		"mode":       mode,
		"raw_length": rawLength,
	})
}
