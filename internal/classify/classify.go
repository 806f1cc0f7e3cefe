// Package classify turns extracted document text into a validated
// classification. The classifier never fails: transport errors, malformed
// responses and missing fields all resolve to a safe fallback so
// classification can never abort an ingestion.
package classify

import (
	"context"
	"time"

	"records-backend/internal/shared/telemetry"
)

// Result is the normalized classification attached to a document at
// creation.
type Result struct {
	Category            string   `json:"category"`
	Confidence          float64  `json:"confidence"`
	Tags                []string `json:"tags"`
	Summary             string   `json:"summary"`
	Language            string   `json:"language"`
	Priority            string   `json:"priority"`
	ClassificationLevel string   `json:"classificationLevel"`

	// FallbackReason is set when the result came from the fallback path.
	FallbackReason string `json:"-"`
}

// IsFallback reports whether the result came from the never-fails fallback.
func (r Result) IsFallback() bool {
	return r.FallbackReason != ""
}

// Classifier wraps an LLM client with prompt construction, response
// validation and the fallback policy.
type Classifier struct {
	LLM     Client
	Timeout time.Duration
}

// Classify categorizes a document from its extracted text and filename.
func (c *Classifier) Classify(ctx context.Context, text, fileName string) Result {
	if c.LLM == nil {
		return Fallback("no classifier configured")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := c.LLM.ClassifyDocument(callCtx, BuildPrompt(text, fileName))
	if err != nil {
		telemetry.Warn("classify.call_failed", map[string]any{
			"file_name": fileName,
			"error":     err.Error(),
		})
		return Fallback("service call failed")
	}

	result := Normalize(raw)
	if result.IsFallback() {
		telemetry.Warn("classify.parse_failed", map[string]any{
			"file_name": fileName,
			"reason":    result.FallbackReason,
		})
	}
	return result
}
