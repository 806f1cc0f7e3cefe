package ocr

import (
	"context"
	"errors"
	"time"
)

// ErrExtraction indicates the OCR engine could not produce text.
var ErrExtraction = errors.New("ocr extraction failed")

// Engine abstracts the OCR service.
type Engine interface {
	Extract(ctx context.Context, data []byte, langHint string) (string, error)
}

// Stage identifies a phase of an OCR run.
type Stage string

const (
	StageQueued     Stage = "queued"
	StageProcessing Stage = "processing"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Progress is an event published while an OCR run advances. Events are
// observational; extraction never blocks on a slow consumer.
type Progress struct {
	Stage      Stage
	Percent    int
	OccurredAt time.Time
}
