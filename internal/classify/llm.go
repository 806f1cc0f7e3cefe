package classify

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for document classification.
type Client interface {
	ClassifyDocument(ctx context.Context, prompt string) (json.RawMessage, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
// Classification against it always resolves to the fallback result.
type PlaceholderClient struct{}

// ClassifyDocument returns ErrNotImplemented.
func (PlaceholderClient) ClassifyDocument(ctx context.Context, prompt string) (json.RawMessage, error) {
	_ = ctx
	_ = prompt
	return nil, ErrNotImplemented
}
