package queue

import "context"

// Client sends audit events to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
