package queue

import "context"

// Publisher publishes run events to a queue. The forecaster emits one
// event per completed generation run; downstream consumers (report
// builders, cache invalidators) are outside this codebase, so only the
// producing side is implemented.
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// Close closes the connection
	Close() error
}
