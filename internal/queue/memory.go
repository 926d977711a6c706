package queue

import (
	"context"
	"fmt"
	"sync"
)

// MemoryPublisher implements Publisher using in-memory channels.
// This is useful for testing and development without external dependencies.
type MemoryPublisher struct {
	channels map[string]chan []byte
	mu       sync.RWMutex
}

// newMemoryPublisher creates a new in-memory publisher instance
func newMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{
		channels: make(map[string]chan []byte),
	}
}

// getOrCreateChannel returns existing channel or creates new one
func (q *MemoryPublisher) getOrCreateChannel(subject string) chan []byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ch, exists := q.channels[subject]; exists {
		return ch
	}

	// Buffered; run events are low volume
	ch := make(chan []byte, 1024)
	q.channels[subject] = ch
	return ch
}

// Publish publishes a message to an in-memory channel
func (q *MemoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	ch := q.getOrCreateChannel(subject)

	// Make a copy of data to avoid race conditions
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	select {
	case ch <- dataCopy:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("channel full for subject: %s", subject)
	}
}

// Close closes all channels
func (q *MemoryPublisher) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, ch := range q.channels {
		close(ch)
		delete(q.channels, subject)
	}

	return nil
}

// GetPendingCount returns the number of pending messages for a subject (for testing)
func (q *MemoryPublisher) GetPendingCount(subject string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if ch, exists := q.channels[subject]; exists {
		return len(ch)
	}
	return 0
}

// Drain removes and returns all pending messages for a subject (for testing)
func (q *MemoryPublisher) Drain(subject string) [][]byte {
	q.mu.RLock()
	ch, exists := q.channels[subject]
	q.mu.RUnlock()
	if !exists {
		return nil
	}

	var messages [][]byte
	for {
		select {
		case data := <-ch:
			messages = append(messages, data)
		default:
			return messages
		}
	}
}
