package queue

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSPublisher implements Publisher using NATS JetStream
type NATSPublisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// newNATSPublisher creates a new NATS publisher with JetStream enabled
func newNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Create JetStream context
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSPublisher{conn: conn, js: js}, nil
}

// newNATSPublisherWithConn creates a publisher over an existing connection (used in tests)
func newNATSPublisherWithConn(conn *nats.Conn) (*NATSPublisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSPublisher{conn: conn, js: js}, nil
}

// EnsureStream creates the JetStream stream for a subject if it does
// not exist yet, so events published before any consumer attaches are
// retained.
func (q *NATSPublisher) EnsureStream(subject string) error {
	streamName := "demandcast-" + sanitizeStreamName(subject)
	if _, err := q.js.StreamInfo(streamName); err == nil {
		return nil
	}

	_, err := q.js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{subject},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
	}
	return nil
}

// Publish publishes a message to a subject using JetStream
func (q *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.EnsureStream(subject); err != nil {
		return err
	}

	_, err := q.js.Publish(subject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// Close closes the NATS connection
func (q *NATSPublisher) Close() error {
	q.conn.Close()
	return nil
}

// sanitizeStreamName replaces characters invalid in stream names.
// Stream names can only contain: A-Z, a-z, 0-9, dash (-) and underscore (_)
func sanitizeStreamName(subject string) string {
	result := make([]byte, 0, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
