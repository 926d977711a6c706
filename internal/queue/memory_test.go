package queue

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryPublisher_Publish(t *testing.T) {
	q := NewMemoryPublisher()
	defer func() { _ = q.Close() }()

	subject := "forecast.runs"
	ctx := context.Background()

	if err := q.Publish(ctx, subject, []byte(`{"run_id":"abc"}`)); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	if count := q.GetPendingCount(subject); count != 1 {
		t.Errorf("Expected 1 pending message, got %d", count)
	}

	messages := q.Drain(subject)
	if len(messages) != 1 {
		t.Fatalf("Expected 1 drained message, got %d", len(messages))
	}
	if string(messages[0]) != `{"run_id":"abc"}` {
		t.Errorf("Unexpected message: %s", messages[0])
	}
}

func TestMemoryPublisher_PublishCopiesData(t *testing.T) {
	q := NewMemoryPublisher()
	defer func() { _ = q.Close() }()

	data := []byte("original")
	if err := q.Publish(context.Background(), "test", data); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	// Mutating the caller's buffer must not affect the queued message
	copy(data, "mutated!")

	messages := q.Drain("test")
	if string(messages[0]) != "original" {
		t.Errorf("Expected 'original', got %s", messages[0])
	}
}

func TestMemoryPublisher_GetPendingCount(t *testing.T) {
	q := NewMemoryPublisher()
	defer func() { _ = q.Close() }()

	subject := "test.subject"
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = q.Publish(ctx, subject, []byte(fmt.Sprintf("msg-%d", i)))
	}

	if count := q.GetPendingCount(subject); count != 5 {
		t.Errorf("Expected 5 pending messages, got %d", count)
	}

	if count := q.GetPendingCount("other.subject"); count != 0 {
		t.Errorf("Expected 0 pending messages for unknown subject, got %d", count)
	}
}

func TestMemoryPublisher_Close(t *testing.T) {
	q := NewMemoryPublisher()

	_ = q.Publish(context.Background(), "test", []byte("msg"))
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if count := q.GetPendingCount("test"); count != 0 {
		t.Errorf("Expected channels to be dropped after close, got %d pending", count)
	}
}
