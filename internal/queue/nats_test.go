package queue

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// setupTestNATS creates an embedded NATS server for testing
func setupTestNATS(t *testing.T) (*server.Server, string, func()) {
	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1, // Random port
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create NATS server: %v", err)
	}

	go ns.Start()

	// Wait for server to be ready
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	url := ns.ClientURL()

	cleanup := func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	}

	return ns, url, cleanup
}

func TestNewNATSPublisher(t *testing.T) {
	_, url, cleanup := setupTestNATS(t)
	defer cleanup()

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("Failed to create NATS publisher: %v", err)
	}
	defer func() { _ = pub.Close() }()

	if pub.conn == nil {
		t.Error("Expected connection to be initialized")
	}
	if pub.js == nil {
		t.Error("Expected JetStream context to be initialized")
	}
}

func TestNewNATSPublisher_InvalidURL(t *testing.T) {
	pub, err := NewNATSPublisher("nats://invalid-host:9999")
	if err == nil {
		if pub != nil {
			_ = pub.Close()
		}
		t.Fatal("Expected error with invalid URL")
	}
}

func TestNATSPublisher_Publish(t *testing.T) {
	_, url, cleanup := setupTestNATS(t)
	defer cleanup()

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("Failed to create NATS publisher: %v", err)
	}
	defer func() { _ = pub.Close() }()

	subject := "forecast.runs"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pub.Publish(ctx, subject, []byte(`{"run_id":"r1"}`)); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	// The message must be retained in the auto-created stream
	info, err := pub.js.StreamInfo("demandcast-" + sanitizeStreamName(subject))
	if err != nil {
		t.Fatalf("Expected stream to exist: %v", err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("Expected 1 retained message, got %d", info.State.Msgs)
	}
}

func TestNATSPublisher_WithExistingConn(t *testing.T) {
	_, url, cleanup := setupTestNATS(t)
	defer cleanup()

	conn, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer conn.Close()

	pub, err := NewNATSPublisherWithConn(conn)
	if err != nil {
		t.Fatalf("Failed to create publisher with connection: %v", err)
	}
	defer func() { _ = pub.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, "forecast.runs", []byte("event")); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}
}

func TestSanitizeStreamName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"forecast.runs", "forecast_runs"},
		{"already-clean_1", "already-clean_1"},
		{"a.b>c*", "a_b_c_"},
	}

	for _, tt := range tests {
		if got := sanitizeStreamName(tt.input); got != tt.expected {
			t.Errorf("sanitizeStreamName(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
