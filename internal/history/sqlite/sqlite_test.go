package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/loykin/procdash/internal/history"
)

func TestSQLiteSink_File(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := tempDir + "/test.db"

	sink, err := New("sqlite://" + dbPath)
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	ctx := context.Background()

	appeared := history.Event{
		Type:       history.EventAppeared,
		OccurredAt: time.Now().UTC(),
		Name:       "web",
		PID:        12345,
		State:      "running",
	}
	if err := sink.Send(ctx, appeared); err != nil {
		t.Fatalf("Failed to send appeared event: %v", err)
	}

	change := history.Event{
		Type:       history.EventStateChange,
		OccurredAt: time.Now().UTC(),
		Name:       "web",
		PID:        12345,
		State:      "stopped",
		Detail:     "running",
	}
	if err := sink.Send(ctx, change); err != nil {
		t.Fatalf("Failed to send state change event: %v", err)
	}

	var count int
	row := sink.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dashboard_history WHERE name = ?", "web")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 rows, got %d", count)
	}
}

func TestSQLiteSink_InMemory(t *testing.T) {
	sink, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	event := history.Event{
		Type:       history.EventBulk,
		OccurredAt: time.Now().UTC(),
		Name:       "worker",
		State:      "stopped",
		Detail:     "stop",
	}
	if err := sink.Send(context.Background(), event); err != nil {
		t.Fatalf("Failed to send event: %v", err)
	}
}

func TestSQLiteSink_EmptyDSN(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("Expected error for empty DSN")
	}
}
