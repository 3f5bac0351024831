package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()
	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestLoggerKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf, Service: "test"})

	l.Info("Ingestion run started", "sources", 3, "trigger", "scheduler")

	entry := decodeEntry(t, &buf)
	if entry.Message != "Ingestion run started" {
		t.Errorf("message = %q, want it verbatim", entry.Message)
	}
	if got := entry.Fields["sources"]; got != float64(3) {
		t.Errorf("fields[sources] = %v, want 3", got)
	}
	if got := entry.Fields["trigger"]; got != "scheduler" {
		t.Errorf("fields[trigger] = %v, want scheduler", got)
	}
}

func TestLoggerNoArgs(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf, Service: "test"})

	l.Info("Worker shut down gracefully")

	entry := decodeEntry(t, &buf)
	if entry.Message != "Worker shut down gracefully" {
		t.Errorf("message = %q", entry.Message)
	}
	if len(entry.Fields) != 0 {
		t.Errorf("unexpected fields: %v", entry.Fields)
	}
}

func TestLoggerDanglingValue(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf, Service: "test"})

	l.Info("odd args", "count", 2, "orphan")

	entry := decodeEntry(t, &buf)
	if got := entry.Fields["count"]; got != float64(2) {
		t.Errorf("fields[count] = %v", got)
	}
	if got := entry.Fields["!BADKEY"]; got != "orphan" {
		t.Errorf("dangling value = %v, want orphan", got)
	}
}

func TestLoggerSpecialFieldsPromoted(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf, Service: "test"})

	l.WithSource("dealnews").Info("Source run finished", "fetched", 12)

	entry := decodeEntry(t, &buf)
	if entry.SourceID != "dealnews" {
		t.Errorf("source_id = %q", entry.SourceID)
	}
	if _, leaked := entry.Fields["source_id"]; leaked {
		t.Error("source_id left in fields after promotion")
	}
	if got := entry.Fields["fetched"]; got != float64(12) {
		t.Errorf("fields[fetched] = %v", got)
	}
}

func TestLoggerFieldsNotMutatedAcrossCalls(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf, Service: "test"}).WithSource("slickdeals")

	l.Info("first")
	buf.Reset()
	l.Info("second")

	entry := decodeEntry(t, &buf)
	if entry.SourceID != "slickdeals" {
		t.Errorf("source_id lost on second call, got %q", entry.SourceID)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf, Service: "test"})

	l.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info line emitted below threshold: %q", buf.String())
	}

	l.Warn("emitted")
	if buf.Len() == 0 {
		t.Error("warn line not emitted")
	}
}
