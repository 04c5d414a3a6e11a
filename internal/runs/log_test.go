package runs

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogSince verifies incremental reads by sequence.
func TestLogSince(t *testing.T) {
	log := NewLog(nil)
	log.Append(Entry{Message: "1"})
	log.Append(Entry{Message: "2"})
	log.Append(Entry{Message: "3"})

	entries := log.Since(1)
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Seq != 2 || entries[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", entries)
	}
}

// TestLogNeverTrims verifies the log keeps every entry regardless of volume.
func TestLogNeverTrims(t *testing.T) {
	log := NewLog(nil)
	for i := 0; i < 5000; i++ {
		log.Append(Entry{Message: fmt.Sprintf("line %d", i)})
	}

	entries := log.Since(0)
	if len(entries) != 5000 {
		t.Fatalf("len = %d, want 5000", len(entries))
	}
	if entries[0].Message != "line 0" || entries[4999].Message != "line 4999" {
		t.Fatalf("unexpected boundary entries: %q .. %q", entries[0].Message, entries[4999].Message)
	}
}

// TestLogPreservesPrefix checks that earlier contents are a prefix of later contents.
func TestLogPreservesPrefix(t *testing.T) {
	log := NewLog(nil)
	log.Append(Entry{Message: "Starting recording..."})
	log.Append(Entry{Message: "Recording started."})
	before := log.Messages()

	log.Append(Entry{Message: "Stopping recording..."})
	log.Append(Entry{Message: "Stopping recording..."})
	after := log.Messages()

	if len(after) != len(before)+2 {
		t.Fatalf("len = %d, want %d", len(after), len(before)+2)
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("after[%d] = %q, want %q", i, after[i], before[i])
		}
	}
	if after[2] != after[3] {
		t.Fatal("duplicate messages must both be kept")
	}
}

// TestLogMirrorsToLogger verifies entries reach the structured logger.
func TestLogMirrorsToLogger(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	log := NewLog(zap.New(core))

	log.Append(Entry{RunID: "run-1", Message: "Recording started."})
	log.Append(Entry{RunID: "run-1", Level: LevelError, Message: "Error translating audio: HTTP status 500"})

	if observed.Len() != 2 {
		t.Fatalf("observed = %d, want 2", observed.Len())
	}
	last := observed.All()[1]
	if last.Level != zap.WarnLevel {
		t.Fatalf("level = %s, want warn", last.Level)
	}
	if last.ContextMap()["run_id"] != "run-1" {
		t.Fatalf("run_id = %v, want run-1", last.ContextMap()["run_id"])
	}
}
