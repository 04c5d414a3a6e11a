package runs

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level classifies run log entries.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Entry is one sequenced, human-readable run log line.
type Entry struct {
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"runId,omitempty"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
}

// Log is the append-only audit trail rendered by the view.
// Entries are never trimmed, rotated or deduplicated.
type Log struct {
	mu      sync.RWMutex
	nextSeq int64
	entries []Entry
	logger  *zap.Logger
}

// NewLog creates an empty log that mirrors entries into logger.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{
		entries: make([]Entry, 0, 64),
		logger:  logger,
	}
}

// Append adds one entry at the end and assigns its sequence and timestamp.
func (l *Log) Append(entry Entry) Entry {
	l.mu.Lock()
	l.nextSeq++
	entry.Seq = l.nextSeq
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Level == "" {
		entry.Level = LevelInfo
	}
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	fields := []zap.Field{
		zap.Int64("seq", entry.Seq),
		zap.String("run_id", entry.RunID),
	}
	if entry.Level == LevelError {
		l.logger.Warn(entry.Message, fields...)
	} else {
		l.logger.Info(entry.Message, fields...)
	}

	return entry
}

// Since returns entries with sequence strictly greater than seq.
func (l *Log) Since(seq int64) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}

	out := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		if entry.Seq > seq {
			out = append(out, entry)
		}
	}
	return out
}

// Messages returns every message in insertion order.
func (l *Log) Messages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, len(l.entries))
	for i, entry := range l.entries {
		out[i] = entry.Message
	}
	return out
}
