package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/franz/jwl-merge/internal/model"
)

// EventType represents the type of event
type EventType string

const (
	EventLoad  EventType = "load"
	EventStrip EventType = "strip"
	EventClean EventType = "clean"
	EventDedup EventType = "dedup"
	EventDrop  EventType = "drop"
	EventMerge EventType = "merge"
	EventWrite EventType = "write"
	EventWatch EventType = "watch"
	EventError EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseLevel converts a configuration value to an event level
func ParseLevel(s string) (EventLevel, error) {
	level := EventLevel(s)
	if _, ok := levelPriority[level]; !ok {
		return LevelInfo, fmt.Errorf("unknown event level %q", s)
	}
	return level, nil
}

// Event represents a single merge decision or pipeline step
type Event struct {
	Timestamp    time.Time         `json:"ts"`
	Level        EventLevel        `json:"level"`
	Event        EventType         `json:"event"`
	Source       string            `json:"source,omitempty"`
	Path         string            `json:"path,omitempty"`
	Entity       string            `json:"entity,omitempty"`
	SourceID     int64             `json:"source_id,omitempty"`
	MergedID     int64             `json:"merged_id,omitempty"`
	Action       string            `json:"action,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	Rows         int               `json:"rows,omitempty"`
	Hash         string            `json:"hash,omitempty"`
	BytesWritten int64             `json:"bytes_written,omitempty"`
	Duration     int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error        string            `json:"error,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogLoad logs a backup being read into memory
func (l *EventLogger) LogLoad(path string, counts model.Counts, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:    level,
		Event:    EventLoad,
		Path:     path,
		Rows:     counts.Total(),
		Duration: duration.Milliseconds(),
		Error:    errMsg,
	})
}

// LogStrip logs rows redacted from a source before merging
func (l *EventLogger) LogStrip(source, entity string, removed int) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventStrip,
		Source: source,
		Entity: entity,
		Rows:   removed,
	})
}

// LogClean logs an orphaned row removed by the cleaner
func (l *EventLogger) LogClean(source, entity string, id int64, reason string) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventClean,
		Source:   source,
		Entity:   entity,
		SourceID: id,
		Action:   "remove",
		Reason:   reason,
	})
}

// LogDedup logs a source row collapsed onto an existing merged row
func (l *EventLogger) LogDedup(source, entity string, sourceID, mergedID int64) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventDedup,
		Source:   source,
		Entity:   entity,
		SourceID: sourceID,
		MergedID: mergedID,
		Action:   "reuse",
	})
}

// LogDrop logs a source row or reference that could not be placed
func (l *EventLogger) LogDrop(source, entity string, sourceID int64, reason string) error {
	return l.Log(&Event{
		Level:    LevelWarning,
		Event:    EventDrop,
		Source:   source,
		Entity:   entity,
		SourceID: sourceID,
		Action:   "drop",
		Reason:   reason,
	})
}

// LogMerge logs the outcome of a merge run
func (l *EventLogger) LogMerge(sources int, counts model.Counts, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventMerge,
		Rows:     counts.Total(),
		Duration: duration.Milliseconds(),
		Extra: map[string]string{
			"sources": fmt.Sprintf("%d", sources),
			"counts":  counts.String(),
		},
	})
}

// LogWrite logs an archive being written
func (l *EventLogger) LogWrite(path, hash string, bytesWritten int64, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:        level,
		Event:        EventWrite,
		Path:         path,
		Hash:         hash,
		BytesWritten: bytesWritten,
		Duration:     duration.Milliseconds(),
		Error:        errMsg,
	})
}

// LogWatch logs a directory watcher decision
func (l *EventLogger) LogWatch(path, action, reason string) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventWatch,
		Path:   path,
		Action: action,
		Reason: reason,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, path string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: event,
		Path:  path,
		Error: err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
