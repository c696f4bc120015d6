package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// StreamLogger writes one line per entry to an io.Writer.
// Loggers derived through WithFields share the writer and its lock.
type StreamLogger struct {
	writer io.Writer
	format Format
	level  Level
	fields Fields
	mu     *sync.Mutex

	now func() time.Time
}

// NewStreamLogger creates a logger writing to w
func NewStreamLogger(w io.Writer, format Format, level Level) *StreamLogger {
	return &StreamLogger{
		writer: w,
		format: format,
		level:  level,
		mu:     &sync.Mutex{},
		now:    time.Now,
	}
}

// Debug logs a debug message
func (l *StreamLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

// Info logs an info message
func (l *StreamLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

// Warn logs a warning message
func (l *StreamLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

// Error logs an error message
func (l *StreamLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger with additional fields
func (l *StreamLogger) WithFields(fields Fields) Logger {
	derived := *l
	derived.fields = mergeFields(l.fields, fields)
	return &derived
}

// Enabled reports whether entries at level are written
func (l *StreamLogger) Enabled(level Level) bool {
	return level >= l.level
}

// Close does nothing; the writer is owned by the caller
func (l *StreamLogger) Close() error {
	return nil
}

func (l *StreamLogger) log(level Level, msg string, err error, fields Fields) {
	if !l.Enabled(level) {
		return
	}

	all := mergeFields(l.fields, fields)

	var line []byte
	if l.format == FormatJSON {
		var fmtErr error
		line, fmtErr = l.formatJSON(level, msg, err, all)
		if fmtErr != nil {
			return
		}
	} else {
		line = l.formatText(level, msg, err, all)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(line)
}

func (l *StreamLogger) formatJSON(level Level, msg string, err error, fields Fields) ([]byte, error) {
	entry := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		entry[k] = v
	}
	entry["timestamp"] = l.now().UTC().Format(time.RFC3339Nano)
	entry["level"] = LevelString(level)
	entry["message"] = msg
	if err != nil {
		entry["error"] = err.Error()
	}

	data, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		return nil, jsonErr
	}
	return append(data, '\n'), nil
}

func (l *StreamLogger) formatText(level Level, msg string, err error, fields Fields) []byte {
	var b strings.Builder
	b.WriteString(l.now().UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteString(" [")
	b.WriteString(LevelString(level))
	b.WriteString("] ")
	b.WriteString(msg)

	if err != nil {
		fmt.Fprintf(&b, " error=%q", err.Error())
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}

	b.WriteByte('\n')
	return []byte(b.String())
}
