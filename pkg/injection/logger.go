package injection

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

// logSink is the process-wide optional CSV destination. Uninitialised,
// records fall back to a human-readable line on standard output.
var logSink struct {
	mu     sync.Mutex
	writer *csv.Writer
	file   *os.File
}

const csvHeader = "Address/Register,Old Value,New Value"

// InitLog truncates path and writes the CSV header row. Subsequent calls to
// Log append a row. Call this once per session before the first injection
// that should be captured.
func InitLog(path string) error {
	logSink.mu.Lock()
	defer logSink.mu.Unlock()

	if logSink.file != nil {
		_ = logSink.file.Close()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("injection: creating log file %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	header := []string{"Address/Register", "Old Value", "New Value"}
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("injection: writing log header: %w", err)
	}
	w.Flush()

	logSink.file = f
	logSink.writer = w
	return nil
}

// CloseLog flushes and closes the active log file, if any.
func CloseLog() error {
	logSink.mu.Lock()
	defer logSink.mu.Unlock()
	if logSink.file == nil {
		return nil
	}
	logSink.writer.Flush()
	err := logSink.file.Close()
	logSink.writer = nil
	logSink.file = nil
	return err
}

// Log appends rec to the active CSV sink, or prints it to stdout if no
// sink has been initialised.
func Log(rec Record) {
	logSink.mu.Lock()
	defer logSink.mu.Unlock()

	if logSink.writer == nil {
		fmt.Printf("%s: %s -> %s\n", rec.Target, rec.OldValue, rec.NewValue)
		return
	}

	_ = logSink.writer.Write([]string{rec.Target, rec.OldValue, rec.NewValue})
	logSink.writer.Flush()
}
