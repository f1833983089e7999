// Package joblog appends timestamped result lines to per-job text files.
package joblog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Timestamp layouts.
const (
	DefaultLayout   = "2006-01-02 15:04:05"
	HeartbeatLayout = "02/01/2006-15:04:05"
)

// Log file names under the job log directory.
const (
	CleanupFile   = "customer_cleanup_log.txt"
	RemindersFile = "order_reminders_log.txt"
	LowStockFile  = "low_stock_updates_log.txt"
	ReportFile    = "crm_report_log.txt"
	HeartbeatFile = "crm_heartbeat_log.txt"
)

// ErrNoLines is returned by Append when there is nothing to write.
var ErrNoLines = errors.New("joblog: no lines")

// Writer appends lines to one log file. Each line is a single O_APPEND
// write so concurrent writers never interleave within a line.
type Writer struct {
	path   string
	layout string

	mu sync.Mutex
}

// New returns a Writer for dir/name using layout for timestamps.
func New(dir, name, layout string) *Writer {
	if layout == "" {
		layout = DefaultLayout
	}
	return &Writer{path: filepath.Join(dir, name), layout: layout}
}

// Path returns the file the writer appends to.
func (w *Writer) Path() string {
	return w.path
}

// Format renders one line without writing it.
func (w *Writer) Format(ts time.Time, summary string) string {
	summary = strings.ReplaceAll(summary, "\n", " ")
	return ts.Format(w.layout) + " - " + summary + "\n"
}

// Append writes each summary as "<ts> - <summary>". The directory and the
// file are created when missing.
func (w *Writer) Append(ts time.Time, summaries ...string) error {
	if len(summaries) == 0 {
		return ErrNoLines
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create job log dir: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open job log: %w", err)
	}

	for _, s := range summaries {
		if _, err := f.WriteString(w.Format(ts, s)); err != nil {
			_ = f.Close()
			return fmt.Errorf("append job log %s: %w", filepath.Base(w.path), err)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close job log: %w", err)
	}
	return nil
}
