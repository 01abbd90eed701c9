// Package applog sets up file-backed structured logging. The TUI owns
// the terminal while it runs, so diagnostics go to a daily-rotating
// file instead of stderr.
package applog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const keepDays = 7

// Rotator is an io.Writer that writes to a date-stamped log file and
// switches to a new file each calendar day. Files beyond keepDays are
// pruned.
type Rotator struct {
	mu   sync.Mutex
	dir  string
	date string
	file *os.File
	now  func() time.Time
}

func NewRotator(dir string) *Rotator {
	return &Rotator{dir: dir, now: time.Now}
}

// SetNow replaces the time source. Used in tests only.
func (r *Rotator) SetNow(fn func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = fn
}

func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.now().Format("2006-01-02")
	if today != r.date {
		if err := r.rotate(today); err != nil {
			return 0, err
		}
	}
	return r.file.Write(p)
}

func (r *Rotator) rotate(date string) error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
	name := filepath.Join(r.dir, "usage-live-"+date+".log")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.date = date
	r.prune()
	return nil
}

func (r *Rotator) prune() {
	matches, err := filepath.Glob(filepath.Join(r.dir, "usage-live-*.log"))
	if err != nil || len(matches) <= keepDays {
		return
	}
	sort.Strings(matches)
	for _, f := range matches[:len(matches)-keepDays] {
		os.Remove(f)
	}
}

// Close flushes and closes the current log file.
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// Init sets up slog writing to dir at the given level and returns the
// logger and a closer the caller must defer.
func Init(dir, level string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	rotator := NewRotator(dir)
	handler := slog.NewTextHandler(rotator, &slog.HandlerOptions{Level: ParseLevel(level)})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, rotator, nil
}

// ParseLevel converts a level string to slog.Level. Defaults to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
