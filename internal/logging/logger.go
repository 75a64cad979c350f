// Package logging provides config-driven categorized file-based
// logging, one file per pipeline stage under .intentguard/logs/.
// Logging is a silent no-op unless debug mode is enabled, so
// production runs stay quiet.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category names a log file / subsystem.
type Category string

const (
	CategoryBoot         Category = "boot"
	CategoryStatic       Category = "static"
	CategorySandbox      Category = "sandbox"
	CategoryDynamic      Category = "dynamic"
	CategoryLinguistic   Category = "linguistic"
	CategoryClassifier   Category = "classifier"
	CategoryOrchestrator Category = "orchestrator"
	CategoryStore        Category = "store"
	CategoryAPI          Category = "api"
)

type logEntry struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	mu        sync.RWMutex
	loggers   = make(map[Category]*logEntry)
	logsDir   string
	debugMode bool
	enabled   = true // set false entirely disables logging (e.g. in tests)
)

// Initialize sets the log directory and enables file output. It is
// idempotent and safe to call multiple times (e.g. after a config
// reload changes debug mode).
func Initialize(workspace string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	debugMode = debug
	logsDir = filepath.Join(workspace, ".intentguard", "logs")

	if !debugMode {
		return nil
	}
	return os.MkdirAll(logsDir, 0o755)
}

// SetEnabled toggles logging entirely; used by tests to keep output quiet.
func SetEnabled(v bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = v
}

func get(cat Category) *logEntry {
	mu.RLock()
	e, ok := loggers[cat]
	mu.RUnlock()
	if ok {
		return e
	}

	mu.Lock()
	defer mu.Unlock()
	if e, ok := loggers[cat]; ok {
		return e
	}

	e = &logEntry{category: cat}
	if debugMode && logsDir != "" {
		path := filepath.Join(logsDir, string(cat)+".log")
		if f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			e.file = f
			e.logger = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
		}
	}
	loggers[cat] = e
	return e
}

// Infof logs a line to the given category's file if debug mode is on.
func Infof(cat Category, format string, args ...any) {
	mu.RLock()
	on := enabled
	mu.RUnlock()
	if !on {
		return
	}
	e := get(cat)
	if e.logger == nil {
		return
	}
	e.logger.Printf(format, args...)
}

// Errorf logs an error-level line, always prefixed ERROR.
func Errorf(cat Category, format string, args ...any) {
	Infof(cat, "ERROR "+format, args...)
}

// Timer measures and logs the elapsed time of a pipeline stage.
type Timer struct {
	cat   Category
	label string
	start time.Time
}

// StartTimer begins timing an operation under the given category.
func StartTimer(cat Category, label string) *Timer {
	return &Timer{cat: cat, label: label, start: time.Now()}
}

// Stop logs the elapsed duration and returns it in seconds.
func (t *Timer) Stop() float64 {
	elapsed := time.Since(t.start)
	Infof(t.cat, "%s completed in %v", t.label, elapsed)
	return elapsed.Seconds()
}

// Close flushes and closes all open category log files. Intended for
// graceful shutdown.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	var firstErr error
	for _, e := range loggers {
		if e.file != nil {
			if err := e.file.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("logging: close %s: %w", e.category, err)
			}
		}
	}
	return firstErr
}
