package pano

import (
	"io"
	"log"
	"sync"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer // invariant violations and other defects
	Diag  io.Writer // cache rebuilds and their timings
	Trace io.Writer // per-frame cache hits
}

var (
	logMu       sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream. All streams start disabled.
func SetLogWriters(w LogWriters) {
	logMu.Lock()
	defer logMu.Unlock()
	opsLogger = newLogger("[pano] ", w.Ops)
	diagLogger = newLogger("[pano] ", w.Diag)
	traceLogger = newLogger("[pano] ", w.Trace)
}

// newLogger creates a *log.Logger for a given writer, or returns nil if w is nil.
func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...any) {
	logTo(&opsLogger, format, args...)
}

// Diagf logs to the diag stream.
func Diagf(format string, args ...any) {
	logTo(&diagLogger, format, args...)
}

// Tracef logs to the trace stream.
func Tracef(format string, args ...any) {
	logTo(&traceLogger, format, args...)
}

func logTo(l **log.Logger, format string, args ...any) {
	logMu.RLock()
	logger := *l
	logMu.RUnlock()
	if logger != nil {
		logger.Printf(format, args...)
	}
}
