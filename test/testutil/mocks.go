package testutil

import (
	"bytes"
	"strings"
	"sync"

	"github.com/bitpack/bitpack/internal/logging"
)

// BufferLogger wraps a *logging.Logger writing to an in-memory buffer, so
// tests can assert on emitted log lines without capturing stdout.
type BufferLogger struct {
	*logging.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewBufferLogger returns a BufferLogger at LevelTrace (the most
// permissive level, so tests see every call regardless of what they log).
func NewBufferLogger() *BufferLogger {
	l := &BufferLogger{Logger: logging.NewLogger(logging.LevelTrace)}
	l.Logger.SetOutput(&syncWriter{mu: &l.mu, buf: &l.buf})
	l.Logger.SetColorEnabled(false)
	return l
}

// Contains reports whether substr appears anywhere in the captured output.
func (l *BufferLogger) Contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Contains(l.buf.String(), substr)
}

// String returns the full captured output.
func (l *BufferLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// syncWriter serializes writes into buf under mu, since logging.Logger
// already holds its own lock during log() but BufferLogger's accessors
// need to read buf from a different goroutine than the one logging.
type syncWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
