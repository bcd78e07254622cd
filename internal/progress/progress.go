// Package progress defines the status/progress sink contract that fetch,
// search and store operations report into.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Sink receives human-readable status lines and progress increments on a
// 0-100 scale. Implementations must not block the reporting worker.
type Sink interface {
	Report(msg string)
	Increment(amount float64)
}

// Discard returns a Sink that drops everything.
func Discard() Sink { return nopSink{} }

type nopSink struct{}

func (nopSink) Report(string)     {}
func (nopSink) Increment(float64) {}

// Event is one update drained from a Buffered sink.
type Event struct {
	Message   string
	Increment float64
}

// Buffered is a Sink backed by a bounded channel. Sends never block the
// reporting worker: when the receiver falls behind, updates are dropped.
type Buffered struct {
	ch chan Event
}

// NewBuffered creates a Buffered sink holding up to size pending events.
func NewBuffered(size int) *Buffered {
	if size <= 0 {
		size = 64
	}
	return &Buffered{ch: make(chan Event, size)}
}

func (b *Buffered) Report(msg string) {
	select {
	case b.ch <- Event{Message: msg}:
	default:
	}
}

func (b *Buffered) Increment(amount float64) {
	select {
	case b.ch <- Event{Increment: amount}:
	default:
	}
}

// Events returns the channel updates are delivered on.
func (b *Buffered) Events() <-chan Event {
	return b.ch
}

// Close releases the event channel. No sends may follow.
func (b *Buffered) Close() {
	close(b.ch)
}

// Writer returns a Sink that prints status lines to w and renders progress
// increments as an in-place percentage.
func Writer(w io.Writer) Sink {
	return &writerSink{w: w}
}

type writerSink struct {
	mu      sync.Mutex
	w       io.Writer
	percent float64
	midline bool
}

func (s *writerSink) Report(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.midline {
		fmt.Fprintln(s.w)
		s.midline = false
	}
	fmt.Fprintln(s.w, msg)
	s.percent = 0
}

func (s *writerSink) Increment(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.percent += amount
	if s.percent > 100 {
		s.percent = 100
	}
	fmt.Fprintf(s.w, "\r%3.0f%%", s.percent)
	s.midline = true
}

// Slog returns a Sink that forwards status lines to a structured logger and
// ignores increments.
func Slog(logger *slog.Logger) Sink {
	return slogSink{logger: logger}
}

type slogSink struct {
	logger *slog.Logger
}

func (s slogSink) Report(msg string)   { s.logger.Info(msg) }
func (s slogSink) Increment(f float64) {}
