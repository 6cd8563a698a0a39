// Package window keeps the rolling in-memory window of recent events the
// analyzers are run against.
package window

import (
	"sync"
	"time"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

const (
	defaultMaxEvents = 5000
	defaultMaxAge    = 24 * time.Hour
)

// Window is a bounded, mutex-guarded collection of recent events, newest
// last. Snapshot returns an independent copy so analyzer calls never race
// with appends.
type Window struct {
	mu        sync.Mutex
	events    []models.Event
	maxEvents int
	maxAge    time.Duration
}

// New creates a window. Zero values select the defaults.
func New(maxEvents int, maxAge time.Duration) *Window {
	if maxEvents <= 0 {
		maxEvents = defaultMaxEvents
	}
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &Window{
		maxEvents: maxEvents,
		maxAge:    maxAge,
	}
}

// Append adds an event and trims entries beyond the size or age bound.
func (w *Window) Append(e models.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.events = append(w.events, e)

	cutoff := time.Now().Add(-w.maxAge)
	start := 0
	for start < len(w.events) && w.events[start].Timestamp.Before(cutoff) {
		start++
	}
	if over := len(w.events) - start - w.maxEvents; over > 0 {
		start += over
	}
	if start > 0 {
		w.events = append([]models.Event(nil), w.events[start:]...)
	}
}

// Snapshot returns a copy of the current window.
func (w *Window) Snapshot() []models.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.Event, len(w.events))
	copy(out, w.events)
	return out
}

// Len returns the current number of events.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.events)
}
