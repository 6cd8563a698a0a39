package database

import (
	"testing"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

func TestEventWriter_DropCountWithConcurrentStats(t *testing.T) {
	// Write and Stats are called from different goroutines; the counters
	// must stay consistent under that interleaving.
	w := &EventWriter{
		queue: make(chan models.Event, 1),
		done:  make(chan struct{}),
	}

	statsDone := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			w.Stats()
		}
		close(statsDone)
	}()

	for i := 0; i < 100; i++ {
		w.Write(models.Event{ID: "e", Severity: models.SeverityHigh})
	}
	<-statsDone

	stats := w.Stats()
	// Queue capacity 1: the first write queues, the other 99 drop.
	if got := stats["events_dropped"].(uint64); got != 99 {
		t.Errorf("Expected 99 dropped events, got %d", got)
	}
	if got := stats["queue_len"].(int); got != 1 {
		t.Errorf("Expected 1 queued event, got %d", got)
	}
}
