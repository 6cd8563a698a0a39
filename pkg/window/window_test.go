package window

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

func TestWindow_SizeBound(t *testing.T) {
	w := New(5, time.Hour)

	for i := 0; i < 8; i++ {
		w.Append(models.Event{ID: fmt.Sprintf("e-%d", i), Timestamp: time.Now()})
	}

	events := w.Snapshot()
	require.Len(t, events, 5)
	// Oldest entries were trimmed
	assert.Equal(t, "e-3", events[0].ID)
	assert.Equal(t, "e-7", events[4].ID)
}

func TestWindow_AgeBound(t *testing.T) {
	w := New(100, time.Minute)

	w.Append(models.Event{ID: "stale", Timestamp: time.Now().Add(-2 * time.Minute)})
	w.Append(models.Event{ID: "fresh", Timestamp: time.Now()})

	events := w.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "fresh", events[0].ID)
}

func TestWindow_SnapshotIsIndependent(t *testing.T) {
	w := New(10, time.Hour)
	w.Append(models.Event{ID: "a", Timestamp: time.Now()})

	snap := w.Snapshot()
	snap[0].ID = "mutated"

	assert.Equal(t, "a", w.Snapshot()[0].ID)
}

func TestWindow_Len(t *testing.T) {
	w := New(10, time.Hour)
	assert.Equal(t, 0, w.Len())
	w.Append(models.Event{ID: "a", Timestamp: time.Now()})
	assert.Equal(t, 1, w.Len())
}
