// Package database provides PostgreSQL archiving of security events with
// batch support.
package database

import (
	"database/sql"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hervehildenbrand/waf-console/pkg/models"
	_ "github.com/lib/pq"
)

const (
	batchSize     = 50
	batchInterval = 2 * time.Second
	queueSize     = 10000
)

// EventWriter handles batch writing of security events to PostgreSQL. It
// is the backing for the console's event history views; the live pipeline
// never waits on it.
type EventWriter struct {
	db      *sql.DB
	queue   chan models.Event
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex

	// Stats
	eventsWritten  uint64
	eventsDropped  uint64
	batchesWritten uint64
}

// NewEventWriter creates a new database event writer.
func NewEventWriter(databaseURL string) (*EventWriter, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Connected to PostgreSQL database")

	return &EventWriter{
		db:    db,
		queue: make(chan models.Event, queueSize),
		done:  make(chan struct{}),
	}, nil
}

// Start begins the background writer goroutine.
func (w *EventWriter) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.writerLoop()
	log.Printf("Database event writer started")
}

// Stop gracefully shuts down the writer, flushing remaining events.
func (w *EventWriter) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
	w.db.Close()
	log.Printf("Database event writer stopped (written=%d, dropped=%d, batches=%d)",
		atomic.LoadUint64(&w.eventsWritten),
		atomic.LoadUint64(&w.eventsDropped),
		atomic.LoadUint64(&w.batchesWritten))
}

// Write queues an event for batch writing. Safe to call from any
// goroutine; a full queue drops the event.
func (w *EventWriter) Write(event models.Event) {
	select {
	case w.queue <- event:
	default:
		dropped := atomic.AddUint64(&w.eventsDropped, 1)
		if dropped%1000 == 0 {
			log.Printf("Event queue full, dropped %d events", dropped)
		}
	}
}

// Stats returns writer statistics.
func (w *EventWriter) Stats() map[string]interface{} {
	return map[string]interface{}{
		"events_written":  atomic.LoadUint64(&w.eventsWritten),
		"events_dropped":  atomic.LoadUint64(&w.eventsDropped),
		"batches_written": atomic.LoadUint64(&w.batchesWritten),
		"queue_len":       len(w.queue),
		"queue_cap":       cap(w.queue),
	}
}

func (w *EventWriter) writerLoop() {
	defer w.wg.Done()

	batch := make([]models.Event, 0, batchSize)
	ticker := time.NewTicker(batchInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-w.queue:
			batch = append(batch, event)
			if len(batch) >= batchSize {
				w.writeBatch(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.writeBatch(batch)
				batch = batch[:0]
			}

		case <-w.done:
			// Flush remaining events
			close(w.queue)
			for event := range w.queue {
				batch = append(batch, event)
				if len(batch) >= batchSize {
					w.writeBatch(batch)
					batch = batch[:0]
				}
			}
			if len(batch) > 0 {
				w.writeBatch(batch)
			}
			return
		}
	}
}

func (w *EventWriter) writeBatch(batch []models.Event) {
	if len(batch) == 0 {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		log.Printf("Failed to begin transaction: %v", err)
		return
	}
	defer tx.Rollback()

	written := 0
	for _, event := range batch {
		if w.writeEvent(tx, event) {
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Failed to commit batch: %v", err)
		return
	}

	atomic.AddUint64(&w.eventsWritten, uint64(written))
	atomic.AddUint64(&w.batchesWritten, 1)
}

func (w *EventWriter) writeEvent(tx *sql.Tx, event models.Event) bool {
	// Check for an existing active event with the same signature
	// (deduplication): repeated attacks from the same source refresh the
	// existing row instead of piling up duplicates.
	var existingID int
	var existingSeverity string
	err := tx.QueryRow(`
		SELECT id, severity FROM waf_events
		WHERE source_address = $1
		AND attack_type = $2
		AND is_active = true
		LIMIT 1
	`, event.SourceAddress, event.AttackType).Scan(&existingID, &existingSeverity)

	if err == nil {
		// Event exists, update last_seen_at and potentially severity
		newSeverity := existingSeverity
		if models.SeverityInt(event.Severity) > models.SeverityInt(existingSeverity) {
			newSeverity = event.Severity
		}

		_, err = tx.Exec(`
			UPDATE waf_events
			SET last_seen_at = $1, severity = $2, blocked = $3
			WHERE id = $4
		`, event.Timestamp, newSeverity, event.Blocked, existingID)

		if err != nil {
			log.Printf("Failed to update event %d: %v", existingID, err)
			return false
		}
		return true
	}

	if err != sql.ErrNoRows {
		log.Printf("Failed to check existing event: %v", err)
		return false
	}

	// Insert new event
	_, err = tx.Exec(`
		INSERT INTO waf_events (
			event_id, source_address, attack_type, severity, blocked,
			observed_at, last_seen_at, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		event.ID,
		event.SourceAddress,
		event.AttackType,
		event.Severity,
		event.Blocked,
		event.Timestamp,
		event.Timestamp,
		true,
	)

	if err != nil {
		log.Printf("Failed to insert event: %v", err)
		return false
	}

	return true
}
