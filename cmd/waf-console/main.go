// waf-console - Real-time terminal console for WAF security events.
//
// Connects to the backend's event stream over WebSocket, maintains a
// rolling window of classified events, and renders threat levels, attack
// patterns, and per-source risk scores. Critical events are raised as
// notifications and optionally archived to PostgreSQL.
//
// Usage:
//
//	waf-console -config=config.yaml
//
// Environment variables (alternative to the config file):
//
//	WAF_CONSOLE_ENDPOINT - WebSocket endpoint of the event stream
//	WAF_CONSOLE_TOKEN    - Bearer token for the stream connection
//	WAF_CONSOLE_REDIS    - Redis URL for notification persistence
//	WAF_CONSOLE_DATABASE - PostgreSQL URL for event archiving
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hervehildenbrand/waf-console/pkg/config"
	"github.com/hervehildenbrand/waf-console/pkg/console"
	"github.com/hervehildenbrand/waf-console/pkg/database"
	"github.com/hervehildenbrand/waf-console/pkg/models"
	"github.com/hervehildenbrand/waf-console/pkg/notify"
	"github.com/hervehildenbrand/waf-console/pkg/stream"
	"github.com/hervehildenbrand/waf-console/pkg/window"
)

var (
	configPath    = flag.String("config", "config.yaml", "Path to configuration file")
	noDashboard   = flag.Bool("no-dashboard", false, "Disable the terminal dashboard (log only)")
	statsInterval = flag.Duration("stats", 30*time.Second, "Stats logging interval")
	version       = flag.Bool("version", false, "Display version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("waf-console v0.1.0")
		os.Exit(0)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("waf-console starting...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to Redis (optional). Without it, notifications live in
	// memory and there is no cross-consumer sync.
	var kv notify.KeyValueStore = notify.NewMemoryStore()
	var changes notify.ChangeSignal = notify.NopSignal{}
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("Warning: Invalid Redis URL: %v", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("Warning: Redis connection failed: %v", err)
			} else {
				kv = notify.NewRedisStore(redisClient)
				changes = notify.NewRedisSignal(redisClient)
				log.Printf("Connected to Redis: %s", cfg.Redis.URL)
			}
		}
	}

	store := notify.NewStore(ctx, kv, changes)

	// Connect to PostgreSQL (optional)
	var dbWriter *database.EventWriter
	if cfg.Database.URL != "" {
		dbWriter, err = database.NewEventWriter(cfg.Database.URL)
		if err != nil {
			log.Printf("Warning: Database connection failed: %v", err)
			dbWriter = nil
		} else {
			dbWriter.Start()
		}
	}

	win := window.New(cfg.Window.MaxEvents, time.Duration(cfg.Window.MaxAgeHours)*time.Hour)

	var eventsReceived uint64
	var decodeFailures uint64

	client := stream.NewClient()
	client.Subscribe(func(msg stream.Message) {
		if msg.Type != stream.MessageTypeEvent {
			return
		}
		event, err := stream.DecodeEvent(msg)
		if err != nil {
			atomic.AddUint64(&decodeFailures, 1)
			log.Printf("Event decode failed: %v", err)
			return
		}
		atomic.AddUint64(&eventsReceived, 1)

		win.Append(event)

		if event.Severity == models.SeverityCritical {
			store.Add(ctx, notify.FromEvent(event))
		}
		if dbWriter != nil && (event.Severity == models.SeverityCritical || event.Blocked) {
			dbWriter.Write(event)
		}
	}, func(state stream.ConnectionState) {
		log.Printf("Connection state: %s", state)
	})

	client.Connect(cfg.Stream.Endpoint, cfg.Stream.AuthToken)

	// Start dashboard
	var dashboard *console.Dashboard
	if cfg.Dashboard.Enabled && !*noDashboard {
		dashboard = console.NewDashboard(
			win.Snapshot,
			client.State,
			store,
			time.Duration(cfg.Dashboard.RefreshSeconds)*time.Second,
		)
		dashboard.Start()
	}

	// Start stats logger
	go func() {
		ticker := time.NewTicker(*statsInterval)
		defer ticker.Stop()
		for range ticker.C {
			clientStats := client.Stats()
			log.Printf("STATS: events=%d decode_failures=%d window=%d state=%s reconnects=%v",
				atomic.LoadUint64(&eventsReceived),
				atomic.LoadUint64(&decodeFailures),
				win.Len(),
				clientStats["state"],
				clientStats["reconnects"])
		}
	}()

	// Wait for interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Printf("Shutting down...")
	if dashboard != nil {
		dashboard.Stop()
	}
	client.Disconnect()

	// Stop database writer (flushes remaining events)
	if dbWriter != nil {
		dbWriter.Stop()
	}

	log.Printf("Final stats: events=%d, decode_failures=%d",
		atomic.LoadUint64(&eventsReceived),
		atomic.LoadUint64(&decodeFailures))
}
