// Package console renders the terminal dashboard.
package console

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/hervehildenbrand/waf-console/pkg/analyzer"
	"github.com/hervehildenbrand/waf-console/pkg/models"
	"github.com/hervehildenbrand/waf-console/pkg/notify"
	"github.com/hervehildenbrand/waf-console/pkg/stream"
)

// Color definitions using fatih/color for cross-platform support
var (
	colorRed     = color.New(color.FgRed).SprintFunc()
	colorYellow  = color.New(color.FgYellow).SprintFunc()
	colorGreen   = color.New(color.FgGreen).SprintFunc()
	colorBlue    = color.New(color.FgBlue).SprintFunc()
	colorMagenta = color.New(color.FgMagenta).SprintFunc()
	colorCyan    = color.New(color.FgCyan).SprintFunc()
	colorWhite   = color.New(color.FgWhite).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
)

// severityColorFunc returns the color function for a severity level.
func severityColorFunc(severity string) func(a ...interface{}) string {
	switch severity {
	case models.SeverityCritical:
		return colorRed
	case models.SeverityHigh:
		return colorMagenta
	case models.SeverityMedium:
		return colorYellow
	case models.SeverityLow:
		return colorBlue
	default:
		return colorWhite
	}
}

// Dashboard periodically renders the threat summary for the current event
// window.
type Dashboard struct {
	events  func() []models.Event
	state   func() stream.ConnectionState
	store   *notify.Store
	refresh time.Duration

	done chan struct{}
	wg   sync.WaitGroup
}

// NewDashboard creates a dashboard over the given window snapshot and
// connection state getters.
func NewDashboard(events func() []models.Event, state func() stream.ConnectionState, store *notify.Store, refresh time.Duration) *Dashboard {
	return &Dashboard{
		events:  events,
		state:   state,
		store:   store,
		refresh: refresh,
		done:    make(chan struct{}),
	}
}

// Start begins periodic rendering.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.refresh)
		defer ticker.Stop()
		d.render()
		for {
			select {
			case <-ticker.C:
				d.render()
			case <-d.done:
				return
			}
		}
	}()
}

// Stop halts rendering.
func (d *Dashboard) Stop() {
	close(d.done)
	d.wg.Wait()
}

func (d *Dashboard) render() {
	events := d.events()
	threat := analyzer.AnalyzeThreatLevel(events)
	risk := analyzer.AggregateRiskScore(events)
	patterns := analyzer.DetectAttackPatterns(events)
	sources := analyzer.ScoreSuspiciousSources(events)

	clearScreen()
	fmt.Println(colorCyan(colorBold("waf-console")), "—", d.renderState())
	fmt.Printf("Window: %d events | Risk score: %.1f | Unread notifications: %d\n\n",
		len(events), risk, d.store.UnreadCount())

	sevColor := severityColorFunc(threat.Level)
	fmt.Printf("Threat level: %s (score %d)\n", sevColor(strings.ToUpper(threat.Level)), threat.Score)
	for _, reason := range threat.Reasons {
		fmt.Printf("  - %s\n", reason)
	}

	d.renderPatterns(patterns)
	d.renderSources(sources)
	d.renderNotifications()
}

func (d *Dashboard) renderState() string {
	state := d.state()
	switch state {
	case stream.StateConnected:
		return colorGreen(string(state))
	case stream.StateConnecting, stream.StateReconnecting:
		return colorYellow(string(state))
	default:
		return colorRed(string(state))
	}
}

func (d *Dashboard) renderPatterns(patterns []analyzer.AttackPattern) {
	if len(patterns) == 0 {
		return
	}
	fmt.Println("\nAttack patterns:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Type", "Frequency", "Sources", "First Seen", "Last Seen"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, p := range patterns {
		table.Append([]string{
			p.Type,
			strconv.Itoa(p.Frequency),
			strconv.Itoa(len(p.SourceAddresses)),
			p.FirstSeen.Format("15:04:05"),
			p.LastSeen.Format("15:04:05"),
		})
	}
	table.Render()
}

func (d *Dashboard) renderSources(sources []analyzer.SuspiciousSource) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSuspicious sources:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Address", "Score", "Attack Types"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, s := range sources {
		types := make([]string, 0, len(s.AttackTypes))
		for t := range s.AttackTypes {
			types = append(types, t)
		}
		sort.Strings(types)
		table.Append([]string{
			s.Address,
			fmt.Sprintf("%.1f", s.ThreatScore),
			strings.Join(types, ", "),
		})
	}
	table.Render()
}

func (d *Dashboard) renderNotifications() {
	notifications := d.store.Notifications()
	if len(notifications) == 0 {
		return
	}
	fmt.Println("\nNotifications:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Type", "Title", "Message", "Read"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, n := range notifications {
		read := ""
		if !n.Read {
			read = "unread"
		}
		table.Append([]string{
			n.Timestamp.Format("15:04:05"),
			n.Type,
			n.Title,
			n.Message,
			read,
		})
	}
	table.Render()
}

func clearScreen() {
	fmt.Print("\033[H\033[2J")
}
