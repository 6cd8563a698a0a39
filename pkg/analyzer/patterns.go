package analyzer

import (
	"sort"
	"time"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

// AttackPattern summarizes one attack type within a window.
type AttackPattern struct {
	Type            string
	Frequency       int
	FirstSeen       time.Time
	LastSeen        time.Time
	SourceAddresses map[string]struct{}
}

// DetectAttackPatterns groups attack events by type, tracking frequency,
// time range, and distinct source addresses per type. Events without an
// attack type are ignored. Results are sorted by frequency descending;
// ties keep first-encounter order.
func DetectAttackPatterns(events []models.Event) []AttackPattern {
	byType := make(map[string]*AttackPattern)
	var order []string

	for _, e := range events {
		if !e.IsAttack() {
			continue
		}
		p, ok := byType[e.AttackType]
		if !ok {
			p = &AttackPattern{
				Type:            e.AttackType,
				FirstSeen:       e.Timestamp,
				LastSeen:        e.Timestamp,
				SourceAddresses: make(map[string]struct{}),
			}
			byType[e.AttackType] = p
			order = append(order, e.AttackType)
		}
		p.Frequency++
		if e.Timestamp.Before(p.FirstSeen) {
			p.FirstSeen = e.Timestamp
		}
		if e.Timestamp.After(p.LastSeen) {
			p.LastSeen = e.Timestamp
		}
		p.SourceAddresses[e.SourceAddress] = struct{}{}
	}

	patterns := make([]AttackPattern, 0, len(order))
	for _, t := range order {
		patterns = append(patterns, *byType[t])
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Frequency > patterns[j].Frequency
	})
	return patterns
}
