package analyzer

import (
	"sort"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

// Per-source scoring weights.
const (
	sourceAttackWeight = 40
	sourceTypeWeight   = 10
	sourceBlockWeight  = 30

	volumeBonusLarge  = 20
	volumeBonusMedium = 10
	largeVolume       = 100
	mediumVolume      = 50

	suspicionThreshold = 30
	maxScore           = 100
)

// SuspiciousSource is a per-address risk summary.
type SuspiciousSource struct {
	Address     string
	ThreatScore float64
	AttackTypes map[string]struct{}
}

// ScoreSuspiciousSources derives a bounded risk score per source address
// from the window. Only addresses scoring above the suspicion threshold
// are returned, sorted by score descending.
func ScoreSuspiciousSources(events []models.Event) []SuspiciousSource {
	type sourceStats struct {
		attackCount  int
		totalCount   int
		blockedCount int
		attackTypes  map[string]struct{}
	}

	stats := make(map[string]*sourceStats)
	var order []string

	for _, e := range events {
		s, ok := stats[e.SourceAddress]
		if !ok {
			s = &sourceStats{attackTypes: make(map[string]struct{})}
			stats[e.SourceAddress] = s
			order = append(order, e.SourceAddress)
		}
		s.totalCount++
		if e.IsAttack() {
			s.attackCount++
			s.attackTypes[e.AttackType] = struct{}{}
		}
		if e.Blocked {
			s.blockedCount++
		}
	}

	var sources []SuspiciousSource
	for _, addr := range order {
		s := stats[addr]
		total := float64(s.totalCount)

		score := float64(s.attackCount)/total*sourceAttackWeight +
			float64(len(s.attackTypes))*sourceTypeWeight +
			float64(s.blockedCount)/total*sourceBlockWeight

		switch {
		case s.totalCount > largeVolume:
			score += volumeBonusLarge
		case s.totalCount > mediumVolume:
			score += volumeBonusMedium
		}

		if score > maxScore {
			score = maxScore
		}
		if score <= suspicionThreshold {
			continue
		}

		sources = append(sources, SuspiciousSource{
			Address:     addr,
			ThreatScore: score,
			AttackTypes: s.attackTypes,
		})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].ThreatScore > sources[j].ThreatScore
	})
	return sources
}
