// Package analyzer computes threat metrics over windows of WAF events.
//
// All functions are pure: they recompute their results in full from a
// caller-supplied event window on every call and hold no state between
// calls. Callers must supply a snapshot that is not mutated during the
// call.
package analyzer

import (
	"fmt"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

// Threat level weights and thresholds.
const (
	highAttackRate     = 0.5
	moderateAttackRate = 0.2
	highBlockRate      = 0.7

	attackRateHighWeight     = 40
	attackRateModerateWeight = 20
	criticalEventWeight      = 10
	blockRateWeight          = 30

	criticalThreshold = 70
	highThreshold     = 50
	mediumThreshold   = 30
)

// ThreatLevel is the aggregate qualitative classification of a window.
type ThreatLevel struct {
	Level   string
	Score   int
	Reasons []string
}

// AnalyzeThreatLevel reduces a window of events to a threat level, a
// numeric score, and human-readable reasons. The score is intentionally
// not capped: windows with many critical events can exceed 100.
func AnalyzeThreatLevel(events []models.Event) ThreatLevel {
	if len(events) == 0 {
		return ThreatLevel{Level: models.SeverityLow, Score: 0, Reasons: []string{}}
	}

	attackCount := 0
	criticalCount := 0
	blockedCount := 0
	for _, e := range events {
		if e.IsAttack() {
			attackCount++
		}
		if e.Severity == models.SeverityCritical {
			criticalCount++
		}
		if e.Blocked {
			blockedCount++
		}
	}

	total := float64(len(events))
	score := 0
	reasons := []string{}

	attackRate := float64(attackCount) / total
	if attackRate > highAttackRate {
		score += attackRateHighWeight
		reasons = append(reasons, "High attack rate detected")
	} else if attackRate > moderateAttackRate {
		score += attackRateModerateWeight
		reasons = append(reasons, "Moderate attack rate")
	}

	if criticalCount > 0 {
		score += criticalCount * criticalEventWeight
		reasons = append(reasons, fmt.Sprintf("%d critical events detected", criticalCount))
	}

	blockRate := float64(blockedCount) / total
	if blockRate > highBlockRate {
		score += blockRateWeight
		reasons = append(reasons, "High block rate indicates active threats")
	}

	level := models.SeverityLow
	switch {
	case score >= criticalThreshold:
		level = models.SeverityCritical
	case score >= highThreshold:
		level = models.SeverityHigh
	case score >= mediumThreshold:
		level = models.SeverityMedium
	}

	return ThreatLevel{Level: level, Score: score, Reasons: reasons}
}
