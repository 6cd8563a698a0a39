package analyzer

import "github.com/hervehildenbrand/waf-console/pkg/models"

// Risk score factors.
const (
	severityWeight    = 10
	attackMultiplier  = 1.5
	blockedMultiplier = 0.7
)

// AggregateRiskScore computes a single composite risk number in [0, 100]
// from severity, attack flag, and block flag across the window. An empty
// window scores 0.
func AggregateRiskScore(events []models.Event) float64 {
	if len(events) == 0 {
		return 0
	}

	sum := 0.0
	for _, e := range events {
		score := float64(models.SeverityInt(e.Severity) * severityWeight)
		if e.IsAttack() {
			score *= attackMultiplier
		}
		if e.Blocked {
			score *= blockedMultiplier
		}
		sum += score
	}

	avg := sum / float64(len(events))
	if avg > maxScore {
		avg = maxScore
	}
	return avg
}
