package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

func TestAnalyzeThreatLevel_EmptyWindow(t *testing.T) {
	result := AnalyzeThreatLevel(nil)

	assert.Equal(t, models.SeverityLow, result.Level)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, []string{}, result.Reasons)
}

func TestAnalyzeThreatLevel_HighAttackRate(t *testing.T) {
	// 3 of 4 events are attacks: attackRate 0.75 > 0.5
	events := []models.Event{
		{ID: "1", Severity: models.SeverityLow, AttackType: models.AttackXSS},
		{ID: "2", Severity: models.SeverityLow, AttackType: models.AttackSQLInjection},
		{ID: "3", Severity: models.SeverityLow, AttackType: models.AttackScanner},
		{ID: "4", Severity: models.SeverityLow},
	}

	result := AnalyzeThreatLevel(events)

	assert.Contains(t, result.Reasons, "High attack rate detected")
	assert.GreaterOrEqual(t, result.Score, 40)
}

func TestAnalyzeThreatLevel_ModerateBucketWithCritical(t *testing.T) {
	// attackRate exactly 0.5 falls in the moderate bucket (+20), one
	// critical event (+10), blockRate 0.5 below the 0.7 threshold.
	events := []models.Event{
		{ID: "1", Timestamp: time.Now(), Severity: models.SeverityCritical, AttackType: models.AttackXSS, Blocked: true},
		{ID: "2", Timestamp: time.Now(), Severity: models.SeverityLow},
	}

	result := AnalyzeThreatLevel(events)

	require.Equal(t, 30, result.Score)
	assert.Equal(t, models.SeverityMedium, result.Level)
	assert.Contains(t, result.Reasons, "Moderate attack rate")
	assert.Contains(t, result.Reasons, "1 critical events detected")
	assert.NotContains(t, result.Reasons, "High block rate indicates active threats")
}

func TestAnalyzeThreatLevel_HighBlockRate(t *testing.T) {
	// All events blocked, no attacks, no criticals: only the block-rate
	// term fires.
	events := []models.Event{
		{ID: "1", Severity: models.SeverityLow, Blocked: true},
		{ID: "2", Severity: models.SeverityLow, Blocked: true},
		{ID: "3", Severity: models.SeverityLow, Blocked: true},
	}

	result := AnalyzeThreatLevel(events)

	assert.Equal(t, 30, result.Score)
	assert.Equal(t, models.SeverityMedium, result.Level)
	assert.Equal(t, []string{"High block rate indicates active threats"}, result.Reasons)
}

func TestAnalyzeThreatLevel_ScoreNotCapped(t *testing.T) {
	// 10 critical attack events: 40 (attack rate) + 100 (criticals) + 30
	// (block rate) = 170. The threat score is deliberately unclamped.
	var events []models.Event
	for i := 0; i < 10; i++ {
		events = append(events, models.Event{
			Severity:   models.SeverityCritical,
			AttackType: models.AttackSQLInjection,
			Blocked:    true,
		})
	}

	result := AnalyzeThreatLevel(events)

	assert.Equal(t, 170, result.Score)
	assert.Equal(t, models.SeverityCritical, result.Level)
}

func TestAnalyzeThreatLevel_Thresholds(t *testing.T) {
	tests := []struct {
		name      string
		criticals int
		expected  string
	}{
		{"five criticals scores 90", 5, models.SeverityCritical},
		{"three criticals scores 70", 3, models.SeverityCritical},
		{"two criticals scores 60", 2, models.SeverityHigh},
		{"one critical scores 50", 1, models.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// All events are attacks (+40); criticals add 10 each; nothing
			// blocked.
			var events []models.Event
			for i := 0; i < tt.criticals; i++ {
				events = append(events, models.Event{Severity: models.SeverityCritical, AttackType: models.AttackXSS})
			}
			result := AnalyzeThreatLevel(events)
			assert.Equal(t, tt.expected, result.Level)
		})
	}
}
