package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

func TestAggregateRiskScore_EmptyWindow(t *testing.T) {
	assert.Equal(t, float64(0), AggregateRiskScore(nil))
}

func TestAggregateRiskScore_SeverityWeights(t *testing.T) {
	tests := []struct {
		severity string
		expected float64
	}{
		{models.SeverityLow, 10},
		{models.SeverityMedium, 20},
		{models.SeverityHigh, 30},
		{models.SeverityCritical, 40},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			score := AggregateRiskScore([]models.Event{{Severity: tt.severity}})
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestAggregateRiskScore_Multipliers(t *testing.T) {
	// critical attack: 40 * 1.5 = 60
	score := AggregateRiskScore([]models.Event{
		{Severity: models.SeverityCritical, AttackType: models.AttackXSS},
	})
	assert.Equal(t, float64(60), score)

	// critical attack, blocked: 40 * 1.5 * 0.7 = 42
	score = AggregateRiskScore([]models.Event{
		{Severity: models.SeverityCritical, AttackType: models.AttackXSS, Blocked: true},
	})
	assert.InDelta(t, 42, score, 0.0001)
}

func TestAggregateRiskScore_Average(t *testing.T) {
	events := []models.Event{
		{Severity: models.SeverityCritical, AttackType: models.AttackXSS, Blocked: true}, // 42
		{Severity: models.SeverityLow},                                                   // 10
	}

	score := AggregateRiskScore(events)
	assert.InDelta(t, 26, score, 0.0001)
}
