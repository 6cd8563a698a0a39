package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

func TestDetectAttackPatterns_GroupsAndSorts(t *testing.T) {
	now := time.Now()
	events := []models.Event{
		{ID: "1", Timestamp: now, SourceAddress: "10.0.0.1", AttackType: models.AttackXSS},
		{ID: "2", Timestamp: now.Add(time.Minute), SourceAddress: "10.0.0.2", AttackType: models.AttackXSS},
		{ID: "3", Timestamp: now, SourceAddress: "10.0.0.3", AttackType: models.AttackSQLInjection},
	}

	patterns := DetectAttackPatterns(events)

	require.Len(t, patterns, 2)
	assert.Equal(t, models.AttackXSS, patterns[0].Type)
	assert.Equal(t, 2, patterns[0].Frequency)
	assert.Len(t, patterns[0].SourceAddresses, 2)
	assert.Equal(t, models.AttackSQLInjection, patterns[1].Type)
	assert.Equal(t, 1, patterns[1].Frequency)
	assert.Len(t, patterns[1].SourceAddresses, 1)
}

func TestDetectAttackPatterns_IgnoresNonAttacks(t *testing.T) {
	events := []models.Event{
		{ID: "1", SourceAddress: "10.0.0.1"},
		{ID: "2", SourceAddress: "10.0.0.2", Blocked: true},
	}

	patterns := DetectAttackPatterns(events)
	assert.Empty(t, patterns)
}

func TestDetectAttackPatterns_TimeRange(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	events := []models.Event{
		{ID: "1", Timestamp: base.Add(time.Hour), SourceAddress: "10.0.0.1", AttackType: models.AttackScanner},
		{ID: "2", Timestamp: base, SourceAddress: "10.0.0.1", AttackType: models.AttackScanner},
		{ID: "3", Timestamp: base.Add(2 * time.Hour), SourceAddress: "10.0.0.1", AttackType: models.AttackScanner},
	}

	patterns := DetectAttackPatterns(events)

	require.Len(t, patterns, 1)
	assert.Equal(t, base, patterns[0].FirstSeen)
	assert.Equal(t, base.Add(2*time.Hour), patterns[0].LastSeen)
}

func TestDetectAttackPatterns_TiesKeepEncounterOrder(t *testing.T) {
	events := []models.Event{
		{ID: "1", SourceAddress: "10.0.0.1", AttackType: models.AttackPathTraversal},
		{ID: "2", SourceAddress: "10.0.0.1", AttackType: models.AttackCommandInjection},
		{ID: "3", SourceAddress: "10.0.0.1", AttackType: models.AttackScanner},
	}

	patterns := DetectAttackPatterns(events)

	require.Len(t, patterns, 3)
	assert.Equal(t, models.AttackPathTraversal, patterns[0].Type)
	assert.Equal(t, models.AttackCommandInjection, patterns[1].Type)
	assert.Equal(t, models.AttackScanner, patterns[2].Type)
}

func TestDetectAttackPatterns_DuplicateSourceCountedOnce(t *testing.T) {
	events := []models.Event{
		{ID: "1", SourceAddress: "10.0.0.1", AttackType: models.AttackXSS},
		{ID: "2", SourceAddress: "10.0.0.1", AttackType: models.AttackXSS},
	}

	patterns := DetectAttackPatterns(events)

	require.Len(t, patterns, 1)
	assert.Equal(t, 2, patterns[0].Frequency)
	assert.Len(t, patterns[0].SourceAddresses, 1)
}
