// Package models defines data structures for WAF security events and
// console notifications.
package models

import "time"

// Event represents a security event already classified by the WAF backend.
type Event struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	SourceAddress string    `json:"sourceAddress"`
	AttackType    string    `json:"attackType,omitempty"` // empty when not an attack
	Severity      string    `json:"severity"`
	Blocked       bool      `json:"blocked"`
}

// IsAttack reports whether the event carries an attack classification.
func (e Event) IsAttack() bool {
	return e.AttackType != ""
}

// Severity levels
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SeverityInt maps a severity to its fixed ordinal (low=1 .. critical=4).
// Unknown severities map to 1.
func SeverityInt(severity string) int {
	switch severity {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// Attack types assigned by the backend's rule engine.
const (
	AttackXSS                 = "xss"
	AttackSQLInjection        = "sqli"
	AttackPathTraversal       = "path_traversal"
	AttackRemoteFileInclusion = "rfi"
	AttackCommandInjection    = "command_injection"
	AttackPHPInjection        = "php_injection"
	AttackScanner             = "scanner"
	AttackProtocolViolation   = "protocol_violation"
)

// Notification is a persisted console alert derived from a high-severity
// event or synthesized on first run.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // critical, attack, blocked, info
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	EventID   string    `json:"eventId,omitempty"`
}

// Notification types
const (
	NotifyCritical = "critical"
	NotifyAttack   = "attack"
	NotifyBlocked  = "blocked"
	NotifyInfo     = "info"
)
