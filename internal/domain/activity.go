package domain

import "time"

// ActivityLevel classifies activity log entries for the dashboard.
type ActivityLevel string

const (
	ActivityInfo    ActivityLevel = "info"
	ActivitySuccess ActivityLevel = "success"
	ActivityWarning ActivityLevel = "warning"
	ActivityError   ActivityLevel = "error"
)

// ActivityEntry is one structured event in the bounded activity log: a signal
// computation, an order attempt, a degradation event, or an error. Symbol is
// empty for system-wide events.
type ActivityEntry struct {
	ID        string
	Timestamp time.Time
	Level     ActivityLevel
	Category  string
	Message   string
	Symbol    string
}
