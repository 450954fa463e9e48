package models

import "time"

// Event represents an entry in the report lifecycle audit trail.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g. "report.created", "report.status_changed"
	Level     string    `json:"level"` // e.g. "info", "warn"
	Message   string    `json:"message"`
	ReportID  *string   `json:"reportId,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
