package services

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/cleancity/cleancity-be/internal/models"
)

// EventServiceProvider defines the interface for the audit trail.
type EventServiceProvider interface {
	CreateEvent(eventType, level, message string, reportID *string) error
	GetRecentEvents(limit int) ([]models.Event, error)
}

// EventService records report lifecycle actions for the admin activity
// feed. Failures here are logged by callers but never fail the business
// operation that triggered them.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent appends a new entry to the audit trail.
func (s *EventService) CreateEvent(eventType, level, message string, reportID *string) error {
	event := models.Event{
		ID:       uuid.New().String(),
		Type:     eventType,
		Level:    level,
		Message:  message,
		ReportID: reportID,
	}

	stmt, err := s.db.Prepare("INSERT INTO events (id, type, level, message, report_id) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(event.ID, event.Type, event.Level, event.Message, event.ReportID)
	return err
}

// GetRecentEvents retrieves the most recent audit entries.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query(
		"SELECT id, type, level, message, report_id, created_at FROM events ORDER BY created_at DESC, id LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.ReportID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
