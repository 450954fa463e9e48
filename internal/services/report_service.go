package services

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleancity/cleancity-be/internal/errs"
	"github.com/cleancity/cleancity-be/internal/models"
)

// Broadcaster pushes report lifecycle notifications to connected
// dashboard clients. Implemented by the websocket hub; may be nil.
type Broadcaster interface {
	BroadcastReportEvent(action, reportID string, payload interface{})
}

// CreateReportInput carries the citizen-supplied fields of a new report.
type CreateReportInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	ImageURL    string
}

// ReportServiceProvider defines the interface for report services.
type ReportServiceProvider interface {
	Create(ownerID string, input CreateReportInput) (models.Report, error)
	GetByID(id string) (models.Report, error)
	List(filter models.ReportFilter) ([]models.Report, error)
	ListByOwner(ownerID string) ([]models.Report, error)
	UpdateStatus(id, newStatus string, requesterRole models.Role) (models.Report, error)
	Delete(id, requesterID string, requesterRole models.Role) error
	Stats() (models.ReportStats, error)
}

// ReportService owns report records and enforces the status state machine
// and ownership rules. Status transitions are deliberately non-monotonic:
// an admin may set any of the three statuses in any order.
type ReportService struct {
	db       *sql.DB
	eventSvc EventServiceProvider
	hub      Broadcaster
}

// NewReportService creates a new ReportService. eventSvc and hub may be
// nil in tests.
func NewReportService(db *sql.DB, eventSvc EventServiceProvider, hub Broadcaster) *ReportService {
	return &ReportService{db: db, eventSvc: eventSvc, hub: hub}
}

const reportColumns = `r.id, r.title, r.description, r.category, r.status, r.location,
	COALESCE(r.image_url, ''), r.owner_id, COALESCE(u.name, ''), COALESCE(u.email, ''),
	r.created_at, r.updated_at`

const reportSelect = "SELECT " + reportColumns + " FROM reports r LEFT JOIN users u ON u.id = r.owner_id"

// imageURL must be an absolute URL or a path starting with "/".
var absoluteURLRe = regexp.MustCompile(`(?i)^(https?:)?//`)

// validateCreate checks every field constraint at once so the caller gets
// the full list of violations in one response.
func validateCreate(input CreateReportInput) error {
	ve := &errs.ValidationError{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		ve.Add("title", "Title is required")
	} else if len(title) > 200 {
		ve.Add("title", "Title cannot exceed 200 characters")
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		ve.Add("description", "Description is required")
	} else if len(description) > 2000 {
		ve.Add("description", "Description cannot exceed 2000 characters")
	}

	if !models.Category(input.Category).Valid() {
		ve.Add("category", "Category must be waste, water, or road")
	}

	if strings.TrimSpace(input.Location) == "" {
		ve.Add("location", "Location is required")
	}

	if input.ImageURL != "" && !absoluteURLRe.MatchString(input.ImageURL) && !strings.HasPrefix(input.ImageURL, "/") {
		ve.Add("imageUrl", "imageUrl must be an absolute URL or a path starting with '/'")
	}

	return ve.OrNil()
}

// Create validates the input and stores a new report. Every report starts
// as pending regardless of caller input; the owner is fixed at creation.
func (s *ReportService) Create(ownerID string, input CreateReportInput) (models.Report, error) {
	if err := validateCreate(input); err != nil {
		return models.Report{}, err
	}

	now := time.Now().UTC()
	report := models.Report{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    models.Category(input.Category),
		Status:      models.StatusPending,
		Location:    strings.TrimSpace(input.Location),
		ImageURL:    input.ImageURL,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stmt, err := s.db.Prepare(`INSERT INTO reports
		(id, title, description, category, status, location, image_url, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return models.Report{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(report.ID, report.Title, report.Description, report.Category,
		report.Status, report.Location, report.ImageURL, report.OwnerID,
		report.CreatedAt, report.UpdatedAt)
	if err != nil {
		return models.Report{}, err
	}

	s.recordEvent("report.created", "info",
		fmt.Sprintf("Report %q created in category %s", report.Title, report.Category), report.ID)
	s.broadcast("report_created", report.ID, report)

	return s.GetByID(report.ID)
}

// GetByID retrieves a single report with its owner's name and email.
func (s *ReportService) GetByID(id string) (models.Report, error) {
	row := s.db.QueryRow(reportSelect+" WHERE r.id = ?", id)
	report, err := scanReport(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Report{}, errs.ErrNotFound
		}
		return models.Report{}, err
	}
	return report, nil
}

// List retrieves reports matching the filter, newest first.
func (s *ReportService) List(filter models.ReportFilter) ([]models.Report, error) {
	where, args := buildReportQuery(filter)
	return s.queryReports(reportSelect+where+" ORDER BY r.created_at DESC, r.id", args...)
}

// ListByOwner retrieves a user's own reports, newest first.
func (s *ReportService) ListByOwner(ownerID string) ([]models.Report, error) {
	return s.queryReports(reportSelect+" WHERE r.owner_id = ? ORDER BY r.created_at DESC, r.id", ownerID)
}

// UpdateStatus sets a report's status. Only admins may do this; any of
// the three statuses is reachable from any other.
func (s *ReportService) UpdateStatus(id, newStatus string, requesterRole models.Role) (models.Report, error) {
	if requesterRole != models.RoleAdmin {
		return models.Report{}, errs.ErrForbidden
	}

	status := models.Status(newStatus)
	if !status.Valid() {
		ve := &errs.ValidationError{}
		ve.Add("status", "Status must be pending, in-progress, or resolved")
		return models.Report{}, ve
	}

	res, err := s.db.Exec("UPDATE reports SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id)
	if err != nil {
		return models.Report{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Report{}, err
	}
	if affected == 0 {
		return models.Report{}, errs.ErrNotFound
	}

	report, err := s.GetByID(id)
	if err != nil {
		return models.Report{}, err
	}

	s.recordEvent("report.status_changed", "info",
		fmt.Sprintf("Report %q moved to %s", report.Title, report.Status), report.ID)
	s.broadcast("report_status_changed", report.ID, report)

	return report, nil
}

// Delete removes a report. Owners may delete their own reports; admins
// may delete any.
func (s *ReportService) Delete(id, requesterID string, requesterRole models.Role) error {
	report, err := s.GetByID(id)
	if err != nil {
		return err
	}

	if requesterRole != models.RoleAdmin && report.OwnerID != requesterID {
		return errs.ErrForbidden
	}

	if _, err := s.db.Exec("DELETE FROM reports WHERE id = ?", id); err != nil {
		return err
	}

	s.recordEvent("report.deleted", "info",
		fmt.Sprintf("Report %q deleted", report.Title), report.ID)
	s.broadcast("report_deleted", report.ID, map[string]string{"id": report.ID})

	return nil
}

// Stats computes per-status report counts in a single aggregation pass.
// Counts are a point-in-time snapshot, not serializable with concurrent
// writes.
func (s *ReportService) Stats() (models.ReportStats, error) {
	rows, err := s.db.Query("SELECT status, COUNT(*) FROM reports GROUP BY status")
	if err != nil {
		return models.ReportStats{}, err
	}
	defer rows.Close()

	var stats models.ReportStats
	for rows.Next() {
		var status models.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return models.ReportStats{}, err
		}
		switch status {
		case models.StatusPending:
			stats.Pending = count
		case models.StatusInProgress:
			stats.InProgress = count
		case models.StatusResolved:
			stats.Resolved = count
		}
		stats.Total += count
	}
	return stats, rows.Err()
}

func (s *ReportService) queryReports(query string, args ...interface{}) ([]models.Report, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (models.Report, error) {
	var r models.Report
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Category, &r.Status, &r.Location,
		&r.ImageURL, &r.OwnerID, &r.OwnerName, &r.OwnerEmail, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// recordEvent appends to the audit trail. Audit failures never fail the
// business operation.
func (s *ReportService) recordEvent(eventType, level, message, reportID string) {
	if s.eventSvc == nil {
		return
	}
	_ = s.eventSvc.CreateEvent(eventType, level, message, &reportID)
}

func (s *ReportService) broadcast(action, reportID string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastReportEvent(action, reportID, payload)
}
