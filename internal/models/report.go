package models

import "time"

// Category is the closed set of report categories.
type Category string

const (
	CategoryWaste Category = "waste"
	CategoryWater Category = "water"
	CategoryRoad  Category = "road"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryWaste || c == CategoryWater || c == CategoryRoad
}

// Status is the closed set of report statuses. New reports always start
// as pending; admins may set any status in any order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusResolved
}

// Report represents a single citizen-submitted issue report.
type Report struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Status      Status    `json:"status"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	OwnerID     string    `json:"ownerId"`
	OwnerName   string    `json:"ownerName,omitempty"`
	OwnerEmail  string    `json:"ownerEmail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ReportFilter narrows a report listing. Zero values (and the literal
// "all") mean no filtering on that dimension.
type ReportFilter struct {
	Category string
	Status   string
	Search   string
}

// ReportStats holds per-status report counts for the admin dashboard.
type ReportStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}
