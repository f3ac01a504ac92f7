package models

import "time"

type ReportStatus string

const (
	StatusPending    ReportStatus = "Pending"
	StatusInProgress ReportStatus = "In Progress"
	StatusResolved   ReportStatus = "Resolved"
)

// Statuses lists the closed status enumeration in display order.
func Statuses() []ReportStatus {
	return []ReportStatus{StatusPending, StatusInProgress, StatusResolved}
}

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// GeoPoint is the backend's GeoJSON point: coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }
func (p GeoPoint) Latitude() float64  { return p.Coordinates[1] }

type Report struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	UserName     string       `json:"user_name"`
	UserBanned   bool         `json:"user_banned"`
	Description  string       `json:"description"`
	Status       ReportStatus `json:"status"`
	Location     GeoPoint     `json:"location"`
	ImageURL     string       `json:"image_url,omitempty"`
	AdminRemarks string       `json:"admin_remarks,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Stats struct {
	TotalReports      int     `json:"total_reports"`
	PendingReports    int     `json:"pending_reports"`
	InProgressReports int     `json:"in_progress_reports"`
	ResolvedReports   int     `json:"resolved_reports"`
	ResolutionRate    float64 `json:"resolution_rate"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// SessionRecord is the per-browser state the frontend persists: the token
// pair issued by the backend, the cached user, and when the access token was
// last confirmed against the backend.
type SessionRecord struct {
	ID          string    `json:"id"`
	User        User      `json:"user"`
	Tokens      TokenPair `json:"tokens"`
	ValidatedAt time.Time `json:"validated_at"`
	CreatedAt   time.Time `json:"created_at"`
}
