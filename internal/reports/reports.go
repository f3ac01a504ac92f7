// Package reports holds the pure list and form helpers shared by the view
// pages. Everything here operates on already-fetched data; nothing reaches
// the backend.
package reports

import (
	"errors"
	"strconv"
	"strings"

	"wastewatch/web/internal/models"
)

// StatusFilterAll is the sentinel meaning "no status narrowing".
const StatusFilterAll = "all"

// Filter applies the status-equality filter and the free-text search in one
// pass. It never mutates the input slice, and applying the same filters to
// its own output is a no-op.
func Filter(list []models.Report, statusFilter, searchTerm string) []models.Report {
	filtered := make([]models.Report, 0, len(list))

	byStatus := statusFilter != "" && statusFilter != StatusFilterAll
	term := strings.ToLower(strings.TrimSpace(searchTerm))

	for _, report := range list {
		if byStatus && string(report.Status) != statusFilter {
			continue
		}
		if term != "" && !matches(report, term) {
			continue
		}
		filtered = append(filtered, report)
	}
	return filtered
}

// matches checks the search term against the description (case-insensitive)
// and the raw identifier.
func matches(report models.Report, lowerTerm string) bool {
	if strings.Contains(strings.ToLower(report.Description), lowerTerm) {
		return true
	}
	return strings.Contains(report.ID, lowerTerm)
}

// RemoveByUser drops every report owned by userID. Used by the admin page to
// reflect a ban in the rendered list without refetching.
func RemoveByUser(list []models.Report, userID string) []models.Report {
	kept := make([]models.Report, 0, len(list))
	for _, report := range list {
		if report.UserID != userID {
			kept = append(kept, report)
		}
	}
	return kept
}

// Replace swaps the matching report for the backend's returned copy. Local
// copies are replaced wholesale, never merged.
func Replace(list []models.Report, updated models.Report) []models.Report {
	next := make([]models.Report, len(list))
	copy(next, list)
	for i := range next {
		if next[i].ID == updated.ID {
			next[i] = updated
		}
	}
	return next
}

// CountByStatus aggregates a fetched list into dashboard-style totals. This
// is how non-admin users get their landing stats, since the backend stats
// endpoint is admin-only.
func CountByStatus(list []models.Report) models.Stats {
	stats := models.Stats{TotalReports: len(list)}
	for _, report := range list {
		switch report.Status {
		case models.StatusPending:
			stats.PendingReports++
		case models.StatusInProgress:
			stats.InProgressReports++
		case models.StatusResolved:
			stats.ResolvedReports++
		}
	}
	if stats.TotalReports > 0 {
		stats.ResolutionRate = float64(stats.ResolvedReports) / float64(stats.TotalReports) * 100
	}
	return stats
}

const minDescriptionLength = 10

var (
	errShortDescription = errors.New("Description must be at least 10 characters long.")
	errMissingLocation  = errors.New("Location is required. Please provide coordinates or use current location.")
	errInvalidLocation  = errors.New("Invalid latitude or longitude.")
)

// Submission is a validated report form. Validation happens before any
// network call; a rejected form never reaches the gateway.
type Submission struct {
	Description string
	Latitude    float64
	Longitude   float64
}

func ValidateSubmission(description, latitude, longitude string) (Submission, error) {
	description = strings.TrimSpace(description)
	if len(description) < minDescriptionLength {
		return Submission{}, errShortDescription
	}

	latitude = strings.TrimSpace(latitude)
	longitude = strings.TrimSpace(longitude)
	if latitude == "" || longitude == "" {
		return Submission{}, errMissingLocation
	}

	lat, latErr := strconv.ParseFloat(latitude, 64)
	lng, lngErr := strconv.ParseFloat(longitude, 64)
	if latErr != nil || lngErr != nil {
		return Submission{}, errInvalidLocation
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Submission{}, errInvalidLocation
	}

	return Submission{Description: description, Latitude: lat, Longitude: lng}, nil
}

const (
	minPasswordLength = 6
	minNameLength     = 2
)

var (
	errMissingCredentials = errors.New("Email and password are required.")
	errShortPassword      = errors.New("Password must be at least 6 characters long.")
	errPasswordMismatch   = errors.New("Passwords do not match.")
	errShortName          = errors.New("Name must be at least 2 characters long.")
)

func ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errMissingCredentials
	}
	return nil
}

func ValidateRegistration(name, email, password, confirm string) error {
	if len(strings.TrimSpace(name)) < minNameLength {
		return errShortName
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return errMissingCredentials
	}
	if len(password) < minPasswordLength {
		return errShortPassword
	}
	if password != confirm {
		return errPasswordMismatch
	}
	return nil
}
