package models

import (
	"time"
)

// IssueStatus enum
type IssueStatus string

const (
	Reported   IssueStatus = "reported"
	InProgress IssueStatus = "in_progress"
	Resolved   IssueStatus = "resolved"
)

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	switch s {
	case Reported, InProgress, Resolved:
		return true
	}
	return false
}

// Pending is true for statuses that still need work.
func (s IssueStatus) Pending() bool {
	return s == Reported || s == InProgress
}

// CanTransition reports whether the reopen-aware status machine allows moving
// from s to next. Setting the current status again is always allowed.
func (s IssueStatus) CanTransition(next IssueStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case Reported:
		return next == InProgress
	case InProgress:
		return next == Resolved
	case Resolved:
		return next == InProgress
	}
	return false
}

// Issue represents a city service problem reported by a citizen
type Issue struct {
	ID           string      `bson:"_id,omitempty" json:"id"`
	Category     string      `bson:"category" json:"category"`
	Ward         string      `bson:"ward" json:"ward"`
	Description  string      `bson:"description" json:"description"`
	LocationText *string     `bson:"locationText,omitempty" json:"locationText,omitempty"`
	Status       IssueStatus `bson:"status" json:"status"`
	ReporterID   string      `bson:"reporterId,omitempty" json:"reporterId,omitempty"`
	CreatedAt    time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// Location returns the free-text location, or "" when none was given.
func (i Issue) Location() string {
	if i.LocationText == nil {
		return ""
	}
	return *i.LocationText
}

// Submission is the citizen-provided part of a new issue.
type Submission struct {
	Category     string `json:"category" binding:"required" validate:"required"`
	Description  string `json:"description" binding:"required,max=1000" validate:"required,max=1000"`
	Ward         string `json:"ward" binding:"required" validate:"required"`
	LocationText string `json:"location" binding:"max=200" validate:"max=200"`
}

// NewIssue is the record written to the store on submission.
type NewIssue struct {
	Category     string      `bson:"category"`
	Description  string      `bson:"description"`
	Ward         string      `bson:"ward"`
	LocationText *string     `bson:"locationText,omitempty"`
	Status       IssueStatus `bson:"status"`
	ReporterID   string      `bson:"reporterId"`
	CreatedAt    time.Time   `bson:"createdAt"`
	UpdatedAt    time.Time   `bson:"updatedAt"`
}

// NewIssueFromSubmission builds the store record for an accepted submission.
func NewIssueFromSubmission(s Submission, reporterID string, now time.Time) NewIssue {
	issue := NewIssue{
		Category:    s.Category,
		Description: s.Description,
		Ward:        s.Ward,
		Status:      Reported,
		ReporterID:  reporterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s.LocationText != "" {
		loc := s.LocationText
		issue.LocationText = &loc
	}
	return issue
}
