package milestone

import (
	"errors"
	"strings"
	"time"
)

// MaxTitleLength bounds milestone titles.
const MaxTitleLength = 120

// Domain errors
var (
	ErrEmptyTitle       = errors.New("milestone title cannot be empty")
	ErrTitleTooLong     = errors.New("milestone title must be 120 characters or fewer")
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
	ErrEmptyMilestoneID = errors.New("milestone ID cannot be empty")
)

// Milestone is an admin-defined achievement a participant can be awarded
// (e.g., "Completed first workshop").
type Milestone struct {
	ID    int64
	Title string
}

// Validate checks if the Milestone has valid data.
// PRE: Milestone struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Milestone) Validate() error {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return ErrEmptyTitle
	}
	if len(m.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// UserMilestone records that a user achieved a milestone.
type UserMilestone struct {
	UserID      int64
	MilestoneID int64
	Title       string // denormalised for display
	AchievedAt  time.Time
}

// Validate checks if the UserMilestone has valid data.
// PRE: UserMilestone struct is populated
// POST: Returns nil if valid, error otherwise
func (m *UserMilestone) Validate() error {
	if m.UserID == 0 {
		return ErrEmptyUserID
	}
	if m.MilestoneID == 0 {
		return ErrEmptyMilestoneID
	}
	return nil
}
