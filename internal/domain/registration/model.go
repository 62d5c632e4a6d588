package registration

import (
	"errors"
	"time"
)

// StatusCancelled marks a withdrawn registration. An empty status means active.
const StatusCancelled = "Cancelled"

// Domain errors
var (
	ErrEmptyUser       = errors.New("registration must reference a user")
	ErrEmptyOccurrence = errors.New("registration must reference an event occurrence")
)

// Registration links a user to an event occurrence.
type Registration struct {
	ID           int64
	UserID       int64
	OccurrenceID int64
	Status       string // "" (active) or StatusCancelled
	Attended     bool
	CheckedInAt  *time.Time
	CreatedAt    time.Time
}

// Validate checks if the Registration has valid data.
// PRE: Registration struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Registration) Validate() error {
	if r.UserID == 0 {
		return ErrEmptyUser
	}
	if r.OccurrenceID == 0 {
		return ErrEmptyOccurrence
	}
	return nil
}

// IsActive reports whether the registration has not been cancelled.
func (r *Registration) IsActive() bool {
	return r.Status != StatusCancelled
}

// Cancel soft-deletes the registration; the row is kept for history and survey linkage.
// POST: Status is StatusCancelled
func (r *Registration) Cancel() {
	r.Status = StatusCancelled
}

// MarkAttended records attendance at the given time.
// POST: Attended is true and CheckedInAt is set (first check-in wins)
func (r *Registration) MarkAttended(now time.Time) {
	r.Attended = true
	if r.CheckedInAt == nil {
		t := now
		r.CheckedInAt = &t
	}
}
