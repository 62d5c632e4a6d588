package orchestrators

import (
	"database/sql"
	"errors"
	"time"

	"outreach/internal/domain/access"
	"outreach/internal/domain/survey"
)

// Expected failures of the orchestrators. The HTTP layer maps each to a
// user-facing message; none of them is a server fault.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyStarted    = errors.New("event has already started")
	ErrDeadlinePassed    = errors.New("registration deadline has passed")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrCapacityReached   = errors.New("event is at full capacity")
	ErrSurveyExists      = errors.New("survey already submitted for this registration")
	ErrInvalidScores     = survey.ErrScoreOutOfRange
)

// Actor is the caller on whose behalf an orchestrator runs.
type Actor = access.Identity

// notFound maps a store miss to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// nowFrom returns now() when set, otherwise the wall clock.
func nowFrom(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
