package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"outreach/internal/domain/registration"
)

// RegistrationStoreForUpdate defines the store interface needed to change a single registration.
type RegistrationStoreForUpdate interface {
	GetByID(ctx context.Context, id int64) (registration.Registration, error)
	SetStatus(ctx context.Context, id int64, status string) error
	MarkAttended(ctx context.Context, id int64, at time.Time) error
}

// CancelRegistrationInput carries input for the cancel orchestrator.
type CancelRegistrationInput struct {
	RegistrationID int64
	Actor          Actor
}

// CancelRegistrationDeps holds dependencies for CancelRegistration.
type CancelRegistrationDeps struct {
	RegistrationStore RegistrationStoreForUpdate
}

// ExecuteCancelRegistration marks a registration as cancelled. The row is
// kept, so the user cannot register for the same occurrence again.
// PRE: Actor is authenticated
// POST: Registration status is Cancelled
// INVARIANT: A participant can only cancel their own registration; anything
// else reads as ErrNotFound
func ExecuteCancelRegistration(ctx context.Context, input CancelRegistrationInput, deps CancelRegistrationDeps) error {
	r, err := deps.RegistrationStore.GetByID(ctx, input.RegistrationID)
	if err != nil {
		return notFound(err)
	}
	if !input.Actor.IsAdmin() && r.UserID != input.Actor.UserID {
		return ErrNotFound
	}
	if !r.IsActive() {
		return nil
	}

	r.Cancel()
	if err := deps.RegistrationStore.SetStatus(ctx, r.ID, r.Status); err != nil {
		return notFound(err)
	}
	slog.Info("registration_event", "event", "cancelled",
		"registration_id", r.ID, "user_id", r.UserID, "by", input.Actor.UserID)
	return nil
}

// MarkAttendanceInput carries input for the attendance orchestrator.
type MarkAttendanceInput struct {
	RegistrationID int64
}

// MarkAttendanceDeps holds dependencies for MarkAttendance.
type MarkAttendanceDeps struct {
	RegistrationStore RegistrationStoreForUpdate
	Now               func() time.Time
}

// ExecuteMarkAttendance records that the participant attended.
// PRE: Caller is an admin (enforced by the access policy)
// POST: attended is set; the first check-in time is kept
func ExecuteMarkAttendance(ctx context.Context, input MarkAttendanceInput, deps MarkAttendanceDeps) error {
	r, err := deps.RegistrationStore.GetByID(ctx, input.RegistrationID)
	if err != nil {
		return notFound(err)
	}
	now := nowFrom(deps.Now)
	r.MarkAttended(now)
	if err := deps.RegistrationStore.MarkAttended(ctx, r.ID, *r.CheckedInAt); err != nil {
		return notFound(err)
	}
	slog.Info("registration_event", "event", "attended", "registration_id", r.ID, "user_id", r.UserID)
	return nil
}
