package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"outreach/internal/adapters/storage"
	registrationstore "outreach/internal/adapters/storage/registration"
	"outreach/internal/domain/registration"
)

// RegistrationTxStore defines the store interface needed by RegisterForEvent.
type RegistrationTxStore interface {
	WithinTx(ctx context.Context, fn func(tx registrationstore.Tx) error) error
}

// RegisterForEventInput carries input for the registration orchestrator.
type RegisterForEventInput struct {
	UserID       int64
	OccurrenceID int64
}

// RegisterForEventDeps holds dependencies for RegisterForEvent.
type RegisterForEventDeps struct {
	RegistrationStore RegistrationTxStore
	Now               func() time.Time // injectable for testing
}

// ExecuteRegisterForEvent registers a user for an event occurrence.
// Checks run in order and the first failure aborts: the occurrence must
// exist, must not have started, its deadline must not have passed, the user
// must hold no registration for it (cancelled ones included) and it must not
// be at capacity.
// PRE: UserID refers to an authenticated user
// POST: Exactly one new active registration on success, nothing written on failure
// INVARIANT: Active registrations for an occurrence never exceed its capacity
func ExecuteRegisterForEvent(ctx context.Context, input RegisterForEventInput, deps RegisterForEventDeps) (registration.Registration, error) {
	now := nowFrom(deps.Now)
	var created registration.Registration

	err := deps.RegistrationStore.WithinTx(ctx, func(tx registrationstore.Tx) error {
		occ, err := tx.GetOccurrence(ctx, input.OccurrenceID)
		if err != nil {
			return notFound(err)
		}
		if occ.HasStarted(now) {
			return ErrAlreadyStarted
		}
		if occ.DeadlinePassed(now) {
			return ErrDeadlinePassed
		}
		exists, err := tx.Exists(ctx, input.UserID, input.OccurrenceID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRegistered
		}
		if occ.Capacity != nil {
			active, err := tx.CountActive(ctx, input.OccurrenceID)
			if err != nil {
				return err
			}
			if occ.IsFull(active) {
				return ErrCapacityReached
			}
		}

		r := registration.Registration{UserID: input.UserID, OccurrenceID: input.OccurrenceID, CreatedAt: now}
		if err := r.Validate(); err != nil {
			return err
		}
		id, err := tx.Insert(ctx, r)
		if err != nil {
			if storage.IsUniqueViolation(err) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		r.ID = id
		created = r
		return nil
	})
	if err != nil {
		if isExpected(err) {
			slog.Info("registration_event", "event", "register_rejected",
				"user_id", input.UserID, "occurrence_id", input.OccurrenceID, "reason", err.Error())
		}
		return registration.Registration{}, err
	}

	slog.Info("registration_event", "event", "registered",
		"registration_id", created.ID, "user_id", input.UserID, "occurrence_id", input.OccurrenceID)
	return created, nil
}

// isExpected reports whether err is one of the orchestrators' expected failures.
func isExpected(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrAlreadyStarted, ErrDeadlinePassed, ErrAlreadyRegistered,
		ErrCapacityReached, ErrSurveyExists, ErrInvalidScores,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}
