package orchestrators

import (
	"context"
	"log/slog"
)

// Deleter removes a record by ID.
type Deleter interface {
	Delete(ctx context.Context, id int64) error
}

// ExecuteDeleteRegistration hard-deletes a registration and its survey. Only
// admins reach this; participants cancel instead.
func ExecuteDeleteRegistration(ctx context.Context, id int64, store Deleter) error {
	if err := store.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	slog.Info("registration_event", "event", "deleted", "registration_id", id)
	return nil
}

// ExecuteDeleteSurvey removes a survey so the participant may submit again.
func ExecuteDeleteSurvey(ctx context.Context, id int64, store Deleter) error {
	if err := store.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	slog.Info("survey_event", "event", "deleted", "survey_id", id)
	return nil
}
