package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outreach/internal/adapters/storage"
	"outreach/internal/domain/registration"
	"outreach/internal/domain/survey"
)

// RegistrationStoreForSurvey defines the registration lookup needed by SubmitSurvey.
type RegistrationStoreForSurvey interface {
	GetByID(ctx context.Context, id int64) (registration.Registration, error)
}

// SurveyStoreForSubmit defines the survey store interface needed by SubmitSurvey.
type SurveyStoreForSubmit interface {
	GetByRegistration(ctx context.Context, registrationID int64) (survey.Survey, error)
	Create(ctx context.Context, s survey.Survey) (int64, error)
}

// SurveyScoresInput holds the four sub-scores as submitted by the form.
type SurveyScoresInput struct {
	Satisfaction   int
	Usefulness     int
	Instructor     int
	Recommendation int
}

// SubmitSurveyInput carries input for the survey orchestrator.
type SubmitSurveyInput struct {
	RegistrationID int64
	Actor          Actor
	Scores         SurveyScoresInput
	Comments       string `validate:"max=2000" label:"comments"`
}

// SubmitSurveyDeps holds dependencies for SubmitSurvey.
type SubmitSurveyDeps struct {
	RegistrationStore RegistrationStoreForSurvey
	SurveyStore       SurveyStoreForSubmit
	Now               func() time.Time
}

// ExecuteSubmitSurvey scores and stores the survey for a registration.
// PRE: Actor is authenticated
// POST: One survey exists for the registration with overall score and NPS bucket derived
// INVARIANT: At most one survey per registration
func ExecuteSubmitSurvey(ctx context.Context, input SubmitSurveyInput, deps SubmitSurveyDeps) (survey.Survey, error) {
	reg, err := deps.RegistrationStore.GetByID(ctx, input.RegistrationID)
	if err != nil {
		return survey.Survey{}, notFound(err)
	}
	if !input.Actor.IsAdmin() && reg.UserID != input.Actor.UserID {
		return survey.Survey{}, ErrNotFound
	}

	scores := survey.Scores{
		Satisfaction:   input.Scores.Satisfaction,
		Usefulness:     input.Scores.Usefulness,
		Instructor:     input.Scores.Instructor,
		Recommendation: input.Scores.Recommendation,
	}
	if err := scores.Validate(); err != nil {
		return survey.Survey{}, err
	}
	input.Comments = strings.TrimSpace(input.Comments)
	if err := validateInput(input); err != nil {
		return survey.Survey{}, err
	}

	if _, err := deps.SurveyStore.GetByRegistration(ctx, reg.ID); err == nil {
		return survey.Survey{}, ErrSurveyExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return survey.Survey{}, err
	}

	s := survey.New(reg.ID, scores, input.Comments, nowFrom(deps.Now))
	id, err := deps.SurveyStore.Create(ctx, s)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return survey.Survey{}, ErrSurveyExists
		}
		return survey.Survey{}, fmt.Errorf("create survey: %w", err)
	}
	s.ID = id

	slog.Info("survey_event", "event", "submitted",
		"survey_id", s.ID, "registration_id", reg.ID, "overall", s.OverallScore, "bucket", s.NPSBucket)
	return s, nil
}
