package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"outreach/internal/domain/registration"
	"outreach/internal/domain/survey"
)

// mockSurveyStore implements SurveyStoreForSubmit for testing.
type mockSurveyStore struct {
	byRegistration map[int64]survey.Survey
	createErr      error
}

func (m *mockSurveyStore) GetByRegistration(_ context.Context, registrationID int64) (survey.Survey, error) {
	s, ok := m.byRegistration[registrationID]
	if !ok {
		return survey.Survey{}, fmt.Errorf("survey not found: %w", sql.ErrNoRows)
	}
	return s, nil
}

func (m *mockSurveyStore) Create(_ context.Context, s survey.Survey) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	s.ID = int64(len(m.byRegistration) + 1)
	m.byRegistration[s.RegistrationID] = s
	return s.ID, nil
}

var fixedTimeSurvey = time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)

func surveyDeps(store *mockSurveyStore) SubmitSurveyDeps {
	return SubmitSurveyDeps{
		RegistrationStore: &mockRegistrationStoreForUpdate{rows: map[int64]registration.Registration{
			1: {ID: 1, UserID: 7, OccurrenceID: 3},
		}},
		SurveyStore: store,
		Now:         func() time.Time { return fixedTimeSurvey },
	}
}

// TestExecuteSubmitSurvey_Scoring checks the overall mean and NPS bucket.
func TestExecuteSubmitSurvey_Scoring(t *testing.T) {
	tests := []struct {
		name        string
		scores      SurveyScoresInput
		wantOverall float64
		wantBucket  string
	}{
		{"promoter", SurveyScoresInput{5, 4, 3, 4}, 4.0, survey.BucketPromoter},
		{"passive", SurveyScoresInput{3, 3, 4, 3}, 3.25, survey.BucketPassive},
		{"detractor", SurveyScoresInput{2, 1, 1, 2}, 1.5, survey.BucketDetractor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockSurveyStore{byRegistration: map[int64]survey.Survey{}}
			got, err := ExecuteSubmitSurvey(context.Background(), SubmitSurveyInput{
				RegistrationID: 1,
				Actor:          participant(7),
				Scores:         tt.scores,
				Comments:       "  great session  ",
			}, surveyDeps(store))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.OverallScore != tt.wantOverall {
				t.Errorf("overall = %v, want %v", got.OverallScore, tt.wantOverall)
			}
			if got.NPSBucket != tt.wantBucket {
				t.Errorf("bucket = %q, want %q", got.NPSBucket, tt.wantBucket)
			}
			if got.Comments != "great session" {
				t.Errorf("comments = %q", got.Comments)
			}
			if !got.SubmittedAt.Equal(fixedTimeSurvey) {
				t.Errorf("submitted_at = %v", got.SubmittedAt)
			}
		})
	}
}

// TestExecuteSubmitSurvey_Rejections covers ownership, range and duplicates.
func TestExecuteSubmitSurvey_Rejections(t *testing.T) {
	valid := SurveyScoresInput{4, 4, 4, 4}
	tests := []struct {
		name    string
		input   SubmitSurveyInput
		preload bool
		wantErr error
	}{
		{"unknown registration", SubmitSurveyInput{RegistrationID: 5, Actor: participant(7), Scores: valid}, false, ErrNotFound},
		{"not the owner", SubmitSurveyInput{RegistrationID: 1, Actor: participant(8), Scores: valid}, false, ErrNotFound},
		{"score too high", SubmitSurveyInput{RegistrationID: 1, Actor: participant(7), Scores: SurveyScoresInput{6, 4, 4, 4}}, false, ErrInvalidScores},
		{"score zero", SubmitSurveyInput{RegistrationID: 1, Actor: participant(7), Scores: SurveyScoresInput{4, 4, 4, 0}}, false, ErrInvalidScores},
		{"already submitted", SubmitSurveyInput{RegistrationID: 1, Actor: participant(7), Scores: valid}, true, ErrSurveyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockSurveyStore{byRegistration: map[int64]survey.Survey{}}
			if tt.preload {
				store.byRegistration[1] = survey.Survey{ID: 1, RegistrationID: 1}
			}
			_, err := ExecuteSubmitSurvey(context.Background(), tt.input, surveyDeps(store))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestExecuteSubmitSurvey_AdminForAnyone lets admins submit on behalf of a participant.
func TestExecuteSubmitSurvey_AdminForAnyone(t *testing.T) {
	store := &mockSurveyStore{byRegistration: map[int64]survey.Survey{}}
	_, err := ExecuteSubmitSurvey(context.Background(), SubmitSurveyInput{
		RegistrationID: 1, Actor: admin(1), Scores: SurveyScoresInput{5, 5, 5, 5},
	}, surveyDeps(store))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecuteSubmitSurvey_UniqueViolation maps a racing insert to ErrSurveyExists.
func TestExecuteSubmitSurvey_UniqueViolation(t *testing.T) {
	store := &mockSurveyStore{
		byRegistration: map[int64]survey.Survey{},
		createErr:      errors.New("UNIQUE constraint failed: survey.registration_id"),
	}
	_, err := ExecuteSubmitSurvey(context.Background(), SubmitSurveyInput{
		RegistrationID: 1, Actor: participant(7), Scores: SurveyScoresInput{5, 5, 5, 5},
	}, surveyDeps(store))
	if !errors.Is(err, ErrSurveyExists) {
		t.Fatalf("err = %v, want ErrSurveyExists", err)
	}
}
