package survey

import (
	"context"
	"database/sql"
	"fmt"

	"outreach/internal/adapters/storage"
	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/survey"
)

const surveyColumns = "s.id, s.registration_id, s.satisfaction, s.usefulness, s.instructor, s.recommendation, s.overall_score, s.nps_bucket, s.comments, s.submitted_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func scanSurvey(row storage.Scanner, extra ...any) (domain.Survey, error) {
	var s domain.Survey
	var submittedAt string
	dest := []any{&s.ID, &s.RegistrationID, &s.Satisfaction, &s.Usefulness, &s.Instructor, &s.Recommendation,
		&s.OverallScore, &s.NPSBucket, &s.Comments, &submittedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Survey{}, err
	}
	var err error
	if s.SubmittedAt, err = storage.ParseTime(submittedAt); err != nil {
		return domain.Survey{}, fmt.Errorf("parse submitted_at: %w", err)
	}
	return s, nil
}

// GetByRegistration retrieves the survey for a registration.
// PRE: registrationID > 0
// POST: Returns the entity or an error wrapping sql.ErrNoRows if none exists
func (s *SQLiteStore) GetByRegistration(ctx context.Context, registrationID int64) (domain.Survey, error) {
	sv, err := scanSurvey(s.db.QueryRowContext(ctx, "SELECT "+surveyColumns+" FROM survey s WHERE s.registration_id = ?", registrationID))
	if err == sql.ErrNoRows {
		return domain.Survey{}, fmt.Errorf("survey for registration %d not found: %w", registrationID, err)
	}
	return sv, err
}

// Create inserts a survey.
// PRE: value is scored (domain.New)
// POST: Row inserted; a second survey for the registration fails with a unique violation
func (s *SQLiteStore) Create(ctx context.Context, sv domain.Survey) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO survey (registration_id, satisfaction, usefulness, instructor, recommendation, overall_score, nps_bucket, comments, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sv.RegistrationID, sv.Satisfaction, sv.Usefulness, sv.Instructor, sv.Recommendation,
		sv.OverallScore, sv.NPSBucket, sv.Comments, storage.FormatTime(sv.SubmittedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Delete removes a survey.
// PRE: id > 0
// POST: Returns an error wrapping sql.ErrNoRows if nothing was deleted
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM survey WHERE id = ?", id)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "survey", id)
}

func listQuery(filter ListFilter) listutil.Query {
	return listutil.Query{
		From: `survey s
			JOIN registration r ON r.id = s.registration_id
			JOIN user u ON u.id = r.user_id
			JOIN event_occurrence o ON o.id = r.event_occurrence_id`,
		Search: listutil.Search{Term: filter.Search, Columns: []string{
			"u.first_name || ' ' || u.last_name", "o.name", "s.nps_bucket", "s.comments",
		}},
		OrderBy: "s.submitted_at DESC, s.id DESC",
	}
}

// Count returns the number of surveys matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args := listQuery(filter).Count()
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// List retrieves one page of surveys matching the filter, newest first.
// PRE: filter.Page comes from listutil.NewPageInfo
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]Row, error) {
	query, args := listQuery(filter).Page(surveyColumns+", u.first_name || ' ' || u.last_name, o.name", filter.Page)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Row
	for rows.Next() {
		var r Row
		sv, err := scanSurvey(rows, &r.UserName, &r.OccurrenceName)
		if err != nil {
			return nil, err
		}
		r.Survey = sv
		results = append(results, r)
	}
	return results, rows.Err()
}

// Summary aggregates all surveys; averages are zero when there are none.
func (s *SQLiteStore) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(AVG(satisfaction), 0), COALESCE(AVG(usefulness), 0), COALESCE(AVG(instructor), 0),
			COALESCE(AVG(recommendation), 0), COALESCE(AVG(overall_score), 0),
			COALESCE(SUM(nps_bucket = ?), 0), COALESCE(SUM(nps_bucket = ?), 0), COALESCE(SUM(nps_bucket = ?), 0)
		FROM survey`,
		domain.BucketPromoter, domain.BucketPassive, domain.BucketDetractor,
	).Scan(&sum.Responses, &sum.AvgSatisfaction, &sum.AvgUsefulness, &sum.AvgInstructor,
		&sum.AvgRecommendation, &sum.AvgOverall, &sum.Promoters, &sum.Passives, &sum.Detractors)
	return sum, err
}
