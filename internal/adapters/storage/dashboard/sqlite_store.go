package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"outreach/internal/adapters/storage"
	eventstore "outreach/internal/adapters/storage/event"
	eventdomain "outreach/internal/domain/event"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func unavailable(what string, err error) error {
	return fmt.Errorf("%s: %w: %w", what, storage.ErrStoreUnavailable, err)
}

func (s *SQLiteStore) scalar(ctx context.Context, what string, dest any, query string, args ...any) error {
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(dest); err != nil {
		return unavailable(what, err)
	}
	return nil
}

// TotalDonations sums every donation in cents.
func (s *SQLiteStore) TotalDonations(ctx context.Context) (int64, error) {
	var total int64
	err := s.scalar(ctx, "total donations", &total, `SELECT COALESCE(SUM(amount_cents), 0) FROM donation`)
	return total, err
}

// DonationsBetween sums donations with from <= donated_at < to, in cents.
// PRE: from <= to
func (s *SQLiteStore) DonationsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := s.scalar(ctx, "donations between", &total,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM donation WHERE donated_at >= ? AND donated_at < ?`,
		storage.FormatTime(from), storage.FormatTime(to))
	return total, err
}

// CountUsers counts registered users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.scalar(ctx, "count users", &n, `SELECT COUNT(*) FROM user`)
	return n, err
}

// CountUpcomingOccurrences counts occurrences starting at or after now.
func (s *SQLiteStore) CountUpcomingOccurrences(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := s.scalar(ctx, "count upcoming occurrences", &n,
		`SELECT COUNT(*) FROM event_occurrence WHERE start_at >= ?`, storage.FormatTime(now))
	return n, err
}

// NextOccurrence returns the soonest occurrence starting at or after now, or nil.
func (s *SQLiteStore) NextOccurrence(ctx context.Context, now time.Time) (*eventdomain.Occurrence, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM event_occurrence WHERE start_at >= ? ORDER BY start_at, id LIMIT 1`,
		storage.FormatTime(now)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("next occurrence", err)
	}
	o, err := eventstore.LoadOccurrence(ctx, s.db, id)
	if err != nil {
		return nil, unavailable("next occurrence", err)
	}
	return &o, nil
}

// ListUpcomingRegistrations lists a user's active registrations whose
// occurrence starts at or after now, soonest first.
func (s *SQLiteStore) ListUpcomingRegistrations(ctx context.Context, userID int64, now time.Time) ([]UpcomingRegistration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, o.id, o.name, o.start_at, o.location
		 FROM registration r JOIN event_occurrence o ON o.id = r.event_occurrence_id
		 WHERE r.user_id = ? AND r.status IS NULL AND o.start_at >= ?
		 ORDER BY o.start_at, r.id`, userID, storage.FormatTime(now))
	if err != nil {
		return nil, unavailable("upcoming registrations", err)
	}
	defer rows.Close()

	var results []UpcomingRegistration
	for rows.Next() {
		var u UpcomingRegistration
		var startAt string
		if err := rows.Scan(&u.RegistrationID, &u.OccurrenceID, &u.OccurrenceName, &startAt, &u.Location); err != nil {
			return nil, unavailable("upcoming registrations", err)
		}
		if u.StartAt, err = storage.ParseTime(startAt); err != nil {
			return nil, unavailable("upcoming registrations", err)
		}
		results = append(results, u)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("upcoming registrations", err)
	}
	return results, nil
}

// CountUserMilestones counts milestones awarded to a user.
func (s *SQLiteStore) CountUserMilestones(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.scalar(ctx, "count user milestones", &n, `SELECT COUNT(*) FROM user_milestone WHERE user_id = ?`, userID)
	return n, err
}

// CountPendingSurveys counts a user's active registrations whose occurrence
// has ended (end_at, or start_at when there is no end) before now and that
// have no survey yet.
func (s *SQLiteStore) CountPendingSurveys(ctx context.Context, userID int64, now time.Time) (int, error) {
	var n int
	err := s.scalar(ctx, "count pending surveys", &n,
		`SELECT COUNT(*)
		 FROM registration r
		 JOIN event_occurrence o ON o.id = r.event_occurrence_id
		 LEFT JOIN survey s ON s.registration_id = r.id
		 WHERE r.user_id = ? AND r.status IS NULL
		   AND COALESCE(o.end_at, o.start_at) < ?
		   AND s.id IS NULL`,
		userID, storage.FormatTime(now))
	return n, err
}
