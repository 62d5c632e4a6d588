package registration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"outreach/internal/adapters/storage"
	eventstore "outreach/internal/adapters/storage/event"
	"outreach/internal/application/listutil"
	eventdomain "outreach/internal/domain/event"
	domain "outreach/internal/domain/registration"
)

const rowColumns = `r.id, r.user_id, r.event_occurrence_id, r.status, r.attended, r.checked_in_at, r.created_at,
	u.first_name || ' ' || u.last_name, u.email, o.name, o.start_at, o.end_at, o.location,
	EXISTS (SELECT 1 FROM survey s WHERE s.registration_id = r.id)`

const rowFrom = `registration r
	JOIN user u ON u.id = r.user_id
	JOIN event_occurrence o ON o.id = r.event_occurrence_id`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func scanRegistration(row storage.Scanner, extra ...any) (domain.Registration, error) {
	var r domain.Registration
	var status, checkedIn sql.NullString
	var createdAt string
	dest := []any{&r.ID, &r.UserID, &r.OccurrenceID, &status, &r.Attended, &checkedIn, &createdAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Registration{}, err
	}
	r.Status = status.String
	var err error
	if r.CheckedInAt, err = storage.ParseNullTime(checkedIn); err != nil {
		return domain.Registration{}, fmt.Errorf("parse checked_in_at: %w", err)
	}
	if r.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Registration{}, fmt.Errorf("parse created_at: %w", err)
	}
	return r, nil
}

// GetByID retrieves a Registration by its ID.
// PRE: id > 0
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (domain.Registration, error) {
	r, err := scanRegistration(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, event_occurrence_id, status, attended, checked_in_at, created_at FROM registration WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return domain.Registration{}, fmt.Errorf("registration %d not found: %w", id, err)
	}
	return r, err
}

// WithinTx runs fn in one transaction. The connection DSN sets
// _txlock=immediate, so the database write lock is held from BEGIN and
// concurrent callers are serialised.
// PRE: fn uses only the Tx it is given
// POST: Commits when fn returns nil, rolls back otherwise
func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return storage.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(sqlTx{tx: tx})
	})
}

// sqlTx implements Tx on an open transaction.
type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) GetOccurrence(ctx context.Context, id int64) (eventdomain.Occurrence, error) {
	return eventstore.LoadOccurrence(ctx, t.tx, id)
}

// Exists reports whether any registration, cancelled or not, links the pair.
func (t sqlTx) Exists(ctx context.Context, userID, occurrenceID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registration WHERE user_id = ? AND event_occurrence_id = ?)`,
		userID, occurrenceID).Scan(&exists)
	return exists, err
}

// CountActive counts non-cancelled registrations for an occurrence.
func (t sqlTx) CountActive(ctx context.Context, occurrenceID int64) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registration WHERE event_occurrence_id = ? AND status IS NULL`, occurrenceID).Scan(&n)
	return n, err
}

// Insert adds a registration. A duplicate pair fails with a unique violation.
func (t sqlTx) Insert(ctx context.Context, r domain.Registration) (int64, error) {
	var status any
	if r.Status != "" {
		status = r.Status
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO registration (user_id, event_occurrence_id, status, attended, checked_in_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.OccurrenceID, status, r.Attended, storage.NullTime(r.CheckedInAt), storage.FormatTime(r.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SetStatus updates the status; an empty status reactivates the registration.
// PRE: id > 0
// POST: Returns an error wrapping sql.ErrNoRows if the ID is unknown
func (s *SQLiteStore) SetStatus(ctx context.Context, id int64, status string) error {
	var v any
	if status != "" {
		v = status
	}
	res, err := s.db.ExecContext(ctx, `UPDATE registration SET status = ? WHERE id = ?`, v, id)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "registration", id)
}

// MarkAttended flags attendance, keeping the first check-in time.
// PRE: id > 0
// POST: attended = 1 and checked_in_at is set
func (s *SQLiteStore) MarkAttended(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE registration SET attended = 1, checked_in_at = COALESCE(checked_in_at, ?) WHERE id = ?`,
		storage.FormatTime(at), id)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "registration", id)
}

// Delete removes a registration and its survey.
// PRE: id > 0
// POST: Returns an error wrapping sql.ErrNoRows if nothing was deleted
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM registration WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "registration", id)
}

func listQuery(filter ListFilter) listutil.Query {
	return listutil.Query{
		From: rowFrom,
		Search: listutil.Search{Term: filter.Search, Columns: []string{
			"u.first_name || ' ' || u.last_name", "u.email", "o.name", "COALESCE(r.status, 'Registered')",
		}},
		OrderBy: "o.start_at DESC, r.id DESC",
	}
}

// Count returns the number of registrations matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args := listQuery(filter).Count()
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// List retrieves one page of registrations matching the filter.
// PRE: filter.Page comes from listutil.NewPageInfo
// POST: Rows are ordered by occurrence start, newest first
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]Row, error) {
	query, args := listQuery(filter).Page(rowColumns, filter.Page)
	return s.queryRows(ctx, query, args...)
}

// ListByUser retrieves every registration held by a user, soonest occurrence first.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID int64) ([]Row, error) {
	return s.queryRows(ctx, "SELECT "+rowColumns+" FROM "+rowFrom+" WHERE r.user_id = ? ORDER BY o.start_at, r.id", userID)
}

func (s *SQLiteStore) queryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Row
	for rows.Next() {
		var row Row
		var startAt string
		var endAt sql.NullString
		reg, err := scanRegistration(rows, &row.UserName, &row.UserEmail, &row.OccurrenceName, &startAt, &endAt, &row.Location, &row.HasSurvey)
		if err != nil {
			return nil, err
		}
		row.Registration = reg
		if row.StartAt, err = storage.ParseTime(startAt); err != nil {
			return nil, fmt.Errorf("parse start_at: %w", err)
		}
		if row.EndAt, err = storage.ParseNullTime(endAt); err != nil {
			return nil, fmt.Errorf("parse end_at: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
