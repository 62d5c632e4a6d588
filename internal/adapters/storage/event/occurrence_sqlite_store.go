package event

import (
	"context"
	"database/sql"
	"fmt"

	"outreach/internal/adapters/storage"
	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/event"
)

func scanOccurrence(row storage.Scanner, extra ...any) (domain.Occurrence, error) {
	var o domain.Occurrence
	var startAt string
	var endAt, deadline sql.NullString
	var capacity sql.NullInt64
	dest := []any{&o.ID, &o.TemplateID, &o.Name, &startAt, &endAt, &o.Location, &capacity, &deadline}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Occurrence{}, err
	}
	var err error
	if o.StartAt, err = storage.ParseTime(startAt); err != nil {
		return domain.Occurrence{}, fmt.Errorf("parse start_at: %w", err)
	}
	if o.EndAt, err = storage.ParseNullTime(endAt); err != nil {
		return domain.Occurrence{}, fmt.Errorf("parse end_at: %w", err)
	}
	if o.RegistrationDeadline, err = storage.ParseNullTime(deadline); err != nil {
		return domain.Occurrence{}, fmt.Errorf("parse registration_deadline: %w", err)
	}
	o.Capacity = storage.IntPtr(capacity)
	return o, nil
}

// LoadOccurrence reads one occurrence through q, which may be a transaction.
// PRE: id > 0
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func LoadOccurrence(ctx context.Context, q storage.Querier, id int64) (domain.Occurrence, error) {
	o, err := scanOccurrence(q.QueryRowContext(ctx, "SELECT "+occurrenceColumns+" FROM event_occurrence o WHERE o.id = ?", id))
	if err == sql.ErrNoRows {
		return domain.Occurrence{}, fmt.Errorf("event occurrence %d not found: %w", id, err)
	}
	return o, err
}

// GetOccurrence retrieves an Occurrence by its ID.
func (s *SQLiteStore) GetOccurrence(ctx context.Context, id int64) (domain.Occurrence, error) {
	return LoadOccurrence(ctx, s.db, id)
}

// CreateOccurrence inserts an Occurrence and returns its ID.
// PRE: value has been validated and defaults applied
// POST: Row inserted; an unknown template fails the foreign key
func (s *SQLiteStore) CreateOccurrence(ctx context.Context, o domain.Occurrence) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO event_occurrence (template_id, name, start_at, end_at, location, capacity, registration_deadline)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.TemplateID, o.Name, storage.FormatTime(o.StartAt), storage.NullTime(o.EndAt), o.Location,
		storage.NullInt(o.Capacity), storage.NullTime(o.RegistrationDeadline))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateOccurrence overwrites an Occurrence.
// PRE: value has been validated; value.ID exists
// POST: Row updated; returns an error wrapping sql.ErrNoRows if the ID is unknown
func (s *SQLiteStore) UpdateOccurrence(ctx context.Context, o domain.Occurrence) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE event_occurrence SET template_id = ?, name = ?, start_at = ?, end_at = ?, location = ?,
			capacity = ?, registration_deadline = ?
		 WHERE id = ?`,
		o.TemplateID, o.Name, storage.FormatTime(o.StartAt), storage.NullTime(o.EndAt), o.Location,
		storage.NullInt(o.Capacity), storage.NullTime(o.RegistrationDeadline), o.ID)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "event occurrence", o.ID)
}

// DeleteOccurrence removes an Occurrence; its registrations and surveys cascade.
// PRE: id > 0
// POST: Returns an error wrapping sql.ErrNoRows if nothing was deleted
func (s *SQLiteStore) DeleteOccurrence(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM event_occurrence WHERE id = ?", id)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "event occurrence", id)
}

func occurrenceQuery(filter OccurrenceFilter) listutil.Query {
	q := listutil.Query{
		From:    "event_occurrence o JOIN event_template t ON t.id = o.template_id",
		Search:  listutil.Search{Term: filter.Search, Columns: []string{"o.name", "o.location", "t.name", "t.type"}},
		OrderBy: "o.start_at, o.id",
	}
	now := storage.FormatTime(filter.Now)
	switch filter.When {
	case WhenUpcoming:
		q.Conditions = []string{"o.start_at >= ?"}
		q.Args = []any{now}
	case WhenPast:
		q.Conditions = []string{"o.start_at < ?"}
		q.Args = []any{now}
		q.OrderBy = "o.start_at DESC, o.id DESC"
	}
	return q
}

// CountOccurrences returns the number of occurrences matching the filter.
func (s *SQLiteStore) CountOccurrences(ctx context.Context, filter OccurrenceFilter) (int, error) {
	query, args := occurrenceQuery(filter).Count()
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// ListOccurrences retrieves one page of occurrences with live registration
// counts and, when filter.UserID is set, whether that user is registered.
// PRE: filter.Page comes from listutil.NewPageInfo
// POST: Rows follow the filter's ordering
func (s *SQLiteStore) ListOccurrences(ctx context.Context, filter OccurrenceFilter) ([]OccurrenceRow, error) {
	// the user id is bound first because the select list precedes the WHERE clause
	columns := occurrenceColumns + `, t.name, t.type, t.description,
		(SELECT COUNT(*) FROM registration r WHERE r.event_occurrence_id = o.id AND r.status IS NULL),
		EXISTS (SELECT 1 FROM registration r WHERE r.event_occurrence_id = o.id AND r.user_id = ?)`
	query, args := occurrenceQuery(filter).Page(columns, filter.Page)
	args = append([]any{filter.UserID}, args...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []OccurrenceRow
	for rows.Next() {
		var r OccurrenceRow
		o, err := scanOccurrence(rows, &r.TemplateName, &r.TemplateType, &r.Description, &r.RegistrationCount, &r.UserRegistered)
		if err != nil {
			return nil, err
		}
		r.Occurrence = o
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAllOccurrences retrieves every occurrence, soonest first, for select boxes.
func (s *SQLiteStore) ListAllOccurrences(ctx context.Context) ([]domain.Occurrence, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+occurrenceColumns+" FROM event_occurrence o ORDER BY o.start_at, o.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, o)
	}
	return results, rows.Err()
}
