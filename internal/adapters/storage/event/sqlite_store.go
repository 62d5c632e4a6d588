package event

import (
	"context"
	"database/sql"
	"fmt"

	"outreach/internal/adapters/storage"
	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/event"
)

const (
	templateColumns   = "id, name, type, description, recurrence_pattern, default_capacity"
	occurrenceColumns = "o.id, o.template_id, o.name, o.start_at, o.end_at, o.location, o.capacity, o.registration_deadline"
)

// SQLiteStore implements TemplateStore and OccurrenceStore using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func scanTemplate(row storage.Scanner) (domain.Template, error) {
	var t domain.Template
	var capacity sql.NullInt64
	if err := row.Scan(&t.ID, &t.Name, &t.Type, &t.Description, &t.RecurrencePattern, &capacity); err != nil {
		return domain.Template{}, err
	}
	t.DefaultCapacity = storage.IntPtr(capacity)
	return t, nil
}

// GetTemplate retrieves a Template by its ID.
// PRE: id > 0
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetTemplate(ctx context.Context, id int64) (domain.Template, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx, "SELECT "+templateColumns+" FROM event_template WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return domain.Template{}, fmt.Errorf("event template %d not found: %w", id, err)
	}
	return t, err
}

// CreateTemplate inserts a Template and returns its ID.
// PRE: value has been validated
// POST: Row inserted
func (s *SQLiteStore) CreateTemplate(ctx context.Context, t domain.Template) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO event_template (name, type, description, recurrence_pattern, default_capacity) VALUES (?, ?, ?, ?, ?)`,
		t.Name, t.Type, t.Description, t.RecurrencePattern, storage.NullInt(t.DefaultCapacity))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateTemplate overwrites a Template.
// PRE: value has been validated; value.ID exists
// POST: Row updated; returns an error wrapping sql.ErrNoRows if the ID is unknown
func (s *SQLiteStore) UpdateTemplate(ctx context.Context, t domain.Template) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE event_template SET name = ?, type = ?, description = ?, recurrence_pattern = ?, default_capacity = ? WHERE id = ?`,
		t.Name, t.Type, t.Description, t.RecurrencePattern, storage.NullInt(t.DefaultCapacity), t.ID)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "event template", t.ID)
}

// DeleteTemplate removes a Template; its occurrences, their registrations and
// those registrations' surveys cascade.
// PRE: id > 0
// POST: No row references the template afterwards
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM event_template WHERE id = ?", id)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "event template", id)
}

func templateQuery(filter ListFilter) listutil.Query {
	return listutil.Query{
		From:    "event_template",
		Search:  listutil.Search{Term: filter.Search, Columns: []string{"name", "type", "description"}},
		OrderBy: "name, id",
	}
}

// CountTemplates returns the number of templates matching the filter.
func (s *SQLiteStore) CountTemplates(ctx context.Context, filter ListFilter) (int, error) {
	query, args := templateQuery(filter).Count()
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// ListTemplates retrieves one page of templates matching the filter.
// PRE: filter.Page comes from listutil.NewPageInfo
// POST: Returns templates ordered by name
func (s *SQLiteStore) ListTemplates(ctx context.Context, filter ListFilter) ([]domain.Template, error) {
	query, args := templateQuery(filter).Page(templateColumns, filter.Page)
	return s.queryTemplates(ctx, query, args...)
}

// ListAllTemplates retrieves every template ordered by name, for select boxes.
func (s *SQLiteStore) ListAllTemplates(ctx context.Context) ([]domain.Template, error) {
	return s.queryTemplates(ctx, "SELECT "+templateColumns+" FROM event_template ORDER BY name, id")
}

func (s *SQLiteStore) queryTemplates(ctx context.Context, query string, args ...any) ([]domain.Template, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}
