package donation

import (
	"context"
	"fmt"

	"outreach/internal/adapters/storage"
	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/donation"
)

const (
	donationColumns = "d.id, d.user_id, u.first_name || ' ' || u.last_name, u.email, d.amount_cents, d.donated_at"
	donationFrom    = "donation d JOIN user u ON u.id = d.user_id"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create records a donation.
// PRE: value has been validated
// POST: Row inserted; an unknown donor fails the foreign key
func (s *SQLiteStore) Create(ctx context.Context, d domain.Donation) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO donation (user_id, amount_cents, donated_at) VALUES (?, ?, ?)`,
		d.UserID, d.AmountCents, storage.FormatTime(d.DonatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Delete removes a donation.
// PRE: id > 0
// POST: Returns an error wrapping sql.ErrNoRows if nothing was deleted
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM donation WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "donation", id)
}

func listQuery(filter ListFilter) listutil.Query {
	return listutil.Query{
		From:    donationFrom,
		Search:  listutil.Search{Term: filter.Search, Columns: []string{"u.first_name || ' ' || u.last_name", "u.email"}},
		OrderBy: "d.donated_at DESC, d.id DESC",
	}
}

// Count returns the number of donations matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args := listQuery(filter).Count()
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// List retrieves one page of donations, newest first.
// PRE: filter.Page comes from listutil.NewPageInfo
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Donation, error) {
	query, args := listQuery(filter).Page(donationColumns, filter.Page)
	return s.query(ctx, query, args...)
}

// ListAll retrieves every donation, newest first, for export.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Donation, error) {
	return s.query(ctx, "SELECT "+donationColumns+" FROM "+donationFrom+" ORDER BY d.donated_at DESC, d.id DESC")
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Donation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Donation
	for rows.Next() {
		var d domain.Donation
		var donatedAt string
		if err := rows.Scan(&d.ID, &d.UserID, &d.DonorName, &d.DonorEmail, &d.AmountCents, &donatedAt); err != nil {
			return nil, err
		}
		if d.DonatedAt, err = storage.ParseTime(donatedAt); err != nil {
			return nil, fmt.Errorf("parse donated_at: %w", err)
		}
		results = append(results, d)
	}
	return results, rows.Err()
}
