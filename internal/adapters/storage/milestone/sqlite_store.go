package milestone

import (
	"context"
	"database/sql"
	"fmt"

	"outreach/internal/adapters/storage"
	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/milestone"
)

// SQLiteStore implements Store and UserMilestoneStore using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Milestone by its ID.
// PRE: id > 0
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (domain.Milestone, error) {
	var m domain.Milestone
	err := s.db.QueryRowContext(ctx, `SELECT id, title FROM milestone WHERE id = ?`, id).Scan(&m.ID, &m.Title)
	if err == sql.ErrNoRows {
		return domain.Milestone{}, fmt.Errorf("milestone %d not found: %w", id, err)
	}
	return m, err
}

// Create inserts a Milestone and returns its ID.
// PRE: entity has been validated
// POST: Row inserted
func (s *SQLiteStore) Create(ctx context.Context, m domain.Milestone) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO milestone (title) VALUES (?)`, m.Title)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Delete removes a Milestone; awards of it cascade.
// PRE: id > 0
// POST: Returns an error wrapping sql.ErrNoRows if nothing was deleted
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM milestone WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "milestone", id)
}

func listQuery(filter ListFilter) listutil.Query {
	return listutil.Query{
		From:    "milestone",
		Search:  listutil.Search{Term: filter.Search, Columns: []string{"title"}},
		OrderBy: "title, id",
	}
}

// Count returns the number of milestones matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args := listQuery(filter).Count()
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// List retrieves one page of milestones ordered by title.
// PRE: filter.Page comes from listutil.NewPageInfo
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Milestone, error) {
	query, args := listQuery(filter).Page("id, title", filter.Page)
	return s.query(ctx, query, args...)
}

// ListAll retrieves every milestone ordered by title.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Milestone, error) {
	return s.query(ctx, `SELECT id, title FROM milestone ORDER BY title, id`)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Milestone, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []domain.Milestone
	for rows.Next() {
		var m domain.Milestone
		if err := rows.Scan(&m.ID, &m.Title); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

// Award records that a user achieved a milestone.
// PRE: entity has been validated
// POST: Entity is persisted; awarding the same milestone twice keeps the first date
func (s *SQLiteStore) Award(ctx context.Context, um domain.UserMilestone) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_milestone (user_id, milestone_id, achieved_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, milestone_id) DO NOTHING`,
		um.UserID, um.MilestoneID, storage.FormatTime(um.AchievedAt))
	return err
}

// Revoke removes an award.
// POST: Returns an error wrapping sql.ErrNoRows if the user did not hold it
func (s *SQLiteStore) Revoke(ctx context.Context, userID, milestoneID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_milestone WHERE user_id = ? AND milestone_id = ?`, userID, milestoneID)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "user milestone", milestoneID)
}

// ListByUser retrieves a user's milestones, most recent first.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID int64) ([]domain.UserMilestone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT um.user_id, um.milestone_id, m.title, um.achieved_at
		 FROM user_milestone um JOIN milestone m ON m.id = um.milestone_id
		 WHERE um.user_id = ? ORDER BY um.achieved_at DESC, m.title`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.UserMilestone
	for rows.Next() {
		var um domain.UserMilestone
		var achievedAt string
		if err := rows.Scan(&um.UserID, &um.MilestoneID, &um.Title, &achievedAt); err != nil {
			return nil, err
		}
		if um.AchievedAt, err = storage.ParseTime(achievedAt); err != nil {
			return nil, fmt.Errorf("parse achieved_at: %w", err)
		}
		results = append(results, um)
	}
	return results, rows.Err()
}
