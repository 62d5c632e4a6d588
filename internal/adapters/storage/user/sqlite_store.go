package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"outreach/internal/adapters/storage"
	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/user"
)

const userColumns = "id, email, first_name, last_name, date_of_birth, role, phone, city, state, zip, school, employer, field_of_interest, password_hash, created_at, failed_logins, locked_until"

// searchColumns are matched by the admin user list search box.
var searchColumns = []string{"first_name", "last_name", "email", "first_name || ' ' || last_name"}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func scanUser(row storage.Scanner) (domain.User, error) {
	var u domain.User
	var dob, lockedUntil sql.NullString
	var createdAt string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&dob,
		&u.Role,
		&u.Phone,
		&u.City,
		&u.State,
		&u.Zip,
		&u.School,
		&u.Employer,
		&u.FieldOfInterest,
		&u.PasswordHash,
		&createdAt,
		&u.FailedLogins,
		&lockedUntil,
	)
	if err != nil {
		return domain.User{}, err
	}
	if u.DateOfBirth, err = storage.ParseNullTime(dob); err != nil {
		return domain.User{}, fmt.Errorf("parse date_of_birth: %w", err)
	}
	if u.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	if lu, err := storage.ParseNullTime(lockedUntil); err != nil {
		return domain.User{}, fmt.Errorf("parse locked_until: %w", err)
	} else if lu != nil {
		u.LockedUntil = *lu
	}
	return u, nil
}

// GetByID retrieves a User by its ID.
// PRE: id > 0
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM user WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return domain.User{}, fmt.Errorf("user %d not found: %w", id, err)
	}
	return u, err
}

// GetByEmail retrieves a User by email (case-insensitive).
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM user WHERE email = ?", domain.NormalizeEmail(email)))
	if err == sql.ErrNoRows {
		return domain.User{}, fmt.Errorf("user not found: %w", err)
	}
	return u, err
}

// Create inserts a new User and returns its ID.
// PRE: value has been validated; value.ID is ignored
// POST: Row inserted; a duplicate email fails with a unique violation
func (s *SQLiteStore) Create(ctx context.Context, u domain.User) (int64, error) {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user (email, first_name, last_name, date_of_birth, role, phone, city, state, zip,
			school, employer, field_of_interest, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		domain.NormalizeEmail(u.Email), u.FirstName, u.LastName, storage.NullTime(u.DateOfBirth), u.Role,
		u.Phone, u.City, u.State, u.Zip, u.School, u.Employer, u.FieldOfInterest, u.PasswordHash,
		storage.FormatTime(createdAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update overwrites the profile fields, role and password hash of an existing User.
// PRE: value has been validated; value.ID exists
// POST: Row updated; returns an error wrapping sql.ErrNoRows if the ID is unknown
func (s *SQLiteStore) Update(ctx context.Context, u domain.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user SET email = ?, first_name = ?, last_name = ?, date_of_birth = ?, role = ?, phone = ?,
			city = ?, state = ?, zip = ?, school = ?, employer = ?, field_of_interest = ?, password_hash = ?
		 WHERE id = ?`,
		domain.NormalizeEmail(u.Email), u.FirstName, u.LastName, storage.NullTime(u.DateOfBirth), u.Role,
		u.Phone, u.City, u.State, u.Zip, u.School, u.Employer, u.FieldOfInterest, u.PasswordHash, u.ID)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "user", u.ID)
}

// UpdateLoginState records failed login attempts and lockout.
// PRE: id > 0
// POST: failed_logins and locked_until updated
func (s *SQLiteStore) UpdateLoginState(ctx context.Context, id int64, failedLogins int, lockedUntil time.Time) error {
	var lu any
	if !lockedUntil.IsZero() {
		lu = storage.FormatTime(lockedUntil)
	}
	_, err := s.db.ExecContext(ctx, `UPDATE user SET failed_logins = ?, locked_until = ? WHERE id = ?`, failedLogins, lu, id)
	return err
}

// Delete removes a User; registrations, donations and milestones cascade.
// PRE: id > 0
// POST: Returns an error wrapping sql.ErrNoRows if nothing was deleted
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM user WHERE id = ?", id)
	if err != nil {
		return err
	}
	return storage.RequireRow(res, "user", id)
}

func listQuery(filter ListFilter) listutil.Query {
	return listutil.Query{
		From:    "user",
		Search:  listutil.Search{Term: filter.Search, Columns: searchColumns},
		OrderBy: "last_name, first_name, id",
	}
}

// Count returns the total number of users matching the filter.
// PRE: none
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args := listQuery(filter).Count()
	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// List retrieves one page of users matching the filter.
// PRE: filter.Page comes from listutil.NewPageInfo
// POST: Returns at most filter.Page.PerPage users ordered by name
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.User, error) {
	query, args := listQuery(filter).Page(userColumns, filter.Page)
	return s.query(ctx, query, args...)
}

// ListAll retrieves every user ordered by name, for select boxes.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.User, error) {
	return s.query(ctx, "SELECT "+userColumns+" FROM user ORDER BY last_name, first_name, id")
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, u)
	}
	return results, rows.Err()
}
