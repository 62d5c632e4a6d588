package user

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
	MaxNameLength  = 100
)

// Role constants
const (
	RoleParticipant = "participant"
	RoleAdmin       = "admin"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleParticipant, RoleAdmin}

// AnonymousDonorEmail identifies the reserved user that donations made without a session are attributed to.
const AnonymousDonorEmail = "anonymous@donors.invalid"

// Domain errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrEmptyName        = errors.New("first and last name are required")
	ErrNameTooLong      = errors.New("names cannot exceed 100 characters")
	ErrInvalidRole      = errors.New("role must be one of: participant, admin")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrWrongPassword    = errors.New("incorrect password")
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// maxFailedLogins is the number of consecutive failures that locks an account.
const maxFailedLogins = 5

// User is a participant or administrator of the organization.
type User struct {
	ID              int64
	Email           string
	FirstName       string
	LastName        string
	DateOfBirth     *time.Time
	Role            string
	Phone           string
	City            string
	State           string
	Zip             string
	School          string
	Employer        string
	FieldOfInterest string
	PasswordHash    string `json:"-"`
	CreatedAt       time.Time
	FailedLogins    int       `json:"-"`
	LockedUntil     time.Time `json:"-"`
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
func (u *User) Validate() error {
	email := strings.TrimSpace(u.Email)
	if email == "" {
		return ErrEmptyEmail
	}
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(u.FirstName) == "" || strings.TrimSpace(u.LastName) == "" {
		return ErrEmptyName
	}
	if len(u.FirstName) > MaxNameLength || len(u.LastName) > MaxNameLength {
		return ErrNameTooLong
	}
	if !IsValidRole(u.Role) {
		return ErrInvalidRole
	}
	return nil
}

// DisplayName returns "First Last".
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin returns true if the user has the admin role.
// INVARIANT: User fields are not mutated
func (u *User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext is non-empty and >= MinPasswordLength characters
// POST: PasswordHash is set to bcrypt hash
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the account is currently locked out.
// INVARIANT: User fields are not mutated
func (u *User) IsLocked(now time.Time) bool {
	if u.LockedUntil.IsZero() {
		return false
	}
	return now.Before(u.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the account after repeated failures.
// POST: FailedLogins incremented; LockedUntil set once the limit is reached
func (u *User) RecordFailedLogin(now time.Time) {
	u.FailedLogins++
	if u.FailedLogins >= maxFailedLogins {
		u.LockedUntil = now.Add(15 * time.Minute)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
func (u *User) ResetFailedLogins() {
	u.FailedLogins = 0
	u.LockedUntil = time.Time{}
}

// IsValidRole reports whether role is one of ValidRoles (case-insensitive).
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
