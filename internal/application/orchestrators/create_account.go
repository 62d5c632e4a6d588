package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outreach/internal/adapters/storage"
	"outreach/internal/domain/user"
)

// UserStoreForCreate defines the store interface needed by CreateAccount.
type UserStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (int64, error)
}

// ProfileInput holds the profile fields shared by registration, admin create and account update.
type ProfileInput struct {
	Email           string `validate:"required,email,max=254" label:"email"`
	FirstName       string `validate:"required,max=100" label:"first name"`
	LastName        string `validate:"required,max=100" label:"last name"`
	DateOfBirth     string `validate:"omitempty,datetime=2006-01-02" label:"date of birth"`
	Phone           string `validate:"max=40" label:"phone"`
	City            string `validate:"max=100" label:"city"`
	State           string `validate:"max=100" label:"state"`
	Zip             string `validate:"max=20" label:"zip"`
	School          string `validate:"max=200" label:"school"`
	Employer        string `validate:"max=200" label:"employer"`
	FieldOfInterest string `validate:"max=200" label:"field of interest"`
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	ProfileInput
	Password string `validate:"required,min=8" label:"password"`
	Role     string `validate:"required,oneof=participant admin" label:"role"`
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	UserStore UserStoreForCreate
	Now       func() time.Time
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// normalize trims every field and lowercases the email.
func (p *ProfileInput) normalize() {
	p.Email = user.NormalizeEmail(p.Email)
	for _, f := range []*string{&p.FirstName, &p.LastName, &p.DateOfBirth, &p.Phone, &p.City, &p.State, &p.Zip, &p.School, &p.Employer, &p.FieldOfInterest} {
		*f = strings.TrimSpace(*f)
	}
}

// apply copies the profile onto u.
// PRE: p has been validated
func (p ProfileInput) apply(u *user.User) {
	u.Email = p.Email
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.DateOfBirth = nil
	if p.DateOfBirth != "" {
		if dob, err := time.Parse("2006-01-02", p.DateOfBirth); err == nil {
			u.DateOfBirth = &dob
		}
	}
	u.Phone = p.Phone
	u.City = p.City
	u.State = p.State
	u.Zip = p.Zip
	u.School = p.School
	u.Employer = p.Employer
	u.FieldOfInterest = p.FieldOfInterest
}

// ExecuteCreateAccount coordinates account creation, both self-registration
// (Role participant) and admin-created users.
// PRE: Valid profile, password >= 8 chars, valid role
// POST: User created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (int64, error) {
	input.normalize()
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))
	if err := validateInput(input); err != nil {
		return 0, err
	}

	if _, err := deps.UserStore.GetByEmail(ctx, input.Email); err == nil {
		return 0, ErrEmailAlreadyExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	u := user.User{Role: input.Role, CreatedAt: nowFrom(deps.Now)}
	input.apply(&u)

	if err := u.Validate(); err != nil {
		return 0, err
	}
	if err := u.SetPassword(input.Password); err != nil {
		return 0, err
	}

	id, err := deps.UserStore.Create(ctx, u)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return 0, ErrEmailAlreadyExists
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	slog.Info("auth_event", "event", "account_created", "user_id", id, "email", input.Email, "role", input.Role)
	return id, nil
}

// ExecuteSeedAdmin creates the default admin if no user has that email yet.
// PRE: Database is migrated
// POST: Admin exists
func ExecuteSeedAdmin(ctx context.Context, deps CreateAccountDeps, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := deps.UserStore.GetByEmail(ctx, user.NormalizeEmail(email)); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	_, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		ProfileInput: ProfileInput{Email: email, FirstName: "Site", LastName: "Admin"},
		Password:     password,
		Role:         user.RoleAdmin,
	}, deps)
	if err != nil {
		return err
	}

	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return nil
}

// ExecuteSeedAnonymousDonor ensures the reserved anonymous donor exists and returns its ID.
// The donor has no password hash, so it can never log in.
// POST: Exactly one user with user.AnonymousDonorEmail exists
func ExecuteSeedAnonymousDonor(ctx context.Context, deps CreateAccountDeps) (int64, error) {
	if u, err := deps.UserStore.GetByEmail(ctx, user.AnonymousDonorEmail); err == nil {
		return u.ID, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	id, err := deps.UserStore.Create(ctx, user.User{
		Email:     user.AnonymousDonorEmail,
		FirstName: "Anonymous",
		LastName:  "Donor",
		Role:      user.RoleParticipant,
		CreatedAt: nowFrom(deps.Now),
	})
	if err != nil {
		return 0, fmt.Errorf("seed anonymous donor: %w", err)
	}
	slog.Info("auth_event", "event", "anonymous_donor_seeded", "user_id", id)
	return id, nil
}
