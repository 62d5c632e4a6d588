package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"outreach/internal/domain/user"
)

// mockUserStore implements the user store interfaces used by the account orchestrators.
type mockUserStore struct {
	users  map[int64]user.User
	nextID int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: map[int64]user.User{}, nextID: 1}
}

func (m *mockUserStore) GetByID(_ context.Context, id int64) (user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	return u, nil
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, fmt.Errorf("user not found: %w", sql.ErrNoRows)
}

func (m *mockUserStore) Create(_ context.Context, u user.User) (int64, error) {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *mockUserStore) Update(_ context.Context, u user.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserStore) UpdateLoginState(_ context.Context, id int64, failed int, lockedUntil time.Time) error {
	u := m.users[id]
	u.FailedLogins = failed
	u.LockedUntil = lockedUntil
	m.users[id] = u
	return nil
}

func (m *mockUserStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	delete(m.users, id)
	return nil
}

var fixedTimeAccount = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func testNowAccount() time.Time { return fixedTimeAccount }

func validAccountInput() CreateAccountInput {
	return CreateAccountInput{
		ProfileInput: ProfileInput{
			Email:       "  Ada@Example.org ",
			FirstName:   "Ada",
			LastName:    "Lovelace",
			DateOfBirth: "2008-12-10",
			School:      "Northside High",
		},
		Password: "correct-horse",
		Role:     "participant",
	}
}

// TestExecuteCreateAccount_HappyPath normalizes the email and hashes the password.
func TestExecuteCreateAccount_HappyPath(t *testing.T) {
	store := newMockUserStore()
	id, err := ExecuteCreateAccount(context.Background(), validAccountInput(), CreateAccountDeps{UserStore: store, Now: testNowAccount})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u := store.users[id]
	if u.Email != "ada@example.org" {
		t.Errorf("email = %q", u.Email)
	}
	if u.PasswordHash == "" || u.PasswordHash == "correct-horse" {
		t.Error("password was not hashed")
	}
	if u.DateOfBirth == nil || u.DateOfBirth.Year() != 2008 {
		t.Errorf("date_of_birth = %v", u.DateOfBirth)
	}
	if !u.CreatedAt.Equal(fixedTimeAccount) {
		t.Errorf("created_at = %v", u.CreatedAt)
	}
}

// TestExecuteCreateAccount_Invalid covers validation and duplicate emails.
func TestExecuteCreateAccount_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateAccountInput)
		want   string
	}{
		{"bad email", func(in *CreateAccountInput) { in.Email = "not-an-email" }, "email must be a valid email address"},
		{"short password", func(in *CreateAccountInput) { in.Password = "short" }, "password must be at least 8 characters"},
		{"bad role", func(in *CreateAccountInput) { in.Role = "owner" }, "role must be one of: participant, admin"},
		{"missing name", func(in *CreateAccountInput) { in.FirstName = "  " }, "first name is required"},
		{"bad birth date", func(in *CreateAccountInput) { in.DateOfBirth = "10/12/2008" }, "date of birth is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validAccountInput()
			tt.mutate(&in)
			_, err := ExecuteCreateAccount(context.Background(), in, CreateAccountDeps{UserStore: newMockUserStore()})
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if err.Error() != tt.want {
				t.Errorf("message = %q, want %q", err.Error(), tt.want)
			}
		})
	}

	store := newMockUserStore()
	deps := CreateAccountDeps{UserStore: store}
	if _, err := ExecuteCreateAccount(context.Background(), validAccountInput(), deps); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := ExecuteCreateAccount(context.Background(), validAccountInput(), deps); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Errorf("err = %v, want ErrEmailAlreadyExists", err)
	}
}

// TestExecuteSeedAdmin is idempotent.
func TestExecuteSeedAdmin(t *testing.T) {
	store := newMockUserStore()
	deps := CreateAccountDeps{UserStore: store}
	for i := 0; i < 2; i++ {
		if err := ExecuteSeedAdmin(context.Background(), deps, "admin@example.org", "change-me-now"); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if len(store.users) != 1 {
		t.Fatalf("users = %d, want 1", len(store.users))
	}
	for _, u := range store.users {
		if !u.IsAdmin() {
			t.Errorf("role = %q, want admin", u.Role)
		}
	}
}

// TestExecuteSeedAnonymousDonor returns the same ID on every call.
func TestExecuteSeedAnonymousDonor(t *testing.T) {
	store := newMockUserStore()
	deps := CreateAccountDeps{UserStore: store}
	first, err := ExecuteSeedAnonymousDonor(context.Background(), deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ExecuteSeedAnonymousDonor(context.Background(), deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("ids differ: %d vs %d", first, second)
	}
	if store.users[first].PasswordHash != "" {
		t.Error("anonymous donor must have no password")
	}
}

// TestExecuteLogin covers success, wrong password, lockout and reset.
func TestExecuteLogin(t *testing.T) {
	store := newMockUserStore()
	id, err := ExecuteCreateAccount(context.Background(), validAccountInput(), CreateAccountDeps{UserStore: store})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	deps := LoginDeps{UserStore: store, Now: testNowAccount}

	got, err := ExecuteLogin(context.Background(), LoginInput{Email: "ADA@example.org", Password: "correct-horse"}, deps)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.UserID != id || got.Role != user.RoleParticipant || got.Name != "Ada Lovelace" {
		t.Errorf("result = %+v", got)
	}

	for i := 0; i < 5; i++ {
		if _, err := ExecuteLogin(context.Background(), LoginInput{Email: "ada@example.org", Password: "wrong-password"}, deps); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidCredentials", i, err)
		}
	}
	if _, err := ExecuteLogin(context.Background(), LoginInput{Email: "ada@example.org", Password: "correct-horse"}, deps); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("err = %v, want ErrAccountLocked", err)
	}

	deps.Now = func() time.Time { return fixedTimeAccount.Add(time.Hour) }
	if _, err := ExecuteLogin(context.Background(), LoginInput{Email: "ada@example.org", Password: "correct-horse"}, deps); err != nil {
		t.Fatalf("login after lock expiry: %v", err)
	}
	if store.users[id].FailedLogins != 0 {
		t.Errorf("failed_logins = %d, want 0 after success", store.users[id].FailedLogins)
	}

	if _, err := ExecuteLogin(context.Background(), LoginInput{Email: "nobody@example.org", Password: "x"}, deps); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

// TestExecuteLogin_AnonymousDonor can never sign in.
func TestExecuteLogin_AnonymousDonor(t *testing.T) {
	store := newMockUserStore()
	if _, err := ExecuteSeedAnonymousDonor(context.Background(), CreateAccountDeps{UserStore: store}); err != nil {
		t.Fatal(err)
	}
	_, err := ExecuteLogin(context.Background(), LoginInput{Email: user.AnonymousDonorEmail, Password: "anything"}, LoginDeps{UserStore: store})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

// TestExecuteUpdateAccount covers self-service and admin-only fields.
func TestExecuteUpdateAccount(t *testing.T) {
	store := newMockUserStore()
	id, err := ExecuteCreateAccount(context.Background(), validAccountInput(), CreateAccountDeps{UserStore: store})
	if err != nil {
		t.Fatal(err)
	}
	profile := ProfileInput{Email: "ada@example.org", FirstName: "Ada", LastName: "King", City: "London"}
	deps := UpdateAccountDeps{UserStore: store}

	// Participants cannot promote themselves.
	got, err := ExecuteUpdateAccount(context.Background(), UpdateAccountInput{UserID: id, Actor: participant(id), ProfileInput: profile, Role: "admin"}, deps)
	if err != nil {
		t.Fatalf("self update: %v", err)
	}
	if got.LastName != "King" || got.City != "London" {
		t.Errorf("profile not applied: %+v", got)
	}
	if got.Role != user.RoleParticipant {
		t.Errorf("role = %q, participant must not change own role", got.Role)
	}

	if _, err := ExecuteUpdateAccount(context.Background(), UpdateAccountInput{UserID: id, Actor: participant(id + 1), ProfileInput: profile}, deps); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for another user", err)
	}

	got, err = ExecuteUpdateAccount(context.Background(), UpdateAccountInput{UserID: id, Actor: admin(99), ProfileInput: profile, Role: "admin"}, deps)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if got.Role != user.RoleAdmin {
		t.Errorf("role = %q, want admin", got.Role)
	}
}

// TestExecuteDeleteUser refuses self-deletion.
func TestExecuteDeleteUser(t *testing.T) {
	store := newMockUserStore()
	id, _ := ExecuteCreateAccount(context.Background(), validAccountInput(), CreateAccountDeps{UserStore: store})
	deps := UpdateAccountDeps{UserStore: store}

	if err := ExecuteDeleteUser(context.Background(), DeleteUserInput{UserID: id, Actor: admin(id)}, deps); !errors.Is(err, ErrCannotDeleteSelf) {
		t.Errorf("err = %v, want ErrCannotDeleteSelf", err)
	}
	if err := ExecuteDeleteUser(context.Background(), DeleteUserInput{UserID: id, Actor: admin(99)}, deps); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ExecuteDeleteUser(context.Background(), DeleteUserInput{UserID: id, Actor: admin(99)}, deps); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
