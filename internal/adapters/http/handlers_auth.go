package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"outreach/internal/adapters/http/middleware"
	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
	"outreach/internal/domain/user"
)

// handleLogin handles GET (form) and POST (authenticate) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		v := loginView{}
		if next := r.URL.Query().Get("next"); next != "" {
			v.Next = safeNext(next)
			v.Notice = "Please log in to continue"
		}
		renderLogin(w, r, http.StatusOK, v)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := orchestrators.LoginInput{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}
		next := r.FormValue("next")

		result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
			UserStore: stores.UserStore,
			Now:       timeNow,
		})
		if err != nil {
			if errors.Is(err, orchestrators.ErrInvalidCredentials) || errors.Is(err, orchestrators.ErrAccountLocked) {
				msg, _ := userMessage(err)
				renderLogin(w, r, http.StatusUnauthorized, loginView{Email: input.Email, Next: next, Error: msg})
				return
			}
			internalError(w, err)
			return
		}

		token, err := sessions.Create(result.UserID, result.Email, result.Name, result.Role)
		if err != nil {
			internalError(w, err)
			return
		}
		middleware.SetSessionCookie(w, token)

		target := "/dashboard"
		if strings.EqualFold(result.Role, user.RoleAdmin) {
			target = "/admin-dashboard"
		}
		if next != "" {
			target = safeNext(next)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	slog.Info("auth_event", "event", "logout", "user_id", middleware.IdentityFromContext(r.Context()).UserID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// profileFromForm reads the shared profile fields of the account forms.
func profileFromForm(r *http.Request) orchestrators.ProfileInput {
	return orchestrators.ProfileInput{
		Email:           r.FormValue("email"),
		FirstName:       r.FormValue("first_name"),
		LastName:        r.FormValue("last_name"),
		DateOfBirth:     r.FormValue("date_of_birth"),
		Phone:           r.FormValue("phone"),
		City:            r.FormValue("city"),
		State:           r.FormValue("state"),
		Zip:             r.FormValue("zip"),
		School:          r.FormValue("school"),
		Employer:        r.FormValue("employer"),
		FieldOfInterest: r.FormValue("field_of_interest"),
	}
}

// registerView backs the sign-up form and is re-rendered with input on failure.
type registerView struct {
	Profile orchestrators.ProfileInput
	Error   string
}

// handleRegister handles GET (form) and POST (create account) for /register.
// A successful sign-up logs the new participant in.
func handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respond(w, r, http.StatusOK, "register.html", registerView{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := orchestrators.CreateAccountInput{
			ProfileInput: profileFromForm(r),
			Password:     r.FormValue("password"),
			Role:         user.RoleParticipant,
		}
		id, err := orchestrators.ExecuteCreateAccount(r.Context(), input, orchestrators.CreateAccountDeps{
			UserStore: stores.UserStore,
			Now:       timeNow,
		})
		if err != nil {
			msg, ok := userMessage(err)
			if !ok {
				internalError(w, err)
				return
			}
			respond(w, r, http.StatusBadRequest, "register.html", registerView{Profile: input.ProfileInput, Error: msg})
			return
		}

		name := strings.TrimSpace(input.FirstName + " " + input.LastName)
		token, err := sessions.Create(id, user.NormalizeEmail(input.Email), name, user.RoleParticipant)
		if err != nil {
			internalError(w, err)
			return
		}
		middleware.SetSessionCookie(w, token)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAccount handles GET (view) and POST (update own profile) for /account
func handleAccount(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		profile, err := projections.QueryGetUserProfile(r.Context(), projections.GetUserProfileQuery{UserID: sess.UserID},
			projections.GetUserProfileDeps{
				UserStore:          stores.UserStore,
				UserMilestoneStore: stores.UserMilestoneStore,
			})
		if err != nil {
			readUnavailable(w, r, "/dashboard", "account", err)
			return
		}
		respond(w, r, http.StatusOK, "account.html", profile)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		u, err := orchestrators.ExecuteUpdateAccount(r.Context(), orchestrators.UpdateAccountInput{
			UserID:       sess.UserID,
			Actor:        sess.Identity(),
			ProfileInput: profileFromForm(r),
		}, orchestrators.UpdateAccountDeps{UserStore: stores.UserStore})
		if err == nil {
			sess.Email = u.Email
			sess.Name = u.DisplayName()
			sessions.Update(sessionToken(r), sess)
		}
		finishAction(w, r, err, "/account", "Account updated", http.StatusOK, u)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
