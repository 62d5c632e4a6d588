package web

import (
	"fmt"
	"net/http"
	"strconv"

	"outreach/internal/adapters/http/i18n"
	"outreach/internal/adapters/http/middleware"
	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
)

// dashboardView is the participant landing page after login.
type dashboardView struct {
	Name string
	projections.DashboardResult
}

// handleDashboard handles GET /dashboard
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	result, err := projections.QueryGetDashboard(r.Context(),
		projections.GetDashboardQuery{UserID: sess.UserID},
		projections.GetDashboardDeps{Store: stores.DashboardStore},
		timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "dashboard.html", dashboardView{Name: sess.Name, DashboardResult: result})
}

// handleRegisterForEvent handles POST /events/{id}/register and reports the
// outcome on the events page.
func handleRegisterForEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	occurrenceID, ok := pathID(r, "id")
	if !ok {
		finishAction(w, r, orchestrators.ErrNotFound, "/events", "", 0, nil)
		return
	}

	reg, err := orchestrators.ExecuteRegisterForEvent(r.Context(), orchestrators.RegisterForEventInput{
		UserID:       sess.UserID,
		OccurrenceID: occurrenceID,
	}, orchestrators.RegisterForEventDeps{
		RegistrationStore: stores.RegistrationStore,
		Now:               timeNow,
	})
	success := ""
	if err == nil {
		name := fmt.Sprintf("#%d", occurrenceID)
		if o, lookupErr := stores.OccurrenceStore.GetOccurrence(r.Context(), occurrenceID); lookupErr == nil {
			name = o.Name
		}
		success = i18n.Printer(middleware.LocaleFromContext(r.Context())).Sprintf("Registered for %s", name)
	}
	finishAction(w, r, err, "/events", success, http.StatusCreated, reg)
}

// handleCancelRegistration handles POST /registrations/{id}/cancel
func handleCancelRegistration(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		finishAction(w, r, orchestrators.ErrNotFound, "/my-registrations", "", 0, nil)
		return
	}
	err := orchestrators.ExecuteCancelRegistration(r.Context(), orchestrators.CancelRegistrationInput{
		RegistrationID: id,
		Actor:          sess.Identity(),
	}, orchestrators.CancelRegistrationDeps{RegistrationStore: stores.RegistrationStore})
	msg := i18n.Printer(middleware.LocaleFromContext(r.Context())).Sprintf("Registration cancelled")
	finishAction(w, r, err, "/my-registrations", msg, http.StatusOK, map[string]any{"id": id, "status": "cancelled"})
}

// surveyView backs the post-event survey form.
type surveyView struct {
	RegistrationID int64
	OccurrenceName string
}

// handleAddSurvey handles GET (form) and POST (submit) for /add-survey/{id}
func handleAddSurvey(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		reg, err := stores.RegistrationStore.GetByID(r.Context(), id)
		if err != nil || (reg.UserID != sess.UserID && !sess.Identity().IsAdmin()) {
			http.NotFound(w, r)
			return
		}
		v := surveyView{RegistrationID: id}
		if rows, err := stores.RegistrationStore.ListByUser(r.Context(), reg.UserID); err == nil {
			for _, row := range rows {
				if row.ID == id {
					v.OccurrenceName = row.OccurrenceName
				}
			}
		}
		respond(w, r, http.StatusOK, "add_survey.html", v)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		score := func(key string) int {
			n, _ := strconv.Atoi(r.FormValue(key))
			return n
		}
		sv, err := orchestrators.ExecuteSubmitSurvey(r.Context(), orchestrators.SubmitSurveyInput{
			RegistrationID: id,
			Actor:          sess.Identity(),
			Scores: orchestrators.SurveyScoresInput{
				Satisfaction:   score("satisfaction"),
				Usefulness:     score("usefulness"),
				Instructor:     score("instructor"),
				Recommendation: score("recommendation"),
			},
			Comments: r.FormValue("comments"),
		}, orchestrators.SubmitSurveyDeps{
			RegistrationStore: stores.RegistrationStore,
			SurveyStore:       stores.SurveyStore,
			Now:               timeNow,
		})
		target := "/my-registrations"
		if err != nil {
			target = fmt.Sprintf("/add-survey/%d", id)
		}
		msg := i18n.Printer(middleware.LocaleFromContext(r.Context())).Sprintf("Survey submitted, thank you")
		finishAction(w, r, err, target, msg, http.StatusCreated, sv)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleMyRegistrations handles GET /my-registrations
func handleMyRegistrations(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	rows, err := projections.QueryGetMyRegistrations(r.Context(), sess.UserID, stores.RegistrationStore, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "my_registrations.html", rows)
}
