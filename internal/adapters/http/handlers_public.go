package web

import (
	"net/http"

	"outreach/internal/adapters/http/i18n"
	"outreach/internal/adapters/http/middleware"
	eventStore "outreach/internal/adapters/storage/event"
	"outreach/internal/application/listutil"
	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
	"outreach/internal/domain/donation"
)

// homeView is the landing page: the next few events.
type homeView struct {
	Upcoming []eventStore.OccurrenceRow
	Errors   []string
}

// handleHome handles GET /
func handleHome(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	result, err := projections.QueryGetEvents(r.Context(), projections.GetEventsQuery{
		Params: listutil.ListParams{Page: 1},
		UserID: sess.UserID,
	}, stores.OccurrenceStore, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "home.html", homeView{Upcoming: result.Items, Errors: result.Errors})
}

// handleAbout handles GET /about
func handleAbout(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, "about.html", map[string]string{"page": "about"})
}

// handleEvents handles GET /events?filter=upcoming|past&page=N&search=...
func handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	q := r.URL.Query()
	result, err := projections.QueryGetEvents(r.Context(), projections.GetEventsQuery{
		Filter: q.Get("filter"),
		Params: listutil.ParseListParams(q),
		UserID: sess.UserID,
	}, stores.OccurrenceStore, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "events.html", result)
}

// donateView backs the donation form.
type donateView struct {
	Amount string
	Error  string
}

// handleDonate handles GET (form) and POST (record) for /donate.
// Visitors without a session donate as the anonymous donor.
func handleDonate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respond(w, r, http.StatusOK, "donate.html", donateView{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		sess, _ := middleware.GetSessionFromContext(r.Context())
		d, err := orchestrators.ExecuteRecordDonation(r.Context(), orchestrators.RecordDonationInput{
			UserID: sess.UserID,
			Amount: r.FormValue("amount"),
		}, orchestrators.RecordDonationDeps{
			DonationStore:    stores.DonationStore,
			AnonymousDonorID: anonymousDonorID,
			Now:              timeNow,
		})
		printer := i18n.Printer(middleware.LocaleFromContext(r.Context()))
		thanks := ""
		if err == nil {
			thanks = printer.Sprintf("Thank you for your donation of %s", donation.FormatCents(d.AmountCents))
		}
		finishAction(w, r, err, "/donate", thanks, http.StatusCreated, d)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAnalytics handles GET /analytics
func handleAnalytics(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetAnalytics(r.Context(), stores.SurveyStore)
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "analytics.html", result)
}

// handleTeapot handles GET /teapot
func handleTeapot(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusTeapot, "teapot.html", map[string]string{"message": "I'm a teapot"})
}

// handleLang handles GET /lang/{code}: remembers the language and goes back.
func handleLang(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if !i18n.IsSupported(code) {
		http.NotFound(w, r)
		return
	}
	middleware.SetLangCookie(w, code)
	http.Redirect(w, r, safeNext(r.Referer()), http.StatusSeeOther)
}
