package web

import (
	"io/fs"
	"net/http"

	"outreach/internal/domain/access"
)

// route binds a mux pattern to its handler and the audience it is meant for.
// The declared audience must match what the access policy classifies.
type route struct {
	pattern  string
	audience access.Audience
	handler  http.HandlerFunc
}

// routes is the full route table.
var routes = []route{
	// Public
	{"GET /{$}", access.Public, handleHome},
	{"/login", access.Public, handleLogin},
	{"/register", access.Public, handleRegister},
	{"GET /about", access.Public, handleAbout},
	{"GET /events", access.Public, handleEvents},
	{"/donate", access.Public, handleDonate},
	{"GET /analytics", access.Public, handleAnalytics},
	{"GET /teapot", access.Public, handleTeapot},
	{"GET /lang/{code}", access.Public, handleLang},

	// Authenticated
	{"POST /logout", access.Member, handleLogout},
	{"GET /dashboard", access.Member, handleDashboard},
	{"/account", access.Member, handleAccount},
	{"POST /events/{id}/register", access.Member, handleRegisterForEvent},
	{"POST /registrations/{id}/cancel", access.Member, handleCancelRegistration},
	{"/add-survey/{id}", access.Member, handleAddSurvey},
	{"GET /my-registrations", access.Member, handleMyRegistrations},

	// Admin
	{"GET /admin-dashboard", access.Admin, handleAdminDashboard},

	{"GET /manage-users", access.Admin, handleManageUsers},
	{"/manage-users/new", access.Admin, handleManageUserNew},
	{"GET /manage-users/{id}/edit", access.Admin, handleManageUserEdit},
	{"POST /manage-users/{id}/update", access.Admin, handleManageUserUpdate},
	{"POST /manage-users/{id}/delete", access.Admin, handleManageUserDelete},
	{"POST /manage-users/{id}/milestones/add", access.Admin, handleManageUserMilestoneAdd},
	{"POST /manage-users/{id}/milestones/{milestone_id}/delete", access.Admin, handleManageUserMilestoneDelete},

	{"GET /manage-events", access.Admin, handleManageEvents},
	{"POST /manage-events/new", access.Admin, handleManageEventSave},
	{"POST /manage-events/{id}/update", access.Admin, handleManageEventSave},
	{"POST /manage-events/{id}/delete", access.Admin, handleManageEventDelete},

	{"GET /manage-event-occurrences", access.Admin, handleManageOccurrences},
	{"POST /manage-event-occurrences/new", access.Admin, handleManageOccurrenceSave},
	{"POST /manage-event-occurrences/{id}/update", access.Admin, handleManageOccurrenceSave},
	{"POST /manage-event-occurrences/{id}/delete", access.Admin, handleManageOccurrenceDelete},

	{"GET /manage-registrations", access.Admin, handleManageRegistrations},
	{"POST /manage-registrations/{id}/attendance", access.Admin, handleManageRegistrationAttendance},
	{"POST /manage-registrations/{id}/delete", access.Admin, handleManageRegistrationDelete},

	{"GET /manage-surveys", access.Admin, handleManageSurveys},
	{"POST /manage-surveys/{id}/delete", access.Admin, handleManageSurveyDelete},

	{"GET /manage-milestones", access.Admin, handleManageMilestones},
	{"POST /manage-milestones/new", access.Admin, handleManageMilestoneNew},
	{"POST /manage-milestones/{id}/delete", access.Admin, handleManageMilestoneDelete},

	{"GET /manage-donations", access.Admin, handleManageDonations},
	{"POST /manage-donations/new", access.Admin, handleManageDonationNew},
	{"POST /manage-donations/{id}/delete", access.Admin, handleManageDonationDelete},
	{"GET /manage-donations/export", access.Admin, handleManageDonationsExport},
}

// registerRoutes installs the route table and the embedded static assets.
func registerRoutes(mux *http.ServeMux) {
	for _, rt := range routes {
		mux.HandleFunc(rt.pattern, rt.handler)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
}
