package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"outreach/internal/adapters/http/middleware"
	"outreach/internal/adapters/storage"
	dashboardStore "outreach/internal/adapters/storage/dashboard"
	donationStore "outreach/internal/adapters/storage/donation"
	eventStore "outreach/internal/adapters/storage/event"
	milestoneStore "outreach/internal/adapters/storage/milestone"
	registrationStore "outreach/internal/adapters/storage/registration"
	surveyStore "outreach/internal/adapters/storage/survey"
	userStore "outreach/internal/adapters/storage/user"
	"outreach/internal/domain/access"
)

// Stores holds all storage dependencies.
type Stores struct {
	UserStore          userStore.Store
	TemplateStore      eventStore.TemplateStore
	OccurrenceStore    eventStore.OccurrenceStore
	RegistrationStore  registrationStore.Store
	SurveyStore        surveyStore.Store
	MilestoneStore     milestoneStore.Store
	UserMilestoneStore milestoneStore.UserMilestoneStore
	DonationStore      donationStore.Store
	DashboardStore     dashboardStore.Store
}

// NewSQLiteStores builds every store over one database handle.
func NewSQLiteStores(db storage.SQLDB) *Stores {
	events := eventStore.NewSQLiteStore(db)
	milestones := milestoneStore.NewSQLiteStore(db)
	return &Stores{
		UserStore:          userStore.NewSQLiteStore(db),
		TemplateStore:      events,
		OccurrenceStore:    events,
		RegistrationStore:  registrationStore.NewSQLiteStore(db),
		SurveyStore:        surveyStore.NewSQLiteStore(db),
		MilestoneStore:     milestones,
		UserMilestoneStore: milestones,
		DonationStore:      donationStore.NewSQLiteStore(db),
		DashboardStore:     dashboardStore.NewSQLiteStore(db),
	}
}

// Options configures NewMux.
type Options struct {
	CSRFKey          []byte // 32 bytes
	SecureCookies    bool
	TrustedOrigins   []string
	RateLimit        int // requests per second per IP; zero uses RateLimitPerSecond
	SlowRequest      time.Duration
	AnonymousDonorID int64
	Location         *time.Location // wall-clock zone of admin date inputs
	Stop             <-chan struct{}
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions = middleware.NewSessionStore()

// policy classifies every request path; routes declare the same audience.
var policy = access.DefaultPolicy()

// anonymousDonorID receives donations made without a session.
var anonymousDonorID int64

// formLocation interprets admin datetime-local inputs.
var formLocation = time.UTC

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	sessions = middleware.NewSessionStore()
	anonymousDonorID = opts.AnonymousDonorID
	if opts.Location != nil {
		formLocation = opts.Location
	}
	middleware.SecureCookies = opts.SecureCookies

	mux := http.NewServeMux()
	registerRoutes(mux)

	rate := opts.RateLimit
	if rate <= 0 {
		rate = RateLimitPerSecond
	}
	limiter := middleware.NewRateLimiter(rate, time.Second, opts.Stop)

	csrfProtect := middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins)

	// Outermost last: Timing -> RateLimit -> SecurityHeaders -> Locale -> Auth -> Authorize -> CSRF -> Mux
	// Authorize sits outside CSRF so every policy denial answers the same way.
	return middleware.Chain(mux,
		csrfProtect,
		middleware.Authorize(policy, denyWithToken(csrfProtect)),
		middleware.Auth(sessions),
		middleware.Locale,
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
		middleware.Timing(opts.SlowRequest),
	)
}

// deny answers requests the access policy rejected. Anonymous readers see the
// login form; anonymous writes bounce to it; non-admins get a fixed message.
func deny(w http.ResponseWriter, r *http.Request, d access.Decision) {
	if d == access.Challenge {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			renderLogin(w, r, http.StatusOK, loginView{Next: r.URL.RequestURI(), Notice: "Please log in to continue"})
			return
		}
		next := safeNext(r.Referer())
		http.Redirect(w, r, "/login?next="+url.QueryEscape(next), http.StatusSeeOther)
		return
	}
	renderLogin(w, r, http.StatusForbidden, loginView{Error: "Authentication error"})
}

// denyWithToken runs deny for safe methods inside csrf so the login form it
// renders carries a token. Safe methods never fail the token check.
func denyWithToken(csrfProtect func(http.Handler) http.Handler) middleware.DenyFunc {
	return func(w http.ResponseWriter, r *http.Request, d access.Decision) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			deny(w, r, d)
			return
		}
		csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deny(w, r, d)
		})).ServeHTTP(w, r)
	}
}

// safeNext reduces a redirect target to a local path so login cannot be used
// as an open redirect.
// POST: Returns a path beginning with a single "/"
func safeNext(raw string) string {
	if raw == "" {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "/"
	}
	p := u.EscapedPath()
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(u.Path, `\`) {
		return "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
