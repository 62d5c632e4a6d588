package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"outreach/internal/adapters/http/i18n"
	"outreach/internal/adapters/http/middleware"
	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
	"outreach/internal/domain/donation"
	"outreach/internal/domain/event"
	"outreach/internal/domain/milestone"
	"outreach/internal/domain/user"
)

//go:embed templates/*.html static/*
var assets embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respond renders templateName for browsers and the same data as JSON otherwise.
func respond(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	if isHTMLRequest(r) {
		renderTemplate(w, r, status, templateName, data)
		return
	}
	writeJSON(w, status, data)
}

func renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())
	tag := middleware.LocaleFromContext(r.Context())
	printer := i18n.Printer(tag)
	query := r.URL.Query()

	funcMap := template.FuncMap{
		"currentRole":  func() string { return sess.Role },
		"currentName":  func() string { return sess.Name },
		"isLoggedIn":   func() bool { return loggedIn },
		"isAdmin":      func() bool { return loggedIn && middleware.IsAdmin(r.Context()) },
		"csrfToken":    func() string { return csrf.Token(r) },
		"lang":         func() string { return tag.String() },
		"flashSuccess": func() string { return query.Get("success") },
		"flashError":   func() string { return query.Get("error") },
		"t": func(key string, args ...any) string {
			return printer.Sprintf(key, args...)
		},
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"formatCents": func(cents int64) string {
			return printer.Sprintf("%.2f", float64(cents)/100)
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(formLocation).Format("Mon 2 Jan 2006 15:04")
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(formLocation).Format("2006-01-02")
		},
		"inputTime": func(v any) string {
			switch t := v.(type) {
			case time.Time:
				return t.In(formLocation).Format(orchestrators.FormTimeLayout)
			case *time.Time:
				if t != nil {
					return t.In(formLocation).Format(orchestrators.FormTimeLayout)
				}
			}
			return ""
		},
		"optInt": func(n *int) string {
			if n == nil {
				return ""
			}
			return strconv.Itoa(*n)
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(assets, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// loginView is the data behind the login page, also used by deny.
type loginView struct {
	Email  string
	Next   string
	Notice string
	Error  string
}

func renderLogin(w http.ResponseWriter, r *http.Request, status int, v loginView) {
	respond(w, r, status, "login.html", v)
}

// expectedErrors are failures caused by the request, shown to the user as-is.
var expectedErrors = []error{
	orchestrators.ErrNotFound,
	orchestrators.ErrAlreadyStarted,
	orchestrators.ErrDeadlinePassed,
	orchestrators.ErrAlreadyRegistered,
	orchestrators.ErrCapacityReached,
	orchestrators.ErrSurveyExists,
	orchestrators.ErrInvalidScores,
	orchestrators.ErrInvalidCredentials,
	orchestrators.ErrAccountLocked,
	orchestrators.ErrEmailAlreadyExists,
	orchestrators.ErrCannotDeleteSelf,
	donation.ErrInvalidAmount,
	donation.ErrNonPositive,
	donation.ErrAmountTooLarge,
	event.ErrEmptyName,
	event.ErrEndBeforeStart,
	event.ErrNegativeCapacity,
	milestone.ErrEmptyTitle,
	milestone.ErrTitleTooLong,
	user.ErrInvalidEmail,
	user.ErrEmailTooLong,
	user.ErrEmptyName,
	user.ErrNameTooLong,
	user.ErrPasswordTooShort,
}

// userMessage returns the text to show for an expected failure, and false
// for anything that should be treated as a server fault.
func userMessage(err error) (string, bool) {
	var ve *orchestrators.ValidationError
	if errors.As(err, &ve) {
		return ve.Error(), true
	}
	for _, e := range expectedErrors {
		if errors.Is(err, e) {
			if e == orchestrators.ErrNotFound {
				return "Not found", true
			}
			return capitalize(err.Error()), true
		}
	}
	return "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// redirectWithFlash sends the browser to target with a success or error message.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, target, key, msg string) {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	http.Redirect(w, r, target+sep+key+"="+url.QueryEscape(msg), http.StatusSeeOther)
}

// finishAction completes a form POST: expected failures go back to target as
// an error flash (JSON clients get 400/404), faults become a 500.
func finishAction(w http.ResponseWriter, r *http.Request, err error, target, success string, status int, body any) {
	if err != nil {
		msg, ok := userMessage(err)
		if !ok {
			internalError(w, err)
			return
		}
		if !isHTMLRequest(r) {
			code := http.StatusBadRequest
			if errors.Is(err, orchestrators.ErrNotFound) {
				code = http.StatusNotFound
			}
			writeJSON(w, code, map[string]string{"error": msg})
			return
		}
		redirectWithFlash(w, r, target, "error", msg)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, status, body)
		return
	}
	redirectWithFlash(w, r, target, "success", success)
}

// readUnavailable answers a page whose main record could not be read. Browsers
// go back to target with the message; JSON clients get it in an errors list.
func readUnavailable(w http.ResponseWriter, r *http.Request, target, name string, err error) {
	msg := projections.ReadFailed(name, err)
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, map[string][]string{"errors": {msg}})
		return
	}
	redirectWithFlash(w, r, target, "error", capitalize(msg))
}

// pathID parses a numeric path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// requireSession returns the caller's session or sends them to log in.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireAdmin returns the admin session or answers 403.
func requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok || !sess.Identity().IsAdmin() {
		renderLogin(w, r, http.StatusForbidden, loginView{Error: "Authentication error"})
		return middleware.Session{}, false
	}
	return sess, true
}
