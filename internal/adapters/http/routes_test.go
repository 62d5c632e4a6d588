package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// samplePath turns a mux pattern into a concrete request path.
func samplePath(pattern string) string {
	if _, p, ok := strings.Cut(pattern, " "); ok {
		pattern = p
	}
	pattern = strings.ReplaceAll(pattern, "{$}", "")
	var b strings.Builder
	for {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			b.WriteString(pattern)
			break
		}
		end := strings.IndexByte(pattern[open:], '}')
		b.WriteString(pattern[:open])
		b.WriteString("1")
		pattern = pattern[open+end+1:]
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func TestRoutes_AudienceMatchesPolicy(t *testing.T) {
	for _, rt := range routes {
		path := samplePath(rt.pattern)
		if got := policy.Classify(path); got != rt.audience {
			t.Errorf("%s: route declares %s, policy classifies %s as %s", rt.pattern, rt.audience, path, got)
		}
	}
}

func TestRoutes_NoDuplicatePatterns(t *testing.T) {
	seen := map[string]bool{}
	for _, rt := range routes {
		if seen[rt.pattern] {
			t.Errorf("duplicate route %q", rt.pattern)
		}
		seen[rt.pattern] = true
	}
}

func TestSamplePath(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"GET /{$}", "/"},
		{"/login", "/login"},
		{"POST /events/{id}/register", "/events/1/register"},
		{"POST /manage-users/{id}/milestones/{milestone_id}/delete", "/manage-users/1/milestones/1/delete"},
	}
	for _, tt := range tests {
		if got := samplePath(tt.pattern); got != tt.want {
			t.Errorf("samplePath(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/events?page=2", "/events?page=2"},
		{"http://localhost:8080/account", "/account"},
		{"//evil.example/phish", "/"},
		{"/\\evil.example", "/"},
		{"https://evil.example", "/"},
		{"javascript:alert(1)", "/"},
	}
	for _, tt := range tests {
		if got := safeNext(tt.in); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func newTestMux(t *testing.T) http.Handler {
	t.Helper()
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	return NewMux(newTestStores(t), Options{
		CSRFKey:   bytes.Repeat([]byte("k"), 32),
		RateLimit: 1000,
		Stop:      stop,
	})
}

func TestDeny_AnonymousGetShowsLogin(t *testing.T) {
	mux := newTestMux(t)
	req := httptest.NewRequest("GET", "/my-registrations?x=1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
	}
	var v loginView
	decodeJSON(t, rec, &v)
	if v.Next != "/my-registrations?x=1" || v.Notice != "Please log in to continue" {
		t.Errorf("login view = %+v", v)
	}
}

func TestDeny_AnonymousGetHTML(t *testing.T) {
	mux := newTestMux(t)
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="next" value="/dashboard"`) {
		t.Errorf("login form does not carry next: %s", body)
	}
	if !strings.Contains(body, "Please log in to continue") {
		t.Error("missing login notice")
	}
	if strings.Contains(body, `name="gorilla.csrf.Token" value=""`) {
		t.Error("login form rendered without a form token")
	}
}

func TestDeny_AnonymousPostRedirectsToLogin(t *testing.T) {
	mux := newTestMux(t)
	req := httptest.NewRequest("POST", "/events/1/register", nil)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "http://localhost/events?page=2")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fevents%3Fpage%3D2" {
		t.Errorf("Location = %q", loc)
	}
}

func TestDeny_ParticipantOnAdminRoute(t *testing.T) {
	mux := newTestMux(t)
	for _, path := range []string{"/admin-dashboard", "/manage-users", "/manage-users/7/edit", "/manage-donations/export"} {
		req := httptest.NewRequest("GET", path, nil)
		withSessionCookie(t, req, participantSession)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: got %d, want %d", path, rec.Code, http.StatusForbidden)
			continue
		}
		var v loginView
		decodeJSON(t, rec, &v)
		if v.Error != "Authentication error" {
			t.Errorf("%s: error = %q", path, v.Error)
		}
	}
}

func TestDeny_AnonymousOnAdminRouteIsForbidden(t *testing.T) {
	mux := newTestMux(t)
	req := httptest.NewRequest("GET", "/manage-donations", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestMux_PublicRoutesNeedNoSession(t *testing.T) {
	mux := newTestMux(t)
	for _, path := range []string{"/", "/about", "/events", "/donate", "/analytics", "/login", "/register", "/static/style.css"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestMux_SecurityHeaders(t *testing.T) {
	mux := newTestMux(t)
	req := httptest.NewRequest("GET", "/about", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy")
	}
}

func TestMux_FormPostWithoutTokenRejected(t *testing.T) {
	mux := newTestMux(t)
	req := httptest.NewRequest("POST", "/donate", strings.NewReader("amount=10"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestDeny_AnonymousFormPostWithoutToken(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest("POST", "/manage-users/2/delete", strings.NewReader("confirm=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin route: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	var v loginView
	decodeJSON(t, rec, &v)
	if v.Error != "Authentication error" {
		t.Errorf("admin route: error = %q", v.Error)
	}

	req = httptest.NewRequest("POST", "/events/1/register", strings.NewReader("x=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("member route: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2F" {
		t.Errorf("member route: Location = %q", loc)
	}
}
