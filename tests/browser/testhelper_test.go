package browser_test

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	web "outreach/internal/adapters/http"
	"outreach/internal/adapters/storage"
	"outreach/internal/application/orchestrators"
	"outreach/internal/domain/event"
)

const (
	adminEmail    = "admin@test.com"
	adminPassword = "TestPass123!"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
}

// skipUnlessEnabled keeps browser tests out of the default test run.
func skipUnlessEnabled(t *testing.T) {
	t.Helper()
	if testing.Short() || os.Getenv("OUTREACH_BROWSER_TESTS") != "1" {
		t.Skip("set OUTREACH_BROWSER_TESTS=1 to run browser tests")
	}
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	stores := web.NewSQLiteStores(db)

	ctx := context.Background()
	deps := orchestrators.CreateAccountDeps{UserStore: stores.UserStore, Now: time.Now}
	if err := orchestrators.ExecuteSeedAdmin(ctx, deps, adminEmail, adminPassword); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}
	anonymousID, err := orchestrators.ExecuteSeedAnonymousDonor(ctx, deps)
	if err != nil {
		t.Fatalf("failed to seed anonymous donor: %v", err)
	}
	seedEvent(t, stores, "Intro to Robotics", time.Now().Add(72*time.Hour))

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	stop := make(chan struct{})
	mux := web.NewMux(stores, web.Options{
		CSRFKey:          bytes.Repeat([]byte("b"), 32),
		TrustedOrigins:   []string{fmt.Sprintf("127.0.0.1:%d", port), fmt.Sprintf("localhost:%d", port)},
		RateLimit:        1000,
		AnonymousDonorID: anonymousID,
		Stop:             stop,
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/login")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		close(stop)
		db.Close()
	})

	return app
}

func seedEvent(t *testing.T, stores *web.Stores, name string, start time.Time) int64 {
	t.Helper()
	ctx := context.Background()
	capacity := 20
	tid, err := stores.TemplateStore.CreateTemplate(ctx, event.Template{Name: name, Type: "Workshop", DefaultCapacity: &capacity})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}
	id, err := stores.OccurrenceStore.CreateOccurrence(ctx, event.Occurrence{
		TemplateID: tid, Name: name, StartAt: start, Location: "Community hall", Capacity: &capacity,
	})
	if err != nil {
		t.Fatalf("failed to create occurrence: %v", err)
	}
	return id
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login navigates to the login page and signs in with the given credentials.
func (a *testApp) login(t *testing.T, page playwright.Page, email, password, wantPath string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=email]").Fill(email); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill(password); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("main button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+wantPath, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to %s: %v", wantPath, err)
	}
}
