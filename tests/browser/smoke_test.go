package browser_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
)

// TestSmoke_PublicPages verifies the public routes load for anonymous visitors.
func TestSmoke_PublicPages(t *testing.T) {
	skipUnlessEnabled(t)
	app := newTestApp(t)
	page := app.newPage(t)

	for _, path := range []string{"/", "/about", "/events", "/donate", "/analytics", "/login", "/register"} {
		resp, err := page.Goto(app.BaseURL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if resp.Status() != http.StatusOK {
			t.Errorf("%s: status %d", path, resp.Status())
		}
	}
}

// TestSmoke_Teapot checks the easter egg answers 418.
func TestSmoke_Teapot(t *testing.T) {
	skipUnlessEnabled(t)
	app := newTestApp(t)
	page := app.newPage(t)

	resp, err := page.Goto(app.BaseURL + "/teapot")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status() != http.StatusTeapot {
		t.Errorf("status = %d, want %d", resp.Status(), http.StatusTeapot)
	}
}

// TestSmoke_SignUpAndRegister signs up, registers for the seeded event and
// sees it on the registrations page.
func TestSmoke_SignUpAndRegister(t *testing.T) {
	skipUnlessEnabled(t)
	app := newTestApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/register"); err != nil {
		t.Fatal(err)
	}
	fields := map[string]string{
		"email":      "ada@example.com",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"password":   "analytical-engine",
	}
	for name, value := range fields {
		if err := page.Locator("input[name=" + name + "]").Fill(value); err != nil {
			t.Fatalf("fill %s: %v", name, err)
		}
	}
	if err := page.Locator("main button[type=submit]").Click(); err != nil {
		t.Fatal(err)
	}
	if err := page.WaitForURL(app.BaseURL+"/dashboard", playwright.PageWaitForURLOptions{Timeout: playwright.Float(10000)}); err != nil {
		t.Fatalf("sign-up did not land on dashboard: %v", err)
	}

	if _, err := page.Goto(app.BaseURL + "/events"); err != nil {
		t.Fatal(err)
	}
	if err := page.Locator("form[action$='/register'] button").First().Click(); err != nil {
		t.Fatalf("click register: %v", err)
	}
	flash, err := page.Locator(".flash.success").TextContent()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(flash, "Intro to Robotics") {
		t.Errorf("flash = %q", flash)
	}

	if _, err := page.Goto(app.BaseURL + "/my-registrations"); err != nil {
		t.Fatal(err)
	}
	body, err := page.Locator("main").TextContent()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "Intro to Robotics") {
		t.Error("registration missing from my registrations")
	}
}

// TestSmoke_AdminLoginAndLanguage logs in as admin, then switches to Spanish.
func TestSmoke_AdminLoginAndLanguage(t *testing.T) {
	skipUnlessEnabled(t)
	app := newTestApp(t)
	page := app.newPage(t)

	app.login(t, page, adminEmail, adminPassword, "/admin-dashboard")

	if _, err := page.Goto(app.BaseURL + "/lang/es"); err != nil {
		t.Fatal(err)
	}
	nav, err := page.Locator("header nav").TextContent()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(nav, "Eventos") {
		t.Errorf("nav not translated: %q", nav)
	}
}
