package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"tillpos/internal/config"
	"tillpos/internal/http/handlers"
	applog "tillpos/internal/log"
	"tillpos/internal/repos"
)

const testPIN = "4321"

// newTestApp builds the real app over an in-memory database seeded with the
// demo catalog. tweak may adjust the config before the app is built.
func newTestApp(t *testing.T, tweak func(*config.Config)) (*fiber.App, *sqlx.DB) {
	t.Helper()
	cfg := config.Config{
		DBDSN:        ":memory:",
		TemplatesDir: "../../web/templates",
		ManagerPIN:   testPIN,
		LookupRate:   100,
	}
	if tweak != nil {
		tweak(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedIfEmpty(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	deps, err := handlers.NewDeps(db, cfg)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	return handlers.NewApp(cfg, deps), db
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func csrfToken(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	tok := extractCookie(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return tok
}

func postForm(t *testing.T, app *fiber.App, tok string, form url.Values) *http.Response {
	t.Helper()
	if tok != "" {
		form.Set("csrf", tok)
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if tok != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

// call sends a JSON request and decodes a JSON object response.
func call(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]any{}
	raw := body(t, resp)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			t.Fatalf("%s %s: response is not a JSON object: %s", method, path, raw)
		}
	}
	return resp.StatusCode, out
}

func command(t *testing.T, app *fiber.App, kind, text, method string) (int, map[string]any) {
	t.Helper()
	return call(t, app, "POST", "/api/v1/workflow/commands",
		map[string]string{"kind": kind, "text": text, "method": method}, nil)
}

func mustCommand(t *testing.T, app *fiber.App, kind, text, method string) map[string]any {
	t.Helper()
	status, snap := command(t, app, kind, text, method)
	if status != http.StatusOK {
		t.Fatalf("%s %q: expected 200, got %d: %v", kind, text, status, snap)
	}
	return snap
}

// sell records one order through the JSON workflow API and returns it.
func sell(t *testing.T, app *fiber.App, code, amount, method, tender string) map[string]any {
	t.Helper()
	if amount != "" {
		mustCommand(t, app, "set_amount", amount, "")
	}
	mustCommand(t, app, "set_token", code, "")
	mustCommand(t, app, "submit", "", "")
	mustCommand(t, app, "close_sale", "", method)
	if tender != "" {
		mustCommand(t, app, "set_tender", tender, "")
	}
	snap := mustCommand(t, app, "confirm", "", "")
	last, ok := snap["lastOrder"].(map[string]any)
	if !ok {
		t.Fatalf("no lastOrder after confirm: %v", snap)
	}
	return last
}

type logEntry map[string]any

type lockedBuf struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs routes the JSON logger into a buffer while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	applog.Init(buf, "debug")
	defer applog.Init(os.Stdout, "info")

	fn()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []logEntry, action string) logEntry {
	for _, e := range entries {
		if e["action"] == action {
			return e
		}
	}
	return nil
}
