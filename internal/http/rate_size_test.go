package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tillpos/internal/config"
)

// burst lookups return 429
func TestLookupRateLimit(t *testing.T) {
	app, _ := newTestApp(t, func(c *config.Config) { c.LookupRate = 3 })

	for i := 0; i < 4; i++ {
		req := httptest.NewRequest("GET", "/api/v1/products/lookup?q=pao", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if i < 3 && resp.StatusCode != http.StatusOK {
			t.Fatalf("lookup %d: expected 200, got %d", i, resp.StatusCode)
		}
		if i == 3 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
		}
	}

	// availability shares the lookup budget
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/availability?code=10", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("availability: expected 429, got %d", resp.StatusCode)
	}

	// the till itself is not throttled by lookups
	status, _ := command(t, app, "set_token", "10", "")
	if status != http.StatusOK {
		t.Fatalf("workflow throttled: %d", status)
	}
}

func TestManagerPINAttemptsThrottled(t *testing.T) {
	app, _ := newTestApp(t, nil)

	path := "/api/v1/orders/some-order/delete"
	wrong := map[string]string{"X-Manager-PIN": "0000"}
	for i := 0; i < 5; i++ {
		status, _ := call(t, app, "POST", path, nil, wrong)
		if status != http.StatusForbidden {
			t.Fatalf("attempt %d: expected 403, got %d", i, status)
		}
	}
	status, _ := call(t, app, "POST", path, nil, map[string]string{"X-Manager-PIN": testPIN})
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated failures, got %d", status)
	}
}

func TestBodySizeLimit(t *testing.T) {
	app, _ := newTestApp(t, nil)
	tok := csrfToken(t, app)

	// Oversized body (>1MiB)
	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest("POST", "/", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	resp, err := app.Test(req)
	// Fiber returns an error instead of a response when body too large; treat that as pass
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 413 for oversize, got %d body=%s", resp.StatusCode, string(b))
	}
}
