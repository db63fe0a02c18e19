package handlers_test

import (
	"net/http"
	"testing"

	"tillpos/internal/config"
)

func TestManagerRoutesRequirePIN(t *testing.T) {
	app, _ := newTestApp(t, nil)
	order := sell(t, app, "11", "3", "PIX", "")
	id := order["id"].(string)

	for _, hdr := range []map[string]string{
		nil,
		{"X-Manager-PIN": "9999"},
		{"X-Manager-PIN": "12ab"},
	} {
		status, out := call(t, app, "POST", "/api/v1/orders/"+id+"/delete", nil, hdr)
		if status != http.StatusForbidden || out["error"] != "manager PIN required" {
			t.Fatalf("pin %v: expected 403, got %d %v", hdr, status, out)
		}
	}

	status, list := call(t, app, "GET", "/api/v1/orders", nil, nil)
	if status != http.StatusOK || list["count"] != float64(1) {
		t.Fatalf("order deleted without a PIN: %v", list)
	}
}

func TestManagerDeleteAndRestore(t *testing.T) {
	app, _ := newTestApp(t, nil)
	pin := map[string]string{"X-Manager-PIN": testPIN}

	first := sell(t, app, "10", "2", "CARD", "")
	sell(t, app, "20", "", "CASH", "10")

	id := first["id"].(string)
	status, o := call(t, app, "POST", "/api/v1/orders/"+id+"/delete", nil, pin)
	if status != http.StatusOK || o["deletedAt"] == nil {
		t.Fatalf("delete: %d %v", status, o)
	}

	_, list := call(t, app, "GET", "/api/v1/orders", nil, nil)
	if list["count"] != float64(1) {
		t.Fatalf("deleted order still listed: %v", list)
	}
	_, list = call(t, app, "GET", "/api/v1/orders?deleted=true", nil, nil)
	if list["count"] != float64(2) {
		t.Fatalf("deleted=true should include it: %v", list)
	}

	// deleting an order never frees its code
	_, next := call(t, app, "GET", "/api/v1/orders/next-code", nil, nil)
	if next["nextCode"] != float64(3) {
		t.Fatalf("next code after delete: %v", next)
	}

	status, o = call(t, app, "POST", "/api/v1/orders/"+id+"/restore", nil, pin)
	if status != http.StatusOK || o["deletedAt"] != nil {
		t.Fatalf("restore: %d %v", status, o)
	}
	_, list = call(t, app, "GET", "/api/v1/orders", nil, nil)
	if list["count"] != float64(2) {
		t.Fatalf("restored order not listed: %v", list)
	}

	status, _ = call(t, app, "POST", "/api/v1/orders/missing-order/delete", nil, pin)
	if status != http.StatusNotFound {
		t.Fatalf("unknown order: expected 404, got %d", status)
	}
}

func TestManagerRoutesClosedWithoutPIN(t *testing.T) {
	app, _ := newTestApp(t, func(c *config.Config) { c.ManagerPIN = "" })
	order := sell(t, app, "12", "", "PIX", "")

	status, _ := call(t, app, "POST", "/api/v1/orders/"+order["id"].(string)+"/delete", nil,
		map[string]string{"X-Manager-PIN": testPIN})
	if status != http.StatusForbidden {
		t.Fatalf("no PIN configured: expected 403, got %d", status)
	}
}
