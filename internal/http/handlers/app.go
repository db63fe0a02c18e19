package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"tillpos/internal/config"
	applog "tillpos/internal/log"
)

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// ErrorHandler logs the real error and answers with a friendly message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	msg := "Something went wrong. Please try again."
	if code < fiber.StatusInternalServerError {
		msg = fe.Message
	} else {
		applog.Error(c, "server.error", err, nil)
	}

	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// NewApp builds the fiber app: middlewares, the till screen and the JSON API.
func NewApp(cfg config.Config, deps *Deps) *fiber.App {
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","req_id":"${locals:requestid}","status":${status},"method":"${method}","path":"${path}","latency":"${latency}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Output:     applog.Writer(),
	}))
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: time.Minute,
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		// API writes accept JSON bodies only, which a plain form cannot send
		Next: isAPI,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf") != ""})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Till screen ----------
	app.Get("/", deps.TillHandler.Home)
	app.Post("/", deps.TillHandler.Command)

	// ---------- API ----------
	api := app.Group("/api/v1")
	api.Get("/workflow", deps.TillHandler.State)
	api.Post("/workflow/commands", deps.TillHandler.Dispatch)

	rate := cfg.LookupRate
	if rate <= 0 {
		rate = 30
	}
	lookupLimiter := limiter.New(limiter.Config{
		Max:        rate,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|lookup"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.lookup.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/products/lookup", lookupLimiter, deps.SearchHandler.Lookup)
	api.Get("/products/:code", deps.ProductHandler.Detail)
	api.Get("/availability", lookupLimiter, deps.InventoryHandler.Check)

	api.Get("/orders", deps.OrderHandler.List)
	api.Get("/orders/next-code", deps.OrderHandler.NextCode)
	api.Get("/orders/:id", deps.OrderHandler.View)

	// Manager routes (failed PIN attempts throttled)
	pinLimiter := limiter.New(limiter.Config{
		Max:                    5,
		Expiration:             10 * time.Minute,
		SkipSuccessfulRequests: true,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|manager"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.manager.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	})
	api.Post("/orders/:id/delete", pinLimiter, deps.RequireManager, deps.AdminHandler.DeleteOrder)
	api.Post("/orders/:id/restore", pinLimiter, deps.RequireManager, deps.AdminHandler.RestoreOrder)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if isAPI(c) {
			return jsonError(c, fiber.StatusNotFound, "not found")
		}
		return notFound(c, "Page not found")
	})

	return app
}
