package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"tillpos/internal/config"
	applog "tillpos/internal/log"
	"tillpos/internal/validate"
)

const managerPINHeader = "X-Manager-PIN"

var ErrPINFormat = errors.New("manager PIN must be 4 to 8 digits")

// ManagerPINHash returns the bcrypt hash manager routes compare against.
// MANAGER_PIN_HASH wins over MANAGER_PIN; with neither set the hash is nil
// and every manager request is refused.
func ManagerPINHash(cfg config.Config) ([]byte, error) {
	if cfg.ManagerPINHash != "" {
		return []byte(cfg.ManagerPINHash), nil
	}
	if cfg.ManagerPIN == "" {
		applog.Security(nil, "manager.pin.unset", nil)
		return nil, nil
	}
	if !validate.PIN(cfg.ManagerPIN) {
		return nil, ErrPINFormat
	}
	return bcrypt.GenerateFromPassword([]byte(cfg.ManagerPIN), bcrypt.DefaultCost)
}

// RequireManager admits requests carrying the manager PIN in X-Manager-PIN.
func RequireManager(hash []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pin := c.Get(managerPINHeader)
		if len(hash) == 0 || !validate.PIN(pin) ||
			bcrypt.CompareHashAndPassword(hash, []byte(pin)) != nil {
			applog.Security(c, "access.denied.manager", map[string]any{"pin_sent": pin != ""})
			return jsonError(c, fiber.StatusForbidden, "manager PIN required")
		}
		return c.Next()
	}
}
