package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "tillpos/internal/log"
	"tillpos/internal/services"
	"tillpos/internal/validate"
)

// AdminHandler serves the manager-only routes.
type AdminHandler struct {
	Orders *services.OrderService
}

func (h *AdminHandler) DeleteOrder(c *fiber.Ctx) error {
	return h.setDeleted(c, true)
}

func (h *AdminHandler) RestoreOrder(c *fiber.Ctx) error {
	return h.setDeleted(c, false)
}

func (h *AdminHandler) setDeleted(c *fiber.Ctx, deleted bool) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "order_id"})
		return jsonError(c, fiber.StatusNotFound, "order not found")
	}

	op, action := h.Orders.Restore, "admin.order.restore"
	if deleted {
		op, action = h.Orders.SoftDelete, "admin.order.delete"
	}
	if err := op(c.UserContext(), id); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return jsonError(c, fiber.StatusNotFound, "order not found")
		}
		applog.Error(c, action+".fail", err, map[string]any{"order_id": id})
		return jsonError(c, fiber.StatusInternalServerError, "could not update the order")
	}
	applog.Audit(c, action, map[string]any{"order_id": id})

	o, err := h.Orders.Get(c.UserContext(), id)
	if err != nil {
		applog.Error(c, action+".reload", err, map[string]any{"order_id": id})
		return c.JSON(fiber.Map{"id": id, "deleted": deleted})
	}
	return c.JSON(o)
}
