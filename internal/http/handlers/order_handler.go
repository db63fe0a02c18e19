package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tillpos/internal/domain"
	applog "tillpos/internal/log"
	"tillpos/internal/repos"
	"tillpos/internal/services"
	"tillpos/internal/validate"
)

const maxOrderPage = 200

type OrderHandler struct {
	Orders *services.OrderService
}

// orderFilter reads start, end, method, deleted and limit from the query.
func orderFilter(c *fiber.Ctx) (repos.OrderFilter, bool) {
	start, end, err := validate.Period(c.Query("start"), c.Query("end"))
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "period"})
		return repos.OrderFilter{}, false
	}
	f := repos.OrderFilter{Start: start, End: end, IncludeDeleted: c.QueryBool("deleted")}
	if raw := c.Query("method"); raw != "" {
		m, ok := validate.PaymentMethod(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "method"})
			return repos.OrderFilter{}, false
		}
		f.Method = m
	}
	f.Limit = c.QueryInt("limit", 30)
	if f.Limit < 1 || f.Limit > maxOrderPage {
		applog.Security(c, "validation.fail", map[string]any{"field": "limit"})
		return repos.OrderFilter{}, false
	}
	return f, true
}

// List returns the most recent orders first.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	f, ok := orderFilter(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid filter")
	}
	orders, err := h.Orders.List(c.UserContext(), f)
	if err != nil {
		applog.Error(c, "orders.list.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load orders")
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return c.JSON(fiber.Map{"orders": orders, "count": len(orders)})
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "order not found")
	}
	o, err := h.Orders.Get(c.UserContext(), id)
	if errors.Is(err, services.ErrOrderNotFound) {
		return jsonError(c, fiber.StatusNotFound, "order not found")
	}
	if err != nil {
		applog.Error(c, "orders.view.fail", err, map[string]any{"order_id": id})
		return jsonError(c, fiber.StatusInternalServerError, "could not load the order")
	}
	return c.JSON(o)
}

func (h *OrderHandler) NextCode(c *fiber.Ctx) error {
	next, err := h.Orders.NextCode(c.UserContext())
	if err != nil {
		applog.Error(c, "orders.next_code", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not read order codes")
	}
	return c.JSON(fiber.Map{"nextCode": next})
}
