package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"tillpos/internal/repos"
	"tillpos/internal/services"
	"tillpos/internal/validate"
)

type InventoryHandler struct {
	Catalog *services.CatalogService
	Inv     *services.InventoryService
}

func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Query("code"))
	if !validate.IsCode(code) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "enter a valid product code",
		})
	}

	p, err := h.Catalog.ProductByCode(c.UserContext(), code)
	if errors.Is(err, repos.ErrProductNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not check stock"})
	}

	avail, err := h.Inv.Availability(c.UserContext(), p)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not check stock"})
	}
	return c.JSON(fiber.Map{"code": p.Code, "name": p.Name, "status": avail.Status, "qty": avail.Qty})
}
