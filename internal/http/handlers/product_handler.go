package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tillpos/internal/log"
	"tillpos/internal/repos"
	"tillpos/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	p, err := h.Catalog.ProductByCode(c.UserContext(), c.Params("code"))
	if errors.Is(err, repos.ErrProductNotFound) {
		return jsonError(c, fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		log.Error(c, "product.detail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load the product")
	}
	return c.JSON(p)
}
