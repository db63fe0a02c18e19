package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tillpos/internal/domain"
	"tillpos/internal/log"
	"tillpos/internal/services"
	"tillpos/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
	Inv     *services.InventoryService
}

type lookupItem struct {
	domain.Product
	Availability domain.Availability `json:"availability"`
}

// Lookup resolves q the way the till's product field does and reports the
// stock of every match.
func (h *SearchHandler) Lookup(c *fiber.Ctx) error {
	q, ok := validate.Token(c.Query("q"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q"})
		return jsonError(c, fiber.StatusBadRequest, "enter a product code or name")
	}

	res, err := h.Catalog.Resolve(c.UserContext(), q)
	if err != nil {
		log.Error(c, "lookup.error", err, map[string]any{"q": q})
		return jsonError(c, fiber.StatusInternalServerError, "could not search the catalog, please retry")
	}

	items := make([]lookupItem, 0, len(res.Products))
	for _, p := range res.Products {
		a, err := h.Inv.Availability(c.UserContext(), p)
		if err != nil {
			log.Error(c, "lookup.availability", err, map[string]any{"code": p.Code})
			return jsonError(c, fiber.StatusInternalServerError, "could not search the catalog, please retry")
		}
		items = append(items, lookupItem{Product: p, Availability: a})
	}
	return c.JSON(fiber.Map{"query": q, "kind": res.Kind, "products": items})
}
