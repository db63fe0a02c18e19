package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"tillpos/internal/config"
	"tillpos/internal/repos"
	"tillpos/internal/services"
	"tillpos/internal/workflow"
)

type Deps struct {
	TillHandler      *TillHandler
	SearchHandler    *SearchHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler

	// RequireManager guards order deletion and restore.
	RequireManager fiber.Handler
}

func NewDeps(db *sqlx.DB, cfg config.Config) (*Deps, error) {
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo)
	invSvc := services.NewInventoryService(invRepo)
	orderSvc := services.NewOrderService(repos.NewCommitStore(db), orderRepo)
	flow := workflow.New(catalogSvc, orderSvc)

	pinHash, err := ManagerPINHash(cfg)
	if err != nil {
		return nil, err
	}

	return &Deps{
		TillHandler:      &TillHandler{Flow: flow, Orders: orderSvc},
		SearchHandler:    &SearchHandler{Catalog: catalogSvc, Inv: invSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Catalog: catalogSvc, Inv: invSvc},
		OrderHandler:     &OrderHandler{Orders: orderSvc},
		AdminHandler:     &AdminHandler{Orders: orderSvc},
		RequireManager:   RequireManager(pinHash),
	}, nil
}
