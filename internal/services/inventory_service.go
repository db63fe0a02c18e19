package services

import (
	"context"
	"database/sql"
	"errors"

	"tillpos/internal/domain"
)

type StockReader interface {
	Qty(ctx context.Context, productID string) (*int64, error)
}

type InventoryService struct {
	Inv StockReader
}

func NewInventoryService(inv StockReader) *InventoryService {
	return &InventoryService{Inv: inv}
}

// lowStockAt is the highest count still reported as LOW_STOCK.
const lowStockAt = 2

// Availability converts the counter to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
// Weighed products and products without a counter are UNTRACKED.
func (s *InventoryService) Availability(ctx context.Context, p domain.Product) (domain.Availability, error) {
	if p.IsFractioned {
		return domain.Availability{Status: domain.StockUntracked}, nil
	}
	qty, err := s.Inv.Qty(ctx, p.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Availability{Status: domain.StockOut}, nil
		}
		return domain.Availability{}, err
	}
	if qty == nil {
		return domain.Availability{Status: domain.StockUntracked}, nil
	}

	status := domain.StockOut
	switch {
	case *qty > lowStockAt:
		status = domain.StockIn
	case *qty > 0:
		status = domain.StockLow
	}
	return domain.Availability{Status: status, Qty: *qty}, nil
}
