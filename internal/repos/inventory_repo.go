package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tillpos/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Qty returns the inventory counter of a product; nil when it is not tracked.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (*int64, error) {
	var qty sql.NullInt64
	if err := r.db.GetContext(ctx, &qty, `SELECT inventory FROM products WHERE id = ?`, productID); err != nil {
		return nil, err
	}
	if !qty.Valid {
		return nil, nil
	}
	return &qty.Int64, nil
}

// decrement subtracts "by" units from a non-fractioned product. The counter
// may go negative: a sale is never blocked by a stale stock count. A NULL
// counter stays NULL.
func decrement(ctx context.Context, ex sqlx.ExecerContext, productID string, by int64) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE products
		SET inventory = inventory - ?, updated_at = ?
		WHERE id = ? AND is_fractioned = 0
	`, by, domain.Now(), productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return nil
}
