package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tillpos/internal/domain"
)

// OrderTx is the write side of an order commit. Every call runs inside the
// same database transaction.
type OrderTx interface {
	OrderByDraftKey(ctx context.Context, key string) (domain.Order, error)
	InsertOrder(ctx context.Context, o *domain.Order) error
	InsertItems(ctx context.Context, items []domain.OrderItem) error
	DecrementInventory(ctx context.Context, productID string, by int64) error
}

type CommitStore struct{ db *sqlx.DB }

func NewCommitStore(db *sqlx.DB) *CommitStore { return &CommitStore{db: db} }

// WithTx runs fn in a transaction, committing only when fn returns nil.
func (s *CommitStore) WithTx(ctx context.Context, fn func(OrderTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&orderTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type orderTx struct{ tx *sqlx.Tx }

func (t *orderTx) OrderByDraftKey(ctx context.Context, key string) (domain.Order, error) {
	return getOrder(ctx, t.tx, `draft_key = ?`, key)
}

// InsertOrder assigns the next code in the same statement that inserts the
// row, so no other writer can observe the same MAX(code). Deleted orders keep
// their codes because rows are never removed.
func (t *orderTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	row := t.tx.QueryRowxContext(ctx, `
	  INSERT INTO orders
	    (id, code, draft_key, items_amount, total, payment_method, payment_total, payment_over,
	     cost, profit, created_at, updated_at)
	  SELECT ?, COALESCE(MAX(code), 0) + 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
	  FROM orders
	  RETURNING code
	`, o.ID, o.DraftKey, o.ItemsAmount, o.Total, o.PaymentMethod, o.PaymentTotal, o.PaymentOver,
		o.Cost, o.Profit, o.CreatedAt, o.UpdatedAt)
	if err := row.Scan(&o.Code); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *orderTx) InsertItems(ctx context.Context, items []domain.OrderItem) error {
	for _, it := range items {
		if _, err := t.tx.NamedExecContext(ctx, `
		  INSERT INTO order_items
		    (id, order_id, product_id, item_code, code, name, amount, price, subtotal,
		     cost, cost_total, profit, profit_total)
		  VALUES
		    (:id, :order_id, :product_id, :item_code, :code, :name, :amount, :price, :subtotal,
		     :cost, :cost_total, :profit, :profit_total)
		`, it); err != nil {
			return fmt.Errorf("insert item %d: %w", it.ItemCode, err)
		}
	}
	return nil
}

func (t *orderTx) DecrementInventory(ctx context.Context, productID string, by int64) error {
	return decrement(ctx, t.tx, productID, by)
}
