package repos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"tillpos/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `
    id, code, draft_key, items_amount, total, payment_method, payment_total, payment_over,
    cost, profit, created_at, updated_at, deleted_at`

const itemColumns = `
    id, order_id, product_id, item_code, code, name, amount, price, subtotal,
    cost, cost_total, profit, profit_total`

// OrderFilter narrows the order history. Zero values mean "any".
type OrderFilter struct {
	Start          string
	End            string
	Method         domain.PaymentMethod
	IncludeDeleted bool
	Limit          int
}

// MaxCode returns the highest order code ever assigned, soft-deleted orders
// included; 0 when there are none.
func (r *OrderRepo) MaxCode(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	if err := r.db.GetContext(ctx, &max, `SELECT MAX(code) FROM orders`); err != nil {
		return 0, err
	}
	return max.Int64, nil
}

// Get loads an order with its items in item-code order.
func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	return getOrder(ctx, r.db, `id = ?`, id)
}

func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if !f.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if f.Start != "" {
		where = append(where, "created_at >= ?")
		args = append(args, f.Start)
	}
	if f.End != "" {
		where = append(where, "created_at <= ?")
		args = append(args, f.End)
	}
	if f.Method != "" {
		where = append(where, "payment_method = ?")
		args = append(args, f.Method)
	}
	if f.Limit <= 0 {
		f.Limit = 30
	}
	args = append(args, f.Limit)

	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_at DESC, code DESC
		LIMIT ?
	`, args...)
	return out, err
}

// SoftDelete marks an order deleted. Its code stays taken.
func (r *OrderRepo) SoftDelete(ctx context.Context, id string) error {
	now := domain.Now()
	return r.touch(ctx, `UPDATE orders SET deleted_at = COALESCE(deleted_at, ?), updated_at = ? WHERE id = ?`, now, now, id)
}

func (r *OrderRepo) Restore(ctx context.Context, id string) error {
	return r.touch(ctx, `UPDATE orders SET deleted_at = NULL, updated_at = ? WHERE id = ?`, domain.Now(), id)
}

func (r *OrderRepo) touch(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func getOrder(ctx context.Context, q sqlx.QueryerContext, where string, arg any) (domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, q, &o, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg); err != nil {
		return domain.Order{}, err
	}
	items := []domain.OrderItem{}
	if err := sqlx.SelectContext(ctx, q, &items, `
		SELECT `+itemColumns+`
		FROM order_items
		WHERE order_id = ?
		ORDER BY item_code
	`, o.ID); err != nil {
		return domain.Order{}, err
	}
	o.Items = items
	return o, nil
}
