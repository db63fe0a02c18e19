package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillpos/internal/domain"
	"tillpos/internal/draft"
	applog "tillpos/internal/log"
	"tillpos/internal/money"
	"tillpos/internal/repos"
)

var (
	ErrEmptyOrder           = errors.New("order must have at least one item")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrInsufficientPayment  = errors.New("cash tendered is less than the total")
	ErrCommitFailed         = errors.New("could not record the order")
	ErrOrderNotFound        = errors.New("order not found")
	// ErrSaleAlreadyRecorded means an earlier attempt with the same draft key
	// was stored with different contents; the draft must be reset.
	ErrSaleAlreadyRecorded = errors.New("this sale was already recorded with different items")
)

// CommitStore runs the order write in one transaction.
type CommitStore interface {
	WithTx(ctx context.Context, fn func(repos.OrderTx) error) error
}

// OrderReader is the history side used by the review screens.
type OrderReader interface {
	Get(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context, f repos.OrderFilter) ([]domain.Order, error)
	MaxCode(ctx context.Context) (int64, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

type CommitRequest struct {
	// Key identifies the draft. Replaying a key returns the order it produced.
	Key    string
	Lines  []draft.Line
	Method domain.PaymentMethod
	// PaymentTotal is the cash handed over; ignored for other methods.
	PaymentTotal *decimal.Decimal
}

type OrderService struct {
	Store  CommitStore
	Orders OrderReader

	// single writer per process; the store guards across processes
	mu sync.Mutex
}

func NewOrderService(store CommitStore, orders OrderReader) *OrderService {
	return &OrderService{Store: store, Orders: orders}
}

// Commit persists the draft lines as an order: order row, item rows and the
// inventory decrements of unit products land together or not at all.
// The draft itself is left to the caller.
func (s *OrderService) Commit(ctx context.Context, req CommitRequest) (domain.Order, error) {
	if len(req.Lines) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}
	if !req.Method.Valid() {
		return domain.Order{}, ErrInvalidPaymentMethod
	}
	order, err := buildOrder(req)
	if err != nil {
		return domain.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replayed := false
	err = s.Store.WithTx(ctx, func(tx repos.OrderTx) error {
		existing, err := tx.OrderByDraftKey(ctx, order.DraftKey)
		switch {
		case err == nil:
			if !sameSale(existing, order) {
				return fmt.Errorf("%w (order %d)", ErrSaleAlreadyRecorded, existing.Code)
			}
			order, replayed = existing, true
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, order.Items); err != nil {
			return err
		}
		for _, l := range req.Lines {
			if l.Product.IsFractioned {
				continue
			}
			if err := tx.DecrementInventory(ctx, l.Product.ID, l.Amount.IntPart()); err != nil {
				return fmt.Errorf("decrement %s: %w", l.Product.Code, err)
			}
		}
		return nil
	})
	if errors.Is(err, ErrSaleAlreadyRecorded) {
		applog.Security(nil, "order.commit.replay_mismatch", map[string]any{
			"draft_key": order.DraftKey, "items": order.ItemsAmount, "total": order.Total.StringFixed(2),
		})
		return domain.Order{}, err
	}
	if err != nil {
		applog.Error(nil, "order.commit.fail", err, map[string]any{
			"draft_key": order.DraftKey, "items": order.ItemsAmount, "total": order.Total.StringFixed(2),
		})
		return domain.Order{}, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	applog.Audit(nil, "order.commit", map[string]any{
		"order_id": order.ID,
		"code":     order.Code,
		"total":    order.Total.StringFixed(2),
		"method":   string(order.PaymentMethod),
		"replayed": replayed,
	})
	return order, nil
}

// sameSale reports whether a stored order matches a rebuilt one closely
// enough to be returned as its replay.
func sameSale(stored, req domain.Order) bool {
	return stored.ItemsAmount == req.ItemsAmount &&
		stored.Total.Equal(req.Total) &&
		stored.PaymentMethod == req.PaymentMethod
}

// buildOrder snapshots the lines into order items and computes the order
// aggregates. Every per-line money value is rounded before it is summed.
func buildOrder(req CommitRequest) (domain.Order, error) {
	now := domain.Now()
	key := req.Key
	if key == "" {
		key = uuid.NewString()
	}
	order := domain.Order{
		ID:            uuid.NewString(),
		DraftKey:      key,
		ItemsAmount:   len(req.Lines),
		PaymentMethod: req.Method,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         make([]domain.OrderItem, 0, len(req.Lines)),
	}

	var subtotals, costs, profits []decimal.Decimal
	for i, l := range req.Lines {
		p := l.Product
		productID := p.ID
		amount := money.RoundQty(l.Amount)
		item := domain.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: &productID,
			ItemCode:  i + 1,
			Code:      p.Code,
			Name:      p.Name,
			Amount:    amount,
			Price:     money.Round(p.Price),
			Subtotal:  money.LineTotal(p.Price, amount),
		}
		subtotals = append(subtotals, item.Subtotal)

		if p.Cost.Valid {
			costTotal := money.LineTotal(p.Cost.Decimal, amount)
			item.Cost = decimal.NewNullDecimal(money.Round(p.Cost.Decimal))
			item.CostTotal = decimal.NewNullDecimal(costTotal)
			costs = append(costs, costTotal)
		}
		if profit := p.UnitProfit(); profit.Valid {
			profitTotal := money.LineTotal(profit.Decimal, amount)
			item.Profit = decimal.NewNullDecimal(money.Round(profit.Decimal))
			item.ProfitTotal = decimal.NewNullDecimal(profitTotal)
			profits = append(profits, profitTotal)
		}
		order.Items = append(order.Items, item)
	}

	order.Total = money.Sum(subtotals...)
	order.Cost = money.Sum(costs...)
	order.Profit = money.Sum(profits...)

	order.PaymentTotal = order.Total
	if req.Method.AcceptsTender() && req.PaymentTotal != nil {
		tender := money.Round(*req.PaymentTotal)
		if tender.LessThan(order.Total) {
			return domain.Order{}, ErrInsufficientPayment
		}
		order.PaymentTotal = tender
	}
	if over := order.PaymentTotal.Sub(order.Total); over.IsPositive() {
		order.PaymentOver = decimal.NewNullDecimal(over)
	}
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, ErrOrderNotFound
	}
	return o, err
}

func (s *OrderService) List(ctx context.Context, f repos.OrderFilter) ([]domain.Order, error) {
	return s.Orders.List(ctx, f)
}

// NextCode is the code the next order will most likely receive (display only;
// the real code is assigned at insert).
func (s *OrderService) NextCode(ctx context.Context) (int64, error) {
	top, err := s.Orders.MaxCode(ctx)
	if err != nil {
		return 0, err
	}
	return top + 1, nil
}

func (s *OrderService) SoftDelete(ctx context.Context, id string) error {
	if err := s.Orders.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	}
	applog.Audit(nil, "order.delete", map[string]any{"order_id": id})
	return nil
}

func (s *OrderService) Restore(ctx context.Context, id string) error {
	if err := s.Orders.Restore(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	}
	applog.Audit(nil, "order.restore", map[string]any{"order_id": id})
	return nil
}
