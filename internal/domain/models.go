package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is fixed-width so stored timestamps compare lexically.
const TimeLayout = "2006-01-02T15:04:05.000Z"

func Now() string { return time.Now().UTC().Format(TimeLayout) }

type Product struct {
	ID           string              `db:"id" json:"id"`
	Code         string              `db:"code" json:"code"`
	Name         string              `db:"name" json:"name"`
	SearchName   string              `db:"search_name" json:"-"`
	Price        decimal.Decimal     `db:"price" json:"price"`
	Cost         decimal.NullDecimal `db:"cost" json:"cost"`
	Profit       decimal.NullDecimal `db:"profit" json:"profit"`
	IsFractioned bool                `db:"is_fractioned" json:"isFractioned"`
	Inventory    *int64              `db:"inventory" json:"inventory"`
	CreatedAt    string              `db:"created_at" json:"createdAt"`
	UpdatedAt    string              `db:"updated_at" json:"updatedAt"`
}

// UnitProfit is the stored profit, or price - cost when only cost is known.
func (p Product) UnitProfit() decimal.NullDecimal {
	if p.Profit.Valid {
		return p.Profit
	}
	if p.Cost.Valid {
		return decimal.NullDecimal{Decimal: p.Price.Sub(p.Cost.Decimal), Valid: true}
	}
	return decimal.NullDecimal{}
}

type Order struct {
	ID            string              `db:"id" json:"id"`
	Code          int64               `db:"code" json:"code"`
	DraftKey      string              `db:"draft_key" json:"-"`
	ItemsAmount   int                 `db:"items_amount" json:"itemsAmount"`
	Total         decimal.Decimal     `db:"total" json:"total"`
	PaymentMethod PaymentMethod       `db:"payment_method" json:"paymentMethod"`
	PaymentTotal  decimal.Decimal     `db:"payment_total" json:"paymentTotal"`
	PaymentOver   decimal.NullDecimal `db:"payment_over" json:"paymentOver"`
	Cost          decimal.Decimal     `db:"cost" json:"cost"`
	Profit        decimal.Decimal     `db:"profit" json:"profit"`
	CreatedAt     string              `db:"created_at" json:"createdAt"`
	UpdatedAt     string              `db:"updated_at" json:"updatedAt"`
	DeletedAt     *string             `db:"deleted_at" json:"deletedAt"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

func (o Order) Deleted() bool { return o.DeletedAt != nil }

type OrderItem struct {
	ID          string              `db:"id" json:"id"`
	OrderID     string              `db:"order_id" json:"orderId"`
	ProductID   *string             `db:"product_id" json:"productId"`
	ItemCode    int                 `db:"item_code" json:"itemCode"`
	Code        string              `db:"code" json:"code"`
	Name        string              `db:"name" json:"name"`
	Amount      decimal.Decimal     `db:"amount" json:"amount"`
	Price       decimal.Decimal     `db:"price" json:"price"`
	Subtotal    decimal.Decimal     `db:"subtotal" json:"subtotal"`
	Cost        decimal.NullDecimal `db:"cost" json:"cost"`
	CostTotal   decimal.NullDecimal `db:"cost_total" json:"costTotal"`
	Profit      decimal.NullDecimal `db:"profit" json:"profit"`
	ProfitTotal decimal.NullDecimal `db:"profit_total" json:"profitTotal"`
}
