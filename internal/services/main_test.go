package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tillpos/internal/domain"
	"tillpos/internal/draft"
	"tillpos/internal/repos"
	"tillpos/internal/services"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	db       *sqlx.DB
	products *repos.ProductRepo
	orders   *repos.OrderRepo
	inv      *repos.InventoryRepo
	svc      *services.OrderService
}

func newFixture(t *testing.T) *fixture {
	db := memdb(t)
	f := &fixture{
		db:       db,
		products: repos.NewProductRepo(db),
		orders:   repos.NewOrderRepo(db),
		inv:      repos.NewInventoryRepo(db),
	}
	f.svc = services.NewOrderService(repos.NewCommitStore(db), f.orders)
	return f
}

func (f *fixture) unitProduct(t *testing.T, code, name, price, cost string, inventory int64) domain.Product {
	t.Helper()
	p := domain.Product{Code: code, Name: name, Price: dec(price), Inventory: &inventory}
	if cost != "" {
		p.Cost = decimal.NewNullDecimal(dec(cost))
	}
	require.NoError(t, f.products.Create(context.Background(), &p))
	return p
}

func (f *fixture) weighedProduct(t *testing.T, code, name, price, cost string) domain.Product {
	t.Helper()
	p := domain.Product{Code: code, Name: name, Price: dec(price), IsFractioned: true}
	if cost != "" {
		p.Cost = decimal.NewNullDecimal(dec(cost))
	}
	require.NoError(t, f.products.Create(context.Background(), &p))
	return p
}

func (f *fixture) qty(t *testing.T, productID string) int64 {
	t.Helper()
	q, err := f.inv.Qty(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, q)
	return *q
}

func addLine(t *testing.T, d *draft.Draft, p domain.Product, amount string) {
	t.Helper()
	var a *decimal.Decimal
	if amount != "" {
		a = decp(amount)
	}
	_, err := d.Add(p, a)
	require.NoError(t, err)
}
