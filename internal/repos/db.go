package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"tillpos/internal/domain"
	applog "tillpos/internal/log"
)

// OpenDB opens the till database and brings the schema up to date.
// The pool is capped at one connection: SQLite has a single writer anyway,
// and an in-memory database only lives as long as its connection.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", immediateTx(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err = db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if err = RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// immediateTx makes every transaction take the write lock when it begins.
// Two processes sharing a file then queue on busy_timeout instead of failing
// a read-to-write lock upgrade.
func immediateTx(dsn string) string {
	if strings.Contains(dsn, "_txlock=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_txlock=immediate"
}

type seedProduct struct {
	code, name  string
	price, cost string
	fractioned  bool
	inventory   int64
}

// SeedIfEmpty inserts a demo catalog when there are no products yet.
func SeedIfEmpty(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Info(nil, "seed.catalog", map[string]any{"products": len(demoCatalog)})

	products := NewProductRepo(db)
	for _, s := range demoCatalog {
		p := domain.Product{
			Code:         s.code,
			Name:         s.name,
			Price:        decimal.RequireFromString(s.price),
			Cost:         decimal.NewNullDecimal(decimal.RequireFromString(s.cost)),
			IsFractioned: s.fractioned,
		}
		if !s.fractioned {
			inv := s.inventory
			p.Inventory = &inv
		}
		if err := products.Create(ctx, &p); err != nil {
			return fmt.Errorf("seed %s: %w", s.code, err)
		}
	}
	return nil
}

var demoCatalog = []seedProduct{
	{code: "1", name: "Pão Francês (kg)", price: "16.90", cost: "9.50", fractioned: true},
	{code: "2", name: "Queijo Muçarela (kg)", price: "49.90", cost: "32.00", fractioned: true},
	{code: "10", name: "Café Pilão 500g", price: "18.49", cost: "12.90", inventory: 24},
	{code: "11", name: "Açúcar União 1kg", price: "5.99", cost: "3.80", inventory: 40},
	{code: "12", name: "Leite Integral 1L", price: "5.49", cost: "3.95", inventory: 60},
	{code: "13", name: "Manteiga com Sal 200g", price: "12.90", cost: "8.10", inventory: 18},
	{code: "20", name: "Refrigerante Guaraná 2L", price: "9.99", cost: "6.20", inventory: 30},
}
