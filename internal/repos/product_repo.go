package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"tillpos/internal/domain"
	"tillpos/internal/textnorm"
	"tillpos/internal/validate"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `
    id, code, name, search_name, price, cost, profit, is_fractioned, inventory,
    created_at, updated_at`

// ByCode returns the product with exactly this code, or sql.ErrNoRows.
func (r *ProductRepo) ByCode(ctx context.Context, code string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE code = ?`, code)
	return p, err
}

// ByNormalizedName matches a textnorm.Pattern against the folded names,
// ordered by numeric code.
func (r *ProductRepo) ByNormalizedName(ctx context.Context, pattern string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT `+productColumns+`
  FROM products
  WHERE search_name LIKE ? ESCAPE '\'
  ORDER BY CAST(code AS INTEGER), code
`, pattern)
	return out, err
}

// Create validates and inserts a product, filling id, search name, derived
// profit and timestamps. Fractioned products never carry an inventory.
func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if err := validate.Product(*p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.SearchName = textnorm.Normalize(p.Name)
	if p.Cost.Valid && !p.Profit.Valid {
		p.Profit = decimal.NewNullDecimal(p.Price.Sub(p.Cost.Decimal))
	}
	if p.IsFractioned {
		p.Inventory = nil
	}
	now := domain.Now()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO products
	    (id, code, name, search_name, price, cost, profit, is_fractioned, inventory, created_at, updated_at)
	  VALUES
	    (:id, :code, :name, :search_name, :price, :cost, :profit, :is_fractioned, :inventory, :created_at, :updated_at)
	`, p)
	return err
}
