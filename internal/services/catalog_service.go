package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/sync/singleflight"

	"tillpos/internal/domain"
	"tillpos/internal/repos"
	"tillpos/internal/textnorm"
	"tillpos/internal/validate"
)

// ProductFinder is the read side of the catalog the lookup needs.
type ProductFinder interface {
	ByCode(ctx context.Context, code string) (domain.Product, error)
	ByNormalizedName(ctx context.Context, pattern string) ([]domain.Product, error)
}

type MatchKind int

const (
	NoMatch MatchKind = iota
	SingleMatch
	MultipleMatches
)

func (k MatchKind) String() string {
	switch k {
	case SingleMatch:
		return "single"
	case MultipleMatches:
		return "multiple"
	}
	return "none"
}

func (k MatchKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

type LookupResult struct {
	Kind     MatchKind        `json:"kind"`
	Products []domain.Product `json:"products"`
}

// Product returns the match of a SingleMatch result.
func (r LookupResult) Product() domain.Product {
	if len(r.Products) == 0 {
		return domain.Product{}
	}
	return r.Products[0]
}

func resultOf(products []domain.Product) LookupResult {
	switch len(products) {
	case 0:
		return LookupResult{Kind: NoMatch, Products: []domain.Product{}}
	case 1:
		return LookupResult{Kind: SingleMatch, Products: products}
	}
	return LookupResult{Kind: MultipleMatches, Products: products}
}

type CatalogService struct {
	Prods ProductFinder
	group singleflight.Group
}

func NewCatalogService(prods ProductFinder) *CatalogService {
	return &CatalogService{Prods: prods}
}

// Resolve turns what the operator typed into catalog matches. A code-shaped
// token that hits a code exactly wins outright; anything else is matched
// against folded names. No match is a result, not an error.
func (s *CatalogService) Resolve(ctx context.Context, token string) (LookupResult, error) {
	tok, ok := validate.Token(token)
	if !ok {
		return resultOf(nil), nil
	}
	v, err, _ := s.group.Do(tok, func() (any, error) {
		return s.resolve(ctx, tok)
	})
	if err != nil {
		return LookupResult{}, err
	}
	res := v.(LookupResult)
	// callers sharing a flight must not share the slice
	res.Products = append([]domain.Product(nil), res.Products...)
	return res, nil
}

func (s *CatalogService) resolve(ctx context.Context, tok string) (LookupResult, error) {
	if validate.IsCode(tok) {
		p, err := s.Prods.ByCode(ctx, tok)
		switch {
		case err == nil:
			return resultOf([]domain.Product{p}), nil
		case !errors.Is(err, sql.ErrNoRows):
			return LookupResult{}, err
		}
	}
	products, err := s.Prods.ByNormalizedName(ctx, textnorm.Pattern(tok))
	if err != nil {
		return LookupResult{}, err
	}
	return resultOf(products), nil
}

// ProductByCode returns the product with exactly this code.
func (s *CatalogService) ProductByCode(ctx context.Context, code string) (domain.Product, error) {
	if !validate.IsCode(code) {
		return domain.Product{}, repos.ErrProductNotFound
	}
	p, err := s.Prods.ByCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, repos.ErrProductNotFound
	}
	return p, err
}
