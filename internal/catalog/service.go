package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// Store is the persistence boundary for products. Implementations own
// identity assignment and the creation timestamp.
type Store interface {
	Insert(ctx context.Context, in ProductInput) (Product, error)
	FindByID(ctx context.Context, id int64) (Product, error)
	FindAll(ctx context.Context, offset, limit int) ([]Product, error)
	FindByFilter(ctx context.Context, filter SearchFilter) ([]Product, int, error)
	Update(ctx context.Context, id int64, patch ProductPatch) (Product, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DistinctValues(ctx context.Context, column string) ([]string, error)
}

// Service owns the product business logic. It holds no product state across
// calls; everything durable lives behind the Store.
type Service struct {
	store  Store
	cache  *DistinctCache
	logger *slog.Logger
}

// NewService constructs a Service. The cache may be nil, in which case
// distinct-value listings always hit the store.
func NewService(store Store, cache *DistinctCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// List returns a page of products with no filtering.
func (s *Service) List(ctx context.Context, offset, limit int) ([]Product, error) {
	return s.store.FindAll(ctx, offset, limit)
}

// Get returns the product with the given id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id %d", ErrValidation, id)
	}
	return s.store.FindByID(ctx, id)
}

// Search returns products matching the filter plus the total match count
// ignoring pagination. With an empty filter it degrades to a plain listing
// and the total is the page length.
func (s *Service) Search(ctx context.Context, filter SearchFilter) ([]Product, int, error) {
	if filter.IsEmpty() {
		items, err := s.store.FindAll(ctx, filter.Offset, filter.Limit)
		if err != nil {
			return nil, 0, err
		}
		return items, len(items), nil
	}
	return s.store.FindByFilter(ctx, filter)
}

// Create stores a new product. When a nonzero sales price is supplied without
// an explicit tax-inclusive price, the inclusive price is derived from the
// sales tax rate string. A zero price skips derivation and leaves the
// inclusive price unset.
func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Product{}, fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if in.SalesPrice != nil && !in.SalesPrice.IsZero() && in.SalesPriceInclTax == nil {
		rate := ""
		if in.SalesTaxRate != nil {
			rate = *in.SalesTaxRate
		}
		incl := deriveInclTax(*in.SalesPrice, rate)
		in.SalesPriceInclTax = &incl
	}
	created, err := s.store.Insert(ctx, in)
	if err != nil {
		return Product{}, err
	}
	s.invalidateDistinct(ctx)
	return created, nil
}

// Update applies the patch to an existing product; nil patch fields keep
// their prior value. When the patch touches sales_price or sales_tax_rate
// without explicitly setting sales_price_incl_tax, the inclusive price is
// recomputed from the effective price and rate; a zero effective price skips
// the recomputation. A rate-only patch therefore
// overwrites a previously supplied inclusive price; that mirrors how the
// catalog has always behaved and existing clients depend on it.
func (s *Service) Update(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id %d", ErrValidation, id)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return Product{}, fmt.Errorf("%w: product name is required", ErrValidation)
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if patch.IsZero() {
		return existing, nil
	}
	if (patch.SalesPrice != nil || patch.SalesTaxRate != nil) && patch.SalesPriceInclTax == nil {
		price := existing.SalesPrice
		if patch.SalesPrice != nil {
			price = patch.SalesPrice
		}
		rate := ""
		switch {
		case patch.SalesTaxRate != nil:
			rate = *patch.SalesTaxRate
		case existing.SalesTaxRate != nil:
			rate = *existing.SalesTaxRate
		}
		if price != nil && !price.IsZero() {
			incl := deriveInclTax(*price, rate)
			patch.SalesPriceInclTax = &incl
		}
	}
	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return Product{}, err
	}
	s.invalidateDistinct(ctx)
	return updated, nil
}

// Delete removes the product and reports whether it existed. A repeat call
// for the same id reports false.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, fmt.Errorf("%w: invalid product id %d", ErrValidation, id)
	}
	found, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if found {
		s.invalidateDistinct(ctx)
	}
	return found, nil
}

// Categories lists the distinct non-empty category values.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, ColumnCategory)
}

// ProductTypes lists the distinct non-empty product_type values.
func (s *Service) ProductTypes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, ColumnProductType)
}

func (s *Service) distinct(ctx context.Context, column string) ([]string, error) {
	if s.cache == nil {
		return s.store.DistinctValues(ctx, column)
	}
	return s.cache.Fetch(ctx, column, func(ctx context.Context) ([]string, error) {
		return s.store.DistinctValues(ctx, column)
	})
}

func (s *Service) invalidateDistinct(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump distinct cache", slog.Any("error", err))
	}
}

// deriveInclTax computes price * (1 + rate/100) rounded half-up to two
// decimal places, matching the DECIMAL(10,2) storage scale.
func deriveInclTax(price decimal.Decimal, rateStr string) decimal.Decimal {
	rate := ParseTaxRate(rateStr)
	multiplier := decimal.NewFromFloat(1 + rate/100)
	return price.Mul(multiplier).Round(2)
}
