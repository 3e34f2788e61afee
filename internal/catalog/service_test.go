package catalog

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	products  map[int64]Product
	order     []int64
	nextID    int64
	insertErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{products: make(map[int64]Product)}
}

func (m *memoryStore) Insert(ctx context.Context, in ProductInput) (Product, error) {
	if m.insertErr != nil {
		return Product{}, m.insertErr
	}
	m.nextID++
	p := Product{
		ProductID:         m.nextID,
		Name:              in.Name,
		ProductType:       in.ProductType,
		SalesPrice:        in.SalesPrice,
		SalesTaxRate:      in.SalesTaxRate,
		SalesPriceInclTax: in.SalesPriceInclTax,
		Cost:              in.Cost,
		PurchaseTaxRate:   in.PurchaseTaxRate,
		Category:          in.Category,
		Reference:         in.Reference,
		Barcode:           in.Barcode,
		InternalNotes:     in.InternalNotes,
		Description:       in.Description,
		InvoicingPolicy:   in.InvoicingPolicy,
		CreatedBy:         in.CreatedBy,
		CreatedAt:         time.Now(),
	}
	m.products[p.ProductID] = p
	m.order = append(m.order, p.ProductID)
	return p, nil
}

func (m *memoryStore) FindByID(ctx context.Context, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) FindAll(ctx context.Context, offset, limit int) ([]Product, error) {
	all := m.all()
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *memoryStore) FindByFilter(ctx context.Context, filter SearchFilter) ([]Product, int, error) {
	var matches []Product
	for _, p := range m.all() {
		if filter.Name != "" && !strings.Contains(p.Name, filter.Name) {
			continue
		}
		if filter.Category != "" && (p.Category == nil || !strings.Contains(*p.Category, filter.Category)) {
			continue
		}
		if filter.ProductType != "" && (p.ProductType == nil || *p.ProductType != filter.ProductType) {
			continue
		}
		if filter.MinPrice != nil && (p.SalesPrice == nil || p.SalesPrice.LessThan(*filter.MinPrice)) {
			continue
		}
		if filter.MaxPrice != nil && (p.SalesPrice == nil || p.SalesPrice.GreaterThan(*filter.MaxPrice)) {
			continue
		}
		matches = append(matches, p)
	}
	total := len(matches)
	if filter.Offset < len(matches) {
		matches = matches[filter.Offset:]
	} else {
		matches = nil
	}
	if filter.Limit > 0 && filter.Limit < len(matches) {
		matches = matches[:filter.Limit]
	}
	return matches, total, nil
}

func (m *memoryStore) Update(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.ProductType != nil {
		p.ProductType = patch.ProductType
	}
	if patch.SalesPrice != nil {
		p.SalesPrice = patch.SalesPrice
	}
	if patch.SalesTaxRate != nil {
		p.SalesTaxRate = patch.SalesTaxRate
	}
	if patch.SalesPriceInclTax != nil {
		p.SalesPriceInclTax = patch.SalesPriceInclTax
	}
	if patch.Cost != nil {
		p.Cost = patch.Cost
	}
	if patch.PurchaseTaxRate != nil {
		p.PurchaseTaxRate = patch.PurchaseTaxRate
	}
	if patch.Category != nil {
		p.Category = patch.Category
	}
	if patch.Reference != nil {
		p.Reference = patch.Reference
	}
	if patch.Barcode != nil {
		p.Barcode = patch.Barcode
	}
	if patch.InternalNotes != nil {
		p.InternalNotes = patch.InternalNotes
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.InvoicingPolicy != nil {
		p.InvoicingPolicy = patch.InvoicingPolicy
	}
	if patch.CreatedBy != nil {
		p.CreatedBy = patch.CreatedBy
	}
	m.products[id] = p
	return p, nil
}

func (m *memoryStore) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.products[id]; !ok {
		return false, nil
	}
	delete(m.products, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *memoryStore) DistinctValues(ctx context.Context, column string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, p := range m.products {
		var v *string
		switch column {
		case ColumnCategory:
			v = p.Category
		case ColumnProductType:
			v = p.ProductType
		}
		if v == nil || *v == "" {
			continue
		}
		seen[*v] = struct{}{}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

func (m *memoryStore) all() []Product {
	out := make([]Product, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.products[id])
	}
	return out
}

func strPtr(s string) *string { return &s }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateDerivesInclTaxPrice(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{
		Name:         "Desk Lamp",
		SalesPrice:   decp("100"),
		SalesTaxRate: strPtr("15%"),
	})
	require.NoError(t, err)
	require.NotNil(t, created.SalesPriceInclTax)
	require.Equal(t, "115.00", created.SalesPriceInclTax.StringFixed(2))

	created, err = svc.Create(ctx, ProductInput{
		Name:         "Desk Lamp Pro",
		SalesPrice:   decp("100"),
		SalesTaxRate: strPtr("tax 15.5 pct"),
	})
	require.NoError(t, err)
	require.Equal(t, "115.50", created.SalesPriceInclTax.StringFixed(2))
}

func TestCreateKeepsExplicitInclTaxPrice(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)

	created, err := svc.Create(context.Background(), ProductInput{
		Name:              "Bundle",
		SalesPrice:        decp("100"),
		SalesTaxRate:      strPtr("15%"),
		SalesPriceInclTax: decp("110"),
	})
	require.NoError(t, err)
	require.Equal(t, "110.00", created.SalesPriceInclTax.StringFixed(2))
}

func TestCreateWithoutPriceSkipsDerivation(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)

	created, err := svc.Create(context.Background(), ProductInput{
		Name:         "Service Fee",
		SalesTaxRate: strPtr("15%"),
	})
	require.NoError(t, err)
	require.Nil(t, created.SalesPriceInclTax)
}

func TestCreateZeroPriceSkipsDerivation(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)

	created, err := svc.Create(context.Background(), ProductInput{
		Name:         "Free Sample",
		SalesPrice:   decp("0"),
		SalesTaxRate: strPtr("15%"),
	})
	require.NoError(t, err)
	require.Nil(t, created.SalesPriceInclTax)
}

func TestUpdateZeroPriceSkipsRecompute(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{
		Name:         "Lamp",
		SalesPrice:   decp("100"),
		SalesTaxRate: strPtr("15%"),
	})
	require.NoError(t, err)
	require.Equal(t, "115", created.SalesPriceInclTax.String())

	updated, err := svc.Update(ctx, created.ProductID, ProductPatch{SalesPrice: decp("0")})
	require.NoError(t, err)
	require.True(t, updated.SalesPrice.IsZero())
	require.Equal(t, "115", updated.SalesPriceInclTax.String(),
		"a zero price must not rederive the inclusive price")
}

func TestCreateRejectsEmptyName(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)

	_, err := svc.Create(context.Background(), ProductInput{Name: "   "})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateRecomputesInclTaxOnRateChange(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{
		Name:         "Chair",
		SalesPrice:   decp("100"),
		SalesTaxRate: strPtr("15%"),
	})
	require.NoError(t, err)
	require.Equal(t, "115.00", created.SalesPriceInclTax.StringFixed(2))

	updated, err := svc.Update(ctx, created.ProductID, ProductPatch{
		SalesTaxRate: strPtr("20%"),
	})
	require.NoError(t, err)
	require.Equal(t, "120.00", updated.SalesPriceInclTax.StringFixed(2))
}

func TestUpdateUsesEffectivePriceAndRate(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{
		Name:         "Table",
		SalesPrice:   decp("50"),
		SalesTaxRate: strPtr("10%"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ProductID, ProductPatch{
		SalesPrice: decp("200"),
	})
	require.NoError(t, err)
	require.Equal(t, "220.00", updated.SalesPriceInclTax.StringFixed(2))
}

func TestUpdateExplicitInclTaxWins(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{
		Name:         "Shelf",
		SalesPrice:   decp("100"),
		SalesTaxRate: strPtr("15%"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ProductID, ProductPatch{
		SalesPrice:        decp("300"),
		SalesPriceInclTax: decp("333"),
	})
	require.NoError(t, err)
	require.Equal(t, "333.00", updated.SalesPriceInclTax.StringFixed(2))
}

func TestUpdateMissingProduct(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)

	_, err := svc.Update(context.Background(), 42, ProductPatch{Name: strPtr("Ghost")})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEmptyPatchReturnsExisting(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{Name: "Desk", SalesPrice: decp("99.00")})
	require.NoError(t, err)

	got, err := svc.Update(ctx, created.ProductID, ProductPatch{})
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestDeleteThenGetReportsNotFound(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{Name: "Ephemeral"})
	require.NoError(t, err)

	found, err := svc.Delete(ctx, created.ProductID)
	require.NoError(t, err)
	require.True(t, found)

	_, err = svc.Get(ctx, created.ProductID)
	require.ErrorIs(t, err, ErrNotFound)

	found, err = svc.Delete(ctx, created.ProductID)
	require.NoError(t, err)
	require.False(t, found)
}

func TestSearchPriceBounds(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	for _, price := range []string{"5", "10", "15", "20", "25"} {
		_, err := svc.Create(ctx, ProductInput{Name: "P" + price, SalesPrice: decp(price)})
		require.NoError(t, err)
	}

	items, total, err := svc.Search(ctx, SearchFilter{
		MinPrice: decp("10"),
		MaxPrice: decp("20"),
		Limit:    2,
	})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, items, 2)
	for _, p := range items {
		require.True(t, p.SalesPrice.GreaterThanOrEqual(decimal.RequireFromString("10")))
		require.True(t, p.SalesPrice.LessThanOrEqual(decimal.RequireFromString("20")))
	}
}

func TestSearchEmptyFilterBehavesAsList(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Create(ctx, ProductInput{Name: "Item"})
		require.NoError(t, err)
	}

	items, total, err := svc.Search(ctx, SearchFilter{Offset: 0, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 4)
	require.Equal(t, 4, total)
}

func TestDistinctListingsExcludeEmpty(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	inputs := []ProductInput{
		{Name: "A", Category: strPtr("Office"), ProductType: strPtr("consu")},
		{Name: "B", Category: strPtr("Office"), ProductType: strPtr("service")},
		{Name: "C", Category: strPtr(""), ProductType: nil},
		{Name: "D", Category: strPtr("Kitchen")},
	}
	for _, in := range inputs {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Kitchen", "Office"}, categories)

	types, err := svc.ProductTypes(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"consu", "service"}, types)
}

func TestGetRejectsNonPositiveID(t *testing.T) {
	svc := NewService(newMemoryStore(), nil, nil)

	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, ErrValidation)
}
