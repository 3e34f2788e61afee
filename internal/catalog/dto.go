package catalog

import "github.com/shopspring/decimal"

// ProductInput carries the writable fields for a create call. Optional fields
// left nil are stored as NULL.
type ProductInput struct {
	Name              string           `json:"name" validate:"required,max=255"`
	ProductType       *string          `json:"product_type" validate:"omitempty,max=100"`
	SalesPrice        *decimal.Decimal `json:"sales_price"`
	SalesTaxRate      *string          `json:"sales_tax_rate" validate:"omitempty,max=50"`
	SalesPriceInclTax *decimal.Decimal `json:"sales_price_incl_tax"`
	Cost              *decimal.Decimal `json:"cost"`
	PurchaseTaxRate   *string          `json:"purchase_tax_rate" validate:"omitempty,max=50"`
	Category          *string          `json:"category" validate:"omitempty,max=100"`
	Reference         *string          `json:"reference" validate:"omitempty,max=100"`
	Barcode           *string          `json:"barcode" validate:"omitempty,max=100"`
	InternalNotes     *string          `json:"internal_notes"`
	Description       *string          `json:"description"`
	InvoicingPolicy   *string          `json:"invoicing_policy" validate:"omitempty,max=100"`
	CreatedBy         *string          `json:"created_by" validate:"omitempty,max=100"`
}

// ProductPatch is the partial-update overlay: every updatable field as a
// pointer, nil meaning "leave as is". Applied field by field in the service.
type ProductPatch struct {
	Name              *string          `json:"name" validate:"omitempty,min=1,max=255"`
	ProductType       *string          `json:"product_type" validate:"omitempty,max=100"`
	SalesPrice        *decimal.Decimal `json:"sales_price"`
	SalesTaxRate      *string          `json:"sales_tax_rate" validate:"omitempty,max=50"`
	SalesPriceInclTax *decimal.Decimal `json:"sales_price_incl_tax"`
	Cost              *decimal.Decimal `json:"cost"`
	PurchaseTaxRate   *string          `json:"purchase_tax_rate" validate:"omitempty,max=50"`
	Category          *string          `json:"category" validate:"omitempty,max=100"`
	Reference         *string          `json:"reference" validate:"omitempty,max=100"`
	Barcode           *string          `json:"barcode" validate:"omitempty,max=100"`
	InternalNotes     *string          `json:"internal_notes"`
	Description       *string          `json:"description"`
	InvoicingPolicy   *string          `json:"invoicing_policy" validate:"omitempty,max=100"`
	CreatedBy         *string          `json:"created_by" validate:"omitempty,max=100"`
}

// IsZero reports whether no field is set at all.
func (p ProductPatch) IsZero() bool {
	return p.Name == nil && p.ProductType == nil && p.SalesPrice == nil &&
		p.SalesTaxRate == nil && p.SalesPriceInclTax == nil && p.Cost == nil &&
		p.PurchaseTaxRate == nil && p.Category == nil && p.Reference == nil &&
		p.Barcode == nil && p.InternalNotes == nil && p.Description == nil &&
		p.InvoicingPolicy == nil && p.CreatedBy == nil
}

// SearchFilter holds the optional search conditions, AND-ed when several are
// present. Name and Category are unanchored substring matches, ProductType is
// exact, the price bounds are inclusive on sales_price.
type SearchFilter struct {
	Name        string
	Category    string
	ProductType string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Offset      int
	Limit       int
}

// IsEmpty reports whether no condition is set, in which case search degrades
// to a plain listing.
func (f SearchFilter) IsEmpty() bool {
	return f.Name == "" && f.Category == "" && f.ProductType == "" &&
		f.MinPrice == nil && f.MaxPrice == nil
}

// ImportResult is the bulk import accounting: rows that became products, rows
// that failed, and one message per failed row. A read failure of the input
// itself yields zero counts and a single message.
type ImportResult struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors"`
}
