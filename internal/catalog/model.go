package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog entity. Money fields and the free-text attributes
// are nullable in storage, so they are pointers here; only the identity and
// the name are always present.
type Product struct {
	ProductID         int64            `json:"product_id"`
	Name              string           `json:"name"`
	ProductType       *string          `json:"product_type,omitempty"`
	SalesPrice        *decimal.Decimal `json:"sales_price,omitempty"`
	SalesTaxRate      *string          `json:"sales_tax_rate,omitempty"`
	SalesPriceInclTax *decimal.Decimal `json:"sales_price_incl_tax,omitempty"`
	Cost              *decimal.Decimal `json:"cost,omitempty"`
	PurchaseTaxRate   *string          `json:"purchase_tax_rate,omitempty"`
	Category          *string          `json:"category,omitempty"`
	Reference         *string          `json:"reference,omitempty"`
	Barcode           *string          `json:"barcode,omitempty"`
	InternalNotes     *string          `json:"internal_notes,omitempty"`
	Description       *string          `json:"description,omitempty"`
	InvoicingPolicy   *string          `json:"invoicing_policy,omitempty"`
	CreatedBy         *string          `json:"created_by,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}
