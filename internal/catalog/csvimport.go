package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recognized import columns; anything else in the header is ignored.
const (
	colName              = "name"
	colProductType       = "product_type"
	colSalesPrice        = "sales_price"
	colSalesTaxRate      = "sales_tax_rate"
	colSalesPriceInclTax = "sales_price_incl_tax"
	colCost              = "cost"
	colPurchaseTaxRate   = "purchase_tax_rate"
	colCategory          = "category"
	colReference         = "reference"
	colBarcode           = "barcode"
	colInternalNotes     = "internal_notes"
	colDescription       = "description"
	colInvoicingPolicy   = "invoicing_policy"
	colCreatedBy         = "created_by"
)

// BulkImportCSV creates one product per data row of the CSV input, first row
// being the column header. Rows are processed independently; a failed row is
// recorded against its 1-based number and the batch carries on. The batch is
// not transactional, so rows created before a failure stay committed. Only a
// failure to read the input as CSV at all short-circuits, reported as zero
// counts plus a single read-failure message.
//
// The error strings keep the upstream catalog frontend's wording, which is
// Chinese.
func (s *Service) BulkImportCSV(ctx context.Context, r io.Reader) ImportResult {
	batchID := uuid.NewString()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		s.logger.Warn("csv import unreadable", slog.String("batch_id", batchID), slog.Any("error", err))
		return ImportResult{Errors: []string{fmt.Sprintf("文件读取失败: %v", err)}}
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}

	result := ImportResult{Errors: []string{}}
	for i, record := range records[1:] {
		rowNum := i + 1

		in := ProductInput{
			Name:              cell(record, header, colName),
			ProductType:       cellPtr(record, header, colProductType),
			SalesPrice:        cellDec(record, header, colSalesPrice),
			SalesTaxRate:      cellPtr(record, header, colSalesTaxRate),
			SalesPriceInclTax: cellDec(record, header, colSalesPriceInclTax),
			Cost:              cellDec(record, header, colCost),
			PurchaseTaxRate:   cellPtr(record, header, colPurchaseTaxRate),
			Category:          cellPtr(record, header, colCategory),
			Reference:         cellPtr(record, header, colReference),
			Barcode:           cellPtr(record, header, colBarcode),
			InternalNotes:     cellPtr(record, header, colInternalNotes),
			Description:       cellPtr(record, header, colDescription),
			InvoicingPolicy:   cellPtr(record, header, colInvoicingPolicy),
			CreatedBy:         cellPtr(record, header, colCreatedBy),
		}

		if strings.TrimSpace(in.Name) == "" {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("第%d行: 产品名称为空", rowNum))
			continue
		}

		if _, err := s.Create(ctx, in); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("第%d行: %v", rowNum, err))
			continue
		}
		result.SuccessCount++
	}

	s.logger.Info("csv import finished",
		slog.String("batch_id", batchID),
		slog.Int("success", result.SuccessCount),
		slog.Int("failed", result.ErrorCount))
	return result
}

// cell returns the trimmed value of the named column, or "" when the column
// is missing from the header or the row is short.
func cell(record []string, header map[string]int, column string) string {
	idx, ok := header[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func cellPtr(record []string, header map[string]int, column string) *string {
	v := cell(record, header, column)
	if v == "" {
		return nil
	}
	return &v
}

// cellDec converts a numeric-looking cell to a decimal. Values that fail to
// convert are treated as absent, not as row errors; import sources routinely
// carry junk in the money columns and the importer has always shrugged it off.
func cellDec(record []string, header map[string]int, column string) *decimal.Decimal {
	v := cell(record, header, column)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil
	}
	return &d
}
