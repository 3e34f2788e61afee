package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Columns usable with DistinctValues.
const (
	ColumnCategory    = "category"
	ColumnProductType = "product_type"
)

const productColumns = `product_id, name, product_type, sales_price, sales_tax_rate, sales_price_incl_tax, cost, purchase_tax_rate, category, reference, barcode, internal_notes, description, invoicing_policy, created_by, created_at`

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed Store.
func NewRepository(db *pgxpool.Pool) Store {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, in ProductInput) (Product, error) {
	query := `INSERT INTO products (name, product_type, sales_price, sales_tax_rate, sales_price_incl_tax, cost, purchase_tax_rate, category, reference, barcode, internal_notes, description, invoicing_policy, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + productColumns
	row := r.db.QueryRow(ctx, query,
		in.Name, in.ProductType, nullDec(in.SalesPrice), in.SalesTaxRate,
		nullDec(in.SalesPriceInclTax), nullDec(in.Cost), in.PurchaseTaxRate,
		in.Category, in.Reference, in.Barcode, in.InternalNotes,
		in.Description, in.InvoicingPolicy, in.CreatedBy)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, classify("insert product", err)
	}
	return p, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE product_id = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return Product{}, classify("find product", err)
	}
	return p, nil
}

func (r *repository) FindAll(ctx context.Context, offset, limit int) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY product_id LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, classify("list products", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *repository) FindByFilter(ctx context.Context, filter SearchFilter) ([]Product, int, error) {
	where := ``
	args := []interface{}{}
	argCount := 0

	if filter.Name != "" {
		argCount++
		where += ` AND name LIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		argCount++
		where += ` AND category LIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filter.Category+"%")
	}
	if filter.ProductType != "" {
		argCount++
		where += ` AND product_type = $` + strconv.Itoa(argCount)
		args = append(args, filter.ProductType)
	}
	if filter.MinPrice != nil {
		argCount++
		where += ` AND sales_price >= $` + strconv.Itoa(argCount)
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		argCount++
		where += ` AND sales_price <= $` + strconv.Itoa(argCount)
		args = append(args, *filter.MaxPrice)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, classify("count products", err)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1` + where + ` ORDER BY product_id`
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, filter.Limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, classify("search products", err)
	}
	defer rows.Close()
	items, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) Update(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	set := ``
	args := []interface{}{}
	argCount := 0

	add := func(column string, value interface{}) {
		argCount++
		if set != `` {
			set += `, `
		}
		set += column + ` = $` + strconv.Itoa(argCount)
		args = append(args, value)
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.ProductType != nil {
		add("product_type", *patch.ProductType)
	}
	if patch.SalesPrice != nil {
		add("sales_price", *patch.SalesPrice)
	}
	if patch.SalesTaxRate != nil {
		add("sales_tax_rate", *patch.SalesTaxRate)
	}
	if patch.SalesPriceInclTax != nil {
		add("sales_price_incl_tax", *patch.SalesPriceInclTax)
	}
	if patch.Cost != nil {
		add("cost", *patch.Cost)
	}
	if patch.PurchaseTaxRate != nil {
		add("purchase_tax_rate", *patch.PurchaseTaxRate)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Reference != nil {
		add("reference", *patch.Reference)
	}
	if patch.Barcode != nil {
		add("barcode", *patch.Barcode)
	}
	if patch.InternalNotes != nil {
		add("internal_notes", *patch.InternalNotes)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.InvoicingPolicy != nil {
		add("invoicing_policy", *patch.InvoicingPolicy)
	}
	if patch.CreatedBy != nil {
		add("created_by", *patch.CreatedBy)
	}

	if len(args) == 0 {
		return r.FindByID(ctx, id)
	}

	argCount++
	query := `UPDATE products SET ` + set + ` WHERE product_id = $` + strconv.Itoa(argCount) + ` RETURNING ` + productColumns
	args = append(args, id)

	p, err := scanProduct(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return Product{}, classify("update product", err)
	}
	return p, nil
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		return false, classify("delete product", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) DistinctValues(ctx context.Context, column string) ([]string, error) {
	if column != ColumnCategory && column != ColumnProductType {
		return nil, fmt.Errorf("%w: distinct values not supported for column %q", ErrValidation, column)
	}
	query := `SELECT DISTINCT ` + column + ` FROM products WHERE ` + column + ` IS NOT NULL AND ` + column + ` <> ''`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, classify("distinct "+column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, classify("distinct "+column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("distinct "+column, err)
	}
	return values, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	var salesPrice, inclTax, cost decimal.NullDecimal
	err := row.Scan(&p.ProductID, &p.Name, &p.ProductType, &salesPrice,
		&p.SalesTaxRate, &inclTax, &cost, &p.PurchaseTaxRate, &p.Category,
		&p.Reference, &p.Barcode, &p.InternalNotes, &p.Description,
		&p.InvoicingPolicy, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return Product{}, err
	}
	p.SalesPrice = decPtr(salesPrice)
	p.SalesPriceInclTax = decPtr(inclTax)
	p.Cost = decPtr(cost)
	return p, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, classify("scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("read products", err)
	}
	return products, nil
}

func nullDec(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decPtr(nd decimal.NullDecimal) *decimal.Decimal {
	if !nd.Valid {
		return nil
	}
	d := nd.Decimal
	return &d
}

// classify maps driver errors onto the service error taxonomy. Missing rows
// are a caller problem, everything else is infrastructural.
func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w: %s (%s)", op, ErrPersistence, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrPersistence, err)
}
