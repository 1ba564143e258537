package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
)

// csvHeader is the product interchange format. Prices are whole-currency
// decimals, expiry_date is YYYY-MM-DD, is_active is true/false.
var csvHeader = []string{
	"name", "sku", "barcode", "description",
	"purchase_price", "selling_price", "min_stock_level",
	"category", "expiry_date", "is_active",
}

func (s *Service) ExportProductsCSV(ctx context.Context) ([]byte, error) {
	products, err := s.repo.ListProducts(ctx, true)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range products {
		expiry := ""
		if p.ExpiryDate != nil {
			expiry = p.ExpiryDate.Format("2006-01-02")
		}
		record := []string{
			p.Name,
			p.SKU,
			p.Barcode,
			p.Description,
			centsToPrice(p.PurchaseCents),
			centsToPrice(p.SellingCents),
			strconv.Itoa(p.MinStockLevel),
			p.Category,
			expiry,
			strconv.FormatBool(p.Active),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	s.logAudit(ctx, "product_export", "product", "", fmt.Sprintf("rows=%d", len(products)))
	return buf.Bytes(), nil
}

// ImportProductsCSV upserts rows keyed by SKU: a known SKU updates the
// existing product, an unknown one creates a new product. Rows without a
// SKU have no upsert key and always create. Bad rows are reported per
// line and do not stop the rest of the file.
func (s *Service) ImportProductsCSV(ctx context.Context, data io.Reader) (domain.ImportResult, error) {
	r := csv.NewReader(data)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return domain.ImportResult{}, store.ErrInvalid
	}
	columns, err := mapCSVColumns(header)
	if err != nil {
		return domain.ImportResult{}, store.ErrInvalid
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return domain.ImportResult{}, err
	}
	canonicalCategory := make(map[string]string, len(categories))
	for _, c := range categories {
		canonicalCategory[strings.ToLower(c)] = c
	}

	result := domain.ImportResult{}
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, domain.ImportRowError{Line: line, Error: "malformed row"})
			continue
		}

		row, err := parseCSVRow(record, columns)
		if err != nil {
			result.Errors = append(result.Errors, domain.ImportRowError{Line: line, Error: err.Error()})
			continue
		}
		// rows with a category the store already knows reuse the stored casing
		if canonical, ok := canonicalCategory[strings.ToLower(row.Category)]; ok {
			row.Category = canonical
		} else if row.Category != "" {
			canonicalCategory[strings.ToLower(row.Category)] = row.Category
		}

		created, err := s.upsertProductRow(ctx, row)
		if err != nil {
			result.Errors = append(result.Errors, domain.ImportRowError{Line: line, Error: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logAudit(ctx, "product_import", "product", "",
		fmt.Sprintf("created=%d,updated=%d,errors=%d", result.Created, result.Updated, len(result.Errors)))
	return result, nil
}

type csvRow struct {
	Name          string
	SKU           string
	Barcode       string
	Description   string
	PurchaseCents int64
	SellingCents  int64
	MinStockLevel int
	Category      string
	ExpiryDate    string
	Active        bool
}

func mapCSVColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("missing column %q", "name")
	}
	return columns, nil
}

func parseCSVRow(record []string, columns map[string]int) (csvRow, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	row := csvRow{
		Name:        field("name"),
		SKU:         strings.ToUpper(field("sku")),
		Barcode:     field("barcode"),
		Description: field("description"),
		Category:    field("category"),
		ExpiryDate:  field("expiry_date"),
		Active:      true,
	}
	if row.Name == "" {
		return csvRow{}, fmt.Errorf("name is required")
	}

	var err error
	if row.PurchaseCents, err = priceToCents(field("purchase_price")); err != nil {
		return csvRow{}, fmt.Errorf("invalid purchase_price")
	}
	if row.SellingCents, err = priceToCents(field("selling_price")); err != nil {
		return csvRow{}, fmt.Errorf("invalid selling_price")
	}
	if raw := field("min_stock_level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return csvRow{}, fmt.Errorf("invalid min_stock_level")
		}
		row.MinStockLevel = n
	}
	if row.ExpiryDate != "" {
		if _, err := parseDate(row.ExpiryDate); err != nil {
			return csvRow{}, fmt.Errorf("invalid expiry_date")
		}
	}
	if raw := field("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return csvRow{}, fmt.Errorf("invalid is_active")
		}
		row.Active = active
	}
	return row, nil
}

// upsertProductRow reports whether a new product was created.
func (s *Service) upsertProductRow(ctx context.Context, row csvRow) (bool, error) {
	var existing *domain.Product
	if row.SKU != "" {
		p, err := s.repo.GetProductBySKU(ctx, row.SKU)
		if err != nil && err != store.ErrNotFound {
			return false, err
		}
		existing = p
	}

	expiry, err := parseDate(row.ExpiryDate)
	if err != nil {
		return false, fmt.Errorf("invalid expiry_date")
	}

	if existing == nil {
		_, err := s.repo.CreateProduct(ctx, domain.Product{
			Name:          row.Name,
			SKU:           row.SKU,
			Barcode:       row.Barcode,
			Description:   row.Description,
			PurchaseCents: row.PurchaseCents,
			SellingCents:  row.SellingCents,
			MinStockLevel: row.MinStockLevel,
			Category:      row.Category,
			ExpiryDate:    expiry,
			Active:        row.Active,
		})
		return true, err
	}

	product := *existing
	product.Name = row.Name
	product.Barcode = row.Barcode
	product.Description = row.Description
	product.PurchaseCents = row.PurchaseCents
	product.SellingCents = row.SellingCents
	product.MinStockLevel = row.MinStockLevel
	product.Category = row.Category
	product.ExpiryDate = expiry
	product.Active = row.Active
	_, err = s.repo.UpdateProduct(ctx, product)
	return false, err
}

func centsToPrice(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).String()
}

func priceToCents(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	cents := d.Mul(decimal.NewFromInt(100)).Round(0)
	if cents.IsNegative() {
		return 0, fmt.Errorf("negative price")
	}
	return cents.IntPart(), nil
}
