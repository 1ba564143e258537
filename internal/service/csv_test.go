package service

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"tokokita/backend/internal/cache"
	"tokokita/backend/internal/notify"
	"tokokita/backend/internal/store/memory"
)

func TestCSVExportImportRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	before, err := svc.ListProducts(ctx, "", 1, 500)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	data, err := svc.ExportProductsCSV(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(string(data), "name,sku,barcode,description,purchase_price,selling_price,min_stock_level,category,expiry_date,is_active") {
		t.Fatalf("unexpected header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	result, err := svc.ImportProductsCSV(ctx, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 0 {
		t.Fatalf("re-import must not duplicate products, created %d", result.Created)
	}
	if result.Updated != before.Total {
		t.Fatalf("expected %d updates, got %d", before.Total, result.Updated)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected row errors: %+v", result.Errors)
	}

	after, err := svc.ListProducts(ctx, "", 1, 500)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if after.Total != before.Total {
		t.Fatalf("product count changed: %d -> %d", before.Total, after.Total)
	}
}

func TestCSVImportUpsertsBySKU(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	csvData := strings.Join([]string{
		"name,sku,barcode,description,purchase_price,selling_price,min_stock_level,category,expiry_date,is_active",
		"Mie Goreng Jumbo,SKU-MIE-01,8991002101012,,30,45,24,grocery,,true",
		"Teh Celup,SKU-TEH-01,,,80,120,10,beverage,2027-01-31,true",
		"Tanpa SKU,,,,10,20,0,,,true",
		"Harga Aneh,SKU-X-01,,,abc,50,0,,,true",
	}, "\n")

	result, err := svc.ImportProductsCSV(ctx, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	// Teh Celup is a new SKU, Tanpa SKU has no upsert key and always creates.
	if result.Created != 2 {
		t.Fatalf("expected 2 created, got %d", result.Created)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 updated, got %d", result.Updated)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 row error, got %+v", result.Errors)
	}

	updated, err := svc.GetProduct(ctx, "prd-mie")
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if updated.Name != "Mie Goreng Jumbo" {
		t.Fatalf("name not updated: %q", updated.Name)
	}
	if updated.SellingCents != 4500 {
		t.Fatalf("selling price: want 4500 cents, got %d", updated.SellingCents)
	}
}

func TestCSVImportReusesExistingCategoryCasing(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	csvData := strings.Join([]string{
		"name,sku,selling_price,category",
		"Kerupuk,SKU-KERUPUK-01,15,GROCERY",
	}, "\n")

	result, err := svc.ImportProductsCSV(ctx, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 1 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	page, err := svc.ListProducts(ctx, "Kerupuk", 1, 10)
	if err != nil || len(page.Items) != 1 {
		t.Fatalf("find imported product: %v %+v", err, page)
	}
	// seeded category is lowercase "grocery"
	if page.Items[0].Category != "grocery" {
		t.Fatalf("category casing not canonicalized: %q", page.Items[0].Category)
	}
}

func TestCSVImportRequiresOnlyNameColumn(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	if _, err := svc.ImportProductsCSV(ctx, strings.NewReader("sku,barcode\nSKU-X,123\n")); err == nil {
		t.Fatalf("expected missing name column to be rejected")
	}

	result, err := svc.ImportProductsCSV(ctx, strings.NewReader("name\nHanya Nama\n"))
	if err != nil {
		t.Fatalf("name-only header must be accepted: %v", err)
	}
	if result.Created != 1 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result for name-only import: %+v", result)
	}
}

func TestCSVImportPreservesInactiveFlag(t *testing.T) {
	repo := memory.NewSeeded()
	svc := New(repo, notify.NewEngine(), cache.NoopNotificationCache{}, 5*time.Minute)
	ctx := adminCtx()

	csvData := strings.Join([]string{
		"name,sku,selling_price,is_active",
		"Produk Arsip,SKU-ARSIP-01,50,false",
	}, "\n")

	result, err := svc.ImportProductsCSV(ctx, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 1 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	imported, err := repo.GetProductBySKU(ctx, "SKU-ARSIP-01")
	if err != nil {
		t.Fatalf("find imported product: %v", err)
	}
	if imported.Active {
		t.Fatalf("imported is_active=false row must stay inactive")
	}
}
