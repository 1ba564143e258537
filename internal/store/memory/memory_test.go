package memory

import (
	"context"
	"errors"
	"testing"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
)

func mustBalance(t *testing.T, s *Store, productID, warehouseID string) int {
	t.Helper()
	balances, err := s.GetBalances(context.Background(), productID)
	if err != nil {
		t.Fatalf("get balances: %v", err)
	}
	for _, b := range balances {
		if b.WarehouseID == warehouseID {
			return b.Qty
		}
	}
	return 0
}

func TestMovementRejectsNegativeBalance(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	_, err := s.RecordMovement(ctx, domain.StockMovement{
		ProductID:   "prd-roti",
		WarehouseID: "wh-utama",
		Direction:   domain.MovementOut,
		Qty:         5,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := mustBalance(t, s, "prd-roti", "wh-utama"); got != 4 {
		t.Fatalf("balance must stay untouched after rejection, got %d", got)
	}
}

func TestTransferRollsBackWhenTargetMissing(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	before := mustBalance(t, s, "prd-mie", "wh-utama")
	_, err := s.TransferStock(ctx, "prd-mie", "wh-utama", "wh-missing", 10, "", "tester")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing target, got %v", err)
	}

	if got := mustBalance(t, s, "prd-mie", "wh-utama"); got != before {
		t.Fatalf("source balance leaked on failed transfer: before=%d after=%d", before, got)
	}
	movements, err := s.ListMovements(ctx, "prd-mie", "", 10)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 0 {
		t.Fatalf("failed transfer must not leave movements behind, got %d", len(movements))
	}
}

func TestTransferWritesBothLegs(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	movements, err := s.TransferStock(ctx, "prd-mie", "wh-utama", "wh-depan", 30, "restock etalase", "tester")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	if movements[0].Direction != domain.MovementOut || movements[1].Direction != domain.MovementIn {
		t.Fatalf("unexpected leg directions: %+v", movements)
	}
	if movements[1].Reference != movements[0].ID {
		t.Fatalf("in leg should reference out leg, got %q", movements[1].Reference)
	}
	if got := mustBalance(t, s, "prd-mie", "wh-utama"); got != 90 {
		t.Fatalf("source balance = %d, want 90", got)
	}
	if got := mustBalance(t, s, "prd-mie", "wh-depan"); got != 30 {
		t.Fatalf("target balance = %d, want 30", got)
	}
}

func TestDeleteProductWithMovementsConflicts(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if _, err := s.RecordMovement(ctx, domain.StockMovement{
		ProductID:   "prd-mie",
		WarehouseID: "wh-utama",
		Direction:   domain.MovementIn,
		Qty:         1,
	}); err != nil {
		t.Fatalf("record movement: %v", err)
	}

	if err := s.DeleteProduct(ctx, "prd-mie"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := s.GetProductByID(ctx, "prd-mie"); err != nil {
		t.Fatalf("product must survive the rejected delete: %v", err)
	}
}

func TestDeleteWarehouseWithStockConflicts(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if err := s.DeleteWarehouse(ctx, "wh-utama"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for stocked warehouse, got %v", err)
	}
	// wh-depan is seeded empty with no history, so it can go.
	if err := s.DeleteWarehouse(ctx, "wh-depan"); err != nil {
		t.Fatalf("expected empty warehouse delete to succeed, got %v", err)
	}
}

func TestCreateProductKeepsInactiveFlag(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	created, err := s.CreateProduct(ctx, domain.Product{
		Name:         "Produk Nonaktif",
		SKU:          "SKU-OFF-01",
		SellingCents: 1000,
		Active:       false,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created.Active {
		t.Fatalf("create must not override the caller's active flag")
	}

	stored, err := s.GetProductByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if stored.Active {
		t.Fatalf("stored product flipped to active")
	}
}

func TestCreateProductDuplicateSKUConflicts(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	_, err := s.CreateProduct(ctx, domain.Product{
		Name:         "Mie Tiruan",
		SKU:          "sku-mie-01",
		SellingCents: 1000,
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate SKU regardless of case, got %v", err)
	}
}

func TestCreateWarehouseDuplicateNameConflicts(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	_, err := s.CreateWarehouse(ctx, domain.Warehouse{Name: "gudang utama"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate name regardless of case, got %v", err)
	}
}

func TestListCategoriesDeduplicates(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if _, err := s.CreateProduct(ctx, domain.Product{
		Name:         "Keju",
		SKU:          "SKU-KEJU-01",
		SellingCents: 25000,
		Category:     "DAIRY",
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	seen := 0
	for _, c := range categories {
		if c == "dairy" || c == "DAIRY" {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("expected one dairy entry, got %d in %v", seen, categories)
	}
}

func TestGetUserByUsername(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	user, err := s.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if user.Role != "admin" || !user.Active {
		t.Fatalf("unexpected seeded admin %+v", user)
	}

	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
