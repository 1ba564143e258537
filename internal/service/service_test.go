package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tokokita/backend/internal/cache"
	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/notify"
	"tokokita/backend/internal/store"
	"tokokita/backend/internal/store/memory"
)

func newTestService() *Service {
	return New(memory.NewSeeded(), notify.NewEngine(), cache.NoopNotificationCache{}, 5*time.Minute)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func TestTotalStockMatchesSumOfWarehouseBalances(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	if _, err := svc.RecordMovement(ctx, domain.StockMovementRequest{
		ProductID: "prd-mie", WarehouseID: "wh-depan", Direction: domain.MovementIn, Qty: 30,
	}); err != nil {
		t.Fatalf("record movement: %v", err)
	}

	balances, err := svc.Balances(ctx, "prd-mie")
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	sum := 0
	for _, b := range balances {
		sum += b.Qty
	}

	total, err := svc.TotalStock(ctx, "prd-mie")
	if err != nil {
		t.Fatalf("total stock: %v", err)
	}
	if total != sum {
		t.Fatalf("total %d does not match balance sum %d", total, sum)
	}
	if total != 150 {
		t.Fatalf("expected 150 after seeding 120 and adding 30, got %d", total)
	}
}

func TestManualPOSItemClassifiedExtra(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	product, err := svc.CreateManualPOSItem(ctx, domain.ManualPOSItemRequest{
		Name: "Kantong Plastik", SellingCents: 50000, Qty: 10,
	})
	if err != nil {
		t.Fatalf("manual item: %v", err)
	}

	class, err := svc.ClassifyProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if class != domain.ProductClassExtra {
		t.Fatalf("expected extra classification, got %q", class)
	}

	// a seeded product with warehouse stock stays regular
	class, err = svc.ClassifyProduct(ctx, "prd-mie")
	if err != nil {
		t.Fatalf("classify seeded: %v", err)
	}
	if class != domain.ProductClassRegular {
		t.Fatalf("expected regular classification, got %q", class)
	}
}

func TestClassifyProductWithoutStockIsRegular(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	product, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{Name: "Baru", SKU: "SKU-BARU"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	class, err := svc.ClassifyProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if class != domain.ProductClassRegular {
		t.Fatalf("expected regular for stockless product, got %q", class)
	}
}

func TestMoveToRegularTransfersFullExtraQty(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	product, err := svc.CreateManualPOSItem(ctx, domain.ManualPOSItemRequest{
		Name: "Korek Api", SellingCents: 30000, Qty: 7,
	})
	if err != nil {
		t.Fatalf("manual item: %v", err)
	}

	before, err := svc.TotalStock(ctx, product.ID)
	if err != nil {
		t.Fatalf("total before: %v", err)
	}

	updated, err := svc.MoveToRegular(ctx, product.ID, domain.MoveToRegularRequest{
		Category: "Peralatan", TargetWarehouseID: "wh-utama",
	})
	if err != nil {
		t.Fatalf("move to regular: %v", err)
	}
	if updated.Category != "Peralatan" {
		t.Fatalf("category not applied: %q", updated.Category)
	}

	after, err := svc.TotalStock(ctx, product.ID)
	if err != nil {
		t.Fatalf("total after: %v", err)
	}
	if before != after {
		t.Fatalf("total stock changed during move: %d -> %d", before, after)
	}

	balances, err := svc.Balances(ctx, product.ID)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	for _, b := range balances {
		if b.WarehouseID == "wh-utama" && b.Qty != 7 {
			t.Fatalf("expected 7 in target warehouse, got %d", b.Qty)
		}
		if b.WarehouseID != "wh-utama" && b.Qty != 0 {
			t.Fatalf("expected empty source warehouse, got %d in %s", b.Qty, b.WarehouseID)
		}
	}

	class, err := svc.ClassifyProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if class != domain.ProductClassRegular {
		t.Fatalf("expected regular after promotion, got %q", class)
	}
}

func TestMergeKeepsPriceRecordedOnBill(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	bill, err := svc.CreatePendingBill(ctx, domain.PendingBillCreateRequest{
		CustomerName: "Bu Siti",
		WarehouseID:  "wh-utama",
		Items:        []domain.CartLine{{ProductID: "prd-mie", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	originalPrice := bill.Items[0].UnitPriceCents

	newPrice := originalPrice + 100000
	if _, err := svc.UpdateProduct(ctx, "prd-mie", domain.ProductUpdateRequest{
		SellingCents: &newPrice,
	}); err != nil {
		t.Fatalf("update price: %v", err)
	}

	merged, err := svc.MergeBillItems(ctx, bill.ID, domain.PendingBillMergeRequest{
		Items: []domain.CartLine{{ProductID: "prd-mie", Qty: 3}},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(merged.Items))
	}
	item := merged.Items[0]
	if item.Qty != 5 {
		t.Fatalf("expected merged qty 5, got %d", item.Qty)
	}
	if item.UnitPriceCents != originalPrice {
		t.Fatalf("merge repriced the bill: want %d, got %d", originalPrice, item.UnitPriceCents)
	}
	if item.SubtotalCents != 5*originalPrice {
		t.Fatalf("subtotal mismatch: want %d, got %d", 5*originalPrice, item.SubtotalCents)
	}
}

func TestDeleteBillRemovesItemsButNotProducts(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	bill, err := svc.CreatePendingBill(ctx, domain.PendingBillCreateRequest{
		CustomerName: "Pak Budi",
		WarehouseID:  "wh-utama",
		Items:        []domain.CartLine{{ProductID: "prd-mie", Qty: 1}, {ProductID: "prd-roti", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}

	if err := svc.DeletePendingBill(ctx, bill.ID); err != nil {
		t.Fatalf("delete bill: %v", err)
	}
	if _, err := svc.GetPendingBill(ctx, bill.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected deleted bill to be gone, got %v", err)
	}
	if _, err := svc.GetProduct(ctx, "prd-mie"); err != nil {
		t.Fatalf("product should survive bill deletion: %v", err)
	}
}

func TestRemoveBillItemLeavesRestOfBill(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	bill, err := svc.CreatePendingBill(ctx, domain.PendingBillCreateRequest{
		CustomerName: "Pak Budi",
		WarehouseID:  "wh-utama",
		Items:        []domain.CartLine{{ProductID: "prd-mie", Qty: 1}, {ProductID: "prd-roti", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}

	updated, err := svc.RemoveBillItem(ctx, bill.ID, bill.Items[0].ID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(updated.Items) != 1 {
		t.Fatalf("expected one remaining item, got %d", len(updated.Items))
	}
	if updated.TotalCents != updated.Items[0].SubtotalCents {
		t.Fatalf("bill total not recomputed: %d vs %d", updated.TotalCents, updated.Items[0].SubtotalCents)
	}
}

func TestCheckoutDecrementsStockAndComputesTotal(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	product, err := svc.GetProduct(ctx, "prd-mie")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}

	tx, err := svc.Checkout(ctx, domain.CheckoutRequest{
		WarehouseID:   "wh-utama",
		DiscountCents: 50000,
		TaxCents:      20000,
		PaymentMethod: "cash",
		Items:         []domain.CartLine{{ProductID: "prd-mie", Qty: 3}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	wantSubtotal := 3 * product.SellingCents
	if tx.SubtotalCents != wantSubtotal {
		t.Fatalf("subtotal: want %d, got %d", wantSubtotal, tx.SubtotalCents)
	}
	if tx.TotalCents != wantSubtotal-50000+20000 {
		t.Fatalf("total: want %d, got %d", wantSubtotal-50000+20000, tx.TotalCents)
	}
	if tx.Status != domain.TxStatusPaid {
		t.Fatalf("expected paid status, got %q", tx.Status)
	}

	total, err := svc.TotalStock(ctx, "prd-mie")
	if err != nil {
		t.Fatalf("total stock: %v", err)
	}
	if total != 117 {
		t.Fatalf("expected stock 117 after selling 3 of 120, got %d", total)
	}
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	// prd-roti is seeded with only 4 units
	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		WarehouseID:   "wh-utama",
		PaymentMethod: "cash",
		Items:         []domain.CartLine{{ProductID: "prd-roti", Qty: 5}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestBuildReceiptQRPayload(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	tx, err := svc.Checkout(ctx, domain.CheckoutRequest{
		WarehouseID:   "wh-utama",
		PaymentMethod: "qris",
		Items:         []domain.CartLine{{ProductID: "prd-mie", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	receipt, err := svc.BuildReceipt(ctx, tx.ID)
	if err != nil {
		t.Fatalf("build receipt: %v", err)
	}
	if receipt.PreviewText == "" || receipt.EscposBase64 == "" {
		t.Fatalf("receipt missing rendered output")
	}

	var payload struct {
		SaleID string `json:"sale_id"`
		Amount int64  `json:"amount"`
		Date   string `json:"date"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(receipt.QRPayload), &payload); err != nil {
		t.Fatalf("qr payload is not valid JSON: %v", err)
	}
	if payload.SaleID != tx.ID {
		t.Fatalf("qr sale_id: want %s, got %s", tx.ID, payload.SaleID)
	}
	if payload.Amount != tx.TotalCents {
		t.Fatalf("qr amount: want %d, got %d", tx.TotalCents, payload.Amount)
	}
	if payload.Status != "APPROVED" {
		t.Fatalf("qr status: want APPROVED, got %q", payload.Status)
	}
	if _, err := time.Parse(time.RFC3339, payload.Date); err != nil {
		t.Fatalf("qr date not RFC3339: %v", err)
	}
}

func TestLoanOwedUsesSimpleInterest(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	customer, err := svc.CreateCustomer(ctx, domain.CustomerCreateRequest{Name: "Bu Rina"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	loan, err := svc.CreateLoan(ctx, domain.LoanCreateRequest{
		BorrowerType:   domain.BorrowerCustomer,
		BorrowerID:     customer.ID,
		PrincipalCents: 10000000,
		InterestRate:   0.1,
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if loan.TotalOwedCents != 11000000 {
		t.Fatalf("owed: want 11000000, got %d", loan.TotalOwedCents)
	}
	if loan.Status != domain.LoanStatusPending {
		t.Fatalf("new loan should be pending, got %q", loan.Status)
	}
	if loan.BorrowerName != "Bu Rina" {
		t.Fatalf("borrower name not resolved: %q", loan.BorrowerName)
	}

	partial, err := svc.AddLoanPayment(ctx, loan.ID, domain.LoanPaymentRequest{AmountCents: 5000000})
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if partial.Status != domain.LoanStatusActive {
		t.Fatalf("partially paid loan should be active, got %q", partial.Status)
	}

	settled, err := svc.AddLoanPayment(ctx, loan.ID, domain.LoanPaymentRequest{AmountCents: 6000000})
	if err != nil {
		t.Fatalf("final payment: %v", err)
	}
	if settled.Status != domain.LoanStatusPaid {
		t.Fatalf("settled loan should be paid, got %q", settled.Status)
	}
}

func TestBulkDeleteContinuesPastFailures(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	deletable, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{Name: "Sekali Pakai", SKU: "SKU-TMP"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	// give prd-mie movement history so its delete conflicts
	if _, err := svc.RecordMovement(ctx, domain.StockMovementRequest{
		ProductID: "prd-mie", WarehouseID: "wh-utama", Direction: domain.MovementIn, Qty: 1,
	}); err != nil {
		t.Fatalf("record movement: %v", err)
	}

	resp := svc.BulkDeleteProducts(ctx, []string{"prd-mie", deletable.ID, "prd-missing"})
	if resp.Deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", resp.Deleted)
	}
	if resp.Failed != 2 {
		t.Fatalf("expected 2 failed, got %d", resp.Failed)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected per-id results, got %d", len(resp.Results))
	}
}

func TestDeleteMovementDoesNotAdjustBalances(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	movement, err := svc.RecordMovement(ctx, domain.StockMovementRequest{
		ProductID: "prd-mie", WarehouseID: "wh-utama", Direction: domain.MovementIn, Qty: 10,
	})
	if err != nil {
		t.Fatalf("record movement: %v", err)
	}
	before, _ := svc.TotalStock(ctx, "prd-mie")

	if err := svc.DeleteMovement(ctx, movement.ID); err != nil {
		t.Fatalf("delete movement: %v", err)
	}
	after, _ := svc.TotalStock(ctx, "prd-mie")
	if before != after {
		t.Fatalf("balance changed on movement delete: %d -> %d", before, after)
	}
}

func TestDeleteMovementRequiresAdmin(t *testing.T) {
	svc := newTestService()
	staffCtx := WithActor(context.Background(), domain.Actor{Username: "kasir", Role: "staff"})

	movement, err := svc.RecordMovement(adminCtx(), domain.StockMovementRequest{
		ProductID: "prd-mie", WarehouseID: "wh-utama", Direction: domain.MovementIn, Qty: 1,
	})
	if err != nil {
		t.Fatalf("record movement: %v", err)
	}
	if err := svc.DeleteMovement(staffCtx, movement.ID); err == nil {
		t.Fatalf("expected staff movement delete to be rejected")
	}
}

func TestPendingBillResumeAndClose(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	bill, err := svc.CreatePendingBill(ctx, domain.PendingBillCreateRequest{
		CustomerName: "Bu Siti",
		WarehouseID:  "wh-utama",
		Items:        []domain.CartLine{{ProductID: "prd-mie", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}

	lines, err := svc.ResumeBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(lines) != 1 || lines[0].Qty != 2 {
		t.Fatalf("resume returned wrong cart: %+v", lines)
	}

	if _, err := svc.Checkout(ctx, domain.CheckoutRequest{
		WarehouseID:   bill.WarehouseID,
		PaymentMethod: "cash",
		Items:         lines,
	}); err != nil {
		t.Fatalf("checkout from resumed bill: %v", err)
	}

	closed, err := svc.CloseBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("close bill: %v", err)
	}
	if closed.Status != domain.BillStatusClosed {
		t.Fatalf("expected closed status, got %q", closed.Status)
	}
	if _, err := svc.ResumeBill(ctx, bill.ID); err == nil {
		t.Fatalf("resuming a closed bill should fail")
	}
}

func TestNotificationsMarkRead(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	// prd-roti is seeded at qty 4 with a min level above it, so low stock fires
	notifications, err := svc.Notifications(ctx, true)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(notifications) == 0 {
		t.Fatalf("expected seeded data to produce notifications")
	}
	target := notifications[0]
	if target.Read {
		t.Fatalf("fresh notification should be unread")
	}

	if err := svc.MarkNotificationRead(ctx, target.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	again, err := svc.Notifications(ctx, true)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	found := false
	for _, n := range again {
		if n.ID == target.ID {
			found = true
			if !n.Read {
				t.Fatalf("notification %s should stay read across rederive", n.ID)
			}
		}
	}
	if !found {
		t.Fatalf("notification %s disappeared", target.ID)
	}

	if err := svc.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	final, err := svc.Notifications(ctx, false)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	for _, n := range final {
		if !n.Read {
			t.Fatalf("notification %s should be read", n.ID)
		}
	}
}
