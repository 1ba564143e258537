package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tokokita/backend/internal/cache"
	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/metrics"
	"tokokita/backend/internal/notify"
	"tokokita/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// ExtraWarehouseName is the reserved warehouse that holds ad-hoc products
// created from the POS screen. It is created lazily on first use.
const ExtraWarehouseName = "Extra"

type Service struct {
	repo       store.Repository
	notifier   *notify.Engine
	notifCache cache.NotificationCache
	notifTTL   time.Duration

	// notification read-state is process-local and lost on restart
	readMu  sync.Mutex
	readIDs map[string]bool
}

func New(repo store.Repository, notifier *notify.Engine, notifCache cache.NotificationCache, notifTTL time.Duration) *Service {
	if notifier == nil {
		notifier = notify.NewEngine()
	}
	if notifCache == nil {
		notifCache = cache.NoopNotificationCache{}
	}
	if notifTTL <= 0 {
		notifTTL = 5 * time.Minute
	}

	return &Service{
		repo:       repo,
		notifier:   notifier,
		notifCache: notifCache,
		notifTTL:   notifTTL,
		readIDs:    make(map[string]bool),
	}
}

type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// paginate slices an offset page out of the already-filtered set.
func paginate[T any](items []T, page, pageSize int) Page[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return Page[T]{Items: items[start:end], Total: total, Page: page, PageSize: pageSize}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *Service) ListProducts(ctx context.Context, query string, page, pageSize int) (Page[domain.Product], error) {
	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return Page[domain.Product]{}, err
	}
	query = strings.TrimSpace(query)
	if query != "" {
		filtered := make([]domain.Product, 0, len(products))
		for _, p := range products {
			if containsFold(p.Name, query) || containsFold(p.SKU, query) ||
				containsFold(p.Barcode, query) || containsFold(p.Category, query) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	return paginate(products, page, pageSize), nil
}

func (s *Service) ListProductCategories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) FindProductByBarcode(ctx context.Context, barcode string) (domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.Product{}, store.ErrInvalid
	}
	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.Barcode != "" && p.Barcode == barcode {
			return p, nil
		}
	}
	// scanners sometimes read the SKU label instead of the barcode
	bySKU, err := s.repo.GetProductBySKU(ctx, barcode)
	if err != nil {
		return domain.Product{}, err
	}
	return *bySKU, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Barcode = strings.TrimSpace(req.Barcode)
	req.Category = strings.TrimSpace(req.Category)

	if req.Name == "" {
		return domain.Product{}, store.ErrInvalid
	}
	if req.PurchaseCents < 0 || req.SellingCents < 0 || req.MinStockLevel < 0 {
		return domain.Product{}, store.ErrInvalid
	}

	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		return domain.Product{}, store.ErrInvalid
	}

	product := domain.Product{
		Name:          req.Name,
		SKU:           req.SKU,
		Barcode:       req.Barcode,
		Description:   strings.TrimSpace(req.Description),
		PurchaseCents: req.PurchaseCents,
		SellingCents:  req.SellingCents,
		MinStockLevel: req.MinStockLevel,
		Category:      req.Category,
		ExpiryDate:    expiry,
		Active:        true,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,sku=%s", created.Name, created.SKU))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	product := *existing
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		product.SKU = strings.ToUpper(strings.TrimSpace(*req.SKU))
	}
	if req.Barcode != nil {
		product.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.PurchaseCents != nil {
		product.PurchaseCents = *req.PurchaseCents
	}
	if req.SellingCents != nil {
		product.SellingCents = *req.SellingCents
	}
	if req.MinStockLevel != nil {
		product.MinStockLevel = *req.MinStockLevel
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.ExpiryDate != nil {
		expiry, err := parseDate(*req.ExpiryDate)
		if err != nil {
			return domain.Product{}, store.ErrInvalid
		}
		product.ExpiryDate = expiry
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	if product.Name == "" || product.PurchaseCents < 0 || product.SellingCents < 0 || product.MinStockLevel < 0 {
		return domain.Product{}, store.ErrInvalid
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_update", "product", updated.ID, "name="+updated.Name)
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

func (s *Service) BulkDeleteProducts(ctx context.Context, ids []string) domain.BulkDeleteResponse {
	return s.bulkDelete(ctx, "product", ids, s.repo.DeleteProduct)
}

// bulkDelete keeps going past individual failures and reports each outcome.
func (s *Service) bulkDelete(ctx context.Context, entityType string, ids []string, del func(context.Context, string) error) domain.BulkDeleteResponse {
	resp := domain.BulkDeleteResponse{Results: make([]domain.BulkDeleteResult, 0, len(ids))}
	for _, id := range ids {
		if err := del(ctx, id); err != nil {
			resp.Failed++
			resp.Results = append(resp.Results, domain.BulkDeleteResult{ID: id, OK: false, Error: err.Error()})
			continue
		}
		resp.Deleted++
		resp.Results = append(resp.Results, domain.BulkDeleteResult{ID: id, OK: true})
	}
	s.logAudit(ctx, entityType+"_bulk_delete", entityType, "", fmt.Sprintf("deleted=%d,failed=%d", resp.Deleted, resp.Failed))
	return resp
}

func (s *Service) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	return s.repo.ListWarehouses(ctx, false)
}

func (s *Service) CreateWarehouse(ctx context.Context, req domain.WarehouseCreateRequest) (domain.Warehouse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Warehouse{}, store.ErrInvalid
	}
	created, err := s.repo.CreateWarehouse(ctx, domain.Warehouse{
		Name:     req.Name,
		Location: strings.TrimSpace(req.Location),
		Active:   true,
	})
	if err != nil {
		return domain.Warehouse{}, err
	}
	s.logAudit(ctx, "warehouse_create", "warehouse", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) UpdateWarehouse(ctx context.Context, id string, req domain.WarehouseUpdateRequest) (domain.Warehouse, error) {
	existing, err := s.repo.GetWarehouseByID(ctx, id)
	if err != nil {
		return domain.Warehouse{}, err
	}
	warehouse := *existing
	if req.Name != nil {
		warehouse.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		warehouse.Location = strings.TrimSpace(*req.Location)
	}
	if req.Active != nil {
		warehouse.Active = *req.Active
	}
	if warehouse.Name == "" {
		return domain.Warehouse{}, store.ErrInvalid
	}
	// the Extra warehouse name is load-bearing for classification
	if strings.EqualFold(existing.Name, ExtraWarehouseName) && !strings.EqualFold(warehouse.Name, ExtraWarehouseName) {
		return domain.Warehouse{}, store.ErrInvalid
	}
	updated, err := s.repo.UpdateWarehouse(ctx, warehouse)
	if err != nil {
		return domain.Warehouse{}, err
	}
	s.logAudit(ctx, "warehouse_update", "warehouse", updated.ID, "name="+updated.Name)
	return *updated, nil
}

func (s *Service) DeleteWarehouse(ctx context.Context, id string) error {
	warehouse, err := s.repo.GetWarehouseByID(ctx, id)
	if err != nil {
		return err
	}
	if strings.EqualFold(warehouse.Name, ExtraWarehouseName) {
		return store.ErrInvalid
	}
	if err := s.repo.DeleteWarehouse(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "warehouse_delete", "warehouse", id, "name="+warehouse.Name)
	return nil
}

func (s *Service) BulkDeleteWarehouses(ctx context.Context, ids []string) domain.BulkDeleteResponse {
	return s.bulkDelete(ctx, "warehouse", ids, func(ctx context.Context, id string) error {
		warehouse, err := s.repo.GetWarehouseByID(ctx, id)
		if err != nil {
			return err
		}
		if strings.EqualFold(warehouse.Name, ExtraWarehouseName) {
			return store.ErrInvalid
		}
		return s.repo.DeleteWarehouse(ctx, id)
	})
}

func (s *Service) RecordMovement(ctx context.Context, req domain.StockMovementRequest) (domain.StockMovement, error) {
	req.Direction = strings.ToLower(strings.TrimSpace(req.Direction))
	if req.ProductID == "" || req.WarehouseID == "" {
		return domain.StockMovement{}, store.ErrInvalid
	}

	actor, _ := ActorFromContext(ctx)
	created, err := s.repo.RecordMovement(ctx, domain.StockMovement{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Direction:   req.Direction,
		Qty:         req.Qty,
		Reference:   strings.TrimSpace(req.Reference),
		Notes:       strings.TrimSpace(req.Notes),
		ActorName:   actor.Username,
	})
	if err != nil {
		return domain.StockMovement{}, err
	}
	metrics.StockMovementsTotal.WithLabelValues(created.Direction).Inc()
	s.logAudit(ctx, "stock_movement", "stock_movement", created.ID,
		fmt.Sprintf("product=%s,warehouse=%s,direction=%s,qty=%d", created.ProductID, created.WarehouseID, created.Direction, created.Qty))
	return *created, nil
}

func (s *Service) ListMovements(ctx context.Context, productID, warehouseID string, limit int) ([]domain.StockMovement, error) {
	return s.repo.ListMovements(ctx, productID, warehouseID, limit)
}

// DeleteMovement removes history only. The balance row keeps whatever the
// movement already contributed, so totals and history can disagree after
// this call. Admin-facing and audited for that reason.
func (s *Service) DeleteMovement(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	if err := s.repo.DeleteMovement(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "stock_movement_delete", "stock_movement", id, "balances not adjusted")
	return nil
}

func (s *Service) TransferStock(ctx context.Context, req domain.StockTransferRequest) ([]domain.StockMovement, error) {
	if req.ProductID == "" || req.FromWarehouseID == "" || req.ToWarehouseID == "" {
		return nil, store.ErrInvalid
	}
	actor, _ := ActorFromContext(ctx)
	movements, err := s.repo.TransferStock(ctx, req.ProductID, req.FromWarehouseID, req.ToWarehouseID, req.Qty,
		strings.TrimSpace(req.Notes), actor.Username)
	if err != nil {
		return nil, err
	}
	metrics.StockMovementsTotal.WithLabelValues(domain.MovementOut).Inc()
	metrics.StockMovementsTotal.WithLabelValues(domain.MovementIn).Inc()
	s.logAudit(ctx, "stock_transfer", "product", req.ProductID,
		fmt.Sprintf("from=%s,to=%s,qty=%d", req.FromWarehouseID, req.ToWarehouseID, req.Qty))
	return movements, nil
}

func (s *Service) Balances(ctx context.Context, productID string) ([]domain.StockBalance, error) {
	if productID == "" {
		return nil, store.ErrInvalid
	}
	if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.GetBalances(ctx, productID)
}

func (s *Service) TotalStockMap(ctx context.Context) (map[string]int, error) {
	return s.repo.GetTotalStockMap(ctx)
}

func (s *Service) TotalStock(ctx context.Context, productID string) (int, error) {
	if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
		return 0, err
	}
	totals, err := s.repo.GetTotalStockMap(ctx)
	if err != nil {
		return 0, err
	}
	return totals[productID], nil
}

// ensureExtraWarehouse finds or lazily creates the reserved Extra warehouse.
func (s *Service) ensureExtraWarehouse(ctx context.Context) (*domain.Warehouse, error) {
	warehouse, err := s.repo.GetWarehouseByName(ctx, ExtraWarehouseName)
	if err == nil {
		return warehouse, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}
	return s.repo.CreateWarehouse(ctx, domain.Warehouse{
		Name:     ExtraWarehouseName,
		Location: "POS ad-hoc",
		Active:   true,
	})
}

// ClassifyProduct reports "extra" only when the product has stock rows and
// every one of them sits in the Extra warehouse. No rows at all means regular.
func (s *Service) ClassifyProduct(ctx context.Context, productID string) (string, error) {
	if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
		return "", err
	}
	balances, err := s.repo.GetBalances(ctx, productID)
	if err != nil {
		return "", err
	}
	if len(balances) == 0 {
		return domain.ProductClassRegular, nil
	}
	extra, err := s.repo.GetWarehouseByName(ctx, ExtraWarehouseName)
	if err != nil {
		if err == store.ErrNotFound {
			return domain.ProductClassRegular, nil
		}
		return "", err
	}
	for _, b := range balances {
		if b.WarehouseID != extra.ID {
			return domain.ProductClassRegular, nil
		}
	}
	return domain.ProductClassExtra, nil
}

// MoveToRegular assigns a category and, when Extra stock exists, moves the
// full quantity into the target warehouse as one atomic transfer.
func (s *Service) MoveToRegular(ctx context.Context, productID string, req domain.MoveToRegularRequest) (domain.Product, error) {
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" || req.TargetWarehouseID == "" {
		return domain.Product{}, store.ErrInvalid
	}
	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if _, err := s.repo.GetWarehouseByID(ctx, req.TargetWarehouseID); err != nil {
		return domain.Product{}, err
	}

	product.Category = req.Category
	updated, err := s.repo.UpdateProduct(ctx, *product)
	if err != nil {
		return domain.Product{}, err
	}

	extra, err := s.repo.GetWarehouseByName(ctx, ExtraWarehouseName)
	if err != nil {
		if err == store.ErrNotFound {
			return *updated, nil
		}
		return domain.Product{}, err
	}
	extraQty := 0
	balances, err := s.repo.GetBalances(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	for _, b := range balances {
		if b.WarehouseID == extra.ID {
			extraQty = b.Qty
		}
	}
	if extraQty > 0 {
		actor, _ := ActorFromContext(ctx)
		if _, err := s.repo.TransferStock(ctx, productID, extra.ID, req.TargetWarehouseID, extraQty,
			"promoted from Extra", actor.Username); err != nil {
			return domain.Product{}, err
		}
	}
	s.logAudit(ctx, "product_move_to_regular", "product", productID,
		fmt.Sprintf("category=%s,target=%s,qty=%d", req.Category, req.TargetWarehouseID, extraQty))
	return *updated, nil
}

// CreateManualPOSItem registers an ad-hoc product typed in at the POS and
// books its initial quantity into the Extra warehouse.
func (s *Service) CreateManualPOSItem(ctx context.Context, req domain.ManualPOSItemRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.SellingCents < 0 || req.Qty < 1 {
		return domain.Product{}, store.ErrInvalid
	}

	extra, err := s.ensureExtraWarehouse(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:         req.Name,
		SellingCents: req.SellingCents,
		Active:       true,
	})
	if err != nil {
		return domain.Product{}, err
	}

	actor, _ := ActorFromContext(ctx)
	if _, err := s.repo.RecordMovement(ctx, domain.StockMovement{
		ProductID:   created.ID,
		WarehouseID: extra.ID,
		Direction:   domain.MovementIn,
		Qty:         req.Qty,
		Notes:       "manual POS item",
		ActorName:   actor.Username,
	}); err != nil {
		return domain.Product{}, err
	}
	metrics.StockMovementsTotal.WithLabelValues(domain.MovementIn).Inc()
	s.logAudit(ctx, "pos_manual_item", "product", created.ID, fmt.Sprintf("name=%s,qty=%d", created.Name, req.Qty))
	return *created, nil
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Transaction, error) {
	if req.WarehouseID == "" || len(req.Items) == 0 {
		return domain.Transaction{}, store.ErrInvalid
	}
	if req.DiscountCents < 0 || req.TaxCents < 0 {
		return domain.Transaction{}, store.ErrInvalid
	}
	if !isSupportedPaymentMethod(req.PaymentMethod) {
		return domain.Transaction{}, store.ErrInvalid
	}
	if req.CustomerID != "" {
		if _, err := s.repo.GetCustomerByID(ctx, req.CustomerID); err != nil {
			return domain.Transaction{}, err
		}
	}

	items, err := s.resolveCartLines(ctx, req.Items)
	if err != nil {
		return domain.Transaction{}, err
	}

	actor, _ := ActorFromContext(ctx)
	created, err := s.repo.CreateSale(ctx, domain.Transaction{
		CustomerID:    req.CustomerID,
		WarehouseID:   req.WarehouseID,
		DiscountCents: req.DiscountCents,
		TaxCents:      req.TaxCents,
		PaymentMethod: req.PaymentMethod,
		CashierName:   actor.Username,
		Items:         items,
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	metrics.SalesTotal.Inc()
	metrics.SalesAmountCents.Add(float64(created.TotalCents))
	for range created.Items {
		metrics.StockMovementsTotal.WithLabelValues(domain.MovementOut).Inc()
	}
	s.logAudit(ctx, "checkout", "transaction", created.ID, fmt.Sprintf("total=%d,items=%d", created.TotalCents, len(created.Items)))
	return *created, nil
}

// resolveCartLines snapshots the product name and current selling price for
// each cart line. Quantities for the same product are folded together.
func (s *Service) resolveCartLines(ctx context.Context, lines []domain.CartLine) ([]domain.TransactionItem, error) {
	aggregated := make(map[string]int, len(lines))
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Qty < 1 {
			return nil, store.ErrInvalid
		}
		if _, seen := aggregated[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		aggregated[line.ProductID] += line.Qty
	}

	items := make([]domain.TransactionItem, 0, len(order))
	for _, productID := range order {
		product, err := s.repo.GetProductByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if !product.Active {
			return nil, store.ErrInvalid
		}
		items = append(items, domain.TransactionItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Qty:            aggregated[productID],
			UnitPriceCents: product.SellingCents,
		})
	}
	return items, nil
}

func (s *Service) ListTransactions(ctx context.Context, from, to time.Time, limit int) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx, from, to, limit)
}

func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	tx, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *tx, nil
}

type qrPayload struct {
	SaleID string `json:"sale_id"`
	Amount int64  `json:"amount"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// BuildReceipt renders a printable receipt. The QR payload is verification
// data for the customer, not a signature.
func (s *Service) BuildReceipt(ctx context.Context, transactionID string) (domain.Receipt, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return domain.Receipt{}, store.ErrInvalid
	}
	tx, err := s.repo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return domain.Receipt{}, err
	}

	storeName := "Toko Kita"
	if settings, err := s.repo.GetSettings(ctx); err == nil {
		for _, setting := range settings {
			if setting.Key == "store_name" && strings.TrimSpace(setting.Value) != "" {
				storeName = strings.TrimSpace(setting.Value)
			}
		}
	}

	payload, err := json.Marshal(qrPayload{
		SaleID: tx.ID,
		Amount: tx.TotalCents,
		Date:   tx.CreatedAt.Format(time.RFC3339),
		Status: "APPROVED",
	})
	if err != nil {
		return domain.Receipt{}, err
	}

	lines := []string{
		storeName,
		"================================",
		"No    : " + tx.ID,
		"Waktu : " + tx.CreatedAt.Format("2006-01-02 15:04:05"),
		"Kasir : " + defaultString(tx.CashierName, "-"),
		"--------------------------------",
	}
	for _, item := range tx.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", item.ProductName, item.Qty))
		lines = append(lines, fmt.Sprintf("  @%s = %s", formatCents(item.UnitPriceCents), formatCents(item.SubtotalCents)))
	}
	lines = append(lines,
		"--------------------------------",
		"Subtotal : "+formatCents(tx.SubtotalCents),
		"Diskon   : "+formatCents(tx.DiscountCents),
		"Pajak    : "+formatCents(tx.TaxCents),
		"Total    : "+formatCents(tx.TotalCents),
		"Bayar    : "+tx.PaymentMethod,
		"================================",
		"Terima kasih",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return domain.Receipt{
		TransactionID: tx.ID,
		PreviewText:   strings.Join(lines, "\n"),
		EscposBase64:  base64.StdEncoding.EncodeToString(escpos),
		QRPayload:     string(payload),
	}, nil
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		zap.L().Warn("audit log write failed",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func parseDate(val string) (*time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func defaultString(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}

// formatCents renders whole-currency amounts. Rupiah has no sub-unit in
// practice, so cents are stored but displayed divided by 100.
func formatCents(cents int64) string {
	whole := cents / 100
	frac := cents % 100
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	return fmt.Sprintf("%d.%02d", whole, frac)
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case "cash", "card", "qris", "ewallet", "transfer":
		return true
	default:
		return false
	}
}
