package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
	"tokokita/backend/internal/xid"
)

type Store struct {
	mu                 sync.RWMutex
	products           map[string]domain.Product
	productIDBySKU     map[string]string
	warehouses         map[string]domain.Warehouse
	movements          map[string]domain.StockMovement
	balances           map[string]domain.StockBalance
	billsByID          map[string]*domain.PendingBill
	transactionsByID   map[string]*domain.Transaction
	customersByID      map[string]domain.Customer
	suppliersByID      map[string]domain.Supplier
	employeesByID      map[string]domain.Employee
	expenseCategories  map[string]domain.ExpenseCategory
	expensesByID       map[string]domain.Expense
	ticketsByID        map[string]domain.Ticket
	loansByID          map[string]domain.Loan
	paymentsByLoanID   map[string][]domain.LoanPayment
	settingsByKey      map[string]domain.Setting
	auditLogs          []domain.AuditLog
	usersByUsername    map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"staff", staffPwd, "staff"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New() *Store {
	return &Store{
		products:          make(map[string]domain.Product),
		productIDBySKU:    make(map[string]string),
		warehouses:        make(map[string]domain.Warehouse),
		movements:         make(map[string]domain.StockMovement),
		balances:          make(map[string]domain.StockBalance),
		billsByID:         make(map[string]*domain.PendingBill),
		transactionsByID:  make(map[string]*domain.Transaction),
		customersByID:     make(map[string]domain.Customer),
		suppliersByID:     make(map[string]domain.Supplier),
		employeesByID:     make(map[string]domain.Employee),
		expenseCategories: make(map[string]domain.ExpenseCategory),
		expensesByID:      make(map[string]domain.Expense),
		ticketsByID:       make(map[string]domain.Ticket),
		loansByID:         make(map[string]domain.Loan),
		paymentsByLoanID:  make(map[string][]domain.LoanPayment),
		settingsByKey:     make(map[string]domain.Setting),
		auditLogs:         make([]domain.AuditLog, 0, 128),
		usersByUsername:   seedUsers(),
	}
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	warehouses := []domain.Warehouse{
		{ID: "wh-utama", Name: "Gudang Utama", Location: "Belakang toko", Active: true, CreatedAt: now},
		{ID: "wh-depan", Name: "Etalase Depan", Location: "Area kasir", Active: true, CreatedAt: now},
	}
	for _, w := range warehouses {
		s.warehouses[w.ID] = w
	}

	expiry := func(days int) *time.Time {
		d := now.AddDate(0, 0, days).Truncate(24 * time.Hour)
		return &d
	}
	products := []domain.Product{
		{ID: "prd-mie", Name: "Mie Goreng Instan", SKU: "SKU-MIE-01", Barcode: "8991002101012", PurchaseCents: 2700, SellingCents: 3500, MinStockLevel: 24, Category: "grocery", Active: true},
		{ID: "prd-telur", Name: "Telur 10 Butir", SKU: "SKU-TELUR-01", PurchaseCents: 23000, SellingCents: 26500, MinStockLevel: 10, Category: "grocery", ExpiryDate: expiry(14), Active: true},
		{ID: "prd-susu", Name: "Susu UHT 1L", SKU: "SKU-SUSU-01", Barcode: "8993675301017", PurchaseCents: 13600, SellingCents: 18900, MinStockLevel: 12, Category: "dairy", ExpiryDate: expiry(45), Active: true},
		{ID: "prd-roti", Name: "Roti Tawar", SKU: "SKU-ROTI-01", PurchaseCents: 12400, SellingCents: 17800, MinStockLevel: 6, Category: "bakery", ExpiryDate: expiry(4), Active: true},
		{ID: "prd-kopi", Name: "Kopi Sachet", SKU: "SKU-KOPI-01", PurchaseCents: 1700, SellingCents: 2600, MinStockLevel: 48, Category: "beverage", Active: true},
		{ID: "prd-gula", Name: "Gula 1kg", SKU: "SKU-GULA-01", PurchaseCents: 15300, SellingCents: 17400, MinStockLevel: 8, Category: "grocery", Active: true},
		{ID: "prd-sabun", Name: "Sabun Mandi", SKU: "SKU-SABUN-01", Barcode: "8999999001236", PurchaseCents: 5000, SellingCents: 7400, MinStockLevel: 12, Category: "household", Active: true},
	}
	for _, p := range products {
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
		s.productIDBySKU[strings.ToUpper(p.SKU)] = p.ID
	}

	for _, p := range products {
		qty := 120
		if p.ID == "prd-roti" {
			qty = 4
		}
		s.balances[balanceKey(p.ID, "wh-utama")] = domain.StockBalance{
			ProductID:   p.ID,
			WarehouseID: "wh-utama",
			Qty:         qty,
			UpdatedAt:   now,
		}
	}

	for _, st := range []domain.Setting{
		{Key: "currency", Value: "IDR", UpdatedAt: now},
		{Key: "default_min_stock", Value: "5", UpdatedAt: now},
		{Key: "store_name", Value: "Toko Kita", UpdatedAt: now},
	} {
		s.settingsByKey[st.Key] = st
	}

	return s
}

func balanceKey(productID string, warehouseID string) string {
	return productID + "::" + warehouseID
}

func (s *Store) ListProducts(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active && !includeInactive {
			continue
		}
		products = append(products, cloneProduct(p))
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := cloneProduct(product)
	return &dup, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.productIDBySKU[strings.ToUpper(sku)]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := cloneProduct(s.products[id])
	return &dup, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.SellingCents < 0 || product.PurchaseCents < 0 || product.MinStockLevel < 0 {
		return nil, store.ErrInvalid
	}
	if product.SKU != "" {
		if _, exists := s.productIDBySKU[strings.ToUpper(product.SKU)]; exists {
			return nil, store.ErrConflict
		}
	}

	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.products[product.ID] = product
	if product.SKU != "" {
		s.productIDBySKU[strings.ToUpper(product.SKU)] = product.ID
	}
	created := cloneProduct(product)
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if product.Name == "" || product.SellingCents < 0 || product.PurchaseCents < 0 || product.MinStockLevel < 0 {
		return nil, store.ErrInvalid
	}
	if product.SKU != "" {
		if otherID, ok := s.productIDBySKU[strings.ToUpper(product.SKU)]; ok && otherID != product.ID {
			return nil, store.ErrConflict
		}
	}

	if existing.SKU != "" && !strings.EqualFold(existing.SKU, product.SKU) {
		delete(s.productIDBySKU, strings.ToUpper(existing.SKU))
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = product
	if product.SKU != "" {
		s.productIDBySKU[strings.ToUpper(product.SKU)] = product.ID
	}
	updated := cloneProduct(product)
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return store.ErrNotFound
	}
	for _, m := range s.movements {
		if m.ProductID == id {
			return store.ErrConflict
		}
	}
	for key, b := range s.balances {
		if b.ProductID == id {
			delete(s.balances, key)
		}
	}
	if product.SKU != "" {
		delete(s.productIDBySKU, strings.ToUpper(product.SKU))
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]string{}
	for _, p := range s.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(p.Category)]; !ok {
			seen[strings.ToLower(p.Category)] = p.Category
		}
	}
	categories := make([]string, 0, len(seen))
	for _, c := range seen {
		categories = append(categories, c)
	}
	slices.Sort(categories)
	return categories, nil
}

func (s *Store) ListWarehouses(_ context.Context, includeInactive bool) ([]domain.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	warehouses := make([]domain.Warehouse, 0, len(s.warehouses))
	for _, w := range s.warehouses {
		if !w.Active && !includeInactive {
			continue
		}
		warehouses = append(warehouses, w)
	}
	slices.SortFunc(warehouses, func(a, b domain.Warehouse) int {
		return cmpString(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return warehouses, nil
}

func (s *Store) GetWarehouseByID(_ context.Context, id string) (*domain.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	warehouse, exists := s.warehouses[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := warehouse
	return &dup, nil
}

func (s *Store) GetWarehouseByName(_ context.Context, name string) (*domain.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.warehouses {
		if strings.EqualFold(w.Name, name) {
			dup := w
			return &dup, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateWarehouse(_ context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if warehouse.Name == "" {
		return nil, store.ErrInvalid
	}
	for _, w := range s.warehouses {
		if strings.EqualFold(w.Name, warehouse.Name) {
			return nil, store.ErrConflict
		}
	}

	if warehouse.ID == "" {
		warehouse.ID = xid.New("wh")
	}
	if warehouse.CreatedAt.IsZero() {
		warehouse.CreatedAt = time.Now().UTC()
	}
	warehouse.Active = true
	s.warehouses[warehouse.ID] = warehouse
	created := warehouse
	return &created, nil
}

func (s *Store) UpdateWarehouse(_ context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.warehouses[warehouse.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if warehouse.Name == "" {
		return nil, store.ErrInvalid
	}
	for id, w := range s.warehouses {
		if id != warehouse.ID && strings.EqualFold(w.Name, warehouse.Name) {
			return nil, store.ErrConflict
		}
	}
	warehouse.CreatedAt = existing.CreatedAt
	s.warehouses[warehouse.ID] = warehouse
	updated := warehouse
	return &updated, nil
}

func (s *Store) DeleteWarehouse(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.warehouses[id]; !exists {
		return store.ErrNotFound
	}
	for _, b := range s.balances {
		if b.WarehouseID == id && b.Qty != 0 {
			return store.ErrConflict
		}
	}
	for _, m := range s.movements {
		if m.WarehouseID == id {
			return store.ErrConflict
		}
	}
	for key, b := range s.balances {
		if b.WarehouseID == id {
			delete(s.balances, key)
		}
	}
	delete(s.warehouses, id)
	return nil
}

func (s *Store) RecordMovement(_ context.Context, movement domain.StockMovement) (*domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.applyMovementLocked(movement)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// applyMovementLocked validates one movement and applies it to the balance
// row. Callers must hold s.mu.
func (s *Store) applyMovementLocked(movement domain.StockMovement) (*domain.StockMovement, error) {
	if movement.Direction != domain.MovementIn && movement.Direction != domain.MovementOut {
		return nil, store.ErrInvalid
	}
	if movement.Qty < 1 {
		return nil, store.ErrInvalid
	}
	if _, exists := s.products[movement.ProductID]; !exists {
		return nil, store.ErrNotFound
	}
	if _, exists := s.warehouses[movement.WarehouseID]; !exists {
		return nil, store.ErrNotFound
	}

	key := balanceKey(movement.ProductID, movement.WarehouseID)
	balance := s.balances[key]
	balance.ProductID = movement.ProductID
	balance.WarehouseID = movement.WarehouseID

	delta := movement.Qty
	if movement.Direction == domain.MovementOut {
		delta = -delta
	}
	if balance.Qty+delta < 0 {
		return nil, store.ErrInsufficientStock
	}
	balance.Qty += delta
	balance.UpdatedAt = time.Now().UTC()
	s.balances[key] = balance

	if movement.ID == "" {
		movement.ID = xid.New("mov")
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}
	s.movements[movement.ID] = movement
	created := movement
	return &created, nil
}

func (s *Store) TransferStock(_ context.Context, productID, fromWarehouseID, toWarehouseID string, qty int, notes, actorName string) ([]domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty < 1 || fromWarehouseID == toWarehouseID {
		return nil, store.ErrInvalid
	}

	from := s.balances[balanceKey(productID, fromWarehouseID)]
	if from.Qty < qty {
		return nil, store.ErrInsufficientStock
	}

	out, err := s.applyMovementLocked(domain.StockMovement{
		ProductID:   productID,
		WarehouseID: fromWarehouseID,
		Direction:   domain.MovementOut,
		Qty:         qty,
		Notes:       notes,
		ActorName:   actorName,
	})
	if err != nil {
		return nil, err
	}
	in, err := s.applyMovementLocked(domain.StockMovement{
		ProductID:   productID,
		WarehouseID: toWarehouseID,
		Direction:   domain.MovementIn,
		Qty:         qty,
		Reference:   out.ID,
		Notes:       notes,
		ActorName:   actorName,
	})
	if err != nil {
		// roll the out leg back so a bad target warehouse cannot leak stock
		reverse := s.balances[balanceKey(productID, fromWarehouseID)]
		reverse.Qty += qty
		s.balances[balanceKey(productID, fromWarehouseID)] = reverse
		delete(s.movements, out.ID)
		return nil, err
	}
	return []domain.StockMovement{*out, *in}, nil
}

func (s *Store) ListMovements(_ context.Context, productID, warehouseID string, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 200
	}
	result := make([]domain.StockMovement, 0, limit)
	for _, m := range s.movements {
		if productID != "" && m.ProductID != productID {
			continue
		}
		if warehouseID != "" && m.WarehouseID != warehouseID {
			continue
		}
		result = append(result, m)
	}
	slices.SortFunc(result, func(a, b domain.StockMovement) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteMovement removes the ledger row only. Balances are deliberately left
// untouched, matching the admin-facing "delete history entry" behaviour.
func (s *Store) DeleteMovement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.movements[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.movements, id)
	return nil
}

func (s *Store) GetBalances(_ context.Context, productID string) ([]domain.StockBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockBalance, 0, 4)
	for _, b := range s.balances {
		if b.ProductID != productID {
			continue
		}
		if w, ok := s.warehouses[b.WarehouseID]; ok {
			b.WarehouseName = w.Name
		}
		result = append(result, b)
	}
	slices.SortFunc(result, func(a, b domain.StockBalance) int {
		return cmpString(a.WarehouseID, b.WarehouseID)
	})
	return result, nil
}

func (s *Store) GetTotalStockMap(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int, len(s.products))
	for _, b := range s.balances {
		totals[b.ProductID] += b.Qty
	}
	return totals, nil
}

func (s *Store) CreatePendingBill(_ context.Context, bill domain.PendingBill) (*domain.PendingBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bill.CustomerName == "" || bill.WarehouseID == "" || len(bill.Items) == 0 {
		return nil, store.ErrInvalid
	}
	if _, exists := s.warehouses[bill.WarehouseID]; !exists {
		return nil, store.ErrNotFound
	}

	if bill.ID == "" {
		bill.ID = xid.New("bill")
	}
	now := time.Now().UTC()
	bill.Status = domain.BillStatusOpen
	bill.CreatedAt = now
	bill.UpdatedAt = now

	total := int64(0)
	for i := range bill.Items {
		item := &bill.Items[i]
		if item.Qty < 1 || item.UnitPriceCents < 0 {
			return nil, store.ErrInvalid
		}
		if item.ID == "" {
			item.ID = xid.New("bitem")
		}
		item.BillID = bill.ID
		item.SubtotalCents = int64(item.Qty) * item.UnitPriceCents
		total += item.SubtotalCents
	}
	bill.TotalCents = total

	s.billsByID[bill.ID] = clonePendingBill(&bill)
	return clonePendingBill(&bill), nil
}

func (s *Store) ListPendingBills(_ context.Context, status string, limit int) ([]domain.PendingBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.PendingBill, 0, limit)
	for _, bill := range s.billsByID {
		if status != "" && bill.Status != status {
			continue
		}
		result = append(result, *clonePendingBill(bill))
	}
	slices.SortFunc(result, func(a, b domain.PendingBill) int {
		if a.UpdatedAt.Equal(b.UpdatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.UpdatedAt.After(b.UpdatedAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetPendingBillByID(_ context.Context, id string) (*domain.PendingBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bill, exists := s.billsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return clonePendingBill(bill), nil
}

// MergeBillItems folds cart lines into an open bill. A line matching an
// existing bill item by product increments the quantity and recomputes the
// subtotal at the bill's stored unit price, not the incoming one.
func (s *Store) MergeBillItems(_ context.Context, billID string, lines []domain.CartLine) (*domain.PendingBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, exists := s.billsByID[billID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if bill.Status != domain.BillStatusOpen {
		return nil, store.ErrInvalid
	}
	if len(lines) == 0 {
		return nil, store.ErrInvalid
	}

	for _, line := range lines {
		if line.Qty < 1 || line.UnitPriceCents < 0 {
			return nil, store.ErrInvalid
		}
		merged := false
		for i := range bill.Items {
			if bill.Items[i].ProductID == line.ProductID {
				bill.Items[i].Qty += line.Qty
				bill.Items[i].SubtotalCents = int64(bill.Items[i].Qty) * bill.Items[i].UnitPriceCents
				merged = true
				break
			}
		}
		if !merged {
			bill.Items = append(bill.Items, domain.PendingBillItem{
				ID:             xid.New("bitem"),
				BillID:         bill.ID,
				ProductID:      line.ProductID,
				ProductName:    line.ProductName,
				Qty:            line.Qty,
				UnitPriceCents: line.UnitPriceCents,
				SubtotalCents:  int64(line.Qty) * line.UnitPriceCents,
			})
		}
	}

	total := int64(0)
	for _, item := range bill.Items {
		total += item.SubtotalCents
	}
	bill.TotalCents = total
	bill.UpdatedAt = time.Now().UTC()
	return clonePendingBill(bill), nil
}

func (s *Store) RemoveBillItem(_ context.Context, billID, itemID string) (*domain.PendingBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, exists := s.billsByID[billID]
	if !exists {
		return nil, store.ErrNotFound
	}

	idx := -1
	for i := range bill.Items {
		if bill.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, store.ErrNotFound
	}
	bill.Items = append(bill.Items[:idx], bill.Items[idx+1:]...)

	total := int64(0)
	for _, item := range bill.Items {
		total += item.SubtotalCents
	}
	bill.TotalCents = total
	bill.UpdatedAt = time.Now().UTC()
	return clonePendingBill(bill), nil
}

func (s *Store) CloseBill(_ context.Context, billID string) (*domain.PendingBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, exists := s.billsByID[billID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if bill.Status != domain.BillStatusOpen {
		return nil, store.ErrInvalid
	}
	bill.Status = domain.BillStatusClosed
	bill.UpdatedAt = time.Now().UTC()
	return clonePendingBill(bill), nil
}

func (s *Store) DeletePendingBill(_ context.Context, billID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.billsByID[billID]; !exists {
		return store.ErrNotFound
	}
	delete(s.billsByID, billID)
	return nil
}

func (s *Store) CreateSale(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tx.Items) == 0 || tx.WarehouseID == "" {
		return nil, store.ErrInvalid
	}
	if _, exists := s.warehouses[tx.WarehouseID]; !exists {
		return nil, store.ErrNotFound
	}

	subtotal := int64(0)
	for i := range tx.Items {
		item := &tx.Items[i]
		if item.Qty < 1 || item.UnitPriceCents < 0 {
			return nil, store.ErrInvalid
		}
		if _, exists := s.products[item.ProductID]; !exists {
			return nil, store.ErrNotFound
		}
		balance := s.balances[balanceKey(item.ProductID, tx.WarehouseID)]
		if balance.Qty < item.Qty {
			return nil, store.ErrInsufficientStock
		}
		item.SubtotalCents = int64(item.Qty) * item.UnitPriceCents
		subtotal += item.SubtotalCents
	}

	if tx.DiscountCents < 0 || tx.DiscountCents > subtotal || tx.TaxCents < 0 {
		return nil, store.ErrInvalid
	}

	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	tx.SubtotalCents = subtotal
	tx.TotalCents = subtotal - tx.DiscountCents + tx.TaxCents
	tx.Status = domain.TxStatusPaid

	for _, item := range tx.Items {
		if _, err := s.applyMovementLocked(domain.StockMovement{
			ProductID:   item.ProductID,
			WarehouseID: tx.WarehouseID,
			Direction:   domain.MovementOut,
			Qty:         item.Qty,
			Reference:   tx.ID,
			Notes:       "penjualan",
			ActorName:   tx.CashierName,
		}); err != nil {
			return nil, err
		}
	}

	s.transactionsByID[tx.ID] = cloneTransaction(&tx)
	return cloneTransaction(&tx), nil
}

func (s *Store) FindTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(tx), nil
}

func (s *Store) ListTransactions(_ context.Context, from, to time.Time, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.Transaction, 0, limit)
	for _, tx := range s.transactionsByID {
		if !from.IsZero() && tx.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !tx.CreatedAt.Before(to) {
			continue
		}
		result = append(result, *cloneTransaction(tx))
	}
	slices.SortFunc(result, func(a, b domain.Transaction) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return cmpString(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return customers, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := customer
	return &dup, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.Name == "" {
		return nil, store.ErrInvalid
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	now := time.Now().UTC()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	s.customersByID[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.customersByID[customer.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if customer.Name == "" {
		return nil, store.ErrInvalid
	}
	customer.CreatedAt = existing.CreatedAt
	customer.UpdatedAt = time.Now().UTC()
	s.customersByID[customer.ID] = customer
	updated := customer
	return &updated, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customersByID[id]; !exists {
		return store.ErrNotFound
	}
	for _, loan := range s.loansByID {
		if loan.BorrowerType == domain.BorrowerCustomer && loan.BorrowerID == id {
			return store.ErrConflict
		}
	}
	delete(s.customersByID, id)
	return nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliersByID))
	for _, sp := range s.suppliersByID {
		suppliers = append(suppliers, sp)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		return cmpString(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return suppliers, nil
}

func (s *Store) GetSupplierByID(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := supplier
	return &dup, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if supplier.Name == "" {
		return nil, store.ErrInvalid
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	now := time.Now().UTC()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now
	s.suppliersByID[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.suppliersByID[supplier.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if supplier.Name == "" {
		return nil, store.ErrInvalid
	}
	supplier.CreatedAt = existing.CreatedAt
	supplier.UpdatedAt = time.Now().UTC()
	s.suppliersByID[supplier.ID] = supplier
	updated := supplier
	return &updated, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliersByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.suppliersByID, id)
	return nil
}

func (s *Store) ListEmployees(_ context.Context, includeInactive bool) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]domain.Employee, 0, len(s.employeesByID))
	for _, e := range s.employeesByID {
		if !e.Active && !includeInactive {
			continue
		}
		employees = append(employees, e)
	}
	slices.SortFunc(employees, func(a, b domain.Employee) int {
		return cmpString(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return employees, nil
}

func (s *Store) GetEmployeeByID(_ context.Context, id string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, exists := s.employeesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := employee
	return &dup, nil
}

func (s *Store) CreateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.Name == "" || employee.SalaryCents < 0 {
		return nil, store.ErrInvalid
	}
	if employee.ID == "" {
		employee.ID = xid.New("emp")
	}
	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now
	employee.Active = true
	s.employeesByID[employee.ID] = employee
	created := employee
	return &created, nil
}

func (s *Store) UpdateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.employeesByID[employee.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if employee.Name == "" || employee.SalaryCents < 0 {
		return nil, store.ErrInvalid
	}
	employee.CreatedAt = existing.CreatedAt
	employee.UpdatedAt = time.Now().UTC()
	s.employeesByID[employee.ID] = employee
	updated := employee
	return &updated, nil
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employeesByID[id]; !exists {
		return store.ErrNotFound
	}
	for _, loan := range s.loansByID {
		if loan.BorrowerType == domain.BorrowerEmployee && loan.BorrowerID == id {
			return store.ErrConflict
		}
	}
	delete(s.employeesByID, id)
	return nil
}

func (s *Store) ListExpenseCategories(_ context.Context) ([]domain.ExpenseCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.ExpenseCategory, 0, len(s.expenseCategories))
	for _, c := range s.expenseCategories {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b domain.ExpenseCategory) int {
		return cmpString(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return categories, nil
}

func (s *Store) CreateExpenseCategory(_ context.Context, category domain.ExpenseCategory) (*domain.ExpenseCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.Name == "" {
		return nil, store.ErrInvalid
	}
	for _, c := range s.expenseCategories {
		if strings.EqualFold(c.Name, category.Name) {
			return nil, store.ErrConflict
		}
	}
	if category.ID == "" {
		category.ID = xid.New("ecat")
	}
	category.CreatedAt = time.Now().UTC()
	s.expenseCategories[category.ID] = category
	created := category
	return &created, nil
}

func (s *Store) DeleteExpenseCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenseCategories[id]; !exists {
		return store.ErrNotFound
	}
	for _, e := range s.expensesByID {
		if e.CategoryID == id {
			return store.ErrConflict
		}
	}
	delete(s.expenseCategories, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, from, to time.Time, limit int) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 200
	}
	result := make([]domain.Expense, 0, limit)
	for _, e := range s.expensesByID {
		if !from.IsZero() && e.SpentAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.SpentAt.Before(to) {
			continue
		}
		result = append(result, e)
	}
	slices.SortFunc(result, func(a, b domain.Expense) int {
		if a.SpentAt.Equal(b.SpentAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.SpentAt.After(b.SpentAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetExpenseByID(_ context.Context, id string) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expense, exists := s.expensesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := expense
	return &dup, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.Description == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalid
	}
	if expense.CategoryID != "" {
		if _, exists := s.expenseCategories[expense.CategoryID]; !exists {
			return nil, store.ErrNotFound
		}
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.SpentAt.IsZero() {
		expense.SpentAt = time.Now().UTC()
	}
	expense.CreatedAt = time.Now().UTC()
	s.expensesByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) UpdateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.expensesByID[expense.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if expense.Description == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalid
	}
	if expense.CategoryID != "" {
		if _, ok := s.expenseCategories[expense.CategoryID]; !ok {
			return nil, store.ErrNotFound
		}
	}
	expense.CreatedAt = existing.CreatedAt
	s.expensesByID[expense.ID] = expense
	updated := expense
	return &updated, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expensesByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.expensesByID, id)
	return nil
}

func (s *Store) ListTickets(_ context.Context, status string) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets := make([]domain.Ticket, 0, len(s.ticketsByID))
	for _, t := range s.ticketsByID {
		if status != "" && t.Status != status {
			continue
		}
		tickets = append(tickets, t)
	}
	slices.SortFunc(tickets, func(a, b domain.Ticket) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return tickets, nil
}

func (s *Store) GetTicketByID(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, exists := s.ticketsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := ticket
	return &dup, nil
}

func (s *Store) CreateTicket(_ context.Context, ticket domain.Ticket) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.Subject == "" {
		return nil, store.ErrInvalid
	}
	if ticket.ID == "" {
		ticket.ID = xid.New("tkt")
	}
	now := time.Now().UTC()
	ticket.Status = domain.TicketStatusOpen
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.ticketsByID[ticket.ID] = ticket
	created := ticket
	return &created, nil
}

func (s *Store) UpdateTicket(_ context.Context, ticket domain.Ticket) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.ticketsByID[ticket.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if ticket.Subject == "" {
		return nil, store.ErrInvalid
	}
	if ticket.Status != domain.TicketStatusOpen && ticket.Status != domain.TicketStatusClosed {
		return nil, store.ErrInvalid
	}
	ticket.CreatedAt = existing.CreatedAt
	ticket.UpdatedAt = time.Now().UTC()
	s.ticketsByID[ticket.ID] = ticket
	updated := ticket
	return &updated, nil
}

func (s *Store) DeleteTicket(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ticketsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.ticketsByID, id)
	return nil
}

func (s *Store) CreateLoan(_ context.Context, loan domain.Loan) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loan.PrincipalCents < 1 || loan.InterestRate < 0 {
		return nil, store.ErrInvalid
	}
	switch loan.BorrowerType {
	case domain.BorrowerCustomer:
		if _, exists := s.customersByID[loan.BorrowerID]; !exists {
			return nil, store.ErrNotFound
		}
	case domain.BorrowerEmployee:
		if _, exists := s.employeesByID[loan.BorrowerID]; !exists {
			return nil, store.ErrNotFound
		}
	default:
		return nil, store.ErrInvalid
	}

	if loan.ID == "" {
		loan.ID = xid.New("loan")
	}
	now := time.Now().UTC()
	if loan.Status == "" {
		loan.Status = domain.LoanStatusPending
	}
	loan.CreatedAt = now
	loan.UpdatedAt = now
	s.loansByID[loan.ID] = loan
	created := cloneLoan(loan)
	return &created, nil
}

func (s *Store) ListLoans(_ context.Context, borrowerType, status string) ([]domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loans := make([]domain.Loan, 0, len(s.loansByID))
	for _, l := range s.loansByID {
		if borrowerType != "" && l.BorrowerType != borrowerType {
			continue
		}
		if status != "" && l.Status != status {
			continue
		}
		loans = append(loans, cloneLoan(l))
	}
	slices.SortFunc(loans, func(a, b domain.Loan) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return loans, nil
}

func (s *Store) GetLoanByID(_ context.Context, id string) (*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, exists := s.loansByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := cloneLoan(loan)
	return &dup, nil
}

// AddLoanPayment appends the payment and flips the loan to paid once the
// accumulated amount covers principal plus interest. The transition applies
// to customer and employee loans alike.
func (s *Store) AddLoanPayment(_ context.Context, loanID string, payment domain.LoanPayment) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, exists := s.loansByID[loanID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if loan.Status == domain.LoanStatusPaid {
		return nil, store.ErrInvalid
	}
	if payment.AmountCents < 1 {
		return nil, store.ErrInvalid
	}

	if payment.ID == "" {
		payment.ID = xid.New("lpay")
	}
	payment.LoanID = loanID
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now().UTC()
	}
	s.paymentsByLoanID[loanID] = append(s.paymentsByLoanID[loanID], payment)

	loan.PaidCents += payment.AmountCents
	if loan.PaidCents >= loan.TotalOwedCents {
		loan.Status = domain.LoanStatusPaid
	} else if loan.Status == domain.LoanStatusPending {
		loan.Status = domain.LoanStatusActive
	}
	loan.UpdatedAt = time.Now().UTC()
	s.loansByID[loanID] = loan
	updated := cloneLoan(loan)
	return &updated, nil
}

func (s *Store) ListLoanPayments(_ context.Context, loanID string) ([]domain.LoanPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.loansByID[loanID]; !exists {
		return nil, store.ErrNotFound
	}
	payments := s.paymentsByLoanID[loanID]
	result := make([]domain.LoanPayment, len(payments))
	copy(result, payments)
	slices.SortFunc(result, func(a, b domain.LoanPayment) int {
		if a.PaidAt.Equal(b.PaidAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.PaidAt.Before(b.PaidAt) {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) GetSettings(_ context.Context) ([]domain.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := make([]domain.Setting, 0, len(s.settingsByKey))
	for _, st := range s.settingsByKey {
		settings = append(settings, st)
	}
	slices.SortFunc(settings, func(a, b domain.Setting) int {
		return cmpString(a.Key, b.Key)
	})
	return settings, nil
}

func (s *Store) UpsertSetting(_ context.Context, setting domain.Setting) (*domain.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if setting.Key == "" {
		return nil, store.ErrInvalid
	}
	setting.UpdatedAt = time.Now().UTC()
	s.settingsByKey[setting.Key] = setting
	updated := setting
	return &updated, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		entry := s.auditLogs[i]
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" {
		return store.ErrInvalid
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrConflict
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return nil, store.ErrNotFound
	}
	clone := user
	return &clone, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneProduct(src domain.Product) domain.Product {
	dup := src
	if src.ExpiryDate != nil {
		expiry := *src.ExpiryDate
		dup.ExpiryDate = &expiry
	}
	return dup
}

func cloneLoan(src domain.Loan) domain.Loan {
	dup := src
	if src.DueDate != nil {
		due := *src.DueDate
		dup.DueDate = &due
	}
	return dup
}

func clonePendingBill(src *domain.PendingBill) *domain.PendingBill {
	if src == nil {
		return nil
	}
	dup := *src
	items := make([]domain.PendingBillItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return &dup
}

func cloneTransaction(src *domain.Transaction) *domain.Transaction {
	if src == nil {
		return nil
	}
	dup := *src
	items := make([]domain.TransactionItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return &dup
}
