package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
	"tokokita/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const productColumns = `id, name, COALESCE(sku,''), COALESCE(barcode,''), COALESCE(description,''),
	purchase_cents, selling_cents, min_stock_level, COALESCE(category,''), expiry_date, active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	var expiry sql.NullTime
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Barcode, &p.Description,
		&p.PurchaseCents, &p.SellingCents, &p.MinStockLevel, &p.Category, &expiry, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if expiry.Valid {
		e := nowDateUTC(expiry.Time)
		p.ExpiryDate = &e
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE active = true OR $1
		ORDER BY lower(name)
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE upper(sku) = upper($1)
	`, sku))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SellingCents < 0 || product.PurchaseCents < 0 || product.MinStockLevel < 0 {
		return nil, store.ErrInvalid
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, sku, barcode, description, purchase_cents, selling_cents,
			min_stock_level, category, expiry_date, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
	`, product.ID, product.Name, nullIfEmpty(product.SKU), nullIfEmpty(product.Barcode), nullIfEmpty(product.Description),
		product.PurchaseCents, product.SellingCents, product.MinStockLevel, nullIfEmpty(product.Category),
		nullDate(product.ExpiryDate), product.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return s.GetProductByID(ctx, product.ID)
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SellingCents < 0 || product.PurchaseCents < 0 || product.MinStockLevel < 0 {
		return nil, store.ErrInvalid
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, sku = $3, barcode = $4, description = $5, purchase_cents = $6, selling_cents = $7,
			min_stock_level = $8, category = $9, expiry_date = $10, active = $11, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, nullIfEmpty(product.SKU), nullIfEmpty(product.Barcode), nullIfEmpty(product.Description),
		product.PurchaseCents, product.SellingCents, product.MinStockLevel, nullIfEmpty(product.Category),
		nullDate(product.ExpiryDate), product.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetProductByID(ctx, product.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	var hasMovements bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM stock_movements WHERE product_id = $1)
	`, id).Scan(&hasMovements)
	if err != nil {
		return err
	}
	if hasMovements {
		return store.ErrConflict
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	if _, err := pgTx.ExecContext(ctx, `DELETE FROM stock_balances WHERE product_id = $1`, id); err != nil {
		return err
	}
	res, err := pgTx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return pgTx.Commit()
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (lower(category)) category
		FROM products
		WHERE category IS NOT NULL AND category <> ''
		ORDER BY lower(category)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]string, 0, 16)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) ListWarehouses(ctx context.Context, includeInactive bool) ([]domain.Warehouse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(location,''), active, created_at
		FROM warehouses
		WHERE active = true OR $1
		ORDER BY lower(name)
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	warehouses := make([]domain.Warehouse, 0, 8)
	for rows.Next() {
		var w domain.Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Location, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (s *Store) GetWarehouseByID(ctx context.Context, id string) (*domain.Warehouse, error) {
	var w domain.Warehouse
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(location,''), active, created_at
		FROM warehouses WHERE id = $1
	`, id).Scan(&w.ID, &w.Name, &w.Location, &w.Active, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (s *Store) GetWarehouseByName(ctx context.Context, name string) (*domain.Warehouse, error) {
	var w domain.Warehouse
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(location,''), active, created_at
		FROM warehouses WHERE lower(name) = lower($1)
	`, name).Scan(&w.ID, &w.Name, &w.Location, &w.Active, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (s *Store) CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error) {
	if warehouse.Name == "" {
		return nil, store.ErrInvalid
	}
	if warehouse.ID == "" {
		warehouse.ID = xid.New("wh")
	}
	warehouse.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO warehouses (id, name, location, active, created_at)
		VALUES ($1,$2,$3,$4,now())
	`, warehouse.ID, warehouse.Name, nullIfEmpty(warehouse.Location), warehouse.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return s.GetWarehouseByID(ctx, warehouse.ID)
}

func (s *Store) UpdateWarehouse(ctx context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error) {
	if warehouse.Name == "" {
		return nil, store.ErrInvalid
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE warehouses
		SET name = $2, location = $3, active = $4
		WHERE id = $1
	`, warehouse.ID, warehouse.Name, nullIfEmpty(warehouse.Location), warehouse.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetWarehouseByID(ctx, warehouse.ID)
}

func (s *Store) DeleteWarehouse(ctx context.Context, id string) error {
	var inUse bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM stock_movements WHERE warehouse_id = $1)
			OR EXISTS (SELECT 1 FROM stock_balances WHERE warehouse_id = $1 AND qty <> 0)
	`, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return store.ErrConflict
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	if _, err := pgTx.ExecContext(ctx, `DELETE FROM stock_balances WHERE warehouse_id = $1`, id); err != nil {
		return err
	}
	res, err := pgTx.ExecContext(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return pgTx.Commit()
}

// applyMovementTx inserts one ledger row and adjusts the matching balance
// row inside the caller's transaction. The balance row is locked first so an
// out that would drive the quantity negative fails before anything is
// written.
func applyMovementTx(ctx context.Context, pgTx *sql.Tx, movement *domain.StockMovement) error {
	if movement.Direction != domain.MovementIn && movement.Direction != domain.MovementOut {
		return store.ErrInvalid
	}
	if movement.Qty < 1 {
		return store.ErrInvalid
	}

	var current int
	err := pgTx.QueryRowContext(ctx, `
		SELECT qty FROM stock_balances
		WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE
	`, movement.ProductID, movement.WarehouseID).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	delta := movement.Qty
	if movement.Direction == domain.MovementOut {
		delta = -delta
	}
	if current+delta < 0 {
		return store.ErrInsufficientStock
	}

	if movement.ID == "" {
		movement.ID = xid.New("mov")
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO stock_movements (id, product_id, warehouse_id, direction, qty, reference, notes, actor_name, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, movement.ID, movement.ProductID, movement.WarehouseID, movement.Direction, movement.Qty,
		nullIfEmpty(movement.Reference), nullIfEmpty(movement.Notes), nullIfEmpty(movement.ActorName), movement.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return err
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO stock_balances (product_id, warehouse_id, qty, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET qty = stock_balances.qty + EXCLUDED.qty, updated_at = now()
	`, movement.ProductID, movement.WarehouseID, delta)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) RecordMovement(ctx context.Context, movement domain.StockMovement) (*domain.StockMovement, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	if err := applyMovementTx(ctx, pgTx, &movement); err != nil {
		return nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	created := movement
	return &created, nil
}

func (s *Store) TransferStock(ctx context.Context, productID, fromWarehouseID, toWarehouseID string, qty int, notes, actorName string) ([]domain.StockMovement, error) {
	if qty < 1 || fromWarehouseID == toWarehouseID {
		return nil, store.ErrInvalid
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	out := domain.StockMovement{
		ProductID:   productID,
		WarehouseID: fromWarehouseID,
		Direction:   domain.MovementOut,
		Qty:         qty,
		Notes:       notes,
		ActorName:   actorName,
	}
	if err := applyMovementTx(ctx, pgTx, &out); err != nil {
		return nil, err
	}
	in := domain.StockMovement{
		ProductID:   productID,
		WarehouseID: toWarehouseID,
		Direction:   domain.MovementIn,
		Qty:         qty,
		Reference:   out.ID,
		Notes:       notes,
		ActorName:   actorName,
	}
	if err := applyMovementTx(ctx, pgTx, &in); err != nil {
		return nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return []domain.StockMovement{out, in}, nil
}

func (s *Store) ListMovements(ctx context.Context, productID, warehouseID string, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, warehouse_id, direction, qty, COALESCE(reference,''), COALESCE(notes,''), COALESCE(actor_name,''), created_at
		FROM stock_movements
		WHERE ($1 = '' OR product_id = $1)
		  AND ($2 = '' OR warehouse_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, productID, warehouseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.WarehouseID, &m.Direction, &m.Qty, &m.Reference, &m.Notes, &m.ActorName, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// DeleteMovement removes the ledger row only; balances are left as they are.
func (s *Store) DeleteMovement(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetBalances(ctx context.Context, productID string) ([]domain.StockBalance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.product_id, b.warehouse_id, w.name, b.qty, b.updated_at
		FROM stock_balances b
		JOIN warehouses w ON w.id = b.warehouse_id
		WHERE b.product_id = $1
		ORDER BY b.warehouse_id
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make([]domain.StockBalance, 0, 4)
	for rows.Next() {
		var b domain.StockBalance
		if err := rows.Scan(&b.ProductID, &b.WarehouseID, &b.WarehouseName, &b.Qty, &b.UpdatedAt); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (s *Store) GetTotalStockMap(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, COALESCE(SUM(qty), 0)
		FROM stock_balances
		GROUP BY product_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int, 128)
	for rows.Next() {
		var productID string
		var qty int
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		totals[productID] = qty
	}
	return totals, rows.Err()
}

func (s *Store) CreatePendingBill(ctx context.Context, bill domain.PendingBill) (*domain.PendingBill, error) {
	if bill.CustomerName == "" || bill.WarehouseID == "" || len(bill.Items) == 0 {
		return nil, store.ErrInvalid
	}
	if bill.ID == "" {
		bill.ID = xid.New("bill")
	}

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

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO pending_bills (id, customer_name, customer_phone, warehouse_id, notes, status, total_cents, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
	`, bill.ID, bill.CustomerName, nullIfEmpty(bill.CustomerPhone), bill.WarehouseID, nullIfEmpty(bill.Notes),
		domain.BillStatusOpen, total)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	for _, item := range bill.Items {
		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO pending_bill_items (id, bill_id, product_id, product_name, qty, unit_price_cents, subtotal_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, item.ID, item.BillID, item.ProductID, item.ProductName, item.Qty, item.UnitPriceCents, item.SubtotalCents)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return s.GetPendingBillByID(ctx, bill.ID)
}

func (s *Store) ListPendingBills(ctx context.Context, status string, limit int) ([]domain.PendingBill, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, COALESCE(customer_phone,''), warehouse_id, COALESCE(notes,''), status, total_cents, created_at, updated_at
		FROM pending_bills
		WHERE ($1 = '' OR status = $1)
		ORDER BY updated_at DESC, id DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := make([]domain.PendingBill, 0, limit)
	for rows.Next() {
		var b domain.PendingBill
		if err := rows.Scan(&b.ID, &b.CustomerName, &b.CustomerPhone, &b.WarehouseID, &b.Notes, &b.Status, &b.TotalCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func (s *Store) GetPendingBillByID(ctx context.Context, id string) (*domain.PendingBill, error) {
	var bill domain.PendingBill
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_name, COALESCE(customer_phone,''), warehouse_id, COALESCE(notes,''), status, total_cents, created_at, updated_at
		FROM pending_bills WHERE id = $1
	`, id).Scan(&bill.ID, &bill.CustomerName, &bill.CustomerPhone, &bill.WarehouseID, &bill.Notes, &bill.Status, &bill.TotalCents, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bill_id, product_id, product_name, qty, unit_price_cents, subtotal_cents
		FROM pending_bill_items
		WHERE bill_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.PendingBillItem
		if err := rows.Scan(&item.ID, &item.BillID, &item.ProductID, &item.ProductName, &item.Qty, &item.UnitPriceCents, &item.SubtotalCents); err != nil {
			return nil, err
		}
		bill.Items = append(bill.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &bill, nil
}

// MergeBillItems folds cart lines into an open bill. An existing item for
// the same product keeps its stored unit price; only the quantity moves.
func (s *Store) MergeBillItems(ctx context.Context, billID string, lines []domain.CartLine) (*domain.PendingBill, error) {
	if len(lines) == 0 {
		return nil, store.ErrInvalid
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var status string
	err = pgTx.QueryRowContext(ctx, `
		SELECT status FROM pending_bills WHERE id = $1 FOR UPDATE
	`, billID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.BillStatusOpen {
		return nil, store.ErrInvalid
	}

	type itemState struct {
		id             string
		qty            int
		unitPriceCents int64
	}
	itemRows, err := pgTx.QueryContext(ctx, `
		SELECT id, product_id, qty, unit_price_cents
		FROM pending_bill_items
		WHERE bill_id = $1
		FOR UPDATE
	`, billID)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]itemState, 8)
	for itemRows.Next() {
		var productID string
		var state itemState
		if err := itemRows.Scan(&state.id, &productID, &state.qty, &state.unitPriceCents); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		existing[productID] = state
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	for _, line := range lines {
		if line.Qty < 1 || line.UnitPriceCents < 0 {
			return nil, store.ErrInvalid
		}
		if state, ok := existing[line.ProductID]; ok {
			newQty := state.qty + line.Qty
			_, err = pgTx.ExecContext(ctx, `
				UPDATE pending_bill_items
				SET qty = $2, subtotal_cents = $3
				WHERE id = $1
			`, state.id, newQty, int64(newQty)*state.unitPriceCents)
			if err != nil {
				return nil, err
			}
			state.qty = newQty
			existing[line.ProductID] = state
			continue
		}
		itemID := xid.New("bitem")
		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO pending_bill_items (id, bill_id, product_id, product_name, qty, unit_price_cents, subtotal_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, itemID, billID, line.ProductID, line.ProductName, line.Qty, line.UnitPriceCents, int64(line.Qty)*line.UnitPriceCents)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}
		existing[line.ProductID] = itemState{id: itemID, qty: line.Qty, unitPriceCents: line.UnitPriceCents}
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE pending_bills
		SET total_cents = (SELECT COALESCE(SUM(subtotal_cents), 0) FROM pending_bill_items WHERE bill_id = $1),
			updated_at = now()
		WHERE id = $1
	`, billID)
	if err != nil {
		return nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return s.GetPendingBillByID(ctx, billID)
}

func (s *Store) RemoveBillItem(ctx context.Context, billID, itemID string) (*domain.PendingBill, error) {
	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	res, err := pgTx.ExecContext(ctx, `
		DELETE FROM pending_bill_items WHERE id = $1 AND bill_id = $2
	`, itemID, billID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE pending_bills
		SET total_cents = (SELECT COALESCE(SUM(subtotal_cents), 0) FROM pending_bill_items WHERE bill_id = $1),
			updated_at = now()
		WHERE id = $1
	`, billID)
	if err != nil {
		return nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return s.GetPendingBillByID(ctx, billID)
}

func (s *Store) CloseBill(ctx context.Context, billID string) (*domain.PendingBill, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE pending_bills
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, billID, domain.BillStatusClosed, domain.BillStatusOpen)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, getErr := s.GetPendingBillByID(ctx, billID); getErr != nil {
			return nil, getErr
		}
		return nil, store.ErrInvalid
	}
	return s.GetPendingBillByID(ctx, billID)
}

func (s *Store) DeletePendingBill(ctx context.Context, billID string) error {
	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	if _, err := pgTx.ExecContext(ctx, `DELETE FROM pending_bill_items WHERE bill_id = $1`, billID); err != nil {
		return err
	}
	res, err := pgTx.ExecContext(ctx, `DELETE FROM pending_bills WHERE id = $1`, billID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return pgTx.Commit()
}

func (s *Store) CreateSale(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if len(tx.Items) == 0 || tx.WarehouseID == "" {
		return nil, store.ErrInvalid
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	tx.Status = domain.TxStatusPaid

	subtotal := int64(0)
	for i := range tx.Items {
		item := &tx.Items[i]
		if item.Qty < 1 || item.UnitPriceCents < 0 {
			return nil, store.ErrInvalid
		}
		item.SubtotalCents = int64(item.Qty) * item.UnitPriceCents
		subtotal += item.SubtotalCents
	}
	if tx.DiscountCents < 0 || tx.DiscountCents > subtotal || tx.TaxCents < 0 {
		return nil, store.ErrInvalid
	}
	tx.SubtotalCents = subtotal
	tx.TotalCents = subtotal - tx.DiscountCents + tx.TaxCents

	for _, item := range tx.Items {
		movement := domain.StockMovement{
			ProductID:   item.ProductID,
			WarehouseID: tx.WarehouseID,
			Direction:   domain.MovementOut,
			Qty:         item.Qty,
			Reference:   tx.ID,
			Notes:       "penjualan",
			ActorName:   tx.CashierName,
		}
		if err := applyMovementTx(ctx, pgTx, &movement); err != nil {
			return nil, err
		}
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions (id, customer_id, warehouse_id, subtotal_cents, discount_cents, tax_cents,
			total_cents, payment_method, status, cashier_name, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, tx.ID, nullIfEmpty(tx.CustomerID), tx.WarehouseID, tx.SubtotalCents, tx.DiscountCents, tx.TaxCents,
		tx.TotalCents, tx.PaymentMethod, tx.Status, nullIfEmpty(tx.CashierName), tx.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	for _, item := range tx.Items {
		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO transaction_items (transaction_id, product_id, product_name, qty, unit_price_cents, subtotal_cents)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, tx.ID, item.ProductID, item.ProductName, item.Qty, item.UnitPriceCents, item.SubtotalCents)
		if err != nil {
			return nil, err
		}
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	created := tx
	return &created, nil
}

func (s *Store) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(customer_id,''), warehouse_id, subtotal_cents, discount_cents, tax_cents,
			total_cents, payment_method, status, COALESCE(cashier_name,''), created_at
		FROM transactions WHERE id = $1
	`, id).Scan(&tx.ID, &tx.CustomerID, &tx.WarehouseID, &tx.SubtotalCents, &tx.DiscountCents, &tx.TaxCents,
		&tx.TotalCents, &tx.PaymentMethod, &tx.Status, &tx.CashierName, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, product_name, qty, unit_price_cents, subtotal_cents
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY product_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.TransactionItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Qty, &item.UnitPriceCents, &item.SubtotalCents); err != nil {
			return nil, err
		}
		tx.Items = append(tx.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, from, to time.Time, limit int) ([]domain.Transaction, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(customer_id,''), warehouse_id, subtotal_cents, discount_cents, tax_cents,
			total_cents, payment_method, status, COALESCE(cashier_name,''), created_at
		FROM transactions
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, nullTimeValue(from), nullTimeValue(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, limit)
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.CustomerID, &tx.WarehouseID, &tx.SubtotalCents, &tx.DiscountCents, &tx.TaxCents,
			&tx.TotalCents, &tx.PaymentMethod, &tx.Status, &tx.CashierName, &tx.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(phone,''), COALESCE(email,''), COALESCE(address,''), created_at, updated_at
		FROM customers
		ORDER BY lower(name)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(phone,''), COALESCE(email,''), COALESCE(address,''), created_at, updated_at
		FROM customers WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalid
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, email, address, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now(),now())
	`, customer.ID, customer.Name, nullIfEmpty(customer.Phone), nullIfEmpty(customer.Email), nullIfEmpty(customer.Address))
	if err != nil {
		return nil, err
	}
	return s.GetCustomerByID(ctx, customer.ID)
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalid
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $2, phone = $3, email = $4, address = $5, updated_at = now()
		WHERE id = $1
	`, customer.ID, customer.Name, nullIfEmpty(customer.Phone), nullIfEmpty(customer.Email), nullIfEmpty(customer.Address))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetCustomerByID(ctx, customer.ID)
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	var hasLoans bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM loans WHERE borrower_type = $1 AND borrower_id = $2)
	`, domain.BorrowerCustomer, id).Scan(&hasLoans)
	if err != nil {
		return err
	}
	if hasLoans {
		return store.ErrConflict
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(contact_person,''), COALESCE(phone,''), COALESCE(email,''), COALESCE(address,''), created_at, updated_at
		FROM suppliers
		ORDER BY lower(name)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var sp domain.Supplier
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.ContactPerson, &sp.Phone, &sp.Email, &sp.Address, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sp)
	}
	return suppliers, rows.Err()
}

func (s *Store) GetSupplierByID(ctx context.Context, id string) (*domain.Supplier, error) {
	var sp domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(contact_person,''), COALESCE(phone,''), COALESCE(email,''), COALESCE(address,''), created_at, updated_at
		FROM suppliers WHERE id = $1
	`, id).Scan(&sp.ID, &sp.Name, &sp.ContactPerson, &sp.Phone, &sp.Email, &sp.Address, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sp, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, store.ErrInvalid
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, contact_person, phone, email, address, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,now(),now())
	`, supplier.ID, supplier.Name, nullIfEmpty(supplier.ContactPerson), nullIfEmpty(supplier.Phone),
		nullIfEmpty(supplier.Email), nullIfEmpty(supplier.Address))
	if err != nil {
		return nil, err
	}
	return s.GetSupplierByID(ctx, supplier.ID)
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, store.ErrInvalid
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE suppliers
		SET name = $2, contact_person = $3, phone = $4, email = $5, address = $6, updated_at = now()
		WHERE id = $1
	`, supplier.ID, supplier.Name, nullIfEmpty(supplier.ContactPerson), nullIfEmpty(supplier.Phone),
		nullIfEmpty(supplier.Email), nullIfEmpty(supplier.Address))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetSupplierByID(ctx, supplier.ID)
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListEmployees(ctx context.Context, includeInactive bool) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(position,''), COALESCE(phone,''), salary_cents, active, created_at, updated_at
		FROM employees
		WHERE active = true OR $1
		ORDER BY lower(name)
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 32)
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Position, &e.Phone, &e.SalaryCents, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error) {
	var e domain.Employee
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(position,''), COALESCE(phone,''), salary_cents, active, created_at, updated_at
		FROM employees WHERE id = $1
	`, id).Scan(&e.ID, &e.Name, &e.Position, &e.Phone, &e.SalaryCents, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if employee.Name == "" || employee.SalaryCents < 0 {
		return nil, store.ErrInvalid
	}
	if employee.ID == "" {
		employee.ID = xid.New("emp")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, position, phone, salary_cents, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,true,now(),now())
	`, employee.ID, employee.Name, nullIfEmpty(employee.Position), nullIfEmpty(employee.Phone), employee.SalaryCents)
	if err != nil {
		return nil, err
	}
	return s.GetEmployeeByID(ctx, employee.ID)
}

func (s *Store) UpdateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if employee.Name == "" || employee.SalaryCents < 0 {
		return nil, store.ErrInvalid
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE employees
		SET name = $2, position = $3, phone = $4, salary_cents = $5, active = $6, updated_at = now()
		WHERE id = $1
	`, employee.ID, employee.Name, nullIfEmpty(employee.Position), nullIfEmpty(employee.Phone), employee.SalaryCents, employee.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetEmployeeByID(ctx, employee.ID)
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	var hasLoans bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM loans WHERE borrower_type = $1 AND borrower_id = $2)
	`, domain.BorrowerEmployee, id).Scan(&hasLoans)
	if err != nil {
		return err
	}
	if hasLoans {
		return store.ErrConflict
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM expense_categories ORDER BY lower(name)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.ExpenseCategory, 0, 16)
	for rows.Next() {
		var c domain.ExpenseCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) CreateExpenseCategory(ctx context.Context, category domain.ExpenseCategory) (*domain.ExpenseCategory, error) {
	if category.Name == "" {
		return nil, store.ErrInvalid
	}
	if category.ID == "" {
		category.ID = xid.New("ecat")
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO expense_categories (id, name, created_at)
		VALUES ($1,$2,now())
		RETURNING created_at
	`, category.ID, category.Name).Scan(&category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := category
	return &created, nil
}

func (s *Store) DeleteExpenseCategory(ctx context.Context, id string) error {
	var inUse bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM expenses WHERE category_id = $1)
	`, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return store.ErrConflict
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM expense_categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, from, to time.Time, limit int) ([]domain.Expense, error) {
	if limit < 1 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(category_id,''), description, amount_cents, spent_at, COALESCE(notes,''), created_at
		FROM expenses
		WHERE ($1::timestamptz IS NULL OR spent_at >= $1)
		  AND ($2::timestamptz IS NULL OR spent_at < $2)
		ORDER BY spent_at DESC, id DESC
		LIMIT $3
	`, nullTimeValue(from), nullTimeValue(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, limit)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.CategoryID, &e.Description, &e.AmountCents, &e.SpentAt, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) GetExpenseByID(ctx context.Context, id string) (*domain.Expense, error) {
	var e domain.Expense
	err := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(category_id,''), description, amount_cents, spent_at, COALESCE(notes,''), created_at
		FROM expenses WHERE id = $1
	`, id).Scan(&e.ID, &e.CategoryID, &e.Description, &e.AmountCents, &e.SpentAt, &e.Notes, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.Description == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalid
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.SpentAt.IsZero() {
		expense.SpentAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, category_id, description, amount_cents, spent_at, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())
	`, expense.ID, nullIfEmpty(expense.CategoryID), expense.Description, expense.AmountCents, expense.SpentAt, nullIfEmpty(expense.Notes))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return s.GetExpenseByID(ctx, expense.ID)
}

func (s *Store) UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.Description == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalid
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET category_id = $2, description = $3, amount_cents = $4, spent_at = $5, notes = $6
		WHERE id = $1
	`, expense.ID, nullIfEmpty(expense.CategoryID), expense.Description, expense.AmountCents, expense.SpentAt, nullIfEmpty(expense.Notes))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetExpenseByID(ctx, expense.ID)
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListTickets(ctx context.Context, status string) ([]domain.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, COALESCE(body,''), status, created_at, updated_at
		FROM tickets
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0, 32)
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Subject, &t.Body, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *Store) GetTicketByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var t domain.Ticket
	err := s.db.QueryRowContext(ctx, `
		SELECT id, subject, COALESCE(body,''), status, created_at, updated_at
		FROM tickets WHERE id = $1
	`, id).Scan(&t.ID, &t.Subject, &t.Body, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTicket(ctx context.Context, ticket domain.Ticket) (*domain.Ticket, error) {
	if ticket.Subject == "" {
		return nil, store.ErrInvalid
	}
	if ticket.ID == "" {
		ticket.ID = xid.New("tkt")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (id, subject, body, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,now(),now())
	`, ticket.ID, ticket.Subject, nullIfEmpty(ticket.Body), domain.TicketStatusOpen)
	if err != nil {
		return nil, err
	}
	return s.GetTicketByID(ctx, ticket.ID)
}

func (s *Store) UpdateTicket(ctx context.Context, ticket domain.Ticket) (*domain.Ticket, error) {
	if ticket.Subject == "" {
		return nil, store.ErrInvalid
	}
	if ticket.Status != domain.TicketStatusOpen && ticket.Status != domain.TicketStatusClosed {
		return nil, store.ErrInvalid
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tickets
		SET subject = $2, body = $3, status = $4, updated_at = now()
		WHERE id = $1
	`, ticket.ID, ticket.Subject, nullIfEmpty(ticket.Body), ticket.Status)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetTicketByID(ctx, ticket.ID)
}

func (s *Store) DeleteTicket(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

const loanColumns = `id, borrower_type, borrower_id, principal_cents, interest_rate, total_owed_cents,
	paid_cents, status, due_date, COALESCE(notes,''), created_at, updated_at`

func scanLoan(row interface{ Scan(...any) error }) (*domain.Loan, error) {
	var l domain.Loan
	var due sql.NullTime
	if err := row.Scan(&l.ID, &l.BorrowerType, &l.BorrowerID, &l.PrincipalCents, &l.InterestRate, &l.TotalOwedCents,
		&l.PaidCents, &l.Status, &due, &l.Notes, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		d := nowDateUTC(due.Time)
		l.DueDate = &d
	}
	return &l, nil
}

func (s *Store) CreateLoan(ctx context.Context, loan domain.Loan) (*domain.Loan, error) {
	if loan.PrincipalCents < 1 || loan.InterestRate < 0 {
		return nil, store.ErrInvalid
	}
	if loan.BorrowerType != domain.BorrowerCustomer && loan.BorrowerType != domain.BorrowerEmployee {
		return nil, store.ErrInvalid
	}
	if loan.ID == "" {
		loan.ID = xid.New("loan")
	}
	if loan.Status == "" {
		loan.Status = domain.LoanStatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loans (id, borrower_type, borrower_id, principal_cents, interest_rate, total_owed_cents,
			paid_cents, status, due_date, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
	`, loan.ID, loan.BorrowerType, loan.BorrowerID, loan.PrincipalCents, loan.InterestRate, loan.TotalOwedCents,
		loan.PaidCents, loan.Status, nullDate(loan.DueDate), nullIfEmpty(loan.Notes))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return s.GetLoanByID(ctx, loan.ID)
}

func (s *Store) ListLoans(ctx context.Context, borrowerType, status string) ([]domain.Loan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE ($1 = '' OR borrower_type = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
	`, borrowerType, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := make([]domain.Loan, 0, 32)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

func (s *Store) GetLoanByID(ctx context.Context, id string) (*domain.Loan, error) {
	l, err := scanLoan(s.db.QueryRowContext(ctx, `
		SELECT `+loanColumns+` FROM loans WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *Store) AddLoanPayment(ctx context.Context, loanID string, payment domain.LoanPayment) (*domain.Loan, error) {
	if payment.AmountCents < 1 {
		return nil, store.ErrInvalid
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var paid, owed int64
	var status string
	err = pgTx.QueryRowContext(ctx, `
		SELECT paid_cents, total_owed_cents, status FROM loans WHERE id = $1 FOR UPDATE
	`, loanID).Scan(&paid, &owed, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.LoanStatusPaid {
		return nil, store.ErrInvalid
	}

	if payment.ID == "" {
		payment.ID = xid.New("lpay")
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now().UTC()
	}
	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO loan_payments (id, loan_id, amount_cents, notes, paid_at)
		VALUES ($1,$2,$3,$4,$5)
	`, payment.ID, loanID, payment.AmountCents, nullIfEmpty(payment.Notes), payment.PaidAt)
	if err != nil {
		return nil, err
	}

	paid += payment.AmountCents
	newStatus := status
	if paid >= owed {
		newStatus = domain.LoanStatusPaid
	} else if status == domain.LoanStatusPending {
		newStatus = domain.LoanStatusActive
	}
	_, err = pgTx.ExecContext(ctx, `
		UPDATE loans SET paid_cents = $2, status = $3, updated_at = now() WHERE id = $1
	`, loanID, paid, newStatus)
	if err != nil {
		return nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return s.GetLoanByID(ctx, loanID)
}

func (s *Store) ListLoanPayments(ctx context.Context, loanID string) ([]domain.LoanPayment, error) {
	if _, err := s.GetLoanByID(ctx, loanID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, loan_id, amount_cents, COALESCE(notes,''), paid_at
		FROM loan_payments
		WHERE loan_id = $1
		ORDER BY paid_at, id
	`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.LoanPayment, 0, 8)
	for rows.Next() {
		var p domain.LoanPayment
		if err := rows.Scan(&p.ID, &p.LoanID, &p.AmountCents, &p.Notes, &p.PaidAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Store) GetSettings(ctx context.Context) ([]domain.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, updated_at FROM settings ORDER BY key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]domain.Setting, 0, 16)
	for rows.Next() {
		var st domain.Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

func (s *Store) UpsertSetting(ctx context.Context, setting domain.Setting) (*domain.Setting, error) {
	if setting.Key == "" {
		return nil, store.ErrInvalid
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		RETURNING updated_at
	`, setting.Key, setting.Value).Scan(&setting.UpdatedAt)
	if err != nil {
		return nil, err
	}
	updated := setting
	return &updated, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType,
		nullIfEmpty(entry.EntityID), nullIfEmpty(entry.Detail), entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, COALESCE(entity_id,''), COALESCE(detail,''), created_at
		FROM audit_logs
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, nullTimeValue(from), nullTimeValue(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType,
			&entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalid
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,true,$4)
	`, user.Username, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at FROM users WHERE username = $1
	`, username)
	var u domain.UserAccount
	if err := row.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at FROM users ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nowDateUTC(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullDate(val *time.Time) any {
	if val == nil {
		return nil
	}
	return nowDateUTC(*val)
}

func nullTimeValue(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}
