package domain

import "time"

type Product struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	SKU            string     `json:"sku,omitempty"`
	Barcode        string     `json:"barcode,omitempty"`
	Description    string     `json:"description,omitempty"`
	PurchaseCents  int64      `json:"purchase_price_cents"`
	SellingCents   int64      `json:"selling_price_cents"`
	MinStockLevel  int        `json:"min_stock_level"`
	Category       string     `json:"category,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	Barcode       string `json:"barcode"`
	Description   string `json:"description"`
	PurchaseCents int64  `json:"purchase_price_cents"`
	SellingCents  int64  `json:"selling_price_cents"`
	MinStockLevel int    `json:"min_stock_level"`
	Category      string `json:"category"`
	ExpiryDate    string `json:"expiry_date,omitempty"`
}

type ProductUpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	SKU           *string `json:"sku,omitempty"`
	Barcode       *string `json:"barcode,omitempty"`
	Description   *string `json:"description,omitempty"`
	PurchaseCents *int64  `json:"purchase_price_cents,omitempty"`
	SellingCents  *int64  `json:"selling_price_cents,omitempty"`
	MinStockLevel *int    `json:"min_stock_level,omitempty"`
	Category      *string `json:"category,omitempty"`
	ExpiryDate    *string `json:"expiry_date,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}

type Warehouse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type WarehouseCreateRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type WarehouseUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

const (
	MovementIn  = "in"
	MovementOut = "out"
)

type StockMovement struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Direction   string    `json:"direction"`
	Qty         int       `json:"qty"`
	Reference   string    `json:"reference,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	ActorName   string    `json:"actor_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type StockMovementRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Direction   string `json:"direction"`
	Qty         int    `json:"qty"`
	Reference   string `json:"reference"`
	Notes       string `json:"notes"`
}

type StockBalance struct {
	ProductID     string    `json:"product_id"`
	WarehouseID   string    `json:"warehouse_id"`
	WarehouseName string    `json:"warehouse_name,omitempty"`
	Qty           int       `json:"qty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type StockTransferRequest struct {
	ProductID       string `json:"product_id"`
	FromWarehouseID string `json:"from_warehouse_id"`
	ToWarehouseID   string `json:"to_warehouse_id"`
	Qty             int    `json:"qty"`
	Notes           string `json:"notes"`
}

const (
	ProductClassRegular = "regular"
	ProductClassExtra   = "extra"
)

type MoveToRegularRequest struct {
	Category          string `json:"category"`
	TargetWarehouseID string `json:"target_warehouse_id"`
}

type ManualPOSItemRequest struct {
	Name         string `json:"name"`
	SellingCents int64  `json:"selling_price_cents"`
	Qty          int    `json:"qty"`
}

const (
	BillStatusOpen   = "open"
	BillStatusClosed = "closed"
)

type PendingBill struct {
	ID            string            `json:"id"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	WarehouseID   string            `json:"warehouse_id"`
	Notes         string            `json:"notes,omitempty"`
	Status        string            `json:"status"`
	TotalCents    int64             `json:"total_cents"`
	Items         []PendingBillItem `json:"items,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type PendingBillItem struct {
	ID             string `json:"id"`
	BillID         string `json:"bill_id"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type CartLine struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type PendingBillCreateRequest struct {
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	WarehouseID   string     `json:"warehouse_id"`
	Notes         string     `json:"notes"`
	Items         []CartLine `json:"items"`
}

type PendingBillMergeRequest struct {
	Items []CartLine `json:"items"`
}

const (
	TxStatusPaid = "paid"
)

type Transaction struct {
	ID            string            `json:"id"`
	CustomerID    string            `json:"customer_id,omitempty"`
	WarehouseID   string            `json:"warehouse_id"`
	SubtotalCents int64             `json:"subtotal_cents"`
	DiscountCents int64             `json:"discount_cents"`
	TaxCents      int64             `json:"tax_cents"`
	TotalCents    int64             `json:"total_cents"`
	PaymentMethod string            `json:"payment_method"`
	Status        string            `json:"status"`
	CashierName   string            `json:"cashier_name,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []TransactionItem `json:"items,omitempty"`
}

type TransactionItem struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type CheckoutRequest struct {
	WarehouseID   string     `json:"warehouse_id"`
	CustomerID    string     `json:"customer_id"`
	DiscountCents int64      `json:"discount_cents"`
	TaxCents      int64      `json:"tax_cents"`
	PaymentMethod string     `json:"payment_method"`
	Items         []CartLine `json:"items"`
}

type Receipt struct {
	TransactionID string `json:"transaction_id"`
	PreviewText   string `json:"preview_text"`
	EscposBase64  string `json:"escpos_base64"`
	QRPayload     string `json:"qr_payload"`
}

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type CustomerUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

type Supplier struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SupplierCreateRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

type SupplierUpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	Address       *string `json:"address,omitempty"`
}

type Employee struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Position    string    `json:"position,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	SalaryCents int64     `json:"salary_cents"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type EmployeeCreateRequest struct {
	Name        string `json:"name"`
	Position    string `json:"position"`
	Phone       string `json:"phone"`
	SalaryCents int64  `json:"salary_cents"`
}

type EmployeeUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Position    *string `json:"position,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	SalaryCents *int64  `json:"salary_cents,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type ExpenseCategory struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Expense struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id,omitempty"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	SpentAt     time.Time `json:"spent_at"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ExpenseCreateRequest struct {
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	SpentAt     string `json:"spent_at"`
	Notes       string `json:"notes"`
}

type ExpenseUpdateRequest struct {
	CategoryID  *string `json:"category_id,omitempty"`
	Description *string `json:"description,omitempty"`
	AmountCents *int64  `json:"amount_cents,omitempty"`
	SpentAt     *string `json:"spent_at,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

const (
	TicketStatusOpen   = "open"
	TicketStatusClosed = "closed"
)

type Ticket struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TicketCreateRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type TicketUpdateRequest struct {
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
	Status  *string `json:"status,omitempty"`
}

const (
	BorrowerCustomer = "customer"
	BorrowerEmployee = "employee"
)

const (
	LoanStatusPending   = "pending"
	LoanStatusActive    = "active"
	LoanStatusPaid      = "paid"
	LoanStatusDefaulted = "defaulted"
)

type Loan struct {
	ID             string     `json:"id"`
	BorrowerType   string     `json:"borrower_type"`
	BorrowerID     string     `json:"borrower_id"`
	BorrowerName   string     `json:"borrower_name,omitempty"`
	PrincipalCents int64      `json:"principal_cents"`
	InterestRate   float64    `json:"interest_rate"`
	TotalOwedCents int64      `json:"total_owed_cents"`
	PaidCents      int64      `json:"paid_cents"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type LoanCreateRequest struct {
	BorrowerType   string  `json:"borrower_type"`
	BorrowerID     string  `json:"borrower_id"`
	PrincipalCents int64   `json:"principal_cents"`
	InterestRate   float64 `json:"interest_rate"`
	DueDate        string  `json:"due_date"`
	Notes          string  `json:"notes"`
}

type LoanPayment struct {
	ID          string    `json:"id"`
	LoanID      string    `json:"loan_id"`
	AmountCents int64     `json:"amount_cents"`
	Notes       string    `json:"notes,omitempty"`
	PaidAt      time.Time `json:"paid_at"`
}

type LoanPaymentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Notes       string `json:"notes"`
}

const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityAlert   = "alert"
)

type Notification struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Count    int    `json:"count,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
	Read     bool   `json:"read"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SettingUpsertRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type User struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type BulkDeleteResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type BulkDeleteResponse struct {
	Deleted int                `json:"deleted"`
	Failed  int                `json:"failed"`
	Results []BulkDeleteResult `json:"results"`
}

type ImportRowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type ImportResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}
