package store

import (
	"context"
	"errors"
	"time"

	"tokokita/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalid           = errors.New("invalid request")
	ErrConflict          = errors.New("conflict")
)

type Repository interface {
	ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]string, error)

	ListWarehouses(ctx context.Context, includeInactive bool) ([]domain.Warehouse, error)
	GetWarehouseByID(ctx context.Context, id string) (*domain.Warehouse, error)
	GetWarehouseByName(ctx context.Context, name string) (*domain.Warehouse, error)
	CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error)
	UpdateWarehouse(ctx context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id string) error

	RecordMovement(ctx context.Context, movement domain.StockMovement) (*domain.StockMovement, error)
	TransferStock(ctx context.Context, productID, fromWarehouseID, toWarehouseID string, qty int, notes, actorName string) ([]domain.StockMovement, error)
	ListMovements(ctx context.Context, productID, warehouseID string, limit int) ([]domain.StockMovement, error)
	DeleteMovement(ctx context.Context, id string) error
	GetBalances(ctx context.Context, productID string) ([]domain.StockBalance, error)
	GetTotalStockMap(ctx context.Context) (map[string]int, error)

	CreatePendingBill(ctx context.Context, bill domain.PendingBill) (*domain.PendingBill, error)
	ListPendingBills(ctx context.Context, status string, limit int) ([]domain.PendingBill, error)
	GetPendingBillByID(ctx context.Context, id string) (*domain.PendingBill, error)
	MergeBillItems(ctx context.Context, billID string, lines []domain.CartLine) (*domain.PendingBill, error)
	RemoveBillItem(ctx context.Context, billID, itemID string) (*domain.PendingBill, error)
	CloseBill(ctx context.Context, billID string) (*domain.PendingBill, error)
	DeletePendingBill(ctx context.Context, billID string) error

	CreateSale(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, from, to time.Time, limit int) ([]domain.Transaction, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplierByID(ctx context.Context, id string) (*domain.Supplier, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error

	ListEmployees(ctx context.Context, includeInactive bool) ([]domain.Employee, error)
	GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error)
	CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error

	ListExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error)
	CreateExpenseCategory(ctx context.Context, category domain.ExpenseCategory) (*domain.ExpenseCategory, error)
	DeleteExpenseCategory(ctx context.Context, id string) error
	ListExpenses(ctx context.Context, from, to time.Time, limit int) ([]domain.Expense, error)
	GetExpenseByID(ctx context.Context, id string) (*domain.Expense, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	ListTickets(ctx context.Context, status string) ([]domain.Ticket, error)
	GetTicketByID(ctx context.Context, id string) (*domain.Ticket, error)
	CreateTicket(ctx context.Context, ticket domain.Ticket) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, ticket domain.Ticket) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error

	CreateLoan(ctx context.Context, loan domain.Loan) (*domain.Loan, error)
	ListLoans(ctx context.Context, borrowerType, status string) ([]domain.Loan, error)
	GetLoanByID(ctx context.Context, id string) (*domain.Loan, error)
	AddLoanPayment(ctx context.Context, loanID string, payment domain.LoanPayment) (*domain.Loan, error)
	ListLoanPayments(ctx context.Context, loanID string) ([]domain.LoanPayment, error)

	GetSettings(ctx context.Context) ([]domain.Setting, error)
	UpsertSetting(ctx context.Context, setting domain.Setting) (*domain.Setting, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
