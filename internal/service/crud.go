package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/metrics"
	"tokokita/backend/internal/store"
)

func (s *Service) ListCustomers(ctx context.Context, query string, page, pageSize int) (Page[domain.Customer], error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return Page[domain.Customer]{}, err
	}
	query = strings.TrimSpace(query)
	if query != "" {
		filtered := make([]domain.Customer, 0, len(customers))
		for _, c := range customers {
			if containsFold(c.Name, query) || containsFold(c.Phone, query) || containsFold(c.Email, query) {
				filtered = append(filtered, c)
			}
		}
		customers = filtered
	}
	return paginate(customers, page, pageSize), nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Customer{}, store.ErrInvalid
	}
	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		Name:    req.Name,
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		return domain.Customer{}, err
	}
	s.logAudit(ctx, "customer_create", "customer", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	existing, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	customer := *existing
	if req.Name != nil {
		customer.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		customer.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		customer.Email = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		customer.Address = strings.TrimSpace(*req.Address)
	}
	if customer.Name == "" {
		return domain.Customer{}, store.ErrInvalid
	}
	updated, err := s.repo.UpdateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	s.logAudit(ctx, "customer_update", "customer", updated.ID, "name="+updated.Name)
	return *updated, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "customer_delete", "customer", id, "")
	return nil
}

func (s *Service) BulkDeleteCustomers(ctx context.Context, ids []string) domain.BulkDeleteResponse {
	return s.bulkDelete(ctx, "customer", ids, s.repo.DeleteCustomer)
}

func (s *Service) ListSuppliers(ctx context.Context, query string, page, pageSize int) (Page[domain.Supplier], error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return Page[domain.Supplier]{}, err
	}
	query = strings.TrimSpace(query)
	if query != "" {
		filtered := make([]domain.Supplier, 0, len(suppliers))
		for _, sp := range suppliers {
			if containsFold(sp.Name, query) || containsFold(sp.ContactPerson, query) || containsFold(sp.Phone, query) {
				filtered = append(filtered, sp)
			}
		}
		suppliers = filtered
	}
	return paginate(suppliers, page, pageSize), nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Supplier{}, store.ErrInvalid
	}
	created, err := s.repo.CreateSupplier(ctx, domain.Supplier{
		Name:          req.Name,
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		Address:       strings.TrimSpace(req.Address),
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	s.logAudit(ctx, "supplier_create", "supplier", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, req domain.SupplierUpdateRequest) (domain.Supplier, error) {
	existing, err := s.repo.GetSupplierByID(ctx, id)
	if err != nil {
		return domain.Supplier{}, err
	}
	supplier := *existing
	if req.Name != nil {
		supplier.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactPerson != nil {
		supplier.ContactPerson = strings.TrimSpace(*req.ContactPerson)
	}
	if req.Phone != nil {
		supplier.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		supplier.Email = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		supplier.Address = strings.TrimSpace(*req.Address)
	}
	if supplier.Name == "" {
		return domain.Supplier{}, store.ErrInvalid
	}
	updated, err := s.repo.UpdateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	s.logAudit(ctx, "supplier_update", "supplier", updated.ID, "name="+updated.Name)
	return *updated, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	if err := s.repo.DeleteSupplier(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "supplier_delete", "supplier", id, "")
	return nil
}

func (s *Service) BulkDeleteSuppliers(ctx context.Context, ids []string) domain.BulkDeleteResponse {
	return s.bulkDelete(ctx, "supplier", ids, s.repo.DeleteSupplier)
}

func (s *Service) ListEmployees(ctx context.Context, query string, page, pageSize int) (Page[domain.Employee], error) {
	employees, err := s.repo.ListEmployees(ctx, false)
	if err != nil {
		return Page[domain.Employee]{}, err
	}
	query = strings.TrimSpace(query)
	if query != "" {
		filtered := make([]domain.Employee, 0, len(employees))
		for _, e := range employees {
			if containsFold(e.Name, query) || containsFold(e.Position, query) {
				filtered = append(filtered, e)
			}
		}
		employees = filtered
	}
	return paginate(employees, page, pageSize), nil
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeCreateRequest) (domain.Employee, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.SalaryCents < 0 {
		return domain.Employee{}, store.ErrInvalid
	}
	created, err := s.repo.CreateEmployee(ctx, domain.Employee{
		Name:        req.Name,
		Position:    strings.TrimSpace(req.Position),
		Phone:       strings.TrimSpace(req.Phone),
		SalaryCents: req.SalaryCents,
		Active:      true,
	})
	if err != nil {
		return domain.Employee{}, err
	}
	s.logAudit(ctx, "employee_create", "employee", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id string, req domain.EmployeeUpdateRequest) (domain.Employee, error) {
	existing, err := s.repo.GetEmployeeByID(ctx, id)
	if err != nil {
		return domain.Employee{}, err
	}
	employee := *existing
	if req.Name != nil {
		employee.Name = strings.TrimSpace(*req.Name)
	}
	if req.Position != nil {
		employee.Position = strings.TrimSpace(*req.Position)
	}
	if req.Phone != nil {
		employee.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.SalaryCents != nil {
		employee.SalaryCents = *req.SalaryCents
	}
	if req.Active != nil {
		employee.Active = *req.Active
	}
	if employee.Name == "" || employee.SalaryCents < 0 {
		return domain.Employee{}, store.ErrInvalid
	}
	updated, err := s.repo.UpdateEmployee(ctx, employee)
	if err != nil {
		return domain.Employee{}, err
	}
	s.logAudit(ctx, "employee_update", "employee", updated.ID, "name="+updated.Name)
	return *updated, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "employee_delete", "employee", id, "")
	return nil
}

func (s *Service) BulkDeleteEmployees(ctx context.Context, ids []string) domain.BulkDeleteResponse {
	return s.bulkDelete(ctx, "employee", ids, s.repo.DeleteEmployee)
}

func (s *Service) ListExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error) {
	return s.repo.ListExpenseCategories(ctx)
}

func (s *Service) CreateExpenseCategory(ctx context.Context, name string) (domain.ExpenseCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ExpenseCategory{}, store.ErrInvalid
	}
	created, err := s.repo.CreateExpenseCategory(ctx, domain.ExpenseCategory{Name: name})
	if err != nil {
		return domain.ExpenseCategory{}, err
	}
	s.logAudit(ctx, "expense_category_create", "expense_category", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) DeleteExpenseCategory(ctx context.Context, id string) error {
	if err := s.repo.DeleteExpenseCategory(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "expense_category_delete", "expense_category", id, "")
	return nil
}

func (s *Service) ListExpenses(ctx context.Context, from, to time.Time, limit int) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx, from, to, limit)
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" || req.AmountCents <= 0 {
		return domain.Expense{}, store.ErrInvalid
	}
	spentAt := time.Now().UTC()
	if strings.TrimSpace(req.SpentAt) != "" {
		parsed, err := parseDate(req.SpentAt)
		if err != nil {
			return domain.Expense{}, store.ErrInvalid
		}
		spentAt = *parsed
	}
	created, err := s.repo.CreateExpense(ctx, domain.Expense{
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Description: req.Description,
		AmountCents: req.AmountCents,
		SpentAt:     spentAt,
		Notes:       strings.TrimSpace(req.Notes),
	})
	if err != nil {
		return domain.Expense{}, err
	}
	s.logAudit(ctx, "expense_create", "expense", created.ID, fmt.Sprintf("amount=%d", created.AmountCents))
	return *created, nil
}

func (s *Service) UpdateExpense(ctx context.Context, id string, req domain.ExpenseUpdateRequest) (domain.Expense, error) {
	existing, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return domain.Expense{}, err
	}
	expense := *existing
	if req.CategoryID != nil {
		expense.CategoryID = strings.TrimSpace(*req.CategoryID)
	}
	if req.Description != nil {
		expense.Description = strings.TrimSpace(*req.Description)
	}
	if req.AmountCents != nil {
		expense.AmountCents = *req.AmountCents
	}
	if req.SpentAt != nil {
		parsed, err := parseDate(*req.SpentAt)
		if err != nil || parsed == nil {
			return domain.Expense{}, store.ErrInvalid
		}
		expense.SpentAt = *parsed
	}
	if req.Notes != nil {
		expense.Notes = strings.TrimSpace(*req.Notes)
	}
	if expense.Description == "" || expense.AmountCents <= 0 {
		return domain.Expense{}, store.ErrInvalid
	}
	updated, err := s.repo.UpdateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	s.logAudit(ctx, "expense_update", "expense", updated.ID, "")
	return *updated, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "expense_delete", "expense", id, "")
	return nil
}

func (s *Service) BulkDeleteExpenses(ctx context.Context, ids []string) domain.BulkDeleteResponse {
	return s.bulkDelete(ctx, "expense", ids, s.repo.DeleteExpense)
}

func (s *Service) ListTickets(ctx context.Context, status string) ([]domain.Ticket, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", domain.TicketStatusOpen, domain.TicketStatusClosed:
	default:
		return nil, store.ErrInvalid
	}
	return s.repo.ListTickets(ctx, status)
}

func (s *Service) CreateTicket(ctx context.Context, req domain.TicketCreateRequest) (domain.Ticket, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		return domain.Ticket{}, store.ErrInvalid
	}
	created, err := s.repo.CreateTicket(ctx, domain.Ticket{
		Subject: req.Subject,
		Body:    strings.TrimSpace(req.Body),
		Status:  domain.TicketStatusOpen,
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	s.logAudit(ctx, "ticket_create", "ticket", created.ID, "subject="+created.Subject)
	return *created, nil
}

func (s *Service) UpdateTicket(ctx context.Context, id string, req domain.TicketUpdateRequest) (domain.Ticket, error) {
	existing, err := s.repo.GetTicketByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}
	ticket := *existing
	if req.Subject != nil {
		ticket.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Body != nil {
		ticket.Body = strings.TrimSpace(*req.Body)
	}
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if status != domain.TicketStatusOpen && status != domain.TicketStatusClosed {
			return domain.Ticket{}, store.ErrInvalid
		}
		ticket.Status = status
	}
	if ticket.Subject == "" {
		return domain.Ticket{}, store.ErrInvalid
	}
	updated, err := s.repo.UpdateTicket(ctx, ticket)
	if err != nil {
		return domain.Ticket{}, err
	}
	s.logAudit(ctx, "ticket_update", "ticket", updated.ID, "status="+updated.Status)
	return *updated, nil
}

func (s *Service) DeleteTicket(ctx context.Context, id string) error {
	if err := s.repo.DeleteTicket(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "ticket_delete", "ticket", id, "")
	return nil
}

// CreateLoan fixes the owed amount at creation: principal plus simple
// interest, rounded half-up to whole cents.
func (s *Service) CreateLoan(ctx context.Context, req domain.LoanCreateRequest) (domain.Loan, error) {
	if req.PrincipalCents <= 0 || req.InterestRate < 0 {
		return domain.Loan{}, store.ErrInvalid
	}

	var borrowerName string
	switch req.BorrowerType {
	case domain.BorrowerCustomer:
		customer, err := s.repo.GetCustomerByID(ctx, req.BorrowerID)
		if err != nil {
			return domain.Loan{}, err
		}
		borrowerName = customer.Name
	case domain.BorrowerEmployee:
		employee, err := s.repo.GetEmployeeByID(ctx, req.BorrowerID)
		if err != nil {
			return domain.Loan{}, err
		}
		borrowerName = employee.Name
	default:
		return domain.Loan{}, store.ErrInvalid
	}

	owed := decimal.NewFromInt(req.PrincipalCents).
		Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(req.InterestRate))).
		Round(0)

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return domain.Loan{}, store.ErrInvalid
	}

	created, err := s.repo.CreateLoan(ctx, domain.Loan{
		BorrowerType:   req.BorrowerType,
		BorrowerID:     req.BorrowerID,
		BorrowerName:   borrowerName,
		PrincipalCents: req.PrincipalCents,
		InterestRate:   req.InterestRate,
		TotalOwedCents: owed.IntPart(),
		Status:         domain.LoanStatusPending,
		DueDate:        dueDate,
		Notes:          strings.TrimSpace(req.Notes),
	})
	if err != nil {
		return domain.Loan{}, err
	}
	s.logAudit(ctx, "loan_create", "loan", created.ID,
		fmt.Sprintf("borrower=%s,owed=%d", created.BorrowerName, created.TotalOwedCents))
	return *created, nil
}

func (s *Service) ListLoans(ctx context.Context, borrowerType, status string) ([]domain.Loan, error) {
	return s.repo.ListLoans(ctx, strings.TrimSpace(borrowerType), strings.TrimSpace(status))
}

func (s *Service) GetLoan(ctx context.Context, id string) (domain.Loan, error) {
	loan, err := s.repo.GetLoanByID(ctx, id)
	if err != nil {
		return domain.Loan{}, err
	}
	return *loan, nil
}

func (s *Service) AddLoanPayment(ctx context.Context, loanID string, req domain.LoanPaymentRequest) (domain.Loan, error) {
	if req.AmountCents <= 0 {
		return domain.Loan{}, store.ErrInvalid
	}
	loan, err := s.repo.AddLoanPayment(ctx, loanID, domain.LoanPayment{
		AmountCents: req.AmountCents,
		Notes:       strings.TrimSpace(req.Notes),
		PaidAt:      time.Now().UTC(),
	})
	if err != nil {
		return domain.Loan{}, err
	}
	s.logAudit(ctx, "loan_payment", "loan", loanID,
		fmt.Sprintf("amount=%d,paid=%d,status=%s", req.AmountCents, loan.PaidCents, loan.Status))
	return *loan, nil
}

func (s *Service) ListLoanPayments(ctx context.Context, loanID string) ([]domain.LoanPayment, error) {
	if _, err := s.repo.GetLoanByID(ctx, loanID); err != nil {
		return nil, err
	}
	return s.repo.ListLoanPayments(ctx, loanID)
}

func (s *Service) GetSettings(ctx context.Context) ([]domain.Setting, error) {
	return s.repo.GetSettings(ctx)
}

func (s *Service) UpsertSetting(ctx context.Context, req domain.SettingUpsertRequest) (domain.Setting, error) {
	req.Key = strings.TrimSpace(req.Key)
	if req.Key == "" {
		return domain.Setting{}, store.ErrInvalid
	}
	updated, err := s.repo.UpsertSetting(ctx, domain.Setting{
		Key:   req.Key,
		Value: strings.TrimSpace(req.Value),
	})
	if err != nil {
		return domain.Setting{}, err
	}
	// min-stock defaults feed the notification deriver
	if err := s.notifCache.Invalidate(ctx, notificationCacheKey); err != nil {
		zap.L().Warn("notification cache invalidation failed", zap.Error(err))
	}
	s.logAudit(ctx, "setting_upsert", "setting", updated.Key, "value="+updated.Value)
	return *updated, nil
}

func (s *Service) Authenticate(ctx context.Context, req domain.LoginRequest) (domain.Actor, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return domain.Actor{}, store.ErrInvalid
	}
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return domain.Actor{}, store.ErrNotFound
	}
	if !user.Active {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return domain.Actor{}, store.ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return domain.Actor{}, store.ErrNotFound
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return domain.Actor{Username: user.Username, Role: user.Role}, nil
}

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (domain.User, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.User{}, fmt.Errorf("admin role required")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if req.Username == "" || len(req.Password) < 8 {
		return domain.User{}, store.ErrInvalid
	}
	if req.Role != "admin" && req.Role != "staff" {
		return domain.User{}, store.ErrInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	account := domain.UserAccount{
		Username:  req.Username,
		Password:  string(hash),
		Role:      req.Role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, account); err != nil {
		return domain.User{}, err
	}
	s.logAudit(ctx, "user_create", "user", req.Username, "role="+req.Role)
	return domain.User{Username: account.Username, Role: account.Role, Active: true, CreatedAt: account.CreatedAt}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	accounts, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, domain.User{Username: a.Username, Role: a.Role, Active: a.Active, CreatedAt: a.CreatedAt})
	}
	return users, nil
}

func (s *Service) ChangePassword(ctx context.Context, username, newPassword string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return store.ErrInvalid
	}
	if actor.Role != "admin" && actor.Username != username {
		return fmt.Errorf("admin role required")
	}
	if len(newPassword) < 8 {
		return store.ErrInvalid
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateUserPassword(ctx, username, string(hash)); err != nil {
		return err
	}
	s.logAudit(ctx, "user_password_change", "user", username, "")
	return nil
}
