package notify

import (
	"testing"
	"time"

	"tokokita/backend/internal/domain"
)

func datePtr(t time.Time) *time.Time { return &t }

func findByID(notifications []domain.Notification, id string) *domain.Notification {
	for i := range notifications {
		if notifications[i].ID == id {
			return &notifications[i]
		}
	}
	return nil
}

func TestDeriveExpiryBoundaries(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		expiry       time.Time
		wantExpired  bool
		wantExpiring bool
	}{
		{"yesterday is expired", now.AddDate(0, 0, -1), true, false},
		{"today is expiring not expired", now, false, true},
		{"window edge day 30 is expiring", now.AddDate(0, 0, 30), false, true},
		{"day 31 is outside the window", now.AddDate(0, 0, 31), false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			product := domain.Product{ID: "p1", Name: "Susu", Active: true, ExpiryDate: datePtr(tc.expiry)}
			got := engine.Derive(Inputs{
				Products:   []domain.Product{product},
				TotalStock: map[string]int{"p1": 100},
				Now:        now,
			})

			expired := findByID(got, "expired:p1") != nil
			expiring := findByID(got, "expiring_soon") != nil
			if expired != tc.wantExpired {
				t.Fatalf("expired: want %v, got %v", tc.wantExpired, expired)
			}
			if expiring != tc.wantExpiring {
				t.Fatalf("expiring: want %v, got %v", tc.wantExpiring, expiring)
			}
		})
	}
}

func TestDeriveLowStockThresholds(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		minLevel   int
		defaultMin int
		stock      int
		wantLow    bool
	}{
		{"below own minimum", 3, 0, 1, true},
		{"at own minimum", 3, 0, 3, true},
		{"above own minimum", 3, 0, 4, false},
		{"zero minimum falls back to default", 0, 5, 4, true},
		{"zero minimum and zero default never fires", 0, 0, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			product := domain.Product{ID: "p1", Name: "Mie", Active: true, MinStockLevel: tc.minLevel}
			got := engine.Derive(Inputs{
				Products:        []domain.Product{product},
				TotalStock:      map[string]int{"p1": tc.stock},
				DefaultMinStock: tc.defaultMin,
				Now:             now,
			})
			low := findByID(got, "low_stock")
			if tc.wantLow && (low == nil || low.Count != 1) {
				t.Fatalf("expected low stock notification, got %+v", got)
			}
			if !tc.wantLow && low != nil {
				t.Fatalf("unexpected low stock notification: %+v", low)
			}
		})
	}
}

func TestDeriveSkipsInactiveProducts(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	product := domain.Product{
		ID: "p1", Name: "Lama", Active: false,
		MinStockLevel: 10,
		ExpiryDate:    datePtr(now.AddDate(0, 0, -30)),
	}
	got := engine.Derive(Inputs{
		Products:   []domain.Product{product},
		TotalStock: map[string]int{"p1": 0},
		Now:        now,
	})
	if len(got) != 0 {
		t.Fatalf("inactive products must not notify, got %+v", got)
	}
}

func TestDeriveLoanAndTicketNotifications(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	loans := []domain.Loan{
		{ID: "l1", Status: domain.LoanStatusPending},
		{ID: "l2", Status: domain.LoanStatusActive, DueDate: datePtr(now.AddDate(0, 0, -2))},
		{ID: "l3", Status: domain.LoanStatusPaid, DueDate: datePtr(now.AddDate(0, 0, -10))},
	}
	got := engine.Derive(Inputs{Loans: loans, OpenTickets: 2, Now: now})

	outstanding := findByID(got, "loans_outstanding")
	if outstanding == nil || outstanding.Count != 2 {
		t.Fatalf("outstanding loans: %+v", outstanding)
	}
	overdue := findByID(got, "loans_overdue")
	if overdue == nil || overdue.Count != 1 {
		t.Fatalf("overdue loans: %+v", overdue)
	}
	if overdue.Severity != domain.SeverityAlert {
		t.Fatalf("overdue should be an alert, got %q", overdue.Severity)
	}
	tickets := findByID(got, "tickets_open")
	if tickets == nil || tickets.Count != 2 {
		t.Fatalf("open tickets: %+v", tickets)
	}
}

func TestDeriveOrdersBySeverity(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	got := engine.Derive(Inputs{
		Products: []domain.Product{
			{ID: "p1", Name: "Basi", Active: true, ExpiryDate: datePtr(now.AddDate(0, 0, -1))},
			{ID: "p2", Name: "Tipis", Active: true, MinStockLevel: 5},
		},
		TotalStock:  map[string]int{"p1": 10, "p2": 1},
		OpenTickets: 1,
		Now:         now,
	})
	if len(got) < 3 {
		t.Fatalf("expected alert, warning and info entries, got %+v", got)
	}
	lastRank := 4
	for _, n := range got {
		rank := severityRank(n.Severity)
		if rank > lastRank {
			t.Fatalf("notifications out of severity order: %+v", got)
		}
		lastRank = rank
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	in := Inputs{
		Products: []domain.Product{
			{ID: "p1", Name: "A", Active: true, ExpiryDate: datePtr(now.AddDate(0, 0, -3))},
			{ID: "p2", Name: "B", Active: true, ExpiryDate: datePtr(now.AddDate(0, 0, -5))},
		},
		TotalStock: map[string]int{},
		Now:        now,
	}

	first := engine.Derive(in)
	second := engine.Derive(in)
	if len(first) != len(second) {
		t.Fatalf("nondeterministic length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("nondeterministic order at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}
