package notify

import (
	"fmt"
	"sort"
	"time"

	"tokokita/backend/internal/domain"
)

// Engine derives the notification list from current inventory and finance
// state. Derivation is pure: the same inputs always produce the same list,
// and nothing is persisted. Read flags are layered on by the caller.
type Engine struct {
	expiryWindowDays int
}

func NewEngine() *Engine {
	return &Engine{expiryWindowDays: 30}
}

type Inputs struct {
	Products        []domain.Product
	TotalStock      map[string]int
	Loans           []domain.Loan
	OpenTickets     int
	DefaultMinStock int
	Now             time.Time
}

func (e *Engine) Derive(in Inputs) []domain.Notification {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	today := dateOnly(now)
	windowEnd := today.AddDate(0, 0, e.expiryWindowDays)

	notifications := make([]domain.Notification, 0, 8)

	expiringSoon := 0
	lowStock := 0
	for _, p := range in.Products {
		if !p.Active {
			continue
		}
		if p.ExpiryDate != nil {
			expiry := dateOnly(*p.ExpiryDate)
			if expiry.Before(today) {
				notifications = append(notifications, domain.Notification{
					ID:       "expired:" + p.ID,
					Category: "expired",
					Severity: domain.SeverityAlert,
					Title:    "Product expired",
					Message:  fmt.Sprintf("%s expired on %s", p.Name, expiry.Format("2006-01-02")),
					EntityID: p.ID,
				})
			} else if !expiry.After(windowEnd) {
				// the window includes today itself
				expiringSoon++
			}
		}
		threshold := p.MinStockLevel
		if threshold == 0 {
			threshold = in.DefaultMinStock
		}
		if threshold > 0 && in.TotalStock[p.ID] <= threshold {
			lowStock++
		}
	}

	if expiringSoon > 0 {
		notifications = append(notifications, domain.Notification{
			ID:       "expiring_soon",
			Category: "expiring_soon",
			Severity: domain.SeverityWarning,
			Title:    "Products expiring soon",
			Message:  fmt.Sprintf("%d products expire within %d days", expiringSoon, e.expiryWindowDays),
			Count:    expiringSoon,
		})
	}
	if lowStock > 0 {
		notifications = append(notifications, domain.Notification{
			ID:       "low_stock",
			Category: "low_stock",
			Severity: domain.SeverityWarning,
			Title:    "Low stock",
			Message:  fmt.Sprintf("%d products at or below their minimum stock level", lowStock),
			Count:    lowStock,
		})
	}

	outstanding := 0
	overdue := 0
	for _, l := range in.Loans {
		if l.Status != domain.LoanStatusPending && l.Status != domain.LoanStatusActive {
			continue
		}
		outstanding++
		if l.DueDate != nil && dateOnly(*l.DueDate).Before(today) {
			overdue++
		}
	}
	if outstanding > 0 {
		notifications = append(notifications, domain.Notification{
			ID:       "loans_outstanding",
			Category: "loans_outstanding",
			Severity: domain.SeverityInfo,
			Title:    "Outstanding loans",
			Message:  fmt.Sprintf("%d loans pending or active", outstanding),
			Count:    outstanding,
		})
	}
	if overdue > 0 {
		notifications = append(notifications, domain.Notification{
			ID:       "loans_overdue",
			Category: "loans_overdue",
			Severity: domain.SeverityAlert,
			Title:    "Overdue loans",
			Message:  fmt.Sprintf("%d loans past their due date", overdue),
			Count:    overdue,
		})
	}

	if in.OpenTickets > 0 {
		notifications = append(notifications, domain.Notification{
			ID:       "tickets_open",
			Category: "tickets_open",
			Severity: domain.SeverityInfo,
			Title:    "Open tickets",
			Message:  fmt.Sprintf("%d support tickets open", in.OpenTickets),
			Count:    in.OpenTickets,
		})
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		ri, rj := severityRank(notifications[i].Severity), severityRank(notifications[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return notifications[i].ID < notifications[j].ID
	})
	return notifications
}

func severityRank(severity string) int {
	switch severity {
	case domain.SeverityAlert:
		return 3
	case domain.SeverityWarning:
		return 2
	case domain.SeverityInfo:
		return 1
	}
	return 0
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}
