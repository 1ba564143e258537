package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/metrics"
	"tokokita/backend/internal/notify"
	"tokokita/backend/internal/store"
)

const notificationCacheKey = "notifications:v1"

// Notifications derives the current notification set. Results are cached for
// the configured TTL; refresh forces a rederive. Read flags are applied after
// the cache so a cached set still reflects per-process read state.
func (s *Service) Notifications(ctx context.Context, refresh bool) ([]domain.Notification, error) {
	if !refresh {
		if cached, ok, err := s.notifCache.Get(ctx, notificationCacheKey); err == nil && ok {
			return s.applyReadState(cached), nil
		} else if err != nil {
			zap.L().Warn("notification cache read failed", zap.Error(err))
		}
	}

	derived, err := s.deriveNotifications(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.notifCache.Set(ctx, notificationCacheKey, derived, s.notifTTL); err != nil {
		zap.L().Warn("notification cache write failed", zap.Error(err))
	}
	return s.applyReadState(derived), nil
}

func (s *Service) deriveNotifications(ctx context.Context) ([]domain.Notification, error) {
	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.GetTotalStockMap(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := s.repo.ListLoans(ctx, "", "")
	if err != nil {
		return nil, err
	}
	openTickets, err := s.repo.ListTickets(ctx, domain.TicketStatusOpen)
	if err != nil {
		return nil, err
	}

	derived := s.notifier.Derive(notify.Inputs{
		Products:        products,
		TotalStock:      totals,
		Loans:           loans,
		OpenTickets:     len(openTickets),
		DefaultMinStock: s.defaultMinStock(ctx),
		Now:             time.Now().UTC(),
	})

	lowStock := 0
	for _, n := range derived {
		if n.Category == "low_stock" {
			lowStock = n.Count
		}
	}
	metrics.LowStockProducts.Set(float64(lowStock))
	return derived, nil
}

// defaultMinStock reads the fallback threshold from settings. Zero disables
// the fallback for products without their own minimum.
func (s *Service) defaultMinStock(ctx context.Context) int {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return 0
	}
	for _, setting := range settings {
		if setting.Key != "default_min_stock" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(setting.Value))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}

func (s *Service) applyReadState(notifications []domain.Notification) []domain.Notification {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	result := make([]domain.Notification, len(notifications))
	for i, n := range notifications {
		n.Read = s.readIDs[n.ID]
		result[i] = n
	}
	return result
}

func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	notifications, err := s.Notifications(ctx, false)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		if n.ID == id {
			s.readMu.Lock()
			s.readIDs[id] = true
			s.readMu.Unlock()
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context) error {
	notifications, err := s.Notifications(ctx, false)
	if err != nil {
		return err
	}
	s.readMu.Lock()
	defer s.readMu.Unlock()
	for _, n := range notifications {
		s.readIDs[n.ID] = true
	}
	return nil
}
