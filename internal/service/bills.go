package service

import (
	"context"
	"fmt"
	"strings"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
)

func (s *Service) CreatePendingBill(ctx context.Context, req domain.PendingBillCreateRequest) (domain.PendingBill, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" || req.WarehouseID == "" || len(req.Items) == 0 {
		return domain.PendingBill{}, store.ErrInvalid
	}
	if _, err := s.repo.GetWarehouseByID(ctx, req.WarehouseID); err != nil {
		return domain.PendingBill{}, err
	}

	items, err := s.resolveCartLines(ctx, req.Items)
	if err != nil {
		return domain.PendingBill{}, err
	}
	billItems := make([]domain.PendingBillItem, 0, len(items))
	for _, item := range items {
		billItems = append(billItems, domain.PendingBillItem{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  int64(item.Qty) * item.UnitPriceCents,
		})
	}

	created, err := s.repo.CreatePendingBill(ctx, domain.PendingBill{
		CustomerName:  req.CustomerName,
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		WarehouseID:   req.WarehouseID,
		Notes:         strings.TrimSpace(req.Notes),
		Status:        domain.BillStatusOpen,
		Items:         billItems,
	})
	if err != nil {
		return domain.PendingBill{}, err
	}
	s.logAudit(ctx, "bill_create", "pending_bill", created.ID,
		fmt.Sprintf("customer=%s,items=%d", created.CustomerName, len(created.Items)))
	return *created, nil
}

func (s *Service) ListPendingBills(ctx context.Context, status string, limit int) ([]domain.PendingBill, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", domain.BillStatusOpen, domain.BillStatusClosed:
	default:
		return nil, store.ErrInvalid
	}
	return s.repo.ListPendingBills(ctx, status, limit)
}

func (s *Service) GetPendingBill(ctx context.Context, id string) (domain.PendingBill, error) {
	bill, err := s.repo.GetPendingBillByID(ctx, id)
	if err != nil {
		return domain.PendingBill{}, err
	}
	return *bill, nil
}

// MergeBillItems folds new cart lines into an open bill. Lines for a product
// already on the bill bump its quantity and keep the price recorded when the
// bill was created, so a later price change does not reprice an old bill.
func (s *Service) MergeBillItems(ctx context.Context, billID string, req domain.PendingBillMergeRequest) (domain.PendingBill, error) {
	if len(req.Items) == 0 {
		return domain.PendingBill{}, store.ErrInvalid
	}
	items, err := s.resolveCartLines(ctx, req.Items)
	if err != nil {
		return domain.PendingBill{}, err
	}
	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.CartLine{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	merged, err := s.repo.MergeBillItems(ctx, billID, lines)
	if err != nil {
		return domain.PendingBill{}, err
	}
	s.logAudit(ctx, "bill_merge", "pending_bill", billID, fmt.Sprintf("lines=%d", len(lines)))
	return *merged, nil
}

// ResumeBill hands the bill's items back as cart lines so the POS can load
// them, and leaves the bill itself untouched.
func (s *Service) ResumeBill(ctx context.Context, billID string) ([]domain.CartLine, error) {
	bill, err := s.repo.GetPendingBillByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Status != domain.BillStatusOpen {
		return nil, store.ErrInvalid
	}
	lines := make([]domain.CartLine, 0, len(bill.Items))
	for _, item := range bill.Items {
		lines = append(lines, domain.CartLine{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return lines, nil
}

func (s *Service) RemoveBillItem(ctx context.Context, billID, itemID string) (domain.PendingBill, error) {
	bill, err := s.repo.RemoveBillItem(ctx, billID, itemID)
	if err != nil {
		return domain.PendingBill{}, err
	}
	s.logAudit(ctx, "bill_item_remove", "pending_bill", billID, "item="+itemID)
	return *bill, nil
}

func (s *Service) CloseBill(ctx context.Context, billID string) (domain.PendingBill, error) {
	bill, err := s.repo.CloseBill(ctx, billID)
	if err != nil {
		return domain.PendingBill{}, err
	}
	s.logAudit(ctx, "bill_close", "pending_bill", billID, "")
	return *bill, nil
}

// DeletePendingBill drops the bill and all of its items.
func (s *Service) DeletePendingBill(ctx context.Context, billID string) error {
	if err := s.repo.DeletePendingBill(ctx, billID); err != nil {
		return err
	}
	s.logAudit(ctx, "bill_delete", "pending_bill", billID, "")
	return nil
}
