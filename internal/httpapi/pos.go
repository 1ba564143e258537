package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"tokokita/backend/internal/barcode"
	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
)

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := a.service.Checkout(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

type scanEvent struct {
	Char     string `json:"char"`
	OffsetMs int64  `json:"offset_ms"`
}

type scanRequest struct {
	Events []scanEvent `json:"events"`
}

// handleScan classifies a burst of key events as scanner or manual input.
// Scanner input resolves the product straight away; manual input is left for
// the client's search box.
func (a *API) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("events required"))
		return
	}

	base := time.Now().UTC()
	keys := make([]barcode.KeyPress, 0, len(req.Events))
	for _, ev := range req.Events {
		runes := []rune(ev.Char)
		if len(runes) != 1 {
			writeError(w, http.StatusBadRequest, errors.New("each event carries one character"))
			return
		}
		keys = append(keys, barcode.KeyPress{
			Rune: runes[0],
			At:   base.Add(time.Duration(ev.OffsetMs) * time.Millisecond),
		})
	}

	result := barcode.Classify(keys)
	resp := map[string]any{
		"source":  result.Source,
		"payload": result.Payload,
	}
	if result.Source == barcode.SourceScanner {
		product, err := a.service.FindProductByBarcode(r.Context(), result.Payload)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp["product"] = nil
				writeJSON(w, http.StatusOK, resp)
				return
			}
			writeServiceError(w, err)
			return
		}
		resp["product"] = product
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleManualItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.ManualPOSItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.CreateManualPOSItem(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	from, to := parseTimeRange(r)
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	transactions, err := a.service.ListTransactions(r.Context(), from, to, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func (a *API) handleTransactionActions(w http.ResponseWriter, r *http.Request) {
	id, action, ok := pathTail(w, r, "/api/v1/transactions/")
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	switch action {
	case "":
		tx, err := a.service.GetTransaction(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
	case "receipt":
		receipt, err := a.service.BuildReceipt(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"receipt": receipt})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown transaction action"))
	}
}

func (a *API) handlePendingBills(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		status := r.URL.Query().Get("status")
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
		bills, err := a.service.ListPendingBills(r.Context(), status, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
	case http.MethodPost:
		var req domain.PendingBillCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		bill, err := a.service.CreatePendingBill(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"bill": bill})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePendingBillActions(w http.ResponseWriter, r *http.Request) {
	id, action, ok := pathTail(w, r, "/api/v1/pending-bills/")
	if !ok {
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		bill, err := a.service.GetPendingBill(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bill": bill})
	case action == "" && r.Method == http.MethodDelete:
		if err := a.service.DeletePendingBill(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	case action == "merge" && r.Method == http.MethodPost:
		var req domain.PendingBillMergeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		bill, err := a.service.MergeBillItems(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bill": bill})
	case action == "resume" && r.Method == http.MethodGet:
		lines, err := a.service.ResumeBill(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": lines})
	case action == "close" && r.Method == http.MethodPost:
		bill, err := a.service.CloseBill(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bill": bill})
	case strings.HasPrefix(action, "items/") && r.Method == http.MethodDelete:
		itemID := strings.TrimPrefix(action, "items/")
		bill, err := a.service.RemoveBillItem(r.Context(), id, itemID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bill": bill})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown bill action"))
	}
}

func (a *API) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"
	notifications, err := a.service.Notifications(r.Context(), refresh)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (a *API) handleNotificationsReadAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if err := a.service.MarkAllNotificationsRead(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleNotificationActions(w http.ResponseWriter, r *http.Request) {
	id, action, ok := pathTail(w, r, "/api/v1/notifications/")
	if !ok {
		return
	}
	if action != "read" || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, errors.New("unknown notification action"))
		return
	}
	if err := a.service.MarkNotificationRead(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
