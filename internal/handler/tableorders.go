package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/service"
	"github.com/cardapio-pos/api/internal/ws"
)

// ItemServicer defines the service methods needed by table-order handlers.
// Satisfied by *service.SessionService; narrow interface for testability.
type ItemServicer interface {
	AddItem(ctx context.Context, req service.AddItemRequest) (*service.AddItemResult, error)
	UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status string) (database.TableOrderItem, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
	CancelOrder(ctx context.Context, orderID uuid.UUID) (database.TableOrder, error)
}

// TableOrderStore defines the database methods needed by table-order reads.
// Satisfied by *database.Queries; narrow interface for testability.
type TableOrderStore interface {
	GetTableOrder(ctx context.Context, id uuid.UUID) (database.TableOrder, error)
	ListLiveTableOrders(ctx context.Context) ([]database.ListLiveTableOrdersRow, error)
	ListTableOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.TableOrderItem, error)
}

// TableOrderHandler handles dine-in order endpoints.
type TableOrderHandler struct {
	svc   ItemServicer
	store TableOrderStore
	hub   Notifier
}

// NewTableOrderHandler creates a new TableOrderHandler.
func NewTableOrderHandler(svc ItemServicer, store TableOrderStore, hub Notifier) *TableOrderHandler {
	return &TableOrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers table-order endpoints on the given Chi router.
func (h *TableOrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/items", h.AddItem)
	r.Post("/{id}/cancel", h.Cancel)
	r.Patch("/items/{id}/status", h.UpdateItemStatus)
	r.Delete("/items/{id}", h.RemoveItem)
}

// --- Request / Response types ---

type addItemRequest struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Observation string `json:"observation"`
}

type addItemResponse struct {
	Item tableOrderItemResponse `json:"item"`
	// Order is the order the item actually landed on, which differs from the
	// URL order when the kitchen already accepted part of that tab.
	Order           tableOrderResponse `json:"order"`
	CreatedNewOrder bool               `json:"created_new_order"`
}

type itemStatusRequest struct {
	Status string `json:"status"`
}

type tableOrderResponse struct {
	ID                   uuid.UUID  `json:"id"`
	TableID              uuid.UUID  `json:"table_id"`
	TableNumber          *int32     `json:"table_number,omitempty"`
	Status               string     `json:"status"`
	CustomerCount        int32      `json:"customer_count"`
	WaiterID             *string    `json:"waiter_id"`
	WaiterName           *string    `json:"waiter_name"`
	PaymentMethod        *string    `json:"payment_method"`
	DiscountType         *string    `json:"discount_type"`
	DiscountValue        *string    `json:"discount_value"`
	ServiceFeeEnabled    bool       `json:"service_fee_enabled"`
	ServiceFeePercentage string     `json:"service_fee_percentage"`
	Subtotal             string     `json:"subtotal"`
	TotalAmount          string     `json:"total_amount"`
	OpenedAt             time.Time  `json:"opened_at"`
	ClosedAt             *time.Time `json:"closed_at"`
}

type tableOrderItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"order_id"`
	ProductID   *string    `json:"product_id"`
	ProductName string     `json:"product_name"`
	Quantity    int32      `json:"quantity"`
	UnitPrice   string     `json:"unit_price"`
	Observation *string    `json:"observation"`
	Status      string     `json:"status"`
	OrderedAt   time.Time  `json:"ordered_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
}

type tableOrderDetailResponse struct {
	tableOrderResponse
	Items []tableOrderItemResponse `json:"items"`
}

// --- Handlers ---

// List handles GET /table-orders. Returns every live (OPEN or
// REQUESTING_BILL) dine-in order with its table number.
func (h *TableOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListLiveTableOrders(r.Context())
	if err != nil {
		log.Printf("ERROR: list table orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableOrderResponse, 0, len(rows))
	for _, row := range rows {
		o := toTableOrderResponse(row.TableOrder)
		n := row.TableNumber
		o.TableNumber = &n
		resp = append(resp, o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /table-orders/{id}.
func (h *TableOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetTableOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get table order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListTableOrderItems(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list table order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	detail := tableOrderDetailResponse{tableOrderResponse: toTableOrderResponse(order)}
	detail.Items = make([]tableOrderItemResponse, 0, len(items))
	for _, it := range items {
		detail.Items = append(detail.Items, toTableOrderItemResponse(it))
	}
	writeJSON(w, http.StatusOK, detail)
}

// AddItem handles POST /table-orders/{id}/items.
func (h *TableOrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid unit_price"})
		return
	}
	add := service.AddItemRequest{
		OrderID:     orderID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		UnitPrice:   unitPrice,
		Observation: req.Observation,
	}
	if req.ProductID != "" {
		pid, err := uuid.Parse(req.ProductID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product_id"})
			return
		}
		add.ProductID = pid
	}

	result, err := h.svc.AddItem(r.Context(), add)
	if err != nil {
		writeSessionError(w, err, "add item")
		return
	}

	h.notifyKitchen("item.added", result.Item.OrderID)
	writeJSON(w, http.StatusCreated, addItemResponse{
		Item:            toTableOrderItemResponse(result.Item),
		Order:           toTableOrderResponse(result.Order),
		CreatedNewOrder: result.CreatedNewOrder,
	})
}

// Cancel handles POST /table-orders/{id}/cancel.
func (h *TableOrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	// Distinguish "never existed" from "already closed" for the error.
	if _, err := h.store.GetTableOrder(r.Context(), orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get table order for cancel: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), orderID)
	if err != nil {
		writeSessionError(w, err, "cancel order")
		return
	}

	h.notifyKitchen("order.cancelled", orderID)
	writeJSON(w, http.StatusOK, toTableOrderResponse(order))
}

// UpdateItemStatus handles PATCH /table-orders/items/{id}/status.
func (h *TableOrderHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req itemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	item, err := h.svc.UpdateItemStatus(r.Context(), itemID, req.Status)
	if err != nil {
		writeSessionError(w, err, "update item status")
		return
	}

	h.notifyKitchen("item.status_changed", item.OrderID)
	writeJSON(w, http.StatusOK, toTableOrderItemResponse(item))
}

// RemoveItem handles DELETE /table-orders/items/{id}.
func (h *TableOrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if err := h.svc.RemoveItem(r.Context(), itemID); err != nil {
		writeSessionError(w, err, "remove item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TableOrderHandler) notifyKitchen(eventType string, orderID uuid.UUID) {
	if h.hub == nil {
		return
	}
	payload := map[string]string{"order_id": orderID.String()}
	h.hub.Notify(ws.ChannelKitchen, eventType, payload)
	h.hub.Notify(ws.ChannelTables, eventType, payload)
}

// --- Helpers ---

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	return database.NumericToDecimal(n).StringFixed(2)
}

func textToPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func textFromString(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func uuidToPtr(u pgtype.UUID) *string {
	if !u.Valid {
		return nil
	}
	s := uuid.UUID(u.Bytes).String()
	return &s
}

func timestamptzToPtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func toTableOrderResponse(o database.TableOrder) tableOrderResponse {
	return tableOrderResponse{
		ID:                   o.ID,
		TableID:              o.TableID,
		Status:               o.Status,
		CustomerCount:        o.CustomerCount,
		WaiterID:             uuidToPtr(o.WaiterID),
		WaiterName:           textToPtr(o.WaiterName),
		PaymentMethod:        textToPtr(o.PaymentMethod),
		DiscountType:         textToPtr(o.DiscountType),
		DiscountValue:        numericToPtr(o.DiscountValue),
		ServiceFeeEnabled:    o.ServiceFeeEnabled,
		ServiceFeePercentage: numericToString(o.ServiceFeePercentage),
		Subtotal:             numericToString(o.Subtotal),
		TotalAmount:          numericToString(o.TotalAmount),
		OpenedAt:             o.OpenedAt,
		ClosedAt:             timestamptzToPtr(o.ClosedAt),
	}
}

func numericToPtr(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := database.NumericToDecimal(n).StringFixed(2)
	return &s
}

func toTableOrderItemResponse(it database.TableOrderItem) tableOrderItemResponse {
	return tableOrderItemResponse{
		ID:          it.ID,
		OrderID:     it.OrderID,
		ProductID:   uuidToPtr(it.ProductID),
		ProductName: it.ProductName,
		Quantity:    it.Quantity,
		UnitPrice:   numericToString(it.UnitPrice),
		Observation: textToPtr(it.Observation),
		Status:      it.Status,
		OrderedAt:   it.OrderedAt,
		DeliveredAt: timestamptzToPtr(it.DeliveredAt),
	}
}
