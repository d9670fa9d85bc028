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
	"github.com/shopspring/decimal"

	"github.com/cardapio-pos/api/internal/billing"
	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
	"github.com/cardapio-pos/api/internal/middleware"
	"github.com/cardapio-pos/api/internal/service"
	"github.com/cardapio-pos/api/internal/ws"
)

// Notifier pushes realtime events to subscribed clients.
// Satisfied by *ws.Hub; may be nil in tests.
type Notifier interface {
	Notify(channel, eventType string, payload any)
}

// SessionServicer defines the service methods needed by table handlers.
// Satisfied by *service.SessionService; narrow interface for testability.
type SessionServicer interface {
	OpenTable(ctx context.Context, req service.OpenTableRequest) (*service.OpenTableResult, error)
	RequestBill(ctx context.Context, tableID uuid.UUID) (database.TableOrder, error)
	CloseTable(ctx context.Context, tableID uuid.UUID, req service.CloseTableRequest) (*service.CloseTableResult, error)
	TransferTable(ctx context.Context, orderID, destTableID uuid.UUID) (database.TableOrder, error)
}

// TableStore defines the database methods needed by table read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	ListTables(ctx context.Context) ([]database.Table, error)
	ListLiveTableOrdersByTable(ctx context.Context, tableID uuid.UUID) ([]database.TableOrder, error)
	ListTableOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.TableOrderItem, error)
}

// TableHandler handles table endpoints.
type TableHandler struct {
	svc   SessionServicer
	store TableStore
	hub   Notifier
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(svc SessionServicer, store TableStore, hub Notifier) *TableHandler {
	return &TableHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.With(middleware.RequireRole("ADMIN")).Post("/", h.Create)
	r.Post("/{id}/open", h.Open)
	r.Post("/{id}/request-bill", h.RequestBill)
	r.Post("/{id}/close", h.Close)
	r.Post("/{id}/transfer", h.Transfer)
	r.Get("/{id}/bill", h.Bill)
}

// --- Request / Response types ---

type createTableRequest struct {
	Number   int32  `json:"number"`
	Name     string `json:"name"`
	Capacity int32  `json:"capacity"`
}

type openTableRequest struct {
	CustomerCount int32 `json:"customer_count"`
}

type closeTableRequest struct {
	PaymentMethod        string  `json:"payment_method"`
	DiscountType         *string `json:"discount_type"`
	DiscountValue        *string `json:"discount_value"`
	ServiceFeeEnabled    *bool   `json:"service_fee_enabled"`
	ServiceFeePercentage *string `json:"service_fee_percentage"`
}

type transferTableRequest struct {
	DestinationTableID string `json:"destination_table_id"`
}

type tableResponse struct {
	ID             uuid.UUID `json:"id"`
	Number         int32     `json:"number"`
	Name           *string   `json:"name"`
	Capacity       int32     `json:"capacity"`
	Status         string    `json:"status"`
	CurrentOrderID *string   `json:"current_order_id"`
	// Consistent is false when the status and current_order_id pairing
	// disagree (an occupied table with no order, or the reverse).
	Consistent bool      `json:"consistent"`
	CreatedAt  time.Time `json:"created_at"`
}

type openTableResponse struct {
	Table tableResponse      `json:"table"`
	Order tableOrderResponse `json:"order"`
}

type billOrderResponse struct {
	Order tableOrderResponse       `json:"order"`
	Items []tableOrderItemResponse `json:"items"`
}

type billResponse struct {
	TableID        uuid.UUID           `json:"table_id"`
	Orders         []billOrderResponse `json:"orders"`
	Subtotal       string              `json:"subtotal"`
	DiscountAmount string              `json:"discount_amount"`
	ServiceFee     string              `json:"service_fee"`
	Total          string              `json:"total"`
	PerPerson      string              `json:"per_person"`
	CustomerCount  int32               `json:"customer_count"`
}

type closeTableResponse struct {
	Table          tableResponse        `json:"table"`
	Orders         []tableOrderResponse `json:"orders"`
	Subtotal       string               `json:"subtotal"`
	DiscountAmount string               `json:"discount_amount"`
	ServiceFee     string               `json:"service_fee"`
	Total          string               `json:"total"`
	PerPerson      string               `json:"per_person"`
}

// --- Handlers ---

// List handles GET /tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		resp = append(resp, toTableResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Number < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "number must be >= 1"})
		return
	}
	if req.Capacity < 1 {
		req.Capacity = 4
	}

	table, err := h.store.CreateTable(r.Context(), database.CreateTableParams{
		Number:   req.Number,
		Name:     textFromString(req.Name),
		Capacity: req.Capacity,
	})
	if err != nil {
		log.Printf("ERROR: create table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toTableResponse(table))
}

// Open handles POST /tables/{id}/open.
func (h *TableHandler) Open(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req openTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	open := service.OpenTableRequest{
		TableID:       tableID,
		CustomerCount: req.CustomerCount,
	}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		open.WaiterID = claims.UserID
		open.WaiterName = claims.Name
	}

	result, err := h.svc.OpenTable(r.Context(), open)
	if err != nil {
		writeSessionError(w, err, "open table")
		return
	}

	h.notifyTables("table.opened", result.Table.ID)
	writeJSON(w, http.StatusCreated, openTableResponse{
		Table: toTableResponse(result.Table),
		Order: toTableOrderResponse(result.Order),
	})
}

// RequestBill handles POST /tables/{id}/request-bill.
func (h *TableHandler) RequestBill(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	order, err := h.svc.RequestBill(r.Context(), tableID)
	if err != nil {
		writeSessionError(w, err, "request bill")
		return
	}

	h.notifyTables("table.requesting_bill", tableID)
	writeJSON(w, http.StatusOK, toTableOrderResponse(order))
}

// Close handles POST /tables/{id}/close.
func (h *TableHandler) Close(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req closeTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !isValidPaymentMethod(req.PaymentMethod) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_method"})
		return
	}

	closeReq := service.CloseTableRequest{PaymentMethod: req.PaymentMethod}
	if req.DiscountType != nil {
		if *req.DiscountType != enum.DiscountTypeValue && *req.DiscountType != enum.DiscountTypePercentage {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount_type"})
			return
		}
		closeReq.DiscountType = req.DiscountType
		if req.DiscountValue != nil {
			dv, err := decimal.NewFromString(*req.DiscountValue)
			if err != nil || dv.IsNegative() {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount_value"})
				return
			}
			if *req.DiscountType == enum.DiscountTypePercentage && dv.GreaterThan(decimal.NewFromInt(100)) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount_value"})
				return
			}
			closeReq.DiscountValue = &dv
		}
	}
	closeReq.ServiceFeeEnabled = req.ServiceFeeEnabled
	if req.ServiceFeePercentage != nil {
		pct, err := decimal.NewFromString(*req.ServiceFeePercentage)
		if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service_fee_percentage"})
			return
		}
		closeReq.ServiceFeePercentage = &pct
	}

	result, err := h.svc.CloseTable(r.Context(), tableID, closeReq)
	if err != nil {
		writeSessionError(w, err, "close table")
		return
	}

	h.notifyTables("table.closed", tableID)
	orders := make([]tableOrderResponse, 0, len(result.Orders))
	for _, o := range result.Orders {
		orders = append(orders, toTableOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, closeTableResponse{
		Table:          toTableResponse(result.Table),
		Orders:         orders,
		Subtotal:       result.Aggregate.Subtotal.StringFixed(2),
		DiscountAmount: result.Aggregate.DiscountAmount.StringFixed(2),
		ServiceFee:     result.Aggregate.ServiceFee.StringFixed(2),
		Total:          result.Aggregate.Total.StringFixed(2),
		PerPerson:      result.PerPerson.StringFixed(2),
	})
}

// Transfer handles POST /tables/{id}/transfer. {id} is the source table; its
// current order moves to the destination.
func (h *TableHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req transferTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	destID, err := uuid.Parse(req.DestinationTableID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid destination_table_id"})
		return
	}

	table, err := h.store.GetTable(r.Context(), tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table for transfer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if !table.CurrentOrderID.Valid {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "table has no open order"})
		return
	}

	order, err := h.svc.TransferTable(r.Context(), uuid.UUID(table.CurrentOrderID.Bytes), destID)
	if err != nil {
		writeSessionError(w, err, "transfer table")
		return
	}

	h.notifyTables("table.transferred", tableID)
	h.notifyTables("table.transferred", destID)
	writeJSON(w, http.StatusOK, toTableOrderResponse(order))
}

// Bill handles GET /tables/{id}/bill. Read-only preview: every live order on
// the table with its items, plus the combined totals and per-person share.
func (h *TableHandler) Bill(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	if _, err := h.store.GetTable(r.Context(), tableID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table for bill: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	orders, err := h.store.ListLiveTableOrdersByTable(r.Context(), tableID)
	if err != nil {
		log.Printf("ERROR: list live orders for bill: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if len(orders) == 0 {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "table has no open order"})
		return
	}

	var allLines []billing.Line
	var customerCount int32
	resp := billResponse{TableID: tableID}
	for _, order := range orders {
		items, err := h.store.ListTableOrderItems(r.Context(), order.ID)
		if err != nil {
			log.Printf("ERROR: list items for bill: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		allLines = append(allLines, billing.LinesFromTableItems(items)...)
		if order.CustomerCount > customerCount {
			customerCount = order.CustomerCount
		}
		itemResp := make([]tableOrderItemResponse, 0, len(items))
		for _, it := range items {
			itemResp = append(itemResp, toTableOrderItemResponse(it))
		}
		resp.Orders = append(resp.Orders, billOrderResponse{
			Order: toTableOrderResponse(order),
			Items: itemResp,
		})
	}

	totals := billing.Calculate(allLines, billing.OptionsFromOrder(orders[0]))
	resp.Subtotal = totals.Subtotal.StringFixed(2)
	resp.DiscountAmount = totals.DiscountAmount.StringFixed(2)
	resp.ServiceFee = totals.ServiceFee.StringFixed(2)
	resp.Total = totals.Total.StringFixed(2)
	resp.PerPerson = billing.PerPerson(totals.Total, customerCount).StringFixed(2)
	resp.CustomerCount = customerCount

	writeJSON(w, http.StatusOK, resp)
}

func (h *TableHandler) notifyTables(eventType string, tableID uuid.UUID) {
	if h.hub == nil {
		return
	}
	h.hub.Notify(ws.ChannelTables, eventType, map[string]string{"table_id": tableID.String()})
}

// --- Helpers ---

// writeSessionError maps session service errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrTableNotAvailable),
		errors.Is(err, service.ErrTableNotOccupied),
		errors.Is(err, service.ErrNoOpenOrder),
		errors.Is(err, service.ErrOrderNotOpen),
		errors.Is(err, service.ErrOrderClosed),
		errors.Is(err, service.ErrItemNotPending),
		errors.Is(err, service.ErrItemFinal),
		errors.Is(err, service.ErrInvalidItemTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCustomerCount),
		errors.Is(err, service.ErrInvalidProductName),
		errors.Is(err, service.ErrInvalidUnitPrice),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidItemStatus),
		errors.Is(err, service.ErrInvalidOrderStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func isValidPaymentMethod(m string) bool {
	switch m {
	case enum.PaymentMethodCash, enum.PaymentMethodCard, enum.PaymentMethodPix:
		return true
	}
	return false
}

func toTableResponse(t database.Table) tableResponse {
	occupied := t.Status != enum.TableStatusAvailable
	return tableResponse{
		ID:             t.ID,
		Number:         t.Number,
		Name:           textToPtr(t.Name),
		Capacity:       t.Capacity,
		Status:         t.Status,
		CurrentOrderID: uuidToPtr(t.CurrentOrderID),
		Consistent:     occupied == t.CurrentOrderID.Valid,
		CreatedAt:      t.CreatedAt,
	}
}
