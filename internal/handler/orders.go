package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/service"
	"github.com/cardapio-pos/api/internal/transition"
	"github.com/cardapio-pos/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

// OrderStore defines the database methods needed by order read/update handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	AdvanceOrderStatus(ctx context.Context, arg database.AdvanceOrderStatusParams) (database.Order, error)
}

// OrderHandler handles delivery/pickup order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   Notifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub Notifier) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers the staff-facing order endpoints on the given Chi
// router. Creation is registered separately: POST /orders is the digital-menu
// checkout and must stay reachable without a staff token.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/advance", h.Advance)
}

// --- Request / Response types ---

type createOrderRequest struct {
	OrderType     string                   `json:"order_type"`
	CustomerName  string                   `json:"customer_name"`
	CustomerPhone string                   `json:"customer_phone"`
	Street        string                   `json:"street"`
	Number        string                   `json:"number"`
	Neighborhood  string                   `json:"neighborhood"`
	City          string                   `json:"city"`
	Complement    string                   `json:"complement"`
	PaymentMethod string                   `json:"payment_method"`
	DeliveryFee   string                   `json:"delivery_fee"`
	DiscountType  string                   `json:"discount_type"`
	DiscountValue string                   `json:"discount_value"`
	Items         []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Observation string `json:"observation"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	OrderType     string              `json:"order_type"`
	CustomerName  string              `json:"customer_name"`
	CustomerPhone *string             `json:"customer_phone"`
	Street        *string             `json:"street"`
	Number        *string             `json:"number"`
	Neighborhood  *string             `json:"neighborhood"`
	City          *string             `json:"city"`
	Complement    *string             `json:"complement"`
	Status        string              `json:"status"`
	PaymentMethod *string             `json:"payment_method"`
	Subtotal      string              `json:"subtotal"`
	DeliveryFee   string              `json:"delivery_fee"`
	DiscountType  *string             `json:"discount_type"`
	DiscountValue *string             `json:"discount_value"`
	TotalAmount   string              `json:"total_amount"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Items         []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductName string    `json:"product_name"`
	Quantity    int32     `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Observation *string   `json:"observation"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// advanceResponse carries the new status and the label for the next action,
// if one remains.
type advanceResponse struct {
	orderResponse
	NextLabel *string `json:"next_label"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.CreateOrderItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.CreateOrderItemRequest{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Observation: it.Observation,
		})
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		OrderType:     req.OrderType,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Street:        req.Street,
		Number:        req.Number,
		Neighborhood:  req.Neighborhood,
		City:          req.City,
		Complement:    req.Complement,
		PaymentMethod: req.PaymentMethod,
		DeliveryFee:   req.DeliveryFee,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		Items:         items,
	})
	if err != nil {
		if isOrderValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.hub != nil {
		h.hub.Notify(ws.ChannelOrders, "order.created", map[string]string{"order_id": result.Order.ID.String()})
	}
	resp := toOrderResponse(result.Order)
	resp.Items = make([]orderItemResponse, 0, len(result.Items))
	for _, it := range result.Items {
		resp.Items = append(resp.Items, toOrderItemResponse(it))
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /orders?status=&limit=&offset=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}

	status := pgtype.Text{}
	if s := r.URL.Query().Get("status"); s != "" {
		if !transition.ValidStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		status = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
		Status: status,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(order)
	resp.Items = make([]orderItemResponse, 0, len(items))
	for _, it := range items {
		resp.Items = append(resp.Items, toOrderItemResponse(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /orders/{id}/status. Any valid status is
// accepted; this is the human-override path the kanban board uses, so no
// transition chain is enforced here.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	if !transition.ValidStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:     orderID,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.hub != nil {
		h.hub.Notify(ws.ChannelOrders, "order.status_changed", map[string]string{"order_id": orderID.String()})
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// Advance handles POST /orders/{id}/advance: one validated step along the
// delivery chain. The write carries a WHERE status = <read status> guard, so
// two operators advancing at once can't double-step the order.
func (h *OrderHandler) Advance(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	current, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for advance: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	next, _, ok := transition.Next(transition.FamilyDelivery, current.Status)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order has no next status"})
		return
	}

	updated, err := h.store.AdvanceOrderStatus(r.Context(), database.AdvanceOrderStatusParams{
		ID:         orderID,
		Status:     next,
		FromStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The status changed between our read and write.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
			return
		}
		log.Printf("ERROR: advance order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.hub != nil {
		h.hub.Notify(ws.ChannelOrders, "order.status_changed", map[string]string{"order_id": orderID.String()})
	}

	resp := advanceResponse{orderResponse: toOrderResponse(updated)}
	if _, label, ok := transition.Next(transition.FamilyDelivery, updated.Status); ok {
		resp.NextLabel = &label
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidDiscount) ||
		errors.Is(err, service.ErrInvalidDiscountValue) ||
		errors.Is(err, service.ErrCustomerNameRequired) ||
		errors.Is(err, service.ErrAddressRequired) ||
		errors.Is(err, service.ErrInvalidProductName) ||
		errors.Is(err, service.ErrInvalidUnitPrice)
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		OrderType:     o.OrderType,
		CustomerName:  o.CustomerName,
		CustomerPhone: textToPtr(o.CustomerPhone),
		Street:        textToPtr(o.Street),
		Number:        textToPtr(o.Number),
		Neighborhood:  textToPtr(o.Neighborhood),
		City:          textToPtr(o.City),
		Complement:    textToPtr(o.Complement),
		Status:        o.Status,
		PaymentMethod: textToPtr(o.PaymentMethod),
		Subtotal:      numericToString(o.Subtotal),
		DeliveryFee:   numericToString(o.DeliveryFee),
		DiscountType:  textToPtr(o.DiscountType),
		DiscountValue: numericToPtr(o.DiscountValue),
		TotalAmount:   numericToString(o.TotalAmount),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toOrderItemResponse(it database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:          it.ID,
		ProductName: it.ProductName,
		Quantity:    it.Quantity,
		UnitPrice:   numericToString(it.UnitPrice),
		Observation: textToPtr(it.Observation),
	}
}
