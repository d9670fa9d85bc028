package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidOrderType     = errors.New("invalid order_type")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidDiscount      = errors.New("invalid discount_type")
	ErrInvalidDiscountValue = errors.New("invalid discount_value")
	ErrCustomerNameRequired = errors.New("customer_name is required")
	ErrAddressRequired      = errors.New("street and number are required for DELIVERY orders")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrNoNextStatus         = errors.New("order has no next status")
	ErrOrderConflict        = errors.New("order was updated concurrently")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create delivery orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating a delivery order.
type CreateOrderRequest struct {
	OrderType     string
	CustomerName  string
	CustomerPhone string
	Street        string
	Number        string
	Neighborhood  string
	City          string
	Complement    string
	PaymentMethod string
	DeliveryFee   string
	DiscountType  string
	DiscountValue string
	Items         []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single item in the order.
type CreateOrderItemRequest struct {
	ProductName string
	Quantity    int32
	UnitPrice   string
	Observation string
}

// CreateOrderResult is the full created order with items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles delivery/pickup order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// processedItem holds a prepared order item line.
type processedItem struct {
	params database.CreateOrderItemParams
	line   decimal.Decimal
}

// CreateOrder validates, prices, and creates a delivery order atomically.
// Retries up to maxOrderNumberRetries times on order_number unique constraint
// violations (concurrent transactions can read the same daily MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if req.OrderType != enum.OrderTypeDelivery && req.OrderType != enum.OrderTypePickup {
		return nil, ErrInvalidOrderType
	}
	if req.CustomerName == "" {
		return nil, ErrCustomerNameRequired
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.OrderType == enum.OrderTypeDelivery && (req.Street == "" || req.Number == "") {
		return nil, ErrAddressRequired
	}
	if req.DiscountType != "" && !isValidDiscountType(req.DiscountType) {
		return nil, ErrInvalidDiscount
	}

	// Retry loop: handles order_number unique constraint race condition.
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func isValidDiscountType(t string) bool {
	return t == enum.DiscountTypeValue || t == enum.DiscountTypePercentage
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	nextNum, err := store.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("PED-%03d", nextNum)

	// --- Process items: validate + sum lines ---
	subtotal := decimal.Zero
	var items []processedItem

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		if item.ProductName == "" {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidProductName)
		}
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil || unitPrice.IsNegative() {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidUnitPrice)
		}

		observation := pgtype.Text{}
		if item.Observation != "" {
			observation = pgtype.Text{String: item.Observation, Valid: true}
		}

		line := unitPrice.Mul(decimal.NewFromInt32(item.Quantity))
		subtotal = subtotal.Add(line)

		items = append(items, processedItem{
			params: database.CreateOrderItemParams{
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   database.DecimalToNumeric(unitPrice),
				Observation: observation,
			},
			line: line,
		})
	}

	// --- Order-level discount ---
	discountType := pgtype.Text{}
	discountValue := pgtype.Numeric{}
	discountAmount := decimal.Zero
	if req.DiscountType != "" {
		dv, err := decimal.NewFromString(req.DiscountValue)
		if err != nil || dv.IsNegative() {
			return nil, ErrInvalidDiscountValue
		}
		if req.DiscountType == enum.DiscountTypePercentage && dv.GreaterThan(decimal.NewFromInt(100)) {
			return nil, ErrInvalidDiscountValue
		}
		discountType = pgtype.Text{String: req.DiscountType, Valid: true}
		discountValue = database.DecimalToNumeric(dv)
		if req.DiscountType == enum.DiscountTypePercentage {
			discountAmount = subtotal.Mul(dv).Div(decimal.NewFromInt(100))
		} else {
			discountAmount = dv
		}
	}

	afterDiscount := subtotal.Sub(discountAmount)
	if afterDiscount.IsNegative() {
		afterDiscount = decimal.Zero
	}

	deliveryFee := decimal.Zero
	if req.DeliveryFee != "" {
		deliveryFee, err = decimal.NewFromString(req.DeliveryFee)
		if err != nil || deliveryFee.IsNegative() {
			return nil, fmt.Errorf("invalid delivery_fee")
		}
	}

	total := afterDiscount.Add(deliveryFee)

	optText := func(s string) pgtype.Text {
		if s == "" {
			return pgtype.Text{}
		}
		return pgtype.Text{String: s, Valid: true}
	}
	paymentMethod := optText(req.PaymentMethod)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:   orderNumber,
		OrderType:     req.OrderType,
		CustomerName:  req.CustomerName,
		CustomerPhone: optText(req.CustomerPhone),
		Street:        optText(req.Street),
		Number:        optText(req.Number),
		Neighborhood:  optText(req.Neighborhood),
		City:          optText(req.City),
		Complement:    optText(req.Complement),
		Status:        enum.OrderStatusPending,
		PaymentMethod: paymentMethod,
		Subtotal:      database.DecimalToNumeric(subtotal),
		DeliveryFee:   database.DecimalToNumeric(deliveryFee),
		DiscountType:  discountType,
		DiscountValue: discountValue,
		TotalAmount:   database.DecimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	result := &CreateOrderResult{Order: order}
	for i, item := range items {
		item.params.OrderID = order.ID
		created, err := store.CreateOrderItem(ctx, item.params)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: create order item: %w", i, err)
		}
		result.Items = append(result.Items, created)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}
