package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, order_type, customer_name, customer_phone,
street, number, neighborhood, city, complement, status, payment_method,
subtotal, delivery_fee, discount_type, discount_value, total_amount,
created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }, o *Order) error {
	return row.Scan(&o.ID, &o.OrderNumber, &o.OrderType, &o.CustomerName, &o.CustomerPhone,
		&o.Street, &o.Number, &o.Neighborhood, &o.City, &o.Complement, &o.Status, &o.PaymentMethod,
		&o.Subtotal, &o.DeliveryFee, &o.DiscountType, &o.DiscountValue, &o.TotalAmount,
		&o.CreatedAt, &o.UpdatedAt)
}

const getNextOrderNumber = `
SELECT COALESCE(MAX(CAST(SUBSTRING(order_number FROM 5) AS INTEGER)), 0) + 1
FROM orders
WHERE created_at::date = now()::date`

// GetNextOrderNumber returns the next sequential number for today. Racy by
// itself; the create flow retries on the unique constraint.
func (q *Queries) GetNextOrderNumber(ctx context.Context) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, getNextOrderNumber).Scan(&n)
	return n, err
}

const createOrder = `
INSERT INTO orders (
	order_number, order_type, customer_name, customer_phone,
	street, number, neighborhood, city, complement, status,
	payment_method, subtotal, delivery_fee, discount_type, discount_value, total_amount
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderNumber   string
	OrderType     string
	CustomerName  string
	CustomerPhone pgtype.Text
	Street        pgtype.Text
	Number        pgtype.Text
	Neighborhood  pgtype.Text
	City          pgtype.Text
	Complement    pgtype.Text
	Status        string
	PaymentMethod pgtype.Text
	Subtotal      pgtype.Numeric
	DeliveryFee   pgtype.Numeric
	DiscountType  pgtype.Text
	DiscountValue pgtype.Numeric
	TotalAmount   pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber, arg.OrderType, arg.CustomerName, arg.CustomerPhone,
		arg.Street, arg.Number, arg.Neighborhood, arg.City, arg.Complement,
		arg.Status, arg.PaymentMethod, arg.Subtotal, arg.DeliveryFee,
		arg.DiscountType, arg.DiscountValue, arg.TotalAmount)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}

const createOrderItem = `
INSERT INTO order_items (order_id, product_name, quantity, unit_price, observation)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, product_name, quantity, unit_price, observation`

type CreateOrderItemParams struct {
	OrderID     uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   pgtype.Numeric
	Observation pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.ProductName, arg.Quantity, arg.UnitPrice, arg.Observation)
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.ProductName, &i.Quantity, &i.UnitPrice, &i.Observation)
	return i, err
}

const getOrder = `
SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}

const listOrders = `
SELECT ` + orderColumns + ` FROM orders
WHERE ($1::text IS NULL OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

type ListOrdersParams struct {
	Status pgtype.Text
	Limit  int32
	Offset int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const listOrderItemsByOrder = `
SELECT id, order_id, product_name, quantity, unit_price, observation
FROM order_items WHERE order_id = $1`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductName, &i.Quantity, &i.UnitPrice, &i.Observation); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateOrderStatus = `
UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status string
}

// UpdateOrderStatus sets the status unconditionally. The kanban board uses
// this path on purpose: drops into any column are a human override.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}

const advanceOrderStatus = `
UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

type AdvanceOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

// AdvanceOrderStatus is the guarded variant used by the advance button:
// it only applies when the order is still in the status the caller read.
func (q *Queries) AdvanceOrderStatus(ctx context.Context, arg AdvanceOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, advanceOrderStatus, arg.ID, arg.Status, arg.FromStatus)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}
