package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableOrderItemColumns = `id, order_id, product_id, product_name, quantity,
unit_price, observation, status, ordered_at, delivered_at`

func scanTableOrderItem(row interface{ Scan(dest ...any) error }, i *TableOrderItem) error {
	return row.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.ProductName, &i.Quantity,
		&i.UnitPrice, &i.Observation, &i.Status, &i.OrderedAt, &i.DeliveredAt)
}

const createTableOrderItem = `
INSERT INTO table_order_items (order_id, product_id, product_name, quantity, unit_price, observation)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + tableOrderItemColumns

type CreateTableOrderItemParams struct {
	OrderID     uuid.UUID
	ProductID   pgtype.UUID
	ProductName string
	Quantity    int32
	UnitPrice   pgtype.Numeric
	Observation pgtype.Text
}

func (q *Queries) CreateTableOrderItem(ctx context.Context, arg CreateTableOrderItemParams) (TableOrderItem, error) {
	row := q.db.QueryRow(ctx, createTableOrderItem,
		arg.OrderID, arg.ProductID, arg.ProductName, arg.Quantity, arg.UnitPrice, arg.Observation)
	var i TableOrderItem
	err := scanTableOrderItem(row, &i)
	return i, err
}

const getTableOrderItem = `
SELECT ` + tableOrderItemColumns + ` FROM table_order_items WHERE id = $1`

func (q *Queries) GetTableOrderItem(ctx context.Context, id uuid.UUID) (TableOrderItem, error) {
	row := q.db.QueryRow(ctx, getTableOrderItem, id)
	var i TableOrderItem
	err := scanTableOrderItem(row, &i)
	return i, err
}

const listTableOrderItems = `
SELECT ` + tableOrderItemColumns + ` FROM table_order_items
WHERE order_id = $1
ORDER BY ordered_at`

func (q *Queries) ListTableOrderItems(ctx context.Context, orderID uuid.UUID) ([]TableOrderItem, error) {
	rows, err := q.db.Query(ctx, listTableOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TableOrderItem
	for rows.Next() {
		var i TableOrderItem
		if err := scanTableOrderItem(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countKitchenAcceptedItems = `
SELECT count(*) FROM table_order_items
WHERE order_id = $1 AND status IN ('PREPARING', 'READY')`

// CountKitchenAcceptedItems backs the split rule: a non-zero count means the
// kitchen has started on this ticket and new items need a fresh order.
func (q *Queries) CountKitchenAcceptedItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countKitchenAcceptedItems, orderID).Scan(&n)
	return n, err
}

const updateTableOrderItemStatus = `
UPDATE table_order_items
SET status = $2,
	delivered_at = CASE WHEN $2 = 'DELIVERED' THEN now() ELSE delivered_at END
WHERE id = $1 AND status NOT IN ('DELIVERED', 'CANCELLED')
RETURNING ` + tableOrderItemColumns

type UpdateTableOrderItemStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateTableOrderItemStatus(ctx context.Context, arg UpdateTableOrderItemStatusParams) (TableOrderItem, error) {
	row := q.db.QueryRow(ctx, updateTableOrderItemStatus, arg.ID, arg.Status)
	var i TableOrderItem
	err := scanTableOrderItem(row, &i)
	return i, err
}

const deleteTableOrderItem = `
DELETE FROM table_order_items WHERE id = $1 AND status = 'PENDING'
RETURNING ` + tableOrderItemColumns

// DeleteTableOrderItem hard-deletes a line only while it is still PENDING.
// Anything the kitchen has touched is soft-cancelled instead.
func (q *Queries) DeleteTableOrderItem(ctx context.Context, id uuid.UUID) (TableOrderItem, error) {
	row := q.db.QueryRow(ctx, deleteTableOrderItem, id)
	var i TableOrderItem
	err := scanTableOrderItem(row, &i)
	return i, err
}

// ListKitchenItemsRow carries the table number so the kitchen board can key
// cards by (order, table) without a second read.
type ListKitchenItemsRow struct {
	TableOrderItem
	TableNumber int32
}

const listKitchenItems = `
SELECT i.id, i.order_id, i.product_id, i.product_name, i.quantity,
	i.unit_price, i.observation, i.status, i.ordered_at, i.delivered_at, t.number
FROM table_order_items i
JOIN table_orders o ON o.id = i.order_id
JOIN tables t ON t.id = o.table_id
WHERE o.status IN ('OPEN', 'REQUESTING_BILL')
	AND i.status IN ('PENDING', 'PREPARING', 'READY')
ORDER BY i.ordered_at`

func (q *Queries) ListKitchenItems(ctx context.Context) ([]ListKitchenItemsRow, error) {
	rows, err := q.db.Query(ctx, listKitchenItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListKitchenItemsRow
	for rows.Next() {
		var r ListKitchenItemsRow
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ProductID, &r.ProductName, &r.Quantity,
			&r.UnitPrice, &r.Observation, &r.Status, &r.OrderedAt, &r.DeliveredAt, &r.TableNumber); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
