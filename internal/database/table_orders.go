package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableOrderColumns = `id, table_id, status, customer_count, waiter_id, waiter_name,
subtotal, discount_type, discount_value, service_fee_enabled, service_fee_percentage,
total_amount, payment_method, opened_at, closed_at`

func scanTableOrder(row interface{ Scan(dest ...any) error }, o *TableOrder) error {
	return row.Scan(&o.ID, &o.TableID, &o.Status, &o.CustomerCount, &o.WaiterID, &o.WaiterName,
		&o.Subtotal, &o.DiscountType, &o.DiscountValue, &o.ServiceFeeEnabled, &o.ServiceFeePercentage,
		&o.TotalAmount, &o.PaymentMethod, &o.OpenedAt, &o.ClosedAt)
}

const createTableOrder = `
INSERT INTO table_orders (
	table_id, status, customer_count, waiter_id, waiter_name,
	subtotal, discount_type, discount_value, service_fee_enabled,
	service_fee_percentage, total_amount
) VALUES ($1, 'OPEN', $2, $3, $4, 0, $5, $6, $7, $8, 0)
RETURNING ` + tableOrderColumns

type CreateTableOrderParams struct {
	TableID              uuid.UUID
	CustomerCount        int32
	WaiterID             pgtype.UUID
	WaiterName           pgtype.Text
	DiscountType         pgtype.Text
	DiscountValue        pgtype.Numeric
	ServiceFeeEnabled    bool
	ServiceFeePercentage pgtype.Numeric
}

func (q *Queries) CreateTableOrder(ctx context.Context, arg CreateTableOrderParams) (TableOrder, error) {
	row := q.db.QueryRow(ctx, createTableOrder,
		arg.TableID, arg.CustomerCount, arg.WaiterID, arg.WaiterName,
		arg.DiscountType, arg.DiscountValue, arg.ServiceFeeEnabled, arg.ServiceFeePercentage)
	var o TableOrder
	err := scanTableOrder(row, &o)
	return o, err
}

const getTableOrder = `
SELECT ` + tableOrderColumns + ` FROM table_orders WHERE id = $1`

func (q *Queries) GetTableOrder(ctx context.Context, id uuid.UUID) (TableOrder, error) {
	row := q.db.QueryRow(ctx, getTableOrder, id)
	var o TableOrder
	err := scanTableOrder(row, &o)
	return o, err
}

// ListLiveTableOrdersRow joins the table number in for display surfaces.
type ListLiveTableOrdersRow struct {
	TableOrder
	TableNumber int32
}

const listLiveTableOrders = `
SELECT o.id, o.table_id, o.status, o.customer_count, o.waiter_id, o.waiter_name,
	o.subtotal, o.discount_type, o.discount_value, o.service_fee_enabled, o.service_fee_percentage,
	o.total_amount, o.payment_method, o.opened_at, o.closed_at, t.number
FROM table_orders o
JOIN tables t ON t.id = o.table_id
WHERE o.status IN ('OPEN', 'REQUESTING_BILL')
ORDER BY o.opened_at DESC`

func (q *Queries) ListLiveTableOrders(ctx context.Context) ([]ListLiveTableOrdersRow, error) {
	rows, err := q.db.Query(ctx, listLiveTableOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListLiveTableOrdersRow
	for rows.Next() {
		var r ListLiveTableOrdersRow
		if err := rows.Scan(&r.ID, &r.TableID, &r.Status, &r.CustomerCount, &r.WaiterID, &r.WaiterName,
			&r.Subtotal, &r.DiscountType, &r.DiscountValue, &r.ServiceFeeEnabled, &r.ServiceFeePercentage,
			&r.TotalAmount, &r.PaymentMethod, &r.OpenedAt, &r.ClosedAt, &r.TableNumber); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const listLiveTableOrdersByTable = `
SELECT ` + tableOrderColumns + ` FROM table_orders
WHERE table_id = $1 AND status IN ('OPEN', 'REQUESTING_BILL')
ORDER BY opened_at`

// ListLiveTableOrdersByTable returns every open/requesting-bill order for one
// table. More than one row exists after the kitchen-split rule fires.
func (q *Queries) ListLiveTableOrdersByTable(ctx context.Context, tableID uuid.UUID) ([]TableOrder, error) {
	rows, err := q.db.Query(ctx, listLiveTableOrdersByTable, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TableOrder
	for rows.Next() {
		var o TableOrder
		if err := scanTableOrder(rows, &o); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const setTableOrderStatus = `
UPDATE table_orders SET status = $2 WHERE id = $1 AND status = $3
RETURNING ` + tableOrderColumns

type SetTableOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

// SetTableOrderStatus transitions an order's status with an optimistic guard
// on the expected current status. pgx.ErrNoRows means the precondition failed.
func (q *Queries) SetTableOrderStatus(ctx context.Context, arg SetTableOrderStatusParams) (TableOrder, error) {
	row := q.db.QueryRow(ctx, setTableOrderStatus, arg.ID, arg.Status, arg.FromStatus)
	var o TableOrder
	err := scanTableOrder(row, &o)
	return o, err
}

const closeTableOrder = `
UPDATE table_orders
SET status = $2,
	payment_method = $3,
	discount_type = $4,
	discount_value = $5,
	service_fee_enabled = $6,
	service_fee_percentage = $7,
	subtotal = $8,
	total_amount = $9,
	closed_at = now()
WHERE id = $1 AND status IN ('OPEN', 'REQUESTING_BILL')
RETURNING ` + tableOrderColumns

type CloseTableOrderParams struct {
	ID                   uuid.UUID
	Status               string
	PaymentMethod        pgtype.Text
	DiscountType         pgtype.Text
	DiscountValue        pgtype.Numeric
	ServiceFeeEnabled    bool
	ServiceFeePercentage pgtype.Numeric
	Subtotal             pgtype.Numeric
	TotalAmount          pgtype.Numeric
}

func (q *Queries) CloseTableOrder(ctx context.Context, arg CloseTableOrderParams) (TableOrder, error) {
	row := q.db.QueryRow(ctx, closeTableOrder,
		arg.ID, arg.Status, arg.PaymentMethod, arg.DiscountType, arg.DiscountValue,
		arg.ServiceFeeEnabled, arg.ServiceFeePercentage, arg.Subtotal, arg.TotalAmount)
	var o TableOrder
	err := scanTableOrder(row, &o)
	return o, err
}

const cancelTableOrder = `
UPDATE table_orders
SET status = 'CANCELLED', closed_at = now()
WHERE id = $1 AND status IN ('OPEN', 'REQUESTING_BILL')
RETURNING ` + tableOrderColumns

func (q *Queries) CancelTableOrder(ctx context.Context, id uuid.UUID) (TableOrder, error) {
	row := q.db.QueryRow(ctx, cancelTableOrder, id)
	var o TableOrder
	err := scanTableOrder(row, &o)
	return o, err
}

const forceTableOrderStatus = `
UPDATE table_orders SET status = $2,
	closed_at = CASE WHEN $2 IN ('PAID', 'CANCELLED') THEN now() ELSE NULL END
WHERE id = $1
RETURNING ` + tableOrderColumns

type ForceTableOrderStatusParams struct {
	ID     uuid.UUID
	Status string
}

// ForceTableOrderStatus sets the status with no state guard. The kanban
// board uses this path on purpose: drops into any column are a human
// override.
func (q *Queries) ForceTableOrderStatus(ctx context.Context, arg ForceTableOrderStatusParams) (TableOrder, error) {
	row := q.db.QueryRow(ctx, forceTableOrderStatus, arg.ID, arg.Status)
	var o TableOrder
	err := scanTableOrder(row, &o)
	return o, err
}

const updateTableOrderTotals = `
UPDATE table_orders SET subtotal = $2, total_amount = $3 WHERE id = $1
RETURNING ` + tableOrderColumns

type UpdateTableOrderTotalsParams struct {
	ID          uuid.UUID
	Subtotal    pgtype.Numeric
	TotalAmount pgtype.Numeric
}

func (q *Queries) UpdateTableOrderTotals(ctx context.Context, arg UpdateTableOrderTotalsParams) (TableOrder, error) {
	row := q.db.QueryRow(ctx, updateTableOrderTotals, arg.ID, arg.Subtotal, arg.TotalAmount)
	var o TableOrder
	err := scanTableOrder(row, &o)
	return o, err
}

const updateTableOrderTable = `
UPDATE table_orders SET table_id = $2 WHERE id = $1
RETURNING ` + tableOrderColumns

type UpdateTableOrderTableParams struct {
	ID      uuid.UUID
	TableID uuid.UUID
}

func (q *Queries) UpdateTableOrderTable(ctx context.Context, arg UpdateTableOrderTableParams) (TableOrder, error) {
	row := q.db.QueryRow(ctx, updateTableOrderTable, arg.ID, arg.TableID)
	var o TableOrder
	err := scanTableOrder(row, &o)
	return o, err
}
