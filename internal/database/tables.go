package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, number, name, capacity, status, current_order_id, created_at`

func scanTable(row interface{ Scan(dest ...any) error }, t *Table) error {
	return row.Scan(&t.ID, &t.Number, &t.Name, &t.Capacity, &t.Status, &t.CurrentOrderID, &t.CreatedAt)
}

const createTable = `
INSERT INTO tables (number, name, capacity)
VALUES ($1, $2, $3)
RETURNING ` + tableColumns

type CreateTableParams struct {
	Number   int32
	Name     pgtype.Text
	Capacity int32
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, createTable, arg.Number, arg.Name, arg.Capacity)
	var t Table
	err := scanTable(row, &t)
	return t, err
}

const getTable = `
SELECT ` + tableColumns + ` FROM tables WHERE id = $1`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, getTable, id)
	var t Table
	err := scanTable(row, &t)
	return t, err
}

const listTables = `
SELECT ` + tableColumns + ` FROM tables ORDER BY number`

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Table
	for rows.Next() {
		var t Table
		if err := scanTable(rows, &t); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const occupyTable = `
UPDATE tables
SET status = 'OCCUPIED', current_order_id = $2
WHERE id = $1 AND status = 'AVAILABLE'
RETURNING ` + tableColumns

type OccupyTableParams struct {
	ID             uuid.UUID
	CurrentOrderID uuid.UUID
}

// OccupyTable claims an available table. Returns pgx.ErrNoRows when the
// table is not AVAILABLE, which makes concurrent opens lose cleanly.
func (q *Queries) OccupyTable(ctx context.Context, arg OccupyTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, occupyTable, arg.ID, arg.CurrentOrderID)
	var t Table
	err := scanTable(row, &t)
	return t, err
}

const repointTableOrder = `
UPDATE tables
SET status = 'OCCUPIED', current_order_id = $2
WHERE id = $1
RETURNING ` + tableColumns

type RepointTableOrderParams struct {
	ID             uuid.UUID
	CurrentOrderID uuid.UUID
}

func (q *Queries) RepointTableOrder(ctx context.Context, arg RepointTableOrderParams) (Table, error) {
	row := q.db.QueryRow(ctx, repointTableOrder, arg.ID, arg.CurrentOrderID)
	var t Table
	err := scanTable(row, &t)
	return t, err
}

const setTableStatus = `
UPDATE tables SET status = $2 WHERE id = $1
RETURNING ` + tableColumns

type SetTableStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) SetTableStatus(ctx context.Context, arg SetTableStatusParams) (Table, error) {
	row := q.db.QueryRow(ctx, setTableStatus, arg.ID, arg.Status)
	var t Table
	err := scanTable(row, &t)
	return t, err
}

const freeTable = `
UPDATE tables SET status = 'AVAILABLE', current_order_id = NULL
WHERE id = $1
RETURNING ` + tableColumns

func (q *Queries) FreeTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, freeTable, id)
	var t Table
	err := scanTable(row, &t)
	return t, err
}
