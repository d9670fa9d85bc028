package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Table is a physical dining table. CurrentOrderID is non-null iff
// Status != AVAILABLE; the session service maintains that pairing.
type Table struct {
	ID             uuid.UUID
	Number         int32
	Name           pgtype.Text
	Capacity       int32
	Status         string
	CurrentOrderID pgtype.UUID
	CreatedAt      time.Time
}

// TableOrder is one dine-in tab. Subtotal and TotalAmount are denormalized
// caches of the billing calculation over the order's non-cancelled items.
type TableOrder struct {
	ID                   uuid.UUID
	TableID              uuid.UUID
	Status               string
	CustomerCount        int32
	WaiterID             pgtype.UUID
	WaiterName           pgtype.Text
	Subtotal             pgtype.Numeric
	DiscountType         pgtype.Text
	DiscountValue        pgtype.Numeric
	ServiceFeeEnabled    bool
	ServiceFeePercentage pgtype.Numeric
	TotalAmount          pgtype.Numeric
	PaymentMethod        pgtype.Text
	OpenedAt             time.Time
	ClosedAt             pgtype.Timestamptz
}

// TableOrderItem is one ordered line within a tab. It carries its own
// kitchen status; delivery order items do not.
type TableOrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   pgtype.UUID
	ProductName string
	Quantity    int32
	UnitPrice   pgtype.Numeric
	Observation pgtype.Text
	Status      string
	OrderedAt   time.Time
	DeliveredAt pgtype.Timestamptz
}

// Order is a delivery/pickup order with a strictly linear status flow.
type Order struct {
	ID            uuid.UUID
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
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   pgtype.Numeric
	Observation pgtype.Text
}

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
