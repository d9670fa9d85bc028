// Package unified projects the two order families — delivery/pickup orders
// and dine-in table orders — into one shape with one status vocabulary for
// the shared kitchen and admin kanban boards.
package unified

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
)

// Order type tags. The projection is a tagged union: exactly one of the
// Delivery/Table field groups is populated, matching Type.
const (
	TypeDelivery = "delivery"
	TypeTable    = "table"
)

// Order is the read-only merged projection. Derived on every read, never
// persisted.
type Order struct {
	Type        string    `json:"type"`
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"` // delivery vocabulary for both families
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`

	// Delivery-only fields.
	OrderNumber  string `json:"order_number,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Address      string `json:"address,omitempty"`

	// Table-only fields.
	TableNumber   int32  `json:"table_number,omitempty"`
	WaiterName    string `json:"waiter_name,omitempty"`
	CustomerCount int32  `json:"customer_count,omitempty"`
}

// FromTableStatus maps a table-order status into the unified vocabulary.
func FromTableStatus(s string) string {
	switch s {
	case enum.TableOrderStatusOpen:
		return enum.OrderStatusPending
	case enum.TableOrderStatusRequestingBill:
		return enum.OrderStatusReady
	case enum.TableOrderStatusPaid:
		return enum.OrderStatusCompleted
	case enum.TableOrderStatusCancelled:
		return enum.OrderStatusCancelled
	}
	return enum.OrderStatusPending
}

// ToTableStatus maps a unified status back to a table-order status. The
// round trip is lossy on purpose: five delivery states compress onto four
// table states, so PREPARING and DELIVERY collapse to OPEN. The kanban UI
// never offers those columns for table cards, but the mapping stays total.
func ToTableStatus(unified string) string {
	switch unified {
	case enum.OrderStatusCompleted:
		return enum.TableOrderStatusPaid
	case enum.OrderStatusCancelled:
		return enum.TableOrderStatusCancelled
	case enum.OrderStatusReady:
		return enum.TableOrderStatusRequestingBill
	}
	return enum.TableOrderStatusOpen
}

// Project merges delivery orders with live table orders (paid and cancelled
// tabs never reach the board) and sorts by creation time descending. Callers
// pass table rows already filtered to OPEN/REQUESTING_BILL by the query; any
// terminal row that slips through is dropped here as well.
func Project(deliveries []database.Order, tables []database.ListLiveTableOrdersRow) []Order {
	out := make([]Order, 0, len(deliveries)+len(tables))

	for _, o := range deliveries {
		out = append(out, fromDelivery(o))
	}
	for _, o := range tables {
		if o.Status != enum.TableOrderStatusOpen && o.Status != enum.TableOrderStatusRequestingBill {
			continue
		}
		out = append(out, fromTable(o))
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

func fromDelivery(o database.Order) Order {
	u := Order{
		Type:         TypeDelivery,
		ID:           o.ID,
		Status:       o.Status,
		TotalAmount:  database.NumericToDecimal(o.TotalAmount).StringFixed(2),
		CreatedAt:    o.CreatedAt,
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
	}
	u.Address = formatAddress(o)
	return u
}

func fromTable(o database.ListLiveTableOrdersRow) Order {
	u := Order{
		Type:          TypeTable,
		ID:            o.ID,
		Status:        FromTableStatus(o.Status),
		TotalAmount:   database.NumericToDecimal(o.TotalAmount).StringFixed(2),
		CreatedAt:     o.OpenedAt,
		TableNumber:   o.TableNumber,
		CustomerCount: o.CustomerCount,
	}
	if o.WaiterName.Valid {
		u.WaiterName = o.WaiterName.String
	}
	return u
}

func formatAddress(o database.Order) string {
	if !o.Street.Valid {
		return ""
	}
	addr := o.Street.String
	if o.Number.Valid {
		addr += ", " + o.Number.String
	}
	if o.Neighborhood.Valid {
		addr += " - " + o.Neighborhood.String
	}
	return addr
}
