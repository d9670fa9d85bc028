package unified

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
)

func deliveryOrder(status string, createdAt time.Time) database.Order {
	return database.Order{
		ID:           uuid.New(),
		OrderNumber:  "PED-001",
		OrderType:    enum.OrderTypeDelivery,
		CustomerName: "Ana",
		Street:       pgtype.Text{String: "Rua das Flores", Valid: true},
		Number:       pgtype.Text{String: "120", Valid: true},
		Status:       status,
		TotalAmount:  database.DecimalToNumeric(decimal.NewFromInt(50)),
		CreatedAt:    createdAt,
	}
}

func tableRow(status string, openedAt time.Time) database.ListLiveTableOrdersRow {
	return database.ListLiveTableOrdersRow{
		TableOrder: database.TableOrder{
			ID:            uuid.New(),
			Status:        status,
			CustomerCount: 3,
			WaiterName:    pgtype.Text{String: "Carlos", Valid: true},
			TotalAmount:   database.DecimalToNumeric(decimal.NewFromInt(80)),
			OpenedAt:      openedAt,
		},
		TableNumber: 4,
	}
}

func TestFromTableStatus(t *testing.T) {
	cases := map[string]string{
		enum.TableOrderStatusOpen:           enum.OrderStatusPending,
		enum.TableOrderStatusRequestingBill: enum.OrderStatusReady,
		enum.TableOrderStatusPaid:           enum.OrderStatusCompleted,
		enum.TableOrderStatusCancelled:      enum.OrderStatusCancelled,
	}
	for in, want := range cases {
		if got := FromTableStatus(in); got != want {
			t.Errorf("FromTableStatus(%s): got %s, want %s", in, got, want)
		}
	}
}

// REQUESTING_BILL survives the round trip; PREPARING does not — it collapses
// to OPEN. The asymmetry is deliberate and asserted here so it cannot be
// "fixed" by accident.
func TestStatusMapping_LossyRoundTrip(t *testing.T) {
	if got := ToTableStatus(FromTableStatus(enum.TableOrderStatusRequestingBill)); got != enum.TableOrderStatusRequestingBill {
		t.Errorf("REQUESTING_BILL round trip: got %s", got)
	}

	if got := ToTableStatus(enum.OrderStatusPreparing); got != enum.TableOrderStatusOpen {
		t.Errorf("PREPARING should collapse to OPEN, got %s", got)
	}
	if got := ToTableStatus(enum.OrderStatusDelivery); got != enum.TableOrderStatusOpen {
		t.Errorf("DELIVERY should collapse to OPEN, got %s", got)
	}
	if got := ToTableStatus(enum.OrderStatusCompleted); got != enum.TableOrderStatusPaid {
		t.Errorf("COMPLETED: got %s, want PAID", got)
	}
	if got := ToTableStatus(enum.OrderStatusCancelled); got != enum.TableOrderStatusCancelled {
		t.Errorf("CANCELLED: got %s, want CANCELLED", got)
	}
}

func TestProject_MergesAndSortsNewestFirst(t *testing.T) {
	now := time.Now()
	d := deliveryOrder(enum.OrderStatusPending, now.Add(-2*time.Minute))
	tr := tableRow(enum.TableOrderStatusOpen, now)

	got := Project([]database.Order{d}, []database.ListLiveTableOrdersRow{tr})
	if len(got) != 2 {
		t.Fatalf("got %d orders, want 2", len(got))
	}
	if got[0].Type != TypeTable || got[1].Type != TypeDelivery {
		t.Errorf("expected newest (table) first, got %s then %s", got[0].Type, got[1].Type)
	}
}

func TestProject_TableFieldsAndStatusTranslation(t *testing.T) {
	got := Project(nil, []database.ListLiveTableOrdersRow{tableRow(enum.TableOrderStatusRequestingBill, time.Now())})
	if len(got) != 1 {
		t.Fatalf("got %d orders, want 1", len(got))
	}
	u := got[0]
	if u.Status != enum.OrderStatusReady {
		t.Errorf("status: got %s, want READY", u.Status)
	}
	if u.TableNumber != 4 || u.WaiterName != "Carlos" || u.CustomerCount != 3 {
		t.Errorf("table fields lost: %+v", u)
	}
	if u.TotalAmount != "80.00" {
		t.Errorf("total: got %s, want 80.00", u.TotalAmount)
	}
	if u.CustomerName != "" || u.Address != "" {
		t.Errorf("delivery fields should be empty on a table card: %+v", u)
	}
}

func TestProject_DeliveryFields(t *testing.T) {
	got := Project([]database.Order{deliveryOrder(enum.OrderStatusPreparing, time.Now())}, nil)
	u := got[0]
	if u.Status != enum.OrderStatusPreparing {
		t.Errorf("delivery status passes through unchanged, got %s", u.Status)
	}
	if u.Address != "Rua das Flores, 120" {
		t.Errorf("address: got %q", u.Address)
	}
	if u.TableNumber != 0 || u.WaiterName != "" {
		t.Errorf("table fields should be empty on a delivery card: %+v", u)
	}
}

// Terminal tabs never reach the live board even if a stale row slips past
// the query filter.
func TestProject_DropsTerminalTableOrders(t *testing.T) {
	got := Project(nil, []database.ListLiveTableOrdersRow{
		tableRow(enum.TableOrderStatusPaid, time.Now()),
		tableRow(enum.TableOrderStatusCancelled, time.Now()),
		tableRow(enum.TableOrderStatusOpen, time.Now()),
	})
	if len(got) != 1 {
		t.Fatalf("got %d orders, want 1 (only the open tab)", len(got))
	}
	if got[0].Status != enum.OrderStatusPending {
		t.Errorf("surviving card status: got %s", got[0].Status)
	}
}
