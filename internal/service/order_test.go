package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/cardapio-pos/api/internal/database"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error          { return m.commitErr }
func (m *mockTx) Rollback(ctx context.Context) error        { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	getNextOrderNumberFn func(ctx context.Context) (int32, error)
	createOrderFn        func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn    func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

func (m *mockOrderStore) GetNextOrderNumber(ctx context.Context) (int32, error) {
	return m.getNextOrderNumberFn(ctx)
}
func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := database.NumericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

// newTestService creates an OrderService with mocked dependencies.
func newTestService(store *mockOrderStore) (*OrderService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) OrderStore { return store }
	return NewOrderService(pool, newStore), tx
}

// defaultOrderStore returns a mockOrderStore with sensible defaults.
// Individual tests override the functions they care about.
func defaultOrderStore() *mockOrderStore {
	return &mockOrderStore{
		getNextOrderNumberFn: func(ctx context.Context) (int32, error) {
			return 1, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{
				ID:          uuid.New(),
				OrderNumber: arg.OrderNumber,
				OrderType:   arg.OrderType,
				Status:      arg.Status,
				Subtotal:    arg.Subtotal,
				TotalAmount: arg.TotalAmount,
			}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			return database.OrderItem{
				ID:          uuid.New(),
				OrderID:     arg.OrderID,
				ProductName: arg.ProductName,
				Quantity:    arg.Quantity,
				UnitPrice:   arg.UnitPrice,
			}, nil
		},
	}
}

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		OrderType:    "DELIVERY",
		CustomerName: "Maria Souza",
		Street:       "Rua das Flores",
		Number:       "123",
		Items: []CreateOrderItemRequest{
			{ProductName: "X-Burger", Quantity: 2, UnitPrice: "25.00"},
		},
	}
}

// --- Tests ---

func TestCreateOrder_Validation(t *testing.T) {
	svc, _ := newTestService(defaultOrderStore())

	tests := []struct {
		name    string
		mutate  func(r *CreateOrderRequest)
		wantErr error
	}{
		{"bad order type", func(r *CreateOrderRequest) { r.OrderType = "DINE_IN" }, ErrInvalidOrderType},
		{"missing customer", func(r *CreateOrderRequest) { r.CustomerName = "" }, ErrCustomerNameRequired},
		{"no items", func(r *CreateOrderRequest) { r.Items = nil }, ErrEmptyItems},
		{"delivery without address", func(r *CreateOrderRequest) { r.Street = "" }, ErrAddressRequired},
		{"bad discount type", func(r *CreateOrderRequest) { r.DiscountType = "COUPON" }, ErrInvalidDiscount},
		{"negative discount", func(r *CreateOrderRequest) {
			r.DiscountType = "VALUE"
			r.DiscountValue = "-5"
		}, ErrInvalidDiscountValue},
		{"percentage discount over 100", func(r *CreateOrderRequest) {
			r.DiscountType = "PERCENTAGE"
			r.DiscountValue = "150"
		}, ErrInvalidDiscountValue},
		{"zero quantity", func(r *CreateOrderRequest) { r.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"negative price", func(r *CreateOrderRequest) { r.Items[0].UnitPrice = "-1" }, ErrInvalidUnitPrice},
		{"unnamed item", func(r *CreateOrderRequest) { r.Items[0].ProductName = "" }, ErrInvalidProductName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.CreateOrder(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateOrder_PickupNeedsNoAddress(t *testing.T) {
	svc, _ := newTestService(defaultOrderStore())

	req := validRequest()
	req.OrderType = "PICKUP"
	req.Street = ""
	req.Number = ""

	if _, err := svc.CreateOrder(context.Background(), req); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
}

func TestCreateOrder_Totals(t *testing.T) {
	var captured database.CreateOrderParams
	store := defaultOrderStore()
	base := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		captured = arg
		return base(ctx, arg)
	}
	svc, _ := newTestService(store)

	req := validRequest()
	req.DeliveryFee = "8.00"
	req.DiscountType = "PERCENTAGE"
	req.DiscountValue = "10"

	result, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// 2 x 25.00 = 50.00, -10% = 45.00, +8.00 fee = 53.00
	if !numericEquals(captured.Subtotal, "50.00") {
		t.Errorf("subtotal = %v, want 50.00", database.NumericToDecimal(captured.Subtotal))
	}
	if !numericEquals(captured.TotalAmount, "53.00") {
		t.Errorf("total = %v, want 53.00", database.NumericToDecimal(captured.TotalAmount))
	}
	if captured.Status != "PENDING" {
		t.Errorf("status = %q, want PENDING", captured.Status)
	}
	if result.Order.OrderNumber != "PED-001" {
		t.Errorf("order number = %q, want PED-001", result.Order.OrderNumber)
	}
	if len(result.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(result.Items))
	}
}

func TestCreateOrder_ValueDiscountClamp(t *testing.T) {
	var captured database.CreateOrderParams
	store := defaultOrderStore()
	base := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		captured = arg
		return base(ctx, arg)
	}
	svc, _ := newTestService(store)

	req := validRequest()
	req.DiscountType = "VALUE"
	req.DiscountValue = "999.00"

	if _, err := svc.CreateOrder(context.Background(), req); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	// Discount exceeds the subtotal: total floors at zero, not negative.
	if !numericEquals(captured.TotalAmount, "0") {
		t.Errorf("total = %v, want 0", database.NumericToDecimal(captured.TotalAmount))
	}
}

func TestCreateOrder_RetriesOnNumberConflict(t *testing.T) {
	conflict := &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}

	calls := 0
	store := defaultOrderStore()
	base := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		calls++
		if calls < 3 {
			return database.Order{}, conflict
		}
		return base(ctx, arg)
	}
	svc, _ := newTestService(store)

	if _, err := svc.CreateOrder(context.Background(), validRequest()); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if calls != 3 {
		t.Errorf("createOrder called %d times, want 3", calls)
	}
}

func TestCreateOrder_GivesUpAfterMaxRetries(t *testing.T) {
	conflict := &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}

	store := defaultOrderStore()
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		return database.Order{}, conflict
	}
	svc, _ := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "23505") {
		t.Fatalf("got %v, want unique violation after retries", err)
	}
}

func TestCreateOrder_CommitError(t *testing.T) {
	svc, tx := newTestService(defaultOrderStore())
	tx.commitErr = errors.New("connection lost")

	_, err := svc.CreateOrder(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "commit tx") {
		t.Fatalf("got %v, want commit error", err)
	}
}
