package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/cardapio-pos/api/internal/billing"
	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
)

// Errors returned by the table session service.
var (
	ErrTableNotAvailable    = errors.New("table is not available")
	ErrTableNotOccupied     = errors.New("table has no active session")
	ErrNoOpenOrder          = errors.New("table has no open order")
	ErrOrderNotOpen         = errors.New("order is not open")
	ErrOrderClosed          = errors.New("order is already closed")
	ErrItemNotPending       = errors.New("item already sent to the kitchen")
	ErrItemFinal            = errors.New("item is already delivered or cancelled")
	ErrInvalidItemStatus    = errors.New("invalid item status")
	ErrInvalidOrderStatus   = errors.New("invalid order status")
	ErrInvalidItemTransition = errors.New("item status transition not allowed")
	ErrInvalidCustomerCount = errors.New("customer_count must be >= 1")
	ErrInvalidProductName   = errors.New("product_name is required")
	ErrInvalidUnitPrice     = errors.New("unit_price must be >= 0")
)

// SessionStore defines the DB methods needed by the table session manager.
// Satisfied by *database.Queries (and its WithTx variant).
type SessionStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.Table, error)
	RepointTableOrder(ctx context.Context, arg database.RepointTableOrderParams) (database.Table, error)
	SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) (database.Table, error)
	FreeTable(ctx context.Context, id uuid.UUID) (database.Table, error)

	CreateTableOrder(ctx context.Context, arg database.CreateTableOrderParams) (database.TableOrder, error)
	GetTableOrder(ctx context.Context, id uuid.UUID) (database.TableOrder, error)
	ListLiveTableOrdersByTable(ctx context.Context, tableID uuid.UUID) ([]database.TableOrder, error)
	SetTableOrderStatus(ctx context.Context, arg database.SetTableOrderStatusParams) (database.TableOrder, error)
	CloseTableOrder(ctx context.Context, arg database.CloseTableOrderParams) (database.TableOrder, error)
	CancelTableOrder(ctx context.Context, id uuid.UUID) (database.TableOrder, error)
	ForceTableOrderStatus(ctx context.Context, arg database.ForceTableOrderStatusParams) (database.TableOrder, error)
	UpdateTableOrderTotals(ctx context.Context, arg database.UpdateTableOrderTotalsParams) (database.TableOrder, error)
	UpdateTableOrderTable(ctx context.Context, arg database.UpdateTableOrderTableParams) (database.TableOrder, error)

	CreateTableOrderItem(ctx context.Context, arg database.CreateTableOrderItemParams) (database.TableOrderItem, error)
	GetTableOrderItem(ctx context.Context, id uuid.UUID) (database.TableOrderItem, error)
	ListTableOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.TableOrderItem, error)
	CountKitchenAcceptedItems(ctx context.Context, orderID uuid.UUID) (int64, error)
	UpdateTableOrderItemStatus(ctx context.Context, arg database.UpdateTableOrderItemStatusParams) (database.TableOrderItem, error)
	DeleteTableOrderItem(ctx context.Context, id uuid.UUID) (database.TableOrderItem, error)
}

// NewSessionStore creates a SessionStore from a DBTX (pool or tx).
type NewSessionStore func(db database.DBTX) SessionStore

// SessionService owns the lifecycle of tables and their dine-in orders.
// Every operation runs inside one transaction: the table row and its order
// rows are never left in a mismatched pairing by a half-applied sequence.
type SessionService struct {
	pool          TxBeginner
	newStore      NewSessionStore
	defaultFeePct decimal.Decimal
}

// NewSessionService creates a SessionService. defaultFeePct is the service
// fee percentage applied to new tabs (typically 10).
func NewSessionService(pool TxBeginner, newStore NewSessionStore, defaultFeePct decimal.Decimal) *SessionService {
	return &SessionService{pool: pool, newStore: newStore, defaultFeePct: defaultFeePct}
}

// withTx runs fn inside a transaction, committing on success.
func (s *SessionService) withTx(ctx context.Context, fn func(store SessionStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(s.newStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- Open table ---

type OpenTableRequest struct {
	TableID       uuid.UUID
	CustomerCount int32
	WaiterID      uuid.UUID // zero value means unknown waiter
	WaiterName    string
}

type OpenTableResult struct {
	Table database.Table
	Order database.TableOrder
}

// OpenTable starts a dine-in session: creates an OPEN order with zero totals
// and claims the table for it. The claim uses an optimistic
// WHERE status='AVAILABLE' guard, so of two waiters racing for the same
// table exactly one wins.
func (s *SessionService) OpenTable(ctx context.Context, req OpenTableRequest) (*OpenTableResult, error) {
	if req.CustomerCount < 1 {
		return nil, ErrInvalidCustomerCount
	}

	var result OpenTableResult
	err := s.withTx(ctx, func(store SessionStore) error {
		waiterID := pgtype.UUID{}
		if req.WaiterID != uuid.Nil {
			waiterID = pgtype.UUID{Bytes: req.WaiterID, Valid: true}
		}
		waiterName := pgtype.Text{}
		if req.WaiterName != "" {
			waiterName = pgtype.Text{String: req.WaiterName, Valid: true}
		}

		order, err := store.CreateTableOrder(ctx, database.CreateTableOrderParams{
			TableID:              req.TableID,
			CustomerCount:        req.CustomerCount,
			WaiterID:             waiterID,
			WaiterName:           waiterName,
			ServiceFeeEnabled:    true,
			ServiceFeePercentage: database.DecimalToNumeric(s.defaultFeePct),
		})
		if err != nil {
			return fmt.Errorf("create table order: %w", err)
		}

		table, err := store.OccupyTable(ctx, database.OccupyTableParams{
			ID:             req.TableID,
			CurrentOrderID: order.ID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTableNotAvailable
			}
			return fmt.Errorf("occupy table: %w", err)
		}

		result = OpenTableResult{Table: table, Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Add item (split rule) ---

type AddItemRequest struct {
	OrderID     uuid.UUID
	ProductID   uuid.UUID // zero value for off-menu items
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
	Observation string
}

type AddItemResult struct {
	Item            database.TableOrderItem
	Order           database.TableOrder
	CreatedNewOrder bool
}

// AddItem appends an item to a tab — unless the kitchen has already accepted
// part of that tab (any item PREPARING or READY), in which case the item goes
// onto a brand-new order for the same table, copying the original's party and
// billing settings. Mixing new items into a ticket the kitchen is cooking
// would corrupt its per-order grouping.
func (s *SessionService) AddItem(ctx context.Context, req AddItemRequest) (*AddItemResult, error) {
	if req.ProductName == "" {
		return nil, ErrInvalidProductName
	}
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if req.UnitPrice.IsNegative() {
		return nil, ErrInvalidUnitPrice
	}

	var result AddItemResult
	err := s.withTx(ctx, func(store SessionStore) error {
		order, err := store.GetTableOrder(ctx, req.OrderID)
		if err != nil {
			return fmt.Errorf("get table order: %w", err)
		}
		if order.Status != enum.TableOrderStatusOpen {
			return ErrOrderNotOpen
		}

		target := order
		accepted, err := store.CountKitchenAcceptedItems(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("count accepted items: %w", err)
		}
		if accepted > 0 {
			// Split: fresh order for the same table, same party and settings.
			target, err = store.CreateTableOrder(ctx, database.CreateTableOrderParams{
				TableID:              order.TableID,
				CustomerCount:        order.CustomerCount,
				WaiterID:             order.WaiterID,
				WaiterName:           order.WaiterName,
				DiscountType:         order.DiscountType,
				DiscountValue:        order.DiscountValue,
				ServiceFeeEnabled:    order.ServiceFeeEnabled,
				ServiceFeePercentage: order.ServiceFeePercentage,
			})
			if err != nil {
				return fmt.Errorf("create split order: %w", err)
			}
			if _, err := store.RepointTableOrder(ctx, database.RepointTableOrderParams{
				ID:             order.TableID,
				CurrentOrderID: target.ID,
			}); err != nil {
				return fmt.Errorf("repoint table: %w", err)
			}
			result.CreatedNewOrder = true
		}

		productID := pgtype.UUID{}
		if req.ProductID != uuid.Nil {
			productID = pgtype.UUID{Bytes: req.ProductID, Valid: true}
		}
		observation := pgtype.Text{}
		if req.Observation != "" {
			observation = pgtype.Text{String: req.Observation, Valid: true}
		}

		item, err := store.CreateTableOrderItem(ctx, database.CreateTableOrderItemParams{
			OrderID:     target.ID,
			ProductID:   productID,
			ProductName: req.ProductName,
			Quantity:    req.Quantity,
			UnitPrice:   database.DecimalToNumeric(req.UnitPrice),
			Observation: observation,
		})
		if err != nil {
			return fmt.Errorf("create item: %w", err)
		}

		updated, err := s.recomputeTotals(ctx, store, target.ID)
		if err != nil {
			return err
		}

		result.Item = item
		result.Order = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// recomputeTotals re-reads the order's items and billing settings and
// persists fresh denormalized totals. Always called on a read taken inside
// the same transaction as the mutation — never on a value captured earlier.
func (s *SessionService) recomputeTotals(ctx context.Context, store SessionStore, orderID uuid.UUID) (database.TableOrder, error) {
	order, err := store.GetTableOrder(ctx, orderID)
	if err != nil {
		return database.TableOrder{}, fmt.Errorf("get order for totals: %w", err)
	}
	items, err := store.ListTableOrderItems(ctx, orderID)
	if err != nil {
		return database.TableOrder{}, fmt.Errorf("list items for totals: %w", err)
	}

	totals := billing.Calculate(billing.LinesFromTableItems(items), billing.OptionsFromOrder(order))

	updated, err := store.UpdateTableOrderTotals(ctx, database.UpdateTableOrderTotalsParams{
		ID:          orderID,
		Subtotal:    database.DecimalToNumeric(totals.Subtotal),
		TotalAmount: database.DecimalToNumeric(totals.Total),
	})
	if err != nil {
		return database.TableOrder{}, fmt.Errorf("persist totals: %w", err)
	}
	return updated, nil
}

// --- Item status ---

// itemTransitions is the kitchen chain; any non-terminal state may also be
// cancelled.
var itemTransitions = map[string]string{
	enum.ItemStatusPending:   enum.ItemStatusPreparing,
	enum.ItemStatusPreparing: enum.ItemStatusReady,
	enum.ItemStatusReady:     enum.ItemStatusDelivered,
}

// UpdateItemStatus advances one item through the kitchen chain
// (PENDING→PREPARING→READY→DELIVERED) or cancels it from any non-terminal
// state. Cancelling recomputes the order's totals; DELIVERED stamps
// delivered_at. Item status is independent of order-level status.
func (s *SessionService) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status string) (database.TableOrderItem, error) {
	switch status {
	case enum.ItemStatusPreparing, enum.ItemStatusReady, enum.ItemStatusDelivered, enum.ItemStatusCancelled:
	default:
		return database.TableOrderItem{}, ErrInvalidItemStatus
	}

	var updated database.TableOrderItem
	err := s.withTx(ctx, func(store SessionStore) error {
		item, err := store.GetTableOrderItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}
		if item.Status == enum.ItemStatusDelivered || item.Status == enum.ItemStatusCancelled {
			return ErrItemFinal
		}
		if status != enum.ItemStatusCancelled && itemTransitions[item.Status] != status {
			return ErrInvalidItemTransition
		}

		updated, err = store.UpdateTableOrderItemStatus(ctx, database.UpdateTableOrderItemStatusParams{
			ID:     itemID,
			Status: status,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrItemFinal
			}
			return fmt.Errorf("update item status: %w", err)
		}

		if status == enum.ItemStatusCancelled {
			if _, err := s.recomputeTotals(ctx, store, updated.OrderID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return database.TableOrderItem{}, err
	}
	return updated, nil
}

// RemoveItem hard-deletes an item. Only allowed while the order is still
// OPEN and the item still PENDING; anything the kitchen has seen must be
// soft-cancelled through UpdateItemStatus instead.
func (s *SessionService) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	return s.withTx(ctx, func(store SessionStore) error {
		item, err := store.GetTableOrderItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}
		order, err := store.GetTableOrder(ctx, item.OrderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if order.Status != enum.TableOrderStatusOpen {
			return ErrOrderNotOpen
		}

		if _, err := store.DeleteTableOrderItem(ctx, itemID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrItemNotPending
			}
			return fmt.Errorf("delete item: %w", err)
		}

		_, err = s.recomputeTotals(ctx, store, item.OrderID)
		return err
	})
}

// --- Bill / close / cancel ---

// RequestBill moves the table's current order OPEN→REQUESTING_BILL and marks
// the table accordingly.
func (s *SessionService) RequestBill(ctx context.Context, tableID uuid.UUID) (database.TableOrder, error) {
	var order database.TableOrder
	err := s.withTx(ctx, func(store SessionStore) error {
		table, err := store.GetTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("get table: %w", err)
		}
		if !table.CurrentOrderID.Valid {
			return ErrNoOpenOrder
		}

		order, err = store.SetTableOrderStatus(ctx, database.SetTableOrderStatusParams{
			ID:         uuid.UUID(table.CurrentOrderID.Bytes),
			Status:     enum.TableOrderStatusRequestingBill,
			FromStatus: enum.TableOrderStatusOpen,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotOpen
			}
			return fmt.Errorf("set order status: %w", err)
		}

		if _, err := store.SetTableStatus(ctx, database.SetTableStatusParams{
			ID:     tableID,
			Status: enum.TableStatusRequestingBill,
		}); err != nil {
			return fmt.Errorf("set table status: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.TableOrder{}, err
	}
	return order, nil
}

type CloseTableRequest struct {
	PaymentMethod string
	// Optional final overrides. When nil, each order keeps the billing
	// settings it already carries (copied across splits).
	DiscountType         *string
	DiscountValue        *decimal.Decimal
	ServiceFeeEnabled    *bool
	ServiceFeePercentage *decimal.Decimal
}

type CloseTableResult struct {
	Table  database.Table
	Orders []database.TableOrder
	// Aggregate is the combined bill over every order's items (the split
	// rule can leave several orders on one table).
	Aggregate billing.Totals
	PerPerson decimal.Decimal
}

// CloseTable pays out a whole table: every OPEN/REQUESTING_BILL order on it
// goes PAID with totals recomputed from a fresh in-transaction item read —
// a stale client-side figure is never trusted — and the table is freed once.
func (s *SessionService) CloseTable(ctx context.Context, tableID uuid.UUID, req CloseTableRequest) (*CloseTableResult, error) {
	var result CloseTableResult
	err := s.withTx(ctx, func(store SessionStore) error {
		table, err := store.GetTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("get table: %w", err)
		}
		if table.Status == enum.TableStatusAvailable {
			return ErrTableNotOccupied
		}

		orders, err := store.ListLiveTableOrdersByTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("list live orders: %w", err)
		}
		if len(orders) == 0 {
			return ErrNoOpenOrder
		}

		payment := pgtype.Text{}
		if req.PaymentMethod != "" {
			payment = pgtype.Text{String: req.PaymentMethod, Valid: true}
		}

		var allLines []billing.Line
		var customerCount int32
		for _, order := range orders {
			opts := finalOptions(order, req)

			items, err := store.ListTableOrderItems(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("list items: %w", err)
			}
			lines := billing.LinesFromTableItems(items)
			allLines = append(allLines, lines...)
			if order.CustomerCount > customerCount {
				customerCount = order.CustomerCount
			}

			totals := billing.Calculate(lines, opts)

			discountType := pgtype.Text{}
			discountValue := pgtype.Numeric{}
			if opts.DiscountType != "" {
				discountType = pgtype.Text{String: opts.DiscountType, Valid: true}
				discountValue = database.DecimalToNumeric(opts.DiscountValue)
			}

			closed, err := store.CloseTableOrder(ctx, database.CloseTableOrderParams{
				ID:                   order.ID,
				Status:               enum.TableOrderStatusPaid,
				PaymentMethod:        payment,
				DiscountType:         discountType,
				DiscountValue:        discountValue,
				ServiceFeeEnabled:    opts.ServiceFeeEnabled,
				ServiceFeePercentage: database.DecimalToNumeric(opts.ServiceFeePercentage),
				Subtotal:             database.DecimalToNumeric(totals.Subtotal),
				TotalAmount:          database.DecimalToNumeric(totals.Total),
			})
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrOrderClosed
				}
				return fmt.Errorf("close order: %w", err)
			}
			result.Orders = append(result.Orders, closed)
		}

		// One combined bill: concatenate every order's items, then apply the
		// billing rules once, using the oldest order's (or overridden) settings.
		result.Aggregate = billing.Calculate(allLines, finalOptions(orders[0], req))
		result.PerPerson = billing.PerPerson(result.Aggregate.Total, customerCount)

		freed, err := store.FreeTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("free table: %w", err)
		}
		result.Table = freed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func finalOptions(order database.TableOrder, req CloseTableRequest) billing.Options {
	opts := billing.OptionsFromOrder(order)
	if req.DiscountType != nil {
		opts.DiscountType = *req.DiscountType
		if req.DiscountValue != nil {
			opts.DiscountValue = *req.DiscountValue
		}
	}
	if req.ServiceFeeEnabled != nil {
		opts.ServiceFeeEnabled = *req.ServiceFeeEnabled
	}
	if req.ServiceFeePercentage != nil {
		opts.ServiceFeePercentage = *req.ServiceFeePercentage
	}
	return opts
}

// CancelOrder cancels a single tab. The table is freed only when no other
// live order still points at it; with split orders in play, cancelling one
// leaves the table occupied by the rest.
func (s *SessionService) CancelOrder(ctx context.Context, orderID uuid.UUID) (database.TableOrder, error) {
	var cancelled database.TableOrder
	err := s.withTx(ctx, func(store SessionStore) error {
		var err error
		cancelled, err = store.CancelTableOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderClosed
			}
			return fmt.Errorf("cancel order: %w", err)
		}

		remaining, err := store.ListLiveTableOrdersByTable(ctx, cancelled.TableID)
		if err != nil {
			return fmt.Errorf("list live orders: %w", err)
		}
		if len(remaining) == 0 {
			if _, err := store.FreeTable(ctx, cancelled.TableID); err != nil {
				return fmt.Errorf("free table: %w", err)
			}
			return nil
		}

		// Keep the table pointing at a live order.
		table, err := store.GetTable(ctx, cancelled.TableID)
		if err != nil {
			return fmt.Errorf("get table: %w", err)
		}
		if table.CurrentOrderID.Valid && uuid.UUID(table.CurrentOrderID.Bytes) == orderID {
			latest := remaining[len(remaining)-1]
			if _, err := store.RepointTableOrder(ctx, database.RepointTableOrderParams{
				ID:             cancelled.TableID,
				CurrentOrderID: latest.ID,
			}); err != nil {
				return fmt.Errorf("repoint table: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return database.TableOrder{}, err
	}
	return cancelled, nil
}

// MoveTableOrder sets a dine-in order's status with no transition check (the
// kanban board's human-override path), then repairs the table pairing: a
// terminal order releases or repoints its table, a revived one reclaims it.
func (s *SessionService) MoveTableOrder(ctx context.Context, orderID uuid.UUID, status string) (database.TableOrder, error) {
	switch status {
	case enum.TableOrderStatusOpen, enum.TableOrderStatusRequestingBill,
		enum.TableOrderStatusPaid, enum.TableOrderStatusCancelled:
	default:
		return database.TableOrder{}, ErrInvalidOrderStatus
	}

	var moved database.TableOrder
	err := s.withTx(ctx, func(store SessionStore) error {
		var err error
		moved, err = store.ForceTableOrderStatus(ctx, database.ForceTableOrderStatusParams{
			ID:     orderID,
			Status: status,
		})
		if err != nil {
			return fmt.Errorf("force order status: %w", err)
		}

		if status == enum.TableOrderStatusPaid || status == enum.TableOrderStatusCancelled {
			remaining, err := store.ListLiveTableOrdersByTable(ctx, moved.TableID)
			if err != nil {
				return fmt.Errorf("list live orders: %w", err)
			}
			if len(remaining) == 0 {
				_, err = store.FreeTable(ctx, moved.TableID)
				return err
			}
			table, err := store.GetTable(ctx, moved.TableID)
			if err != nil {
				return fmt.Errorf("get table: %w", err)
			}
			if table.CurrentOrderID.Valid && uuid.UUID(table.CurrentOrderID.Bytes) == orderID {
				_, err = store.RepointTableOrder(ctx, database.RepointTableOrderParams{
					ID:             moved.TableID,
					CurrentOrderID: remaining[len(remaining)-1].ID,
				})
				return err
			}
			return nil
		}

		// Revived or still live: make sure the table claims it.
		_, err = store.RepointTableOrder(ctx, database.RepointTableOrderParams{
			ID:             moved.TableID,
			CurrentOrderID: orderID,
		})
		return err
	})
	if err != nil {
		return database.TableOrder{}, err
	}
	return moved, nil
}

// TransferTable moves one order to a different table. The destination must
// be AVAILABLE; the source is freed unless other live orders remain on it.
func (s *SessionService) TransferTable(ctx context.Context, orderID, destTableID uuid.UUID) (database.TableOrder, error) {
	var moved database.TableOrder
	err := s.withTx(ctx, func(store SessionStore) error {
		order, err := store.GetTableOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if order.Status != enum.TableOrderStatusOpen && order.Status != enum.TableOrderStatusRequestingBill {
			return ErrOrderClosed
		}

		if _, err := store.OccupyTable(ctx, database.OccupyTableParams{
			ID:             destTableID,
			CurrentOrderID: orderID,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTableNotAvailable
			}
			return fmt.Errorf("occupy destination: %w", err)
		}

		moved, err = store.UpdateTableOrderTable(ctx, database.UpdateTableOrderTableParams{
			ID:      orderID,
			TableID: destTableID,
		})
		if err != nil {
			return fmt.Errorf("move order: %w", err)
		}

		remaining, err := store.ListLiveTableOrdersByTable(ctx, order.TableID)
		if err != nil {
			return fmt.Errorf("list source orders: %w", err)
		}
		if len(remaining) == 0 {
			if _, err := store.FreeTable(ctx, order.TableID); err != nil {
				return fmt.Errorf("free source table: %w", err)
			}
		} else {
			if _, err := store.RepointTableOrder(ctx, database.RepointTableOrderParams{
				ID:             order.TableID,
				CurrentOrderID: remaining[len(remaining)-1].ID,
			}); err != nil {
				return fmt.Errorf("repoint source table: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return database.TableOrder{}, err
	}
	return moved, nil
}
