package enum

// ── Group A: State machines (CHECK constrained in DB) ──

// Table occupancy states.
const (
	TableStatusAvailable      = "AVAILABLE"
	TableStatusOccupied       = "OCCUPIED"
	TableStatusRequestingBill = "REQUESTING_BILL"
)

// Dine-in tab states.
const (
	TableOrderStatusOpen           = "OPEN"
	TableOrderStatusRequestingBill = "REQUESTING_BILL"
	TableOrderStatusPaid           = "PAID"
	TableOrderStatusCancelled      = "CANCELLED"
)

// Per-item kitchen states (dine-in only; delivery items carry no status).
const (
	ItemStatusPending   = "PENDING"
	ItemStatusPreparing = "PREPARING"
	ItemStatusReady     = "READY"
	ItemStatusDelivered = "DELIVERED"
	ItemStatusCancelled = "CANCELLED"
)

// Delivery/pickup order states. This vocabulary doubles as the unified
// status set shown on the shared kanban board.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusDelivery  = "DELIVERY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// ── Group B: Borderline (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleWaiter  = "WAITER"
	UserRoleKitchen = "KITCHEN"
)

const (
	OrderTypeDelivery = "DELIVERY"
	OrderTypePickup   = "PICKUP"
)

// ── Group C: Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash = "CASH"
	PaymentMethodCard = "CARD"
	PaymentMethodPix  = "PIX"
)

const (
	DiscountTypeValue      = "VALUE"
	DiscountTypePercentage = "PERCENTAGE"
)
