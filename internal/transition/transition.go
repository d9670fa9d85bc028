// Package transition owns the per-family status advance tables that drive
// the manual "advance" buttons on the kitchen and admin boards.
package transition

import "github.com/cardapio-pos/api/internal/enum"

// Family distinguishes the two order shapes sharing the unified board.
type Family string

const (
	FamilyDelivery Family = "DELIVERY"
	FamilyTable    Family = "TABLE"
)

type step struct {
	next  string
	label string
}

// Delivery orders advance PENDING→PREPARING→READY by button; DELIVERY and
// COMPLETED are driven by the driver-assignment flow, not by this table.
var deliverySteps = map[string]step{
	enum.OrderStatusPending:   {enum.OrderStatusPreparing, "Start preparing"},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, "Mark ready"},
}

// Table orders, expressed in the unified vocabulary, advance all the way to
// COMPLETED: READY here means the bill was requested.
var tableSteps = map[string]step{
	enum.OrderStatusPending:   {enum.OrderStatusPreparing, "Start preparing"},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, "Request bill"},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted, "Close table"},
}

// Next returns the single advance step from current, with the button label
// for it. ok is false when there is no manual advance (the button goes inert).
func Next(f Family, current string) (next, label string, ok bool) {
	var s step
	switch f {
	case FamilyDelivery:
		s, ok = deliverySteps[current]
	case FamilyTable:
		s, ok = tableSteps[current]
	}
	if !ok {
		return "", "", false
	}
	return s.next, s.label, true
}

// ValidStatus reports whether s is a status either family can display.
// The kanban move endpoint accepts any of these, including jumps the advance
// table would not make: board drops are a deliberate human override.
func ValidStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusDelivery, enum.OrderStatusCompleted, enum.OrderStatusCancelled:
		return true
	}
	return false
}
