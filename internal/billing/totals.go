// Package billing computes order totals. Every function here is pure: the
// checkout preview and the amount persisted on close run the same code over
// the same inputs, so they cannot disagree.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
)

var hundred = decimal.NewFromInt(100)

// Line is one billable order line.
type Line struct {
	Quantity  int32
	UnitPrice decimal.Decimal
}

// Options are the billing settings of one order (or of an aggregated bill).
type Options struct {
	DiscountType         string // enum.DiscountTypeValue or DiscountTypePercentage; "" for none
	DiscountValue        decimal.Decimal
	ServiceFeeEnabled    bool
	ServiceFeePercentage decimal.Decimal
}

// Totals is the full breakdown shown at checkout and persisted on close.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	AfterDiscount  decimal.Decimal
	ServiceFee     decimal.Decimal
	Total          decimal.Decimal
}

// Calculate produces the bill breakdown for a set of lines. Inputs are
// assumed pre-validated at the boundary (quantity >= 1, discount >= 0,
// percentage within [0,100]); this function only clamps AfterDiscount so a
// discount larger than the subtotal can never produce a negative bill.
func Calculate(lines []Line, opts Options) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity)))
	}

	discount := decimal.Zero
	switch opts.DiscountType {
	case enum.DiscountTypeValue:
		discount = opts.DiscountValue
	case enum.DiscountTypePercentage:
		discount = subtotal.Mul(opts.DiscountValue).Div(hundred)
	}

	afterDiscount := subtotal.Sub(discount)
	if afterDiscount.IsNegative() {
		afterDiscount = decimal.Zero
	}

	serviceFee := decimal.Zero
	if opts.ServiceFeeEnabled {
		serviceFee = afterDiscount.Mul(opts.ServiceFeePercentage).Div(hundred)
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		AfterDiscount:  afterDiscount,
		ServiceFee:     serviceFee,
		Total:          afterDiscount.Add(serviceFee),
	}
}

// PerPerson splits a total across the party. Display-only, never persisted.
func PerPerson(total decimal.Decimal, customerCount int32) decimal.Decimal {
	if customerCount <= 1 {
		return total
	}
	return total.DivRound(decimal.NewFromInt32(customerCount), 2)
}

// LinesFromTableItems projects dine-in items into billable lines, excluding
// cancelled items. Delivered items still count: the customer pays for them.
func LinesFromTableItems(items []database.TableOrderItem) []Line {
	var lines []Line
	for _, it := range items {
		if it.Status == enum.ItemStatusCancelled {
			continue
		}
		lines = append(lines, Line{
			Quantity:  it.Quantity,
			UnitPrice: database.NumericToDecimal(it.UnitPrice),
		})
	}
	return lines
}

// OptionsFromOrder reads an order's persisted billing settings.
func OptionsFromOrder(o database.TableOrder) Options {
	opts := Options{
		ServiceFeeEnabled:    o.ServiceFeeEnabled,
		ServiceFeePercentage: database.NumericToDecimal(o.ServiceFeePercentage),
	}
	if o.DiscountType.Valid {
		opts.DiscountType = o.DiscountType.String
		opts.DiscountValue = database.NumericToDecimal(o.DiscountValue)
	}
	return opts
}
