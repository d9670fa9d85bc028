package billing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s: got %s, want %s", name, got.String(), want)
	}
}

// Two items at R$10.00 with the default 10% service fee.
func TestCalculate_ServiceFeeNoDiscount(t *testing.T) {
	got := Calculate(
		[]Line{{Quantity: 2, UnitPrice: dec("10.00")}},
		Options{ServiceFeeEnabled: true, ServiceFeePercentage: dec("10")},
	)

	assertDecimal(t, "subtotal", got.Subtotal, "20.00")
	assertDecimal(t, "discount", got.DiscountAmount, "0")
	assertDecimal(t, "service fee", got.ServiceFee, "2.00")
	assertDecimal(t, "total", got.Total, "22.00")
}

// Same order with a 10% percentage discount applied before the fee.
func TestCalculate_PercentageDiscount(t *testing.T) {
	got := Calculate(
		[]Line{{Quantity: 2, UnitPrice: dec("10.00")}},
		Options{
			DiscountType:         enum.DiscountTypePercentage,
			DiscountValue:        dec("10"),
			ServiceFeeEnabled:    true,
			ServiceFeePercentage: dec("10"),
		},
	)

	assertDecimal(t, "discount", got.DiscountAmount, "2.00")
	assertDecimal(t, "after discount", got.AfterDiscount, "18.00")
	assertDecimal(t, "service fee", got.ServiceFee, "1.80")
	assertDecimal(t, "total", got.Total, "19.80")
}

func TestCalculate_ValueDiscount(t *testing.T) {
	got := Calculate(
		[]Line{{Quantity: 3, UnitPrice: dec("15.50")}},
		Options{DiscountType: enum.DiscountTypeValue, DiscountValue: dec("6.50")},
	)

	assertDecimal(t, "subtotal", got.Subtotal, "46.50")
	assertDecimal(t, "after discount", got.AfterDiscount, "40.00")
	assertDecimal(t, "total", got.Total, "40.00")
}

func TestCalculate_DiscountLargerThanSubtotalClampsToZero(t *testing.T) {
	got := Calculate(
		[]Line{{Quantity: 1, UnitPrice: dec("25.00")}},
		Options{
			DiscountType:         enum.DiscountTypeValue,
			DiscountValue:        dec("999.00"),
			ServiceFeeEnabled:    true,
			ServiceFeePercentage: dec("10"),
		},
	)

	assertDecimal(t, "after discount", got.AfterDiscount, "0")
	assertDecimal(t, "service fee", got.ServiceFee, "0")
	assertDecimal(t, "total", got.Total, "0")
}

func TestCalculate_FeeDisabled(t *testing.T) {
	got := Calculate(
		[]Line{{Quantity: 2, UnitPrice: dec("10.00")}},
		Options{ServiceFeePercentage: dec("10")}, // enabled flag off
	)
	assertDecimal(t, "service fee", got.ServiceFee, "0")
	assertDecimal(t, "total", got.Total, "20.00")
}

func TestCalculate_NoLines(t *testing.T) {
	got := Calculate(nil, Options{ServiceFeeEnabled: true, ServiceFeePercentage: dec("10")})
	assertDecimal(t, "subtotal", got.Subtotal, "0")
	assertDecimal(t, "total", got.Total, "0")
}

// Same inputs twice must yield identical output: nothing in the calculator
// may hold hidden state.
func TestCalculate_Idempotent(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitPrice: dec("10.00")},
		{Quantity: 1, UnitPrice: dec("7.25")},
	}
	opts := Options{
		DiscountType:         enum.DiscountTypePercentage,
		DiscountValue:        dec("15"),
		ServiceFeeEnabled:    true,
		ServiceFeePercentage: dec("10"),
	}

	first := Calculate(lines, opts)
	second := Calculate(lines, opts)

	if !first.Total.Equal(second.Total) || !first.Subtotal.Equal(second.Subtotal) ||
		!first.DiscountAmount.Equal(second.DiscountAmount) || !first.ServiceFee.Equal(second.ServiceFee) {
		t.Errorf("two runs disagree: %+v vs %+v", first, second)
	}
}

func TestPerPerson(t *testing.T) {
	assertDecimal(t, "split by 4", PerPerson(dec("100.00"), 4), "25.00")
	assertDecimal(t, "split by 3 rounds", PerPerson(dec("10.00"), 3), "3.33")
	assertDecimal(t, "single customer", PerPerson(dec("42.00"), 1), "42.00")
	assertDecimal(t, "zero customers", PerPerson(dec("42.00"), 0), "42.00")
}

func TestLinesFromTableItems_ExcludesCancelled(t *testing.T) {
	items := []database.TableOrderItem{
		{Quantity: 2, UnitPrice: database.DecimalToNumeric(dec("10.00")), Status: enum.ItemStatusPending},
		{Quantity: 1, UnitPrice: database.DecimalToNumeric(dec("99.00")), Status: enum.ItemStatusCancelled},
		{Quantity: 1, UnitPrice: database.DecimalToNumeric(dec("5.00")), Status: enum.ItemStatusDelivered},
	}

	without := Calculate(LinesFromTableItems(items), Options{})
	assertDecimal(t, "subtotal excludes cancelled", without.Subtotal, "25.00")

	// Adding another cancelled item must not move the subtotal.
	items = append(items, database.TableOrderItem{
		Quantity: 5, UnitPrice: database.DecimalToNumeric(dec("50.00")), Status: enum.ItemStatusCancelled,
	})
	with := Calculate(LinesFromTableItems(items), Options{})
	if !with.Subtotal.Equal(without.Subtotal) {
		t.Errorf("cancelled item changed subtotal: %s vs %s", with.Subtotal, without.Subtotal)
	}
}
