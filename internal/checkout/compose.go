package checkout

import "github.com/shopspring/decimal"

// Totals is the composed order breakdown. Every field is already rounded to
// two decimal places, so Total = Subtotal + ShippingCost + VATAmount -
// CreditApplied holds exactly over the stored values.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	CreditApplied decimal.Decimal `json:"credit_applied"`
	Total         decimal.Decimal `json:"total"`
}

var oneHundred = decimal.NewFromInt(100)

// ComposeTotals builds the order totals from the cart subtotal, the
// aggregated shipping cost, a VAT percentage, and the credit the buyer asked
// to spend. Each step rounds half-up to two decimals before the next step
// consumes it. VAT applies to goods plus shipping; credit is capped at the
// VAT-inclusive total and never pushes the final amount below zero.
func ComposeTotals(subtotal, shippingCost, vatRate, creditRequested decimal.Decimal) Totals {
	subtotal = subtotal.Round(2)
	shippingCost = shippingCost.Round(2)

	vatable := subtotal.Add(shippingCost)
	vatAmount := vatable.Mul(vatRate).Div(oneHundred).Round(2)
	preCredit := vatable.Add(vatAmount)

	creditApplied := creditRequested.Round(2)
	if creditApplied.IsNegative() {
		creditApplied = decimal.Zero
	}
	if creditApplied.GreaterThan(preCredit) {
		creditApplied = preCredit
	}

	total := preCredit.Sub(creditApplied)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:      subtotal,
		ShippingCost:  shippingCost,
		VATRate:       vatRate,
		VATAmount:     vatAmount,
		CreditApplied: creditApplied,
		Total:         total,
	}
}

// CartSubtotal sums quantity times unit price across line items, rounded to
// two decimals.
func CartSubtotal(lines []SubtotalLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum.Round(2)
}

// SubtotalLine is the minimal shape CartSubtotal needs from a cart item.
type SubtotalLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}
