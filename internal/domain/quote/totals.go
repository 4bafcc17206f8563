package quote

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals is the price breakdown of a quote.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// ComputeTotals sums the lines, applies the discount percent and then the tax
// rate (a percent) on the discounted amount. Amounts are rounded to cents.
func ComputeTotals(items []Item, discountPercent, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	discount := subtotal.Mul(discountPercent).Div(hundred).Round(2)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate).Div(hundred).Round(2)
	return Totals{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          taxable.Add(tax).Round(2),
	}
}

// FillTotal sets d.Total from the lines when the caller left it at zero.
func FillTotal(d Data, items []Item) Data {
	if d.Total.IsZero() && len(items) > 0 {
		d.Total = ComputeTotals(items, d.DiscountPercent, d.TaxRate).Total
	}
	return d
}
