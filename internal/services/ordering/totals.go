package ordering

import (
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/shopspring/decimal"
)

type Totals struct {
	Subtotal     float64
	ShippingCost float64
	Discount     float64
	Total        float64
}

// ComputeTotals sums price × quantity over items and derives
// total = subtotal + shipping - discount. The result is not floored.
func ComputeTotals(items []models.OrderItem, shipping, discount float64) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(line)
	}
	ship := decimal.NewFromFloat(shipping)
	disc := decimal.NewFromFloat(discount)

	return Totals{
		Subtotal:     subtotal.InexactFloat64(),
		ShippingCost: ship.InexactFloat64(),
		Discount:     disc.InexactFloat64(),
		Total:        subtotal.Add(ship).Sub(disc).InexactFloat64(),
	}
}

// clampDiscount keeps a coupon discount from pushing the total below zero.
func clampDiscount(discount, subtotal, shipping float64) float64 {
	ceiling := decimal.NewFromFloat(subtotal).Add(decimal.NewFromFloat(shipping))
	return decimal.Min(decimal.NewFromFloat(discount), ceiling).InexactFloat64()
}

func formatMoney(amount float64, currency string) string {
	return decimal.NewFromFloat(amount).StringFixed(2) + " " + currency
}
