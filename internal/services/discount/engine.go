// Package discount decides whether a coupon can be used and how much it
// takes off an order.
package discount

import (
	"fmt"
	"time"

	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/shopspring/decimal"
)

// State is the outcome of evaluating a coupon. Checks run in the order the
// constants are declared and the first failing one wins.
type State string

const (
	StateInactive       State = "inactive"
	StateNotYetValid    State = "not_yet_valid"
	StateExpired        State = "expired"
	StateExhaustedUsage State = "usage_exhausted"
	StateBelowMinimum   State = "below_minimum"
	StateValid          State = "valid"
)

// Evaluate classifies coupon for an order of orderTotal at instant now.
func Evaluate(c models.Coupon, orderTotal float64, now time.Time) State {
	switch {
	case !c.IsActive:
		return StateInactive
	case now.Before(c.ValidFrom):
		return StateNotYetValid
	case now.After(c.ValidUntil):
		return StateExpired
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return StateExhaustedUsage
	case orderTotal < c.MinOrderAmount:
		return StateBelowMinimum
	}
	return StateValid
}

// Calculate returns the discount for subtotal. Percentage coupons are
// clamped to MaxDiscount; fixed coupons return their face value and are
// not capped at the subtotal.
func Calculate(c models.Coupon, subtotal float64) float64 {
	switch c.DiscountType {
	case models.DiscountPercentage:
		d := decimal.NewFromFloat(subtotal).
			Mul(decimal.NewFromFloat(c.DiscountValue)).
			Div(decimal.NewFromInt(100))
		if c.MaxDiscount != nil {
			d = decimal.Min(d, decimal.NewFromFloat(*c.MaxDiscount))
		}
		return d.Round(2).InexactFloat64()
	case models.DiscountFixed:
		return c.DiscountValue
	}
	return 0
}

// Reason is the client-facing message for a non-valid state.
func Reason(s State, c models.Coupon, currency string) string {
	switch s {
	case StateInactive:
		return "Coupon is not active"
	case StateNotYetValid:
		return "Coupon is not valid yet"
	case StateExpired:
		return "Coupon has expired"
	case StateExhaustedUsage:
		return "Coupon usage limit reached"
	case StateBelowMinimum:
		return fmt.Sprintf("Minimum order amount is %s %s", decimal.NewFromFloat(c.MinOrderAmount).String(), currency)
	}
	return ""
}

// Code is the machine-readable error code for a non-valid state.
func (s State) Code() string {
	switch s {
	case StateInactive:
		return "COUPON_INACTIVE"
	case StateNotYetValid:
		return "COUPON_NOT_YET_VALID"
	case StateExpired:
		return "COUPON_EXPIRED"
	case StateExhaustedUsage:
		return "COUPON_USAGE_EXHAUSTED"
	case StateBelowMinimum:
		return "COUPON_BELOW_MINIMUM"
	}
	return ""
}
