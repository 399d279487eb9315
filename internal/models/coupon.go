package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code          string             `json:"code" bson:"code"` // stored upper-case
	DescriptionEn string             `json:"description_en,omitempty" bson:"description_en,omitempty"`
	DescriptionAr string             `json:"description_ar,omitempty" bson:"description_ar,omitempty"`

	DiscountType   DiscountType `json:"discountType" bson:"discountType"`
	DiscountValue  float64      `json:"discountValue" bson:"discountValue"`
	MinOrderAmount float64      `json:"minOrderAmount" bson:"minOrderAmount"`
	// MaxDiscount caps percentage coupons only.
	MaxDiscount *float64 `json:"maxDiscount,omitempty" bson:"maxDiscount,omitempty"`

	UsageLimit *int64 `json:"usageLimit,omitempty" bson:"usageLimit,omitempty"`
	UsedCount  int64  `json:"usedCount" bson:"usedCount"`

	ValidFrom  time.Time `json:"validFrom" bson:"validFrom"`
	ValidUntil time.Time `json:"validUntil" bson:"validUntil"`
	IsActive   bool      `json:"isActive" bson:"isActive"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type CreateCouponInput struct {
	Code           string       `json:"code" validate:"required,max=64"`
	DescriptionEn  string       `json:"description_en"`
	DescriptionAr  string       `json:"description_ar"`
	DiscountType   DiscountType `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue  float64      `json:"discountValue" validate:"gte=0"`
	MinOrderAmount float64      `json:"minOrderAmount" validate:"gte=0"`
	MaxDiscount    *float64     `json:"maxDiscount" validate:"omitempty,gte=0"`
	UsageLimit     *int64       `json:"usageLimit" validate:"omitempty,gte=0"`
	ValidFrom      time.Time    `json:"validFrom" validate:"required"`
	ValidUntil     time.Time    `json:"validUntil" validate:"required,gtefield=ValidFrom"`
	IsActive       *bool        `json:"isActive"`
}

type ValidateCouponInput struct {
	Code       string  `json:"code" binding:"required"`
	OrderTotal float64 `json:"orderTotal" binding:"gte=0"`
}

type ApplyCouponInput struct {
	Code string `json:"code" binding:"required"`
}

// UpdateCouponInput is a partial admin edit; nil fields are left unchanged.
// ClearMaxDiscount and ClearUsageLimit remove the cap and the limit.
type UpdateCouponInput struct {
	Code           *string       `json:"code" validate:"omitempty,max=64"`
	DescriptionEn  *string       `json:"description_en"`
	DescriptionAr  *string       `json:"description_ar"`
	DiscountType   *DiscountType `json:"discountType" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue  *float64      `json:"discountValue" validate:"omitempty,gte=0"`
	MinOrderAmount *float64      `json:"minOrderAmount" validate:"omitempty,gte=0"`
	MaxDiscount    *float64      `json:"maxDiscount" validate:"omitempty,gte=0"`
	UsageLimit     *int64        `json:"usageLimit" validate:"omitempty,gte=0"`
	ValidFrom      *time.Time    `json:"validFrom"`
	ValidUntil     *time.Time    `json:"validUntil"`
	IsActive       *bool         `json:"isActive"`

	ClearMaxDiscount bool `json:"clearMaxDiscount" validate:"excluded_with=MaxDiscount"`
	ClearUsageLimit  bool `json:"clearUsageLimit" validate:"excluded_with=UsageLimit"`
}
