package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type OrderItem struct {
	ProductID primitive.ObjectID `json:"product,omitempty" bson:"product,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Image     string             `json:"image,omitempty" bson:"image,omitempty"`
	Price     float64            `json:"price" bson:"price" validate:"gte=0"`
	Quantity  int                `json:"quantity" bson:"quantity" validate:"min=1"`
}

// CustomerInfo is the contact identity captured at checkout. Guests may
// leave the email empty.
type CustomerInfo struct {
	Name    string `json:"name" bson:"name" validate:"required"`
	Email   string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone" bson:"phone" validate:"required"`
	Address string `json:"address,omitempty" bson:"address,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
}

type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber string             `json:"orderNumber" bson:"orderNumber"` // e.g. ORD-1718000000000-0042
	Customer    CustomerInfo       `json:"customer" bson:"customer"`
	Items       []OrderItem        `json:"items" bson:"items"`

	// Pricing Breakdown
	Subtotal     float64 `json:"subtotal" bson:"subtotal"`
	ShippingCost float64 `json:"shippingCost" bson:"shippingCost"`
	Discount     float64 `json:"discount" bson:"discount"`
	CouponCode   string  `json:"couponCode,omitempty" bson:"couponCode,omitempty"`
	Total        float64 `json:"total" bson:"total"`

	Status        OrderStatus `json:"status" bson:"status"`
	PaymentMethod string      `json:"paymentMethod" bson:"paymentMethod"`
	Notes         string      `json:"notes,omitempty" bson:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type PlaceOrderInput struct {
	Customer      CustomerInfo `json:"customer" validate:"required"`
	Items         []OrderItem  `json:"items" validate:"required,min=1,dive"`
	ShippingCost  float64      `json:"shippingCost" validate:"gte=0"`
	CouponCode    string       `json:"couponCode"`
	PaymentMethod string       `json:"paymentMethod"`
	Notes         string       `json:"notes"`
}

// UpdateOrderInput carries an admin edit. Nil fields are left untouched;
// any of Items, ShippingCost or Discount triggers a full total recompute.
type UpdateOrderInput struct {
	Status       *OrderStatus `json:"status"`
	Items        []OrderItem  `json:"items" validate:"omitempty,min=1,dive"`
	ShippingCost *float64     `json:"shippingCost" validate:"omitempty,gte=0"`
	Discount     *float64     `json:"discount" validate:"omitempty,gte=0"`
	Notes        *string      `json:"notes"`
}
