package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string

const (
	RequestNew     RequestStatus = "new"
	RequestRead    RequestStatus = "read"
	RequestReplied RequestStatus = "replied"
	RequestClosed  RequestStatus = "closed"
	RequestSpam    RequestStatus = "spam"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestNew, RequestRead, RequestReplied, RequestClosed, RequestSpam:
		return true
	}
	return false
}

// ContactRequest covers both plain contact messages and quotation requests.
type ContactRequest struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestNumber string             `json:"requestNumber" bson:"requestNumber"`
	Type          string             `json:"type" bson:"type"` // contact | quotation

	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
	Company string `json:"company,omitempty" bson:"company,omitempty"`
	Subject string `json:"subject,omitempty" bson:"subject,omitempty"`
	Message string `json:"message" bson:"message"`

	Service primitive.ObjectID `json:"service,omitempty" bson:"service,omitempty"`
	Status  RequestStatus      `json:"status" bson:"status"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type CreateContactInput struct {
	Type    string             `json:"type" validate:"omitempty,oneof=contact quotation"`
	Name    string             `json:"name" validate:"required"`
	Email   string             `json:"email" validate:"required,email"`
	Phone   string             `json:"phone"`
	Company string             `json:"company"`
	Subject string             `json:"subject"`
	Message string             `json:"message" validate:"required"`
	Service primitive.ObjectID `json:"service"`
}
