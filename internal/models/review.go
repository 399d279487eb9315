package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID primitive.ObjectID `json:"product" bson:"product"`
	UserID    primitive.ObjectID `json:"user" bson:"user"`

	UserName string `json:"userName" bson:"userName"`

	Rating  int    `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" bson:"comment"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type CreateReviewInput struct {
	ProductID primitive.ObjectID `json:"product" binding:"required"`
	Rating    int                `json:"rating" binding:"required,min=1,max=5"`
	Comment   string             `json:"comment"`
}

type UpdateReviewInput struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment"`
}
