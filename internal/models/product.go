package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// Product is the typed view of a catalog document. Listing and admin CRUD
// work on raw documents; this struct is used where the code needs to read
// specific attributes.
type Product struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// Bilingual copy
	TitleEn       string `json:"title_en" bson:"title_en"`
	TitleAr       string `json:"title_ar" bson:"title_ar"`
	DescriptionEn string `json:"description_en" bson:"description_en"`
	DescriptionAr string `json:"description_ar" bson:"description_ar"`

	Category primitive.ObjectID `json:"category,omitempty" bson:"category,omitempty"`
	Images   []string           `json:"images" bson:"images"`

	Price    float64       `json:"price" bson:"price"`
	Stock    int           `json:"stock" bson:"stock"`
	Featured bool          `json:"featured" bson:"featured"`
	Status   ProductStatus `json:"status" bson:"status"`

	// Rollup, recomputed from the reviews collection
	RatingsAverage  float64 `json:"ratingsAverage" bson:"ratingsAverage"`
	RatingsQuantity int     `json:"ratingsQuantity" bson:"ratingsQuantity"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// RatingRollup is the denormalised rating aggregate stored on a product.
type RatingRollup struct {
	Quantity int     `json:"ratingsQuantity" bson:"ratingsQuantity"`
	Average  float64 `json:"ratingsAverage" bson:"ratingsAverage"`
}
