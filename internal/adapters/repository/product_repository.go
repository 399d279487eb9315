package repository

import (
	"context"
	"time"

	"github.com/developia-II/storefront-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProductRepository covers the typed product operations. Catalog listing
// and admin CRUD go through DocumentRepository.
type ProductRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	SetRatingRollup(ctx context.Context, id primitive.ObjectID, rollup models.RatingRollup) error
}

type MongoProductRepository struct {
	DB *mongo.Database
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &MongoProductRepository{DB: db}
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var product models.Product
	if err := r.DB.Collection(models.CollectionProducts).FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return models.Product{}, mapNotFound(err, "PRODUCT_NOT_FOUND", "product")
	}
	return product, nil
}

func (r *MongoProductRepository) SetRatingRollup(ctx context.Context, id primitive.ObjectID, rollup models.RatingRollup) error {
	res, err := r.DB.Collection(models.CollectionProducts).UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"ratingsQuantity": rollup.Quantity,
			"ratingsAverage":  rollup.Average,
			"updatedAt":       time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mapNotFound(mongo.ErrNoDocuments, "PRODUCT_NOT_FOUND", "product")
	}
	return nil
}
