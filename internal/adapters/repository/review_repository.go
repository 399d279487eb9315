package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/developia-II/storefront-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Review, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	// RatingsForProduct returns every rating value stored for the product.
	RatingsForProduct(ctx context.Context, productID primitive.ObjectID) ([]int, error)
}

type MongoReviewRepository struct {
	DB *mongo.Database
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &MongoReviewRepository{DB: db}
}

func (r *MongoReviewRepository) coll() *mongo.Collection {
	return r.DB.Collection(models.CollectionReviews)
}

func (r *MongoReviewRepository) Create(ctx context.Context, review *models.Review) error {
	now := time.Now()
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	review.CreatedAt, review.UpdatedAt = now, now

	if _, err := r.coll().InsertOne(ctx, review); err != nil {
		return mapDuplicate(err, "REVIEW_EXISTS", "you have already reviewed this product")
	}
	return nil
}

func (r *MongoReviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Review, error) {
	var review models.Review
	if err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return models.Review{}, mapNotFound(err, "REVIEW_NOT_FOUND", "review")
	}
	return review, nil
}

func (r *MongoReviewRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Review, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var review models.Review
	err := r.coll().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": StampUpdate(set, time.Now())}, opts).Decode(&review)
	if err != nil {
		return models.Review{}, mapNotFound(err, "REVIEW_NOT_FOUND", "review")
	}
	return review, nil
}

func (r *MongoReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mapNotFound(mongo.ErrNoDocuments, "REVIEW_NOT_FOUND", "review")
	}
	return nil
}

func (r *MongoReviewRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.coll().Find(ctx, bson.M{"product": productID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *MongoReviewRepository) RatingsForProduct(ctx context.Context, productID primitive.ObjectID) ([]int, error) {
	opts := options.Find().SetProjection(bson.M{"rating": 1})
	cursor, err := r.coll().Find(ctx, bson.M{"product": productID}, opts)
	if err != nil {
		return nil, fmt.Errorf("read ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Rating int `bson:"rating"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ratings := make([]int, 0, len(rows))
	for _, row := range rows {
		ratings = append(ratings, row.Rating)
	}
	return ratings, nil
}
