package repository

import (
	"context"
	"time"

	"github.com/developia-II/storefront-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ContactRepository interface {
	Create(ctx context.Context, req *models.ContactRequest) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RequestStatus) (models.ContactRequest, error)
	Count(ctx context.Context) (int64, error)
	StatusStats(ctx context.Context) ([]models.StatusBucket, error)
}

type MongoContactRepository struct {
	DB *mongo.Database
}

func NewContactRepository(db *mongo.Database) ContactRepository {
	return &MongoContactRepository{DB: db}
}

func (r *MongoContactRepository) coll() *mongo.Collection {
	return r.DB.Collection(models.CollectionContactRequests)
}

func (r *MongoContactRepository) Create(ctx context.Context, req *models.ContactRequest) error {
	now := time.Now()
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	req.CreatedAt, req.UpdatedAt = now, now

	if _, err := r.coll().InsertOne(ctx, req); err != nil {
		return mapDuplicate(err, "REQUEST_NUMBER_TAKEN", "request number already in use")
	}
	return nil
}

func (r *MongoContactRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RequestStatus) (models.ContactRequest, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}

	var req models.ContactRequest
	if err := r.coll().FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&req); err != nil {
		return models.ContactRequest{}, mapNotFound(err, "REQUEST_NOT_FOUND", "contact request")
	}
	return req, nil
}

func (r *MongoContactRepository) Count(ctx context.Context) (int64, error) {
	return r.coll().CountDocuments(ctx, bson.M{})
}

func (r *MongoContactRepository) StatusStats(ctx context.Context) ([]models.StatusBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	return aggregateBuckets(ctx, r.coll(), pipeline)
}
