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

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Order, error)
	Count(ctx context.Context) (int64, error)
	StatusStats(ctx context.Context) ([]models.StatusBucket, error)
	// ListForRollup returns every order oldest first, with only the fields
	// the customer rollup needs.
	ListForRollup(ctx context.Context) ([]models.Order, error)
}

type MongoOrderRepository struct {
	DB *mongo.Database
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &MongoOrderRepository{DB: db}
}

func (r *MongoOrderRepository) coll() *mongo.Collection {
	return r.DB.Collection(models.CollectionOrders)
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt, order.UpdatedAt = now, now

	if _, err := r.coll().InsertOne(ctx, order); err != nil {
		return mapDuplicate(err, "ORDER_NUMBER_TAKEN", "order number already in use")
	}
	return nil
}

func (r *MongoOrderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var order models.Order
	if err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return models.Order{}, mapNotFound(err, "ORDER_NOT_FOUND", "order")
	}
	return order, nil
}

func (r *MongoOrderRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.coll().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": StampUpdate(set, time.Now())}, opts).Decode(&order)
	if err != nil {
		return models.Order{}, mapNotFound(err, "ORDER_NOT_FOUND", "order")
	}
	return order, nil
}

func (r *MongoOrderRepository) Count(ctx context.Context) (int64, error) {
	return r.coll().CountDocuments(ctx, bson.M{})
}

func (r *MongoOrderRepository) StatusStats(ctx context.Context) ([]models.StatusBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"total": bson.M{"$sum": "$total"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	return aggregateBuckets(ctx, r.coll(), pipeline)
}

func (r *MongoOrderRepository) ListForRollup(ctx context.Context) ([]models.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"customer": 1, "total": 1, "createdAt": 1})

	cursor, err := r.coll().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func aggregateBuckets(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]models.StatusBucket, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	buckets := []models.StatusBucket{}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}
