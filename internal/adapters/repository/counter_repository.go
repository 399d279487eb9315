package repository

import (
	"context"
	"fmt"

	"github.com/developia-II/storefront-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CounterRepository hands out strictly increasing sequence numbers per
// name, shared by every process using the same database.
type CounterRepository interface {
	// Seed raises the counter to at least floor. It never lowers it.
	Seed(ctx context.Context, name string, floor int64) error
	Next(ctx context.Context, name string) (int64, error)
}

type MongoCounterRepository struct {
	DB *mongo.Database
}

func NewCounterRepository(db *mongo.Database) CounterRepository {
	return &MongoCounterRepository{DB: db}
}

func (r *MongoCounterRepository) Seed(ctx context.Context, name string, floor int64) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.DB.Collection(models.CollectionCounters).UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": floor}},
		opts)
	if mongo.IsDuplicateKeyError(err) {
		// lost an upsert race; the document exists now
		_, err = r.DB.Collection(models.CollectionCounters).UpdateOne(ctx,
			bson.M{"_id": name},
			bson.M{"$max": bson.M{"seq": floor}})
	}
	if err != nil {
		return fmt.Errorf("seed counter %s: %w", name, err)
	}
	return nil
}

func (r *MongoCounterRepository) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	coll := r.DB.Collection(models.CollectionCounters)
	err := coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&counter)
	if mongo.IsDuplicateKeyError(err) {
		err = coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&counter)
	}
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", name, err)
	}
	return counter.Seq, nil
}
