package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentRepository stores schemaless catalog records (products,
// projects, services, clients, testimonials, categories) and serves the
// list endpoints of every collection.
type DocumentRepository interface {
	List(ctx context.Context, collection string, q *query.Query) ([]bson.M, error)
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
	Get(ctx context.Context, collection string, id primitive.ObjectID) (bson.M, error)
	Insert(ctx context.Context, collection string, doc bson.M) (bson.M, error)
	Update(ctx context.Context, collection string, id primitive.ObjectID, set bson.M) (bson.M, error)
	Delete(ctx context.Context, collection string, id primitive.ObjectID) error
}

type MongoDocumentRepository struct {
	DB *mongo.Database
}

func NewDocumentRepository(db *mongo.Database) DocumentRepository {
	return &MongoDocumentRepository{DB: db}
}

func (r *MongoDocumentRepository) List(ctx context.Context, collection string, q *query.Query) ([]bson.M, error) {
	cursor, err := r.DB.Collection(collection).Find(ctx, q.Filter, q.FindOptions())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	records := []bson.M{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return records, nil
}

func (r *MongoDocumentRepository) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	return r.DB.Collection(collection).CountDocuments(ctx, filter)
}

func (r *MongoDocumentRepository) Get(ctx context.Context, collection string, id primitive.ObjectID) (bson.M, error) {
	opts := options.FindOne().SetProjection(bson.M{models.FieldVersion: 0})
	var doc bson.M
	if err := r.DB.Collection(collection).FindOne(ctx, bson.M{models.FieldID: id}, opts).Decode(&doc); err != nil {
		return nil, mapNotFound(err, "RECORD_NOT_FOUND", "record")
	}
	return doc, nil
}

func (r *MongoDocumentRepository) Insert(ctx context.Context, collection string, doc bson.M) (bson.M, error) {
	doc = StampNew(doc, time.Now())
	if _, err := r.DB.Collection(collection).InsertOne(ctx, doc); err != nil {
		return nil, mapDuplicate(err, "DUPLICATE_RECORD", "a record with the same unique key already exists")
	}
	return doc, nil
}

func (r *MongoDocumentRepository) Update(ctx context.Context, collection string, id primitive.ObjectID, set bson.M) (bson.M, error) {
	update := bson.M{"$set": StampUpdate(set, time.Now())}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{models.FieldVersion: 0})

	var doc bson.M
	err := r.DB.Collection(collection).FindOneAndUpdate(ctx, bson.M{models.FieldID: id}, update, opts).Decode(&doc)
	if err != nil {
		err = mapDuplicate(err, "DUPLICATE_RECORD", "a record with the same unique key already exists")
		return nil, mapNotFound(err, "RECORD_NOT_FOUND", "record")
	}
	return doc, nil
}

func (r *MongoDocumentRepository) Delete(ctx context.Context, collection string, id primitive.ObjectID) error {
	res, err := r.DB.Collection(collection).DeleteOne(ctx, bson.M{models.FieldID: id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mapNotFound(mongo.ErrNoDocuments, "RECORD_NOT_FOUND", "record")
	}
	return nil
}

// StampNew returns a copy of doc with identity, timestamps and revision
// marker filled in.
func StampNew(doc bson.M, now time.Time) bson.M {
	out := make(bson.M, len(doc)+4)
	for k, v := range doc {
		out[k] = v
	}
	if _, ok := out[models.FieldID]; !ok {
		out[models.FieldID] = primitive.NewObjectID()
	}
	out[models.FieldCreatedAt] = now
	out[models.FieldUpdatedAt] = now
	out[models.FieldVersion] = 0
	return out
}

// StampUpdate returns a copy of set with updatedAt refreshed.
func StampUpdate(set bson.M, now time.Time) bson.M {
	out := make(bson.M, len(set)+1)
	for k, v := range set {
		out[k] = v
	}
	out[models.FieldUpdatedAt] = now
	return out
}
