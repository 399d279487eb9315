package repository

import (
	"context"
	"fmt"

	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type indexSpec struct {
	collection string
	model      mongo.IndexModel
}

func indexSpecs() []indexSpec {
	return []indexSpec{
		// Uniqueness backs the atomic counters and one-review-per-user rule.
		{models.CollectionCoupons, mongo.IndexModel{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetName("idx_coupon_code").SetUnique(true),
		}},
		{models.CollectionOrders, mongo.IndexModel{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetName("idx_order_number").SetUnique(true),
		}},
		{models.CollectionContactRequests, mongo.IndexModel{
			Keys:    bson.D{{Key: "requestNumber", Value: 1}},
			Options: options.Index().SetName("idx_request_number").SetUnique(true),
		}},
		{models.CollectionReviews, mongo.IndexModel{
			Keys:    bson.D{{Key: "product", Value: 1}, {Key: "user", Value: 1}},
			Options: options.Index().SetName("idx_review_product_user").SetUnique(true),
		}},

		// Listing and reporting
		{models.CollectionProducts, mongo.IndexModel{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_product_status_date"),
		}},
		{models.CollectionProducts, mongo.IndexModel{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("idx_product_category"),
		}},
		{models.CollectionOrders, mongo.IndexModel{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_order_status"),
		}},
		{models.CollectionOrders, mongo.IndexModel{
			Keys:    bson.D{{Key: "customer.email", Value: 1}},
			Options: options.Index().SetName("idx_order_customer_email"),
		}},
		{models.CollectionContactRequests, mongo.IndexModel{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_request_status"),
		}},
	}
}

// EnsureIndexes creates every index the storefront relies on. Creating an
// index that already exists with the same definition is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log logrus.FieldLogger) error {
	for _, ix := range indexSpecs() {
		name, err := db.Collection(ix.collection).Indexes().CreateOne(ctx, ix.model)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", ix.collection, err)
		}
		log.WithFields(logrus.Fields{"collection": ix.collection, "index": name}).Info("index ready")
	}
	return nil
}
