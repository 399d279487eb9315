package repository

import (
	"context"
	"errors"
	"time"

	"github.com/developia-II/storefront-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByCode(ctx context.Context, code string) (models.Coupon, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Coupon, error)
	// Update applies set and removes the unset fields. A usageLimit in set is
	// only written while usedCount does not exceed it.
	Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset []string) (models.Coupon, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// IncrementUsage adds one use only while usedCount is below the stored
	// usageLimit. ok is false when the limit was already reached.
	IncrementUsage(ctx context.Context, id primitive.ObjectID) (usedCount int64, ok bool, err error)
	DecrementUsage(ctx context.Context, id primitive.ObjectID) error
}

type MongoCouponRepository struct {
	DB *mongo.Database
}

func NewCouponRepository(db *mongo.Database) CouponRepository {
	return &MongoCouponRepository{DB: db}
}

func (r *MongoCouponRepository) coll() *mongo.Collection {
	return r.DB.Collection(models.CollectionCoupons)
}

func (r *MongoCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	now := time.Now()
	if coupon.ID.IsZero() {
		coupon.ID = primitive.NewObjectID()
	}
	coupon.CreatedAt, coupon.UpdatedAt = now, now

	if _, err := r.coll().InsertOne(ctx, coupon); err != nil {
		return mapDuplicate(err, "COUPON_EXISTS", "a coupon with this code already exists")
	}
	return nil
}

func (r *MongoCouponRepository) GetByCode(ctx context.Context, code string) (models.Coupon, error) {
	var coupon models.Coupon
	if err := r.coll().FindOne(ctx, bson.M{"code": code}).Decode(&coupon); err != nil {
		return models.Coupon{}, mapNotFound(err, "COUPON_NOT_FOUND", "coupon")
	}
	return coupon, nil
}

func (r *MongoCouponRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Coupon, error) {
	var coupon models.Coupon
	if err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&coupon); err != nil {
		return models.Coupon{}, mapNotFound(err, "COUPON_NOT_FOUND", "coupon")
	}
	return coupon, nil
}

func (r *MongoCouponRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset []string) (models.Coupon, error) {
	filter := bson.M{"_id": id}
	limit, guarded := set["usageLimit"]
	if guarded {
		filter["usedCount"] = bson.M{"$lte": limit}
	}
	update := bson.M{"$set": StampUpdate(set, time.Now())}
	if len(unset) > 0 {
		fields := bson.M{}
		for _, f := range unset {
			fields[f] = ""
		}
		update["$unset"] = fields
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var coupon models.Coupon
	err := r.coll().FindOneAndUpdate(ctx, filter, update, opts).Decode(&coupon)
	if err == nil {
		return coupon, nil
	}
	if guarded && errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return models.Coupon{}, getErr
		}
		return models.Coupon{}, ErrUsageLimitBelowUsed
	}
	err = mapDuplicate(err, "COUPON_EXISTS", "a coupon with this code already exists")
	return models.Coupon{}, mapNotFound(err, "COUPON_NOT_FOUND", "coupon")
}

func (r *MongoCouponRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mapNotFound(mongo.ErrNoDocuments, "COUPON_NOT_FOUND", "coupon")
	}
	return nil
}

func (r *MongoCouponRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID) (int64, bool, error) {
	// The cap is read from the stored document inside the same update, so
	// concurrent redemptions can never push usedCount past usageLimit.
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"usageLimit": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$usageLimit"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"usedCount": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var coupon models.Coupon
	err := r.coll().FindOneAndUpdate(ctx, filter, update, opts).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return coupon.UsedCount, true, nil
}

func (r *MongoCouponRepository) DecrementUsage(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": id, "usedCount": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"usedCount": -1},
			"$set": bson.M{"updatedAt": time.Now()},
		})
	return err
}
