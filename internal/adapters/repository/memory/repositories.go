package memory

import (
	"context"
	"sort"
	"time"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DocumentRepository struct{ s *Store }

func (r *DocumentRepository) List(_ context.Context, collection string, q *query.Query) ([]bson.M, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	docs := make([]bson.M, 0, len(r.s.collections[collection]))
	for _, d := range r.s.collections[collection] {
		docs = append(docs, copyDoc(d))
	}
	return q.Apply(docs), nil
}

func (r *DocumentRepository) Count(_ context.Context, collection string, filter bson.M) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, d := range r.s.collections[collection] {
		if query.Matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func (r *DocumentRepository) Get(_ context.Context, collection string, id primitive.ObjectID) (bson.M, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, err := r.s.get(collection, id, "RECORD_NOT_FOUND", "record")
	if err != nil {
		return nil, err
	}
	delete(doc, models.FieldVersion)
	return doc, nil
}

func (r *DocumentRepository) Insert(_ context.Context, collection string, doc bson.M) (bson.M, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc = repository.StampNew(doc, time.Now())
	if _, err := r.s.insert(collection, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) Update(_ context.Context, collection string, id primitive.ObjectID, set bson.M) (bson.M, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, err := r.s.set(collection, id, repository.StampUpdate(set, time.Now()), "RECORD_NOT_FOUND", "record")
	if err != nil {
		return nil, err
	}
	delete(doc, models.FieldVersion)
	return doc, nil
}

func (r *DocumentRepository) Delete(_ context.Context, collection string, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.remove(collection, id, "RECORD_NOT_FOUND", "record")
}

type CouponRepository struct{ s *Store }

func (r *CouponRepository) Create(_ context.Context, coupon *models.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if coupon.ID.IsZero() {
		coupon.ID = primitive.NewObjectID()
	}
	coupon.CreatedAt, coupon.UpdatedAt = now, now
	_, err := r.s.insert(models.CollectionCoupons, coupon)
	return err
}

func (r *CouponRepository) GetByCode(_ context.Context, code string) (models.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.collections[models.CollectionCoupons] {
		if d["code"] == code {
			var coupon models.Coupon
			err := fromDoc(d, &coupon)
			return coupon, err
		}
	}
	return models.Coupon{}, notFound("COUPON_NOT_FOUND", "coupon")
}

func (r *CouponRepository) GetByID(_ context.Context, id primitive.ObjectID) (models.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, err := r.s.get(models.CollectionCoupons, id, "COUPON_NOT_FOUND", "coupon")
	if err != nil {
		return models.Coupon{}, err
	}
	var coupon models.Coupon
	err = fromDoc(doc, &coupon)
	return coupon, err
}

func (r *CouponRepository) Update(_ context.Context, id primitive.ObjectID, set bson.M, unset []string) (models.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.s.indexOf(models.CollectionCoupons, id)
	if i < 0 {
		return models.Coupon{}, notFound("COUPON_NOT_FOUND", "coupon")
	}
	if limit, ok := set["usageLimit"].(int64); ok {
		var current models.Coupon
		if err := fromDoc(r.s.collections[models.CollectionCoupons][i], &current); err != nil {
			return models.Coupon{}, err
		}
		if current.UsedCount > limit {
			return models.Coupon{}, repository.ErrUsageLimitBelowUsed
		}
	}

	doc, err := r.s.set(models.CollectionCoupons, id, repository.StampUpdate(set, time.Now()), "COUPON_NOT_FOUND", "coupon")
	if err != nil {
		return models.Coupon{}, err
	}
	for _, f := range unset {
		delete(r.s.collections[models.CollectionCoupons][i], f)
		delete(doc, f)
	}
	var coupon models.Coupon
	err = fromDoc(doc, &coupon)
	return coupon, err
}

func (r *CouponRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.remove(models.CollectionCoupons, id, "COUPON_NOT_FOUND", "coupon")
}

func (r *CouponRepository) IncrementUsage(_ context.Context, id primitive.ObjectID) (int64, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.s.indexOf(models.CollectionCoupons, id)
	if i < 0 {
		return 0, false, nil
	}
	var coupon models.Coupon
	if err := fromDoc(r.s.collections[models.CollectionCoupons][i], &coupon); err != nil {
		return 0, false, err
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return 0, false, nil
	}
	coupon.UsedCount++
	if _, err := r.s.set(models.CollectionCoupons, id, bson.M{"usedCount": coupon.UsedCount, "updatedAt": time.Now()}, "COUPON_NOT_FOUND", "coupon"); err != nil {
		return 0, false, err
	}
	return coupon.UsedCount, true, nil
}

func (r *CouponRepository) DecrementUsage(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.s.indexOf(models.CollectionCoupons, id)
	if i < 0 {
		return nil
	}
	var coupon models.Coupon
	if err := fromDoc(r.s.collections[models.CollectionCoupons][i], &coupon); err != nil {
		return err
	}
	if coupon.UsedCount == 0 {
		return nil
	}
	_, err := r.s.set(models.CollectionCoupons, id, bson.M{"usedCount": coupon.UsedCount - 1, "updatedAt": time.Now()}, "COUPON_NOT_FOUND", "coupon")
	return err
}

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt, order.UpdatedAt = now, now
	_, err := r.s.insert(models.CollectionOrders, order)
	return err
}

func (r *OrderRepository) GetByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, err := r.s.get(models.CollectionOrders, id, "ORDER_NOT_FOUND", "order")
	if err != nil {
		return models.Order{}, err
	}
	var order models.Order
	err = fromDoc(doc, &order)
	return order, err
}

func (r *OrderRepository) Update(_ context.Context, id primitive.ObjectID, set bson.M) (models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, err := r.s.set(models.CollectionOrders, id, repository.StampUpdate(set, time.Now()), "ORDER_NOT_FOUND", "order")
	if err != nil {
		return models.Order{}, err
	}
	var order models.Order
	err = fromDoc(doc, &order)
	return order, err
}

func (r *OrderRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.collections[models.CollectionOrders])), nil
}

func (r *OrderRepository) StatusStats(_ context.Context) ([]models.StatusBucket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.statusStats(models.CollectionOrders, true), nil
}

func (r *OrderRepository) ListForRollup(_ context.Context) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	orders := make([]models.Order, 0, len(r.s.collections[models.CollectionOrders]))
	for _, d := range r.s.collections[models.CollectionOrders] {
		var o models.Order
		if err := fromDoc(d, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

type ContactRepository struct{ s *Store }

func (r *ContactRepository) Create(_ context.Context, req *models.ContactRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	req.CreatedAt, req.UpdatedAt = now, now
	_, err := r.s.insert(models.CollectionContactRequests, req)
	return err
}

func (r *ContactRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.RequestStatus) (models.ContactRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, err := r.s.set(models.CollectionContactRequests, id,
		bson.M{"status": status, "updatedAt": time.Now()}, "REQUEST_NOT_FOUND", "contact request")
	if err != nil {
		return models.ContactRequest{}, err
	}
	var req models.ContactRequest
	err = fromDoc(doc, &req)
	return req, err
}

func (r *ContactRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.collections[models.CollectionContactRequests])), nil
}

func (r *ContactRepository) StatusStats(_ context.Context) ([]models.StatusBucket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.statusStats(models.CollectionContactRequests, false), nil
}

type ReviewRepository struct{ s *Store }

func (r *ReviewRepository) Create(_ context.Context, review *models.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	review.CreatedAt, review.UpdatedAt = now, now
	_, err := r.s.insert(models.CollectionReviews, review)
	return err
}

func (r *ReviewRepository) GetByID(_ context.Context, id primitive.ObjectID) (models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, err := r.s.get(models.CollectionReviews, id, "REVIEW_NOT_FOUND", "review")
	if err != nil {
		return models.Review{}, err
	}
	var review models.Review
	err = fromDoc(doc, &review)
	return review, err
}

func (r *ReviewRepository) Update(_ context.Context, id primitive.ObjectID, set bson.M) (models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, err := r.s.set(models.CollectionReviews, id, repository.StampUpdate(set, time.Now()), "REVIEW_NOT_FOUND", "review")
	if err != nil {
		return models.Review{}, err
	}
	var review models.Review
	err = fromDoc(doc, &review)
	return review, err
}

func (r *ReviewRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.remove(models.CollectionReviews, id, "REVIEW_NOT_FOUND", "review")
}

func (r *ReviewRepository) ListByProduct(_ context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reviews := []models.Review{}
	for _, d := range r.s.collections[models.CollectionReviews] {
		if d["product"] != productID {
			continue
		}
		var review models.Review
		if err := fromDoc(d, &review); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

func (r *ReviewRepository) RatingsForProduct(_ context.Context, productID primitive.ObjectID) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var ratings []int
	for _, d := range r.s.collections[models.CollectionReviews] {
		if d["product"] != productID {
			continue
		}
		var review models.Review
		if err := fromDoc(d, &review); err != nil {
			return nil, err
		}
		ratings = append(ratings, review.Rating)
	}
	return ratings, nil
}

type ProductRepository struct{ s *Store }

func (r *ProductRepository) GetByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, err := r.s.get(models.CollectionProducts, id, "PRODUCT_NOT_FOUND", "product")
	if err != nil {
		return models.Product{}, err
	}
	var product models.Product
	err = fromDoc(doc, &product)
	return product, err
}

func (r *ProductRepository) SetRatingRollup(_ context.Context, id primitive.ObjectID, rollup models.RatingRollup) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, err := r.s.set(models.CollectionProducts, id, bson.M{
		"ratingsQuantity": rollup.Quantity,
		"ratingsAverage":  rollup.Average,
		"updatedAt":       time.Now(),
	}, "PRODUCT_NOT_FOUND", "product")
	return err
}

type CounterRepository struct{ s *Store }

func (r *CounterRepository) Seed(_ context.Context, name string, floor int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.counters[name] < floor {
		r.s.counters[name] = floor
	}
	return nil
}

func (r *CounterRepository) Next(_ context.Context, name string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.counters[name]++
	return r.s.counters[name], nil
}
