package repository

import "go.mongodb.org/mongo-driver/mongo"

// Set bundles every record-store port the services depend on.
type Set struct {
	Documents DocumentRepository
	Coupons   CouponRepository
	Orders    OrderRepository
	Contacts  ContactRepository
	Reviews   ReviewRepository
	Products  ProductRepository
	Counters  CounterRepository
}

func NewMongoSet(db *mongo.Database) Set {
	return Set{
		Documents: NewDocumentRepository(db),
		Coupons:   NewCouponRepository(db),
		Orders:    NewOrderRepository(db),
		Contacts:  NewContactRepository(db),
		Reviews:   NewReviewRepository(db),
		Products:  NewProductRepository(db),
		Counters:  NewCounterRepository(db),
	}
}
