package main

import (
	"context"
	"time"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/config"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Run this script once against a fresh database
// Usage: MONGO_URI=... go run scripts/create_indexes.go
func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg)

	// Atlas clusters can be slow to answer the first handshake
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerSelectionTimeout(30 * time.Second)

	log.Info("connecting to MongoDB")
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.WithError(err).Fatal("failed to create client")
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		log.WithError(err).Fatal("failed to reach MongoDB, check MONGO_URI and network access")
	}

	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db, log); err != nil {
		log.WithError(err).Fatal("index creation failed")
	}
	log.WithFields(logrus.Fields{"database": cfg.MongoDatabase}).Info("all indexes created")
}
