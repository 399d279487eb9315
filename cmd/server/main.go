package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/adapters/repository/memory"
	"github.com/developia-II/storefront-backend/internal/config"
	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/handlers"
	"github.com/developia-II/storefront-backend/internal/middleware"
	"github.com/developia-II/storefront-backend/internal/notify"
	"github.com/developia-II/storefront-backend/internal/services/aggregation"
	"github.com/developia-II/storefront-backend/internal/services/catalog"
	"github.com/developia-II/storefront-backend/internal/services/discount"
	"github.com/developia-II/storefront-backend/internal/services/ordering"
	"github.com/developia-II/storefront-backend/internal/services/reviews"
	"github.com/developia-II/storefront-backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg)
	logrus.SetLevel(log.GetLevel())
	logrus.SetFormatter(log.Formatter)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	policy, err := aggregation.ParseGroupingPolicy(cfg.CustomerGrouping)
	if err != nil {
		log.WithError(err).Fatal("invalid CUSTOMER_GROUPING")
	}

	repos, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	notifier, closeNotifier := newNotifier(cfg, log)
	defer closeNotifier()

	limitStore, err := middleware.NewRateLimitStore(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("rate limiter falling back to in-process store")
		limitStore, _ = middleware.NewRateLimitStore(ctx, "")
	}
	couponLimit, err := middleware.RateLimit(limitStore, cfg.RateLimit)
	if err != nil {
		log.WithError(err).Fatal("invalid RATE_LIMIT")
	}

	var svc *handlers.Services
	if repos != nil {
		coupons := discount.NewService(repos.Coupons, log, cfg.Currency)
		ratings := aggregation.NewRatingService(repos.Reviews, repos.Products, log)
		svc = &handlers.Services{
			Catalog: catalog.NewService(repos.Documents, log),
			Coupons: coupons,
			Orders: ordering.NewService(*repos, coupons, notifier, ordering.Config{
				AdminEmail: cfg.AdminEmail,
				Currency:   cfg.Currency,
			}, log),
			Reports:     aggregation.NewReportService(repos.Orders, repos.Contacts, policy),
			Reviews:     reviews.NewService(repos.Reviews, repos.Products, ratings, log),
			Uploader:    newUploader(cfg, log),
			JWTSecret:   cfg.JWTSecret,
			CouponLimit: couponLimit,
			Log:         log,
		}
	}
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty, authenticated routes will reject every request")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	handlers.SetupRoutes(router, svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()
	log.WithField("port", cfg.Port).Info("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	if svc != nil {
		svc.Orders.Wait()
		svc.Reviews.Wait()
	}
	log.Info("server exited")
}

// openStore returns nil repositories when MongoDB cannot be reached; the
// routes then answer 503.
func openStore(ctx context.Context, cfg config.Config, log *logrus.Logger) (*repository.Set, func()) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		set := memory.NewSet(memory.NewStore())
		return &set, func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI).SetServerSelectionTimeout(20*time.Second))
	if err != nil {
		log.WithError(err).Error("failed to create MongoDB client")
		return nil, func() {}
	}
	disconnect := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.WithError(err).Warn("MongoDB disconnect failed")
		}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		log.WithError(err).Error("failed to connect to MongoDB")
		disconnect()
		return nil, func() {}
	}

	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(connectCtx, db, log); err != nil {
		log.WithError(err).Warn("index bootstrap incomplete")
	}
	log.WithField("database", cfg.MongoDatabase).Info("connected to MongoDB")

	set := repository.NewMongoSet(db)
	return &set, disconnect
}

func newNotifier(cfg config.Config, log *logrus.Logger) (domain.Notifier, func()) {
	if !cfg.Kafka.Enabled() {
		return &notify.LogNotifier{Log: log}, func() {}
	}

	producer, err := notify.NewKafkaProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.WithError(err).Warn("Kafka unavailable, notifications will only be logged")
		return &notify.LogNotifier{Log: log}, func() {}
	}
	n := notify.NewKafkaNotifier(producer, cfg.Kafka.Topic, log)
	log.WithField("topic", cfg.Kafka.Topic).Info("Kafka notifier initialized")
	return n, func() {
		if err := n.Close(); err != nil {
			log.WithError(err).Warn("Kafka producer close failed")
		}
	}
}

func newUploader(cfg config.Config, log *logrus.Logger) domain.ImageUploader {
	if !cfg.Cloudinary.Enabled() {
		log.Info("Cloudinary not configured, image uploads disabled")
		return nil
	}
	uploader, err := utils.NewCloudinaryUploader(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
	if err != nil {
		log.WithError(err).Warn("Cloudinary setup failed, image uploads disabled")
		return nil
	}
	return uploader
}
