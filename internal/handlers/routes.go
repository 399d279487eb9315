package handlers

import (
	"net/http"

	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/metrics"
	"github.com/developia-II/storefront-backend/internal/middleware"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/services/aggregation"
	"github.com/developia-II/storefront-backend/internal/services/catalog"
	"github.com/developia-II/storefront-backend/internal/services/discount"
	"github.com/developia-II/storefront-backend/internal/services/ordering"
	"github.com/developia-II/storefront-backend/internal/services/reviews"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Services is everything the routes need. A nil *Services means the store
// is unavailable.
type Services struct {
	Catalog  *catalog.Service
	Coupons  discount.Service
	Orders   ordering.Service
	Reports  *aggregation.ReportService
	Reviews  reviews.Service
	Uploader domain.ImageUploader

	JWTSecret string
	// CouponLimit guards the public coupon endpoints; nil disables it.
	CouponLimit gin.HandlerFunc
	Log         logrus.FieldLogger
}

var listableCollections = []string{
	models.CollectionProducts,
	models.CollectionProjects,
	models.CollectionServices,
	models.CollectionClients,
	models.CollectionTestimonials,
	models.CollectionCategories,
}

func SetupRoutes(router *gin.Engine, svc *Services) {
	logrus.Info("Setting up routes...")

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Server is running!",
			"status":  "ok",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if svc == nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": "storefront-backend",
		})
	})

	router.GET("/metrics", metrics.Handler())

	if svc == nil {
		logrus.Warn("Store not available - running with limited functionality")
		router.Any("/api/*path", func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Database connection not available",
				"message": "The server is running but could not connect to the database. Please check server logs.",
			})
		})
		return
	}

	log := svc.Log
	couponHandler := NewCouponHandler(svc.Coupons, log)
	orderHandler := NewOrderHandler(svc.Orders, svc.Reports, log)
	contactHandler := NewContactHandler(svc.Orders, svc.Reports, log)
	reviewHandler := NewReviewHandler(svc.Reviews, log)
	uploadHandler := NewUploadHandler(svc.Uploader, log)

	limit := svc.CouponLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	api := router.Group("/api/v1")

	// Public catalog
	for _, collection := range listableCollections {
		h := NewResourceHandler(svc.Catalog, collection, log)
		group := api.Group("/" + collection)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
	}
	api.GET("/products/:id/reviews", reviewHandler.GetProductReviews)

	// Public commerce
	coupons := api.Group("/coupons", limit)
	{
		coupons.POST("/validate", couponHandler.Validate)
		coupons.POST("/apply", couponHandler.Apply)
	}
	api.POST("/orders", orderHandler.PlaceOrder)
	api.POST("/contact", contactHandler.Create)

	// Signed-in customers
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(svc.JWTSecret))
	{
		protected.POST("/reviews", reviewHandler.CreateReview)
		protected.PUT("/reviews/:id", reviewHandler.UpdateReview)
		protected.DELETE("/reviews/:id", reviewHandler.DeleteReview)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(svc.JWTSecret), middleware.RoleMiddleware("admin"))
	{
		for _, collection := range listableCollections {
			h := NewResourceHandler(svc.Catalog, collection, log)
			group := admin.Group("/" + collection)
			group.GET("", h.List)
			group.GET("/:id", h.Get)
			group.POST("", h.Create)
			group.PUT("/:id", h.Update)
			group.DELETE("/:id", h.Delete)
		}

		couponList := NewResourceHandler(svc.Catalog, models.CollectionCoupons, log)
		adminCoupons := admin.Group("/coupons")
		{
			adminCoupons.GET("", couponList.List)
			adminCoupons.POST("", couponHandler.Create)
			adminCoupons.GET("/:id", couponHandler.Get)
			adminCoupons.PUT("/:id", couponHandler.Update)
			adminCoupons.DELETE("/:id", couponHandler.Delete)
		}

		orderList := NewResourceHandler(svc.Catalog, models.CollectionOrders, log)
		adminOrders := admin.Group("/orders")
		{
			adminOrders.GET("", orderList.List)
			adminOrders.GET("/stats", orderHandler.Stats)
			adminOrders.GET("/customers", orderHandler.Customers)
			adminOrders.GET("/:id", orderHandler.GetOrder)
			adminOrders.PUT("/:id", orderHandler.UpdateOrder)
		}

		requestList := NewResourceHandler(svc.Catalog, models.CollectionContactRequests, log)
		adminRequests := admin.Group("/contact-requests")
		{
			adminRequests.GET("", requestList.List)
			adminRequests.GET("/stats", contactHandler.Stats)
			adminRequests.PUT("/:id/status", contactHandler.UpdateStatus)
		}

		admin.POST("/upload", uploadHandler.UploadImage)
	}
}
