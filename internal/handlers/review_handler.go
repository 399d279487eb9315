package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/developia-II/storefront-backend/internal/middleware"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/services/reviews"
	"github.com/developia-II/storefront-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewHandler struct {
	Reviews reviews.Service
	Log     logrus.FieldLogger
}

func NewReviewHandler(svc reviews.Service, log logrus.FieldLogger) *ReviewHandler {
	return &ReviewHandler{Reviews: svc, Log: log}
}

type createReviewRequest struct {
	models.CreateReviewInput
	Name string `json:"name"`
}

// author reads the caller from the auth middleware.
func author(c *gin.Context) (reviews.Author, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.CodedErrorResponse("UNAUTHORIZED", "Invalid user in token"))
		return reviews.Author{}, false
	}
	return reviews.Author{
		UserID:  userID,
		IsAdmin: strings.EqualFold(c.GetString(middleware.ContextRole), "admin"),
	}, true
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	a, ok := author(c)
	if !ok {
		return
	}
	var input createReviewRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}
	a.Name = strings.TrimSpace(input.Name)

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	review, err := h.Reviews.Create(ctx, a, input.CreateReviewInput)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Review submitted successfully", review))
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	a, ok := author(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input models.UpdateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	review, err := h.Reviews.Update(ctx, a, id, input)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Review updated successfully", review))
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	a, ok := author(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.Reviews.Delete(ctx, a, id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Review deleted successfully", nil))
}

func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	productID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, err := h.Reviews.ListForProduct(ctx, productID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Reviews fetched successfully", list))
}
