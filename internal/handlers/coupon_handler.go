package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/services/discount"
	"github.com/developia-II/storefront-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CouponHandler struct {
	Coupons discount.Service
	Log     logrus.FieldLogger
}

func NewCouponHandler(coupons discount.Service, log logrus.FieldLogger) *CouponHandler {
	return &CouponHandler{Coupons: coupons, Log: log}
}

// Validate previews a coupon against an order total. An unusable coupon is
// still a 200 with valid=false and the reason; only unknown codes are 404.
func (h *CouponHandler) Validate(c *gin.Context) {
	var input models.ValidateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := h.Coupons.Validate(ctx, input.Code, input.OrderTotal)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Coupon checked", result))
}

// Apply consumes one use of the coupon.
func (h *CouponHandler) Apply(c *gin.Context) {
	var input models.ApplyCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := h.Coupons.Apply(ctx, input.Code)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Kind == domain.KindConflict {
			c.JSON(http.StatusConflict, utils.Response{Success: false, Code: de.Code, Message: de.Message, Data: result})
			return
		}
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Coupon applied", result))
}

func (h *CouponHandler) Create(c *gin.Context) {
	var input models.CreateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	coupon, err := h.Coupons.Create(ctx, input)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Coupon created successfully", coupon))
}

func (h *CouponHandler) Get(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	coupon, err := h.Coupons.Get(ctx, id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Coupon fetched successfully", coupon))
}

func (h *CouponHandler) Update(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input models.UpdateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	coupon, err := h.Coupons.Update(ctx, id, input)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Coupon updated successfully", coupon))
}

func (h *CouponHandler) Delete(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.Coupons.Delete(ctx, id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Coupon deleted successfully", nil))
}
