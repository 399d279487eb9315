package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/services/aggregation"
	"github.com/developia-II/storefront-backend/internal/services/ordering"
	"github.com/developia-II/storefront-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type OrderHandler struct {
	Orders  ordering.Service
	Reports *aggregation.ReportService
	Log     logrus.FieldLogger
}

func NewOrderHandler(orders ordering.Service, reports *aggregation.ReportService, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{Orders: orders, Reports: reports, Log: log}
}

// PlaceOrder handles guest checkout.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var input models.PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	order, err := h.Orders.PlaceOrder(ctx, input)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Order placed successfully", order))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	order, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Order fetched successfully", order))
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input models.UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	order, err := h.Orders.UpdateOrder(ctx, id, input)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Order updated successfully", order))
}

func (h *OrderHandler) Stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	stats, err := h.Reports.OrderStats(ctx)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Order statistics", stats))
}

func (h *OrderHandler) Customers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	customers, err := h.Reports.Customers(ctx)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Customers fetched successfully", customers))
}
