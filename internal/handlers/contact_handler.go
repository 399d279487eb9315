package handlers

import (
	"context"
	"net/http"

	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/services/aggregation"
	"github.com/developia-II/storefront-backend/internal/services/ordering"
	"github.com/developia-II/storefront-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ContactHandler struct {
	Requests ordering.Service
	Reports  *aggregation.ReportService
	Log      logrus.FieldLogger
}

func NewContactHandler(requests ordering.Service, reports *aggregation.ReportService, log logrus.FieldLogger) *ContactHandler {
	return &ContactHandler{Requests: requests, Reports: reports, Log: log}
}

func (h *ContactHandler) Create(c *gin.Context) {
	var input models.CreateContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	req, err := h.Requests.CreateContactRequest(ctx, input)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Request received", req))
}

func (h *ContactHandler) Stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	stats, err := h.Reports.ContactStats(ctx)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Request statistics", stats))
}

type statusInput struct {
	Status models.RequestStatus `json:"status" binding:"required"`
}

func (h *ContactHandler) UpdateStatus(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input statusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	req, err := h.Requests.UpdateContactStatus(ctx, id, input.Status)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Request updated successfully", req))
}
