package handlers

import (
	"context"
	"net/http"

	"github.com/developia-II/storefront-backend/internal/services/catalog"
	"github.com/developia-II/storefront-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

// ResourceHandler serves one schemaless collection: public list and detail
// plus admin create, update and delete.
type ResourceHandler struct {
	Catalog    *catalog.Service
	Collection string
	Log        logrus.FieldLogger
}

func NewResourceHandler(svc *catalog.Service, collection string, log logrus.FieldLogger) *ResourceHandler {
	return &ResourceHandler{Catalog: svc, Collection: collection, Log: log}
}

// List answers GET /<collection> with filters, search, sort, field
// selection and pagination taken from the query string.
func (h *ResourceHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := h.Catalog.List(ctx, h.Collection, c.Request.URL.Query())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	c.JSON(http.StatusOK, utils.ListPage(res.Count, res.Total, res.Pagination, res.Records))
}

func (h *ResourceHandler) Get(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	doc, err := h.Catalog.Get(ctx, h.Collection, id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Record fetched successfully", doc))
}

func (h *ResourceHandler) Create(c *gin.Context) {
	var body bson.M
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	doc, err := h.Catalog.Create(ctx, h.Collection, body)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Record created successfully", doc))
}

func (h *ResourceHandler) Update(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var body bson.M
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	doc, err := h.Catalog.Update(ctx, h.Collection, id, body)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Record updated successfully", doc))
}

func (h *ResourceHandler) Delete(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.Catalog.Delete(ctx, h.Collection, id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Record deleted successfully", nil))
}
