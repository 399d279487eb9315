package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 10 * time.Second

// respondError writes the envelope for a service error. Unclassified
// errors are logged and hidden behind a generic message.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindValidation:
			c.JSON(http.StatusBadRequest, utils.CodedErrorResponse(de.Code, de.Message))
			return
		case domain.KindNotFound:
			c.JSON(http.StatusNotFound, utils.CodedErrorResponse(de.Code, de.Message))
			return
		case domain.KindConflict:
			c.JSON(http.StatusConflict, utils.CodedErrorResponse(de.Code, de.Message))
			return
		}
	}

	log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	c.JSON(http.StatusInternalServerError, utils.CodedErrorResponse("INTERNAL", "Something went wrong, please try again"))
}

func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, utils.CodedErrorResponse("INVALID_BODY", "Invalid request body: "+err.Error()))
}

// objectIDParam parses the :id route parameter, answering 400 when it is
// not a valid id.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.CodedErrorResponse("INVALID_ID", "Invalid "+name))
		return primitive.NilObjectID, false
	}
	return id, true
}
