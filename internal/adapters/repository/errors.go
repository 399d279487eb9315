package repository

import (
	"errors"

	"github.com/developia-II/storefront-backend/internal/core/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrUsageLimitBelowUsed is returned when a coupon's usageLimit would drop
// below its usedCount.
var ErrUsageLimitBelowUsed = domain.Conflict("USAGE_LIMIT_BELOW_USED", "usageLimit cannot be lower than usedCount")

func mapNotFound(err error, code, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.NotFound(code, "%s not found", what)
	}
	return err
}

func mapDuplicate(err error, code, message string) error {
	if mongo.IsDuplicateKeyError(err) {
		return &domain.Error{Kind: domain.KindConflict, Code: code, Message: message, Err: err}
	}
	return err
}
