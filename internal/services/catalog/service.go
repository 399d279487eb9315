// Package catalog serves list and CRUD requests for the schemaless
// collections through the query builder.
package catalog

import (
	"context"
	"net/url"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/query"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result is one page of a list request. Total counts every record that
// matched the filter, ignoring the page window.
type Result struct {
	Records    []bson.M
	Count      int
	Total      int64
	Pagination models.Pagination
}

// Fields a client can never write through the generic CRUD endpoints.
var protectedFields = map[string]bool{
	models.FieldID:        true,
	models.FieldCreatedAt: true,
	models.FieldUpdatedAt: true,
	models.FieldVersion:   true,
}

// Maintained by the rating rollup only.
var rollupFields = map[string]bool{
	"ratingsAverage":  true,
	"ratingsQuantity": true,
}

// Stored as ObjectIDs so reference filters match.
var referenceFields = []string{"category", "client", "service", "product"}

type Service struct {
	docs repository.DocumentRepository
	log  logrus.FieldLogger
}

func NewService(docs repository.DocumentRepository, log logrus.FieldLogger) *Service {
	return &Service{docs: docs, log: log}
}

func (s *Service) List(ctx context.Context, collection string, params url.Values) (Result, error) {
	q, err := query.Build(params)
	if err != nil {
		return Result{}, err
	}

	records, err := s.docs.List(ctx, collection, q)
	if err != nil {
		return Result{}, err
	}
	total, err := s.docs.Count(ctx, collection, q.Filter)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Records:    records,
		Count:      len(records),
		Total:      total,
		Pagination: q.Pagination(),
	}, nil
}

func (s *Service) Get(ctx context.Context, collection string, id primitive.ObjectID) (bson.M, error) {
	return s.docs.Get(ctx, collection, id)
}

func (s *Service) Create(ctx context.Context, collection string, body bson.M) (bson.M, error) {
	doc := sanitize(collection, body)
	if len(doc) == 0 {
		return nil, domain.Validation("EMPTY_BODY", "request body has no writable fields")
	}
	if collection == models.CollectionProducts {
		doc["ratingsAverage"] = 0.0
		doc["ratingsQuantity"] = 0
	}

	created, err := s.docs.Insert(ctx, collection, doc)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"collection": collection, "id": created[models.FieldID]}).Info("record created")
	return created, nil
}

func (s *Service) Update(ctx context.Context, collection string, id primitive.ObjectID, body bson.M) (bson.M, error) {
	set := sanitize(collection, body)
	if len(set) == 0 {
		return nil, domain.Validation("EMPTY_BODY", "request body has no writable fields")
	}
	return s.docs.Update(ctx, collection, id, set)
}

func (s *Service) Delete(ctx context.Context, collection string, id primitive.ObjectID) error {
	if err := s.docs.Delete(ctx, collection, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"collection": collection, "id": id.Hex()}).Info("record deleted")
	return nil
}

// sanitize drops protected keys and operator keys, and turns reference ids
// into ObjectIDs. body is not modified.
func sanitize(collection string, body bson.M) bson.M {
	out := bson.M{}
	for k, v := range body {
		if protectedFields[k] || len(k) == 0 || k[0] == '$' {
			continue
		}
		if collection == models.CollectionProducts && rollupFields[k] {
			continue
		}
		out[k] = v
	}
	for _, f := range referenceFields {
		if hex, ok := out[f].(string); ok {
			if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
				out[f] = oid
			}
		}
	}
	return out
}
