// Package memory is a process-local record store implementing the
// repository ports. It backs STORE_DRIVER=memory and the service tests.
//
// Records are kept as bson documents produced by a marshal round trip, so
// typed and schemaless access observe the same encoding MongoDB would.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type uniqueKey struct {
	fields  []string
	code    string
	message string
}

// Same unique constraints as repository.EnsureIndexes creates.
var uniqueKeys = map[string][]uniqueKey{
	models.CollectionCoupons:         {{[]string{"code"}, "COUPON_EXISTS", "a coupon with this code already exists"}},
	models.CollectionOrders:          {{[]string{"orderNumber"}, "ORDER_NUMBER_TAKEN", "order number already in use"}},
	models.CollectionContactRequests: {{[]string{"requestNumber"}, "REQUEST_NUMBER_TAKEN", "request number already in use"}},
	models.CollectionReviews:         {{[]string{"product", "user"}, "REVIEW_EXISTS", "you have already reviewed this product"}},
}

type Store struct {
	mu          sync.Mutex
	collections map[string][]bson.M
	counters    map[string]int64
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string][]bson.M),
		counters:    make(map[string]int64),
	}
}

// NewSet wires every port to one shared store.
func NewSet(s *Store) repository.Set {
	return repository.Set{
		Documents: &DocumentRepository{s},
		Coupons:   &CouponRepository{s},
		Orders:    &OrderRepository{s},
		Contacts:  &ContactRepository{s},
		Reviews:   &ReviewRepository{s},
		Products:  &ProductRepository{s},
		Counters:  &CounterRepository{s},
	}
}

// toDoc encodes v the way the driver would before storing it.
func toDoc(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDoc(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

// copyDoc deep-copies doc so callers never alias stored state.
func copyDoc(doc bson.M) bson.M {
	out, err := toDoc(doc)
	if err != nil {
		panic(fmt.Sprintf("memory store: re-encode stored document: %v", err))
	}
	return out
}

// The helpers below expect s.mu to be held.

func (s *Store) indexOf(collection string, id primitive.ObjectID) int {
	for i, doc := range s.collections[collection] {
		if oid, ok := doc[models.FieldID].(primitive.ObjectID); ok && oid == id {
			return i
		}
	}
	return -1
}

func (s *Store) checkUnique(collection string, candidate bson.M, skip int) error {
	for _, key := range uniqueKeys[collection] {
		want := uniqueValue(candidate, key.fields)
		for i, doc := range s.collections[collection] {
			if i == skip {
				continue
			}
			if uniqueValue(doc, key.fields) == want {
				return &domain.Error{Kind: domain.KindConflict, Code: key.code, Message: key.message}
			}
		}
	}
	return nil
}

func uniqueValue(doc bson.M, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, _ := query.Lookup(doc, f)
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	return strings.Join(parts, "\x00")
}

func (s *Store) insert(collection string, v any) (bson.M, error) {
	doc, err := toDoc(v)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(collection, doc, -1); err != nil {
		return nil, err
	}
	s.collections[collection] = append(s.collections[collection], doc)
	return copyDoc(doc), nil
}

func (s *Store) get(collection string, id primitive.ObjectID, code, what string) (bson.M, error) {
	i := s.indexOf(collection, id)
	if i < 0 {
		return nil, notFound(code, what)
	}
	return copyDoc(s.collections[collection][i]), nil
}

func (s *Store) set(collection string, id primitive.ObjectID, set bson.M, code, what string) (bson.M, error) {
	i := s.indexOf(collection, id)
	if i < 0 {
		return nil, notFound(code, what)
	}
	encoded, err := toDoc(set)
	if err != nil {
		return nil, err
	}
	updated := copyDoc(s.collections[collection][i])
	for k, v := range encoded {
		updated[k] = v
	}
	if err := s.checkUnique(collection, updated, i); err != nil {
		return nil, err
	}
	s.collections[collection][i] = updated
	return copyDoc(updated), nil
}

func (s *Store) remove(collection string, id primitive.ObjectID, code, what string) error {
	i := s.indexOf(collection, id)
	if i < 0 {
		return notFound(code, what)
	}
	docs := s.collections[collection]
	s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
	return nil
}

func (s *Store) statusStats(collection string, withTotal bool) []models.StatusBucket {
	byStatus := map[string]*models.StatusBucket{}
	var order []string
	for _, doc := range s.collections[collection] {
		status, _ := doc[models.FieldStatus].(string)
		b, ok := byStatus[status]
		if !ok {
			b = &models.StatusBucket{Status: status}
			if withTotal {
				b.Total = new(float64)
			}
			byStatus[status] = b
			order = append(order, status)
		}
		b.Count++
		if withTotal {
			if t, ok := doc["total"].(float64); ok {
				*b.Total += t
			}
		}
	}

	sort.Strings(order)
	out := make([]models.StatusBucket, 0, len(order))
	for _, status := range order {
		out = append(out, *byStatus[status])
	}
	return out
}

func notFound(code, what string) error {
	return domain.NotFound(code, "%s not found", what)
}
