package reviews

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	rollupTimeout = 10 * time.Second
	rollupStripes = 64
)

// RollupRecomputer rebuilds a product's rating rollup.
type RollupRecomputer interface {
	RecomputeRollup(ctx context.Context, productID primitive.ObjectID) (models.RatingRollup, error)
}

// Author identifies who is acting on a review.
type Author struct {
	UserID  primitive.ObjectID
	Name    string
	IsAdmin bool
}

type Service interface {
	Create(ctx context.Context, author Author, input models.CreateReviewInput) (models.Review, error)
	Update(ctx context.Context, author Author, id primitive.ObjectID, input models.UpdateReviewInput) (models.Review, error)
	Delete(ctx context.Context, author Author, id primitive.ObjectID) error
	ListForProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	// Wait blocks until every triggered rollup has finished.
	Wait()
}

type service struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	rollups  RollupRecomputer
	log      logrus.FieldLogger

	pending sync.WaitGroup
	// one rollup at a time per product, so the last one to run always
	// reads every review written before it started
	locks [rollupStripes]sync.Mutex
}

func NewService(reviews repository.ReviewRepository, products repository.ProductRepository, rollups RollupRecomputer, log logrus.FieldLogger) Service {
	return &service{reviews: reviews, products: products, rollups: rollups, log: log}
}

func (s *service) Create(ctx context.Context, author Author, input models.CreateReviewInput) (models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return models.Review{}, domain.Validation("INVALID_RATING", "rating must be between 1 and 5")
	}
	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return models.Review{}, err
	}

	review := models.Review{
		ProductID: input.ProductID,
		UserID:    author.UserID,
		UserName:  author.Name,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.reviews.Create(ctx, &review); err != nil {
		return models.Review{}, err
	}

	s.triggerRollup(review.ProductID)
	return review, nil
}

func (s *service) Update(ctx context.Context, author Author, id primitive.ObjectID, input models.UpdateReviewInput) (models.Review, error) {
	existing, err := s.owned(ctx, author, id)
	if err != nil {
		return models.Review{}, err
	}

	set := bson.M{}
	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return models.Review{}, domain.Validation("INVALID_RATING", "rating must be between 1 and 5")
		}
		set["rating"] = *input.Rating
	}
	if input.Comment != nil {
		set["comment"] = *input.Comment
	}
	if len(set) == 0 {
		return existing, nil
	}

	review, err := s.reviews.Update(ctx, id, set)
	if err != nil {
		return models.Review{}, err
	}
	s.triggerRollup(review.ProductID)
	return review, nil
}

func (s *service) Delete(ctx context.Context, author Author, id primitive.ObjectID) error {
	existing, err := s.owned(ctx, author, id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.triggerRollup(existing.ProductID)
	return nil
}

func (s *service) ListForProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}

// owned loads a review the author may change. Another user's review is
// reported as not found.
func (s *service) owned(ctx context.Context, author Author, id primitive.ObjectID) (models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return models.Review{}, err
	}
	if !author.IsAdmin && review.UserID != author.UserID {
		return models.Review{}, domain.NotFound("REVIEW_NOT_FOUND", "review not found")
	}
	return review, nil
}

// triggerRollup recomputes in the background so the review write does not
// wait on it. Failures are logged; the next mutation heals the rollup.
func (s *service) triggerRollup(productID primitive.ObjectID) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		mu := s.lockFor(productID)
		mu.Lock()
		defer mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), rollupTimeout)
		defer cancel()

		if _, err := s.rollups.RecomputeRollup(ctx, productID); err != nil {
			s.log.WithError(err).WithField("productId", productID.Hex()).Error("rating rollup failed")
		}
	}()
}

// lockFor maps a product onto a fixed set of mutexes. Products sharing a
// stripe only serialise their rollups.
func (s *service) lockFor(productID primitive.ObjectID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(productID[:])
	return &s.locks[h.Sum32()%rollupStripes]
}

func (s *service) Wait() {
	s.pending.Wait()
}
