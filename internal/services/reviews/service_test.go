package reviews

import (
	"context"
	"sync"
	"testing"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/adapters/repository/memory"
	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/services/aggregation"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setup(t *testing.T) (Service, repository.Set, primitive.ObjectID) {
	t.Helper()
	log, _ := test.NewNullLogger()
	repos := memory.NewSet(memory.NewStore())
	ratings := aggregation.NewRatingService(repos.Reviews, repos.Products, log)
	svc := NewService(repos.Reviews, repos.Products, ratings, log)

	doc, err := repos.Documents.Insert(context.Background(), models.CollectionProducts, bson.M{"title_en": "Desk"})
	require.NoError(t, err)
	return svc, repos, doc["_id"].(primitive.ObjectID)
}

func author() Author {
	return Author{UserID: primitive.NewObjectID(), Name: "Reviewer"}
}

func productRollup(t *testing.T, repos repository.Set, id primitive.ObjectID) (int, float64) {
	t.Helper()
	p, err := repos.Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.RatingsQuantity, p.RatingsAverage
}

func TestMutationsKeepRollupCurrent(t *testing.T) {
	ctx := context.Background()
	svc, repos, productID := setup(t)

	authors := []Author{author(), author(), author()}
	var reviews []models.Review
	for i, rating := range []int{5, 4, 3} {
		r, err := svc.Create(ctx, authors[i], models.CreateReviewInput{ProductID: productID, Rating: rating})
		require.NoError(t, err)
		reviews = append(reviews, r)
	}
	svc.Wait()
	qty, avg := productRollup(t, repos, productID)
	assert.Equal(t, 3, qty)
	assert.Equal(t, 4.0, avg)

	require.NoError(t, svc.Delete(ctx, authors[2], reviews[2].ID))
	svc.Wait()
	qty, avg = productRollup(t, repos, productID)
	assert.Equal(t, 2, qty)
	assert.Equal(t, 4.5, avg)

	one := 1
	_, err := svc.Update(ctx, authors[0], reviews[0].ID, models.UpdateReviewInput{Rating: &one})
	require.NoError(t, err)
	svc.Wait()
	_, avg = productRollup(t, repos, productID)
	assert.Equal(t, 2.5, avg)

	require.NoError(t, svc.Delete(ctx, authors[0], reviews[0].ID))
	require.NoError(t, svc.Delete(ctx, authors[1], reviews[1].ID))
	svc.Wait()
	qty, avg = productRollup(t, repos, productID)
	assert.Equal(t, 0, qty)
	assert.Equal(t, 0.0, avg)
}

func TestCreate_OneReviewPerUser(t *testing.T) {
	ctx := context.Background()
	svc, _, productID := setup(t)
	a := author()

	_, err := svc.Create(ctx, a, models.CreateReviewInput{ProductID: productID, Rating: 4})
	require.NoError(t, err)
	_, err = svc.Create(ctx, a, models.CreateReviewInput{ProductID: productID, Rating: 5})
	assert.ErrorIs(t, err, domain.ErrConflict)
	svc.Wait()
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, productID := setup(t)

	_, err := svc.Create(ctx, author(), models.CreateReviewInput{ProductID: productID, Rating: 6})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, author(), models.CreateReviewInput{ProductID: primitive.NewObjectID(), Rating: 3})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOnlyOwnerOrAdminMayChange(t *testing.T) {
	ctx := context.Background()
	svc, _, productID := setup(t)
	owner := author()

	r, err := svc.Create(ctx, owner, models.CreateReviewInput{ProductID: productID, Rating: 4})
	require.NoError(t, err)

	err = svc.Delete(ctx, author(), r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	admin := Author{UserID: primitive.NewObjectID(), IsAdmin: true}
	require.NoError(t, svc.Delete(ctx, admin, r.ID))
	svc.Wait()
}

func TestRollupLocksStayBounded(t *testing.T) {
	svc, _, productID := setup(t)
	s := svc.(*service)

	assert.Same(t, s.lockFor(productID), s.lockFor(productID))

	seen := map[*sync.Mutex]bool{}
	for i := 0; i < 1000; i++ {
		seen[s.lockFor(primitive.NewObjectID())] = true
	}
	assert.LessOrEqual(t, len(seen), rollupStripes)
	for i := range s.locks {
		delete(seen, &s.locks[i])
	}
	assert.Empty(t, seen)
}

func TestConcurrentReviewsAcrossProducts(t *testing.T) {
	svc, repos, _ := setup(t)
	ctx := context.Background()

	products := make([]primitive.ObjectID, 5)
	for i := range products {
		doc, err := repos.Documents.Insert(ctx, models.CollectionProducts, bson.M{"title_en": "Lamp"})
		require.NoError(t, err)
		products[i] = doc["_id"].(primitive.ObjectID)
	}

	var wg sync.WaitGroup
	for _, p := range products {
		for u := 0; u < 4; u++ {
			wg.Add(1)
			go func(p primitive.ObjectID, rating int) {
				defer wg.Done()
				_, err := svc.Create(ctx, author(), models.CreateReviewInput{ProductID: p, Rating: rating, Comment: "ok"})
				assert.NoError(t, err)
			}(p, u+2)
		}
	}
	wg.Wait()
	svc.Wait()

	for _, p := range products {
		qty, avg := productRollup(t, repos, p)
		assert.Equal(t, 4, qty)
		assert.Equal(t, 3.5, avg)
	}
}
