package memory

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDocumentRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewSet(NewStore()).Documents

	created, err := repo.Insert(ctx, models.CollectionProducts, bson.M{"title_en": "Lamp", "price": 120.0, "status": "active"})
	require.NoError(t, err)
	id := created["_id"].(primitive.ObjectID)
	assert.Equal(t, 0, created["__v"])

	got, err := repo.Get(ctx, models.CollectionProducts, id)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got["title_en"])
	assert.NotContains(t, got, "__v")

	updated, err := repo.Update(ctx, models.CollectionProducts, id, bson.M{"price": 99.5})
	require.NoError(t, err)
	assert.Equal(t, 99.5, updated["price"])
	assert.Equal(t, "Lamp", updated["title_en"])

	require.NoError(t, repo.Delete(ctx, models.CollectionProducts, id))
	_, err = repo.Get(ctx, models.CollectionProducts, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, models.CollectionProducts, id), domain.ErrNotFound)
}

func TestDocumentRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewSet(NewStore()).Documents

	for i, status := range []string{"active", "draft", "active", "active"} {
		_, err := repo.Insert(ctx, models.CollectionProjects, bson.M{"name_en": "Project", "status": status, "rank": i})
		require.NoError(t, err)
	}

	params, _ := url.ParseQuery("status=active&sort=-rank&limit=2")
	q, err := query.Build(params)
	require.NoError(t, err)

	records, err := repo.List(ctx, models.CollectionProjects, q)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.EqualValues(t, 3, records[0]["rank"])
	assert.EqualValues(t, 2, records[1]["rank"])

	total, err := repo.Count(ctx, models.CollectionProjects, q.Filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestStore_ReturnedDocsDoNotAliasState(t *testing.T) {
	ctx := context.Background()
	repo := NewSet(NewStore()).Documents

	created, err := repo.Insert(ctx, models.CollectionClients, bson.M{"name_en": "Acme"})
	require.NoError(t, err)
	id := created["_id"].(primitive.ObjectID)

	got, err := repo.Get(ctx, models.CollectionClients, id)
	require.NoError(t, err)
	got["name_en"] = "changed"

	again, err := repo.Get(ctx, models.CollectionClients, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", again["name_en"])
}

func TestCouponRepository_UniqueCode(t *testing.T) {
	ctx := context.Background()
	repo := NewSet(NewStore()).Coupons

	require.NoError(t, repo.Create(ctx, &models.Coupon{Code: "SAVE10"}))
	err := repo.Create(ctx, &models.Coupon{Code: "SAVE10"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCouponRepository_IncrementUsageRespectsLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewSet(NewStore()).Coupons

	limit := int64(3)
	coupon := &models.Coupon{Code: "THREE", UsageLimit: &limit}
	require.NoError(t, repo.Create(ctx, coupon))

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.IncrementUsage(ctx, coupon.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, granted)
	stored, err := repo.GetByCode(ctx, "THREE")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.UsedCount)

	require.NoError(t, repo.DecrementUsage(ctx, coupon.ID))
	stored, err = repo.GetByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.UsedCount)
}

func TestReviewRepository_OnePerProductAndUser(t *testing.T) {
	ctx := context.Background()
	repo := NewSet(NewStore()).Reviews
	product, user := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, repo.Create(ctx, &models.Review{ProductID: product, UserID: user, Rating: 4}))
	err := repo.Create(ctx, &models.Review{ProductID: product, UserID: user, Rating: 2})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, repo.Create(ctx, &models.Review{ProductID: product, UserID: primitive.NewObjectID(), Rating: 2}))
	ratings, err := repo.RatingsForProduct(ctx, product)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{4, 2}, ratings)
}

func TestOrderRepository_StatusStats(t *testing.T) {
	ctx := context.Background()
	repo := NewSet(NewStore()).Orders

	for i, o := range []models.Order{
		{OrderNumber: "ORD-1-0001", Status: models.StatusPending, Total: 100},
		{OrderNumber: "ORD-1-0002", Status: models.StatusDelivered, Total: 50.5},
		{OrderNumber: "ORD-1-0003", Status: models.StatusPending, Total: 25},
	} {
		o := o
		require.NoError(t, repo.Create(ctx, &o), i)
	}

	stats, err := repo.StatusStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "delivered", stats[0].Status)
	assert.Equal(t, int64(1), stats[0].Count)
	assert.Equal(t, 50.5, *stats[0].Total)
	assert.Equal(t, "pending", stats[1].Status)
	assert.Equal(t, int64(2), stats[1].Count)
	assert.Equal(t, 125.0, *stats[1].Total)

	err = repo.Create(ctx, &models.Order{OrderNumber: "ORD-1-0001"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCounterRepository_SeedNeverLowers(t *testing.T) {
	ctx := context.Background()
	repo := NewSet(NewStore()).Counters

	require.NoError(t, repo.Seed(ctx, "orders", 41))
	require.NoError(t, repo.Seed(ctx, "orders", 5))

	n, err := repo.Next(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestCouponRepository_UpdateGuardsUsageLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewSet(NewStore()).Coupons

	limit, maxOff := int64(5), 20.0
	coupon := &models.Coupon{Code: "FIVE", UsageLimit: &limit, MaxDiscount: &maxOff, UsedCount: 3}
	require.NoError(t, repo.Create(ctx, coupon))

	_, err := repo.Update(ctx, coupon.ID, bson.M{"usageLimit": int64(2)}, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)

	updated, err := repo.Update(ctx, coupon.ID, bson.M{"usageLimit": int64(3)}, []string{"maxDiscount"})
	require.NoError(t, err)
	require.NotNil(t, updated.UsageLimit)
	assert.Equal(t, int64(3), *updated.UsageLimit)
	assert.Nil(t, updated.MaxDiscount)

	stored, err := repo.GetByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.MaxDiscount)

	_, err = repo.Update(ctx, primitive.NewObjectID(), bson.M{"usageLimit": int64(3)}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
