// Package aggregation derives summaries from stored records: product rating
// rollups, status statistics and the customer list built from orders.
package aggregation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/metrics"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComputeRollup returns the count and arithmetic mean of ratings. No
// ratings yields the zero rollup.
func ComputeRollup(ratings []int) models.RatingRollup {
	if len(ratings) == 0 {
		return models.RatingRollup{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return models.RatingRollup{
		Quantity: len(ratings),
		Average:  float64(sum) / float64(len(ratings)),
	}
}

// RatingService rewrites a product's rating rollup from the full set of its
// reviews. Recomputing is idempotent, so concurrent runs may race freely.
type RatingService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	log      logrus.FieldLogger
}

func NewRatingService(reviews repository.ReviewRepository, products repository.ProductRepository, log logrus.FieldLogger) *RatingService {
	return &RatingService{reviews: reviews, products: products, log: log}
}

func (s *RatingService) RecomputeRollup(ctx context.Context, productID primitive.ObjectID) (models.RatingRollup, error) {
	ratings, err := s.reviews.RatingsForProduct(ctx, productID)
	if err != nil {
		metrics.RecordRatingRollup("error")
		return models.RatingRollup{}, fmt.Errorf("read ratings: %w", err)
	}

	rollup := ComputeRollup(ratings)
	if err := s.products.SetRatingRollup(ctx, productID, rollup); err != nil {
		metrics.RecordRatingRollup("error")
		return models.RatingRollup{}, err
	}

	metrics.RecordRatingRollup("ok")
	s.log.WithFields(logrus.Fields{
		"productId":       productID.Hex(),
		"ratingsQuantity": rollup.Quantity,
		"ratingsAverage":  rollup.Average,
	}).Debug("rating rollup updated")
	return rollup, nil
}

// GroupingPolicy decides which orders belong to the same customer.
type GroupingPolicy string

const (
	// GroupByEmail keys customers by email only; orders without one are
	// left out.
	GroupByEmail GroupingPolicy = "email"
	// GroupByEmailThenPhone falls back to the phone number for guests
	// without an email. Orders with neither are left out.
	GroupByEmailThenPhone GroupingPolicy = "email_then_phone"
)

func ParseGroupingPolicy(raw string) (GroupingPolicy, error) {
	switch GroupingPolicy(raw) {
	case GroupByEmail, GroupByEmailThenPhone:
		return GroupingPolicy(raw), nil
	}
	return "", fmt.Errorf("unknown customer grouping policy %q", raw)
}

func customerKey(c models.CustomerInfo, policy GroupingPolicy) string {
	if email := strings.ToLower(strings.TrimSpace(c.Email)); email != "" {
		return "email:" + email
	}
	if policy == GroupByEmailThenPhone {
		if phone := strings.TrimSpace(c.Phone); phone != "" {
			return "phone:" + phone
		}
	}
	return ""
}

// RollupCustomers groups orders into customers. Contact details come from
// each customer's earliest order; the result is ordered by most recent
// order first.
func RollupCustomers(orders []models.Order, policy GroupingPolicy) []models.CustomerSummary {
	sorted := make([]models.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	byKey := map[string]*models.CustomerSummary{}
	spent := map[string]decimal.Decimal{}
	var keys []string

	for _, o := range sorted {
		key := customerKey(o.Customer, policy)
		if key == "" {
			continue
		}
		c, ok := byKey[key]
		if !ok {
			c = &models.CustomerSummary{
				Key:          key,
				Name:         o.Customer.Name,
				Email:        o.Customer.Email,
				Phone:        o.Customer.Phone,
				FirstOrderAt: o.CreatedAt,
			}
			byKey[key] = c
			keys = append(keys, key)
		}
		c.OrderCount++
		c.LastOrderAt = o.CreatedAt
		spent[key] = spent[key].Add(decimal.NewFromFloat(o.Total))
	}

	out := make([]models.CustomerSummary, 0, len(keys))
	for _, k := range keys {
		c := byKey[k]
		c.TotalSpent = spent[k].InexactFloat64()
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastOrderAt.After(out[j].LastOrderAt)
	})
	return out
}
