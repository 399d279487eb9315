package aggregation

import (
	"context"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/models"
)

// ReportService answers the admin dashboard queries.
type ReportService struct {
	orders   repository.OrderRepository
	contacts repository.ContactRepository
	policy   GroupingPolicy
}

func NewReportService(orders repository.OrderRepository, contacts repository.ContactRepository, policy GroupingPolicy) *ReportService {
	return &ReportService{orders: orders, contacts: contacts, policy: policy}
}

// OrderStats counts orders and sums their totals per status.
func (s *ReportService) OrderStats(ctx context.Context) ([]models.StatusBucket, error) {
	return s.orders.StatusStats(ctx)
}

// ContactStats counts contact and quotation requests per status.
func (s *ReportService) ContactStats(ctx context.Context) ([]models.StatusBucket, error) {
	return s.contacts.StatusStats(ctx)
}

func (s *ReportService) Customers(ctx context.Context) ([]models.CustomerSummary, error) {
	orders, err := s.orders.ListForRollup(ctx)
	if err != nil {
		return nil, err
	}
	return RollupCustomers(orders, s.policy), nil
}
