package ordering

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/metrics"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/services/discount"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const notifyTimeout = 30 * time.Second

// CouponRedeemer is the part of the coupon service order creation needs.
type CouponRedeemer interface {
	Redeem(ctx context.Context, code string, subtotal float64) (discount.Redemption, error)
	Release(ctx context.Context, r discount.Redemption) error
}

type Service interface {
	PlaceOrder(ctx context.Context, input models.PlaceOrderInput) (models.Order, error)
	GetOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	UpdateOrder(ctx context.Context, id primitive.ObjectID, input models.UpdateOrderInput) (models.Order, error)

	CreateContactRequest(ctx context.Context, input models.CreateContactInput) (models.ContactRequest, error)
	UpdateContactStatus(ctx context.Context, id primitive.ObjectID, status models.RequestStatus) (models.ContactRequest, error)

	// Wait blocks until queued notifications have been attempted.
	Wait()
}

type Config struct {
	AdminEmail string
	Currency   string
}

type service struct {
	orders   repository.OrderRepository
	contacts repository.ContactRepository
	coupons  CouponRedeemer
	seq      *Sequencer
	notifier domain.Notifier
	cfg      Config
	v        *validator.Validate
	log      logrus.FieldLogger

	pending sync.WaitGroup
}

func NewService(repos repository.Set, coupons CouponRedeemer, notifier domain.Notifier, cfg Config, log logrus.FieldLogger) Service {
	return &service{
		orders:   repos.Orders,
		contacts: repos.Contacts,
		coupons:  coupons,
		seq:      NewSequencer(repos.Counters, time.Now),
		notifier: notifier,
		cfg:      cfg,
		v:        validator.New(),
		log:      log,
	}
}

func (s *service) PlaceOrder(ctx context.Context, input models.PlaceOrderInput) (models.Order, error) {
	if err := s.v.Struct(input); err != nil {
		return models.Order{}, domain.Validation("INVALID_ORDER", "%s", err.Error())
	}

	// Only a redeemed coupon discounts a placed order.
	totals := ComputeTotals(input.Items, input.ShippingCost, 0)

	var redemption *discount.Redemption
	if input.CouponCode != "" {
		r, err := s.coupons.Redeem(ctx, input.CouponCode, totals.Subtotal)
		if err != nil {
			return models.Order{}, err
		}
		redemption = &r
		d := clampDiscount(r.Discount, totals.Subtotal, input.ShippingCost)
		totals = ComputeTotals(input.Items, input.ShippingCost, d)
	}
	number, err := s.seq.Next(ctx, PrefixOrder, models.CollectionOrders, s.orders.Count)
	if err != nil {
		s.release(redemption)
		return models.Order{}, err
	}

	order := models.Order{
		OrderNumber:   number,
		Customer:      input.Customer,
		Items:         input.Items,
		Subtotal:      totals.Subtotal,
		ShippingCost:  totals.ShippingCost,
		Discount:      totals.Discount,
		Total:         totals.Total,
		Status:        models.StatusPending,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
	}
	if redemption != nil {
		order.CouponCode = redemption.Code
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = "cash_on_delivery"
	}

	if err := s.orders.Create(ctx, &order); err != nil {
		s.release(redemption)
		return models.Order{}, err
	}

	metrics.RecordCreated("order")
	s.log.WithFields(logrus.Fields{"orderNumber": order.OrderNumber, "total": order.Total}).Info("order created")

	subject := fmt.Sprintf("Order %s received", order.OrderNumber)
	body := fmt.Sprintf("Order %s for %s: %d item(s), total %s.",
		order.OrderNumber, order.Customer.Name, len(order.Items), formatMoney(order.Total, s.cfg.Currency))
	if order.Customer.Email != "" {
		s.notify(order.Customer.Email, subject, body, logrus.Fields{"orderNumber": order.OrderNumber})
	}
	if s.cfg.AdminEmail != "" {
		s.notify(s.cfg.AdminEmail, "New order "+order.OrderNumber, body, logrus.Fields{"orderNumber": order.OrderNumber})
	}
	return order, nil
}

// release returns a reserved coupon use after a failed order insert. It
// runs on a fresh context so a cancelled request still gives the use back.
func (s *service) release(r *discount.Redemption) {
	if r == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.coupons.Release(ctx, *r)
}

func (s *service) GetOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *service) UpdateOrder(ctx context.Context, id primitive.ObjectID, input models.UpdateOrderInput) (models.Order, error) {
	if err := s.v.Struct(input); err != nil {
		return models.Order{}, domain.Validation("INVALID_ORDER", "%s", err.Error())
	}
	if input.Status != nil && !input.Status.Valid() {
		return models.Order{}, domain.Validation("INVALID_STATUS", "unknown order status %q", *input.Status)
	}

	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}

	set := bson.M{}
	if input.Status != nil {
		set["status"] = *input.Status
	}
	if input.Notes != nil {
		set["notes"] = *input.Notes
	}

	if input.Items != nil || input.ShippingCost != nil || input.Discount != nil {
		items, shipping, disc := current.Items, current.ShippingCost, current.Discount
		if input.Items != nil {
			items = input.Items
		}
		if input.ShippingCost != nil {
			shipping = *input.ShippingCost
		}
		if input.Discount != nil {
			disc = *input.Discount
		}

		totals := ComputeTotals(items, shipping, disc)
		if totals.Total < 0 {
			return models.Order{}, domain.Validation("INVALID_ORDER", "discount exceeds the order amount")
		}
		set["items"] = items
		set["subtotal"] = totals.Subtotal
		set["shippingCost"] = totals.ShippingCost
		set["discount"] = totals.Discount
		set["total"] = totals.Total
	}

	if len(set) == 0 {
		return current, nil
	}
	updated, err := s.orders.Update(ctx, id, set)
	if err != nil {
		return models.Order{}, err
	}
	s.log.WithFields(logrus.Fields{"orderNumber": updated.OrderNumber, "status": updated.Status}).Info("order updated")
	return updated, nil
}

func (s *service) CreateContactRequest(ctx context.Context, input models.CreateContactInput) (models.ContactRequest, error) {
	if err := s.v.Struct(input); err != nil {
		return models.ContactRequest{}, domain.Validation("INVALID_REQUEST", "%s", err.Error())
	}

	number, err := s.seq.Next(ctx, PrefixRequest, models.CollectionContactRequests, s.contacts.Count)
	if err != nil {
		return models.ContactRequest{}, err
	}

	req := models.ContactRequest{
		RequestNumber: number,
		Type:          input.Type,
		Name:          input.Name,
		Email:         input.Email,
		Phone:         input.Phone,
		Company:       input.Company,
		Subject:       input.Subject,
		Message:       input.Message,
		Service:       input.Service,
		Status:        models.RequestNew,
	}
	if req.Type == "" {
		req.Type = "contact"
	}
	if err := s.contacts.Create(ctx, &req); err != nil {
		return models.ContactRequest{}, err
	}

	metrics.RecordCreated(req.Type)
	s.log.WithFields(logrus.Fields{"requestNumber": req.RequestNumber, "type": req.Type}).Info("contact request created")

	if s.cfg.AdminEmail != "" {
		subject := fmt.Sprintf("New %s request %s", req.Type, req.RequestNumber)
		body := fmt.Sprintf("%s <%s> wrote: %s", req.Name, req.Email, req.Message)
		s.notify(s.cfg.AdminEmail, subject, body, logrus.Fields{"requestNumber": req.RequestNumber})
	}
	return req, nil
}

func (s *service) UpdateContactStatus(ctx context.Context, id primitive.ObjectID, status models.RequestStatus) (models.ContactRequest, error) {
	if !status.Valid() {
		return models.ContactRequest{}, domain.Validation("INVALID_STATUS", "unknown request status %q", status)
	}
	return s.contacts.UpdateStatus(ctx, id, status)
}

// notify sends in the background. Failures are logged and counted, never
// returned to the caller.
func (s *service) notify(recipient, subject, body string, fields logrus.Fields) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, recipient, subject, body); err != nil {
			metrics.RecordNotificationFailure()
			s.log.WithFields(fields).WithError(domain.Dependency("NOTIFY_FAILED", err)).Warn("notification failed")
		}
	}()
}

func (s *service) Wait() {
	s.pending.Wait()
}
