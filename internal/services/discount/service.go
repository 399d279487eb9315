package discount

import (
	"context"
	"strings"
	"time"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/internal/metrics"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

type ApplyResult struct {
	OK           bool   `json:"ok"`
	NewUsedCount int64  `json:"newUsedCount"`
	Reason       string `json:"reason,omitempty"`
}

// Redemption is one reserved coupon use, held by an order being created.
type Redemption struct {
	CouponID primitive.ObjectID
	Code     string
	Discount float64
}

type Service interface {
	Validate(ctx context.Context, code string, orderTotal float64) (ValidationResult, error)
	Apply(ctx context.Context, code string) (ApplyResult, error)
	Redeem(ctx context.Context, code string, subtotal float64) (Redemption, error)
	Release(ctx context.Context, r Redemption) error

	Create(ctx context.Context, input models.CreateCouponInput) (models.Coupon, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Coupon, error)
	Update(ctx context.Context, id primitive.ObjectID, input models.UpdateCouponInput) (models.Coupon, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type service struct {
	coupons  repository.CouponRepository
	v        *validator.Validate
	log      logrus.FieldLogger
	currency string
	now      func() time.Time
}

type Option func(*service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(coupons repository.CouponRepository, log logrus.FieldLogger, currency string, opts ...Option) Service {
	s := &service{
		coupons:  coupons,
		v:        validator.New(),
		log:      log,
		currency: currency,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeCode is how codes are stored and looked up.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Validate(ctx context.Context, code string, orderTotal float64) (ValidationResult, error) {
	coupon, err := s.coupons.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		return ValidationResult{}, err
	}

	state := Evaluate(coupon, orderTotal, s.now())
	if state != StateValid {
		return ValidationResult{Valid: false, Reason: Reason(state, coupon, s.currency)}, nil
	}
	return ValidationResult{Valid: true, Discount: Calculate(coupon, orderTotal)}, nil
}

// Apply records one use of the coupon without an order total, so the
// minimum-amount rule is not checked here.
func (s *service) Apply(ctx context.Context, code string) (ApplyResult, error) {
	coupon, err := s.coupons.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		return ApplyResult{}, err
	}

	state := Evaluate(coupon, coupon.MinOrderAmount, s.now())
	if state != StateValid {
		metrics.RecordCouponRedemption(string(state))
		return ApplyResult{OK: false, Reason: Reason(state, coupon, s.currency)},
			domain.Conflict(state.Code(), "%s", Reason(state, coupon, s.currency))
	}

	used, err := s.reserve(ctx, coupon)
	if err != nil {
		return ApplyResult{OK: false, Reason: Reason(StateExhaustedUsage, coupon, s.currency)}, err
	}
	return ApplyResult{OK: true, NewUsedCount: used}, nil
}

func (s *service) Redeem(ctx context.Context, code string, subtotal float64) (Redemption, error) {
	coupon, err := s.coupons.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		return Redemption{}, err
	}

	state := Evaluate(coupon, subtotal, s.now())
	if state != StateValid {
		metrics.RecordCouponRedemption(string(state))
		return Redemption{}, domain.Conflict(state.Code(), "%s", Reason(state, coupon, s.currency))
	}
	if _, err := s.reserve(ctx, coupon); err != nil {
		return Redemption{}, err
	}

	return Redemption{
		CouponID: coupon.ID,
		Code:     coupon.Code,
		Discount: Calculate(coupon, subtotal),
	}, nil
}

func (s *service) reserve(ctx context.Context, coupon models.Coupon) (int64, error) {
	used, ok, err := s.coupons.IncrementUsage(ctx, coupon.ID)
	if err != nil {
		return 0, err
	}
	if !ok {
		metrics.RecordCouponRedemption(string(StateExhaustedUsage))
		return 0, domain.Conflict(StateExhaustedUsage.Code(), "%s", Reason(StateExhaustedUsage, coupon, s.currency))
	}
	metrics.RecordCouponRedemption(string(StateValid))
	s.log.WithFields(logrus.Fields{"code": coupon.Code, "usedCount": used}).Debug("coupon use recorded")
	return used, nil
}

func (s *service) Release(ctx context.Context, r Redemption) error {
	if err := s.coupons.DecrementUsage(ctx, r.CouponID); err != nil {
		s.log.WithError(err).WithField("code", r.Code).Error("failed to release coupon use")
		return err
	}
	metrics.RecordCouponRedemption("released")
	return nil
}

func (s *service) Create(ctx context.Context, input models.CreateCouponInput) (models.Coupon, error) {
	if err := s.v.Struct(input); err != nil {
		return models.Coupon{}, domain.Validation("INVALID_COUPON", "%s", err.Error())
	}
	if input.DiscountType == models.DiscountPercentage && input.DiscountValue > 100 {
		return models.Coupon{}, domain.Validation("INVALID_COUPON", "percentage discount cannot exceed 100")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	coupon := models.Coupon{
		Code:           NormalizeCode(input.Code),
		DescriptionEn:  input.DescriptionEn,
		DescriptionAr:  input.DescriptionAr,
		DiscountType:   input.DiscountType,
		DiscountValue:  input.DiscountValue,
		MinOrderAmount: input.MinOrderAmount,
		MaxDiscount:    input.MaxDiscount,
		UsageLimit:     input.UsageLimit,
		ValidFrom:      input.ValidFrom,
		ValidUntil:     input.ValidUntil,
		IsActive:       active,
	}
	if err := s.coupons.Create(ctx, &coupon); err != nil {
		return models.Coupon{}, err
	}
	s.log.WithField("code", coupon.Code).Info("coupon created")
	return coupon, nil
}

func (s *service) Get(ctx context.Context, id primitive.ObjectID) (models.Coupon, error) {
	return s.coupons.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id primitive.ObjectID, input models.UpdateCouponInput) (models.Coupon, error) {
	if err := s.v.Struct(input); err != nil {
		return models.Coupon{}, domain.Validation("INVALID_COUPON", "%s", err.Error())
	}
	current, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		return models.Coupon{}, err
	}

	set := bson.M{}
	if input.Code != nil {
		set["code"] = NormalizeCode(*input.Code)
	}
	if input.DescriptionEn != nil {
		set["description_en"] = *input.DescriptionEn
	}
	if input.DescriptionAr != nil {
		set["description_ar"] = *input.DescriptionAr
	}
	if input.DiscountType != nil {
		set["discountType"] = *input.DiscountType
		current.DiscountType = *input.DiscountType
	}
	if input.DiscountValue != nil {
		set["discountValue"] = *input.DiscountValue
		current.DiscountValue = *input.DiscountValue
	}
	if input.MinOrderAmount != nil {
		set["minOrderAmount"] = *input.MinOrderAmount
	}
	if input.MaxDiscount != nil {
		set["maxDiscount"] = *input.MaxDiscount
	}
	if input.UsageLimit != nil {
		if *input.UsageLimit < current.UsedCount {
			return models.Coupon{}, domain.Validation("INVALID_COUPON", "usageLimit cannot be lower than usedCount (%d)", current.UsedCount)
		}
		set["usageLimit"] = *input.UsageLimit
	}
	var unset []string
	if input.ClearMaxDiscount {
		unset = append(unset, "maxDiscount")
	}
	if input.ClearUsageLimit {
		unset = append(unset, "usageLimit")
	}
	if input.ValidFrom != nil {
		set["validFrom"] = *input.ValidFrom
		current.ValidFrom = *input.ValidFrom
	}
	if input.ValidUntil != nil {
		set["validUntil"] = *input.ValidUntil
		current.ValidUntil = *input.ValidUntil
	}
	if input.IsActive != nil {
		set["isActive"] = *input.IsActive
	}

	if current.ValidFrom.After(current.ValidUntil) {
		return models.Coupon{}, domain.Validation("INVALID_COUPON", "validFrom must not be after validUntil")
	}
	if current.DiscountType == models.DiscountPercentage && current.DiscountValue > 100 {
		return models.Coupon{}, domain.Validation("INVALID_COUPON", "percentage discount cannot exceed 100")
	}
	if len(set) == 0 && len(unset) == 0 {
		return current, nil
	}
	return s.coupons.Update(ctx, id, set, unset)
}

func (s *service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.coupons.Delete(ctx, id)
}
