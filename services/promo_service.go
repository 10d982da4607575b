package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/energyhub/marketplace/models"
	"github.com/energyhub/marketplace/repository"
	"go.uber.org/zap"
)

// PromoService validates promo codes and computes checkout discounts.
// ApplyCode is read-only; RedeemCode counts the use once the order carrying
// the discount has been persisted.
type PromoService interface {
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError)
	DeactivateCoupon(ctx context.Context, code string) *ServiceError
	ApplyCode(ctx context.Context, code string, subtotal float64) (float64, *ServiceError)
	RedeemCode(ctx context.Context, code string) *ServiceError
}

type promoServiceImpl struct {
	repo   repository.CouponRepository
	logger *zap.Logger
}

// NewPromoService creates a new PromoService.
func NewPromoService(repo repository.CouponRepository, logger *zap.Logger) PromoService {
	return &promoServiceImpl{repo: repo, logger: logger}
}

// CreateCoupon creates a new promo code.
func (s *promoServiceImpl) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError) {
	if req.ExpiresAt.Before(time.Now()) {
		return nil, errValidation("Expiry date must be in the future")
	}
	if req.Type == models.CouponTypePercentage && req.Value > 100 {
		return nil, errValidation("Percentage discount cannot exceed 100")
	}

	coupon := &models.Coupon{
		Code:          strings.ToUpper(req.Code),
		Type:          req.Type,
		Value:         req.Value,
		MinOrderValue: req.MinOrderValue,
		UsageLimit:    req.UsageLimit,
		ExpiresAt:     req.ExpiresAt,
		Active:        true,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, &ServiceError{StatusCode: 409, Kind: KindConflict, Message: "Promo code already exists"}
		}
		s.logger.Error("Failed to create promo code", zap.Error(err))
		return nil, errPersistence("Failed to create promo code")
	}

	s.logger.Info("Promo code created", zap.String("code", coupon.Code), zap.String("type", string(coupon.Type)))
	return coupon, nil
}

// DeactivateCoupon deactivates a promo code by code.
func (s *promoServiceImpl) DeactivateCoupon(ctx context.Context, code string) *ServiceError {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if err.Error() == "record not found" {
			return errNotFound("Promo code not found")
		}
		s.logger.Error("Failed to deactivate promo code", zap.String("code", code), zap.Error(err))
		return errPersistence("Failed to deactivate promo code")
	}
	return nil
}

// ApplyCode validates a promo code against the order subtotal and returns
// the discount amount. It does not touch the usage count. An invalid code
// fails the checkout instead of silently pricing without it.
func (s *promoServiceImpl) ApplyCode(ctx context.Context, code string, subtotal float64) (float64, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return 0, errValidation("Promo code not found or inactive")
	}

	if time.Now().After(coupon.ExpiresAt) {
		return 0, errValidation("Promo code has expired")
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return 0, errValidation("Promo code usage limit reached")
	}
	if subtotal < coupon.MinOrderValue {
		return 0, errValidation(fmt.Sprintf("Minimum order value of %.2f required for this promo code", coupon.MinOrderValue))
	}

	var discount float64
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = subtotal * (coupon.Value / 100)
	case models.CouponTypeFlat:
		discount = coupon.Value
		if discount > subtotal {
			discount = subtotal
		}
	default:
		return 0, errPersistence("Unknown promo code type")
	}

	return discount, nil
}

// RedeemCode counts one use of an applied code.
func (s *promoServiceImpl) RedeemCode(ctx context.Context, code string) *ServiceError {
	if err := s.repo.IncrementUsedCount(ctx, code); err != nil {
		s.logger.Error("Failed to increment promo code usage", zap.String("code", code), zap.Error(err))
		return errPersistence("Failed to redeem promo code")
	}
	return nil
}
