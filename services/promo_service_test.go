package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/energyhub/marketplace/models"
	"github.com/energyhub/marketplace/repository"
	"github.com/energyhub/marketplace/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- Mock Coupon Repository ---

type mockCouponRepo struct {
	coupons map[string]*models.Coupon
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{coupons: make(map[string]*models.Coupon)}
}

func (m *mockCouponRepo) Create(_ context.Context, c *models.Coupon) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.coupons[c.Code] = c
	return nil
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	for _, c := range m.coupons {
		if c.Active && strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCouponRepo) IncrementUsedCount(_ context.Context, code string) error {
	for _, c := range m.coupons {
		if strings.EqualFold(c.Code, code) {
			c.UsedCount++
		}
	}
	return nil
}

func (m *mockCouponRepo) Deactivate(_ context.Context, code string) error {
	for _, c := range m.coupons {
		if strings.EqualFold(c.Code, code) {
			c.Active = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// --- Helpers ---

func newTestPromoService(repo repository.CouponRepository) services.PromoService {
	logger, _ := zap.NewDevelopment()
	return services.NewPromoService(repo, logger)
}

func activeCoupon(code string, couponType models.CouponType, value, minOrder float64, usageLimit, usedCount int) *models.Coupon {
	return &models.Coupon{
		ID:            uuid.New(),
		Code:          code,
		Type:          couponType,
		Value:         value,
		MinOrderValue: minOrder,
		UsageLimit:    usageLimit,
		UsedCount:     usedCount,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		Active:        true,
	}
}

// --- Tests ---

func TestCreateCoupon_Success(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestPromoService(repo)

	req := &models.CreateCouponRequest{
		Code:       "solar10",
		Type:       models.CouponTypePercentage,
		Value:      10,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
		UsageLimit: 100,
	}

	coupon, svcErr := svc.CreateCoupon(context.Background(), req)
	require.Nil(t, svcErr)
	assert.Equal(t, "SOLAR10", coupon.Code) // code is uppercased
	assert.True(t, coupon.Active)
}

func TestCreateCoupon_RejectsPastExpiry(t *testing.T) {
	svc := newTestPromoService(newMockCouponRepo())

	_, svcErr := svc.CreateCoupon(context.Background(), &models.CreateCouponRequest{
		Code:      "OLD",
		Type:      models.CouponTypeFlat,
		Value:     5,
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
}

func TestCreateCoupon_RejectsPercentageOver100(t *testing.T) {
	svc := newTestPromoService(newMockCouponRepo())

	_, svcErr := svc.CreateCoupon(context.Background(), &models.CreateCouponRequest{
		Code:      "TOOMUCH",
		Type:      models.CouponTypePercentage,
		Value:     150,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
}

func TestApplyCode_PercentageDiscount(t *testing.T) {
	repo := newMockCouponRepo()
	repo.coupons["SOLAR10"] = activeCoupon("SOLAR10", models.CouponTypePercentage, 10, 0, 0, 0)
	svc := newTestPromoService(repo)

	discount, svcErr := svc.ApplyCode(context.Background(), "solar10", 200)
	require.Nil(t, svcErr)
	assert.InDelta(t, 20, discount, 1e-9)
	assert.Equal(t, 0, repo.coupons["SOLAR10"].UsedCount, "applying is read-only")
}

func TestRedeemCode_CountsUse(t *testing.T) {
	repo := newMockCouponRepo()
	repo.coupons["SOLAR10"] = activeCoupon("SOLAR10", models.CouponTypePercentage, 10, 0, 0, 0)
	svc := newTestPromoService(repo)

	require.Nil(t, svc.RedeemCode(context.Background(), "solar10"))
	assert.Equal(t, 1, repo.coupons["SOLAR10"].UsedCount)
}

func TestApplyCode_FlatDiscountCappedAtSubtotal(t *testing.T) {
	repo := newMockCouponRepo()
	repo.coupons["FLAT50"] = activeCoupon("FLAT50", models.CouponTypeFlat, 50, 0, 0, 0)
	svc := newTestPromoService(repo)

	discount, svcErr := svc.ApplyCode(context.Background(), "FLAT50", 30)
	require.Nil(t, svcErr)
	assert.InDelta(t, 30, discount, 1e-9)
}

func TestApplyCode_MinOrderValue(t *testing.T) {
	repo := newMockCouponRepo()
	repo.coupons["BIG"] = activeCoupon("BIG", models.CouponTypeFlat, 25, 500, 0, 0)
	svc := newTestPromoService(repo)

	_, svcErr := svc.ApplyCode(context.Background(), "BIG", 200)
	require.NotNil(t, svcErr)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
}

func TestApplyCode_Expired(t *testing.T) {
	repo := newMockCouponRepo()
	c := activeCoupon("OLD", models.CouponTypeFlat, 5, 0, 0, 0)
	c.ExpiresAt = time.Now().Add(-time.Hour)
	repo.coupons["OLD"] = c
	svc := newTestPromoService(repo)

	_, svcErr := svc.ApplyCode(context.Background(), "OLD", 100)
	require.NotNil(t, svcErr)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
}

func TestApplyCode_UsageLimitReached(t *testing.T) {
	repo := newMockCouponRepo()
	repo.coupons["LIMITED"] = activeCoupon("LIMITED", models.CouponTypeFlat, 5, 0, 3, 3)
	svc := newTestPromoService(repo)

	_, svcErr := svc.ApplyCode(context.Background(), "LIMITED", 100)
	require.NotNil(t, svcErr)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
}

func TestApplyCode_UnknownCode(t *testing.T) {
	svc := newTestPromoService(newMockCouponRepo())

	_, svcErr := svc.ApplyCode(context.Background(), "NOPE", 100)
	require.NotNil(t, svcErr)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
}

func TestDeactivateCoupon(t *testing.T) {
	repo := newMockCouponRepo()
	repo.coupons["GONE"] = activeCoupon("GONE", models.CouponTypeFlat, 5, 0, 0, 0)
	svc := newTestPromoService(repo)

	require.Nil(t, svc.DeactivateCoupon(context.Background(), "GONE"))
	assert.False(t, repo.coupons["GONE"].Active)

	svcErr := svc.DeactivateCoupon(context.Background(), "MISSING")
	require.NotNil(t, svcErr)
	assert.Equal(t, services.KindNotFound, svcErr.Kind)
}
