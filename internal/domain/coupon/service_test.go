package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/dbtest"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(dbtest.Open(t, &Coupon{}), logger.Discard())
}

func save20(maxUses *int) *CouponCreateRequest {
	now := time.Now().UTC()
	return &CouponCreateRequest{
		Code:            "save20",
		DiscountType:    DiscountPercentage,
		DiscountAmount:  decimal.NewFromInt(20),
		MinimumPurchase: 500,
		MaxDiscount:     int64Ptr(150),
		StartDate:       now.Add(-time.Hour),
		EndDate:         now.Add(24 * time.Hour),
		MaxUses:         maxUses,
	}
}

func TestDiscount(t *testing.T) {
	pct := &Coupon{DiscountType: DiscountPercentage, DiscountAmount: decimal.NewFromInt(20), MaxDiscount: int64Ptr(150)}
	assert.Equal(t, int64(150), Discount(pct, 1000), "capped by max discount")
	assert.Equal(t, int64(100), Discount(pct, 500))

	uncapped := &Coupon{DiscountType: DiscountPercentage, DiscountAmount: decimal.NewFromInt(20)}
	assert.Equal(t, int64(200), Discount(uncapped, 1000))

	fixed := &Coupon{DiscountType: DiscountFixed, DiscountAmount: decimal.NewFromInt(300)}
	assert.Equal(t, int64(300), Discount(fixed, 1000))
	assert.Equal(t, int64(200), Discount(fixed, 200), "never more than the total")
	assert.Equal(t, int64(0), Discount(fixed, 0))
}

func TestValidate(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	created, err := s.CreateCoupon(ctx, save20(nil))
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", created.Code)

	c, discount, err := s.Validate(ctx, " save20 ", 1000)
	require.NoError(t, err)
	assert.Equal(t, created.ID, c.ID)
	assert.Equal(t, int64(150), discount)

	_, _, err = s.Validate(ctx, "SAVE20", 400)
	require.Error(t, err)
	assert.True(t, apperror.HasReason(err, apperror.ReasonMinimumPurchaseNotMet))
	assert.Equal(t, map[string]any{"required_minimum": int64(500)}, apperror.As(err).Details())

	_, _, err = s.Validate(ctx, "NOPE", 1000)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
	assert.True(t, apperror.HasReason(err, apperror.ReasonCouponNotFound))
}

func TestValidateExpired(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.CreateCoupon(ctx, save20(nil))
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().UTC().Add(48 * time.Hour) }
	_, _, err = s.Validate(ctx, "SAVE20", 1000)
	assert.True(t, apperror.HasReason(err, apperror.ReasonCouponExpired))
}

func TestConsumeNeverExceedsMaxUses(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	c, err := s.CreateCoupon(ctx, save20(intPtr(2)))
	require.NoError(t, err)

	require.NoError(t, Consume(s.db, c.ID))
	require.NoError(t, Consume(s.db, c.ID))

	err = Consume(s.db, c.ID)
	assert.True(t, apperror.HasReason(err, apperror.ReasonCouponExhausted))

	reloaded, err := s.GetCoupon(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.UsedCount)

	_, _, err = s.Validate(ctx, "SAVE20", 1000)
	assert.True(t, apperror.HasReason(err, apperror.ReasonCouponExhausted))

	available, err := s.ListAvailable(ctx, 1000)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestCreateCouponRejectsDuplicatesAndBadTerms(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.CreateCoupon(ctx, save20(nil))
	require.NoError(t, err)

	_, err = s.CreateCoupon(ctx, save20(nil))
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))

	bad := save20(nil)
	bad.Code = "BIG"
	bad.DiscountAmount = decimal.NewFromInt(150)
	_, err = s.CreateCoupon(ctx, bad)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestListAvailableMarksEligibility(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.CreateCoupon(ctx, save20(nil))
	require.NoError(t, err)

	flat := save20(nil)
	flat.Code = "FLAT50"
	flat.DiscountType = DiscountFixed
	flat.DiscountAmount = decimal.NewFromInt(50)
	flat.MinimumPurchase = 0
	flat.MaxDiscount = nil
	_, err = s.CreateCoupon(ctx, flat)
	require.NoError(t, err)

	available, err := s.ListAvailable(ctx, 300)
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, "FLAT50", available[0].Code)
	assert.True(t, available[0].Eligible)
	assert.Equal(t, int64(50), available[0].EstimatedDiscount)
	assert.False(t, available[1].Eligible)
}

func TestUpdateCouponGuardsUsedCount(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	c, err := s.CreateCoupon(ctx, save20(intPtr(5)))
	require.NoError(t, err)
	require.NoError(t, Consume(s.db, c.ID))
	require.NoError(t, Consume(s.db, c.ID))

	_, err = s.UpdateCoupon(ctx, c.ID, &CouponUpdateRequest{MaxUses: intPtr(1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	updated, err := s.UpdateCoupon(ctx, c.ID, &CouponUpdateRequest{MaxUses: intPtr(0)})
	require.NoError(t, err)
	assert.Nil(t, updated.MaxUses)

	require.NoError(t, s.DeleteCoupon(ctx, c.ID))
	_, err = s.GetCoupon(ctx, c.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}
