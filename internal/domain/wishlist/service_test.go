package wishlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/dbtest"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

const shopper = uint(21)

func newWishlist(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	models := append(catalog.Models(), cart.Models()...)
	models = append(models, &coupon.Coupon{})
	models = append(models, Models()...)
	db := dbtest.Open(t, models...)
	carts := cart.NewService(db, logger.Discard(), nil, 5)
	return NewService(db, logger.Discard(), carts), db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, listed bool) *catalog.Product {
	t.Helper()
	var category catalog.Category
	err := db.Where("normalized_name = ?", "shoes").First(&category).Error
	if err != nil {
		category = catalog.Category{Name: "Shoes", NormalizedName: "shoes", IsActive: true}
		require.NoError(t, db.Create(&category).Error)
	}

	p := catalog.Product{
		Name:          name,
		CategoryID:    category.ID,
		OriginalPrice: price,
		SalePrice:     price,
		IsListed:      true,
		Variants:      []catalog.Variant{{Size: "9", Stock: 4}},
	}
	require.NoError(t, db.Create(&p).Error)
	if !listed {
		require.NoError(t, db.Model(&p).Update("is_listed", false).Error)
	}
	return &p
}

func TestAddIsIdempotentAndRequiresListedProduct(t *testing.T) {
	s, db := newWishlist(t)
	ctx := context.Background()
	runner := seedProduct(t, db, "Trail Runner", 2500, true)
	hidden := seedProduct(t, db, "Prototype", 9000, false)

	first, err := s.Add(ctx, shopper, runner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trail Runner", first.Name)
	assert.Equal(t, int64(2500), first.CurrentPrice)
	assert.True(t, first.IsAvailable)

	again, err := s.Add(ctx, shopper, runner.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = s.Add(ctx, shopper, hidden.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))

	list, err := s.List(ctx, shopper, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, int64(1), list.Pagination.Total)
	assert.Equal(t, 1, list.Summary.AvailableItems)
	assert.Equal(t, int64(2500), list.Summary.TotalValue)
}

func TestRemoveAndMoveToCart(t *testing.T) {
	s, db := newWishlist(t)
	ctx := context.Background()
	runner := seedProduct(t, db, "Trail Runner", 2500, true)
	loafer := seedProduct(t, db, "Loafer", 1800, true)

	_, err := s.Add(ctx, shopper, runner.ID)
	require.NoError(t, err)
	_, err = s.Add(ctx, shopper, loafer.ID)
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, shopper, runner.ID))
	assert.True(t, apperror.HasCode(s.Remove(ctx, shopper, runner.ID), apperror.CodeNotFound))

	c, err := s.MoveToCart(ctx, shopper, loafer.ID, &MoveToCartRequest{Size: "9", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(3600), c.TotalAmount)

	found, err := s.Contains(ctx, shopper, loafer.ID)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = s.MoveToCart(ctx, shopper, loafer.ID, &MoveToCartRequest{Size: "9", Quantity: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}
