package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/dbtest"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"go.uber.org/multierr"
)

const document = `
categories:
  - name: Footwear
    description: Shoes and sandals
    products:
      - name: Canvas Sneaker
        price: 149900
        variants:
          - {size: "8", stock: 5}
          - {size: "9", stock: 3}
      - name: Broken Sandal
        price: 0
        variants:
          - {size: "8", stock: 1}
coupons:
  - code: welcome10
    type: percentage
    amount: 10
    max_discount: 15000
    valid_days: 14
  - code: x
    type: fixed
    amount: 100
`

func newLoader(t *testing.T) *Loader {
	t.Helper()
	db := dbtest.Open(t, append(catalog.Models(), &coupon.Coupon{})...)
	log := logger.Discard()
	return NewLoader(
		catalog.NewCategoryService(db, log),
		catalog.NewProductService(db, nil, log),
		coupon.NewService(db, log),
		log,
	)
}

func TestApplyCollectsFailuresAndSkipsExisting(t *testing.T) {
	l := newLoader(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	summary, err := l.LoadFile(context.Background(), path)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2, "zero-priced product and short coupon code")
	assert.Equal(t, &Summary{Categories: 1, Products: 1, Coupons: 1}, summary)

	again, err := l.LoadFile(context.Background(), path)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Equal(t, &Summary{Skipped: 2}, again)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("categories: []\nwarehouses: []\n"))
	assert.Error(t, err)

	f, err := Parse([]byte(document))
	require.NoError(t, err)
	require.Len(t, f.Coupons, 2)
	assert.Equal(t, "10", f.Coupons[0].Amount.String())
	assert.Equal(t, int64(15000), *f.Coupons[0].MaxDiscount)
}
