package catalog

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
	"github.com/your-org/storefront-backend/internal/pkg/storage"
	"gorm.io/gorm"
)

type fakeImageStore struct {
	saved int
}

func (f *fakeImageStore) Save(_ context.Context, _, contentType string, _ []byte) (*storage.Object, error) {
	if contentType != "image/png" {
		return nil, storage.ErrUnsupportedType
	}
	f.saved++
	return &storage.Object{ID: "obj", URL: "/uploads/obj.png"}, nil
}

type catalogFixture struct {
	db         *gorm.DB
	categories *CategoryService
	products   *ProductService
	offers     *OfferService
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	db := dbtest.Open(t, Models()...)
	log := logger.Discard()
	return &catalogFixture{
		db:         db,
		categories: NewCategoryService(db, log),
		products:   NewProductService(db, &fakeImageStore{}, log),
		offers:     NewOfferService(db, log),
	}
}

func (f *catalogFixture) category(t *testing.T, name string) *Category {
	t.Helper()
	c, err := f.categories.CreateCategory(context.Background(), &CategoryCreateRequest{Name: name})
	require.NoError(t, err)
	return c
}

func (f *catalogFixture) product(t *testing.T, categoryID uint, price int64) *Product {
	t.Helper()
	p, err := f.products.CreateProduct(context.Background(), &ProductCreateRequest{
		Name:          "Linen Shirt",
		CategoryID:    categoryID,
		OriginalPrice: price,
		Variants:      []VariantRequest{{Size: "m", Color: "white", Stock: 5}, {Size: "L", Stock: 2}},
	})
	require.NoError(t, err)
	return p
}

func (f *catalogFixture) salePrice(t *testing.T, productID uint) int64 {
	t.Helper()
	var p Product
	require.NoError(t, f.db.First(&p, productID).Error)
	return p.SalePrice
}

func percentOffer(target OfferTarget, id uint, value string) *OfferCreateRequest {
	now := time.Now().UTC()
	return &OfferCreateRequest{
		Name:           "Summer",
		DiscountType:   DiscountPercentage,
		DiscountValue:  decimal.RequireFromString(value),
		ApplicableType: target,
		ApplicableID:   id,
		StartDate:      now.Add(-time.Hour),
		EndDate:        now.Add(48 * time.Hour),
	}
}

func TestCategoryNameIsUniqueIgnoringCaseAndSpaces(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	first := f.category(t, "Summer  Wear")
	assert.Equal(t, "Summer Wear", first.Name)

	_, err := f.categories.CreateCategory(ctx, &CategoryCreateRequest{Name: " summer wear "})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
	assert.True(t, apperror.HasReason(err, apperror.ReasonDuplicateName))

	require.NoError(t, f.categories.DeleteCategory(ctx, first.ID))
	_, err = f.categories.CreateCategory(ctx, &CategoryCreateRequest{Name: "SUMMER WEAR"})
	assert.NoError(t, err, "deleted categories do not reserve their name")
}

func TestCategoryVisibility(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	shirts := f.category(t, "Shirts")
	hidden := f.category(t, "Hidden")
	require.NoError(t, f.categories.SetCategoryActive(ctx, hidden.ID, false))

	public, err := f.categories.ListCategories(ctx, false)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, shirts.ID, public[0].ID)

	all, err := f.categories.ListCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.categories.GetCategory(ctx, hidden.ID, false)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}

func TestCreateProductRequiresVariantAndCategory(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	c := f.category(t, "Shirts")

	_, err := f.products.CreateProduct(ctx, &ProductCreateRequest{Name: "Tee", CategoryID: c.ID, OriginalPrice: 500})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.products.CreateProduct(ctx, &ProductCreateRequest{
		Name: "Tee", CategoryID: c.ID, OriginalPrice: 500,
		Variants: []VariantRequest{{Size: "M", Stock: 1}, {Size: "m", Stock: 2}},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "sizes are unique per product")

	_, err = f.products.CreateProduct(ctx, &ProductCreateRequest{
		Name: "Tee", CategoryID: 999, OriginalPrice: 500,
		Variants: []VariantRequest{{Size: "M", Stock: 1}},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))

	p := f.product(t, c.ID, 1000)
	assert.Equal(t, int64(1000), p.SalePrice)
	assert.True(t, p.IsListed)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "M", p.Variants[0].Size)
	assert.Equal(t, 7, p.TotalStock())
}

func TestOfferRepricingAndUniqueness(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	c := f.category(t, "Shirts")
	p := f.product(t, c.ID, 1000)

	productOffer, err := f.offers.CreateOffer(ctx, percentOffer(OfferTargetProduct, p.ID, "10"))
	require.NoError(t, err)
	assert.Equal(t, int64(900), f.salePrice(t, p.ID))

	_, err = f.offers.CreateOffer(ctx, percentOffer(OfferTargetProduct, p.ID, "30"))
	require.Error(t, err)
	assert.True(t, apperror.HasReason(err, apperror.ReasonDuplicateOffer))

	categoryOffer, err := f.offers.CreateOffer(ctx, percentOffer(OfferTargetCategory, c.ID, "20"))
	require.NoError(t, err)
	assert.Equal(t, int64(800), f.salePrice(t, p.ID), "the larger discount wins")

	require.NoError(t, f.offers.DeleteOffer(ctx, categoryOffer.ID))
	assert.Equal(t, int64(900), f.salePrice(t, p.ID))

	var reloaded Category
	require.NoError(t, f.db.First(&reloaded, c.ID).Error)
	assert.Nil(t, reloaded.CurrentOfferID)

	require.NoError(t, f.offers.DeleteOffer(ctx, productOffer.ID))
	assert.Equal(t, int64(1000), f.salePrice(t, p.ID))

	_, err = f.offers.CreateOffer(ctx, percentOffer(OfferTargetProduct, p.ID, "30"))
	assert.NoError(t, err, "a deleted offer frees its target")
}

func TestDeactivatedOfferFreesTarget(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	c := f.category(t, "Shirts")
	p := f.product(t, c.ID, 1000)

	first, err := f.offers.CreateOffer(ctx, percentOffer(OfferTargetProduct, p.ID, "10"))
	require.NoError(t, err)

	inactive := false
	_, err = f.offers.UpdateOffer(ctx, first.ID, &OfferUpdateRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), f.salePrice(t, p.ID))

	second, err := f.offers.CreateOffer(ctx, percentOffer(OfferTargetProduct, p.ID, "25"))
	require.NoError(t, err)
	assert.Equal(t, int64(750), f.salePrice(t, p.ID))

	active := true
	_, err = f.offers.UpdateOffer(ctx, first.ID, &OfferUpdateRequest{IsActive: &active})
	assert.True(t, apperror.HasReason(err, apperror.ReasonDuplicateOffer))

	var reloaded Product
	require.NoError(t, f.db.First(&reloaded, p.ID).Error)
	require.NotNil(t, reloaded.CurrentOfferID)
	assert.Equal(t, second.ID, *reloaded.CurrentOfferID)
}

func TestOfferValidation(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	c := f.category(t, "Shirts")

	req := percentOffer(OfferTargetCategory, c.ID, "120")
	_, err := f.offers.CreateOffer(ctx, req)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	req = percentOffer(OfferTargetCategory, c.ID, "10")
	req.EndDate = req.StartDate
	_, err = f.offers.CreateOffer(ctx, req)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.offers.CreateOffer(ctx, percentOffer(OfferTargetProduct, 42, "10"))
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}

func TestDeleteCategoryDropsItsOfferFromPrices(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	c := f.category(t, "Shirts")
	p := f.product(t, c.ID, 1000)

	_, err := f.offers.CreateOffer(ctx, percentOffer(OfferTargetCategory, c.ID, "50"))
	require.NoError(t, err)
	assert.Equal(t, int64(500), f.salePrice(t, p.ID))

	require.NoError(t, f.categories.DeleteCategory(ctx, c.ID))
	assert.Equal(t, int64(1000), f.salePrice(t, p.ID))

	_, err = FindPurchasable(f.db, p.ID, time.Now().UTC())
	assert.True(t, apperror.HasReason(err, apperror.ReasonProductUnavailable))
}

func TestListProductsFiltersAndHidesUnlisted(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	c := f.category(t, "Shirts")
	cheap := f.product(t, c.ID, 500)
	pricey := f.product(t, c.ID, 2000)
	hidden := f.product(t, c.ID, 800)
	require.NoError(t, f.products.SetProductListed(ctx, hidden.ID, false))

	res, err := f.products.ListProducts(ctx, &ProductListRequest{SortBy: "price"})
	require.NoError(t, err)
	require.Len(t, res.Products, 2)
	assert.Equal(t, cheap.ID, res.Products[0].ID)
	assert.Equal(t, pricey.ID, res.Products[1].ID)
	assert.Equal(t, int64(2), res.Pagination.Total)

	res, err = f.products.ListProducts(ctx, &ProductListRequest{MinPrice: 1000})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, pricey.ID, res.Products[0].ID)

	res, err = f.products.ListProducts(ctx, &ProductListRequest{IncludeHidden: true})
	require.NoError(t, err)
	assert.Len(t, res.Products, 3)

	_, err = f.products.GetProduct(ctx, hidden.ID, false)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}

func TestUpdateProductRepricesAndReplacesVariants(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	c := f.category(t, "Shirts")
	p := f.product(t, c.ID, 1000)
	_, err := f.offers.CreateOffer(ctx, percentOffer(OfferTargetProduct, p.ID, "10"))
	require.NoError(t, err)

	price := int64(2000)
	updated, err := f.products.UpdateProduct(ctx, p.ID, &ProductUpdateRequest{
		OriginalPrice: &price,
		Variants:      []VariantRequest{{Size: "XL", Stock: 9}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1800), updated.SalePrice)
	require.Len(t, updated.Variants, 1)
	assert.Equal(t, "XL", updated.Variants[0].Size)
}

func TestReserveAndReleaseStock(t *testing.T) {
	f := newCatalogFixture(t)
	c := f.category(t, "Shirts")
	p := f.product(t, c.ID, 1000)

	err := f.db.Transaction(func(tx *gorm.DB) error {
		return ReserveStock(tx, []StockLine{{ProductID: p.ID, Size: "M", Quantity: 3}})
	})
	require.NoError(t, err)

	err = f.db.Transaction(func(tx *gorm.DB) error {
		return ReserveStock(tx, []StockLine{
			{ProductID: p.ID, Size: "M", Quantity: 1},
			{ProductID: p.ID, Size: "L", Quantity: 3},
		})
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.True(t, apperror.HasReason(err, apperror.ReasonOutOfStock))

	var m Variant
	require.NoError(t, f.db.Where("product_id = ? AND size = ?", p.ID, "M").First(&m).Error)
	assert.Equal(t, 2, m.Stock, "a failed reservation rolls back every line")

	require.NoError(t, ReleaseStock(f.db, []StockLine{{ProductID: p.ID, Size: "M", Quantity: 3}}))
	require.NoError(t, f.db.Where("product_id = ? AND size = ?", p.ID, "M").First(&m).Error)
	assert.Equal(t, 5, m.Stock)
}

func TestAddProductImage(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	c := f.category(t, "Shirts")
	p := f.product(t, c.ID, 1000)

	img, err := f.products.AddProductImage(ctx, p.ID, "front.png", "image/png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/obj.png", img.URL)

	_, err = f.products.AddProductImage(ctx, p.ID, "front.gif", "image/gif", []byte("x"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	loaded, err := f.products.GetProduct(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Len(t, loaded.Images, 1)
}
