// Package seed loads a development catalog and coupon set from YAML.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// File is the seed document
type File struct {
	Categories []CategorySeed `yaml:"categories"`
	Coupons    []CouponSeed   `yaml:"coupons"`
}

// CategorySeed is a category with the products created under it
type CategorySeed struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Products    []ProductSeed `yaml:"products"`
}

// ProductSeed describes a product in minor currency units
type ProductSeed struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Price       int64         `yaml:"price"`
	Variants    []VariantSeed `yaml:"variants"`
}

// VariantSeed is one size of a product
type VariantSeed struct {
	Size  string `yaml:"size"`
	Color string `yaml:"color"`
	Stock int    `yaml:"stock"`
}

// CouponSeed describes a coupon valid for ValidDays from load time
type CouponSeed struct {
	Code            string          `yaml:"code"`
	Description     string          `yaml:"description"`
	Type            string          `yaml:"type"`
	Amount          decimal.Decimal `yaml:"amount"`
	MinimumPurchase int64           `yaml:"minimum_purchase"`
	MaxDiscount     *int64          `yaml:"max_discount"`
	MaxUses         *int            `yaml:"max_uses"`
	ValidDays       int             `yaml:"valid_days"`
}

// Categories creates categories
type Categories interface {
	CreateCategory(ctx context.Context, req *catalog.CategoryCreateRequest) (*catalog.Category, error)
}

// Products creates products
type Products interface {
	CreateProduct(ctx context.Context, req *catalog.ProductCreateRequest) (*catalog.Product, error)
}

// Coupons creates coupons
type Coupons interface {
	CreateCoupon(ctx context.Context, req *coupon.CouponCreateRequest) (*coupon.Coupon, error)
}

// Summary counts what a load created and skipped
type Summary struct {
	Categories int
	Products   int
	Coupons    int
	Skipped    int
}

// Loader applies seed files through the domain services
type Loader struct {
	categories Categories
	products   Products
	coupons    Coupons
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewLoader creates a seed loader
func NewLoader(categories Categories, products Products, coupons Coupons, log logrus.FieldLogger) *Loader {
	return &Loader{
		categories: categories,
		products:   products,
		coupons:    coupons,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Parse decodes a seed document, rejecting unknown keys
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing seed YAML: %w", err)
	}
	return &f, nil
}

// LoadFile reads and applies the seed file at path
func (l *Loader) LoadFile(ctx context.Context, path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return l.Apply(ctx, f)
}

// Apply creates every entry that does not exist yet. Categories and coupons that
// already exist are skipped along with their products, so a seed can be re-run.
// Other failures are collected and returned together.
func (l *Loader) Apply(ctx context.Context, f *File) (*Summary, error) {
	summary := &Summary{}
	var errs error

	for _, cs := range f.Categories {
		category, err := l.categories.CreateCategory(ctx, &catalog.CategoryCreateRequest{
			Name:        cs.Name,
			Description: cs.Description,
		})
		if apperror.HasCode(err, apperror.CodeConflict) {
			summary.Skipped++
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("category %q: %w", cs.Name, err))
			continue
		}
		summary.Categories++

		for _, ps := range cs.Products {
			req := &catalog.ProductCreateRequest{
				Name:          ps.Name,
				Description:   ps.Description,
				CategoryID:    category.ID,
				OriginalPrice: ps.Price,
			}
			for _, v := range ps.Variants {
				req.Variants = append(req.Variants, catalog.VariantRequest{Size: v.Size, Color: v.Color, Stock: v.Stock})
			}
			if _, err := l.products.CreateProduct(ctx, req); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("product %q: %w", ps.Name, err))
				continue
			}
			summary.Products++
		}
	}

	now := l.now()
	for _, cs := range f.Coupons {
		days := cs.ValidDays
		if days <= 0 {
			days = 30
		}
		_, err := l.coupons.CreateCoupon(ctx, &coupon.CouponCreateRequest{
			Code:            cs.Code,
			Description:     cs.Description,
			DiscountType:    coupon.DiscountType(cs.Type),
			DiscountAmount:  cs.Amount,
			MinimumPurchase: cs.MinimumPurchase,
			MaxDiscount:     cs.MaxDiscount,
			MaxUses:         cs.MaxUses,
			StartDate:       now,
			EndDate:         now.AddDate(0, 0, days),
		})
		if apperror.HasCode(err, apperror.CodeConflict) {
			summary.Skipped++
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("coupon %q: %w", cs.Code, err))
			continue
		}
		summary.Coupons++
	}

	l.log.WithFields(logrus.Fields{
		"categories": summary.Categories,
		"products":   summary.Products,
		"coupons":    summary.Coupons,
		"skipped":    summary.Skipped,
	}).Info("seed applied")
	return summary, errs
}
