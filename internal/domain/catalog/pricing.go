// internal/domain/catalog/pricing.go
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountedPrice applies a single offer to original. Offers not in effect leave the price unchanged.
func DiscountedPrice(original int64, offer *Offer, now time.Time) int64 {
	if original <= 0 || !offer.InEffect(now) || offer.DiscountValue.Sign() <= 0 {
		return original
	}

	var price int64
	switch offer.DiscountType {
	case DiscountFixed:
		price = original - offer.DiscountValue.Round(0).IntPart()
	default:
		discount := decimal.NewFromInt(original).Mul(offer.DiscountValue).Div(hundred).Round(0).IntPart()
		price = original - discount
	}

	if price < 0 {
		return 0
	}
	if price > original {
		return original
	}
	return price
}

// BestPrice evaluates the product and category offers independently and keeps the lower price
func BestPrice(original int64, productOffer, categoryOffer *Offer, now time.Time) int64 {
	best := DiscountedPrice(original, productOffer, now)
	if byCategory := DiscountedPrice(original, categoryOffer, now); byCategory < best {
		best = byCategory
	}
	return best
}

// SalePriceFor derives a product's sale price from its own offer and its category's offer.
// The product's CurrentOffer and Category.CurrentOffer must be loaded.
func SalePriceFor(p *Product, now time.Time) int64 {
	var categoryOffer *Offer
	if p.Category != nil {
		categoryOffer = p.Category.CurrentOffer
	}
	return BestPrice(p.OriginalPrice, p.CurrentOffer, categoryOffer, now)
}
