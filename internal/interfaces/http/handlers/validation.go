package handlers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

var couponCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

// RegisterValidators installs the custom binding tags used by request types
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	rules := map[string]validator.Func{
		"payment_method": validPaymentMethod,
		"coupon_code":    validCouponCode,
		"size":           validSize,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

func validPaymentMethod(fl validator.FieldLevel) bool {
	switch order.PaymentMethod(fl.Field().String()) {
	case order.PaymentMethodCOD, order.PaymentMethodOnline, order.PaymentMethodWallet:
		return true
	}
	return false
}

// coupon codes are matched case-insensitively and stored upper-cased
func validCouponCode(fl validator.FieldLevel) bool {
	return couponCodePattern.MatchString(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
}

func validSize(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	return s != "" && len(s) <= 10
}
