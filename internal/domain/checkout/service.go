// internal/domain/checkout/service.go
package checkout

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/wallet"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// Carts is what checkout reads from the cart service
type Carts interface {
	GetCart(ctx context.Context, userID uint) (*cart.Cart, error)
	ValidateItems(ctx context.Context, userID uint) ([]cart.Issue, error)
}

// Orders creates orders and records payment failures
type Orders interface {
	CreateOrder(ctx context.Context, in *order.CreateOrderInput) (*order.Order, error)
	MarkPaymentFailed(ctx context.Context, orderID uint) (*order.Order, error)
}

// Payments opens hosted payments for online orders
type Payments interface {
	InitiateOrderPayment(ctx context.Context, o *order.Order) (*payment.Initiation, error)
}

// Wallets reports the balance shown at checkout
type Wallets interface {
	GetWallet(ctx context.Context, userID uint) (*wallet.Wallet, error)
}

// Service turns carts into orders
type Service struct {
	carts    Carts
	orders   Orders
	payments Payments
	wallets  Wallets
	log      logrus.FieldLogger
}

// NewService creates a new checkout service
func NewService(carts Carts, orders Orders, payments Payments, wallets Wallets, log logrus.FieldLogger) *Service {
	return &Service{
		carts:    carts,
		orders:   orders,
		payments: payments,
		wallets:  wallets,
		log:      log,
	}
}

// PlaceOrderRequest represents a checkout submission
type PlaceOrderRequest struct {
	AddressID     uint                `json:"address_id" binding:"required"`
	PaymentMethod order.PaymentMethod `json:"payment_method" binding:"required,payment_method"`
}

// PaymentOption represents an available payment method
type PaymentOption struct {
	Method    order.PaymentMethod `json:"method"`
	Name      string              `json:"name"`
	Available bool                `json:"available"`
}

// Summary is the checkout page: the cart, what blocks it and how it can be paid
type Summary struct {
	Cart           *cart.Cart      `json:"cart"`
	Issues         []cart.Issue    `json:"issues"`
	WalletBalance  int64           `json:"wallet_balance"`
	PaymentOptions []PaymentOption `json:"payment_options"`
}

// Result is a placed order plus the hosted payment to complete, if any
type Result struct {
	Order   *order.Order        `json:"order"`
	Payment *payment.Initiation `json:"payment,omitempty"`
}

// Summary returns the checkout view of the user's cart
func (s *Service) Summary(ctx context.Context, userID uint) (*Summary, error) {
	c, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	issues, err := s.carts.ValidateItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	w, err := s.wallets.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Cart:          c,
		Issues:        issues,
		WalletBalance: w.Balance,
		PaymentOptions: []PaymentOption{
			{Method: order.PaymentMethodCOD, Name: "Cash on Delivery", Available: true},
			{Method: order.PaymentMethodOnline, Name: "Pay Online", Available: true},
			{Method: order.PaymentMethodWallet, Name: "Wallet", Available: w.Balance >= c.FinalAmount},
		},
	}, nil
}

// PlaceOrder converts the user's cart into an order. Online orders also get a
// hosted payment; if the gateway cannot be reached the order is kept with a
// failed payment so it can be retried.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, req *PlaceOrderRequest) (*Result, error) {
	if !order.ValidPaymentMethod(req.PaymentMethod) {
		return nil, apperror.Validation("invalid payment method")
	}

	c, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, apperror.Validation("cart is empty").WithReason(apperror.ReasonEmptyCart)
	}

	issues, err := s.carts.ValidateItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, apperror.StateConflict("some cart items cannot be ordered").WithDetails(issues)
	}

	in := &order.CreateOrderInput{
		UserID:         userID,
		AddressID:      req.AddressID,
		PaymentMethod:  req.PaymentMethod,
		TotalAmount:    c.TotalAmount,
		DiscountAmount: c.DiscountAmount,
		CouponCode:     c.CouponCode,
		CouponConsumed: c.CouponCode != "",
	}
	for _, item := range c.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		in.Items = append(in.Items, order.LineInput{
			ProductID:   item.ProductID,
			ProductName: name,
			Size:        item.Size,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	o, err := s.orders.CreateOrder(ctx, in)
	if err != nil {
		return nil, err
	}

	result := &Result{Order: o}
	if o.PaymentMethod != order.PaymentMethodOnline || o.PaymentStatus != order.PaymentStatusPending || o.AmountPaid == 0 {
		return result, nil
	}

	initiation, err := s.payments.InitiateOrderPayment(ctx, o)
	if err != nil {
		s.log.WithError(err).WithField("order_code", o.OrderCode).Error("failed to open hosted payment")
		failed, markErr := s.orders.MarkPaymentFailed(ctx, o.ID)
		if markErr != nil {
			return nil, markErr
		}
		result.Order = failed
		return result, nil
	}
	o.ProviderOrderID = initiation.ProviderOrderID
	result.Payment = initiation
	return result, nil
}
