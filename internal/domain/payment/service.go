// internal/domain/payment/service.go
package payment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/wallet"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

const topUpPurpose = "wallet_topup"

// Orders is the slice of the order service payments drive
type Orders interface {
	GetOrder(ctx context.Context, userID, orderID uint) (*order.Order, error)
	AttachProviderOrder(ctx context.Context, orderID uint, providerOrderID string) error
	MarkPaymentPaid(ctx context.Context, orderID uint, providerOrderID, providerPaymentID string) (*order.Order, error)
	MarkPaymentFailed(ctx context.Context, orderID uint) (*order.Order, error)
}

// Wallets credits verified top-ups
type Wallets interface {
	Credit(ctx context.Context, e wallet.Entry) (*wallet.Transaction, error)
}

// Service handles hosted payments for orders and wallet top-ups
type Service struct {
	orders   Orders
	wallets  Wallets
	provider Provider
	currency string
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a new payment service
func NewService(orders Orders, wallets Wallets, provider Provider, currency string, log logrus.FieldLogger) *Service {
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		orders:   orders,
		wallets:  wallets,
		provider: provider,
		currency: currency,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Initiation is what a client needs to open the hosted checkout
type Initiation struct {
	OrderID         uint   `json:"order_id,omitempty"`
	OrderCode       string `json:"order_code,omitempty"`
	ProviderOrderID string `json:"razorpay_order_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Receipt         string `json:"receipt"`
	KeyID           string `json:"key_id"`
}

// VerifyRequest is the checkout callback for an order payment
type VerifyRequest struct {
	OrderID           uint   `json:"order_id" binding:"required"`
	ProviderOrderID   string `json:"razorpay_order_id" binding:"required"`
	ProviderPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature         string `json:"razorpay_signature" binding:"required"`
}

// TopUpRequest asks to add money to the wallet
type TopUpRequest struct {
	Amount int64 `json:"amount" binding:"required,min=100"`
}

// TopUpVerifyRequest is the checkout callback for a wallet top-up
type TopUpVerifyRequest struct {
	ProviderOrderID   string `json:"razorpay_order_id" binding:"required"`
	ProviderPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature         string `json:"razorpay_signature" binding:"required"`
}

// InitiateOrderPayment opens a hosted payment for what the customer owes on o
func (s *Service) InitiateOrderPayment(ctx context.Context, o *order.Order) (*Initiation, error) {
	if o.PaymentMethod != order.PaymentMethodOnline {
		return nil, apperror.Validation("order is not paid online")
	}
	if o.AmountPaid <= 0 {
		return nil, apperror.Validation("nothing to pay for this order")
	}

	po, err := s.provider.CreateOrder(ctx, CreateOrderParams{
		Amount:   o.AmountPaid,
		Currency: s.currency,
		Receipt:  o.OrderCode,
		Notes: map[string]string{
			"order_id":   strconv.FormatUint(uint64(o.ID), 10),
			"user_id":    strconv.FormatUint(uint64(o.UserID), 10),
			"order_code": o.OrderCode,
		},
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeProvider, err, "failed to create payment order")
	}

	if err := s.orders.AttachProviderOrder(ctx, o.ID, po.ID); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_code":        o.OrderCode,
		"provider_order_id": po.ID,
		"amount":            o.AmountPaid,
	}).Info("payment order created")

	return &Initiation{
		OrderID:         o.ID,
		OrderCode:       o.OrderCode,
		ProviderOrderID: po.ID,
		Amount:          o.AmountPaid,
		Currency:        s.currency,
		Receipt:         o.OrderCode,
		KeyID:           s.provider.KeyID(),
	}, nil
}

// VerifyPayment checks the callback signature and settles the order's payment status
func (s *Service) VerifyPayment(ctx context.Context, userID uint, req *VerifyRequest) (*order.Order, error) {
	o, err := s.onlineOrder(ctx, userID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.ProviderOrderID != "" && o.ProviderOrderID != req.ProviderOrderID {
		return nil, apperror.Validation("payment does not belong to this order").WithReason(apperror.ReasonSignatureMismatch)
	}

	if !s.provider.VerifySignature(req.ProviderOrderID, req.ProviderPaymentID, req.Signature) {
		if _, err := s.orders.MarkPaymentFailed(ctx, o.ID); err != nil && !apperror.HasCode(err, apperror.CodeStateConflict) {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{"order_code": o.OrderCode, "user_id": userID}).Warn("payment signature mismatch")
		return nil, apperror.Validation("payment verification failed").WithReason(apperror.ReasonSignatureMismatch)
	}

	return s.orders.MarkPaymentPaid(ctx, o.ID, req.ProviderOrderID, req.ProviderPaymentID)
}

// RetryPayment opens a new hosted payment for an order whose payment failed
func (s *Service) RetryPayment(ctx context.Context, userID, orderID uint) (*Initiation, error) {
	o, err := s.onlineOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != order.PaymentStatusFailed {
		return nil, apperror.StateConflict("only failed payments can be retried").WithReason(apperror.ReasonInvalidTransition)
	}
	if o.Status == order.OrderStatusCancelled {
		return nil, apperror.StateConflict("order is cancelled").WithReason(apperror.ReasonAlreadyCancelled)
	}
	return s.InitiateOrderPayment(ctx, o)
}

// ReportFailure records a failure the client observed in the hosted checkout
func (s *Service) ReportFailure(ctx context.Context, userID, orderID uint) (*order.Order, error) {
	if _, err := s.onlineOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return s.orders.MarkPaymentFailed(ctx, orderID)
}

// CreateTopUp opens a hosted payment that credits the wallet once verified
func (s *Service) CreateTopUp(ctx context.Context, userID uint, amount int64) (*Initiation, error) {
	if amount <= 0 {
		return nil, apperror.Validation("top-up amount must be positive")
	}

	receipt := fmt.Sprintf("topup_%d_%d", userID, s.now().Unix())
	po, err := s.provider.CreateOrder(ctx, CreateOrderParams{
		Amount:   amount,
		Currency: s.currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"purpose": topUpPurpose,
			"user_id": strconv.FormatUint(uint64(userID), 10),
		},
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeProvider, err, "failed to create payment order")
	}

	return &Initiation{
		ProviderOrderID: po.ID,
		Amount:          amount,
		Currency:        s.currency,
		Receipt:         receipt,
		KeyID:           s.provider.KeyID(),
	}, nil
}

// VerifyTopUp credits the amount of a verified top-up. The provider payment id
// is unique in the ledger, so a replayed callback is rejected.
func (s *Service) VerifyTopUp(ctx context.Context, userID uint, req *TopUpVerifyRequest) (*wallet.Transaction, error) {
	if !s.provider.VerifySignature(req.ProviderOrderID, req.ProviderPaymentID, req.Signature) {
		s.log.WithField("user_id", userID).Warn("top-up signature mismatch")
		return nil, apperror.Validation("payment verification failed").WithReason(apperror.ReasonSignatureMismatch)
	}

	po, err := s.provider.FetchOrder(ctx, req.ProviderOrderID)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeProvider, err, "failed to fetch payment order")
	}
	if po.Notes["purpose"] != topUpPurpose || po.Notes["user_id"] != strconv.FormatUint(uint64(userID), 10) {
		return nil, apperror.Validation("payment does not belong to this wallet").WithReason(apperror.ReasonSignatureMismatch)
	}

	return s.wallets.Credit(ctx, wallet.Entry{
		UserID:            userID,
		Amount:            po.Amount,
		Source:            wallet.SourceRazorpay,
		ProviderPaymentID: req.ProviderPaymentID,
		Description:       "Wallet top-up",
	})
}

func (s *Service) onlineOrder(ctx context.Context, userID, orderID uint) (*order.Order, error) {
	o, err := s.orders.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != order.PaymentMethodOnline {
		return nil, apperror.Validation("order is not paid online")
	}
	return o, nil
}
