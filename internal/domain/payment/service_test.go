package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/wallet"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/dbtest"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

const testSecret = "test_secret"

type fakeProvider struct {
	created []CreateOrderParams
	orders  map[string]*ProviderOrder
	fail    bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{orders: map[string]*ProviderOrder{}}
}

func (p *fakeProvider) CreateOrder(_ context.Context, params CreateOrderParams) (*ProviderOrder, error) {
	if p.fail {
		return nil, errors.New("gateway unavailable")
	}
	p.created = append(p.created, params)
	po := &ProviderOrder{
		ID:       fmt.Sprintf("order_%d", len(p.created)),
		Amount:   params.Amount,
		Currency: params.Currency,
		Receipt:  params.Receipt,
		Notes:    params.Notes,
	}
	p.orders[po.ID] = po
	return po, nil
}

func (p *fakeProvider) FetchOrder(_ context.Context, id string) (*ProviderOrder, error) {
	po, ok := p.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	return po, nil
}

func (p *fakeProvider) VerifySignature(orderID, paymentID, signature string) bool {
	return Signature(testSecret, orderID, paymentID) == signature
}

func (p *fakeProvider) KeyID() string { return "rzp_test_key" }

type fakeOrders struct {
	orders map[uint]*order.Order
}

func (f *fakeOrders) GetOrder(_ context.Context, userID, orderID uint) (*order.Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, apperror.NotFound("order not found")
	}
	return o, nil
}

func (f *fakeOrders) AttachProviderOrder(_ context.Context, orderID uint, providerOrderID string) error {
	f.orders[orderID].ProviderOrderID = providerOrderID
	return nil
}

func (f *fakeOrders) MarkPaymentPaid(_ context.Context, orderID uint, providerOrderID, providerPaymentID string) (*order.Order, error) {
	o := f.orders[orderID]
	o.PaymentStatus = order.PaymentStatusPaid
	o.Status = order.OrderStatusPending
	o.ProviderOrderID = providerOrderID
	o.ProviderPaymentID = providerPaymentID
	return o, nil
}

func (f *fakeOrders) MarkPaymentFailed(_ context.Context, orderID uint) (*order.Order, error) {
	o := f.orders[orderID]
	if o.PaymentStatus == order.PaymentStatusPaid {
		return nil, apperror.StateConflict("order is already paid")
	}
	o.PaymentStatus = order.PaymentStatusFailed
	return o, nil
}

func newPaymentService(t *testing.T) (*Service, *fakeProvider, *fakeOrders, *wallet.Service) {
	t.Helper()
	db := dbtest.Open(t, wallet.Models()...)
	wallets := wallet.NewService(db, logger.Discard(), nil)
	provider := newFakeProvider()
	orders := &fakeOrders{orders: map[uint]*order.Order{
		1: {ID: 1, UserID: 7, OrderCode: "ORD2603050001", PaymentMethod: order.PaymentMethodOnline,
			PaymentStatus: order.PaymentStatusPending, Status: order.OrderStatusPending, AmountPaid: 850},
		2: {ID: 2, UserID: 7, OrderCode: "ORD2603050002", PaymentMethod: order.PaymentMethodCOD,
			PaymentStatus: order.PaymentStatusPending, Status: order.OrderStatusPending, AmountPaid: 300},
	}}
	return NewService(orders, wallets, provider, "INR", logger.Discard()), provider, orders, wallets
}

func TestSignatureIsHexHMAC(t *testing.T) {
	sig := Signature(testSecret, "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, Signature(testSecret, "order_1", "pay_1"))
	assert.NotEqual(t, sig, Signature(testSecret, "order_1", "pay_2"))
	assert.NotEqual(t, sig, Signature("other", "order_1", "pay_1"))
}

func TestInitiateAndVerifyOrderPayment(t *testing.T) {
	s, provider, orders, _ := newPaymentService(t)
	ctx := context.Background()

	started, err := s.InitiateOrderPayment(ctx, orders.orders[1])
	require.NoError(t, err)
	assert.Equal(t, "order_1", started.ProviderOrderID)
	assert.Equal(t, int64(850), started.Amount)
	assert.Equal(t, "rzp_test_key", started.KeyID)
	assert.Equal(t, "ORD2603050001", provider.created[0].Receipt)
	assert.Equal(t, "order_1", orders.orders[1].ProviderOrderID)

	o, err := s.VerifyPayment(ctx, 7, &VerifyRequest{
		OrderID:           1,
		ProviderOrderID:   "order_1",
		ProviderPaymentID: "pay_1",
		Signature:         Signature(testSecret, "order_1", "pay_1"),
	})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, "pay_1", o.ProviderPaymentID)
}

func TestVerifyPaymentSignatureMismatchMarksFailure(t *testing.T) {
	s, _, orders, _ := newPaymentService(t)
	ctx := context.Background()

	_, err := s.InitiateOrderPayment(ctx, orders.orders[1])
	require.NoError(t, err)

	_, err = s.VerifyPayment(ctx, 7, &VerifyRequest{
		OrderID:           1,
		ProviderOrderID:   "order_1",
		ProviderPaymentID: "pay_1",
		Signature:         "forged",
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.True(t, apperror.HasReason(err, apperror.ReasonSignatureMismatch))
	assert.Equal(t, order.PaymentStatusFailed, orders.orders[1].PaymentStatus)

	_, err = s.VerifyPayment(ctx, 8, &VerifyRequest{OrderID: 1, ProviderOrderID: "order_1", ProviderPaymentID: "pay_1", Signature: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound), "orders of other users are invisible")
}

func TestRetryPaymentOnlyAfterFailure(t *testing.T) {
	s, provider, orders, _ := newPaymentService(t)
	ctx := context.Background()

	_, err := s.RetryPayment(ctx, 7, 1)
	assert.True(t, apperror.HasCode(err, apperror.CodeStateConflict))

	_, err = s.ReportFailure(ctx, 7, 1)
	require.NoError(t, err)

	started, err := s.RetryPayment(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(850), started.Amount)
	assert.Equal(t, started.ProviderOrderID, orders.orders[1].ProviderOrderID)

	_, err = s.RetryPayment(ctx, 7, 2)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "cash orders have no hosted payment")

	provider.fail = true
	_, err = s.RetryPayment(ctx, 7, 1)
	assert.True(t, apperror.HasCode(err, apperror.CodeProvider))
}

func TestTopUpCreditsOnceAndRejectsForeignOrders(t *testing.T) {
	s, _, _, wallets := newPaymentService(t)
	ctx := context.Background()

	started, err := s.CreateTopUp(ctx, 7, 2500)
	require.NoError(t, err)

	req := &TopUpVerifyRequest{
		ProviderOrderID:   started.ProviderOrderID,
		ProviderPaymentID: "pay_topup",
		Signature:         Signature(testSecret, started.ProviderOrderID, "pay_topup"),
	}

	_, err = s.VerifyTopUp(ctx, 8, req)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "top-up was opened by another user")

	txn, err := s.VerifyTopUp(ctx, 7, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), txn.Amount)
	assert.Equal(t, wallet.SourceRazorpay, txn.Source)

	_, err = s.VerifyTopUp(ctx, 7, req)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict), "a replayed callback cannot credit twice")

	w, err := wallets.GetWallet(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), w.Balance)

	req.Signature = "forged"
	_, err = s.VerifyTopUp(ctx, 7, req)
	assert.True(t, apperror.HasReason(err, apperror.ReasonSignatureMismatch))
}
