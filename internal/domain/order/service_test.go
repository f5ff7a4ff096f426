package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wallet"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/dbtest"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

var placedAt = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	wallets *wallet.Service
	carts   *cart.Service
	userID  uint
	address uint
	shirt   *catalog.Product
	cap     *catalog.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	models := append(catalog.Models(), cart.Models()...)
	models = append(models, &coupon.Coupon{})
	models = append(models, wallet.Models()...)
	models = append(models, user.Models()...)
	models = append(models, Models()...)
	db := dbtest.Open(t, models...)

	log := logger.Discard()
	wallets := wallet.NewService(db, log, nil)
	carts := cart.NewService(db, log, nil, 5)
	svc := NewService(db, log, nil, wallets, carts, CountSequencer{}, config.StoreConfig{
		OrderCodePrefix: "ORD",
		ReturnWindow:    7 * 24 * time.Hour,
	})
	svc.now = func() time.Time { return placedAt }

	u := user.User{Email: "asha@example.com", Password: "hash", FirstName: "Asha", IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	addr := user.Address{
		UserID:       u.ID,
		FirstName:    "Asha",
		LastName:     "Rao",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		PostalCode:   "560001",
		Country:      "IN",
		IsDefault:    true,
	}
	require.NoError(t, db.Create(&addr).Error)

	category := catalog.Category{Name: "Tops", NormalizedName: "tops", IsActive: true}
	require.NoError(t, db.Create(&category).Error)

	f := &fixture{db: db, svc: svc, wallets: wallets, carts: carts, userID: u.ID, address: addr.ID}
	f.shirt = f.product(t, category.ID, "Linen Shirt", 300)
	f.cap = f.product(t, category.ID, "Cotton Cap", 200)
	return f
}

func (f *fixture) product(t *testing.T, categoryID uint, name string, price int64) *catalog.Product {
	t.Helper()
	p := catalog.Product{
		Name:          name,
		CategoryID:    categoryID,
		OriginalPrice: price,
		SalePrice:     price,
		IsListed:      true,
		Variants:      []catalog.Variant{{Size: "M", Stock: 10}},
	}
	require.NoError(t, f.db.Create(&p).Error)
	return &p
}

func (f *fixture) input(method PaymentMethod, products ...*catalog.Product) *CreateOrderInput {
	in := &CreateOrderInput{UserID: f.userID, AddressID: f.address, PaymentMethod: method}
	for _, p := range products {
		in.Items = append(in.Items, LineInput{ProductID: p.ID, ProductName: p.Name, Size: "M", Quantity: 1, Price: p.SalePrice})
		in.TotalAmount += p.SalePrice
	}
	return in
}

func (f *fixture) topUp(t *testing.T, amount int64, paymentID string) {
	t.Helper()
	_, err := f.wallets.Credit(context.Background(), wallet.Entry{
		UserID:            f.userID,
		Amount:            amount,
		Source:            wallet.SourceRazorpay,
		ProviderPaymentID: paymentID,
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T) int64 {
	t.Helper()
	w, err := f.wallets.GetWallet(context.Background(), f.userID)
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) stock(t *testing.T, p *catalog.Product) int {
	t.Helper()
	var v catalog.Variant
	require.NoError(t, f.db.Where("product_id = ? AND size = ?", p.ID, "M").First(&v).Error)
	return v.Stock
}

func (f *fixture) advance(t *testing.T, orderID uint, statuses ...OrderStatus) {
	t.Helper()
	for _, status := range statuses {
		_, err := f.svc.UpdateOrderStatus(context.Background(), orderID, status, "", 1)
		require.NoError(t, err)
	}
}

func TestCreateOrderAssignsSequentialCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodCOD, f.shirt))
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodCOD, f.cap))
	require.NoError(t, err)

	assert.Equal(t, "ORD2603050001", first.OrderCode)
	assert.Equal(t, "ORD2603050002", second.OrderCode)

	assert.Equal(t, OrderStatusPending, first.Status)
	assert.Equal(t, PaymentStatusPending, first.PaymentStatus)
	assert.Equal(t, "Asha Rao", first.ShippingAddress.Name)
	assert.Equal(t, "Bengaluru", first.ShippingAddress.City)
	require.Len(t, first.Items, 1)
	require.Len(t, first.StatusHistory, 1)
	assert.Equal(t, 9, f.stock(t, f.shirt))

	f.svc.now = func() time.Time { return placedAt.AddDate(0, 0, 1) }
	next, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodCOD, f.cap))
	require.NoError(t, err)
	assert.Equal(t, "ORD2603060001", next.OrderCode, "the sequence restarts every day")
}

func TestCreateOrderValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.input(PaymentMethodCOD, f.shirt)
	in.TotalAmount = 999
	_, err := f.svc.CreateOrder(ctx, in)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	in = f.input(PaymentMethodCOD, f.shirt)
	in.DiscountAmount = in.TotalAmount + 1
	_, err = f.svc.CreateOrder(ctx, in)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	in = f.input(PaymentMethodCOD)
	_, err = f.svc.CreateOrder(ctx, in)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	in = f.input(PaymentMethodCOD, f.shirt)
	in.UserID = f.userID + 1
	_, err = f.svc.CreateOrder(ctx, in)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound), "address must belong to the user")

	in = f.input(PaymentMethodCOD, f.shirt)
	in.Items[0].Quantity = 11
	in.TotalAmount = 11 * f.shirt.SalePrice
	_, err = f.svc.CreateOrder(ctx, in)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, 10, f.stock(t, f.shirt))
}

func TestWalletOrderRejectedWhenBalanceShort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.topUp(t, 500, "pay_topup_1")

	_, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodWallet, f.shirt, f.cap, f.cap))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientFunds))
	assert.True(t, apperror.HasReason(err, apperror.ReasonInsufficientBalance))

	var count int64
	require.NoError(t, f.db.Model(&Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, int64(500), f.balance(t))
	assert.Equal(t, 10, f.stock(t, f.shirt), "stock reservation rolled back")
}

func TestWalletOrderCancelRefundsWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.topUp(t, 1000, "pay_topup_1")

	o, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodWallet, f.shirt, f.cap))
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, int64(500), o.AmountPaid)
	assert.Equal(t, int64(500), f.balance(t))

	_, err = f.svc.CancelOrder(ctx, f.userID, o.ID, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	o, err = f.svc.CancelOrder(ctx, f.userID, o.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Equal(t, int64(500), o.RefundAmount)
	assert.Equal(t, RefundStatusProcessed, o.RefundStatus)
	for _, item := range o.Items {
		assert.Equal(t, OrderStatusCancelled, item.Status)
		assert.Equal(t, item.Subtotal(), item.RefundAmount)
	}
	assert.Equal(t, int64(1000), f.balance(t))
	assert.Equal(t, 10, f.stock(t, f.shirt))

	_, err = f.svc.CancelOrder(ctx, f.userID, o.ID, "again")
	assert.True(t, apperror.HasReason(err, apperror.ReasonAlreadyCancelled))
	assert.Equal(t, int64(1000), f.balance(t))
}

func TestCancelOrderItemRecomputesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodCOD, f.shirt, f.cap))
	require.NoError(t, err)
	require.Len(t, o.Items, 2)
	assert.Equal(t, int64(500), o.TotalAmount)

	o, err = f.svc.CancelOrderItem(ctx, f.userID, o.ID, o.Items[0].ID, "wrong size")
	require.NoError(t, err)
	assert.Equal(t, int64(200), o.TotalAmount)
	assert.Equal(t, int64(200), o.AmountPaid)
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, OrderStatusCancelled, o.Items[0].Status)
	assert.Equal(t, int64(0), o.Items[0].RefundAmount, "cash on delivery is never refunded")
	assert.Equal(t, 10, f.stock(t, f.shirt))

	_, err = f.svc.CancelOrderItem(ctx, f.userID, o.ID, o.Items[0].ID, "wrong size")
	assert.True(t, apperror.HasCode(err, apperror.CodeStateConflict))
	assert.True(t, apperror.HasReason(err, apperror.ReasonAlreadyCancelled))

	var txns int64
	require.NoError(t, f.db.Model(&wallet.Transaction{}).Count(&txns).Error)
	assert.Zero(t, txns)

	o, err = f.svc.CancelOrderItem(ctx, f.userID, o.ID, o.Items[1].ID, "not needed")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Equal(t, int64(0), o.TotalAmount)
	assert.NotNil(t, o.CancelledAt)
}

func TestCancelOrderItemKeepsDiscountWithinTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.input(PaymentMethodCOD, f.shirt, f.cap)
	in.DiscountAmount = 250
	o, err := f.svc.CreateOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(250), o.AmountPaid)

	o, err = f.svc.CancelOrderItem(ctx, f.userID, o.ID, o.Items[0].ID, "wrong colour")
	require.NoError(t, err)
	assert.Equal(t, int64(200), o.TotalAmount)
	assert.Equal(t, int64(100), o.DiscountAmount, "discount keeps its share of the remaining goods")
	assert.Equal(t, int64(100), o.AmountPaid, "cash due follows the remaining items")
	assert.LessOrEqual(t, o.DiscountAmount, o.TotalAmount)

	o, err = f.svc.CancelOrderItem(ctx, f.userID, o.ID, o.Items[1].ID, "not needed")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Zero(t, o.TotalAmount)
	assert.Zero(t, o.DiscountAmount)
	assert.Zero(t, o.AmountPaid)
}

func TestCancelOrderItemKeepsAmountPaidOnceCharged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.topUp(t, 1000, "pay_topup_1")

	in := f.input(PaymentMethodWallet, f.shirt, f.cap)
	in.DiscountAmount = 250
	o, err := f.svc.CreateOrder(ctx, in)
	require.NoError(t, err)

	o, err = f.svc.CancelOrderItem(ctx, f.userID, o.ID, o.Items[1].ID, "not needed")
	require.NoError(t, err)
	assert.Equal(t, int64(300), o.TotalAmount)
	assert.Equal(t, int64(150), o.DiscountAmount)
	assert.Equal(t, int64(250), o.AmountPaid, "the charge already happened")
	assert.Equal(t, int64(200), o.RefundAmount)
	assert.Equal(t, int64(950), f.balance(t))
}

func TestOnlineOrderCannotStartPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.input(PaymentMethodOnline, f.shirt)
	in.PaymentStatus = PaymentStatusPaid
	_, err := f.svc.CreateOrder(ctx, in)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	var count int64
	require.NoError(t, f.db.Model(&Order{}).Count(&count).Error)
	assert.Zero(t, count)

	o, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodOnline, f.shirt))
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPending, o.PaymentStatus)

	o, err = f.svc.CancelOrder(ctx, f.userID, o.ID, "found it cheaper")
	require.NoError(t, err)
	assert.Zero(t, o.RefundAmount)
	assert.Equal(t, RefundStatusNotApplicable, o.RefundStatus)
	assert.Zero(t, f.balance(t), "an unpaid order refunds nothing")
}

func TestItemRefundsNeverExceedAmountPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.topUp(t, 1000, "pay_topup_1")

	in := f.input(PaymentMethodWallet, f.shirt, f.cap)
	in.DiscountAmount = 100
	o, err := f.svc.CreateOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(400), o.AmountPaid)
	assert.Equal(t, int64(600), f.balance(t))

	o, err = f.svc.CancelOrderItem(ctx, f.userID, o.ID, o.Items[0].ID, "too big")
	require.NoError(t, err)
	assert.Equal(t, int64(300), o.RefundAmount)

	o, err = f.svc.CancelOrderItem(ctx, f.userID, o.ID, o.Items[1].ID, "too small")
	require.NoError(t, err)
	assert.Equal(t, int64(400), o.RefundAmount)
	assert.Equal(t, int64(100), o.Items[1].RefundAmount, "clamped to what is left of the payment")
	assert.Equal(t, OrderStatusCancelled, o.Status)

	refunded, err := wallet.RefundedForOrder(f.db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.AmountPaid, refunded)
	assert.Equal(t, int64(1000), f.balance(t))
}

func TestAdminTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodCOD, f.shirt))
	require.NoError(t, err)

	_, err = f.svc.UpdateOrderStatus(ctx, o.ID, OrderStatusDelivered, "", 1)
	assert.True(t, apperror.HasReason(err, apperror.ReasonInvalidTransition))

	f.advance(t, o.ID, OrderStatusProcessing, OrderStatusShipped)

	_, err = f.svc.UpdateOrderStatus(ctx, o.ID, OrderStatusPending, "", 1)
	assert.True(t, apperror.HasCode(err, apperror.CodeStateConflict))
	assert.True(t, apperror.HasReason(err, apperror.ReasonInvalidTransition))

	o, err = f.svc.UpdateOrderStatus(ctx, o.ID, OrderStatusDelivered, "handed over", 1)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusDelivered, o.Status)
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus, "cash is collected on delivery")
	require.NotNil(t, o.DeliveredAt)
	require.NotNil(t, o.ShippedAt)
	assert.Equal(t, OrderStatusDelivered, o.Items[0].Status)
	assert.Len(t, o.StatusHistory, 4)

	_, err = f.svc.UpdateOrderStatus(ctx, o.ID, OrderStatusCancelled, "", 1)
	assert.True(t, apperror.HasReason(err, apperror.ReasonInvalidTransition))
}

func TestAdminCancelRefundsPaidOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.topUp(t, 1000, "pay_topup_1")

	o, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodWallet, f.shirt))
	require.NoError(t, err)
	f.advance(t, o.ID, OrderStatusProcessing, OrderStatusShipped)

	o, err = f.svc.UpdateOrderStatus(ctx, o.ID, OrderStatusCancelled, "courier lost parcel", 1)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Equal(t, "courier lost parcel", o.CancellationReason)
	assert.Equal(t, int64(1000), f.balance(t))
}

func TestReturnWindowAndResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.topUp(t, 1000, "pay_topup_1")

	o, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodWallet, f.shirt))
	require.NoError(t, err)

	_, err = f.svc.RequestReturn(ctx, f.userID, o.ID, "does not fit")
	assert.True(t, apperror.HasReason(err, apperror.ReasonInvalidTransition), "only delivered orders can be returned")

	f.advance(t, o.ID, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered)

	f.svc.now = func() time.Time { return placedAt.AddDate(0, 0, 9) }
	_, err = f.svc.RequestReturn(ctx, f.userID, o.ID, "does not fit")
	assert.True(t, apperror.HasCode(err, apperror.CodeStateConflict))
	assert.True(t, apperror.HasReason(err, apperror.ReasonReturnWindowExpired))

	f.svc.now = func() time.Time { return placedAt.AddDate(0, 0, 2) }
	o, err = f.svc.RequestReturn(ctx, f.userID, o.ID, "does not fit")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusReturnRequested, o.Status)
	assert.Equal(t, OrderStatusReturnRequested, o.Items[0].Status)
	assert.Equal(t, int64(700), f.balance(t), "requesting a return moves no money")

	_, err = f.svc.HandleReturnRequest(ctx, o.ID, false, "", 1)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	o, err = f.svc.HandleReturnRequest(ctx, o.ID, false, "item was worn", 1)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusDelivered, o.Status)
	assert.Equal(t, "item was worn", o.ReturnRejectionReason)
	assert.Equal(t, int64(700), f.balance(t))

	o, err = f.svc.RequestReturn(ctx, f.userID, o.ID, "still does not fit")
	require.NoError(t, err)
	o, err = f.svc.HandleReturnRequest(ctx, o.ID, true, "", 1)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusReturned, o.Status)
	assert.Equal(t, OrderStatusReturned, o.Items[0].Status)
	assert.Equal(t, int64(300), o.Items[0].RefundAmount)
	assert.Equal(t, int64(1000), f.balance(t))
	assert.Equal(t, 10, f.stock(t, f.shirt))

	_, err = f.svc.HandleReturnRequest(ctx, o.ID, true, "", 1)
	assert.True(t, apperror.HasReason(err, apperror.ReasonInvalidTransition))
}

func TestOnlinePaymentHooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.input(PaymentMethodOnline, f.shirt)
	in.PaymentStatus = PaymentStatusFailed
	o, err := f.svc.CreateOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaymentFailed, o.Status)
	assert.Equal(t, OrderStatusPaymentFailed, o.Items[0].Status)

	require.NoError(t, f.svc.AttachProviderOrder(ctx, o.ID, "order_abc"))

	o, err = f.svc.MarkPaymentPaid(ctx, o.ID, "order_abc", "pay_abc")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, "pay_abc", o.ProviderPaymentID)
	assert.Equal(t, OrderStatusPending, o.Items[0].Status)

	_, err = f.svc.MarkPaymentPaid(ctx, o.ID, "order_abc", "pay_abc")
	require.NoError(t, err, "confirming the same payment twice is harmless")

	_, err = f.svc.MarkPaymentFailed(ctx, o.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeStateConflict))

	pending, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodOnline, f.cap))
	require.NoError(t, err)
	pending, err = f.svc.MarkPaymentFailed(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusFailed, pending.PaymentStatus)
	assert.Equal(t, OrderStatusPending, pending.Status)
}

func TestCreateOrderConsumesCouponAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	maxUses := 1
	c := coupon.Coupon{
		Code:           "WELCOME10",
		DiscountType:   coupon.DiscountPercentage,
		DiscountAmount: decimal.NewFromInt(10),
		StartDate:      placedAt.Add(-time.Hour),
		EndDate:        placedAt.Add(time.Hour),
		MaxUses:        &maxUses,
		IsActive:       true,
	}
	require.NoError(t, f.db.Create(&c).Error)

	_, err := f.carts.AddItem(ctx, f.userID, &cart.AddToCartRequest{ProductID: f.shirt.ID, Size: "M", Quantity: 1})
	require.NoError(t, err)

	in := f.input(PaymentMethodCOD, f.shirt)
	in.CouponCode = "welcome10"
	in.DiscountAmount = 30
	o, err := f.svc.CreateOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", o.CouponCode)
	assert.Equal(t, int64(270), o.AmountPaid)

	var reloaded coupon.Coupon
	require.NoError(t, f.db.First(&reloaded, c.ID).Error)
	assert.Equal(t, 1, reloaded.UsedCount)

	current, err := f.carts.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, current.Items)

	_, err = f.svc.CreateOrder(ctx, in)
	assert.True(t, apperror.HasReason(err, apperror.ReasonCouponExhausted))
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodCOD, f.shirt))
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, f.input(PaymentMethodOnline, f.cap))
	require.NoError(t, err)

	mine, err := f.svc.ListUserOrders(ctx, f.userID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Pagination.Total)

	online, err := f.svc.ListOrders(ctx, &OrderListRequest{PaymentMethod: PaymentMethodOnline})
	require.NoError(t, err)
	require.Len(t, online.Orders, 1)
	assert.Equal(t, second.ID, online.Orders[0].ID)

	byCode, err := f.svc.ListOrders(ctx, &OrderListRequest{Search: "0002"})
	require.NoError(t, err)
	require.Len(t, byCode.Orders, 1)

	_, err = f.svc.ListOrders(ctx, &OrderListRequest{DateFrom: "05-03-2026"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	found, err := f.svc.GetOrderByCode(ctx, "ord2603050002")
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)

	_, err = f.svc.GetOrder(ctx, f.userID+1, second.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}
