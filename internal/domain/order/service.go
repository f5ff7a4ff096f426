// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wallet"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/pagination"
	"gorm.io/gorm"
)

const maxCodeAttempts = 3

var errCodeTaken = errors.New("order code already taken")

// Ledger moves wallet funds inside an order transaction
type Ledger interface {
	CreditWithin(tx *gorm.DB, e wallet.Entry) (*wallet.Transaction, error)
	DebitWithin(tx *gorm.DB, e wallet.Entry) (*wallet.Transaction, error)
	Record(txn *wallet.Transaction)
}

// CartClearer empties a user's cart inside an order transaction
type CartClearer interface {
	ClearWithin(tx *gorm.DB, userID uint) error
}

// Service handles order business logic
type Service struct {
	db           *gorm.DB
	log          logrus.FieldLogger
	metrics      *metrics.Metrics
	ledger       Ledger
	carts        CartClearer
	sequencer    Sequencer
	codePrefix   string
	returnWindow time.Duration
	now          func() time.Time
}

// NewService creates a new order service
func NewService(
	db *gorm.DB,
	log logrus.FieldLogger,
	m *metrics.Metrics,
	ledger Ledger,
	carts CartClearer,
	sequencer Sequencer,
	store config.StoreConfig,
) *Service {
	if sequencer == nil {
		sequencer = CountSequencer{}
	}
	prefix := store.OrderCodePrefix
	if prefix == "" {
		prefix = "ORD"
	}
	window := store.ReturnWindow
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return &Service{
		db:           db,
		log:          log,
		metrics:      m,
		ledger:       ledger,
		carts:        carts,
		sequencer:    sequencer,
		codePrefix:   prefix,
		returnWindow: window,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// LineInput is one order line as priced at checkout
type LineInput struct {
	ProductID   uint
	ProductName string
	Size        string
	Quantity    int
	Price       int64
}

// CreateOrderInput carries everything needed to persist an order
type CreateOrderInput struct {
	UserID         uint
	AddressID      uint
	PaymentMethod  PaymentMethod
	Items          []LineInput
	TotalAmount    int64
	DiscountAmount int64
	CouponCode     string
	// CouponConsumed is set when the cart already counted the coupon usage
	CouponConsumed bool
	// PaymentStatus may mark an online order as failed up front. Paid is only
	// reached through MarkPaymentPaid.
	PaymentStatus PaymentStatus
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page          int           `form:"page,default=1"`
	Limit         int           `form:"limit,default=20"`
	Status        OrderStatus   `form:"status"`
	PaymentMethod PaymentMethod `form:"payment_method"`
	UserID        uint          `form:"user_id"`
	Search        string        `form:"search"`
	SortOrder     string        `form:"sort_order,default=desc"`
	DateFrom      string        `form:"date_from"`
	DateTo        string        `form:"date_to"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order               `json:"orders"`
	Pagination pagination.Pagination `json:"pagination"`
}

// CreateOrder persists an order and its side effects in one transaction:
// stock reservation, order code, order rows, cart clearing, coupon usage and
// finally the wallet debit. Either all of them happen or none.
func (s *Service) CreateOrder(ctx context.Context, in *CreateOrderInput) (*Order, error) {
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	var (
		order *Order
		debit *wallet.Transaction
		err   error
	)
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		order, debit, err = s.createOnce(ctx, in)
		if !errors.Is(err, errCodeTaken) {
			break
		}
		s.log.WithField("attempt", attempt).Warn("order code collision, retrying")
	}
	if errors.Is(err, errCodeTaken) {
		return nil, apperror.Wrap(apperror.CodeConflict, err, "could not allocate an order code")
	}
	if err != nil {
		return nil, err
	}

	s.metrics.OrderPlaced(string(order.PaymentMethod))
	if in.CouponCode != "" && !in.CouponConsumed {
		s.metrics.CouponConsumed()
	}
	if debit != nil {
		s.ledger.Record(debit)
	}
	s.log.WithFields(logrus.Fields{
		"order_code":     order.OrderCode,
		"user_id":        order.UserID,
		"amount":         order.AmountPaid,
		"payment_method": order.PaymentMethod,
	}).Info("order placed")

	return s.GetOrder(ctx, order.UserID, order.ID)
}

func (s *Service) createOnce(ctx context.Context, in *CreateOrderInput) (*Order, *wallet.Transaction, error) {
	var (
		order *Order
		debit *wallet.Transaction
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()

		var address user.Address
		if err := tx.Where("id = ? AND user_id = ?", in.AddressID, in.UserID).First(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("address not found")
			}
			return fmt.Errorf("failed to load address: %w", err)
		}

		couponID, err := s.resolveCoupon(tx, in, now)
		if err != nil {
			return err
		}

		if err := catalog.ReserveStock(tx, stockLines(in.Items)); err != nil {
			return err
		}

		seq, err := s.sequencer.Next(tx, now)
		if err != nil {
			return err
		}

		order = buildOrder(in, &address, now)
		order.OrderCode = FormatOrderCode(s.codePrefix, now, seq)
		if err := tx.Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errCodeTaken
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		if s.carts != nil {
			if err := s.carts.ClearWithin(tx, in.UserID); err != nil {
				return err
			}
		}

		if couponID != 0 && !in.CouponConsumed {
			if err := coupon.Consume(tx, couponID); err != nil {
				return err
			}
		}

		if order.PaymentMethod == PaymentMethodWallet && order.AmountPaid > 0 {
			debit, err = s.ledger.DebitWithin(tx, wallet.Entry{
				UserID:      order.UserID,
				Amount:      order.AmountPaid,
				Source:      wallet.SourceWalletPayment,
				OrderID:     &order.ID,
				OrderCode:   order.OrderCode,
				Description: "Payment for order " + order.OrderCode,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, debit, nil
}

// resolveCoupon returns the id of the order's coupon. A coupon the cart has not
// consumed yet is validated against the order total.
func (s *Service) resolveCoupon(tx *gorm.DB, in *CreateOrderInput, now time.Time) (uint, error) {
	if in.CouponCode == "" {
		return 0, nil
	}
	if !in.CouponConsumed {
		c, _, err := coupon.ValidateWithin(tx, in.CouponCode, in.TotalAmount, now)
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	}

	var c coupon.Coupon
	if err := tx.Unscoped().Where("code = ?", coupon.NormalizeCode(in.CouponCode)).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.NotFound("coupon not found").WithReason(apperror.ReasonCouponNotFound)
		}
		return 0, fmt.Errorf("failed to load coupon: %w", err)
	}
	return c.ID, nil
}

func validateCreateInput(in *CreateOrderInput) error {
	if in == nil || len(in.Items) == 0 {
		return apperror.Validation("order must contain at least one item").WithReason(apperror.ReasonEmptyCart)
	}
	if in.AddressID == 0 {
		return apperror.Validation("address is required")
	}
	if !ValidPaymentMethod(in.PaymentMethod) {
		return apperror.Validation("invalid payment method")
	}

	var sum int64
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return apperror.Validation("quantity must be at least 1")
		}
		if line.Price < 0 {
			return apperror.Validation("price cannot be negative")
		}
		sum += line.Price * int64(line.Quantity)
	}
	if in.TotalAmount != sum {
		return apperror.Validation("total amount does not match the items").
			WithDetails(map[string]any{"expected": sum, "given": in.TotalAmount})
	}
	if in.DiscountAmount < 0 || in.DiscountAmount > in.TotalAmount {
		return apperror.Validation("discount must be between zero and the order total")
	}

	switch in.PaymentStatus {
	case "", PaymentStatusPending, PaymentStatusFailed:
	case PaymentStatusPaid:
		return apperror.Validation("orders cannot be created as paid; payment must be verified")
	default:
		return apperror.Validation("invalid payment status")
	}
	return nil
}

func buildOrder(in *CreateOrderInput, address *user.Address, now time.Time) *Order {
	status, paymentStatus := initialStates(in.PaymentMethod, in.PaymentStatus)

	items := make([]OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		items = append(items, OrderItem{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			Size:         line.Size,
			Quantity:     line.Quantity,
			Price:        line.Price,
			Status:       status,
			RefundStatus: RefundStatusNotApplicable,
		})
	}

	return &Order{
		UserID:    in.UserID,
		AddressID: address.ID,
		ShippingAddress: ShippingAddress{
			Name:         strings.TrimSpace(address.FirstName + " " + address.LastName),
			Phone:        address.Phone,
			AddressLine1: address.AddressLine1,
			AddressLine2: address.AddressLine2,
			City:         address.City,
			State:        address.State,
			PostalCode:   address.PostalCode,
			Country:      address.Country,
		},
		PaymentMethod:  in.PaymentMethod,
		PaymentStatus:  paymentStatus,
		Status:         status,
		TotalAmount:    in.TotalAmount,
		DiscountAmount: in.DiscountAmount,
		AmountPaid:     in.TotalAmount - in.DiscountAmount,
		RefundStatus:   RefundStatusNotApplicable,
		CouponCode:     coupon.NormalizeCode(in.CouponCode),
		CreatedAt:      now,
		UpdatedAt:      now,
		Items:          items,
		StatusHistory: []OrderStatusHistory{{
			Status:    status,
			Comment:   "Order placed",
			CreatedBy: in.UserID,
			CreatedAt: now,
		}},
	}
}

func initialStates(method PaymentMethod, requested PaymentStatus) (OrderStatus, PaymentStatus) {
	switch method {
	case PaymentMethodWallet:
		return OrderStatusPending, PaymentStatusPaid
	case PaymentMethodOnline:
		if requested == PaymentStatusFailed {
			return OrderStatusPaymentFailed, PaymentStatusFailed
		}
	}
	return OrderStatusPending, PaymentStatusPending
}

func stockLines(lines []LineInput) []catalog.StockLine {
	out := make([]catalog.StockLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, catalog.StockLine{ProductID: line.ProductID, Size: line.Size, Quantity: line.Quantity})
	}
	return out
}

func itemStockLines(items []OrderItem) []catalog.StockLine {
	out := make([]catalog.StockLine, 0, len(items))
	for _, item := range items {
		out = append(out, catalog.StockLine{ProductID: item.ProductID, Size: item.Size, Quantity: item.Quantity})
	}
	return out
}

// GetOrder returns one of the user's orders with items and history
func (s *Service) GetOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	return loadOrder(s.db.WithContext(ctx), orderID, userID)
}

// GetOrderByID returns any order, for administrators
func (s *Service) GetOrderByID(ctx context.Context, orderID uint) (*Order, error) {
	return loadOrder(s.db.WithContext(ctx), orderID, 0)
}

// GetOrderByCode returns the order with the given code
func (s *Service) GetOrderByCode(ctx context.Context, code string) (*Order, error) {
	var o Order
	err := withDetails(s.db.WithContext(ctx)).
		Where("order_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&o).Error
	if err != nil {
		return nil, orderLookupError(err)
	}
	return &o, nil
}

// ListUserOrders returns the user's orders newest first
func (s *Service) ListUserOrders(ctx context.Context, userID uint, page, limit int) (*OrderResponse, error) {
	return s.ListOrders(ctx, &OrderListRequest{Page: page, Limit: limit, UserID: userID})
}

// ListOrders returns orders matching the filters
func (s *Service) ListOrders(ctx context.Context, req *OrderListRequest) (*OrderResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit)
	query := s.db.WithContext(ctx).Model(&Order{})

	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.PaymentMethod != "" {
		query = query.Where("payment_method = ?", req.PaymentMethod)
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		query = query.Where("order_code LIKE ?", "%"+strings.ToUpper(search)+"%")
	}
	if req.DateFrom != "" {
		from, err := time.Parse("2006-01-02", req.DateFrom)
		if err != nil {
			return nil, apperror.Validation("date_from must be YYYY-MM-DD")
		}
		query = query.Where("created_at >= ?", from.UTC())
	}
	if req.DateTo != "" {
		to, err := time.Parse("2006-01-02", req.DateTo)
		if err != nil {
			return nil, apperror.Validation("date_to must be YYYY-MM-DD")
		}
		query = query.Where("created_at < ?", to.UTC().AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	direction := "DESC"
	if strings.EqualFold(req.SortOrder, "asc") {
		direction = "ASC"
	}

	var orders []Order
	if err := query.Preload("Items", orderedByID).
		Order("created_at " + direction).
		Order("id " + direction).
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &OrderResponse{Orders: orders, Pagination: pagination.New(page, limit, total)}, nil
}

// AttachProviderOrder records the hosted payment order created for an order
func (s *Service) AttachProviderOrder(ctx context.Context, orderID uint, providerOrderID string) error {
	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ?", orderID).
		Update("provider_order_id", providerOrderID)
	if result.Error != nil {
		return fmt.Errorf("failed to attach provider order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("order not found")
	}
	return nil
}

// MarkPaymentPaid records a verified payment. A payment_failed order returns to pending.
func (s *Service) MarkPaymentPaid(ctx context.Context, orderID uint, providerOrderID, providerPaymentID string) (*Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, orderID, 0)
		if err != nil {
			return err
		}
		if o.PaymentStatus == PaymentStatusPaid {
			if o.ProviderPaymentID == providerPaymentID {
				return nil
			}
			return apperror.StateConflict("order is already paid").WithReason(apperror.ReasonInvalidTransition)
		}
		if o.Status != OrderStatusPending && o.Status != OrderStatusPaymentFailed {
			return invalidTransition(o.Status, OrderStatusPending)
		}

		result := tx.Model(&Order{}).
			Where("id = ? AND payment_status <> ?", o.ID, PaymentStatusPaid).
			Updates(map[string]any{
				"payment_status":      PaymentStatusPaid,
				"status":              OrderStatusPending,
				"provider_order_id":   providerOrderID,
				"provider_payment_id": providerPaymentID,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark order paid: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.StateConflict("order is already paid").WithReason(apperror.ReasonInvalidTransition)
		}

		if o.Status == OrderStatusPaymentFailed {
			if err := tx.Model(&OrderItem{}).
				Where("order_id = ? AND status = ?", o.ID, OrderStatusPaymentFailed).
				Update("status", OrderStatusPending).Error; err != nil {
				return fmt.Errorf("failed to update order items: %w", err)
			}
			if err := addHistory(tx, o.ID, OrderStatusPending, "Payment received", o.UserID, s.now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_id": orderID, "provider_payment_id": providerPaymentID}).Info("order payment confirmed")
	return s.GetOrderByID(ctx, orderID)
}

// MarkPaymentFailed records a failed payment attempt. The order status is left as it is.
func (s *Service) MarkPaymentFailed(ctx context.Context, orderID uint) (*Order, error) {
	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_status <> ?", orderID, PaymentStatusPaid).
		Update("payment_status", PaymentStatusFailed)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark payment failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		o, err := s.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if o.PaymentStatus == PaymentStatusPaid {
			return nil, apperror.StateConflict("order is already paid").WithReason(apperror.ReasonInvalidTransition)
		}
	}

	s.log.WithField("order_id", orderID).Warn("order payment failed")
	return s.GetOrderByID(ctx, orderID)
}

func withDetails(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Items", orderedByID).Preload("StatusHistory", orderedByID)
}

func orderedByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// loadOrder fetches an order with its items; userID 0 skips the ownership check
func loadOrder(tx *gorm.DB, orderID, userID uint) (*Order, error) {
	query := withDetails(tx).Where("id = ?", orderID)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var o Order
	if err := query.First(&o).Error; err != nil {
		return nil, orderLookupError(err)
	}
	return &o, nil
}

func orderLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("order not found")
	}
	return fmt.Errorf("failed to retrieve order: %w", err)
}

func addHistory(tx *gorm.DB, orderID uint, status OrderStatus, comment string, actorID uint, now time.Time) error {
	entry := OrderStatusHistory{
		OrderID:   orderID,
		Status:    status,
		Comment:   comment,
		CreatedBy: actorID,
		CreatedAt: now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	return nil
}

func invalidTransition(from, to OrderStatus) error {
	return apperror.Newf(apperror.CodeStateConflict, "cannot change order status from %s to %s", from, to).
		WithReason(apperror.ReasonInvalidTransition).
		WithDetails(map[string]any{"from": from, "to": to})
}
