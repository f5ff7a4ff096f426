// internal/domain/order/entity.go
package order

import (
	"slices"
	"time"
)

// OrderStatus represents the order status. Items reuse the same values.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusProcessing      OrderStatus = "processing"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusReturnRequested OrderStatus = "return_requested"
	OrderStatusReturned        OrderStatus = "returned"
	OrderStatusPaymentFailed   OrderStatus = "payment_failed"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentMethod is how the customer pays for an order
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodWallet PaymentMethod = "wallet"
)

// RefundStatus tracks money returned to the customer
type RefundStatus string

const (
	RefundStatusNotApplicable RefundStatus = "not_applicable"
	RefundStatusPending       RefundStatus = "pending"
	RefundStatusProcessed     RefundStatus = "processed"
	RefundStatusFailed        RefundStatus = "failed"
)

// ValidPaymentMethod reports whether m is a supported payment method
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodOnline, PaymentMethodWallet:
		return true
	}
	return false
}

// Order represents the order entity
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderCode       string          `gorm:"uniqueIndex;not null;size:20" json:"order_code"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	AddressID       uint            `gorm:"not null" json:"address_id"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod   PaymentMethod   `gorm:"not null;size:10;index" json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"not null;size:10" json:"payment_status"`
	Status          OrderStatus     `gorm:"not null;size:20;index" json:"status"`

	// Financial Information, all in minor units. AmountPaid follows item
	// cancellations until money is taken, then stays fixed and caps the sum of refunds.
	TotalAmount    int64        `gorm:"not null" json:"total_amount"`
	DiscountAmount int64        `gorm:"not null" json:"discount_amount"`
	AmountPaid     int64        `gorm:"not null" json:"amount_paid"`
	RefundAmount   int64        `gorm:"not null" json:"refund_amount"`
	RefundStatus   RefundStatus `gorm:"not null;size:20" json:"refund_status"`
	CouponCode     string       `gorm:"size:20" json:"coupon_code"`

	// Payment provider references
	ProviderOrderID   string `gorm:"size:100;index" json:"provider_order_id,omitempty"`
	ProviderPaymentID string `gorm:"size:100" json:"provider_payment_id,omitempty"`

	CancellationReason    string     `gorm:"type:text" json:"cancellation_reason,omitempty"`
	ReturnReason          string     `gorm:"type:text" json:"return_reason,omitempty"`
	ReturnRequestedAt     *time.Time `json:"return_requested_at,omitempty"`
	ReturnRejectionReason string     `gorm:"type:text" json:"return_rejection_reason,omitempty"`
	ReturnResolvedAt      *time.Time `json:"return_resolved_at,omitempty"`

	// Timestamps
	ProcessedAt *time.Time `json:"processed_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem represents items in an order
type OrderItem struct {
	ID                 uint         `gorm:"primaryKey" json:"id"`
	OrderID            uint         `gorm:"not null;index" json:"order_id"`
	ProductID          uint         `gorm:"not null;index" json:"product_id"`
	ProductName        string       `gorm:"not null;size:255" json:"product_name"`
	Size               string       `gorm:"not null;size:20" json:"size"`
	Quantity           int          `gorm:"not null" json:"quantity"`
	Price              int64        `gorm:"not null" json:"price"`
	Status             OrderStatus  `gorm:"not null;size:20" json:"status"`
	CancellationReason string       `gorm:"type:text" json:"cancellation_reason,omitempty"`
	RefundStatus       RefundStatus `gorm:"not null;size:20" json:"refund_status"`
	RefundAmount       int64        `gorm:"not null" json:"refund_amount"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null;size:20" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy uint        `gorm:"index" json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

// ShippingAddress is the delivery address captured when the order was placed
type ShippingAddress struct {
	Name         string `gorm:"size:200" json:"name"`
	Phone        string `gorm:"size:20" json:"phone"`
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:2" json:"country"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// Models lists the order tables in migration order
func Models() []any {
	return []any{&Order{}, &OrderItem{}, &OrderStatusHistory{}}
}

// RefundEligible reports whether money was actually taken for the order
func (o *Order) RefundEligible() bool {
	return (o.PaymentMethod == PaymentMethodOnline || o.PaymentMethod == PaymentMethodWallet) &&
		o.PaymentStatus == PaymentStatusPaid
}

// RefundableAmount is what can still be credited back
func (o *Order) RefundableAmount() int64 {
	if remaining := o.AmountPaid - o.RefundAmount; remaining > 0 {
		return remaining
	}
	return 0
}

// Subtotal is the line's price times quantity
func (i *OrderItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// cancellableItemStatuses are the line statuses a customer may still cancel
var cancellableItemStatuses = []OrderStatus{OrderStatusPending, OrderStatusProcessing}

// IsCancellable reports whether the item may still be cancelled on its own
func (i *OrderItem) IsCancellable() bool {
	return slices.Contains(cancellableItemStatuses, i.Status)
}
