// internal/domain/order/cancel.go
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/wallet"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// refund is a committed wallet credit waiting to be logged and counted
type refund struct {
	trigger string
	txn     *wallet.Transaction
}

// CancelOrder cancels a pending order on behalf of its owner
func (s *Service) CancelOrder(ctx context.Context, userID, orderID uint, reason string) (*Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("cancellation reason is required")
	}

	var credit *refund
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, orderID, userID)
		if err != nil {
			return err
		}
		credit, err = s.cancelWithin(tx, o, []OrderStatus{OrderStatusPending}, reason, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.settle(credit)
	return s.GetOrder(ctx, userID, orderID)
}

// cancelWithin cancels the whole order if its status is still one of from.
// Active items are cancelled and restocked; paid orders are refunded what remains of amount_paid.
func (s *Service) cancelWithin(tx *gorm.DB, o *Order, from []OrderStatus, reason string, actorID uint) (*refund, error) {
	now := s.now()

	result := tx.Model(&Order{}).
		Where("id = ? AND status IN ?", o.ID, from).
		Updates(map[string]any{
			"status":              OrderStatusCancelled,
			"cancellation_reason": reason,
			"cancelled_at":        now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if o.Status == OrderStatusCancelled {
			return nil, alreadyCancelled("order is already cancelled")
		}
		return nil, invalidTransition(o.Status, OrderStatusCancelled)
	}

	var active []OrderItem
	for _, item := range o.Items {
		if item.Status != OrderStatusCancelled {
			active = append(active, item)
		}
	}

	eligible := o.RefundEligible()
	itemUpdates := map[string]any{
		"status":              OrderStatusCancelled,
		"cancellation_reason": reason,
		"refund_status":       RefundStatusNotApplicable,
	}
	if eligible {
		itemUpdates["refund_status"] = RefundStatusProcessed
		itemUpdates["refund_amount"] = gorm.Expr("price * quantity")
	}
	if err := tx.Model(&OrderItem{}).
		Where("order_id = ? AND status <> ?", o.ID, OrderStatusCancelled).
		Updates(itemUpdates).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel order items: %w", err)
	}

	if err := catalog.ReleaseStock(tx, itemStockLines(active)); err != nil {
		return nil, err
	}

	var credit *refund
	if eligible {
		txn, err := s.refundWithin(tx, o, o.RefundableAmount(), "Refund for cancelled order "+o.OrderCode)
		if err != nil {
			return nil, err
		}
		if txn != nil {
			credit = &refund{trigger: "cancel", txn: txn}
		}
	}

	if err := addHistory(tx, o.ID, OrderStatusCancelled, reason, actorID, now); err != nil {
		return nil, err
	}
	return credit, nil
}

// CancelOrderItem cancels one pending or processing line of the user's order
func (s *Service) CancelOrderItem(ctx context.Context, userID, orderID, itemID uint, reason string) (*Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("cancellation reason is required")
	}

	var credit *refund
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, orderID, userID)
		if err != nil {
			return err
		}

		var item *OrderItem
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				item = &o.Items[i]
				break
			}
		}
		if item == nil {
			return apperror.NotFound("order item not found")
		}

		if !item.IsCancellable() {
			if item.Status == OrderStatusCancelled {
				return alreadyCancelled("order item is already cancelled")
			}
			return apperror.Newf(apperror.CodeStateConflict, "items in status %s cannot be cancelled", item.Status).
				WithReason(apperror.ReasonInvalidTransition)
		}

		var amount int64
		if o.RefundEligible() {
			amount = min(item.Subtotal(), o.RefundableAmount())
		}
		refundStatus := RefundStatusNotApplicable
		if amount > 0 {
			refundStatus = RefundStatusProcessed
		}

		result := tx.Model(&OrderItem{}).
			Where("id = ? AND order_id = ? AND status IN ?", item.ID, o.ID, cancellableItemStatuses).
			Updates(map[string]any{
				"status":              OrderStatusCancelled,
				"cancellation_reason": reason,
				"refund_status":       refundStatus,
				"refund_amount":       amount,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to cancel order item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return alreadyCancelled("order item is already cancelled")
		}

		if err := catalog.ReleaseStock(tx, itemStockLines([]OrderItem{*item})); err != nil {
			return err
		}

		txn, err := s.refundWithin(tx, o, amount, fmt.Sprintf("Refund for %s (%s) in order %s", item.ProductName, item.Size, o.OrderCode))
		if err != nil {
			return err
		}
		if txn != nil {
			credit = &refund{trigger: "item_cancel", txn: txn}
		}

		return s.syncOrderWithItems(tx, o, reason, userID)
	})
	if err != nil {
		return nil, err
	}

	s.settle(credit)
	return s.GetOrder(ctx, userID, orderID)
}

// syncOrderWithItems re-derives the order's status, total and discount from its
// items. Until money has been taken, amount_paid follows the new net total.
func (s *Service) syncOrderWithItems(tx *gorm.DB, o *Order, reason string, actorID uint) error {
	var items []OrderItem
	if err := tx.Where("order_id = ?", o.ID).Order("id ASC").Find(&items).Error; err != nil {
		return fmt.Errorf("failed to reload order items: %w", err)
	}

	status := deriveStatus(items, o.Status)
	total := activeTotal(items)
	discount := apportionDiscount(o.DiscountAmount, o.TotalAmount, total)
	updates := map[string]any{
		"total_amount":    total,
		"discount_amount": discount,
		"status":          status,
	}
	if o.PaymentStatus != PaymentStatusPaid {
		updates["amount_paid"] = total - discount
	}
	if status == o.Status {
		if err := tx.Model(&Order{}).Where("id = ?", o.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	}

	now := s.now()
	if status == OrderStatusCancelled {
		updates["cancelled_at"] = now
		updates["cancellation_reason"] = reason
	}
	if err := tx.Model(&Order{}).Where("id = ?", o.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return addHistory(tx, o.ID, status, "All items cancelled", actorID, now)
}

// refundWithin credits amount to the owner's wallet. The order's refund_amount
// is raised with a conditional update so refunds never exceed amount_paid.
func (s *Service) refundWithin(tx *gorm.DB, o *Order, amount int64, description string) (*wallet.Transaction, error) {
	if amount <= 0 {
		return nil, nil
	}

	refunded, err := wallet.RefundedForOrder(tx, o.ID)
	if err != nil {
		return nil, err
	}
	if refunded+amount > o.AmountPaid {
		return nil, apperror.StateConflict("refund exceeds the amount paid").
			WithReason(apperror.ReasonRefundLimitReached).
			WithDetails(map[string]any{"refundable": max(o.AmountPaid-refunded, 0)})
	}

	result := tx.Model(&Order{}).
		Where("id = ? AND refund_amount + ? <= amount_paid", o.ID, amount).
		Updates(map[string]any{
			"refund_amount": gorm.Expr("refund_amount + ?", amount),
			"refund_status": RefundStatusProcessed,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to record refund: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.StateConflict("refund exceeds the amount paid").
			WithReason(apperror.ReasonRefundLimitReached).
			WithDetails(map[string]any{"refundable": o.RefundableAmount()})
	}

	txn, err := s.ledger.CreditWithin(tx, wallet.Entry{
		UserID:      o.UserID,
		Amount:      amount,
		Source:      wallet.SourceOrderRefund,
		OrderID:     &o.ID,
		OrderCode:   o.OrderCode,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	o.RefundAmount += amount
	return txn, nil
}

// settle logs and counts a refund once its transaction has committed
func (s *Service) settle(r *refund) {
	if r == nil {
		return
	}
	s.metrics.Refunded(r.trigger, r.txn.Amount)
	s.ledger.Record(r.txn)
	s.log.WithFields(logrus.Fields{
		"order_code": r.txn.OrderCode,
		"user_id":    r.txn.UserID,
		"amount":     r.txn.Amount,
		"trigger":    r.trigger,
	}).Info("order refunded to wallet")
}

// UpdateOrderStatus moves an order along the admin transitions
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID uint, status OrderStatus, comment string, actorID uint) (*Order, error) {
	var credit *refund
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, orderID, 0)
		if err != nil {
			return err
		}
		if !isValidStatusTransition(o.Status, status) {
			return invalidTransition(o.Status, status)
		}

		if status == OrderStatusCancelled {
			reason := strings.TrimSpace(comment)
			if reason == "" {
				reason = "Cancelled by store"
			}
			credit, err = s.cancelWithin(tx, o, []OrderStatus{o.Status}, reason, actorID)
			return err
		}

		now := s.now()
		updates := map[string]any{"status": status}
		switch status {
		case OrderStatusProcessing:
			updates["processed_at"] = now
		case OrderStatusShipped:
			updates["shipped_at"] = now
		case OrderStatusDelivered:
			updates["delivered_at"] = now
			if o.PaymentMethod == PaymentMethodCOD && o.PaymentStatus != PaymentStatusPaid {
				updates["payment_status"] = PaymentStatusPaid
			}
		}

		result := tx.Model(&Order{}).Where("id = ? AND status = ?", o.ID, o.Status).Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update order status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return invalidTransition(o.Status, status)
		}

		if err := tx.Model(&OrderItem{}).
			Where("order_id = ? AND status <> ?", o.ID, OrderStatusCancelled).
			Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update order items: %w", err)
		}

		if comment == "" {
			comment = "Status changed to " + string(status)
		}
		return addHistory(tx, o.ID, status, comment, actorID, now)
	})
	if err != nil {
		return nil, err
	}

	s.settle(credit)
	s.log.WithFields(logrus.Fields{"order_id": orderID, "status": status, "actor_id": actorID}).Info("order status updated")
	return s.GetOrderByID(ctx, orderID)
}

func alreadyCancelled(message string) error {
	return apperror.StateConflict(message).WithReason(apperror.ReasonAlreadyCancelled)
}

// daysSince counts started days between t and now, so one minute past delivery is day one
func daysSince(t, now time.Time) int {
	elapsed := now.Sub(t)
	if elapsed <= 0 {
		return 0
	}
	day := 24 * time.Hour
	return int((elapsed + day - 1) / day)
}
