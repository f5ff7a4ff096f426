// internal/domain/order/returns.go
package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// RequestReturn asks for a delivered order to be taken back. No money moves until an admin accepts.
func (s *Service) RequestReturn(ctx context.Context, userID, orderID uint, reason string) (*Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("return reason is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, orderID, userID)
		if err != nil {
			return err
		}
		if o.Status != OrderStatusDelivered {
			return invalidTransition(o.Status, OrderStatusReturnRequested)
		}

		now := s.now()
		deliveredAt := o.UpdatedAt
		if o.DeliveredAt != nil {
			deliveredAt = *o.DeliveredAt
		}
		windowDays := daysSince(now.Add(-s.returnWindow), now)
		if elapsed := daysSince(deliveredAt, now); elapsed > windowDays {
			return apperror.StateConflict("return window has expired").
				WithReason(apperror.ReasonReturnWindowExpired).
				WithDetails(map[string]any{"days_since_delivery": elapsed, "window_days": windowDays})
		}

		result := tx.Model(&Order{}).
			Where("id = ? AND status = ?", o.ID, OrderStatusDelivered).
			Updates(map[string]any{
				"status":              OrderStatusReturnRequested,
				"return_reason":       reason,
				"return_requested_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to request return: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return invalidTransition(o.Status, OrderStatusReturnRequested)
		}

		if err := tx.Model(&OrderItem{}).
			Where("order_id = ? AND status = ?", o.ID, OrderStatusDelivered).
			Update("status", OrderStatusReturnRequested).Error; err != nil {
			return fmt.Errorf("failed to update order items: %w", err)
		}
		return addHistory(tx, o.ID, OrderStatusReturnRequested, reason, userID, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("order_id", orderID).Info("order return requested")
	return s.GetOrder(ctx, userID, orderID)
}

// HandleReturnRequest accepts or rejects a pending return. Accepting refunds
// paid orders and restocks the items; rejecting puts the order back to delivered.
func (s *Service) HandleReturnRequest(ctx context.Context, orderID uint, approve bool, rejectionReason string, actorID uint) (*Order, error) {
	rejectionReason = strings.TrimSpace(rejectionReason)
	if !approve && rejectionReason == "" {
		return nil, apperror.Validation("rejection reason is required")
	}

	var credit *refund
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, orderID, 0)
		if err != nil {
			return err
		}

		target := OrderStatusReturned
		if !approve {
			target = OrderStatusDelivered
		}
		if o.Status != OrderStatusReturnRequested {
			return invalidTransition(o.Status, target)
		}

		if approve {
			credit, err = s.acceptReturn(tx, o, actorID)
		} else {
			err = s.rejectReturn(tx, o, rejectionReason, actorID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.settle(credit)
	s.log.WithFields(logrus.Fields{"order_id": orderID, "approved": approve, "actor_id": actorID}).Info("order return handled")
	return s.GetOrderByID(ctx, orderID)
}

func (s *Service) acceptReturn(tx *gorm.DB, o *Order, actorID uint) (*refund, error) {
	now := s.now()
	result := tx.Model(&Order{}).
		Where("id = ? AND status = ?", o.ID, OrderStatusReturnRequested).
		Updates(map[string]any{
			"status":             OrderStatusReturned,
			"return_resolved_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to accept return: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, invalidTransition(o.Status, OrderStatusReturned)
	}

	var returned []OrderItem
	for _, item := range o.Items {
		if item.Status == OrderStatusReturnRequested {
			returned = append(returned, item)
		}
	}

	eligible := o.RefundEligible()
	itemUpdates := map[string]any{
		"status":        OrderStatusReturned,
		"refund_status": RefundStatusNotApplicable,
	}
	if eligible {
		itemUpdates["refund_status"] = RefundStatusProcessed
		itemUpdates["refund_amount"] = gorm.Expr("price * quantity")
	}
	if err := tx.Model(&OrderItem{}).
		Where("order_id = ? AND status = ?", o.ID, OrderStatusReturnRequested).
		Updates(itemUpdates).Error; err != nil {
		return nil, fmt.Errorf("failed to update order items: %w", err)
	}

	if err := catalog.ReleaseStock(tx, itemStockLines(returned)); err != nil {
		return nil, err
	}

	var credit *refund
	if eligible {
		txn, err := s.refundWithin(tx, o, o.RefundableAmount(), "Refund for returned order "+o.OrderCode)
		if err != nil {
			return nil, err
		}
		if txn != nil {
			credit = &refund{trigger: "return", txn: txn}
		}
	}

	if err := addHistory(tx, o.ID, OrderStatusReturned, "Return accepted", actorID, now); err != nil {
		return nil, err
	}
	return credit, nil
}

func (s *Service) rejectReturn(tx *gorm.DB, o *Order, reason string, actorID uint) error {
	now := s.now()
	result := tx.Model(&Order{}).
		Where("id = ? AND status = ?", o.ID, OrderStatusReturnRequested).
		Updates(map[string]any{
			"status":                  OrderStatusDelivered,
			"return_rejection_reason": reason,
			"return_resolved_at":      now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reject return: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return invalidTransition(o.Status, OrderStatusDelivered)
	}

	if err := tx.Model(&OrderItem{}).
		Where("order_id = ? AND status = ?", o.ID, OrderStatusReturnRequested).
		Update("status", OrderStatusDelivered).Error; err != nil {
		return fmt.Errorf("failed to update order items: %w", err)
	}
	return addHistory(tx, o.ID, OrderStatusDelivered, "Return rejected: "+reason, actorID, now)
}
