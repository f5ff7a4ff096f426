// internal/domain/order/state.go
package order

// adminTransitions lists the moves an administrator may make. Every other status is terminal for admins.
var adminTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusProcessing,
		OrderStatusCancelled,
	},
	OrderStatusProcessing: {
		OrderStatusShipped,
		OrderStatusCancelled,
	},
	OrderStatusShipped: {
		OrderStatusDelivered,
		OrderStatusCancelled,
	},
}

// isValidStatusTransition reports whether an admin may move an order from one status to another
func isValidStatusTransition(from, to OrderStatus) bool {
	for _, status := range adminTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}

// deriveStatus recomputes an order's status from its items.
// All cancelled wins, then any processing, any shipped, any delivered, then all returned.
func deriveStatus(items []OrderItem, current OrderStatus) OrderStatus {
	if len(items) == 0 {
		return current
	}

	allCancelled, allReturned := true, true
	var anyProcessing, anyShipped, anyDelivered bool
	for _, item := range items {
		if item.Status != OrderStatusCancelled {
			allCancelled = false
		}
		if item.Status != OrderStatusReturned {
			allReturned = false
		}
		switch item.Status {
		case OrderStatusProcessing:
			anyProcessing = true
		case OrderStatusShipped:
			anyShipped = true
		case OrderStatusDelivered:
			anyDelivered = true
		}
	}

	switch {
	case allCancelled:
		return OrderStatusCancelled
	case anyProcessing:
		return OrderStatusProcessing
	case anyShipped:
		return OrderStatusShipped
	case anyDelivered:
		return OrderStatusDelivered
	case allReturned:
		return OrderStatusReturned
	default:
		return current
	}
}

// activeTotal sums the lines that have not been cancelled
func activeTotal(items []OrderItem) int64 {
	var total int64
	for i := range items {
		if items[i].Status != OrderStatusCancelled {
			total += items[i].Subtotal()
		}
	}
	return total
}

// apportionDiscount scales an order discount to a reduced total so it keeps the
// same share of the goods and never exceeds the total.
func apportionDiscount(discount, previousTotal, total int64) int64 {
	if discount <= 0 || total <= 0 || previousTotal <= 0 {
		return 0
	}
	if total >= previousTotal {
		return min(discount, total)
	}
	return min(discount*total/previousTotal, total)
}
