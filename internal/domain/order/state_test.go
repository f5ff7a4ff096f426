package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func itemsWith(statuses ...OrderStatus) []OrderItem {
	items := make([]OrderItem, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, OrderItem{Status: status, Price: 100, Quantity: 1})
	}
	return items
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		items   []OrderItem
		current OrderStatus
		want    OrderStatus
	}{
		{"all cancelled", itemsWith(OrderStatusCancelled, OrderStatusCancelled), OrderStatusPending, OrderStatusCancelled},
		{"processing wins over shipped", itemsWith(OrderStatusShipped, OrderStatusProcessing), OrderStatusShipped, OrderStatusProcessing},
		{"shipped with a cancelled line", itemsWith(OrderStatusCancelled, OrderStatusShipped), OrderStatusProcessing, OrderStatusShipped},
		{"delivered", itemsWith(OrderStatusDelivered, OrderStatusCancelled), OrderStatusShipped, OrderStatusDelivered},
		{"all returned", itemsWith(OrderStatusReturned, OrderStatusReturned), OrderStatusReturnRequested, OrderStatusReturned},
		{"pending stays pending", itemsWith(OrderStatusPending, OrderStatusCancelled), OrderStatusPending, OrderStatusPending},
		{"no items", nil, OrderStatusPending, OrderStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveStatus(tt.items, tt.current))
		})
	}
}

func TestActiveTotalSkipsCancelledLines(t *testing.T) {
	items := itemsWith(OrderStatusCancelled, OrderStatusPending, OrderStatusPending)
	items[1].Quantity = 2
	assert.Equal(t, int64(300), activeTotal(items))
}

func TestAdminTransitionTable(t *testing.T) {
	assert.True(t, isValidStatusTransition(OrderStatusPending, OrderStatusProcessing))
	assert.True(t, isValidStatusTransition(OrderStatusShipped, OrderStatusDelivered))
	assert.True(t, isValidStatusTransition(OrderStatusShipped, OrderStatusCancelled))
	assert.False(t, isValidStatusTransition(OrderStatusShipped, OrderStatusPending))
	assert.False(t, isValidStatusTransition(OrderStatusDelivered, OrderStatusCancelled))
	assert.False(t, isValidStatusTransition(OrderStatusCancelled, OrderStatusPending))
}

func TestFormatOrderCode(t *testing.T) {
	day := time.Date(2026, 1, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "ORD2601090001", FormatOrderCode("ORD", day, 1))
	assert.Equal(t, "ORD2601091234", FormatOrderCode("ORD", day, 1234))
}

func TestDaysSinceRoundsUp(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, daysSince(now, now))
	assert.Equal(t, 1, daysSince(now.Add(-time.Minute), now))
	assert.Equal(t, 7, daysSince(now.AddDate(0, 0, -7), now))
	assert.Equal(t, 8, daysSince(now.AddDate(0, 0, -7).Add(-time.Hour), now))
}

func TestApportionDiscount(t *testing.T) {
	tests := []struct {
		name          string
		discount      int64
		previousTotal int64
		total         int64
		want          int64
	}{
		{"proportional share", 250, 500, 200, 100},
		{"rounds down", 100, 300, 100, 33},
		{"nothing left", 250, 500, 0, 0},
		{"no discount", 0, 500, 200, 0},
		{"unchanged total", 250, 500, 500, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apportionDiscount(tt.discount, tt.previousTotal, tt.total)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got, tt.total)
		})
	}
}

func TestItemCancellableStatuses(t *testing.T) {
	for _, item := range itemsWith(OrderStatusPending, OrderStatusProcessing) {
		assert.True(t, item.IsCancellable(), item.Status)
	}
	for _, item := range itemsWith(OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusPaymentFailed, OrderStatusReturned) {
		assert.False(t, item.IsCancellable(), item.Status)
	}
}
