// Package report builds the admin sales report and dashboard from orders.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Period selects the dashboard time range
type Period string

const (
	Period7Days  Period = "7days"
	Period30Days Period = "30days"
	Period90Days Period = "90days"
	PeriodYearly Period = "yearly"
	PeriodAll    Period = "all"
)

const topLimit = 10

// orders in these states earn no revenue
var nonRevenue = []order.OrderStatus{order.OrderStatusCancelled, order.OrderStatusReturned}

// Service handles reporting queries
type Service struct {
	db  *gorm.DB
	log logrus.FieldLogger
	now func() time.Time
}

// NewService creates a new report service
func NewService(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SalesLine is one order in the sales report
type SalesLine struct {
	OrderID        uint                `json:"order_id"`
	OrderCode      string              `json:"order_code"`
	Date           time.Time           `json:"date"`
	OriginalAmount int64               `json:"original_amount"`
	TotalDiscount  int64               `json:"total_discount"`
	Revenue        int64               `json:"revenue"`
	PaymentMethod  order.PaymentMethod `json:"payment_method"`
	Status         order.OrderStatus   `json:"status"`
}

// SalesTotals sums the report
type SalesTotals struct {
	TotalOriginalAmount int64 `json:"total_original_amount"`
	TotalDiscount       int64 `json:"total_discount"`
	TotalRevenue        int64 `json:"total_revenue"`
	TotalSales          int64 `json:"total_sales"`
}

// SalesReport lists orders placed in a date range
type SalesReport struct {
	From   time.Time   `json:"from"`
	To     time.Time   `json:"to"`
	Orders []SalesLine `json:"orders"`
	Totals SalesTotals `json:"totals"`
}

// StatusCount is how many orders sit in a status
type StatusCount struct {
	Status order.OrderStatus `json:"status"`
	Count  int64             `json:"count"`
}

// ProductSales is quantity sold per product
type ProductSales struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Revenue     int64  `json:"revenue"`
}

// CategorySales is quantity sold per category
type CategorySales struct {
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	Quantity     int64  `json:"quantity"`
}

// Dashboard summarises sales over a period
type Dashboard struct {
	Period            Period          `json:"period"`
	Since             *time.Time      `json:"since,omitempty"`
	TotalRevenue      int64           `json:"total_revenue"`
	TotalOrders       int64           `json:"total_orders"`
	AverageOrderValue int64           `json:"average_order_value"`
	StatusBreakdown   []StatusCount   `json:"status_breakdown"`
	TopProducts       []ProductSales  `json:"top_products"`
	TopCategories     []CategorySales `json:"top_categories"`
}

// SalesReport returns every order placed between the from and to days inclusive.
// Revenue totals skip cancelled and returned orders.
func (s *Service) SalesReport(ctx context.Context, from, to time.Time) (*SalesReport, error) {
	start := startOfDay(from)
	end := startOfDay(to).AddDate(0, 0, 1)
	if !start.Before(end) {
		return nil, apperror.Validation("from must not be after to")
	}

	var orders []order.Order
	if err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at ASC, id ASC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	report := &SalesReport{From: start, To: end.Add(-time.Nanosecond), Orders: make([]SalesLine, 0, len(orders))}
	for _, o := range orders {
		line := SalesLine{
			OrderID:        o.ID,
			OrderCode:      o.OrderCode,
			Date:           o.CreatedAt,
			OriginalAmount: o.TotalAmount,
			TotalDiscount:  o.DiscountAmount,
			Revenue:        o.TotalAmount - o.DiscountAmount,
			PaymentMethod:  o.PaymentMethod,
			Status:         o.Status,
		}
		report.Orders = append(report.Orders, line)

		report.Totals.TotalOriginalAmount += line.OriginalAmount
		report.Totals.TotalDiscount += line.TotalDiscount
		if earnsRevenue(o.Status) {
			report.Totals.TotalRevenue += line.Revenue
			report.Totals.TotalSales++
		}
	}
	return report, nil
}

// Dashboard aggregates revenue, order counts and best sellers for a period
func (s *Service) Dashboard(ctx context.Context, period Period) (*Dashboard, error) {
	if period == "" {
		period = Period30Days
	}
	since, err := s.since(period)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	inRange := func(q *gorm.DB, column string) *gorm.DB {
		if since != nil {
			q = q.Where(column+" >= ?", *since)
		}
		return q
	}

	d := &Dashboard{Period: period, Since: since}

	if err := inRange(db.Model(&order.Order{}), "created_at").Count(&d.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var revenue struct {
		Total int64
		Count int64
	}
	if err := inRange(db.Model(&order.Order{}), "created_at").
		Select("CAST(COALESCE(SUM(total_amount - discount_amount), 0) AS BIGINT) AS total, COUNT(*) AS count").
		Where("status NOT IN ?", nonRevenue).
		Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	d.TotalRevenue = revenue.Total
	d.AverageOrderValue = averageOf(revenue.Total, revenue.Count)

	if err := inRange(db.Model(&order.Order{}), "created_at").
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&d.StatusBreakdown).Error; err != nil {
		return nil, fmt.Errorf("failed to group orders by status: %w", err)
	}

	sold := func() *gorm.DB {
		q := db.Table("order_items AS oi").
			Joins("JOIN orders o ON o.id = oi.order_id").
			Where("oi.status NOT IN ?", nonRevenue)
		return inRange(q, "o.created_at")
	}

	if err := sold().
		Select("oi.product_id AS product_id, MAX(oi.product_name) AS product_name, " +
			"CAST(SUM(oi.quantity) AS BIGINT) AS quantity, CAST(SUM(oi.price * oi.quantity) AS BIGINT) AS revenue").
		Group("oi.product_id").
		Order("quantity DESC, product_id ASC").
		Limit(topLimit).
		Scan(&d.TopProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}

	if err := sold().
		Joins("JOIN products p ON p.id = oi.product_id").
		Joins("JOIN categories c ON c.id = p.category_id").
		Select("c.id AS category_id, c.name AS category_name, CAST(SUM(oi.quantity) AS BIGINT) AS quantity").
		Group("c.id, c.name").
		Order("quantity DESC, category_id ASC").
		Limit(topLimit).
		Scan(&d.TopCategories).Error; err != nil {
		return nil, fmt.Errorf("failed to rank categories: %w", err)
	}

	return d, nil
}

func (s *Service) since(period Period) (*time.Time, error) {
	now := s.now()
	var start time.Time
	switch period {
	case Period7Days:
		start = now.AddDate(0, 0, -7)
	case Period30Days:
		start = now.AddDate(0, 0, -30)
	case Period90Days:
		start = now.AddDate(0, 0, -90)
	case PeriodYearly:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case PeriodAll:
		return nil, nil
	default:
		return nil, apperror.Validation("filter must be one of 7days, 30days, 90days, yearly, all")
	}
	return &start, nil
}

func earnsRevenue(status order.OrderStatus) bool {
	for _, s := range nonRevenue {
		if status == s {
			return false
		}
	}
	return true
}

// averageOf rounds half away from zero
func averageOf(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(count)).Round(0).IntPart()
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
