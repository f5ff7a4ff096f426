package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wallet"
	"github.com/your-org/storefront-backend/internal/domain/wishlist"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{db: db, log: log}
}

// Models lists every table in dependency order
func Models() []any {
	var models []any
	models = append(models, user.Models()...)
	models = append(models, catalog.Models()...)
	models = append(models, &coupon.Coupon{})
	models = append(models, cart.Models()...)
	models = append(models, wallet.Models()...)
	models = append(models, order.Models()...)
	models = append(models, wishlist.Models()...)
	return models
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("running database auto-migrations")

	for _, model := range Models() {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("database auto-migrations completed")
	return nil
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
	"CREATE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id, is_default)",

	"CREATE INDEX IF NOT EXISTS idx_products_category_listed ON products(category_id, is_listed, is_deleted)",
	"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_product_images_sort_order ON product_images(product_id, sort_order)",
	"CREATE INDEX IF NOT EXISTS idx_offers_target_window ON offers(applicable_type, applicable_id, start_date, end_date)",

	"CREATE INDEX IF NOT EXISTS idx_coupons_window ON coupons(is_active, start_date, end_date)",

	"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
	"CREATE INDEX IF NOT EXISTS idx_order_items_order_status ON order_items(order_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",

	"CREATE INDEX IF NOT EXISTS idx_wallet_transactions_wallet_created ON wallet_transactions(wallet_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_wishlist_items_user_added ON wishlist_items(user_id, added_at DESC)",
}

// CreateIndexes creates the composite indexes gorm tags cannot express.
// Failures are logged and counted; they do not stop start-up.
func (m *Migration) CreateIndexes() error {
	failed := 0
	for _, stmt := range indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			m.log.WithError(err).WithField("statement", stmt).Warn("failed to create index")
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("database indexes ensured")
	if failed > 0 {
		return fmt.Errorf("%d of %d indexes failed", failed, len(indexes))
	}
	return nil
}

// SeedAdmin creates the admin account if no user owns the email yet
func (m *Migration) SeedAdmin(email, password string, cost int) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		m.log.Info("admin seed skipped: no credentials configured")
		return nil
	}

	var existing user.User
	err := m.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := user.User{
		Email:     email,
		Password:  string(hashed),
		FirstName: "Admin",
		IsActive:  true,
		IsAdmin:   true,
	}
	if err := m.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	m.log.WithField("email", admin.Email).Info("admin user created")
	return nil
}
