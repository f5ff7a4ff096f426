// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/report"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wallet"
	"github.com/your-org/storefront-backend/internal/domain/wishlist"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/infrastructure/seed"
	"github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/storage"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("starting")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited with error")
	}
	log.Info("server shutdown completed")
}

func run(cfg *config.Config, log *logrus.Logger) (err error) {
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	rdb, err := redis.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rdb.Close()) }()

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		return err
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("some indexes could not be created")
	}
	if err := migration.SeedAdmin(cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, cfg.Security.BcryptCost); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	images, err := storage.NewLocalStore(cfg.Storage.LocalPath, cfg.Storage.BaseURL, cfg.Storage.MaxSize)
	if err != nil {
		return err
	}

	app := wire(cfg, db.GetDB(), rdb.GetClient(), log, m, images)

	if cfg.IsDevelopment() && cfg.Seed.File != "" {
		loader := seed.NewLoader(app.categories, app.products, app.coupons, log)
		if _, err := loader.LoadFile(context.Background(), cfg.Seed.File); err != nil {
			log.WithError(err).Warn("seed file applied with errors")
		}
	}

	if err := handlers.RegisterValidators(); err != nil {
		return err
	}

	server, err := http.NewServer(cfg, http.Deps{
		Log:      log,
		Handlers: app.handlers,
		Tokens:   app.tokens,
		Redis:    rdb.GetClient(),
		Metrics:  m,
		Gatherer: registry,
		Checks: map[string]http.HealthChecker{
			"database": db,
			"redis":    rdb,
		},
	})
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down gracefully")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

type application struct {
	tokens     *auth.JWTManager
	categories *catalog.CategoryService
	products   *catalog.ProductService
	coupons    *coupon.Service
	handlers   *routes.Handlers
}

// wire builds the services bottom-up and the handlers on top of them
func wire(cfg *config.Config, db *gorm.DB, rdb goredis.Cmdable, log logrus.FieldLogger, m *metrics.Metrics, images storage.ImageStore) *application {
	tokens := auth.NewJWTManager(cfg.JWT, cfg.App.Name)
	passwords := auth.NewPasswordManager(cfg.Security.BcryptCost)

	users := user.NewService(db, log, passwords, tokens)
	addresses := user.NewAddressService(db, log)
	userAdmin := user.NewAdminService(db, log)

	categories := catalog.NewCategoryService(db, log)
	products := catalog.NewProductService(db, images, log)
	offers := catalog.NewOfferService(db, log)
	coupons := coupon.NewService(db, log)

	carts := cart.NewService(db, log, m, cfg.Store.MaxQuantityPerLine)
	wallets := wallet.NewService(db, log, m)
	orders := order.NewService(db, log, m, wallets, carts, order.NewRedisSequencer(rdb), cfg.Store)
	payments := payment.NewService(orders, wallets, payment.NewRazorpayClient(cfg.Razorpay), cfg.Store.Currency, log)
	checkouts := checkout.NewService(carts, orders, payments, wallets, log)
	wishlists := wishlist.NewService(db, log, carts)
	reports := report.NewService(db, log)

	return &application{
		tokens:     tokens,
		categories: categories,
		products:   products,
		coupons:    coupons,
		handlers: &routes.Handlers{
			Auth:      handlers.NewAuthHandler(users),
			Addresses: handlers.NewAddressHandler(addresses),
			Users:     handlers.NewUserAdminHandler(userAdmin),
			Products:  handlers.NewProductHandler(products),
			Uploads:   handlers.NewUploadHandler(products, cfg.Storage.MaxSize),
			Category:  handlers.NewCategoryHandler(categories),
			Offers:    handlers.NewOfferHandler(offers),
			Coupons:   handlers.NewCouponHandler(coupons, carts),
			Cart:      handlers.NewCartHandler(carts),
			Checkout:  handlers.NewCheckoutHandler(checkouts),
			Orders:    handlers.NewOrderHandler(orders),
			Payments:  handlers.NewPaymentHandler(payments),
			Wallet:    handlers.NewWalletHandler(wallets, payments),
			Wishlist:  handlers.NewWishlistHandler(wishlists),
			Reports:   handlers.NewReportHandler(reports),
		},
	}
}
