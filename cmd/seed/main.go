// cmd/seed/main.go applies a YAML seed file and the admin account outside of the API process.
//
//	go run ./cmd/seed -file seed.yaml
//	go run ./cmd/seed -hash 's3cret-pass1'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/seed"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"go.uber.org/multierr"
)

func main() {
	file := flag.String("file", "", "seed file to apply (defaults to SEED_FILE)")
	hash := flag.String("hash", "", "print the bcrypt hash of a password and exit")
	flag.Parse()

	if *hash != "" {
		if err := printHash(*hash); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := logger.New(cfg.Logging)

	path := *file
	if path == "" {
		path = cfg.Seed.File
	}
	if err := run(cfg, log, path); err != nil {
		log.WithError(err).Fatal("seed failed")
	}
}

func run(cfg *config.Config, log *logrus.Logger, path string) (err error) {
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		return err
	}
	if err := migration.SeedAdmin(cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, cfg.Security.BcryptCost); err != nil {
		return err
	}
	if path == "" {
		log.Info("no seed file given")
		return nil
	}

	loader := seed.NewLoader(
		catalog.NewCategoryService(db.GetDB(), log),
		catalog.NewProductService(db.GetDB(), nil, log),
		coupon.NewService(db.GetDB(), log),
		log,
	)
	summary, err := loader.LoadFile(context.Background(), path)
	if summary != nil {
		fmt.Printf("categories=%d products=%d coupons=%d skipped=%d\n",
			summary.Categories, summary.Products, summary.Coupons, summary.Skipped)
	}
	return err
}

func printHash(password string) error {
	hashed, err := auth.NewPasswordManager(0).HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hashed)
	return nil
}
