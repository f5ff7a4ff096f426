// internal/domain/wallet/service.go
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service maintains wallet balances and their ledger
type Service struct {
	db      *gorm.DB
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewService creates a new wallet service
func NewService(db *gorm.DB, log logrus.FieldLogger, m *metrics.Metrics) *Service {
	return &Service{
		db:      db,
		log:     log,
		metrics: m,
	}
}

// Entry describes one balance movement
type Entry struct {
	UserID            uint
	Amount            int64
	Source            Source
	OrderID           *uint
	OrderCode         string
	ProviderPaymentID string
	Description       string
}

// TransactionResponse represents a page of ledger entries
type TransactionResponse struct {
	Transactions []Transaction         `json:"transactions"`
	Pagination   pagination.Pagination `json:"pagination"`
}

// GetWallet returns the user's wallet, creating an empty one on first access
func (s *Service) GetWallet(ctx context.Context, userID uint) (*Wallet, error) {
	return ensureWallet(s.db.WithContext(ctx), userID)
}

// ListTransactions returns the user's ledger newest first
func (s *Service) ListTransactions(ctx context.Context, userID uint, page, limit int) (*TransactionResponse, error) {
	page, limit = pagination.Normalize(page, limit)
	query := s.db.WithContext(ctx).Model(&Transaction{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count wallet transactions: %w", err)
	}

	var txns []Transaction
	if err := query.Order("id DESC").
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve wallet transactions: %w", err)
	}

	return &TransactionResponse{Transactions: txns, Pagination: pagination.New(page, limit, total)}, nil
}

// Credit adds funds in its own transaction
func (s *Service) Credit(ctx context.Context, e Entry) (*Transaction, error) {
	var txn *Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.CreditWithin(tx, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Record(txn)
	return txn, nil
}

// Debit removes funds in its own transaction
func (s *Service) Debit(ctx context.Context, e Entry) (*Transaction, error) {
	var txn *Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.DebitWithin(tx, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Record(txn)
	return txn, nil
}

// CreditWithin adds funds inside the caller's transaction, creating the wallet if needed
func (s *Service) CreditWithin(tx *gorm.DB, e Entry) (*Transaction, error) {
	if e.Amount <= 0 {
		return nil, apperror.Validation("credit amount must be positive")
	}

	w, err := ensureWallet(tx, e.UserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Model(&Wallet{}).Where("id = ?", w.ID).
		Update("balance", gorm.Expr("balance + ?", e.Amount)).Error; err != nil {
		return nil, fmt.Errorf("failed to credit wallet: %w", err)
	}
	return appendEntry(tx, w.ID, TransactionCredit, e)
}

// DebitWithin removes funds inside the caller's transaction. The balance check
// and the decrement are one conditional update.
func (s *Service) DebitWithin(tx *gorm.DB, e Entry) (*Transaction, error) {
	if e.Amount <= 0 {
		return nil, apperror.Validation("debit amount must be positive")
	}

	result := tx.Model(&Wallet{}).
		Where("user_id = ? AND balance >= ?", e.UserID, e.Amount).
		Update("balance", gorm.Expr("balance - ?", e.Amount))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to debit wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.New(apperror.CodeInsufficientFunds, "insufficient wallet balance").
			WithReason(apperror.ReasonInsufficientBalance).
			WithDetails(map[string]any{"required": e.Amount})
	}

	var w Wallet
	if err := tx.Where("user_id = ?", e.UserID).First(&w).Error; err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	return appendEntry(tx, w.ID, TransactionDebit, e)
}

// Record logs and counts a committed ledger entry
func (s *Service) Record(txn *Transaction) {
	if txn == nil {
		return
	}
	s.metrics.WalletMovement(string(txn.Type), string(txn.Source))
	s.log.WithFields(logrus.Fields{
		"user_id":    txn.UserID,
		"amount":     txn.Amount,
		"type":       txn.Type,
		"source":     txn.Source,
		"order_code": txn.OrderCode,
		"balance":    txn.Balance,
	}).Info("wallet transaction recorded")
}

// RefundedForOrder sums the refund credits already issued for an order
func RefundedForOrder(tx *gorm.DB, orderID uint) (int64, error) {
	var total int64
	err := tx.Model(&Transaction{}).
		Where("order_id = ? AND source = ? AND type = ?", orderID, SourceOrderRefund, TransactionCredit).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum order refunds: %w", err)
	}
	return total, nil
}

func appendEntry(tx *gorm.DB, walletID uint, kind TransactionType, e Entry) (*Transaction, error) {
	var w Wallet
	if err := tx.First(&w, walletID).Error; err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	txn := Transaction{
		WalletID:    walletID,
		UserID:      e.UserID,
		Amount:      e.Amount,
		Type:        kind,
		Source:      e.Source,
		OrderID:     e.OrderID,
		OrderCode:   e.OrderCode,
		Description: e.Description,
		Status:      StatusCompleted,
		Balance:     w.Balance,
	}
	if id := strings.TrimSpace(e.ProviderPaymentID); id != "" {
		txn.ProviderPaymentID = &id
	}

	if err := tx.Create(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(apperror.CodeConflict, "payment already credited")
		}
		return nil, fmt.Errorf("failed to record wallet transaction: %w", err)
	}
	return &txn, nil
}

func ensureWallet(tx *gorm.DB, userID uint) (*Wallet, error) {
	var w Wallet
	err := tx.Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&Wallet{UserID: userID}).Error; err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if err := tx.Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	return &w, nil
}
