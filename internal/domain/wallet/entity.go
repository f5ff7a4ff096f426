// internal/domain/wallet/entity.go
package wallet

import "time"

// TransactionType is the direction of a ledger entry
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Source names what caused a ledger entry
type Source string

const (
	SourceOrderRefund   Source = "order_refund"
	SourceRazorpay      Source = "razorpay"
	SourceWalletPayment Source = "wallet_payment"
)

// TransactionStatus is the settlement state of a ledger entry
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Wallet holds a user's stored balance in minor currency units
type Wallet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is an immutable ledger entry. Amount is always positive; Type gives the sign.
type Transaction struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	WalletID          uint              `gorm:"not null;index" json:"wallet_id"`
	UserID            uint              `gorm:"not null;index" json:"user_id"`
	Amount            int64             `gorm:"not null" json:"amount"`
	Type              TransactionType   `gorm:"not null;size:10" json:"type"`
	Source            Source            `gorm:"not null;size:20;index" json:"source"`
	OrderID           *uint             `gorm:"index" json:"order_id,omitempty"`
	OrderCode         string            `gorm:"size:20" json:"order_code,omitempty"`
	ProviderPaymentID *string           `gorm:"uniqueIndex;size:100" json:"provider_payment_id,omitempty"`
	Description       string            `gorm:"size:255" json:"description"`
	Status            TransactionStatus `gorm:"not null;size:20" json:"status"`
	Balance           int64             `gorm:"not null" json:"balance"`
	CreatedAt         time.Time         `json:"created_at"`
}

// TableName overrides
func (Wallet) TableName() string      { return "wallets" }
func (Transaction) TableName() string { return "wallet_transactions" }

// Models lists the wallet tables in migration order
func Models() []any {
	return []any{&Wallet{}, &Transaction{}}
}

// Signed returns the entry's effect on the balance
func (t *Transaction) Signed() int64 {
	if t.Type == TransactionDebit {
		return -t.Amount
	}
	return t.Amount
}
