package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/wallet"
)

// WalletHandler exposes the wallet ledger and gateway top-ups
type WalletHandler struct {
	wallets  *wallet.Service
	payments *payment.Service
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(wallets *wallet.Service, payments *payment.Service) *WalletHandler {
	return &WalletHandler{wallets: wallets, payments: payments}
}

// GetWallet handles GET /wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	w, err := h.wallets.GetWallet(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Wallet retrieved successfully", w)
}

// ListTransactions handles GET /wallet/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := pageQuery(c)
	transactions, err := h.wallets.ListTransactions(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Transactions retrieved successfully", transactions)
}

// CreateTopUp handles POST /wallet/topup
func (h *WalletHandler) CreateTopUp(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req payment.TopUpRequest
	if !bind(c, &req) {
		return
	}

	initiation, err := h.payments.CreateTopUp(c.Request.Context(), userID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Top-up initiated successfully", initiation)
}

// VerifyTopUp handles POST /wallet/topup/verify
func (h *WalletHandler) VerifyTopUp(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req payment.TopUpVerifyRequest
	if !bind(c, &req) {
		return
	}

	txn, err := h.payments.VerifyTopUp(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Wallet topped up successfully", txn)
}
