package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cherop/pactpay/internal/cache"
	"github.com/cherop/pactpay/internal/context"
	"github.com/cherop/pactpay/internal/errHandler"
	"github.com/cherop/pactpay/internal/ledger"
	"github.com/cherop/pactpay/internal/repository"
	"github.com/cherop/pactpay/internal/request"
	"github.com/cherop/pactpay/internal/response"
	"github.com/cherop/pactpay/internal/validator"
)

type WalletResponseData struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

type TransactionResponseData struct {
	ID           string    `json:"id"`
	FromWalletID string    `json:"from_wallet_id,omitempty"`
	ToWalletID   string    `json:"to_wallet_id,omitempty"`
	Amount       string    `json:"amount"`
	Type         string    `json:"type"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func newTransactionResponseData(transaction *repository.Transaction) *TransactionResponseData {
	return &TransactionResponseData{
		ID:           transaction.ID,
		FromWalletID: transaction.FromWalletID.String,
		ToWalletID:   transaction.ToWalletID.String,
		Amount:       transaction.Amount.StringFixed(2),
		Type:         transaction.Type,
		Description:  transaction.Description.String,
		CreatedAt:    transaction.CreatedAt,
	}
}

type WalletHandler struct {
	Ledger     *ledger.Ledger
	Cache      *cache.Cache
	ErrHandler *errHandler.ErrorHandler
}

func NewWalletHandler(handler *WalletHandler) *WalletHandler {
	return &WalletHandler{
		Ledger:     handler.Ledger,
		Cache:      handler.Cache,
		ErrHandler: handler.ErrHandler,
	}
}

func (h *WalletHandler) HandleWalletDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	wallet, err := h.Ledger.GetOrCreateWallet(r.Context(), user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	balance := wallet.Balance.StringFixed(2)

	// balance reads are cache-backed; the ledger invalidates the key on
	// every commit touching this wallet
	if h.Cache != nil {
		cached, err := h.Cache.Get(ledger.BalanceCacheKey(wallet.ID))
		if err == nil {
			balance = cached
		} else {
			h.Cache.Set(ledger.BalanceCacheKey(wallet.ID), balance, ledger.BalanceCacheTTL)
		}
	}

	message := "Wallet details fetched successfully"

	data := &WalletResponseData{
		ID:        wallet.ID,
		UserID:    wallet.UserID,
		Balance:   balance,
		CreatedAt: wallet.CreatedAt,
	}
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Amount      decimal.Decimal     `json:"amount"`
		Description string              `json:"description"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	transaction, err := h.Ledger.Deposit(r.Context(), user.ID, input.Amount, input.Description)
	if err != nil {
		h.ledgerError(w, r, err, &input.Validator)
		return
	}

	message := "Deposit completed successfully"

	err = response.JSONCreatedResponse(w, newTransactionResponseData(transaction), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ToUserID    string              `json:"to_user_id"`
		Amount      decimal.Decimal     `json:"amount"`
		Description string              `json:"description"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.ToUserID), "Recipient is required")
	input.Validator.Check(validator.IsUUID(input.ToUserID), "Recipient must be a valid user id")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	transaction, err := h.Ledger.Transfer(r.Context(), user.ID, input.ToUserID, input.Amount, input.Description)
	if err != nil {
		h.ledgerError(w, r, err, &input.Validator)
		return
	}

	message := "Transfer completed successfully"

	err = response.JSONCreatedResponse(w, newTransactionResponseData(transaction), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	transactions, err := h.Ledger.GetHistory(r.Context(), user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*TransactionResponseData, len(transactions))
	for i := range transactions {
		data[i] = newTransactionResponseData(&transactions[i])
	}

	message := "Transaction history fetched successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// ledgerError maps the ledger's error kinds onto distinct HTTP responses.
// Nothing is collapsed into a generic failure: the caller always learns
// which precondition failed, or that the store rejected the unit cleanly.
func (h *WalletHandler) ledgerError(w http.ResponseWriter, r *http.Request, err error, v *validator.Validator) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSameWallet),
		errors.Is(err, ledger.ErrInsufficientBalance):
		v.AddError(err.Error())
		h.ErrHandler.FailedValidation(w, r, v.Errors)

	case errors.Is(err, ledger.ErrWalletNotFound):
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusNotFound, nil)

	case errors.Is(err, ledger.ErrStoreUnavailable):
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusServiceUnavailable, nil)

	default:
		h.ErrHandler.ServerError(w, r, err)
	}
}
