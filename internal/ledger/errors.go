package ledger

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrInvalidAmount is returned for a zero or negative amount, before
	// any store access happens.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrSameWallet is returned when a transfer names the same user on
	// both sides.
	ErrSameWallet = errors.New("cannot transfer to the same wallet")

	// ErrWalletNotFound is returned when the debit side of a transfer has
	// no wallet. Wallets are never created implicitly on the debit side.
	ErrWalletNotFound = errors.New("sender wallet not found")

	// ErrInsufficientBalance is returned when the debit exceeds the
	// sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrStoreUnavailable is returned after retries on transient store
	// failures are exhausted. The whole unit rolled back, so the caller
	// can safely retry.
	ErrStoreUnavailable = errors.New("the ledger store is unavailable")
)

// isSerializationFailure reports whether err is a Postgres serialization
// or deadlock failure. These roll the unit back cleanly, so the ledger
// retries them itself.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
