package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Validation failures must be rejected before any database work starts, so
// a Ledger with no database at all is enough to exercise them.

func TestDeposit_RejectsNonPositiveAmounts(t *testing.T) {
	l := New(&Ledger{})

	_, err := l.Deposit(context.Background(), "user-1", decimal.Zero, "")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = l.Deposit(context.Background(), "user-1", decimal.NewFromInt(-5), "")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTransfer_RejectsNonPositiveAmounts(t *testing.T) {
	l := New(&Ledger{})

	_, err := l.Transfer(context.Background(), "user-1", "user-2", decimal.Zero, "")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = l.Transfer(context.Background(), "user-1", "user-2", decimal.RequireFromString("-0.01"), "")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTransfer_RejectsSelfTransfer(t *testing.T) {
	l := New(&Ledger{})

	_, err := l.Transfer(context.Background(), "user-1", "user-1", decimal.NewFromInt(10), "")
	require.ErrorIs(t, err, ErrSameWallet)
}

func TestBalanceCacheKey(t *testing.T) {
	require.Equal(t, "wallet:balance:abc", BalanceCacheKey("abc"))
}
