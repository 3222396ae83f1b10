package ledger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cherop/pactpay/internal/repository"
)

// These tests exercise the locking behavior the ledger depends on, which
// only a real database can provide. They run when TEST_DB_DSN points at a
// disposable postgres database, e.g.
//
//	TEST_DB_DSN="user:pass@localhost:5432/pactpay_test?sslmode=disable" go test ./internal/ledger/
//
// and are skipped otherwise.

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping integration test")
	}

	db, err := repository.New(dsn, true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(&Ledger{DB: db})
}

func createTestUser(t *testing.T, db repository.Database, label string) string {
	t.Helper()

	id, err := db.User().Insert(&repository.User{
		Email:          fmt.Sprintf("%s-%d@ledger.test", label, time.Now().UnixNano()),
		HashedPassword: "not-a-real-hash",
	}, nil)
	require.NoError(t, err)

	return id
}

func TestGetOrCreateWallet_ConcurrentFirstTouch(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	userID := createTestUser(t, l.DB, "first-touch")

	const callers = 8
	walletIDs := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wallet, err := l.GetOrCreateWallet(ctx, userID)
			errs[i] = err
			if err == nil {
				walletIDs[i] = wallet.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, walletIDs[0], walletIDs[i], "every caller must observe the same wallet")
	}

	wallet, err := l.GetOrCreateWallet(ctx, userID)
	require.NoError(t, err)
	require.True(t, wallet.Balance.IsZero())
}

func TestDeposit_CreditsBalanceAndRecordsTransaction(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	userID := createTestUser(t, l.DB, "deposit")

	transaction, err := l.Deposit(ctx, userID, decimal.RequireFromString("100.555"), "signup bonus")
	require.NoError(t, err)
	require.Equal(t, repository.TransactionTypeDeposit, transaction.Type)
	require.Equal(t, "100.56", transaction.Amount.StringFixed(2))

	wallet, err := l.GetOrCreateWallet(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "100.56", wallet.Balance.StringFixed(2))

	history, err := l.GetHistory(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, transaction.ID, history[0].ID)
}

func TestTransfer_SenderWalletMustExist(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	fromUserID := createTestUser(t, l.DB, "no-wallet-sender")
	toUserID := createTestUser(t, l.DB, "no-wallet-receiver")

	_, err := l.Transfer(ctx, fromUserID, toUserID, decimal.NewFromInt(10), "")
	require.ErrorIs(t, err, ErrWalletNotFound)
}

// Two concurrent transfers that each fit the balance on their own but not
// together: exactly one must succeed, and no balance may go negative.
func TestTransfer_ConcurrentNoOverdraft(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	senderID := createTestUser(t, l.DB, "overdraft-sender")
	receiverID := createTestUser(t, l.DB, "overdraft-receiver")

	_, err := l.Deposit(ctx, senderID, decimal.NewFromInt(100), "")
	require.NoError(t, err)

	amount := decimal.NewFromInt(60)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Transfer(ctx, senderID, receiverID, amount, "concurrent spend")
		}(i)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, ErrInsufficientBalance)
			insufficient++
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, insufficient)

	sender, err := l.GetOrCreateWallet(ctx, senderID)
	require.NoError(t, err)
	receiver, err := l.GetOrCreateWallet(ctx, receiverID)
	require.NoError(t, err)

	require.Equal(t, "40.00", sender.Balance.StringFixed(2))
	require.Equal(t, "60.00", receiver.Balance.StringFixed(2))

	// conservation: total money is unchanged by the transfer
	require.Equal(t, "100.00", sender.Balance.Add(receiver.Balance).StringFixed(2))
}

// Opposing transfers lock the same two rows from opposite directions; the
// ascending-id lock order means both must complete rather than deadlock.
func TestTransfer_OpposingTransfersComplete(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	aliceID := createTestUser(t, l.DB, "opposing-a")
	bobID := createTestUser(t, l.DB, "opposing-b")

	_, err := l.Deposit(ctx, aliceID, decimal.NewFromInt(50), "")
	require.NoError(t, err)
	_, err = l.Deposit(ctx, bobID, decimal.NewFromInt(50), "")
	require.NoError(t, err)

	const rounds = 10
	errChan := make(chan error, rounds*2)

	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := l.Transfer(ctx, aliceID, bobID, decimal.NewFromInt(1), "")
			errChan <- err
		}()
		go func() {
			defer wg.Done()
			_, err := l.Transfer(ctx, bobID, aliceID, decimal.NewFromInt(1), "")
			errChan <- err
		}()
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		require.NoError(t, err)
	}

	alice, err := l.GetOrCreateWallet(ctx, aliceID)
	require.NoError(t, err)
	bob, err := l.GetOrCreateWallet(ctx, bobID)
	require.NoError(t, err)

	require.Equal(t, "50.00", alice.Balance.StringFixed(2))
	require.Equal(t, "50.00", bob.Balance.StringFixed(2))
}

func TestGetHistory_NewestFirstAndBothSides(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	senderID := createTestUser(t, l.DB, "history-sender")
	receiverID := createTestUser(t, l.DB, "history-receiver")

	_, err := l.Deposit(ctx, senderID, decimal.NewFromInt(30), "first")
	require.NoError(t, err)

	transfer, err := l.Transfer(ctx, senderID, receiverID, decimal.NewFromInt(10), "second")
	require.NoError(t, err)

	senderHistory, err := l.GetHistory(ctx, senderID)
	require.NoError(t, err)
	require.Len(t, senderHistory, 2)
	require.Equal(t, transfer.ID, senderHistory[0].ID, "newest entry first")
	require.Equal(t, repository.TransactionTypeDeposit, senderHistory[1].Type)

	receiverHistory, err := l.GetHistory(ctx, receiverID)
	require.NoError(t, err)
	require.Len(t, receiverHistory, 1)
	require.Equal(t, transfer.ID, receiverHistory[0].ID, "transfer appears in the receiver's history too")
}
