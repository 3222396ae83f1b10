package worker

import (
	"context"

	"github.com/cherop/pactpay/internal/repository"
	"github.com/cherop/pactpay/internal/smtp"
	"github.com/cherop/pactpay/internal/stream"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	DB          repository.Database
	Mailer      smtp.MailerInterface
	BaseURL     string
	Ctx         context.Context
}

const (
	// receiptGroupID is used for workers that email receipts whenever a ledger transaction commits
	receiptGroupID = "transaction-receipt-group"

	// activityGroupID is used for workers that record activity logs for committed ledger transactions
	activityGroupID = "transaction-activity-group"
)

// Our workers typically need access to the database and the kafka event stream.
// Worker-specific dependencies can be passed as arguments to the worker.
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		DB:          wk.DB,
		Mailer:      wk.Mailer,
		BaseURL:     wk.BaseURL,
		Ctx:         wk.Ctx,
	}
}

// walletOwner resolves the user who owns a wallet, for receipts and
// activity logs.
func (wk *Worker) walletOwner(walletID string) (*repository.User, bool, error) {
	wallet, found, err := wk.DB.Wallet().GetOne(walletID)
	if err != nil || !found {
		return nil, false, err
	}

	return wk.DB.User().GetOne(wallet.UserID)
}
