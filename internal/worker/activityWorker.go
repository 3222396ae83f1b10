package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/cherop/pactpay/internal/ledger"
	"github.com/cherop/pactpay/internal/repository"
	"github.com/cherop/pactpay/internal/stream"
)

const (
	WalletActivityLogDebitDescription   = "Wallet debited"
	WalletActivityLogCreditDescription  = "Wallet credited"
	WalletActivityLogDepositDescription = "Wallet funded"
)

// ActivityWorker records an activity log entry for every user whose
// wallet took part in a committed ledger transaction.
func (wk *Worker) ActivityWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: activityGroupID,
		Topic:   ledger.TransactionCompletedTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	for {
		event := consumer.Poll(100)
		switch e := event.(type) {
		case *kafka.Message:
			var transactionEvent ledger.TransactionEvent
			if err := json.Unmarshal(e.Value, &transactionEvent); err != nil {
				log.Printf("Error decoding transaction event: %v", err)
				continue
			}

			wk.recordActivity(&transactionEvent)
		case kafka.Error:
			log.Printf("Error: %v\n", e)
		default:
		}
	}
}

func (wk *Worker) recordActivity(event *ledger.TransactionEvent) {
	type walletAction struct {
		walletID    string
		description string
	}

	actions := []walletAction{}
	if event.FromWalletID != "" {
		actions = append(actions, walletAction{event.FromWalletID, WalletActivityLogDebitDescription})
	}
	if event.ToWalletID != "" {
		description := WalletActivityLogCreditDescription
		if event.Type == repository.TransactionTypeDeposit {
			description = WalletActivityLogDepositDescription
		}
		actions = append(actions, walletAction{event.ToWalletID, description})
	}

	for _, action := range actions {
		owner, found, err := wk.walletOwner(action.walletID)
		if err != nil {
			log.Printf("Error resolving wallet owner for activity log: %v", err)
			continue
		}
		if !found {
			continue
		}

		_, err = wk.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      owner.ID,
			Entity:      repository.ActivityLogTransactionEntity,
			EntityId:    event.TransactionID,
			Description: action.description,
		})
		if err != nil {
			log.Printf("Error recording wallet activity: %v", err)
		}
	}
}
