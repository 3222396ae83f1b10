package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/cherop/pactpay/internal/ledger"
	"github.com/cherop/pactpay/internal/stream"
)

// ReceiptWorker listens for committed ledger transactions and emails a
// receipt to every wallet owner involved. Running off the request path
// means a slow SMTP server never delays a transfer.
func (wk *Worker) ReceiptWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: receiptGroupID,
		Topic:   ledger.TransactionCompletedTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	for {
		event := consumer.Poll(100) // Poll every 100ms
		switch e := event.(type) {
		case *kafka.Message:
			var transactionEvent ledger.TransactionEvent
			if err := json.Unmarshal(e.Value, &transactionEvent); err != nil {
				log.Printf("Error decoding transaction event: %v", err)
				continue
			}

			wk.sendReceipts(&transactionEvent)
		case kafka.Error:
			log.Printf("Error: %v\n", e)
		default:
			// Handle other events if needed
		}
	}
}

func (wk *Worker) sendReceipts(event *ledger.TransactionEvent) {
	for _, walletID := range []string{event.FromWalletID, event.ToWalletID} {
		if walletID == "" {
			continue
		}

		owner, found, err := wk.walletOwner(walletID)
		if err != nil {
			log.Printf("Error resolving wallet owner for receipt: %v", err)
			continue
		}
		if !found {
			continue
		}

		emailData := map[string]any{
			"BaseURL":       wk.BaseURL,
			"TransactionID": event.TransactionID,
			"Type":          event.Type,
			"Amount":        event.Amount,
			"Description":   event.Description,
			"CreatedAt":     event.CreatedAt,
		}

		if err := wk.Mailer.Send(owner.Email, emailData, "transaction-receipt.tmpl"); err != nil {
			log.Printf("Error sending transaction receipt: %v", err)
		}
	}
}
