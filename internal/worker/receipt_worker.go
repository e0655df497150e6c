package worker

import (
	"context"
	"fmt"

	"finlens/internal/amqp"
	"finlens/internal/ledger"
	"finlens/internal/log"
)

// ReceiptWorker persists receipts published by the API as expenses.
type ReceiptWorker struct {
	store  ledger.ReceiptWriter
	logger *log.Logger
}

func NewReceiptWorker(store ledger.ReceiptWriter, logger *log.Logger) *ReceiptWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReceiptWorker{
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleReceiptScanned writes every line item of msg as an expense. A receipt
// that was already stored is acknowledged without writing it twice.
func (w *ReceiptWorker) HandleReceiptScanned(ctx context.Context, msg *amqp.ReceiptScannedMessage) error {
	w.logger.InfoContext(ctx, "Processing receipt message",
		log.FieldReceiptID, msg.ReceiptID,
		log.FieldUserID, msg.UserID,
		"items", len(msg.Items))

	created, err := w.store.SaveReceipt(ctx, msg.Receipt())
	if err != nil {
		return fmt.Errorf("save receipt %s: %w", msg.ReceiptID, err)
	}

	if !created {
		w.logger.InfoContext(ctx, "Receipt already stored, skipping",
			log.FieldReceiptID, msg.ReceiptID)
		return nil
	}

	w.logger.InfoContext(ctx, "Receipt stored",
		log.FieldReceiptID, msg.ReceiptID,
		log.FieldMerchant, msg.Merchant,
		"expenses", len(msg.Items))
	return nil
}
