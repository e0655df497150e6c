package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finlens/internal/amqp"
	"finlens/internal/core"
	"finlens/internal/ledger/memory"
)

func testMessage() *amqp.ReceiptScannedMessage {
	return amqp.NewReceiptScannedMessage(core.ScannedReceipt{
		ID:        "r-1",
		UserID:    "u1",
		Merchant:  "Corner Shop",
		ScannedAt: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		Items: []core.LineItem{
			{Description: "Milk", Category: core.Groceries, Amount: core.Money{Cents: 4500}},
			{Description: "Bread", Category: core.Groceries, Amount: core.Money{Cents: 300}},
		},
	})
}

func TestHandleReceiptScanned(t *testing.T) {
	store := memory.New()
	w := NewReceiptWorker(store, nil)
	ctx := context.Background()
	msg := testMessage()

	// The second delivery is a redelivery of the same receipt.
	for i := 0; i < 2; i++ {
		if err := w.HandleReceiptScanned(ctx, msg); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	window := core.DateRange{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	expenses, err := store.ListExpenses(ctx, "u1", window)
	if err != nil {
		t.Fatal(err)
	}
	if len(expenses) != 2 {
		t.Fatalf("stored %d expenses, want 2", len(expenses))
	}
}

type failingStore struct{}

func (failingStore) SaveReceipt(context.Context, core.ScannedReceipt) (bool, error) {
	return false, errors.New("database is locked")
}

func TestHandleReceiptScannedError(t *testing.T) {
	w := NewReceiptWorker(failingStore{}, nil)
	if err := w.HandleReceiptScanned(context.Background(), testMessage()); err == nil {
		t.Fatal("expected an error from a failing store")
	}
}
