package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"finlens/internal/core"
	"finlens/internal/log"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"amqp closed", amqp091.ErrClosed, true},
		{"wrapped closed", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"connection refused", errors.New("connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"other error", errors.New("invalid input"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

type fakeAck struct {
	acks    int
	nacks   int
	requeue bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acks++; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacks++
	f.requeue = requeue
	return nil
}
func (f *fakeAck) Reject(uint64, bool) error { return nil }

func validBody(t *testing.T) []byte {
	t.Helper()
	msg := NewReceiptScannedMessage(core.ScannedReceipt{
		ID: "r1", UserID: "u1", Merchant: "Shop", ScannedAt: time.Now(),
		Items: []core.LineItem{{Description: "Milk", Category: core.Groceries, Amount: core.Money{Cents: 4500}}},
	})
	b, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleDelivery(t *testing.T) {
	c := &Client{logger: log.Discard()}
	ok := func(context.Context, *ReceiptScannedMessage) error { return nil }
	fail := func(context.Context, *ReceiptScannedMessage) error { return errors.New("db locked") }

	cases := []struct {
		name        string
		body        []byte
		redelivered bool
		handler     ReceiptHandler
		acks, nacks int
		requeue     bool
	}{
		{"success", validBody(t), false, ok, 1, 0, false},
		{"bad json", []byte("{"), false, ok, 0, 1, false},
		{"missing ids", []byte(`{"merchant":"x"}`), false, ok, 0, 1, false},
		{"handler error requeues", validBody(t), false, fail, 0, 1, true},
		{"redelivered failure dropped", validBody(t), true, fail, 0, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ack := &fakeAck{}
			d := amqp091.Delivery{Acknowledger: ack, Body: tc.body, Redelivered: tc.redelivered}
			c.handleDelivery(context.Background(), d, tc.handler)
			if ack.acks != tc.acks || ack.nacks != tc.nacks || ack.requeue != tc.requeue {
				t.Fatalf("acks=%d nacks=%d requeue=%v", ack.acks, ack.nacks, ack.requeue)
			}
		})
	}
}

func TestReceiptScannedMessageRoundTrip(t *testing.T) {
	msg, err := ReceiptScannedMessageFromJSON(validBody(t))
	if err != nil {
		t.Fatal(err)
	}
	r := msg.Receipt()
	if r.ID != "r1" || r.UserID != "u1" || len(r.Items) != 1 || r.Items[0].Amount.Cents != 4500 {
		t.Fatalf("receipt = %+v", r)
	}
	if _, err := ReceiptScannedMessageFromJSON([]byte(`{"receipt_id":"r","user_id":"u"}`)); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestPublishWithoutChannel(t *testing.T) {
	c := &Client{logger: log.Discard(), url: "amqp://127.0.0.1:1/"}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := c.PublishReceiptScanned(ctx, &ReceiptScannedMessage{ReceiptID: "r"}); err == nil {
		t.Fatal("expected error without a broker")
	}
}
