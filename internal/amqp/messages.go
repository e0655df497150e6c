package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finlens/internal/core"
)

var ErrInvalidMessage = errors.New("invalid message")

// ReceiptScannedMessage carries a processed receipt the user asked to keep.
// The worker turns every item into an expense.
type ReceiptScannedMessage struct {
	ReceiptID string          `json:"receipt_id"`
	UserID    string          `json:"user_id"`
	Merchant  string          `json:"merchant"`
	ScannedAt time.Time       `json:"scanned_at"`
	Items     []core.LineItem `json:"items"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewReceiptScannedMessage wraps a scanned receipt for publishing.
func NewReceiptScannedMessage(r core.ScannedReceipt) *ReceiptScannedMessage {
	return &ReceiptScannedMessage{
		ReceiptID: r.ID,
		UserID:    r.UserID,
		Merchant:  r.Merchant,
		ScannedAt: r.ScannedAt.UTC(),
		Items:     r.Items,
		Timestamp: time.Now().UTC(),
	}
}

// Receipt converts the message back into the domain type.
func (m *ReceiptScannedMessage) Receipt() core.ScannedReceipt {
	return core.ScannedReceipt{
		ID:        m.ReceiptID,
		UserID:    m.UserID,
		Merchant:  m.Merchant,
		ScannedAt: m.ScannedAt,
		Items:     m.Items,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReceiptScannedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReceiptScannedMessageFromJSON decodes and checks a message body.
func ReceiptScannedMessageFromJSON(data []byte) (*ReceiptScannedMessage, error) {
	var msg ReceiptScannedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.ReceiptID == "" || msg.UserID == "" {
		return nil, fmt.Errorf("%w: missing receipt or user id", ErrInvalidMessage)
	}
	if msg.ScannedAt.IsZero() {
		return nil, fmt.Errorf("%w: missing scan time", ErrInvalidMessage)
	}
	return &msg, nil
}
