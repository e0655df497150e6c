package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"finlens/internal/amqp"
	"finlens/internal/core"
	"finlens/internal/ledger"
	"finlens/internal/log"
)

// ReceiptProcessor runs the receipt pipeline on raw OCR text.
type ReceiptProcessor interface {
	Process(ctx context.Context, raw string) (core.CategorizedReceipt, error)
}

// ReceiptPublisher hands a receipt to the worker.
type ReceiptPublisher interface {
	PublishReceiptScanned(ctx context.Context, msg *amqp.ReceiptScannedMessage) error
}

// SaveStatus reports what happened to a receipt the user asked to keep.
type SaveStatus string

const (
	SaveNone   SaveStatus = ""
	SaveQueued SaveStatus = "queued"
	SaveStored SaveStatus = "stored"
	SaveFailed SaveStatus = "failed"
)

// ScanResult is a processed receipt plus the outcome of saving it.
type ScanResult struct {
	Receipt   core.CategorizedReceipt
	ReceiptID string
	Save      SaveStatus
}

// ReceiptService processes receipts and optionally keeps them as expenses.
//
// Saved receipts are published to the broker. When no broker is configured,
// or publishing fails, they are written straight to the store. A failed save
// never fails the scan itself.
type ReceiptService struct {
	processor ReceiptProcessor
	publisher ReceiptPublisher
	store     ledger.ReceiptWriter
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

func NewReceiptService(p ReceiptProcessor, publisher ReceiptPublisher, store ledger.ReceiptWriter, logger *log.Logger) *ReceiptService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReceiptService{
		processor: p,
		publisher: publisher,
		store:     store,
		logger:    logger.WithComponent(log.ComponentReceipt),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Scan processes raw. With save set, the line items are kept for userID.
func (s *ReceiptService) Scan(ctx context.Context, userID, raw string, save bool) (ScanResult, error) {
	if save && strings.TrimSpace(userID) == "" {
		return ScanResult{}, core.ErrEmptyUser
	}

	receipt, err := s.processor.Process(ctx, raw)
	if err != nil {
		return ScanResult{}, err
	}
	res := ScanResult{Receipt: receipt}
	if !save || len(receipt.LineItems) == 0 {
		return res, nil
	}

	scanned := core.ScannedReceipt{
		ID:        s.newID(),
		UserID:    userID,
		Merchant:  receipt.Merchant,
		ScannedAt: s.now().UTC(),
		Items:     receipt.LineItems,
	}
	res.ReceiptID = scanned.ID
	res.Save = s.keep(ctx, scanned)
	return res, nil
}

func (s *ReceiptService) keep(ctx context.Context, r core.ScannedReceipt) SaveStatus {
	fields := log.NewFields().WithUser(r.UserID).WithOperation(log.OpPublish)
	fields[log.FieldReceiptID] = r.ID

	if s.publisher != nil {
		err := s.publisher.PublishReceiptScanned(ctx, amqp.NewReceiptScannedMessage(r))
		if err == nil {
			return SaveQueued
		}
		s.logger.LogError(ctx, "Failed to publish receipt, storing directly", err, log.OpPublish, fields)
	}

	if s.store == nil {
		s.logger.WarnContext(ctx, "No receipt store available, receipt not saved", fields.ToSlice()...)
		return SaveFailed
	}
	if _, err := s.store.SaveReceipt(ctx, r); err != nil {
		s.logger.LogError(ctx, "Failed to store receipt", fmt.Errorf("save receipt: %w", err), log.OpCreate, fields)
		return SaveFailed
	}
	return SaveStored
}
