// Package receipt turns raw OCR text into a categorized receipt.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"finlens/internal/classifier"
	"finlens/internal/core"
	"finlens/internal/extract"
	"finlens/internal/log"
)

const (
	DefaultMaxBytes = 64 << 10
	DefaultWorkers  = 8
)

var (
	ErrReceiptTooLarge = errors.New("receipt text too large")
	ErrInvalidUTF8     = errors.New("receipt text is not valid UTF-8")
)

// Classifier assigns a category to a description.
type Classifier interface {
	Classify(ctx context.Context, desc string) (classifier.Decision, error)
}

// Config tunes a Processor.
type Config struct {
	MaxBytes int
	Workers  int
}

// Processor runs the receipt pipeline. It is safe for concurrent use.
type Processor struct {
	classifier Classifier
	maxBytes   int
	workers    int
	logger     *log.Logger
}

// NewProcessor creates a processor using the given classifier.
func NewProcessor(c Classifier, cfg Config, logger *log.Logger) *Processor {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Processor{
		classifier: c,
		maxBytes:   cfg.MaxBytes,
		workers:    cfg.Workers,
		logger:     logger.WithComponent(log.ComponentReceipt),
	}
}

// slot holds the outcome of one input line.
type slot struct {
	res      extract.Result
	category core.Category
}

// Process extracts, classifies and aggregates every line of raw. Lines are
// handled in parallel but the output keeps input order. If ctx is cancelled
// nothing is returned except the context error.
func (p *Processor) Process(ctx context.Context, raw string) (core.CategorizedReceipt, error) {
	if len(raw) > p.maxBytes {
		return core.CategorizedReceipt{}, fmt.Errorf("%w: %d bytes (max %d)", ErrReceiptTooLarge, len(raw), p.maxBytes)
	}
	if !utf8.ValidString(raw) {
		return core.CategorizedReceipt{}, ErrInvalidUTF8
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	merchant, merchantIdx := Merchant(lines)

	slots := make([]slot, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, line := range lines {
		g.Go(func() error {
			res := extract.Line(line)
			slots[i].res = res
			if res.Kind != extract.KindItem {
				return nil
			}
			d, err := p.classifier.Classify(gctx, res.Description)
			if err != nil {
				return err
			}
			slots[i].category = d.Category
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.CategorizedReceipt{}, fmt.Errorf("process receipt: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return core.CategorizedReceipt{}, err
	}

	out := core.CategorizedReceipt{
		Merchant:           merchant,
		LineItems:          []core.LineItem{},
		UncategorizedLines: []string{},
	}
	for i, s := range slots {
		switch s.res.Kind {
		case extract.KindItem:
			out.LineItems = append(out.LineItems, core.LineItem{
				Description: s.res.Description,
				Category:    s.category,
				Amount:      s.res.Amount,
			})
		case extract.KindMiss:
			// Priceless lines up to the merchant line are the receipt header.
			if i <= merchantIdx {
				continue
			}
			out.UncategorizedLines = append(out.UncategorizedLines, s.res.Line)
		}
	}
	out.Categorized = Aggregate(out.LineItems)

	p.logger.DebugContext(ctx, "Receipt processed",
		log.FieldMerchant, out.Merchant,
		log.FieldLines, len(lines),
		"items", len(out.LineItems),
		"uncategorized", len(out.UncategorizedLines))
	return out, nil
}
