package core

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// AlertStatus is the threshold state of a budgeted category.
type AlertStatus string

const (
	NearLimit AlertStatus = "NEAR_LIMIT"
	Exceeded  AlertStatus = "EXCEEDED"
)

const (
	// UnknownMerchant is used when no merchant name survives cleanup.
	UnknownMerchant = "Unknown Merchant"

	// MaxDescriptionLen is the longest description, in bytes, an expense may carry.
	MaxDescriptionLen = 200
)

type (
	// LineItem is one purchased item recovered from a receipt line.
	LineItem struct {
		Description string   `json:"description"`
		Category    Category `json:"category"`
		Amount      Money    `json:"amount"`
	}

	// CategorizedReceipt is the result of one receipt pipeline run.
	CategorizedReceipt struct {
		Merchant           string             `json:"merchant"`
		Categorized        map[Category]Money `json:"categorized"`
		LineItems          []LineItem         `json:"line_items"`
		UncategorizedLines []string           `json:"uncategorized_lines"`
	}

	// Expense is a persisted spend record for one user.
	Expense struct {
		ID          int64     `json:"id,omitempty"`
		UserID      string    `json:"user_id"`
		Category    Category  `json:"category"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Icon        string    `json:"icon,omitempty"`
		Date        time.Time `json:"date"`
	}

	// Budget is the monthly spending limit of a user for one category.
	Budget struct {
		UserID   string   `json:"user_id"`
		Category Category `json:"category"`
		Amount   Money    `json:"amount"`
		Icon     string   `json:"icon,omitempty"`
	}

	// BudgetAlert is derived on every evaluation and never stored.
	BudgetAlert struct {
		Category Category    `json:"category"`
		Budget   Money       `json:"budget"`
		Spent    Money       `json:"spent"`
		Status   AlertStatus `json:"status"`
		Icon     string      `json:"icon,omitempty"`
	}

	// ScannedReceipt is a processed receipt a user asked to keep. Each line
	// item becomes one expense dated ScannedAt.
	ScannedReceipt struct {
		ID        string     `json:"id"`
		UserID    string     `json:"user_id"`
		Merchant  string     `json:"merchant"`
		ScannedAt time.Time  `json:"scanned_at"`
		Items     []LineItem `json:"items"`
	}

	// DateRange is a half-open time interval [Start, End).
	DateRange struct {
		Start time.Time
		End   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrEmptyUser        = errors.New("empty user id")
	ErrZeroDate         = errors.New("date cannot be zero")
)

// Contains reports whether t falls inside the half-open range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Total returns the sum of all categorized amounts.
func (r CategorizedReceipt) Total() Money {
	var sum Money
	for _, m := range r.Categorized {
		sum = sum.Add(m)
	}
	return sum
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUser
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > MaxDescriptionLen {
		return ErrDescriptionLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrUnknownCategory
	}
	return nil
}

// ClampDescription cuts s to at most MaxDescriptionLen bytes without
// splitting a UTF-8 sequence, then trims trailing whitespace.
func ClampDescription(s string) string {
	if len(s) <= MaxDescriptionLen {
		return s
	}
	cut := MaxDescriptionLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRightFunc(s[:cut], unicode.IsSpace)
}

// Expenses expands the receipt into one expense per line item. Descriptions
// are clamped so that an overlong OCR line cannot block the whole receipt.
func (r ScannedReceipt) Expenses() []Expense {
	out := make([]Expense, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, Expense{
			UserID:      r.UserID,
			Category:    it.Category,
			Description: ClampDescription(it.Description),
			Amount:      it.Amount,
			Date:        r.ScannedAt,
		})
	}
	return out
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUser
	}
	if !b.Category.Valid() {
		return ErrUnknownCategory
	}
	return b.Amount.Validate()
}
