// Package extract splits a receipt line into a description and a price.
package extract

import (
	"regexp"
	"strings"

	"finlens/internal/core"
	"finlens/internal/textclean"
)

// Kind tells the aggregator what to do with a line.
type Kind int

const (
	// KindBlank is an empty or whitespace-only line.
	KindBlank Kind = iota
	// KindItem carries a description and a positive amount.
	KindItem
	// KindMiss has no price token; the line is reported as uncategorized.
	KindMiss
	// KindSkip has a price but nothing usable around it, so it is dropped.
	KindSkip
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindMiss:
		return "miss"
	case KindSkip:
		return "skip"
	default:
		return "blank"
	}
}

// Result is the outcome of extracting one line.
type Result struct {
	Kind        Kind
	Line        string // the line after leading-noise cleanup
	Description string
	Amount      core.Money
}

var pricePattern = regexp.MustCompile(`[$₹€]?(\d+\.\d{2})`)

// Line extracts the first two-decimal price of raw. A line without a price is
// not an error; it comes back as KindMiss.
func Line(raw string) Result {
	line := textclean.CleanLeading(strings.TrimSpace(raw))
	if strings.TrimSpace(line) == "" {
		return Result{Kind: KindBlank}
	}

	loc := pricePattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return Result{Kind: KindMiss, Line: line}
	}

	res := Result{Kind: KindSkip, Line: line}
	cents, err := core.ParseDecimalToCents(line[loc[2]:loc[3]])
	if err != nil {
		return res
	}
	desc := core.ClampDescription(textclean.StripNoise(line[:loc[0]]))
	if desc == "" {
		return res
	}

	res.Kind = KindItem
	res.Description = desc
	res.Amount = core.Money{Cents: cents}
	return res
}
