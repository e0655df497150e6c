// Package textclean removes decorative and trailing noise from receipt lines.
//
// The cleanup is an ordered list of named steps. Each step is a single
// regular-expression rewrite, so every step can be exercised on its own.
package textclean

import (
	"regexp"
	"strings"
)

// Step is one named rewrite of the cleanup chain.
type Step struct {
	Name    string
	pattern *regexp.Regexp
	repl    string
}

// Apply runs the step once over s.
func (s Step) Apply(text string) string {
	return s.pattern.ReplaceAllString(text, s.repl)
}

const leadingNoise = "=-~*"

// Steps is the cleanup chain in the order it must run. Later steps assume the
// earlier noise is already gone.
var Steps = []Step{
	{Name: "trailing-price", pattern: regexp.MustCompile(`[\s:=~-]*[$₹€]?\s?\d{1,3}[.,]\d{1,7}\s*$`)},
	{Name: "quantity-unit", pattern: regexp.MustCompile(`(?i)\b\d+\s*(kg|g|lbs|oz|ml|l|pcs|pack|packs|tablet|tabs|bottle|box)\b`), repl: " "},
	{Name: "decoration", pattern: regexp.MustCompile(`[-=~*]+`), repl: " "},
	{Name: "summary-words", pattern: regexp.MustCompile(`(?i)\b(tax|total|payment method)\b`), repl: " "},
	{Name: "clock-time", pattern: regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}(\s*[ap]m)?\b`), repl: " "},
	{Name: "street-suffix", pattern: regexp.MustCompile(`(?i)\b(st|rd|road|ave|avenue|blvd|street)\b`), repl: " "},
}

// CleanLeading drops any run of decorative characters at the start of line.
func CleanLeading(line string) string {
	return strings.TrimLeft(line, leadingNoise)
}

// StripPriceAndNoise runs the whole chain, trims and collapses whitespace.
// The chain is repeated until nothing changes, so the result is a fixed point:
// StripPriceAndNoise(StripPriceAndNoise(x)) == StripPriceAndNoise(x).
func StripPriceAndNoise(text string) string {
	return fixpoint(text, Steps)
}

// StripNoise is StripPriceAndNoise without the trailing-price step, for text
// whose price was already cut off.
func StripNoise(text string) string {
	return fixpoint(text, Steps[1:])
}

func fixpoint(text string, steps []Step) string {
	cur := pass(text, steps)
	// Every pass that changes the text shortens it or turns a non-space
	// character into a space, so this terminates within len(text) passes.
	for i := 0; i <= len(text); i++ {
		next := pass(cur, steps)
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

func pass(text string, steps []Step) string {
	for _, s := range steps {
		text = s.Apply(text)
	}
	return strings.Join(strings.Fields(text), " ")
}
