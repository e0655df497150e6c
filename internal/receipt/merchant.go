package receipt

import (
	"regexp"
	"strings"

	"finlens/internal/core"
)

var greetingPattern = regexp.MustCompile(`(?i)(welcome to|receipt from|thank you for shopping at|store:)`)

const merchantPunct = ".,;:-*_# \t"

// Merchant picks the merchant name from the receipt lines and reports the
// index of the line it came from, or -1.
func Merchant(lines []string) (string, int) {
	first, second := -1, -1
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if first < 0 {
			first = i
			continue
		}
		second = i
		break
	}
	if first < 0 {
		return core.UnknownMerchant, -1
	}

	idx := first
	if len([]rune(strings.TrimSpace(lines[first]))) < 3 && second >= 0 {
		idx = second
	}

	name := greetingPattern.ReplaceAllString(strings.TrimSpace(lines[idx]), "")
	name = strings.Trim(name, merchantPunct)
	if name == "" {
		return core.UnknownMerchant, idx
	}
	return name, idx
}
