package classifier

import (
	"strconv"
	"strings"

	"finlens/internal/textclean"
)

const tokenPunct = `.,;:!?"'()[]{}#`

// Tokens is the lexical normalizer applied before feature extraction, both when
// training and when predicting. It runs the receipt noise cleanup, lowercases
// and drops tokens that are numbers or carry a currency prefix.
func Tokens(desc string) []string {
	cleaned := strings.ToLower(textclean.StripPriceAndNoise(desc))
	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, f := range fields {
		if isCurrency(f) {
			continue
		}
		f = strings.Trim(f, tokenPunct)
		if f == "" || isNumeric(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isCurrency(tok string) bool {
	return strings.HasPrefix(tok, "$") || strings.HasPrefix(tok, "₹") || strings.HasPrefix(tok, "€")
}

func isNumeric(tok string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", "."), 64)
	return err == nil
}
