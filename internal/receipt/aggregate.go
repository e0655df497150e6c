package receipt

import "finlens/internal/core"

// Aggregate sums line item amounts per category.
func Aggregate(items []core.LineItem) map[core.Category]core.Money {
	out := make(map[core.Category]core.Money)
	for _, it := range items {
		out[it.Category] = out[it.Category].Add(it.Amount)
	}
	return out
}
