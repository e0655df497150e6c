package core

import (
	"sort"
	"time"
)

// RecentExpenses is how many of the latest expenses a summary carries.
const RecentExpenses = 5

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// ExpenseSummary is the overview of a user's spending over a date range.
type ExpenseSummary struct {
	Start      time.Time        `json:"start"`
	End        time.Time        `json:"end"`
	Total      Money            `json:"total"`
	Count      int              `json:"count"`
	ByCategory []CategoryAmount `json:"by_category"`
	Recent     []Expense        `json:"recent"`
}

// SortedTotals flattens a per-category map into a slice ordered by amount,
// largest first. Ties are broken by category name.
func SortedTotals(totals map[Category]Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for c, m := range totals {
		out = append(out, CategoryAmount{Category: c, Amount: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Summarize aggregates the expenses that fall inside r. Recent holds at most
// recent entries, newest first.
func Summarize(expenses []Expense, r DateRange, recent int) ExpenseSummary {
	s := ExpenseSummary{Start: r.Start, End: r.End}
	totals := make(map[Category]Money)
	in := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if !r.Contains(e.Date) {
			continue
		}
		in = append(in, e)
		s.Total = s.Total.Add(e.Amount)
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	s.Count = len(in)
	s.ByCategory = SortedTotals(totals)

	sort.SliceStable(in, func(i, j int) bool {
		if !in[i].Date.Equal(in[j].Date) {
			return in[i].Date.After(in[j].Date)
		}
		return in[i].ID > in[j].ID
	})
	if recent < 0 {
		recent = 0
	}
	if len(in) > recent {
		in = in[:recent]
	}
	s.Recent = in
	return s
}
