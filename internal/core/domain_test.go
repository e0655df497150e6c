package core

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(" " + string(c) + " ")
		if err != nil || got != c {
			t.Fatalf("ParseCategory(%q) = %q, %v", c, got, err)
		}
	}
	for _, bad := range []string{"", "groceries", "Personal care", "Misc"} {
		if _, err := ParseCategory(bad); !errors.Is(err, ErrUnknownCategory) {
			t.Fatalf("ParseCategory(%q) expected ErrUnknownCategory, got %v", bad, err)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	good := Expense{UserID: "u1", Category: Groceries, Description: "milk", Amount: Money{Cents: 100}, Date: now}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		name string
		mut  func(*Expense)
		want error
	}{
		{"no user", func(e *Expense) { e.UserID = " " }, ErrEmptyUser},
		{"zero date", func(e *Expense) { e.Date = time.Time{} }, ErrZeroDate},
		{"no description", func(e *Expense) { e.Description = "" }, ErrEmptyDescription},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"bad category", func(e *Expense) { e.Category = "Misc" }, ErrUnknownCategory},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			e := good
			tc.mut(&e)
			if err := e.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDateRangeContainsIsHalfOpen(t *testing.T) {
	r := DateRange{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	if !r.Contains(r.Start) {
		t.Fatal("start must be included")
	}
	if r.Contains(r.End) {
		t.Fatal("end must be excluded")
	}
	if !r.Contains(r.End.Add(-time.Nanosecond)) {
		t.Fatal("last instant must be included")
	}
}

func TestSortedTotals(t *testing.T) {
	got := SortedTotals(map[Category]Money{
		Food:      {Cents: 500},
		Groceries: {Cents: 900},
		Health:    {Cents: 500},
	})
	want := []Category{Groceries, Food, Health}
	for i, c := range want {
		if got[i].Category != c {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Category, c)
		}
	}
}

func TestClampDescription(t *testing.T) {
	short := "Milk"
	if got := ClampDescription(short); got != short {
		t.Fatalf("short description changed: %q", got)
	}

	long := strings.Repeat("a", 300)
	if got := ClampDescription(long); len(got) != MaxDescriptionLen {
		t.Fatalf("len = %d, want %d", len(got), MaxDescriptionLen)
	}

	// 199 ASCII bytes followed by a two-byte rune straddling the limit.
	straddle := strings.Repeat("b", 199) + "é" + strings.Repeat("c", 50)
	got := ClampDescription(straddle)
	if !utf8.ValidString(got) || len(got) != 199 {
		t.Fatalf("got %d bytes, valid=%v", len(got), utf8.ValidString(got))
	}

	spaced := strings.Repeat("d", 195) + "      " + strings.Repeat("e", 50)
	if got := ClampDescription(spaced); got != strings.Repeat("d", 195) {
		t.Fatalf("trailing space kept: %q", got[190:])
	}
}

func TestScannedReceiptExpensesAreValid(t *testing.T) {
	r := ScannedReceipt{
		ID:        "r1",
		UserID:    "u1",
		ScannedAt: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
		Items: []LineItem{
			{Description: "Milk", Category: Groceries, Amount: Money{Cents: 4500}},
			{Description: strings.Repeat("Gadget ", 43), Category: Shopping, Amount: Money{Cents: 999}},
		},
	}
	for _, e := range r.Expenses() {
		if err := e.Validate(); err != nil {
			t.Fatalf("expense %q: %v", e.Description[:10], err)
		}
	}
}

func TestSummarize(t *testing.T) {
	may := DateRange{
		Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }
	expenses := []Expense{
		{ID: 1, Category: Groceries, Amount: Money{Cents: 1200}, Date: day(2)},
		{ID: 2, Category: Food, Amount: Money{Cents: 800}, Date: day(9)},
		{ID: 3, Category: Groceries, Amount: Money{Cents: 300}, Date: day(20)},
		{ID: 4, Category: Health, Amount: Money{Cents: 2500}, Date: day(14)},
		{ID: 5, Category: Food, Amount: Money{Cents: 100}, Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	s := Summarize(expenses, may, 2)
	if s.Count != 4 {
		t.Fatalf("count = %d, want 4", s.Count)
	}
	if s.Total.Cents != 4800 {
		t.Fatalf("total = %d, want 4800", s.Total.Cents)
	}
	wantCats := []CategoryAmount{
		{Category: Health, Amount: Money{Cents: 2500}},
		{Category: Groceries, Amount: Money{Cents: 1500}},
		{Category: Food, Amount: Money{Cents: 800}},
	}
	if len(s.ByCategory) != len(wantCats) {
		t.Fatalf("by category = %+v", s.ByCategory)
	}
	for i, w := range wantCats {
		if s.ByCategory[i] != w {
			t.Errorf("by category[%d] = %+v, want %+v", i, s.ByCategory[i], w)
		}
	}
	if len(s.Recent) != 2 || s.Recent[0].ID != 3 || s.Recent[1].ID != 4 {
		t.Fatalf("recent = %+v", s.Recent)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, DateRange{}, RecentExpenses)
	if s.Count != 0 || s.Total.Cents != 0 {
		t.Fatalf("summary = %+v", s)
	}
	if s.ByCategory == nil || s.Recent == nil {
		t.Fatal("empty summary must carry empty slices, not nil")
	}
}
