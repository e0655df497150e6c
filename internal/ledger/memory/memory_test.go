package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"finlens/internal/core"
	"finlens/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	window := core.DateRange{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	if _, err := s.CreateExpense(ctx, core.Expense{UserID: "u1", Category: core.Food, Description: "Pizza", Amount: core.Money{Cents: 1200}, Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateExpense(ctx, core.Expense{UserID: "u1", Category: core.Food, Description: "", Amount: core.Money{Cents: 1}, Date: time.Now()}); err == nil {
		t.Fatal("expected validation error")
	}

	rc := core.ScannedReceipt{
		ID: "r1", UserID: "u1", ScannedAt: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		Items: []core.LineItem{{Description: "Burger", Category: core.Food, Amount: core.Money{Cents: 899}}},
	}
	if created, err := s.SaveReceipt(ctx, rc); err != nil || !created {
		t.Fatalf("SaveReceipt = %v, %v", created, err)
	}
	if created, _ := s.SaveReceipt(ctx, rc); created {
		t.Fatal("duplicate receipt stored twice")
	}

	spend, _ := s.CategorySpend(ctx, "u1", core.Food, window)
	if spend.Cents != 2099 {
		t.Fatalf("spend = %d", spend.Cents)
	}
	list, _ := s.ListExpenses(ctx, "u1", window)
	if len(list) != 2 || list[0].Description != "Burger" {
		t.Fatalf("list = %+v", list)
	}

	_, _ = s.SetBudget(ctx, core.Budget{UserID: "u1", Category: core.Food, Amount: core.Money{Cents: 100}})
	_, _ = s.SetBudget(ctx, core.Budget{UserID: "u1", Category: core.Health, Amount: core.Money{Cents: 100}})
	_, _ = s.SetBudget(ctx, core.Budget{UserID: "u1", Category: core.Food, Amount: core.Money{Cents: 300}, Icon: "🍔"})
	budgets, _ := s.ListBudgets(ctx, "u1")
	if len(budgets) != 2 || budgets[0].Amount.Cents != 300 || budgets[0].Icon != "🍔" {
		t.Fatalf("budgets = %+v", budgets)
	}
}

func TestStoreGetAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	at := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	keep, _ := s.CreateExpense(ctx, core.Expense{UserID: "u1", Category: core.Food, Description: "Pizza", Amount: core.Money{Cents: 1200}, Date: at})
	drop, _ := s.CreateExpense(ctx, core.Expense{UserID: "u1", Category: core.Food, Description: "Kebab", Amount: core.Money{Cents: 700}, Date: at})

	if got, err := s.GetExpense(ctx, "u1", keep); err != nil || got.Description != "Pizza" {
		t.Fatalf("GetExpense = %+v, %v", got, err)
	}
	if _, err := s.GetExpense(ctx, "u2", keep); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("other user: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteExpense(ctx, "u1", drop); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteExpense(ctx, "u1", drop); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	list, _ := s.ListExpenses(ctx, "u1", core.DateRange{Start: at, End: at.AddDate(0, 1, 0)})
	if len(list) != 1 || list[0].ID != keep {
		t.Fatalf("list = %+v", list)
	}
}
