// Package budget evaluates monthly category spend against user budgets.
package budget

import (
	"context"
	"fmt"
	"time"

	"finlens/internal/core"
	"finlens/internal/log"
)

// MonthWindow returns the UTC calendar month containing now as [start, next).
func MonthWindow(now time.Time) core.DateRange {
	u := now.UTC()
	start := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	return core.DateRange{Start: start, End: start.AddDate(0, 1, 0)}
}

// Status classifies spend against a budget. The bool is false when no alert
// applies. Spending exactly the budget is NEAR_LIMIT; only strictly more is
// EXCEEDED. The 80% threshold is compared in integer cents.
func Status(spent, budget core.Money) (core.AlertStatus, bool) {
	s, b := spent.Cents, budget.Cents
	if b <= 0 || s <= 0 {
		return "", false
	}
	if s > b {
		return core.Exceeded, true
	}
	if 5*s >= 4*b {
		return core.NearLimit, true
	}
	return "", false
}

// Evaluate computes alerts from budgets and a list of expenses. Expenses
// outside the month of now, and categories without a budget, are ignored.
// Alerts follow the order of budgets.
func Evaluate(budgets []core.Budget, expenses []core.Expense, now time.Time) []core.BudgetAlert {
	window := MonthWindow(now)
	spent := map[core.Category]core.Money{}
	for _, e := range expenses {
		if window.Contains(e.Date) {
			spent[e.Category] = spent[e.Category].Add(e.Amount)
		}
	}

	alerts := []core.BudgetAlert{}
	for _, b := range budgets {
		if alert, ok := alertFor(b, spent[b.Category]); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

func alertFor(b core.Budget, spent core.Money) (core.BudgetAlert, bool) {
	status, ok := Status(spent, b.Amount)
	if !ok {
		return core.BudgetAlert{}, false
	}
	return core.BudgetAlert{
		Category: b.Category,
		Budget:   b.Amount,
		Spent:    spent,
		Status:   status,
		Icon:     b.Icon,
	}, true
}

// BudgetLister returns the budgets of a user.
type BudgetLister interface {
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
}

// SpendReader sums a user's spend in one category over a date range.
type SpendReader interface {
	CategorySpend(ctx context.Context, userID string, category core.Category, r core.DateRange) (core.Money, error)
}

// Report is the result of an evaluation. Omitted lists the categories whose
// spend could not be read; their alerts are missing from Alerts.
type Report struct {
	Alerts  []core.BudgetAlert `json:"alerts"`
	Omitted []core.Category    `json:"omitted,omitempty"`
}

// Partial reports whether some categories could not be evaluated.
func (r Report) Partial() bool { return len(r.Omitted) > 0 }

// Evaluator reads budgets and spend from a store on every call. Nothing is cached.
type Evaluator struct {
	budgets BudgetLister
	spend   SpendReader
	logger  *log.Logger
}

// NewEvaluator creates an evaluator over the given stores.
func NewEvaluator(budgets BudgetLister, spend SpendReader, logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.Discard()
	}
	return &Evaluator{budgets: budgets, spend: spend, logger: logger.WithComponent(log.ComponentBudget)}
}

// Alerts evaluates every budget of userID for the month containing now.
// A category whose spend fails is logged and omitted; the rest still report.
func (e *Evaluator) Alerts(ctx context.Context, userID string, now time.Time) (Report, error) {
	budgets, err := e.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("list budgets: %w", err)
	}

	window := MonthWindow(now)
	report := Report{Alerts: []core.BudgetAlert{}}
	for _, b := range budgets {
		spent, err := e.spend.CategorySpend(ctx, userID, b.Category, window)
		if err != nil {
			if ctx.Err() != nil {
				return Report{}, ctx.Err()
			}
			e.logger.LogError(ctx, "Category spend unavailable", err, log.OpEvaluate,
				log.LogFields{log.FieldCategory: string(b.Category)}.WithUser(userID))
			report.Omitted = append(report.Omitted, b.Category)
			continue
		}
		if alert, ok := alertFor(b, spent); ok {
			report.Alerts = append(report.Alerts, alert)
		}
	}
	return report, nil
}
