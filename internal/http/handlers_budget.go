package http

import (
	"net/http"

	"finlens/internal/core"
	"finlens/internal/log"
	"finlens/internal/middleware/trace"
)

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	userID, resp := requireUser(r)
	if resp != nil {
		resp.Write(w, r)
		return
	}
	var req setBudgetRequest
	if resp := decodeJSON(w, r, &req); resp != nil {
		resp.Write(w, r)
		return
	}

	b, err := s.expenses.SetBudget(r.Context(), core.Budget{
		UserID:   userID,
		Category: core.Category(sanitizeInput(req.Category)),
		Amount:   req.Amount,
		Icon:     sanitizeInput(req.Icon),
	})
	if err != nil {
		s.writeDomainError(w, r, "Budget update failed", log.OpUpsert, err)
		return
	}
	NewResponse().JSON(b).Write(w, r)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, resp := requireUser(r)
	if resp != nil {
		resp.Write(w, r)
		return
	}
	budgets, err := s.expenses.ListBudgets(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, "Budget listing failed", log.OpList, err)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	NewResponse().JSON(budgets).Write(w, r)
}

// handleBudgetAlerts lists the alerts of the current UTC month. A store
// failure is logged and rendered as an empty list.
func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	userID, resp := requireUser(r)
	if resp != nil {
		resp.Write(w, r)
		return
	}

	report, err := s.alerts.Alerts(r.Context(), userID, s.now())
	if err != nil {
		s.logger.LogError(r.Context(), "Budget alert evaluation failed", err, log.OpEvaluate,
			log.NewFields().WithUser(userID).WithRequestID(requestID(r)))
		NewResponse().JSON([]core.BudgetAlert{}).Write(w, r)
		return
	}

	alerts := report.Alerts
	if alerts == nil {
		alerts = []core.BudgetAlert{}
	}
	b := NewResponse()
	if report.Partial() {
		b.Header("X-Partial-Result", "true")
	}
	b.JSON(alerts).Write(w, r)
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}
