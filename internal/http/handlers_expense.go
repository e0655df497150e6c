package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"finlens/internal/core"
	"finlens/internal/ledger"
	"finlens/internal/log"
	"finlens/internal/services"
)

type createExpenseRequest struct {
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Icon        string     `json:"icon"`
	Date        string     `json:"date"`
}

type setBudgetRequest struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Icon     string     `json:"icon"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, resp := requireUser(r)
	if resp != nil {
		resp.Write(w, r)
		return
	}
	var req createExpenseRequest
	if resp := decodeJSON(w, r, &req); resp != nil {
		resp.Write(w, r)
		return
	}

	var date time.Time
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			UnprocessableEntityError(err.Error()).Write(w, r)
			return
		}
		date = d
	}

	e, err := s.expenses.CreateExpense(r.Context(), core.Expense{
		UserID:      userID,
		Category:    core.Category(sanitizeInput(req.Category)),
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Icon:        sanitizeInput(req.Icon),
		Date:        date,
	})
	if err != nil {
		s.writeDomainError(w, r, "Expense creation failed", log.OpCreate, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(e).Write(w, r)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, resp := requireUser(r)
	if resp != nil {
		resp.Write(w, r)
		return
	}
	rng, err := parseRange(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w, r)
		return
	}

	expenses, err := s.expenses.ListExpenses(r.Context(), userID, rng)
	if err != nil {
		s.writeDomainError(w, r, "Expense listing failed", log.OpList, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	NewResponse().JSON(expenses).Write(w, r)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	userID, resp := requireUser(r)
	if resp != nil {
		resp.Write(w, r)
		return
	}
	id, resp := expenseID(r)
	if resp != nil {
		resp.Write(w, r)
		return
	}

	e, err := s.expenses.GetExpense(r.Context(), userID, id)
	if err != nil {
		s.writeDomainError(w, r, "Expense lookup failed", log.OpRead, err)
		return
	}
	NewResponse().JSON(e).Write(w, r)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, resp := requireUser(r)
	if resp != nil {
		resp.Write(w, r)
		return
	}
	id, resp := expenseID(r)
	if resp != nil {
		resp.Write(w, r)
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), userID, id); err != nil {
		s.writeDomainError(w, r, "Expense deletion failed", log.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w, r)
}

// handleExpenseSummary serves the per-category totals and latest expenses
// over the same ?from=&to= range as the expense list.
func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	userID, resp := requireUser(r)
	if resp != nil {
		resp.Write(w, r)
		return
	}
	rng, err := parseRange(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w, r)
		return
	}

	sum, err := s.expenses.Summary(r.Context(), userID, rng)
	if err != nil {
		s.writeDomainError(w, r, "Expense summary failed", log.OpRead, err)
		return
	}
	NewResponse().JSON(sum).Write(w, r)
}

func expenseID(r *http.Request) (int64, *ResponseBuilder) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, BadRequestError("invalid expense id")
	}
	return id, nil
}

// writeDomainError maps validation errors to 4xx and logs everything else.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, msg, op string, err error) {
	switch {
	case errors.Is(err, core.ErrEmptyUser):
		BadRequestError("missing " + HeaderUserID + " header").Write(w, r)
	case errors.Is(err, core.ErrUnknownCategory):
		UnprocessableEntityError("unknown category, use one of: " + core.CategoryNames(", ")).Write(w, r)
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrDescriptionLong),
		errors.Is(err, core.ErrZeroDate):
		UnprocessableEntityError(err.Error()).Write(w, r)
	case errors.Is(err, services.ErrInvalidRange):
		BadRequestError(err.Error()).Write(w, r)
	case errors.Is(err, ledger.ErrNotFound):
		NotFoundError("expense not found").Write(w, r)
	default:
		s.logger.LogError(r.Context(), msg, err, op, log.NewFields().WithRequestID(requestID(r)))
		InternalServerError("internal error").Write(w, r)
	}
}
