package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"finlens/internal/core"
	"finlens/internal/log"
	"finlens/internal/receipt"
	"finlens/internal/services"
)

type scanResponse struct {
	core.CategorizedReceipt
	Total     core.Money          `json:"total"`
	ReceiptID string              `json:"receipt_id,omitempty"`
	Save      services.SaveStatus `json:"save,omitempty"`
}

// handleScanReceipt runs the receipt pipeline. With ?save=true the items are
// kept as expenses of the X-User-ID user.
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	save := false
	if v := r.URL.Query().Get("save"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			BadRequestError("save must be true or false").Write(w, r)
			return
		}
		save = b
	}

	userID := sanitizeInput(r.Header.Get(HeaderUserID))
	if save {
		id, resp := requireUser(r)
		if resp != nil {
			resp.Write(w, r)
			return
		}
		userID = id
	}

	text, resp := s.readReceiptText(w, r)
	if resp != nil {
		resp.Write(w, r)
		return
	}

	res, err := s.receipts.Scan(r.Context(), userID, text, save)
	if err != nil {
		s.scanError(w, r, err)
		return
	}

	logger := log.FromContext(r.Context())
	logger.InfoContext(r.Context(), "Receipt scanned",
		log.FieldMerchant, res.Receipt.Merchant,
		"items", len(res.Receipt.LineItems),
		"uncategorized", len(res.Receipt.UncategorizedLines),
		"save", string(res.Save))

	NewResponse().JSON(scanResponse{
		CategorizedReceipt: res.Receipt,
		Total:              res.Receipt.Total(),
		ReceiptID:          res.ReceiptID,
		Save:               res.Save,
	}).Write(w, r)
}

func (s *Server) scanError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, receipt.ErrReceiptTooLarge):
		ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w, r)
	case errors.Is(err, receipt.ErrInvalidUTF8):
		BadRequestError(err.Error()).Write(w, r)
	case errors.Is(err, core.ErrEmptyUser):
		BadRequestError("missing " + HeaderUserID + " header").Write(w, r)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.WarnContext(r.Context(), "Receipt scan aborted", log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "receipt processing was interrupted").Write(w, r)
	default:
		s.logger.LogError(r.Context(), "Receipt scan failed", err, log.OpScan, nil)
		InternalServerError("failed to process receipt").Write(w, r)
	}
}
