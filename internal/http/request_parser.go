package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finlens/internal/budget"
	"finlens/internal/core"
)

// HeaderUserID names the caller. Authentication happens upstream.
const HeaderUserID = "X-User-ID"

const (
	maxUserIDLen  = 128
	maxJSONBody   = 16 << 10
	dateLayout    = "2006-01-02"
	multipartFile = "file"
)

// requireUser returns the trimmed X-User-ID header or a 400 response.
func requireUser(r *http.Request) (string, *ResponseBuilder) {
	id := sanitizeInput(r.Header.Get(HeaderUserID))
	if id == "" {
		return "", BadRequestError("missing " + HeaderUserID + " header")
	}
	if len(id) > maxUserIDLen {
		return "", BadRequestError(HeaderUserID + " header too long")
	}
	return id, nil
}

// decodeJSON reads one JSON object into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) *ResponseBuilder {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return ErrorResponse(http.StatusUnsupportedMediaType, "content type must be application/json")
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, core.ErrInvalidAmount):
			return UnprocessableEntityError(core.ErrInvalidAmount.Error())
		case errors.Is(err, io.EOF):
			return BadRequestError("request body is empty")
		default:
			return BadRequestError(fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	if dec.More() {
		return BadRequestError("request body must contain a single JSON object")
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// parseDate accepts YYYY-MM-DD or RFC 3339. The result is in UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

// parseRange reads ?from= and ?to= as a half-open range of days. Without
// either bound the range is the current month. A lone bound that lies
// outside the current month takes the other bound from its own month.
func parseRange(query url.Values, now time.Time) (core.DateRange, error) {
	rng := budget.MonthWindow(now)
	from, to := query.Get("from"), query.Get("to")
	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return core.DateRange{}, err
		}
		rng.Start = t
		if to == "" && !rng.End.After(t) {
			rng.End = budget.MonthWindow(t).End
		}
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return core.DateRange{}, err
		}
		// "to" names the last included day.
		rng.End = t.AddDate(0, 0, 1)
		if from == "" && !rng.End.After(rng.Start) {
			rng.Start = budget.MonthWindow(t).Start
		}
	}
	return rng, nil
}

// readReceiptText returns the OCR text of a scan request. A multipart upload
// is run through the recognizer; any other body is taken as the text itself.
func (s *Server) readReceiptText(w http.ResponseWriter, r *http.Request) (string, *ResponseBuilder) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		return s.recognizeUpload(w, r)
	}
	if mt != "" && mt != "text/plain" {
		return "", ErrorResponse(http.StatusUnsupportedMediaType, "send text/plain OCR text or a multipart image upload")
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(s.maxReceiptBytes)))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", ErrorResponse(http.StatusRequestEntityTooLarge, "receipt text too large")
		}
		return "", BadRequestError("failed to read request body")
	}
	return string(body), nil
}

func (s *Server) recognizeUpload(w http.ResponseWriter, r *http.Request) (string, *ResponseBuilder) {
	if s.ocr == nil {
		return "", ErrorResponse(http.StatusNotImplemented, "image OCR is not available on this server")
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxImageBytes)
	file, header, err := r.FormFile(multipartFile)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", ErrorResponse(http.StatusRequestEntityTooLarge, "image too large")
		}
		return "", BadRequestError("missing image in form field \"" + multipartFile + "\"")
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return "", BadRequestError("only image files are supported")
	}
	img, err := io.ReadAll(file)
	if err != nil {
		return "", BadRequestError("failed to read image")
	}

	text, err := s.ocr.Recognize(r.Context(), img)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "OCR failed", "file", header.Filename, "error", err)
		return "", UnprocessableEntityError("could not read text from image")
	}
	return text, nil
}
