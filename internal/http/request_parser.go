// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data:
// JSON bodies, listing filters and date-range query parameters. Every
// failure is reported as a core bad request so handlers can pass it
// straight to writeError.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// DecodeJSON reads one JSON value from the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return core.BadRequestf("request body is required")
		case errors.As(err, &maxErr):
			return core.BadRequestf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, core.ErrBadRequest):
			return err
		}
		return core.BadRequestf("invalid JSON body: %v", err)
	}
	if dec.More() {
		return core.BadRequestf("request body must contain a single JSON value")
	}
	return nil
}

// ParseExpenseQuery reads listing filters, ordering and pagination from the
// query string. Absent parameters keep their zero value so the service
// applies its defaults.
func ParseExpenseQuery(query url.Values) (services.ExpenseQuery, error) {
	var q services.ExpenseQuery
	var err error

	if q.Page, err = intParam(query, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(query, "limit"); err != nil {
		return q, err
	}
	if q.From, err = dateParam(query, "start_date"); err != nil {
		return q, err
	}
	if q.To, err = dateParam(query, "end_date"); err != nil {
		return q, err
	}
	if q.MinAmount, err = moneyParam(query, "min_amount"); err != nil {
		return q, err
	}
	if q.MaxAmount, err = moneyParam(query, "max_amount"); err != nil {
		return q, err
	}

	q.CategoryID = sanitizeInput(query.Get("category_id"))
	q.Search = sanitizeInput(query.Get("search"))
	q.PaymentMethod = sanitizeInput(query.Get("payment_method"))
	q.OrderBy = storage.ExpenseOrder(strings.ToLower(sanitizeInput(query.Get("sort_by"))))

	switch order := strings.ToLower(sanitizeInput(query.Get("sort_order"))); order {
	case "", "desc":
	case "asc":
		q.Ascending = true
	default:
		return q, core.BadRequestf("sort_order must be asc or desc, got %q", order)
	}

	return q, nil
}

// ParseRangeParams validates the start_date and end_date query parameters.
func ParseRangeParams(query url.Values) (core.Window, error) {
	start := sanitizeInput(query.Get("start_date"))
	end := sanitizeInput(query.Get("end_date"))
	if start == "" || end == "" {
		return core.Window{}, core.BadRequestf("start_date and end_date are required")
	}
	return services.ParseRange(start, end)
}

// ParsePeriodParam reads ?period=, defaulting to monthly.
func ParsePeriodParam(query url.Values) (core.PeriodKind, error) {
	v := sanitizeInput(query.Get("period"))
	if v == "" {
		return core.Monthly, nil
	}
	return core.ParsePeriod(v)
}

func intParam(query url.Values, key string) (int, error) {
	v := sanitizeInput(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.BadRequestf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func dateParam(query url.Values, key string) (core.Date, error) {
	v := sanitizeInput(query.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(v)
}

func moneyParam(query url.Values, key string) (*core.Money, error) {
	v := sanitizeInput(query.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, core.BadRequestf("%s must be a number, got %q", key, v)
	}
	m, err := core.ParseMoney(d)
	if err != nil {
		return nil, core.BadRequestf("%s is out of range", key)
	}
	return &m, nil
}
