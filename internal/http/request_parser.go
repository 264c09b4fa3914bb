package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/ledger"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// decodeJSON reads exactly one JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		// Field decoders report domain errors (bad date, bad amount) wrapped.
		for _, target := range validationErrors {
			if errors.Is(err, target) {
				return err
			}
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}

// paymentRequest is the body of the payment upsert endpoints. Absent fields
// stay nil and leave the stored value untouched.
type paymentRequest struct {
	PaymentID   string              `json:"paymentId"`
	ClientID    string              `json:"clientId"`
	DueDate     core.Date           `json:"dueDate"`
	Value       *core.Money         `json:"value"`
	Description *string             `json:"description"`
	Status      *core.PaymentStatus `json:"status"`
	PaidAt      *core.Date          `json:"paidAt"`
	ReceiptURL  *string             `json:"receiptUrl"`
}

func (p paymentRequest) toUpsert() ledger.UpsertRequest {
	req := ledger.UpsertRequest{
		ClientID:  strings.TrimSpace(p.ClientID),
		DueDate:   p.DueDate,
		PaymentID: strings.TrimSpace(p.PaymentID),
		Fields: ledger.PaymentFields{
			Value:      p.Value,
			Status:     p.Status,
			PaidAt:     p.PaidAt,
			ReceiptURL: p.ReceiptURL,
		},
	}
	if p.Description != nil {
		d := sanitizeInput(*p.Description)
		req.Fields.Description = &d
	}
	return req
}

type toggleRequest struct {
	ClientID string `json:"clientId"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
}

// parsePeriod reads year and month (1-12) from the query, defaulting each
// to today's. Present but malformed values are rejected.
func parsePeriod(r *http.Request, today core.Date) (core.Period, error) {
	year, err := queryInt(r, "year", today.Year())
	if err != nil {
		return core.Period{}, err
	}
	month, err := queryInt(r, "month", int(today.Month()))
	if err != nil {
		return core.Period{}, err
	}
	return core.NewPeriod(year, time.Month(month))
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return n, nil
}

// queryList splits a comma separated parameter, dropping blanks.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
