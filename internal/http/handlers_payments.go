package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/ledger"
)

// handleListPayments lists payments, narrowed by clientId, by year, or by
// year and month. Filtering uses each payment's effective period.
func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := queryInt(r, "year", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	month, err := queryInt(r, "month", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if month != 0 {
		if year == 0 {
			year = s.today().Year()
		}
		if _, err := core.NewPeriod(year, time.Month(month)); err != nil {
			writeError(w, r, err)
			return
		}
	}
	clientID := strings.TrimSpace(q.Get("clientId"))

	payments, err := s.store.Payments().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]core.Payment, 0, len(payments))
	for _, p := range payments {
		if clientID != "" && p.ClientID != clientID {
			continue
		}
		period := p.EffectivePeriod()
		if year != 0 && period.Year != year {
			continue
		}
		if month != 0 && int(period.Month) != month {
			continue
		}
		out = append(out, p)
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleUpsertPayment(w http.ResponseWriter, r *http.Request) {
	s.upsertPayment(w, r, s.reconciler.Upsert)
}

func (s *Server) handleManualPayment(w http.ResponseWriter, r *http.Request) {
	s.upsertPayment(w, r, s.reconciler.RecordManualPayment)
}

func (s *Server) upsertPayment(w http.ResponseWriter, r *http.Request, write func(context.Context, ledger.UpsertRequest) (core.Payment, error)) {
	var body paymentRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req := body.toUpsert()
	if req.ClientID != "" {
		if _, err := s.store.Clients().Get(r.Context(), req.ClientID); errors.Is(err, core.ErrNotFound) {
			writeError(w, r, fmt.Errorf("%w: unknown client %s", errBadRequest, req.ClientID))
			return
		} else if err != nil {
			writeError(w, r, err)
			return
		}
	}
	payment, err := write(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(payment).Write(w)
}

// handleTogglePayment flips the client's payment for a month between paid
// and pending, creating a paid one when the month has none.
func (s *Server) handleTogglePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body toggleRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.ClientID) == "" {
		writeError(w, r, core.ErrEmptyClientID)
		return
	}
	period, err := core.NewPeriod(body.Year, time.Month(body.Month))
	if err != nil {
		writeError(w, r, err)
		return
	}
	client, err := s.store.Clients().Get(ctx, strings.TrimSpace(body.ClientID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	payment, err := s.reconciler.Toggle(ctx, client, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(payment).Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if _, err := s.reconciler.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
