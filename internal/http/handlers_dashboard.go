package http

import (
	"bytes"
	"net/http"
	"strconv"

	"bizdash/internal/export"
	"bizdash/internal/ledger"
	"bizdash/internal/log"
)

// handleDashboard returns the summary of ?year=&month= (today's month by
// default) with the alerts in ?dismissed= left out. Summaries are cached
// until the next write.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := s.today()
	period, err := parsePeriod(r, today)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dismissed := queryList(r, "dismissed")
	key := summaryKey(period, today, dismissed)

	if s.summaries != nil {
		cached, ok := s.summaries.Get(ctx, key)
		s.metrics.CacheLookup(ok)
		if ok {
			NewJSONResponse().Header("X-Cache", "HIT").Body(cached).Write(w)
			return
		}
	}

	snap, err := ledger.LoadSnapshot(ctx, s.store)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary := ledger.Summarize(snap, period, today, ledger.ParseDismissed(dismissed))
	if s.summaries != nil {
		s.summaries.Set(ctx, key, summary)
	}
	log.FromContext(ctx).DebugContext(ctx, "Dashboard summary computed",
		log.FieldPeriod, period.String(), "alerts", len(summary.Alerts))
	NewJSONResponse().Header("X-Cache", "MISS").Body(summary).Write(w)
}

// handleExport streams an xlsx workbook of ?year= (the current year by default).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, err := queryInt(r, "year", s.today().Year())
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := ledger.LoadSnapshot(ctx, s.store)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteLedger(&buf, snap, year); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(year, s.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
