package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"finboard/internal/export"
	"finboard/internal/log"
	"finboard/internal/report"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady runs every readiness check with a shared timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(s.checks))
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	NewResponse().Status(code).JSON(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w)
}

// currentReport resolves the sort parameters and fetches the report. It
// writes the error response itself and returns false on bad parameters.
func (s *Server) currentReport(w http.ResponseWriter, r *http.Request) (report.Result, bool) {
	sort, err := ParseSortParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return report.Result{}, false
	}
	res := s.reports.Current(r.Context(), sort)
	for _, e := range res.Errors {
		log.FromContext(r.Context()).WithComponent(log.ComponentReport).WarnContext(r.Context(), "Report source failed",
			log.FieldSource, e.Source, log.FieldError, e.Err.Error())
	}
	return res, true
}

// handleReport serves the report with the client's window over the working
// set. loaded is rounded up to whole pages; it belongs to prevSort/prevDir
// when given, and a sort that differs from them resets the window to one
// page. Primary source failures are listed in the body; the status stays 200
// because the remaining figures are still valid.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.currentReport(w, r)
	if !ok {
		return
	}
	prev, err := ParsePrevSort(r.URL.Query(), res.Sort)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	events(r).LogReportServed(r.Context(), string(res.Authority), string(res.DataSource),
		string(res.Sort.Field), string(res.Sort.Direction), len(res.Working))
	v := reportView(s.sorter, res, prev, ParseLoaded(r.URL.Query()))
	NewResponse().JSON(toReportJSON(res, v)).Write(w)
}

func (s *Server) handleExportPnL(w http.ResponseWriter, r *http.Request) {
	res, ok := s.currentReport(w, r)
	if !ok {
		return
	}
	now := s.now()
	body := export.PnL(export.PnLInput{
		EntityName: s.entityName,
		Date:       now,
		KPIs:       res.KPIs,
		Payroll:    res.Payroll,
		Categories: res.Categories.Buckets,
	})
	s.writeExport(w, r, export.ReportPnL, now, body)
}

// handleExportTransactions exports the whole working set in the requested
// order, not just the loaded window.
func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	res, ok := s.currentReport(w, r)
	if !ok {
		return
	}
	now := s.now()
	s.writeExport(w, r, export.ReportTransactions, now, export.Transactions(res.Working))
}

func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, reportType string, now time.Time, body string) {
	name := export.Filename(reportType, s.entityName, now)
	events(r).LogExport(r.Context(), reportType, name)
	NewResponse().CSV(name, body).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	t, err := s.ledger.Create(r.Context(), p.TransactionInput())
	if err != nil {
		s.serviceError(w, r, log.OpCreate, err)
		return
	}
	events(r).LogTransactionCreated(r.Context(), t.ID, string(t.Kind), t.Amount.String(), t.Category, string(t.Source))
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		JSON(toTransactionJSON(t)).
		Write(w)
}

func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	inputs, err := ParseImportBody(r)
	if errors.Is(err, errUnsupportedBody) {
		ErrorResponse(http.StatusUnsupportedMediaType, "send application/json or text/csv").Write(w)
		return
	}
	if err != nil {
		BadRequestError(fmt.Sprintf("malformed import body: %v", err)).Write(w)
		return
	}
	created, err := s.ledger.Import(r.Context(), inputs)
	if err != nil {
		s.serviceError(w, r, log.OpImport, err)
		return
	}
	events(r).LogTransactionsImported(r.Context(), len(created))
	NewResponse().Status(http.StatusCreated).JSON(map[string]any{
		"imported":     len(created),
		"transactions": toTransactionsJSON(created),
	}).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		s.serviceError(w, r, log.OpDelete, err)
		return
	}
	events(r).LogTransactionDeleted(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}
