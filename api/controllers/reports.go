package controllers

import (
	"net/http"

	"github.com/pimtong/fieldworks-backend/api/middleware"
	"github.com/pimtong/fieldworks-backend/api/responses"
	"github.com/pimtong/fieldworks-backend/internal/reports"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/logger"
)

// ReportSummary returns job counts per status for the requested window.
func ReportSummary(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		query := r.URL.Query()
		summary, err := svc.Summary(r.Context(), principal.Role, query.Get("date"), query.Get("period"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ReportWorkload returns per-technician job counts for the requested window.
func ReportWorkload(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		query := r.URL.Query()
		workload, err := svc.Workload(r.Context(), principal.Role, query.Get("date"), query.Get("period"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"workload": workload})
	}
}

// ReportOverdue returns open jobs whose scheduled date has already passed.
func ReportOverdue(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		overdue, err := svc.Overdue(r.Context(), principal.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"overdue": overdue})
	}
}
