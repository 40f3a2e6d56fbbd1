package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/pimtong/fieldworks-backend/api/responses"
	"github.com/pimtong/fieldworks-backend/pkg/config"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/logger"
)

// Pinger is a backing dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fieldworks-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing dependency answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fieldworks-Env", cfg.App.Env)

		var errs []error
		for _, dep := range deps {
			if err := dep.Ping(r.Context()); err != nil {
				errs = append(errs, err)
			}
		}
		if combined := multierr.Combine(errs...); combined != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "dependencies unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
