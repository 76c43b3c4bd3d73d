package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dmreyes/backoffice-backend/api/responses"
	"github.com/dmreyes/backoffice-backend/pkg/config"
	"github.com/dmreyes/backoffice-backend/pkg/db"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
	"github.com/dmreyes/backoffice-backend/pkg/logger"
)

type cachePinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and cache. Either failing marks the
// process not ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, cache cachePinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{"database": "ok", "cache": "ok"}
		var failed bool

		if dbP == nil {
			checks["database"] = "unavailable"
			failed = true
		} else if err := dbP.Ping(ctx); err != nil {
			logg.Warn(ctx, "database ping failed: "+err.Error())
			checks["database"] = "unavailable"
			failed = true
		}

		if cache == nil {
			checks["cache"] = "unavailable"
			failed = true
		} else if err := cache.Ping(ctx); err != nil {
			logg.Warn(ctx, "cache ping failed: "+err.Error())
			checks["cache"] = "unavailable"
			failed = true
		}

		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
