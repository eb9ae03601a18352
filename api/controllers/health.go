package controllers

import (
	"context"
	"net/http"

	"github.com/hometechhq/installr-backend/api/responses"
	"github.com/hometechhq/installr-backend/pkg/config"
	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/logger"
)

const envHeader = "X-Installr-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the primary store and redis. A failing primary store
// does not fail readiness: the fallback ledger keeps order creation alive,
// and reporting unready would take that path down with it.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{"db": "ok", "redis": "ok"}
		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["db"] = "degraded"
				if logg != nil {
					logg.Error(r.Context(), "primary store ping failed", err)
				}
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
