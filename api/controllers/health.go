package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/platehub-backend/api/responses"
	"github.com/angelmondragon/platehub-backend/pkg/config"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is implemented by the database, redis and pubsub clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency names a readiness check target. Nil pingers are skipped.
type Dependency struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Platehub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each dependency and answers 503 when any of them fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Platehub-Env", cfg.App.Env)

		checks := make(map[string]string, len(deps))
		ready := true
		for _, dep := range deps {
			if dep.Pinger == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			err := dep.Pinger.Ping(ctx)
			cancel()
			if err != nil {
				ready = false
				checks[dep.Name] = "error"
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", dep.Name), "health.dependency_failed", err)
				}
				continue
			}
			checks[dep.Name] = "ok"
		}

		body := map[string]any{"status": "ready", "checks": checks}
		if !ready {
			body["status"] = "unavailable"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, body)
			return
		}
		responses.WriteSuccess(w, body)
	}
}
