package controllers

import (
	"context"
	"net/http"

	"github.com/hmansour/farmgate-pos/api/responses"
	"github.com/hmansour/farmgate-pos/pkg/config"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness only.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Farmgate-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports dependency reachability: the terminal UI polls this
// before allowing sales entry.
func HealthReady(cfg *config.Config, db pinger, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Farmgate-Env", cfg.App.Env)

		status := map[string]string{"status": "ready"}
		code := http.StatusOK

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
				code = http.StatusServiceUnavailable
			} else {
				status["database"] = "ok"
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				status["status"] = "degraded"
				status["redis"] = "unreachable"
				code = http.StatusServiceUnavailable
			} else {
				status["redis"] = "ok"
			}
		}

		responses.WriteSuccessStatus(w, code, status)
	}
}
