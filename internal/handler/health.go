package handler

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyloop/progression/internal/infra"
)

// HealthHandler returns 200 when the database is reachable, 503 otherwise.
func HealthHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := infra.HealthCheck(r.Context(), pool); err != nil {
			RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
			return
		}
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
