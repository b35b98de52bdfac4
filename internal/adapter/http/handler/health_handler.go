package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 5 * time.Second

// Check is one readiness dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// PostgresCheck pings the connection pool.
func PostgresCheck(pool *pgxpool.Pool) Check {
	return Check{Name: "postgres", Ping: pool.Ping}
}

// RedisCheck pings the report cache.
func RedisCheck(client *redis.Client) Check {
	return Check{
		Name: "redis",
		Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks []Check
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness returns 200 if the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 when every dependency answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := map[string]string{"status": "ready"}
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, c.Name+" unhealthy", err.Error())
			return
		}
		status[c.Name] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}
