package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is anything with a Ping method: the database pool, the Redis
// client and the event bus all qualify.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks holds the dependencies probed by the health endpoint. A nil
// checker is reported as "disabled" and does not degrade the status; the
// memory storage driver runs without a database and Redis is optional.
type HealthChecks struct {
	Database HealthChecker
	Redis    HealthChecker
	EventBus HealthChecker
}

const (
	probeOK          = "ok"
	probeUnreachable = "unreachable"
	probeDisabled    = "disabled"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	EventBus string `json:"event_bus"`
}

// HealthHandler probes every configured checker and answers 503 with
// status "degraded" if any of them fail.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status:   "ok",
			Database: probe(ctx, checks.Database),
			Redis:    probe(ctx, checks.Redis),
			EventBus: probe(ctx, checks.EventBus),
		}

		status := http.StatusOK
		for _, p := range []string{resp.Database, resp.Redis, resp.EventBus} {
			if p == probeUnreachable {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		JSON(w, status, resp)
	}
}

func probe(ctx context.Context, c HealthChecker) string {
	if c == nil {
		return probeDisabled
	}
	if err := c.Ping(ctx); err != nil {
		return probeUnreachable
	}
	return probeOK
}
