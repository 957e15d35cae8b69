package httpx

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// Overall health states.
const (
	HealthOK          = "ok"
	HealthDegraded    = "degraded"
	HealthUnavailable = "unavailable"
)

// HealthChecker is satisfied by any dependency that exposes Ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks lists what the health endpoint probes. Database and EventBus
// are required: items cannot be written without them. Redis only backs the
// read cache, so losing it degrades the service without taking it down. A
// nil Redis is reported as "disabled".
type HealthChecks struct {
	Database HealthChecker
	EventBus HealthChecker
	Redis    HealthChecker
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	EventBus string `json:"event_bus"`
	Redis    string `json:"redis"`
}

// HealthHandler answers 200 while every required dependency responds and
// 503 otherwise, with a per-dependency breakdown either way.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{
			Database: probe(ctx, checks.Database),
			EventBus: probe(ctx, checks.EventBus),
			Redis:    probe(ctx, checks.Redis),
		}

		code := http.StatusOK
		switch {
		case resp.Database == "unreachable" || resp.EventBus == "unreachable":
			resp.Status = HealthUnavailable
			code = http.StatusServiceUnavailable
		case resp.Redis == "unreachable":
			resp.Status = HealthDegraded
		default:
			resp.Status = HealthOK
		}
		JSON(w, code, resp)
	}
}

func probe(ctx context.Context, c HealthChecker) string {
	if c == nil {
		return "disabled"
	}
	if err := c.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "ok"
}
