package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"

	"jdpanel/pkg/contracts"
	httputil "jdpanel/pkg/http"
	"jdpanel/pkg/logger"
)

const readyCheckTimeout = 2 * time.Second

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Stats        map[string]any    `json:"stats,omitempty"`
}

type HealthHandler struct {
	checks []contracts.HealthChecker
	stats  []contracts.StatsProvider
	log    *logger.Logger
}

func NewHealthHandler(checks []contracts.HealthChecker, stats []contracts.StatsProvider, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		stats:  stats,
		log:    log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := HealthResponse{Status: "ok"}
	if len(h.stats) > 0 {
		resp.Stats = make(map[string]any, len(h.stats))
		for _, s := range h.stats {
			resp.Stats[s.Name()] = s.Stats()
		}
	}

	if err := httputil.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{Status: "ready", Dependencies: make(map[string]string, len(h.checks))}

	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			h.log.Error("Dependency health check failed",
				"dependency", c.Name(),
				"error", err,
				"path", r.URL.Path,
			)
			resp.Dependencies[c.Name()] = "error"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[c.Name()] = "ok"
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

type checkFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c checkFunc) Name() string                    { return c.name }
func (c checkFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckFunc adapts a plain function to contracts.HealthChecker.
func CheckFunc(name string, fn func(ctx context.Context) error) contracts.HealthChecker {
	return checkFunc{name: name, fn: fn}
}

func MongoCheck(client *mongo.Client) contracts.HealthChecker {
	return CheckFunc("mongo", func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
}

func PostgresCheck(pool *pgxpool.Pool) contracts.HealthChecker {
	return CheckFunc("postgres", pool.Ping)
}

func RedisCheck(rdb *redis.Client) contracts.HealthChecker {
	return CheckFunc("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
}
